package identity

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the narrow port the identity resolver needs from
// storage — grounded on the prior internal/bitcoin/client.go pattern
// of a small interface wrapping whatever RPC/DB client actually backs
// it, so the scoring and merge-execution logic never imports pgx
// directly.
type Repository interface {
	// VesselByID returns a single vessel row.
	VesselByID(id int64) (models.Vessel, bool)
	// MergedIntoOf returns a vessel's merged_into pointer (nil if canonical).
	MergedIntoOf(id int64) (*int64, bool)

	// ExistingCandidate reports whether a MergeCandidate already exists
	// for the unordered pair.
	ExistingCandidate(a, b int64) bool
	// HasOverlappingAIS reports whether the two vessels share any common
	// 3600-second epoch bucket across all their AIS points.
	HasOverlappingAIS(a, b int64) bool
	// LastAISPoint returns a vessel's most recent AIS point.
	LastAISPoint(vesselID int64) (models.AISPoint, bool)
	// FirstAISPoint returns a vessel's earliest AIS point.
	FirstAISPoint(vesselID int64) (models.AISPoint, bool)
	// HasGapEvent reports whether a vessel has at least one gap event.
	HasGapEvent(vesselID int64) bool
	// HasAISSince reports whether any AIS point exists for vesselID at
	// or after since (used for dark_vessel_silent).
	HasAISSince(vesselID int64, since time.Time) bool
	// AISWithinNMOfRussianTerminal reports whether vesselID had any AIS
	// point within nm of a Russian oil terminal within the last window.
	AISWithinNMOfRussianTerminal(vesselID int64, nm float64, window time.Duration) bool
	// PortCallsDuring returns a vessel's port calls overlapping [start, end].
	PortCallsDuring(vesselID int64, start, end time.Time) []models.PortCall
	// NearbyVesselCount counts distinct other vessels within nm of (lat,
	// lon) within the trailing window (anchorage density check).
	NearbyVesselCount(lat, lon, nm float64, window time.Duration, around time.Time) int
	// SpoofingAnomalyExistsForIMO reports whether a prior IMO_FRAUD
	// anomaly references the given IMO or either vessel ID.
	SpoofingAnomalyExistsForIMO(imo string, vesselIDs...int64) bool
	// CanonicalVesselsSharingIMO groups every canonical vessel ID by its
	// IMO number, for duplicate-IMO detection.
	CanonicalVesselsSharingIMO() map[string][]int64
	// SaveIMOFraudAnomaly persists a newly detected IMO_FRAUD anomaly,
	// linked to every vessel ID sharing the duplicated IMO.
	SaveIMOFraudAnomaly(anomaly models.SpoofingAnomaly, vesselIDs []int64) error
	// PendingCandidatesWithSameIMODominant returns every pending
	// MergeCandidate whose same_imo match reason exceeds 25% of its
	// total confidence score.
	PendingCandidatesWithSameIMODominant() []models.MergeCandidate
	// RecapMergeCandidate persists an updated confidence score and match
	// reasons for an existing pending candidate.
	RecapMergeCandidate(candidate models.MergeCandidate) error

	// --- merge execution ---

	ReassignWatchlist(canonicalID, absorbedID int64) (reassigned int, deleted []map[string]any, err error)
	ReassignSTSEvents(canonicalID, absorbedID int64) (reassigned int, deleted []models.StsTransferEvent, err error)
	ReassignVesselHistory(canonicalID, absorbedID int64) (reassigned int, err error)
	SetOriginalVesselIDIfNull(canonicalID, absorbedID int64) error
	ReassignSimpleFKTables(canonicalID, absorbedID int64) (map[string]int, error)
	ReassignAISPointsBatched(canonicalID, absorbedID int64, batchSize int) (reassigned int, minID, maxID int64, err error)
	BackfillCanonicalMetadata(canonicalID, absorbedID int64) error
	AppendVesselHistory(entry models.VesselHistory) error
	SetMergedInto(absorbedID, canonicalID int64) error
	ClearMergedInto(vesselID int64) error
	AutoRejectPendingCandidatesReferencing(vesselID int64) (int, error)
	PersistMergeOperation(op models.MergeOperation) (int64, error)
	AppendAuditLog(entry models.AuditLogEntry) error
	RescoreGapEventsForVessel(vesselID int64) error

	// --- reverse merge ---

	MergeOperationByID(id int64) (models.MergeOperation, bool)
	ReactivateVessel(vesselID int64) error
	RestoreSnapshottedRows(op models.MergeOperation) error
	RemoveVesselHistoryEntry(vesselID int64, fieldChanged string) error
	ClearEvidenceCardProvenance(vesselID int64) error
	MarkMergeOperationReversed(id int64) error
}
