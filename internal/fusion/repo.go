// Package fusion implements the feature-gated cross-signal detectors
// that read persisted core-detection output and emit additional fleet-
// level alerts and breakdown keys: merge chains, STS relay chains,
// convoy detection, behavioral fingerprinting, voyage prediction, cargo
// inference, and weather correlation.
// Grounded on the prior internal/heuristics graph-walk and
// statistical modules (factor_graph.go's dependency-group traversal,
// evidence_propagation.go's multi-hop chain building, topology_analysis.go's
// graph metrics, wallet_fingerprint.go's score-table attribution,
// migration_tracking.go's sequence classification), adapted from
// per-transaction heuristics to per-vessel and per-fleet ones.
package fusion

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the narrow persistence port every fusion detector reads
// through. A concrete implementation lives in internal/db.
type Repository interface {
	// MergeCandidatesAbove returns every MergeCandidate with
	// ConfidenceScore >= minConfidence, canonical pairs only.
	MergeCandidatesAbove(minConfidence int) []models.MergeCandidate
	// ScrappedIMO reports whether vesselID's IMO is flagged scrapped or
	// recycled.
	ScrappedIMO(vesselID int64) bool
	// ExistingMergeChain reports whether a MergeChain already exists for
	// the given sorted vessel-ID list (dedup key).
	ExistingMergeChain(vesselIDs []int64) bool
	// SaveMergeChain persists a newly detected chain.
	SaveMergeChain(chain models.MergeChain) error

	// STSEventsSince returns every StsTransferEvent at or after since,
	// ordered by StartTimeUTC ascending (temporal order for relay-chain
	// path search).
	STSEventsSince(since time.Time) []models.StsTransferEvent
	// ExistingFleetAlert reports whether a FleetAlert of kind already
	// exists for the given sorted vessel-ID list.
	ExistingFleetAlert(kind string, vesselIDs []int64) bool
	// SaveFleetAlert persists a newly detected fleet alert.
	SaveFleetAlert(alert models.FleetAlert) error

	// AISPointsSince returns every AIS point for vesselID at or after
	// since, ordered by TimestampUTC ascending.
	AISPointsSince(vesselID int64, since time.Time) []models.AISPoint
	// CanonicalVesselIDs returns every vessel ID that is its own
	// canonical representative (MergedInto == nil).
	CanonicalVesselIDs() []int64
	// VesselByID returns a single vessel row.
	VesselByID(id int64) (models.Vessel, bool)
	// ExistingConvoyEvent reports whether a ConvoyEvent already exists
	// for the unordered vessel pair overlapping [start, end].
	ExistingConvoyEvent(v1, v2 int64, start, end time.Time) bool
	// SaveConvoyEvent persists a newly detected convoy.
	SaveConvoyEvent(event models.ConvoyEvent) error
	// LoiteringEventsFor returns every loitering event for vesselID.
	LoiteringEventsFor(vesselID int64) []models.LoiteringEvent
	// STSEventsFor returns every STS event involving vesselID.
	STSEventsFor(vesselID int64) []models.StsTransferEvent

	// FingerprintFor returns the persisted fingerprint vector for
	// vesselID, if one has been computed.
	FingerprintFor(vesselID int64) (models.FingerprintVector, bool)
	// SaveFingerprint persists a computed fingerprint vector.
	SaveFingerprint(fp models.FingerprintVector) error
	// FingerprintCandidates returns up to limit canonical vessel IDs
	// eligible to be compared against vesselID (same type/DWT-band/AIS
	// class, per the eliminative filter), excluding vesselID itself.
	FingerprintCandidates(vesselID int64, limit int) []int64

	// PortCallsFor returns vesselID's port calls ordered by ArrivalUTC
	// ascending.
	PortCallsFor(vesselID int64) []models.PortCall
	// SaveVoyageTemplate persists a newly learned route template.
	SaveVoyageTemplate(t models.VoyageTemplate) error
	// VoyageTemplates returns every persisted route template.
	VoyageTemplates() []models.VoyageTemplate
	// PortByID resolves a port for the STS-zone-deviation and Russian-
	// terminal checks.
	PortByID(id int64) (models.Port, bool)
	// CorridorTypeByID resolves a corridor for the STS-zone deviation
	// check and the Arctic ice-class check.
	CorridorTypeByID(id int64) (models.CorridorType, bool)
	// MaxDraughtFor returns the design max draught for a vessel type/DWT
	// combination, used by the laden-ratio cargo inference.
	MaxDraughtFor(vesselType string, dwt float64) (float64, bool)

	// WeatherAt fetches wind speed (knots) at a point and time from the
	// external weather collaborator.
	WeatherAt(lat, lon float64, at time.Time) (windKn float64, ok bool)

	// PICoverageChangeCountSince counts pi_coverage vessel_history
	// entries since the cutoff, for the pi_cycling typology.
	PICoverageChangeCountSince(vesselID int64, since time.Time) int
	// AveragePointsPerDay returns the mean AIS point count per day over
	// the trailing window, for the sparse_transmission typology.
	AveragePointsPerDay(vesselID int64, window time.Duration) float64
	// ExistingAnomalyNear reports whether an anomaly of the given
	// typology already exists for vesselID near the given time (the
	// same dedup rule the gap typology passes use).
	ExistingAnomalyNear(vesselID int64, typology models.SpoofingTypology, near time.Time) bool
}

// Result tallies one fusion pass in the prior count-dict style
// (internal/heuristics/investigation.go's summary counters).
type Result struct {
	MergeChainsFound int
	RelayChainsFound int
	ConvoysFound int
	FingerprintsScored int
	VoyagesPredicted int
	WeatherDeductions int
	TypologiesFound int
}
