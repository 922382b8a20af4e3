package identity

import (
	"strconv"
	"time"

	"github.com/shadowfleet/aisforensics/internal/apperrors"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const aisReassignBatchSize = 50000

// ExecuteMerge resolves both IDs to canonical first; if they resolve to
// the same vessel the merge is rejected. The lower ID always becomes
// canonical (deterministic), then every reassignment step runs in
// order. Mirrors the prior {success, error} result
// idiom — a partial failure mid-sequence returns a failed MergeResult
// rather than a panic; storage-layer transactional atomicity is the
// Postgres implementation's responsibility (internal/db), not this
// package's.
func ExecuteMerge(vesselAID, vesselBID int64, repo Repository, executedBy string, now time.Time) models.MergeResult {
	canonA, err := Canonical(repo.MergedIntoOf, vesselAID)
	if err != nil {
		return failedMerge(err)
	}
	canonB, err := Canonical(repo.MergedIntoOf, vesselBID)
	if err != nil {
		return failedMerge(err)
	}
	if canonA == canonB {
		return failedMerge(apperrors.New(apperrors.KindMerge, "vessels already resolve to the same canonical record"))
	}

	canonicalID, absorbedID := canonA, canonB
	if absorbedID < canonicalID {
		canonicalID, absorbedID = absorbedID, canonicalID
	}

	op := models.MergeOperation{
		CanonicalVesselID: canonicalID,
		AbsorbedVesselID: absorbedID,
		ExecutedBy: executedBy,
		ExecutedAt: now,
		Status: models.MergeOpCompleted,
	}

	watchlistReassigned, deletedWatchlist, err := repo.ReassignWatchlist(canonicalID, absorbedID)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reassign watchlist", err))
	}
	stsReassigned, deletedSTS, err := repo.ReassignSTSEvents(canonicalID, absorbedID)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reassign sts events", err))
	}
	historyReassigned, err := repo.ReassignVesselHistory(canonicalID, absorbedID)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reassign vessel history", err))
	}
	if err := repo.SetOriginalVesselIDIfNull(canonicalID, absorbedID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "backfill original_vessel_id", err))
	}
	simpleFKCounts, err := repo.ReassignSimpleFKTables(canonicalID, absorbedID)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reassign simple fk tables", err))
	}
	aisReassigned, minID, maxID, err := repo.ReassignAISPointsBatched(canonicalID, absorbedID, aisReassignBatchSize)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reassign ais points", err))
	}
	if err := repo.BackfillCanonicalMetadata(canonicalID, absorbedID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "backfill canonical metadata", err))
	}
	if err := repo.AppendVesselHistory(models.VesselHistory{
			VesselID: canonicalID,
			FieldChanged: "mmsi_absorbed",
			NewValue: formatVesselID(absorbedID),
			ObservedAt: now,
			Source: "identity_resolver",
	}); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "append vessel history", err))
	}
	if err := repo.SetMergedInto(absorbedID, canonicalID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "set merged_into", err))
	}
	if _, err := repo.AutoRejectPendingCandidatesReferencing(absorbedID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "auto-reject pending candidates", err))
	}

	op.AffectedRecords = models.AffectedRecords{
		WatchlistReassigned: watchlistReassigned,
		STSReassigned: stsReassigned,
		HistoryReassigned: historyReassigned,
		SimpleFKCounts: simpleFKCounts,
		AISPointsReassigned: aisReassigned,
		AISPointIDRangeMin: minID,
		AISPointIDRangeMax: maxID,
		DeletedWatchlistRows: deletedWatchlist,
		DeletedSTSRows: deletedSTS,
	}

	opID, err := repo.PersistMergeOperation(op)
	if err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "persist merge operation", err))
	}
	op.ID = opID

	if err := repo.AppendAuditLog(models.AuditLogEntry{
			Action: "identity_merge",
			EntityType: "vessel",
			EntityID: canonicalID,
			Details: map[string]any{
				"absorbed_vessel_id": absorbedID,
				"merge_operation_id": opID,
			},
			CreatedAt: now,
	}); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "append audit log", err))
	}

	if err := repo.RescoreGapEventsForVessel(canonicalID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "rescore canonical gap events", err))
	}

	return models.MergeResult{Success: true, Operation: &op}
}

func failedMerge(err error) models.MergeResult {
	return models.MergeResult{Success: false, Error: err.Error()}
}

func formatVesselID(id int64) string {
	return strconv.FormatInt(id, 10)
}
