package identity

import (
	"github.com/shadowfleet/aisforensics/internal/apperrors"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// ReverseMerge is best-effort: it reactivates the absorbed vessel,
// re-creates snapshotted deleted rows, removes the mmsi_absorbed history
// entry, clears evidence-card provenance, marks the operation reversed,
// and rescores both sides. AIS points are NOT split back — the snapshot
// stores counts, not per-point IDs, so this is unsafe once new AIS has
// arrived for the canonical vessel after the merge; that case is refused
// outright rather than silently losing data.
func ReverseMerge(operationID int64, repo Repository) models.MergeResult {
	op, ok := repo.MergeOperationByID(operationID)
	if !ok {
		return failedMerge(apperrors.New(apperrors.KindMerge, "merge operation not found"))
	}
	if op.Status == models.MergeOpReversed {
		return failedMerge(apperrors.New(apperrors.KindMerge, "merge operation already reversed"))
	}

	lastCanonical, ok := repo.LastAISPoint(op.CanonicalVesselID)
	if ok && lastCanonical.TimestampUTC.After(op.ExecutedAt) {
		return failedMerge(apperrors.New(apperrors.KindMerge, "unsafe reverse: new AIS has arrived for the canonical vessel since this merge"))
	}

	if err := repo.ReactivateVessel(op.AbsorbedVesselID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "reactivate absorbed vessel", err))
	}
	if err := repo.RestoreSnapshottedRows(op); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "restore snapshotted rows", err))
	}
	if err := repo.RemoveVesselHistoryEntry(op.CanonicalVesselID, "mmsi_absorbed"); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "remove mmsi_absorbed history entry", err))
	}
	if err := repo.ClearEvidenceCardProvenance(op.AbsorbedVesselID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "clear evidence card provenance", err))
	}
	if err := repo.ClearMergedInto(op.AbsorbedVesselID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "clear merged_into", err))
	}
	if err := repo.MarkMergeOperationReversed(operationID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "mark operation reversed", err))
	}
	if err := repo.RescoreGapEventsForVessel(op.CanonicalVesselID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "rescore canonical", err))
	}
	if err := repo.RescoreGapEventsForVessel(op.AbsorbedVesselID); err != nil {
		return failedMerge(apperrors.Wrap(apperrors.KindMerge, "rescore absorbed", err))
	}

	op.Status = models.MergeOpReversed
	return models.MergeResult{Success: true, Operation: &op}
}
