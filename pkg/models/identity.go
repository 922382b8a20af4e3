package models

import "time"

// MergeCandidateStatus is the lifecycle of a proposed identity merge.
type MergeCandidateStatus string

const (
	MergeCandidatePending MergeCandidateStatus = "pending"
	MergeCandidateAutoMerged MergeCandidateStatus = "auto_merged"
	MergeCandidateAnalystMerged MergeCandidateStatus = "analyst_merged"
	MergeCandidateRejected MergeCandidateStatus = "rejected"
)

// MergeCandidate is an unordered (vesselA, vesselB) pair under review for
// identity resolution, stored canonically with A < B.
type MergeCandidate struct {
	ID int64 `json:"id"`
	VesselAID int64 `json:"vesselAId"`
	VesselBID int64 `json:"vesselBId"`
	ConfidenceScore int `json:"confidenceScore"` // 0..100
	MatchReasons map[string]int `json:"matchReasons"`
	Status MergeCandidateStatus `json:"status"`
	ASnapshot *VesselSnapshot `json:"aSnapshot,omitempty"`
	BSnapshot *VesselSnapshot `json:"bSnapshot,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// VesselSnapshot is a positional snapshot of one end of a merge
// candidate, captured at scoring time for audit purposes.
type VesselSnapshot struct {
	VesselID int64 `json:"vesselId"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// MergeOperationStatus tracks whether a completed merge has since been
// reversed.
type MergeOperationStatus string

const (
	MergeOpCompleted MergeOperationStatus = "completed"
	MergeOpReversed MergeOperationStatus = "reversed"
)

// AffectedRecords is the snapshot captured at merge time, sufficient for
// a best-effort undo (counts + ID ranges + deleted-row snapshots). It
// does NOT retain per-AIS-point IDs, so reverse_merge cannot split AIS
// points back out once new data has arrived (see this system Open
// Question decisions).
type AffectedRecords struct {
	WatchlistReassigned int `json:"watchlistReassigned"`
	STSReassigned int `json:"stsReassigned"`
	HistoryReassigned int `json:"historyReassigned"`
	SimpleFKCounts map[string]int `json:"simpleFkCounts"`
	AISPointsReassigned int `json:"aisPointsReassigned"`
	AISPointIDRangeMin int64 `json:"aisPointIdRangeMin"`
	AISPointIDRangeMax int64 `json:"aisPointIdRangeMax"`
	DeletedWatchlistRows []map[string]any `json:"deletedWatchlistRows,omitempty"`
	DeletedSTSRows []StsTransferEvent `json:"deletedStsRows,omitempty"`
}

// MergeOperation is the record of an executed (or reversed) merge.
type MergeOperation struct {
	ID int64 `json:"id"`
	CanonicalVesselID int64 `json:"canonicalVesselId"`
	AbsorbedVesselID int64 `json:"absorbedVesselId"`
	AffectedRecords AffectedRecords `json:"affectedRecords"`
	ExecutedBy string `json:"executedBy"`
	ExecutedAt time.Time `json:"executedAt"`
	Status MergeOperationStatus `json:"status"`
}

// MergeResult is the typed {success, error} result of a merge attempt.
type MergeResult struct {
	Success bool `json:"success"`
	Error string `json:"error,omitempty"`
	Operation *MergeOperation `json:"operation,omitempty"`
}
