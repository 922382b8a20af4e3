// Package gapdetect derives gap events and spoofing typology anomalies
// from a single vessel's ordered AIS point stream, plus the movement
// envelope bounding each gap. Grounded on the prior one-file-per-
// typology layout (internal/heuristics/{dust,peel_chain,timing,
// utxo_age}_analysis.go) and its sequential per-vessel pass style
// (cluster_engine.go's edge loop).
package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the narrow persistence port gap detection depends on.
// Detectors never hold a live DB session; the caller (internal/pipeline)
// wires a concrete implementation (internal/db).
type Repository interface {
	// ExistingGapNear reports whether a GapEvent already exists for
	// vesselID with gap_start_utc within ±window of start (dedup
	// against re-imported external gap reports).
	ExistingGapNear(vesselID int64, start time.Time, window time.Duration) bool

	// ExistingAnomalyNear reports whether a SpoofingAnomaly of the given
	// typology already exists for vesselID starting at start
	// (per-typology dedup).
	ExistingAnomalyNear(vesselID int64, typology models.SpoofingTypology, start time.Time) bool
}

// Result accumulates the count-dict every detection step returns
// instead of raising.
type Result struct {
	GapsCreated int
	GapsSkippedDedup int
	AnomaliesCreated map[models.SpoofingTypology]int
	AnomaliesSkipped int
}

func newResult() *Result {
	return &Result{AnomaliesCreated: make(map[models.SpoofingTypology]int)}
}
