// Package sts implements the three-phase ship-to-ship transfer detector:
// visible-visible (confirmed), approaching, and dark-dark (gap-overlap
// correlated). Grounded on the prior accumulation style in
// cluster_engine.go's edge-building loop and timing_analysis.go's
// run-based pattern detection, adapted from per-transaction scanning to
// per-time-bucket vessel-pair scanning.
package sts

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository answers dedup queries so that successive pipeline runs
// don't re-emit an event already recorded for a pair whose active window
// overlaps a proposed one.
type Repository interface {
	ExistingEventOverlapping(vessel1ID, vessel2ID int64, start, end time.Time) bool
}

// Result tallies what one detection pass produced, in the earlier design's
// count-dict style (realtime_risk.go, block_scanner.go).
type Result struct {
	VisibleVisibleCreated int
	ApproachingCreated int
	DarkDarkCreated int
	SkippedDedup int
}

func pairKey(v1, v2 int64) (int64, int64) {
	if v1 < v2 {
		return v1, v2
	}
	return v2, v1
}
