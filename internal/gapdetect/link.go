package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// linkWindow is the +/-2h tolerance used to associate an anomaly with a
// temporally-overlapping gap event.
const linkWindow = 2 * time.Hour

// LinkAnomaliesToGaps assigns GapEventID on every anomaly not already
// linked, choosing the gap whose [start,end] window, expanded by
// linkWindow on both ends, overlaps the anomaly's own window and whose
// gap start is temporally nearest to the anomaly's start. Anomalies with
// no overlapping gap are left unlinked.D post-pass.
func LinkAnomaliesToGaps(anomalies []models.SpoofingAnomaly, gaps []models.GapEvent) []models.SpoofingAnomaly {
	out := make([]models.SpoofingAnomaly, len(anomalies))
	copy(out, anomalies)

	for i := range out {
		if out[i].GapEventID != nil {
			continue
		}
		var best *models.GapEvent
		var bestDelta time.Duration
		for g := range gaps {
			gap := &gaps[g]
			winStart := gap.GapStartUTC.Add(-linkWindow)
			winEnd := gap.GapEndUTC.Add(linkWindow)
			if out[i].EndTimeUTC.Before(winStart) || out[i].StartTimeUTC.After(winEnd) {
				continue
			}
			delta := absDuration(out[i].StartTimeUTC.Sub(gap.GapStartUTC))
			if best == nil || delta < bestDelta {
				best = gap
				bestDelta = delta
			}
		}
		if best != nil {
			id := best.ID
			out[i].GapEventID = &id
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
