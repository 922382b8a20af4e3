package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	staleAISMinPoints = 10
	staleAISMinSpan = 2 * time.Hour
	staleAISMinSOG = 0.5
)

// DetectStaleAIS flags >= 10 consecutive points reporting identical
// heading, sog, and cog while sog > 0.5, spanning >= 2h — a stuck or
// replayed transponder feed (score 20). Feature-gated: callers should
// only invoke this when the stale_ais_detection flag is enabled —
// typology 8.
func DetectStaleAIS(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	start := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && sameReading(points[i], points[start]) && points[start].SOG > staleAISMinSOG {
			continue
		}
		run := points[start:i]
		if len(run) >= staleAISMinPoints && points[start].SOG > staleAISMinSOG {
			span := run[len(run)-1].TimestampUTC.Sub(run[0].TimestampUTC)
			if span >= staleAISMinSpan {
				if repo == nil || !repo.ExistingAnomalyNear(v.ID, models.TypologyStaleAISData, run[0].TimestampUTC) {
					out = append(out, models.SpoofingAnomaly{
							VesselID: v.ID,
							Typology: models.TypologyStaleAISData,
							StartTimeUTC: run[0].TimestampUTC,
							EndTimeUTC: run[len(run)-1].TimestampUTC,
							RiskScoreComponent: 20,
							Evidence: map[string]any{
								"heading": run[0].Heading,
								"sog": run[0].SOG,
								"cog": run[0].COG,
								"point_count": len(run),
							},
					})
				}
			}
		}
		start = i
	}
	return out
}

func sameReading(a, b models.AISPoint) bool {
	return a.Heading == b.Heading && a.SOG == b.SOG && a.COG == b.COG
}
