package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// DetectDualTransmission flags two points from the same MMSI within 30
// minutes whose implied speed exceeds 30 kn (score 30) — evidence of two
// physical transmitters under one MMSI. One detection per anchor point:
// stop scanning forward once the first match is found.
// typology 2.
func DetectDualTransmission(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for i := 0; i < len(points); i++ {
		anchor := points[i]
		for j := i + 1; j < len(points); j++ {
			other := points[j]
			if other.TimestampUTC.Sub(anchor.TimestampUTC) > 30*time.Minute {
				break
			}
			if impliedSpeedKn(anchor, other) <= 30 {
				continue
			}
			if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyDualTransmission, anchor.TimestampUTC) {
				break
			}
			out = append(out, models.SpoofingAnomaly{
					VesselID: v.ID,
					Typology: models.TypologyDualTransmission,
					StartTimeUTC: anchor.TimestampUTC,
					EndTimeUTC: other.TimestampUTC,
					RiskScoreComponent: 30,
					Evidence: map[string]any{
						"implied_speed_kn": impliedSpeedKn(anchor, other),
					},
			})
			break // one detection per anchor point
		}
	}
	return out
}
