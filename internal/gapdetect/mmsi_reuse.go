package gapdetect

import (
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// impliedSpeedKn returns the implied speed in knots between two
// consecutive points.
func impliedSpeedKn(p1, p2 models.AISPoint) float64 {
	hours := p2.TimestampUTC.Sub(p1.TimestampUTC).Hours()
	if hours <= 0 {
		return 0
	}
	return geo.HaversineNM(p1.Lat, p1.Lon, p2.Lat, p2.Lon) / hours
}

// DetectMMSIReuse flags consecutive points whose implied speed exceeds
// 30 kn (score 40, or 55 if > 100 kn).
func DetectMMSIReuse(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for i := 0; i+1 < len(points); i++ {
		p1, p2 := points[i], points[i+1]
		speed := impliedSpeedKn(p1, p2)
		if speed <= 30 {
			continue
		}
		if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyMMSIReuse, p1.TimestampUTC) {
			continue
		}
		score := 40
		if speed > 100 {
			score = 55
		}
		out = append(out, models.SpoofingAnomaly{
				VesselID: v.ID,
				Typology: models.TypologyMMSIReuse,
				StartTimeUTC: p1.TimestampUTC,
				EndTimeUTC: p2.TimestampUTC,
				RiskScoreComponent: score,
				Evidence: map[string]any{
					"implied_speed_kn": speed,
				},
		})
	}
	return out
}
