package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	slowRollMinKn = 0.5
	slowRollMaxKn = 2.0
	slowRollMinDuration = 12 * time.Hour
)

// DetectSlowRoll flags a tanker sustaining 0.5-2.0 kn for >= 12h, not
// near any major port at any point in the run (score 12). Tanker-only —
// typology 7.
func DetectSlowRoll(v models.Vessel, points []models.AISPoint, idx *corridor.Index, repo Repository) []models.SpoofingAnomaly {
	if v.VesselType != "tanker" {
		return nil
	}
	var out []models.SpoofingAnomaly
	start := -1
	for i, p := range points {
		if p.SOG >= slowRollMinKn && p.SOG <= slowRollMaxKn {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			out = append(out, slowRollIfLongEnough(v, points, start, i-1, idx, repo)...)
			start = -1
		}
	}
	if start != -1 {
		out = append(out, slowRollIfLongEnough(v, points, start, len(points)-1, idx, repo)...)
	}
	return out
}

func slowRollIfLongEnough(v models.Vessel, points []models.AISPoint, start, end int, idx *corridor.Index, repo Repository) []models.SpoofingAnomaly {
	if end <= start {
		return nil
	}
	run := points[start : end+1]
	duration := run[len(run)-1].TimestampUTC.Sub(run[0].TimestampUTC)
	if duration < slowRollMinDuration {
		return nil
	}
	if idx != nil {
		for _, p := range run {
			if idx.NearestMajorPortWithinNM(p.Lat, p.Lon, majorPortProximityNM) {
				return nil
			}
		}
	}
	if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologySlowRoll, run[0].TimestampUTC) {
		return nil
	}
	meanLat, meanLon := meanPosition(run)
	return []models.SpoofingAnomaly{{
			VesselID: v.ID,
			Typology: models.TypologySlowRoll,
			StartTimeUTC: run[0].TimestampUTC,
			EndTimeUTC: run[len(run)-1].TimestampUTC,
			RiskScoreComponent: 12,
			Evidence: map[string]any{
				"mean_lat": meanLat,
				"mean_lon": meanLon,
				"duration_hours": duration.Hours(),
			},
	}}
}
