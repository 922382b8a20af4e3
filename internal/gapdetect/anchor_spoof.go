package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// DetectAnchorSpoof flags a run of nav_status=1 AND sog < 0.1 lasting
// >= 72h whose mean position is NOT within 5 NM of a major port and NOT
// inside any anchorage_holding corridor (score 20).
// typology 4.
func DetectAnchorSpoof(v models.Vessel, points []models.AISPoint, idx *corridor.Index, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	start := -1
	for i, p := range points {
		qualifies := p.NavStatus == navStatusAtAnchor && p.SOG < 0.1
		if qualifies {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			out = append(out, anchorSpoofIfQualifies(v, points, start, i-1, idx, repo)...)
			start = -1
		}
	}
	if start != -1 {
		out = append(out, anchorSpoofIfQualifies(v, points, start, len(points)-1, idx, repo)...)
	}
	return out
}

func anchorSpoofIfQualifies(v models.Vessel, points []models.AISPoint, start, end int, idx *corridor.Index, repo Repository) []models.SpoofingAnomaly {
	if end <= start {
		return nil
	}
	run := points[start : end+1]
	duration := run[len(run)-1].TimestampUTC.Sub(run[0].TimestampUTC)
	if duration < 72*time.Hour {
		return nil
	}
	meanLat, meanLon := meanPosition(run)
	if idx != nil {
		if idx.NearestMajorPortWithinNM(meanLat, meanLon, majorPortProximityNM) {
			return nil
		}
		if idx.IsWithinAnchorageHolding(meanLat, meanLon) {
			return nil
		}
	}
	if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyAnchorSpoof, run[0].TimestampUTC) {
		return nil
	}
	return []models.SpoofingAnomaly{{
			VesselID: v.ID,
			Typology: models.TypologyAnchorSpoof,
			StartTimeUTC: run[0].TimestampUTC,
			EndTimeUTC: run[len(run)-1].TimestampUTC,
			RiskScoreComponent: 20,
			Evidence: map[string]any{
				"mean_lat": meanLat,
				"mean_lon": meanLon,
			},
	}}
}

func meanPosition(points []models.AISPoint) (lat, lon float64) {
	if len(points) == 0 {
		return 0, 0
	}
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return lat / n, lon / n
}
