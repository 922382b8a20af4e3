package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

const navStatusAtAnchor = 1

// DetectNavStatusMismatch flags points reporting nav_status=1 (at
// anchor) while sog > 2 kn (score 15).
func DetectNavStatusMismatch(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for _, p := range points {
		if p.NavStatus != navStatusAtAnchor || p.SOG <= 2 {
			continue
		}
		if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyNavStatusMismatch, p.TimestampUTC) {
			continue
		}
		out = append(out, models.SpoofingAnomaly{
				VesselID: v.ID,
				Typology: models.TypologyNavStatusMismatch,
				StartTimeUTC: p.TimestampUTC,
				EndTimeUTC: p.TimestampUTC,
				RiskScoreComponent: 15,
				Evidence: map[string]any{"sog": p.SOG},
		})
	}
	return out
}

// DetectErraticNavStatus flags 60-minute non-overlapping windows with
// >= 3 nav_status changes (score 12), collapsing consecutive triggering
// windows into one episode. Tanker-only sub-types: nav_status=3 for >=6h
// (score 8) and nav_status=15 anywhere (score 5).
// typology 6.
func DetectErraticNavStatus(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	if len(points) == 0 {
		return out
	}

	windowStart := points[0].TimestampUTC
	var windowPts []models.AISPoint
	var episodeOpen bool
	var episodeStart time.Time

	flush := func(windowEnd time.Time) {
		changes := countNavStatusChanges(windowPts)
		if changes >= 3 {
			if !episodeOpen {
				episodeOpen = true
				episodeStart = windowStart
			}
		} else if episodeOpen {
			if repo == nil || !repo.ExistingAnomalyNear(v.ID, models.TypologyErraticNavStatus, episodeStart) {
				out = append(out, models.SpoofingAnomaly{
						VesselID: v.ID,
						Typology: models.TypologyErraticNavStatus,
						StartTimeUTC: episodeStart,
						EndTimeUTC: windowEnd,
						RiskScoreComponent: 12,
				})
			}
			episodeOpen = false
		}
	}

	for _, p := range points {
		if p.TimestampUTC.Sub(windowStart) > time.Hour {
			flush(p.TimestampUTC)
			windowStart = p.TimestampUTC
			windowPts = nil
		}
		windowPts = append(windowPts, p)
	}
	if len(windowPts) > 0 {
		flush(windowPts[len(windowPts)-1].TimestampUTC)
	}
	if episodeOpen && (repo == nil || !repo.ExistingAnomalyNear(v.ID, models.TypologyErraticNavStatus, episodeStart)) {
		out = append(out, models.SpoofingAnomaly{
				VesselID: v.ID,
				Typology: models.TypologyErraticNavStatus,
				StartTimeUTC: episodeStart,
				EndTimeUTC: points[len(points)-1].TimestampUTC,
				RiskScoreComponent: 12,
		})
	}

	if v.VesselType == "tanker" {
		out = append(out, detectNavStatus3Run(v, points, repo)...)
		out = append(out, detectNavStatus15(v, points, repo)...)
	}
	return out
}

func countNavStatusChanges(pts []models.AISPoint) int {
	changes := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].NavStatus != pts[i-1].NavStatus {
			changes++
		}
	}
	return changes
}

// detectNavStatus3Run flags a run of nav_status=3 (restricted maneuverability)
// lasting >= 6h (score 8).
func detectNavStatus3Run(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	runStartIdx := -1
	for i, p := range points {
		if p.NavStatus == 3 {
			if runStartIdx == -1 {
				runStartIdx = i
			}
			continue
		}
		if runStartIdx != -1 {
			out = appendIfRunLongEnough(out, v, points, runStartIdx, i-1, repo)
			runStartIdx = -1
		}
	}
	if runStartIdx != -1 {
		out = appendIfRunLongEnough(out, v, points, runStartIdx, len(points)-1, repo)
	}
	return out
}

func appendIfRunLongEnough(out []models.SpoofingAnomaly, v models.Vessel, points []models.AISPoint, start, end int, repo Repository) []models.SpoofingAnomaly {
	if end <= start {
		return out
	}
	duration := points[end].TimestampUTC.Sub(points[start].TimestampUTC)
	if duration < 6*time.Hour {
		return out
	}
	if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyErraticNavStatus, points[start].TimestampUTC) {
		return out
	}
	return append(out, models.SpoofingAnomaly{
			VesselID: v.ID,
			Typology: models.TypologyErraticNavStatus,
			StartTimeUTC: points[start].TimestampUTC,
			EndTimeUTC: points[end].TimestampUTC,
			RiskScoreComponent: 8,
			Evidence: map[string]any{"nav_status": 3},
	})
}

// detectNavStatus15 flags any occurrence of nav_status=15 (undefined,
// default) on a tanker (score 5).
func detectNavStatus15(v models.Vessel, points []models.AISPoint, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for _, p := range points {
		if p.NavStatus != 15 {
			continue
		}
		if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyErraticNavStatus, p.TimestampUTC) {
			continue
		}
		out = append(out, models.SpoofingAnomaly{
				VesselID: v.ID,
				Typology: models.TypologyErraticNavStatus,
				StartTimeUTC: p.TimestampUTC,
				EndTimeUTC: p.TimestampUTC,
				RiskScoreComponent: 5,
				Evidence: map[string]any{"nav_status": 15},
		})
	}
	return out
}
