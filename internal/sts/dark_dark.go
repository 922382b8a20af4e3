package sts

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	darkDarkMinOverlap = 4 * time.Hour
	darkDarkMaxProximity = 50.0
	darkDarkHighNM = 5.0
	darkDarkMediumNM = 15.0
	darkDarkCapPerCorridor = 100
)

// DarkGap pairs a gap event with its resolved off-position (the
// vessel's last known point before it went dark) — the dark-dark
// detector needs that position but GapEvent itself only carries the
// originating point's ID, not its coordinates.
type DarkGap struct {
	Gap models.GapEvent
	OffLat float64
	OffLon float64
}

// DetectDarkDark correlates overlapping gap events (>= 4h temporal
// overlap, same corridor) from two tankers whose off-positions lie
// within 50 NM of each other, assigning a confidence tier from
// proximity. A corridor whose gap rate exceeds a computed P95 baseline
// across all corridors is treated as jamming noise, not an STS signal,
// and suppressed entirely. The low tier additionally requires both
// vessels to carry a risk factor (high flag risk, year built <= 1995,
// or a PSC detention in the last 12 months).
func DetectDarkDark(gaps []DarkGap, vesselByID map[int64]models.Vessel, repo Repository) ([]models.StsTransferEvent, []models.SatelliteTaskingCandidate, *Result) {
	res := &Result{}
	var events []models.StsTransferEvent
	var candidates []models.SatelliteTaskingCandidate

	suppressed := suppressedCorridors(gaps)
	perCorridorCount := make(map[int64]int)

	for i := 0; i < len(gaps); i++ {
		a := gaps[i]
		if a.Gap.CorridorID == nil || suppressed[*a.Gap.CorridorID] {
			continue
		}
		for j := i + 1; j < len(gaps); j++ {
			b := gaps[j]
			if b.Gap.CorridorID == nil || *b.Gap.CorridorID != *a.Gap.CorridorID {
				continue
			}
			if a.Gap.VesselID == b.Gap.VesselID {
				continue
			}
			overlap := overlapDuration(a.Gap.GapStartUTC, a.Gap.GapEndUTC, b.Gap.GapStartUTC, b.Gap.GapEndUTC)
			if overlap < darkDarkMinOverlap {
				continue
			}

			distanceNM := geo.HaversineNM(a.OffLat, a.OffLon, b.OffLat, b.OffLon)
			if distanceNM > darkDarkMaxProximity {
				continue
			}

			tier, score := confidenceTier(distanceNM)
			if tier == "low" {
				va, okA := vesselByID[a.Gap.VesselID]
				vb, okB := vesselByID[b.Gap.VesselID]
				if !okA || !okB || !hasRiskFactor(va) || !hasRiskFactor(vb) {
					continue
				}
			}

			if perCorridorCount[*a.Gap.CorridorID] >= darkDarkCapPerCorridor {
				continue
			}

			v1, v2 := pairKey(a.Gap.VesselID, b.Gap.VesselID)
			overlapStart, overlapEnd := overlapWindow(a.Gap.GapStartUTC, a.Gap.GapEndUTC, b.Gap.GapStartUTC, b.Gap.GapEndUTC)
			if repo != nil && repo.ExistingEventOverlapping(v1, v2, overlapStart, overlapEnd) {
				res.SkippedDedup++
				continue
			}

			corridorID := *a.Gap.CorridorID
			meanLat, meanLon := (a.OffLat+b.OffLat)/2, (a.OffLon+b.OffLon)/2
			event := models.StsTransferEvent{
				Vessel1ID: v1,
				Vessel2ID: v2,
				DetectionType: models.STSDarkDark,
				StartTimeUTC: overlapStart,
				EndTimeUTC: overlapEnd,
				DurationMinutes: int(overlapEnd.Sub(overlapStart).Minutes()),
				MeanProximityMeters: distanceNM * 1852,
				MeanLat: meanLat,
				MeanLon: meanLon,
				CorridorID: &corridorID,
				RiskScoreComponent: score,
			}
			events = append(events, event)
			candidates = append(candidates, models.SatelliteTaskingCandidate{
					Vessel1ID: v1,
					Vessel2ID: v2,
					WindowStartUTC: overlapStart,
					WindowEndUTC: overlapEnd,
					ConfidenceTier: tier,
					MeanLat: meanLat,
					MeanLon: meanLon,
			})
			perCorridorCount[*a.Gap.CorridorID]++
			res.DarkDarkCreated++
		}
	}

	return events, candidates, res
}

func overlapDuration(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start, end := overlapWindow(aStart, aEnd, bStart, bEnd)
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

func overlapWindow(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time) {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return start, end
}

func confidenceTier(distanceNM float64) (string, int) {
	switch {
	case distanceNM <= darkDarkHighNM:
		return "high", 30
	case distanceNM <= darkDarkMediumNM:
		return "medium", 20
	default:
		return "low", 10
	}
}

func hasRiskFactor(v models.Vessel) bool {
	return v.FlagRisk == models.FlagRiskHigh || (v.YearBuilt > 0 && v.YearBuilt <= 1995) || v.PSCDetainedLast12m
}

// suppressedCorridors computes each corridor's gap count across the
// input set and flags any corridor whose count exceeds the P95 baseline
// across all corridors as jamming noise rather than an STS signal.
func suppressedCorridors(gaps []DarkGap) map[int64]bool {
	counts := make(map[int64]int)
	for _, g := range gaps {
		if g.Gap.CorridorID != nil {
			counts[*g.Gap.CorridorID]++
		}
	}
	if len(counts) == 0 {
		return map[int64]bool{}
	}
	values := make([]float64, 0, len(counts))
	for _, c := range counts {
		values = append(values, float64(c))
	}
	sort.Float64s(values)
	p95 := stat.Quantile(0.95, stat.Empirical, values, nil)

	suppressed := make(map[int64]bool)
	for corridorID, c := range counts {
		if float64(c) > p95 {
			suppressed[corridorID] = true
		}
	}
	return suppressed
}
