package gapdetect

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	circleSpoofWindowTarget = 6 * time.Hour
	circleSpoofWindowMin = 4 * time.Hour
	circleSpoofWindowMax = 8 * time.Hour
	circleSpoofMinPoints = 6
	circleSpoofMedianSOGMin = 3.0
	circleSpoofLatStdevMax = 0.02
)

// DetectCircleSpoof anchors a forward-sliding window at each point (target
// 6h, accepted span 4-8h); with >= 6 points, median sog > 3 kn, and
// lat/lon stdev below a latitude-scaled threshold (0.02 / max(cos phi,
// 0.3)), and mean position not within 5 NM of a major port, it flags a
// synthetic circling track (score 35).
func DetectCircleSpoof(v models.Vessel, points []models.AISPoint, idx *corridor.Index, repo Repository) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for i := 0; i < len(points); i++ {
		j := i
		for j+1 < len(points) && points[j+1].TimestampUTC.Sub(points[i].TimestampUTC) <= circleSpoofWindowTarget {
			j++
		}
		window := points[i : j+1]
		if len(window) < circleSpoofMinPoints {
			continue
		}
		span := window[len(window)-1].TimestampUTC.Sub(window[0].TimestampUTC)
		if span < circleSpoofWindowMin || span > circleSpoofWindowMax {
			continue
		}

		sogSorted := sogSeries(window)
		sort.Float64s(sogSorted)
		medianSOG := stat.Quantile(0.5, stat.Empirical, sogSorted, nil)
		if medianSOG <= circleSpoofMedianSOGMin {
			continue
		}

		latStdev := stat.StdDev(latSeries(window), nil)
		lonStdev := stat.StdDev(lonSeries(window), nil)
		meanLat, meanLon := meanPosition(window)
		lonThreshold := circleSpoofLatStdevMax / math.Max(math.Cos(meanLat*math.Pi/180), 0.3)
		if latStdev >= circleSpoofLatStdevMax || lonStdev >= lonThreshold {
			continue
		}

		if idx != nil && idx.NearestMajorPortWithinNM(meanLat, meanLon, majorPortProximityNM) {
			continue
		}
		if repo != nil && repo.ExistingAnomalyNear(v.ID, models.TypologyCircleSpoof, window[0].TimestampUTC) {
			continue
		}

		out = append(out, models.SpoofingAnomaly{
				VesselID: v.ID,
				Typology: models.TypologyCircleSpoof,
				StartTimeUTC: window[0].TimestampUTC,
				EndTimeUTC: window[len(window)-1].TimestampUTC,
				RiskScoreComponent: 35,
				Evidence: map[string]any{
					"median_sog_kn": medianSOG,
					"lat_stdev": latStdev,
					"lon_stdev": lonStdev,
				},
		})
		i = j // advance past this window
	}
	return out
}

func latSeries(points []models.AISPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Lat
	}
	return out
}

func lonSeries(points []models.AISPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Lon
	}
	return out
}

func sogSeries(points []models.AISPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.SOG
	}
	return out
}
