package sts

import (
	"math"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	stationaryApproachSOGMax = 0.5
	movingSOGMin = 0.5
	movingSOGMax = 3.0
	bearingToleranceDeg = 30.0
	maxETAMinutes = 240.0
)

// DetectApproaching scans, for each stationary tanker (latest sog < 0.5)
// inside an STS-zone bbox, every other moving tanker (0.5 <= sog <= 3)
// whose course points at the stationary vessel (|cog - bearing| < 30deg)
// and whose ETA (distance / sog * 60) is under 240 minutes.
// latestByVessel holds each tanker's single latest point.
func DetectApproaching(latestByVessel map[int64]models.AISPoint, idx *corridor.Index, repo Repository) ([]models.StsTransferEvent, *Result) {
	res := &Result{}
	var events []models.StsTransferEvent

	for stationaryID, stationary := range latestByVessel {
		if stationary.SOG >= stationaryApproachSOGMax {
			continue
		}
		if idx != nil {
			if c := idx.FindCorridorForPoint(stationary.Lat, stationary.Lon); c == nil || c.CorridorType != models.CorridorSTSZone {
				continue
			}
		}

		for movingID, moving := range latestByVessel {
			if movingID == stationaryID {
				continue
			}
			if moving.SOG < movingSOGMin || moving.SOG > movingSOGMax {
				continue
			}
			bearing := geo.InitialBearingDeg(moving.Lat, moving.Lon, stationary.Lat, stationary.Lon)
			diff := math.Abs(moving.COG - bearing)
			for diff > 360 {
				diff -= 360
			}
			if diff > 180 {
				diff = 360 - diff
			}
			if diff >= bearingToleranceDeg {
				continue
			}

			distanceNM := geo.HaversineNM(moving.Lat, moving.Lon, stationary.Lat, stationary.Lon)
			etaMinutes := distanceNM / moving.SOG * 60
			if etaMinutes >= maxETAMinutes {
				continue
			}

			v1, v2 := pairKey(stationaryID, movingID)
			start := stationary.TimestampUTC
			if moving.TimestampUTC.Before(start) {
				start = moving.TimestampUTC
			}
			end := stationary.TimestampUTC
			if moving.TimestampUTC.After(end) {
				end = moving.TimestampUTC
			}
			if repo != nil && repo.ExistingEventOverlapping(v1, v2, start, end) {
				res.SkippedDedup++
				continue
			}

			eta := etaMinutes
			events = append(events, models.StsTransferEvent{
					Vessel1ID: v1,
					Vessel2ID: v2,
					DetectionType: models.STSApproaching,
					StartTimeUTC: start,
					EndTimeUTC: end,
					MeanProximityMeters: geo.HaversineMeters(moving.Lat, moving.Lon, stationary.Lat, stationary.Lon),
					MeanLat: (moving.Lat + stationary.Lat) / 2,
					MeanLon: (moving.Lon + stationary.Lon) / 2,
					ETAMinutes: &eta,
					RiskScoreComponent: 20,
			})
			res.ApproachingCreated++
		}
	}

	return events, res
}
