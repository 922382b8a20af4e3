package gapdetect

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/internal/vessel"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	// GapMinHours is the minimum silence duration to qualify as a gap.
	GapMinHours = 2.0
	// ClassBNoiseFilterSeconds filters out sub-threshold Class B
	// reporting-interval noise that would otherwise look like a gap.
	ClassBNoiseFilterSeconds = 120
	// impossibleSpeedTolerance absorbs great-circle vs routing-distance
	// differences; strict 1.0 produces false positives on clean traffic.
	impossibleSpeedTolerance = 1.1
	// dedupWindow is the ±10 minute tolerance for gap_start_utc dedup.
	dedupWindow = 10 * time.Minute
	// majorPortProximityNM is the 5 NM port-proximity gate shared by the
	// anchor-spoof, circle-spoof and slow-roll typologies.
	majorPortProximityNM = 5.0
)

// DetectGaps walks one vessel's AIS points in ascending time (points
// MUST already be sorted — ordering guarantee) and emits a
// GapEvent + MovementEnvelope for every qualifying silence.
// Returns the created events/envelopes plus a Result count-dict; never
// returns an error for a single bad pair.
func DetectGaps(v models.Vessel, points []models.AISPoint, idx *corridor.Index, repo Repository) ([]models.GapEvent, []models.MovementEnvelope, *Result) {
	res := newResult()
	var gaps []models.GapEvent
	var envelopes []models.MovementEnvelope

	for i := 0; i+1 < len(points); i++ {
		p1, p2 := points[i], points[i+1]
		delta := p2.TimestampUTC.Sub(p1.TimestampUTC)
		if delta.Hours() < GapMinHours {
			continue
		}
		if delta.Seconds() < ClassBNoiseFilterSeconds {
			continue
		}
		if repo != nil && repo.ExistingGapNear(v.ID, p1.TimestampUTC, dedupWindow) {
			res.GapsSkippedDedup++
			continue
		}

		gap := buildGapEvent(v, p1, p2, idx)
		gaps = append(gaps, gap)
		envelopes = append(envelopes, BuildMovementEnvelope(gap, p1, p2))
		res.GapsCreated++
	}

	return gaps, envelopes, res
}

func buildGapEvent(v models.Vessel, p1, p2 models.AISPoint, idx *corridor.Index) models.GapEvent {
	delta := p2.TimestampUTC.Sub(p1.TimestampUTC)
	hours := delta.Hours()
	actualDistance := haversineNM(p1, p2)
	maxDistance := vessel.MaxPlausibleDistanceNM(v.DeadweightTons, hours)
	ratio := 0.0
	if maxDistance > 0 {
		ratio = actualDistance / maxDistance
	}

	gap := models.GapEvent{
		VesselID: v.ID,
		OriginalVesselID: v.ID,
		GapStartUTC: p1.TimestampUTC,
		GapEndUTC: p2.TimestampUTC,
		DurationMinutes: int(roundHalfAwayFromZero(delta.Minutes())),
		StartPointID: p1.ID,
		EndPointID: p2.ID,
		ImpossibleSpeedFlag: ratio > impossibleSpeedTolerance,
		VelocityPlausibilityRatio: ratio,
		MaxPlausibleDistanceNM: maxDistance,
		ActualGapDistanceNM: actualDistance,
		PreGapSOG: p1.SOG,
		Status: models.GapStatusNew,
	}

	if idx != nil {
		meanLat, meanLon := (p1.Lat+p2.Lat)/2, (p1.Lon+p2.Lon)/2
		if c := idx.FindCorridorForPoint(meanLat, meanLon); c != nil {
			id := c.ID
			gap.CorridorID = &id
		}
		if dz := idx.FindDarkZoneForPoint(meanLat, meanLon); dz != nil {
			id := dz.ID
			gap.DarkZoneID = &id
			gap.InDarkZone = true
		}
	}
	return gap
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

func haversineNM(p1, p2 models.AISPoint) float64 {
	return geo.HaversineNM(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
}
