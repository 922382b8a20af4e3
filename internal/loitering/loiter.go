package loitering

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	loiterMaxSOGKn = 3.0
	loiterMinDuration = 2 * time.Hour

	laidUp30dHours = 30 * 24.0
	laidUp60dHours = 60 * 24.0
)

// DetectLoitering walks one vessel's ascending-timestamp points and
// accumulates runs where SOG stays at or below 3kn, emitting a
// LoiteringEvent for every run spanning at least 2 hours. Each event is linked to a bracketing gap on either side, if
// one ends or starts within the run's boundary points.
func DetectLoitering(vesselID int64, points []models.AISPoint, idx *corridor.Index, repo Repository) ([]models.LoiteringEvent, *Result) {
	res := &Result{}
	var events []models.LoiteringEvent
	if len(points) == 0 {
		return events, res
	}

	sorted := append([]models.AISPoint{}, points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimestampUTC.Before(sorted[j].TimestampUTC) })

	var run []models.AISPoint
	flush := func() {
		if len(run) < 2 {
			run = nil
			return
		}
		start := run[0].TimestampUTC
		end := run[len(run)-1].TimestampUTC
		if end.Sub(start) < loiterMinDuration {
			run = nil
			return
		}
		if event, ok := buildLoiteringEvent(vesselID, run, idx, repo); ok {
			events = append(events, event)
			res.LoiteringEventsFound++
		}
		run = nil
	}

	for _, p := range sorted {
		if p.SOG <= loiterMaxSOGKn {
			run = append(run, p)
			continue
		}
		flush()
	}
	flush()

	return events, res
}

func buildLoiteringEvent(vesselID int64, run []models.AISPoint, idx *corridor.Index, repo Repository) (models.LoiteringEvent, bool) {
	start := run[0].TimestampUTC
	end := run[len(run)-1].TimestampUTC
	if repo.ExistingLoiteringEvent(vesselID, start, end) {
		return models.LoiteringEvent{}, false
	}

	var lats, lons, sogs []float64
	for _, p := range run {
		lats = append(lats, p.Lat)
		lons = append(lons, p.Lon)
		sogs = append(sogs, p.SOG)
	}
	sort.Float64s(sogs)

	event := models.LoiteringEvent{
		VesselID: vesselID,
		StartTimeUTC: start,
		EndTimeUTC: end,
		DurationHours: end.Sub(start).Hours(),
		MeanLat: stat.Mean(lats, nil),
		MeanLon: stat.Mean(lons, nil),
		MedianSOGKn: stat.Quantile(0.5, stat.Empirical, sogs, nil),
	}

	if idx != nil {
		if c := idx.FindCorridorForPoint(event.MeanLat, event.MeanLon); c != nil {
			event.CorridorID = &c.ID
		}
	}
	if gap, ok := repo.GapEndingNear(vesselID, start); ok {
		event.PrecedingGapID = &gap.ID
	}
	if gap, ok := repo.GapStartingNear(vesselID, end); ok {
		event.FollowingGapID = &gap.ID
	}

	if err := repo.SaveLoiteringEvent(event); err != nil {
		return models.LoiteringEvent{}, false
	}
	return event, true
}

// ClassifyLaidUp applies step 5's laid-up flags from a
// vessel's accumulated loitering history: 30d and 60d are the longest
// single loitering run crossing those hour thresholds; the STS-zone
// flag additionally requires the longest run to sit in an STS-zone
// corridor.
func ClassifyLaidUp(events []models.LoiteringEvent, idx *corridor.Index) (laidUp30d, laidUp60d, laidUpInSTSZone bool) {
	var longest models.LoiteringEvent
	for _, e := range events {
		if e.DurationHours > longest.DurationHours {
			longest = e
		}
	}
	laidUp30d = longest.DurationHours >= laidUp30dHours
	laidUp60d = longest.DurationHours >= laidUp60dHours
	if laidUp30d && idx != nil {
		if c := idx.FindCorridorForPoint(longest.MeanLat, longest.MeanLon); c != nil {
			laidUpInSTSZone = c.CorridorType == models.CorridorSTSZone
		}
	}
	return
}
