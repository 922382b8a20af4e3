package sts

import (
	"math"
	"sort"
	"time"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	bucketSize = 15 * time.Minute
	proximityMeters = 200.0
	stationarySOGMax = 1.0
	headingToleranceDeg = 30.0
	minRunWindows = 8 // 8 * 15min = 2h
	majorPortProximity = 3.0
)

type vesselBucket struct {
	vesselID int64
	point models.AISPoint
}

// run tracks a vessel pair's consecutive passing-window streak.
type run struct {
	start time.Time
	lastBucket time.Time
	points1 []models.AISPoint
	points2 []models.AISPoint
}

// DetectVisibleVisible time-buckets tanker points into 15-minute slots
// (latest point per vessel per bucket), and for every pair of vessels
// present in the same bucket that pass the proximity/speed/heading
// filter, accumulates a consecutive run of passing buckets. A run of >=
// 8 windows (2h) emits a confirmed STS event.
func DetectVisibleVisible(pointsByVessel map[int64][]models.AISPoint, idx *corridor.Index, repo Repository) ([]models.StsTransferEvent, *Result) {
	res := &Result{}
	buckets := bucketLatestPerVessel(pointsByVessel)

	bucketTimes := make([]time.Time, 0, len(buckets))
	for t := range buckets {
		bucketTimes = append(bucketTimes, t)
	}
	sort.Slice(bucketTimes, func(i, j int) bool { return bucketTimes[i].Before(bucketTimes[j]) })

	runs := make(map[[2]int64]*run)
	var events []models.StsTransferEvent

	closeRun := func(key [2]int64, r *run) {
		if len(r.points1) < minRunWindows {
			return
		}
		event, ok := buildVisibleVisibleEvent(key[0], key[1], r, idx)
		if !ok {
			return
		}
		if repo != nil && repo.ExistingEventOverlapping(key[0], key[1], event.StartTimeUTC, event.EndTimeUTC) {
			res.SkippedDedup++
			return
		}
		events = append(events, event)
		res.VisibleVisibleCreated++
	}

	for _, t := range bucketTimes {
		present := buckets[t]
		seen := make(map[[2]int64]bool)
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				a, b := present[i], present[j]
				key := [2]int64{}
				key[0], key[1] = pairKey(a.vesselID, b.vesselID)
				seen[key] = true
				if !passesVisibleFilter(a.point, b.point) {
					continue
				}
				r, ok := runs[key]
				if ok && t.Sub(r.lastBucket) == bucketSize {
					r.lastBucket = t
					r.points1 = append(r.points1, a.point)
					r.points2 = append(r.points2, b.point)
				} else {
					if ok {
						closeRun(key, r)
					}
					runs[key] = &run{
						start: t,
						lastBucket: t,
						points1: []models.AISPoint{a.point},
						points2: []models.AISPoint{b.point},
					}
				}
			}
		}
		// Any active run not refreshed this bucket has ended.
		for key, r := range runs {
			if !seen[key] {
				closeRun(key, r)
				delete(runs, key)
			}
		}
	}
	for key, r := range runs {
		closeRun(key, r)
		delete(runs, key)
	}

	return events, res
}

func bucketLatestPerVessel(pointsByVessel map[int64][]models.AISPoint) map[time.Time][]vesselBucket {
	latest := make(map[int64]map[time.Time]models.AISPoint)
	for vesselID, points := range pointsByVessel {
		perBucket := make(map[time.Time]models.AISPoint)
		for _, p := range points {
			bk := p.TimestampUTC.Truncate(bucketSize)
			existing, ok := perBucket[bk]
			if !ok || p.TimestampUTC.After(existing.TimestampUTC) {
				perBucket[bk] = p
			}
		}
		latest[vesselID] = perBucket
	}

	out := make(map[time.Time][]vesselBucket)
	for vesselID, perBucket := range latest {
		for bk, p := range perBucket {
			out[bk] = append(out[bk], vesselBucket{vesselID: vesselID, point: p})
		}
	}
	return out
}

func passesVisibleFilter(a, b models.AISPoint) bool {
	if geo.HaversineMeters(a.Lat, a.Lon, b.Lat, b.Lon) >= proximityMeters {
		return false
	}
	if a.SOG >= stationarySOGMax || b.SOG >= stationarySOGMax {
		return false
	}
	diff := math.Abs(a.Heading - b.Heading)
	for diff > 360 {
		diff -= 360
	}
	parallel := diff < headingToleranceDeg
	antiParallel := math.Abs(diff-180) < headingToleranceDeg
	return parallel || antiParallel
}

func buildVisibleVisibleEvent(v1, v2 int64, r *run, idx *corridor.Index) (models.StsTransferEvent, bool) {
	meanLat, meanLon := meanPairPosition(r.points1, r.points2)
	if idx != nil && idx.NearestMajorPortWithinNM(meanLat, meanLon, majorPortProximity) {
		return models.StsTransferEvent{}, false
	}

	end := r.lastBucket
	event := models.StsTransferEvent{
		Vessel1ID: v1,
		Vessel2ID: v2,
		DetectionType: models.STSVisibleVisible,
		StartTimeUTC: r.start,
		EndTimeUTC: end,
		DurationMinutes: int(end.Sub(r.start).Minutes()),
		MeanProximityMeters: meanProximity(r.points1, r.points2),
		MeanLat: meanLat,
		MeanLon: meanLon,
		RiskScoreComponent: 25,
	}
	if idx != nil {
		if c := idx.FindCorridorForPoint(meanLat, meanLon); c != nil {
			id := c.ID
			event.CorridorID = &id
			if c.CorridorType == models.CorridorSTSZone {
				event.RiskScoreComponent = 35
			}
		}
	}
	return event, true
}

func meanPairPosition(pts1, pts2 []models.AISPoint) (lat, lon float64) {
	n := 0
	for _, p := range pts1 {
		lat += p.Lat
		lon += p.Lon
		n++
	}
	for _, p := range pts2 {
		lat += p.Lat
		lon += p.Lon
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return lat / float64(n), lon / float64(n)
}

func meanProximity(pts1, pts2 []models.AISPoint) float64 {
	n := len(pts1)
	if len(pts2) < n {
		n = len(pts2)
	}
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += geo.HaversineMeters(pts1[i].Lat, pts1[i].Lon, pts2[i].Lat, pts2[i].Lon)
	}
	return total / float64(n)
}
