package fusion

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	convoyBucketSize = 15 * time.Minute
	convoyProximityNM = 5.0
	convoyMinSOG = 3.0
	convoyHeadingToleranceDeg = 15.0
	convoyMinRunWindows = 16 // 16 * 15min = 4h

	convoyTier4to8h = 15
	convoyTier8to24h = 25
	convoyTier24hUp = 35

	floatingStorageMinHours = 720.0
	floatingStorageMinSTS = 2
	arcticNoIceClassBonus = 25
)

type convoyBucket struct {
	vesselID int64
	point models.AISPoint
}

type convoyRun struct {
	start time.Time
	lastBucket time.Time
	windows int
}

// DetectConvoys finds pairs of vessels co-moving in formation: same
// 15-min bucket, within 5 NM, both sog > 3 kn, heading within 15 deg of
// each other. A streak of 16 or more consecutive passing buckets (4h)
// emits a ConvoyEvent, scored by total duration, plus floating-storage
// and Arctic-no-ice-class bonuses.
// Grounded on internal/sts/visible.go's consecutive-bucket-run tracking,
// retuned from STS proximity/stationary criteria to convoy
// co-movement criteria.
func DetectConvoys(pointsByVessel map[int64][]models.AISPoint, vesselByID map[int64]models.Vessel, idx *corridor.Index, repo Repository) (*Result, error) {
	res := &Result{}
	buckets := bucketLatestConvoyPoints(pointsByVessel)

	var bucketTimes []time.Time
	for t := range buckets {
		bucketTimes = append(bucketTimes, t)
	}
	sort.Slice(bucketTimes, func(i, j int) bool { return bucketTimes[i].Before(bucketTimes[j]) })

	runs := make(map[[2]int64]*convoyRun)

	closeRun := func(key [2]int64, r *convoyRun) error {
		if r.windows < convoyMinRunWindows {
			return nil
		}
		return saveConvoyRun(key[0], key[1], r, pointsByVessel, vesselByID, idx, repo, res)
	}

	for _, t := range bucketTimes {
		present := buckets[t]
		seen := make(map[[2]int64]bool)
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				a, b := present[i], present[j]
				v1, v2 := a.vesselID, b.vesselID
				if v1 > v2 {
					v1, v2 = v2, v1
				}
				key := [2]int64{v1, v2}
				if !passesConvoyFilter(a.point, b.point) {
					continue
				}
				seen[key] = true
				if r, ok := runs[key]; ok && t.Sub(r.lastBucket) == convoyBucketSize {
					r.lastBucket = t
					r.windows++
				} else {
					if ok {
						if err := closeRun(key, r); err != nil {
							return res, err
						}
					}
					runs[key] = &convoyRun{start: t, lastBucket: t, windows: 1}
				}
			}
		}
		for key, r := range runs {
			if !seen[key] {
				if err := closeRun(key, r); err != nil {
					return res, err
				}
				delete(runs, key)
			}
		}
	}
	for key, r := range runs {
		if err := closeRun(key, r); err != nil {
			return res, err
		}
	}

	return res, nil
}

func passesConvoyFilter(a, b models.AISPoint) bool {
	if geo.HaversineNM(a.Lat, a.Lon, b.Lat, b.Lon) > convoyProximityNM {
		return false
	}
	if a.SOG <= convoyMinSOG || b.SOG <= convoyMinSOG {
		return false
	}
	diff := math.Abs(a.Heading - b.Heading)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff <= convoyHeadingToleranceDeg
}

func bucketLatestConvoyPoints(pointsByVessel map[int64][]models.AISPoint) map[time.Time][]convoyBucket {
	latest := make(map[int64]map[time.Time]models.AISPoint)
	for vesselID, points := range pointsByVessel {
		perBucket := make(map[time.Time]models.AISPoint)
		for _, p := range points {
			bk := p.TimestampUTC.Truncate(convoyBucketSize)
			existing, ok := perBucket[bk]
			if !ok || p.TimestampUTC.After(existing.TimestampUTC) {
				perBucket[bk] = p
			}
		}
		latest[vesselID] = perBucket
	}

	out := make(map[time.Time][]convoyBucket)
	for vesselID, perBucket := range latest {
		for bk, p := range perBucket {
			out[bk] = append(out[bk], convoyBucket{vesselID: vesselID, point: p})
		}
	}
	return out
}

func saveConvoyRun(v1, v2 int64, r *convoyRun, pointsByVessel map[int64][]models.AISPoint, vesselByID map[int64]models.Vessel, idx *corridor.Index, repo Repository, res *Result) error {
	if repo.ExistingConvoyEvent(v1, v2, r.start, r.lastBucket) {
		return nil
	}

	durationHours := r.lastBucket.Sub(r.start).Hours()
	event := models.ConvoyEvent{
		Vessel1ID: v1,
		Vessel2ID: v2,
		StartTimeUTC: r.start,
		EndTimeUTC: r.lastBucket,
		DurationHours: math.Round(durationHours*100) / 100,
		Score: convoyDurationTier(durationHours),
	}

	if isFloatingStorage(v1, repo) || isFloatingStorage(v2, repo) {
		event.IsFloatingStorage = true
		event.Score += 25
	}
	if isArcticNoIceClass(v1, vesselByID, pointsByVessel, idx) || isArcticNoIceClass(v2, vesselByID, pointsByVessel, idx) {
		event.IsArcticNoIceClass = true
		event.Score += arcticNoIceClassBonus
	}

	if err := repo.SaveConvoyEvent(event); err != nil {
		return err
	}
	res.ConvoysFound++
	return nil
}

func convoyDurationTier(hours float64) int {
	switch {
	case hours >= 24:
		return convoyTier24hUp
	case hours >= 8:
		return convoyTier8to24h
	default:
		return convoyTier4to8h
	}
}

// isFloatingStorage reports whether vesselID has a loitering event over
// 720h accompanied by 2 or more STS events, the floating-storage pattern
// (oil held at sea pending a buyer rather than delivered).
func isFloatingStorage(vesselID int64, repo Repository) bool {
	longLoiter := false
	for _, l := range repo.LoiteringEventsFor(vesselID) {
		if l.DurationHours > floatingStorageMinHours {
			longLoiter = true
			break
		}
	}
	if !longLoiter {
		return false
	}
	return len(repo.STSEventsFor(vesselID)) >= floatingStorageMinSTS
}

// isArcticNoIceClass reports whether vesselID is a tanker with no ice
// class rating that reported any point inside an Arctic-tagged
// corridor.
func isArcticNoIceClass(vesselID int64, vesselByID map[int64]models.Vessel, pointsByVessel map[int64][]models.AISPoint, idx *corridor.Index) bool {
	v, ok := vesselByID[vesselID]
	if !ok || !strings.EqualFold(v.VesselType, "tanker") || v.IceClass != "" || idx == nil {
		return false
	}
	for _, p := range pointsByVessel[vesselID] {
		if c := idx.FindCorridorForPoint(p.Lat, p.Lon); c != nil && c.IsArctic {
			return true
		}
	}
	return false
}
