package identity

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const darkSinceWindow = 2 * time.Hour

// Result tallies one candidate-detection pass, in the earlier design's
// count-dict style.
type Result struct {
	CandidatesAutoMerged int
	CandidatesPending int
	CandidatesDiscarded int
	SkippedExisting int
	SkippedOverlap int
}

// IsDark reports whether a vessel has at least one gap event and its
// last AIS point is before now - 2h.
func IsDark(v models.Vessel, repo Repository, now time.Time) bool {
	if !repo.HasGapEvent(v.ID) {
		return false
	}
	last, ok := repo.LastAISPoint(v.ID)
	if !ok {
		return false
	}
	return last.TimestampUTC.Before(now.Add(-darkSinceWindow))
}

// IsNew reports whether mmsi_first_seen >= now - MAX_GAP_DAYS.
func IsNew(v models.Vessel, cfg *config.ScoringConfig, now time.Time) bool {
	cutoff := now.Add(-time.Duration(cfg.MergeMaxGapDays) * 24 * time.Hour)
	return !v.MMSIFirstSeen.Before(cutoff)
}

// DetectCandidates scans every (dark, new) vessel pair, scores it, and
// either auto-merges (score >= AUTO threshold), persists pending (score
// >= MIN confidence), or discards it.F steps 1-4.
func DetectCandidates(darkVessels, newVessels []models.Vessel, repo Repository, cfg *config.ScoringConfig, now time.Time) ([]models.MergeCandidate, *Result) {
	res := &Result{}
	var candidates []models.MergeCandidate

	for _, dark := range darkVessels {
		for _, fresh := range newVessels {
			if dark.ID == fresh.ID {
				continue
			}
			if repo.ExistingCandidate(dark.ID, fresh.ID) {
				res.SkippedExisting++
				continue
			}

			lastDark, ok := repo.LastAISPoint(dark.ID)
			if !ok {
				continue
			}
			firstNew, ok := repo.FirstAISPoint(fresh.ID)
			if !ok {
				continue
			}

			deltaT := firstNew.TimestampUTC.Sub(lastDark.TimestampUTC)
			if deltaT <= 0 || deltaT > time.Duration(cfg.MergeMaxGapDays)*24*time.Hour {
				continue
			}
			maxTravel := deltaT.Hours() * cfg.MergeMaxSpeedKn
			distance := geo.HaversineNM(lastDark.Lat, lastDark.Lon, firstNew.Lat, firstNew.Lon)
			if distance > maxTravel {
				continue
			}

			if repo.HasOverlappingAIS(dark.ID, fresh.ID) {
				res.SkippedOverlap++
				candidates = append(candidates, models.MergeCandidate{
						VesselAID: dark.ID,
						VesselBID: fresh.ID,
						ConfidenceScore: 0,
						MatchReasons: map[string]int{"overlapping_ais_tracks": 1},
						Status: models.MergeCandidateRejected,
						CreatedAt: now,
				})
				continue
			}

			ctx := CandidateContext{
				Dark: dark,
				New: fresh,
				DeltaT: deltaT,
				Distance: distance,
				MaxTravel: maxTravel,
				LastDarkPt: lastDark,
				FirstNewPt: firstNew,
			}
			score, breakdown := ScoreCandidate(ctx, repo, cfg, now)

			candidate := models.MergeCandidate{
				VesselAID: dark.ID,
				VesselBID: fresh.ID,
				ConfidenceScore: score,
				MatchReasons: breakdownToReasons(breakdown),
				CreatedAt: now,
			}

			switch {
			case score >= cfg.MergeAutoConfidenceThreshold:
				candidate.Status = models.MergeCandidateAutoMerged
				res.CandidatesAutoMerged++
			case score >= cfg.MergeMinConfidence:
				candidate.Status = models.MergeCandidatePending
				res.CandidatesPending++
			default:
				res.CandidatesDiscarded++
				continue
			}
			candidates = append(candidates, candidate)
		}
	}

	return candidates, res
}

func breakdownToReasons(b models.ScoreBreakdown) map[string]int {
	out := make(map[string]int, len(b.Signals))
	for _, s := range b.Signals {
		out[s.Name] = s.Value
	}
	return out
}
