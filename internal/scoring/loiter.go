package scoring

import (
	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// applyLoiter implements loiter-gap-loiter subsumption: a bracketing
// loitering event with both preceding and following gap IDs emits only
// the "full" signal; one side only emits "pattern"; with neither side
// bracketed, the plain duration signal fires instead.
func applyLoiter(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, gap models.GapEvent, corridorType models.CorridorType) {
	event, ok := repo.LoiteringNear(gap)
	if !ok {
		applyLoiterDuration(b, cfg, corridorType, 0)
		return
	}

	hasPreceding := event.PrecedingGapID != nil
	hasFollowing := event.FollowingGapID != nil

	switch {
	case hasPreceding && hasFollowing:
		b.Add("loiter_gap_loiter_full", config.IntOrDefault(cfg.Behavioral, "loiter_gap_loiter_full", 25))
	case hasPreceding || hasFollowing:
		b.Add("loiter_gap_loiter_pattern", config.IntOrDefault(cfg.Behavioral, "loiter_gap_loiter_pattern", 15))
	default:
		applyLoiterDuration(b, cfg, corridorType, event.DurationHours)
	}
}

func applyLoiterDuration(b *models.ScoreBreakdown, cfg *config.ScoringConfig, corridorType models.CorridorType, hours float64) {
	if hours <= 0 {
		return
	}
	if corridorType == models.CorridorSTSZone {
		b.Add("loiter_duration_sts_zone", config.IntOrDefault(cfg.Behavioral, "loiter_duration_sts_zone", 20))
		return
	}
	b.Add("loiter_duration_other", config.IntOrDefault(cfg.Behavioral, "loiter_duration_other", 8))
}
