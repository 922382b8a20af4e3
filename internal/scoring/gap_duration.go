package scoring

import (
	"math"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// applyGapDuration emits exactly one gap_duration tier — 24h_plus beats
// sts_zone beats other — then, if the speed-anomaly pass found this gap
// bonus-eligible, adds the 1.4× bonus as a separate signal so the
// multiplier never silently inflates the base tier's face value
// (speed anomaly subsumption).
func applyGapDuration(b *models.ScoreBreakdown, cfg *config.ScoringConfig, gap models.GapEvent, corridorType models.CorridorType, bonusEligible bool) {
	var key string
	var base int
	switch {
	case gap.DurationMinutes >= 24*60:
		key = "gap_duration_24h_plus"
		base = config.IntOrDefault(cfg.GapDuration, key, 30)
	case corridorType == models.CorridorSTSZone:
		key = "gap_duration_sts_zone"
		base = config.IntOrDefault(cfg.GapDuration, key, 20)
	default:
		key = "gap_duration_other"
		base = config.IntOrDefault(cfg.GapDuration, key, 8)
	}
	b.Add(key, base)

	if bonusEligible {
		bonus := int(math.Round(float64(base) * gapDurationSpeedSpikeBonusFactor))
		b.Add("gap_duration_speed_spike_bonus", bonus)
	}
}
