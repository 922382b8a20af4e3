package scoring

import (
	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/vessel"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// gapDurationSpeedSpikeBonusFactor is the extra multiplier applied to a
// gap_duration signal on top of its base 1.0×, i.e. a total 1.4×.
const gapDurationSpeedSpikeBonusFactor = 0.4

// speedAnomalyTier is the mutually exclusive speed-before-gap bucket a
// gap falls into, used both to emit the speed_anomaly signal and to
// decide whether the gap_duration signal gets the 1.4× bonus.
type speedAnomalyTier int

const (
	speedTierNone speedAnomalyTier = iota
	speedTierImpossible
	speedTierSpoof
	speedTierSpike
)

// classifySpeedAnomaly implements the subsumption rule: the
// highest applicable tier wins, and only spoof/spike tiers carry the
// duration bonus — impossible-speed is a position-error class signal,
// not evasion.
func classifySpeedAnomaly(gap models.GapEvent, dwt float64) speedAnomalyTier {
	switch {
	case gap.PreGapSOG > 30:
		return speedTierImpossible
	case gap.PreGapSOG >= vessel.SpoofThresholdKn(dwt):
		return speedTierSpoof
	case gap.PreGapSOG >= vessel.SpikeThresholdKn(dwt):
		return speedTierSpike
	default:
		return speedTierNone
	}
}

// applySpeedAnomaly emits the speed_anomaly signal and reports whether
// the gap_duration signal should receive the speed-spike bonus.
func applySpeedAnomaly(b *models.ScoreBreakdown, cfg *config.ScoringConfig, tier speedAnomalyTier) (bonusEligible bool) {
	switch tier {
	case speedTierImpossible:
		b.Add("speed_impossible", config.IntOrDefault(cfg.SpeedAnomaly, "speed_impossible", 40))
		return false
	case speedTierSpoof:
		b.Add("speed_spoof_before_gap", config.IntOrDefault(cfg.SpeedAnomaly, "speed_spoof_before_gap", 25))
		return true
	case speedTierSpike:
		b.Add("speed_spike_before_gap", config.IntOrDefault(cfg.SpeedAnomaly, "speed_spike_before_gap", 8))
		return true
	default:
		return false
	}
}

// applyDarkZone implements the dark-zone tri-state: exactly one of the
// three signals fires, never more than one.
func applyDarkZone(b *models.ScoreBreakdown, cfg *config.ScoringConfig, gap models.GapEvent, dwt float64) {
	if !gap.InDarkZone {
		return
	}
	switch {
	case gap.ImpossibleSpeedFlag && gap.DarkZoneID != nil:
		b.Add("dark_zone_exit_impossible", config.IntOrDefault(cfg.DarkZone, "dark_zone_exit_impossible", 35))
	case gap.PreGapSOG > vessel.SpikeThresholdKn(dwt) && gap.DurationMinutes < 6*60:
		b.Add("dark_zone_entry", config.IntOrDefault(cfg.DarkZone, "dark_zone_entry", 20))
	default:
		b.Add("dark_zone_deduction", config.IntOrDefault(cfg.DarkZone, "dark_zone_deduction", -10))
	}
}
