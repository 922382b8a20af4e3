package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	gapFreeWindow  = 90 * 24 * time.Hour
	euPortCallCap  = 3
)

var whiteFlagJurisdictions = map[string]bool{
	"NO": true, "DK": true, "DE": true, "JP": true, "NL": true,
}

// applyLegitimacy evaluates the four deduction signals. These are never
// amplified by the corridor/size multipliers — composition.go applies
// them after the multiplied additive subtotal, at face value.
func applyLegitimacy(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, v models.Vessel, gap models.GapEvent, now time.Time) {
	if repo.GapCountSince(gap.OriginalVesselID, now.Add(-gapFreeWindow)) == 0 && v.FlagRisk != models.FlagRiskHigh {
		b.Add("gap_free_90d_clean", config.IntOrDefault(cfg.Legitimacy, "gap_free_90d_clean", -10))
	}
	if repo.AllPointsClassA(gap.OriginalVesselID, now.Add(-gapFreeWindow)) {
		b.Add("ais_class_a_consistent", config.IntOrDefault(cfg.Legitimacy, "ais_class_a_consistent", -5))
	}
	if whiteFlagJurisdictions[v.Flag] {
		b.Add("white_flag_jurisdiction", config.IntOrDefault(cfg.Legitimacy, "white_flag_jurisdiction", -10))
	}

	euCalls := repo.EUPortCallCount(gap.OriginalVesselID, now.Add(-gapFreeWindow))
	if euCalls > euPortCallCap {
		euCalls = euPortCallCap
	}
	if euCalls > 0 {
		perCall := config.IntOrDefault(cfg.Legitimacy, "eu_port_call", -5)
		b.Add("eu_port_call", perCall*euCalls)
	}
}
