package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const vesselAgeThresholdYears = 25

// applyVesselAge implements the age + flag composite: age_25_plus AND
// high_risk_flag supersedes plain age_25_plus.
func applyVesselAge(b *models.ScoreBreakdown, cfg *config.ScoringConfig, v models.Vessel, now time.Time) {
	if v.YearBuilt == 0 {
		return
	}
	age := now.Year() - v.YearBuilt
	if age < vesselAgeThresholdYears {
		return
	}
	if v.FlagRisk == models.FlagRiskHigh {
		b.Add("age_25_plus_high_risk_flag", config.IntOrDefault(cfg.VesselAge, "age_25_plus_high_risk_flag", 30))
		return
	}
	b.Add("age_25_plus", config.IntOrDefault(cfg.VesselAge, "age_25_plus", 20))
}
