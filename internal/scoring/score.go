package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// ScoreGap runs the full signal catalogue in the fixed evaluation order,
// then composes the three-phase final score. Mirrors the prior
// ScoreTransaction shape: a single function accumulating
// into one breakdown rather than many independently-scored fragments.
func ScoreGap(gap models.GapEvent, v models.Vessel, repo Repository, cfg *config.ScoringConfig, now time.Time) (int, models.ScoreBreakdown) {
	var b models.ScoreBreakdown

	corridorType := models.CorridorLegitimateTradeRoute
	if gap.CorridorID != nil {
		if t, ok := repo.CorridorTypeByID(*gap.CorridorID); ok {
			corridorType = t
		} else {
			corridorType = ""
		}
	} else {
		corridorType = ""
	}

	applySpoofingAnomalies(&b, repo.AnomaliesForGap(gap.ID))

	tier := classifySpeedAnomaly(gap, v.DeadweightTons)
	bonusEligible := applySpeedAnomaly(&b, cfg, tier)
	applyGapDuration(&b, cfg, gap, corridorType, bonusEligible)
	applyDarkZone(&b, cfg, gap, v.DeadweightTons)
	applyGapFrequency(&b, cfg, repo, gap, now)
	applyFlagState(&b, cfg, repo, v.ID, now)
	applySTSDedup(&b, cfg, repo, v.ID, gap)
	applyLoiter(&b, cfg, repo, gap, corridorType)
	applyVesselAge(&b, cfg, v, now)
	applyMMSIChange(&b, cfg, repo, v.ID, now)
	applyNameChange(&b, cfg, repo, v.ID, now)
	applyMergeChain(&b, cfg, repo, v.ID)
	applyLegitimacy(&b, cfg, repo, v, gap, now)

	final := compose(&b, cfg, corridorType, v.DeadweightTons)
	return final, b
}
