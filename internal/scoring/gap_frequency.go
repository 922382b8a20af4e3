package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// gapFrequencyTier is one evaluated frequency condition: a count lookback
// window, the minimum count required, and the config key/default.
type gapFrequencyTier struct {
	key       string
	window    time.Duration
	minCount  int
	def       int
}

// gapFrequencyTiers is evaluated in descending score order so the first
// eligible tier found is also the highest-scoring one (gap
// frequency: "keep only the single highest-scoring eligible tier").
var gapFrequencyTiers = []gapFrequencyTier{
	{"gap_frequency_5_in_30d", 30 * 24 * time.Hour, 5, 50},
	{"gap_frequency_4_in_30d", 30 * 24 * time.Hour, 4, 40},
	{"gap_frequency_3_in_14d", 14 * 24 * time.Hour, 3, 32},
	{"gap_frequency_3_in_30d", 30 * 24 * time.Hour, 3, 25},
	{"gap_frequency_2_in_7d", 7 * 24 * time.Hour, 2, 18},
}

// applyGapFrequency counts gaps by the gap's original_vessel_id — which
// is set once at detection and never rewritten by a merge (I7) — so a
// merge can never artificially inflate a vessel's frequency tally.
func applyGapFrequency(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, gap models.GapEvent, now time.Time) {
	for _, tier := range gapFrequencyTiers {
		count := repo.GapCountSince(gap.OriginalVesselID, now.Add(-tier.window))
		if count >= tier.minCount {
			b.Add(tier.key, config.IntOrDefault(cfg.GapFrequency, tier.key, tier.def))
			return
		}
	}
}
