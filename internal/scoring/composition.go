package scoring

import (
	"math"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/vessel"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// compose applies the corridor multiplier, vessel-size
// multiplier, final composition, and metadata stamping. Legitimacy
// deductions (L, already written into b as negative signals) are never
// amplified — only R, the positive subtotal, is multiplied.
func compose(b *models.ScoreBreakdown, cfg *config.ScoringConfig, corridorType models.CorridorType, dwt float64) int {
	corridorMultiplier := cfg.CorridorFactor(corridorType)
	sizeProfile := vessel.Classify(dwt)
	sizeMultiplier := vessel.SizeMultiplier(dwt)

	positive := b.PositiveSum()
	negative := b.NegativeSum()

	final := int(math.Round(float64(positive)*corridorMultiplier*sizeMultiplier)) + negative
	if final < 0 {
		final = 0
	}

	b.Meta = models.BreakdownMeta{
		CorridorType:         string(corridorType),
		CorridorMultiplier:   corridorMultiplier,
		VesselSizeClass:      string(sizeProfile.Class),
		VesselSizeMultiplier: sizeMultiplier,
		AdditiveSubtotal:     positive + negative,
		FinalScore:           final,
	}
	return final
}
