package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const stsOverlapWindow = 7 * 24 * time.Hour

// applySTSDedup takes the single overlapping STS event with the highest
// risk_score_component, preventing a 3-vessel cluster from tripling its
// contribution (STS dedup). The signal name reflects whether the
// winning event sits in an STS-tagged corridor or not, matching
// internal/sts's own scoring of visible_visible/approaching events.
func applySTSDedup(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, vesselID int64, gap models.GapEvent) {
	events := repo.STSEventsOverlapping(vesselID, gap.GapStartUTC, gap.GapEndUTC, stsOverlapWindow)
	if len(events) == 0 {
		return
	}
	best := events[0]
	for _, e := range events[1:] {
		if e.RiskScoreComponent > best.RiskScoreComponent {
			best = e
		}
	}

	key := "sts_outside_zone"
	if best.CorridorID != nil {
		key = "sts_in_zone"
	}
	// The winning event already carries its own computed score
	// (internal/sts applies the config-driven sts_in_zone/
	// sts_outside_zone point values at detection time); dedup only
	// decides which single event's contribution survives.
	b.Add(key, best.RiskScoreComponent)
}
