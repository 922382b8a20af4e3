package sts

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

const darkPartnerBonusWindow = 2 * time.Hour
const darkPartnerBonus = 15

// ApplyDarkPartnerBonus adds +15 to the risk_score_component of every
// STS event whose temporal window overlaps a gap event (+/-2h) on
// either of its two vessels — "one vessel dark during proximity",
// dark partner bonus.
func ApplyDarkPartnerBonus(events []models.StsTransferEvent, gapsByVessel map[int64][]models.GapEvent) []models.StsTransferEvent {
	out := make([]models.StsTransferEvent, len(events))
	copy(out, events)

	for i := range out {
		if hasOverlappingGap(out[i].Vessel1ID, out[i].StartTimeUTC, out[i].EndTimeUTC, gapsByVessel) ||
		hasOverlappingGap(out[i].Vessel2ID, out[i].StartTimeUTC, out[i].EndTimeUTC, gapsByVessel) {
			out[i].RiskScoreComponent += darkPartnerBonus
		}
	}
	return out
}

func hasOverlappingGap(vesselID int64, start, end time.Time, gapsByVessel map[int64][]models.GapEvent) bool {
	for _, g := range gapsByVessel[vesselID] {
		winStart := g.GapStartUTC.Add(-darkPartnerBonusWindow)
		winEnd := g.GapEndUTC.Add(darkPartnerBonusWindow)
		if !end.Before(winStart) && !start.After(winEnd) {
			return true
		}
	}
	return false
}
