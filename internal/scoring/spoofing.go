package scoring

import "github.com/shadowfleet/aisforensics/pkg/models"

// applySpoofingAnomalies adds each spoofing anomaly linked to this gap
// (internal/gapdetect.LinkAnomaliesToGaps already resolved the link) as
// its own signal, keyed by typology. Each anomaly already carries its
// own computed risk_score_component from detection time, so this step
// only relays it into the gap's breakdown rather than recomputing it.
func applySpoofingAnomalies(b *models.ScoreBreakdown, anomalies []models.SpoofingAnomaly) {
	for _, a := range anomalies {
		b.Add(string(a.Typology), a.RiskScoreComponent)
	}
}
