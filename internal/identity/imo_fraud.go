package identity

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// IMOFraudResult tallies one imo_fraud detection pass, in the earlier design's
// count-dict style.
type IMOFraudResult struct {
	AnomaliesCreated int
	CandidatesRecapped int
}

// DetectIMOFraud flags every valid, checksum-passing IMO number shared
// by two or more distinct canonical vessels — IMO numbers are assigned
// for the working life of a hull, so two live canonical vessels
// reporting the same one means at least one reported it fraudulently.
func DetectIMOFraud(repo Repository, now time.Time) *IMOFraudResult {
	res := &IMOFraudResult{}
	for imo, vesselIDs := range repo.CanonicalVesselsSharingIMO() {
		if !ValidIMO(imo) || len(vesselIDs) < 2 {
			continue
		}
		if repo.SpoofingAnomalyExistsForIMO(imo, vesselIDs...) {
			continue
		}
		anomaly := models.SpoofingAnomaly{
			Typology: models.TypologyIMOFraud,
			StartTimeUTC: now,
			EndTimeUTC: now,
			Evidence: map[string]any{"imo": imo, "vessel_ids": vesselIDs},
		}
		if err := repo.SaveIMOFraudAnomaly(anomaly, vesselIDs); err == nil {
			res.AnomaliesCreated++
		}
	}
	return res
}

// RecheckMergesForIMOFraud re-evaluates every pending MergeCandidate
// whose dominant signal was same_imo against an IMO that a newly
// recorded IMO_FRAUD anomaly now covers, applying the IMO fraud cap
// as if the anomaly had already existed when the candidate was first
// scored.
func RecheckMergesForIMOFraud(repo Repository, cfg *config.ScoringConfig) *IMOFraudResult {
	res := &IMOFraudResult{}
	for _, c := range repo.PendingCandidatesWithSameIMODominant() {
		a, _ := repo.VesselByID(c.VesselAID)
		if !repo.SpoofingAnomalyExistsForIMO(a.IMO, c.VesselAID, c.VesselBID) {
			continue
		}
		capped := cfg.MergeAutoConfidenceThreshold - 1
		if c.ConfidenceScore <= capped {
			continue
		}
		c.ConfidenceScore = capped
		c.MatchReasons["imo_fraud_cap"] = capped
		if err := repo.RecapMergeCandidate(c); err == nil {
			res.CandidatesRecapped++
		}
	}
	return res
}
