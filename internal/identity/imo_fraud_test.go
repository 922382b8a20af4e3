package identity

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

type imoFraudRepo struct {
	stubRepo
	shared          map[string][]int64
	existingAnomaly bool
	savedAnomalies  []models.SpoofingAnomaly
	pendingSameIMO  []models.MergeCandidate
	recapped        []models.MergeCandidate
}

func (r *imoFraudRepo) CanonicalVesselsSharingIMO() map[string][]int64 { return r.shared }
func (r *imoFraudRepo) SpoofingAnomalyExistsForIMO(imo string, ids ...int64) bool {
	return r.existingAnomaly
}
func (r *imoFraudRepo) SaveIMOFraudAnomaly(a models.SpoofingAnomaly, vesselIDs []int64) error {
	r.savedAnomalies = append(r.savedAnomalies, a)
	return nil
}
func (r *imoFraudRepo) PendingCandidatesWithSameIMODominant() []models.MergeCandidate {
	return r.pendingSameIMO
}
func (r *imoFraudRepo) RecapMergeCandidate(c models.MergeCandidate) error {
	r.recapped = append(r.recapped, c)
	return nil
}

func TestDetectIMOFraudFlagsSharedValidIMO(t *testing.T) {
	repo := &imoFraudRepo{shared: map[string][]int64{"9074729": {1, 2}}}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	res := DetectIMOFraud(repo, now)
	if res.AnomaliesCreated != 1 {
		t.Fatalf("expected 1 anomaly, got %d", res.AnomaliesCreated)
	}
	if len(repo.savedAnomalies) != 1 || repo.savedAnomalies[0].Typology != models.TypologyIMOFraud {
		t.Fatalf("expected a saved IMO_FRAUD anomaly, got %+v", repo.savedAnomalies)
	}
}

func TestDetectIMOFraudIgnoresInvalidChecksum(t *testing.T) {
	repo := &imoFraudRepo{shared: map[string][]int64{"9074720": {1, 2}}}
	res := DetectIMOFraud(repo, time.Now().UTC())
	if res.AnomaliesCreated != 0 {
		t.Fatalf("expected invalid-checksum IMOs to be skipped, got %d", res.AnomaliesCreated)
	}
}

func TestDetectIMOFraudSkipsExisting(t *testing.T) {
	repo := &imoFraudRepo{shared: map[string][]int64{"9074729": {1, 2}}, existingAnomaly: true}
	res := DetectIMOFraud(repo, time.Now().UTC())
	if res.AnomaliesCreated != 0 {
		t.Fatalf("expected dedup against an existing anomaly, got %d", res.AnomaliesCreated)
	}
}

func TestRecheckMergesForIMOFraudCapsScore(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	repo := &imoFraudRepo{
		existingAnomaly: true,
		pendingSameIMO: []models.MergeCandidate{
			{ID: 1, ConfidenceScore: 90, MatchReasons: map[string]int{"same_imo": 25}},
		},
	}

	res := RecheckMergesForIMOFraud(repo, cfg)
	if res.CandidatesRecapped != 1 {
		t.Fatalf("expected 1 candidate recapped, got %d", res.CandidatesRecapped)
	}
	if repo.recapped[0].ConfidenceScore != cfg.MergeAutoConfidenceThreshold-1 {
		t.Fatalf("expected score capped at auto threshold - 1, got %d", repo.recapped[0].ConfidenceScore)
	}
}

func TestRecheckMergesForIMOFraudSkipsAlreadyBelowCap(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	repo := &imoFraudRepo{
		existingAnomaly: true,
		pendingSameIMO: []models.MergeCandidate{
			{ID: 1, ConfidenceScore: 10, MatchReasons: map[string]int{"same_imo": 25}},
		},
	}

	res := RecheckMergesForIMOFraud(repo, cfg)
	if res.CandidatesRecapped != 0 {
		t.Fatalf("expected no recap for a score already below the cap, got %d", res.CandidatesRecapped)
	}
}
