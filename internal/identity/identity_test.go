package identity

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

func TestValidIMO(t *testing.T) {
	// 9074729 is a commonly cited valid IMO test number.
	if !ValidIMO("9074729") {
		t.Fatal("expected 9074729 to be a valid IMO")
	}
	if !ValidIMO("IMO9074729") {
		t.Fatal("expected IMO-prefixed form to validate the same")
	}
	if ValidIMO("9074720") {
		t.Fatal("expected mismatched check digit to be invalid")
	}
	if ValidIMO("123") {
		t.Fatal("expected short string to be invalid")
	}
}

func TestCanonicalFollowsChain(t *testing.T) {
	two := int64(3)
	chain := map[int64]*int64{
		1: &two,
		3: nil,
	}
	lookup := func(id int64) (*int64, bool) {
		v, ok := chain[id]
		return v, ok
	}
	got, err := Canonical(lookup, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected canonical 3, got %d", got)
	}
}

func TestCanonicalDetectsCycle(t *testing.T) {
	a, b := int64(2), int64(1)
	chain := map[int64]*int64{1: &a, 2: &b}
	lookup := func(id int64) (*int64, bool) {
		v, ok := chain[id]
		return v, ok
	}
	if _, err := Canonical(lookup, 1); err == nil {
		t.Fatal("expected cycle to be detected")
	}
}

type stubRepo struct {
	gapVessels     map[int64]bool
	lastPoints     map[int64]models.AISPoint
	firstPoints    map[int64]models.AISPoint
	overlapping    map[[2]int64]bool
	aisSince       map[int64]bool
}

func (s *stubRepo) VesselByID(id int64) (models.Vessel, bool)         { return models.Vessel{}, false }
func (s *stubRepo) MergedIntoOf(id int64) (*int64, bool)              { return nil, true }
func (s *stubRepo) ExistingCandidate(a, b int64) bool                 { return false }
func (s *stubRepo) HasOverlappingAIS(a, b int64) bool {
	k := [2]int64{a, b}
	if b < a {
		k = [2]int64{b, a}
	}
	return s.overlapping[k]
}
func (s *stubRepo) LastAISPoint(id int64) (models.AISPoint, bool)  { p, ok := s.lastPoints[id]; return p, ok }
func (s *stubRepo) FirstAISPoint(id int64) (models.AISPoint, bool) { p, ok := s.firstPoints[id]; return p, ok }
func (s *stubRepo) HasGapEvent(id int64) bool                      { return s.gapVessels[id] }
func (s *stubRepo) HasAISSince(id int64, since time.Time) bool     { return s.aisSince[id] }
func (s *stubRepo) AISWithinNMOfRussianTerminal(id int64, nm float64, window time.Duration) bool {
	return false
}
func (s *stubRepo) PortCallsDuring(id int64, start, end time.Time) []models.PortCall { return nil }
func (s *stubRepo) NearbyVesselCount(lat, lon, nm float64, window time.Duration, around time.Time) int {
	return 0
}
func (s *stubRepo) SpoofingAnomalyExistsForIMO(imo string, ids ...int64) bool { return false }
func (s *stubRepo) CanonicalVesselsSharingIMO() map[string][]int64           { return nil }
func (s *stubRepo) SaveIMOFraudAnomaly(a models.SpoofingAnomaly, vesselIDs []int64) error {
	return nil
}
func (s *stubRepo) PendingCandidatesWithSameIMODominant() []models.MergeCandidate { return nil }
func (s *stubRepo) RecapMergeCandidate(c models.MergeCandidate) error             { return nil }
func (s *stubRepo) ReassignWatchlist(c, a int64) (int, []map[string]any, error) {
	return 0, nil, nil
}
func (s *stubRepo) ReassignSTSEvents(c, a int64) (int, []models.StsTransferEvent, error) {
	return 0, nil, nil
}
func (s *stubRepo) ReassignVesselHistory(c, a int64) (int, error)       { return 0, nil }
func (s *stubRepo) SetOriginalVesselIDIfNull(c, a int64) error         { return nil }
func (s *stubRepo) ReassignSimpleFKTables(c, a int64) (map[string]int, error) {
	return map[string]int{}, nil
}
func (s *stubRepo) ReassignAISPointsBatched(c, a int64, batch int) (int, int64, int64, error) {
	return 0, 0, 0, nil
}
func (s *stubRepo) BackfillCanonicalMetadata(c, a int64) error { return nil }
func (s *stubRepo) AppendVesselHistory(e models.VesselHistory) error { return nil }
func (s *stubRepo) SetMergedInto(absorbed, canonical int64) error    { return nil }
func (s *stubRepo) ClearMergedInto(id int64) error                   { return nil }
func (s *stubRepo) AutoRejectPendingCandidatesReferencing(id int64) (int, error) {
	return 0, nil
}
func (s *stubRepo) PersistMergeOperation(op models.MergeOperation) (int64, error) { return 99, nil }
func (s *stubRepo) AppendAuditLog(e models.AuditLogEntry) error                   { return nil }
func (s *stubRepo) RescoreGapEventsForVessel(id int64) error                      { return nil }
func (s *stubRepo) MergeOperationByID(id int64) (models.MergeOperation, bool)     { return models.MergeOperation{}, false }
func (s *stubRepo) ReactivateVessel(id int64) error                               { return nil }
func (s *stubRepo) RestoreSnapshottedRows(op models.MergeOperation) error         { return nil }
func (s *stubRepo) RemoveVesselHistoryEntry(id int64, field string) error         { return nil }
func (s *stubRepo) ClearEvidenceCardProvenance(id int64) error                    { return nil }
func (s *stubRepo) MarkMergeOperationReversed(id int64) error                     { return nil }

func TestDetectCandidatesHardGuardBlocksOverlap(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	dark := models.Vessel{ID: 1}
	fresh := models.Vessel{ID: 2}
	repo := &stubRepo{
		lastPoints:  map[int64]models.AISPoint{1: {Lat: 10, Lon: 20, TimestampUTC: now.Add(-48 * time.Hour)}},
		firstPoints: map[int64]models.AISPoint{2: {Lat: 10, Lon: 20, TimestampUTC: now.Add(-24 * time.Hour)}},
		overlapping: map[[2]int64]bool{{1, 2}: true},
	}
	cfg := config.DefaultScoringConfig()

	candidates, res := DetectCandidates([]models.Vessel{dark}, []models.Vessel{fresh}, repo, cfg, now)
	if res.SkippedOverlap != 1 {
		t.Fatalf("expected overlap to be recorded, got %+v", res)
	}
	if len(candidates) != 1 || candidates[0].ConfidenceScore != 0 || candidates[0].Status != models.MergeCandidateRejected {
		t.Fatalf("expected a single rejected zero-score candidate, got %+v", candidates)
	}
}

func TestDetectCandidatesScoresAndClassifies(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	dark := models.Vessel{ID: 1, IMO: "9074729", VesselType: "tanker", DeadweightTons: 100000, YearBuilt: 2005, MMSI: "273123456"}
	fresh := models.Vessel{ID: 2, IMO: "9074729", VesselType: "tanker", DeadweightTons: 100000, YearBuilt: 2006, MMSI: "273654321", MMSIFirstSeen: now.Add(-1 * time.Hour)}
	repo := &stubRepo{
		lastPoints:  map[int64]models.AISPoint{1: {Lat: 10, Lon: 20, TimestampUTC: now.Add(-48 * time.Hour)}},
		firstPoints: map[int64]models.AISPoint{2: {Lat: 10.01, Lon: 20.01, TimestampUTC: now.Add(-24 * time.Hour)}},
	}
	cfg := config.DefaultScoringConfig()

	candidates, res := DetectCandidates([]models.Vessel{dark}, []models.Vessel{fresh}, repo, cfg, now)
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ConfidenceScore < cfg.MergeAutoConfidenceThreshold {
		t.Fatalf("expected a high-confidence same-IMO match to auto-merge, got score %d", c.ConfidenceScore)
	}
	if res.CandidatesAutoMerged != 1 {
		t.Fatalf("expected auto-merge tally, got %+v", res)
	}
}

func TestExecuteMergeRejectsSameCanonical(t *testing.T) {
	repo := &stubRepo{}
	result := ExecuteMerge(5, 5, repo, "analyst@example.com", time.Now().UTC())
	if result.Success {
		t.Fatal("expected merging a vessel with itself to fail")
	}
}
