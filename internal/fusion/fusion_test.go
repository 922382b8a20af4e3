package fusion

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

type fakeRepo struct {
	candidates      []models.MergeCandidate
	scrappedIMO     map[int64]bool
	existingChains  [][]int64
	savedChains     []models.MergeChain
	stsEvents       []models.StsTransferEvent
	existingAlerts  map[string]bool
	savedAlerts     []models.FleetAlert
	existingConvoys bool
	savedConvoys    []models.ConvoyEvent
	loitering       map[int64][]models.LoiteringEvent
	stsByVessel     map[int64][]models.StsTransferEvent
	maxDraught      map[string]float64
	piChanges       map[int64]int
	avgPointsPerDay map[int64]float64
	existingAnomaly bool
	ports           map[int64]models.Port
}

func (f *fakeRepo) MergeCandidatesAbove(minConfidence int) []models.MergeCandidate {
	var out []models.MergeCandidate
	for _, c := range f.candidates {
		if c.ConfidenceScore >= minConfidence {
			out = append(out, c)
		}
	}
	return out
}
func (f *fakeRepo) ScrappedIMO(vesselID int64) bool { return f.scrappedIMO[vesselID] }
func (f *fakeRepo) ExistingMergeChain(vesselIDs []int64) bool {
	for _, existing := range f.existingChains {
		if sameIDs(existing, vesselIDs) {
			return true
		}
	}
	return false
}
func (f *fakeRepo) SaveMergeChain(chain models.MergeChain) error {
	f.savedChains = append(f.savedChains, chain)
	return nil
}
func (f *fakeRepo) STSEventsSince(since time.Time) []models.StsTransferEvent { return f.stsEvents }
func (f *fakeRepo) ExistingFleetAlert(kind string, vesselIDs []int64) bool {
	return f.existingAlerts[kind+chainKey(vesselIDs)]
}
func (f *fakeRepo) SaveFleetAlert(alert models.FleetAlert) error {
	f.savedAlerts = append(f.savedAlerts, alert)
	return nil
}
func (f *fakeRepo) AISPointsSince(vesselID int64, since time.Time) []models.AISPoint { return nil }
func (f *fakeRepo) CanonicalVesselIDs() []int64                                      { return nil }
func (f *fakeRepo) VesselByID(id int64) (models.Vessel, bool)                        { return models.Vessel{}, false }
func (f *fakeRepo) ExistingConvoyEvent(v1, v2 int64, start, end time.Time) bool       { return f.existingConvoys }
func (f *fakeRepo) SaveConvoyEvent(event models.ConvoyEvent) error {
	f.savedConvoys = append(f.savedConvoys, event)
	return nil
}
func (f *fakeRepo) LoiteringEventsFor(vesselID int64) []models.LoiteringEvent {
	return f.loitering[vesselID]
}
func (f *fakeRepo) STSEventsFor(vesselID int64) []models.StsTransferEvent {
	return f.stsByVessel[vesselID]
}
func (f *fakeRepo) FingerprintFor(vesselID int64) (models.FingerprintVector, bool) {
	return models.FingerprintVector{}, false
}
func (f *fakeRepo) SaveFingerprint(fp models.FingerprintVector) error { return nil }
func (f *fakeRepo) FingerprintCandidates(vesselID int64, limit int) []int64 { return nil }
func (f *fakeRepo) PortCallsFor(vesselID int64) []models.PortCall           { return nil }
func (f *fakeRepo) SaveVoyageTemplate(t models.VoyageTemplate) error        { return nil }
func (f *fakeRepo) VoyageTemplates() []models.VoyageTemplate                { return nil }
func (f *fakeRepo) PortByID(id int64) (models.Port, bool) {
	p, ok := f.ports[id]
	return p, ok
}
func (f *fakeRepo) CorridorTypeByID(id int64) (models.CorridorType, bool) { return "", false }
func (f *fakeRepo) MaxDraughtFor(vesselType string, dwt float64) (float64, bool) {
	v, ok := f.maxDraught[vesselType]
	return v, ok
}
func (f *fakeRepo) WeatherAt(lat, lon float64, at time.Time) (float64, bool) { return 0, false }
func (f *fakeRepo) PICoverageChangeCountSince(vesselID int64, since time.Time) int {
	return f.piChanges[vesselID]
}
func (f *fakeRepo) AveragePointsPerDay(vesselID int64, window time.Duration) float64 {
	return f.avgPointsPerDay[vesselID]
}
func (f *fakeRepo) ExistingAnomalyNear(vesselID int64, typology models.SpoofingTypology, near time.Time) bool {
	return f.existingAnomaly
}

func sameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDetectMergeChainsFindsComponentOfThree(t *testing.T) {
	repo := &fakeRepo{candidates: []models.MergeCandidate{
		{VesselAID: 1, VesselBID: 2, ConfidenceScore: 80},
		{VesselAID: 2, VesselBID: 3, ConfidenceScore: 60},
		{VesselAID: 5, VesselBID: 6, ConfidenceScore: 30}, // below threshold, excluded
	}}

	res, err := DetectMergeChains(repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MergeChainsFound != 1 {
		t.Fatalf("expected 1 chain found, got %d", res.MergeChainsFound)
	}
	chain := repo.savedChains[0]
	if len(chain.VesselIDs) != 3 {
		t.Fatalf("expected 3-vessel chain, got %v", chain.VesselIDs)
	}
	if chain.Confidence != 60 {
		t.Fatalf("expected min-edge confidence 60, got %d", chain.Confidence)
	}
	if chain.ConfidenceBand != models.ChainConfidenceMedium {
		t.Fatalf("expected medium band, got %s", chain.ConfidenceBand)
	}
}

func TestDetectMergeChainsSkipsExistingDedup(t *testing.T) {
	repo := &fakeRepo{
		candidates: []models.MergeCandidate{
			{VesselAID: 1, VesselBID: 2, ConfidenceScore: 80},
			{VesselAID: 2, VesselBID: 3, ConfidenceScore: 60},
		},
		existingChains: [][]int64{{1, 2, 3}},
	}
	res, err := DetectMergeChains(repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MergeChainsFound != 0 {
		t.Fatalf("expected dedup to suppress the chain, got %d", res.MergeChainsFound)
	}
}

func TestDetectSTSRelayChainsScoresByHopCount(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		existingAlerts: map[string]bool{},
		stsEvents: []models.StsTransferEvent{
			{Vessel1ID: 1, Vessel2ID: 2, StartTimeUTC: base},
			{Vessel1ID: 2, Vessel2ID: 3, StartTimeUTC: base.Add(time.Hour)},
		},
	}

	res, err := DetectSTSRelayChains(repo, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RelayChainsFound != 1 {
		t.Fatalf("expected 1 relay chain, got %d (alerts=%+v)", res.RelayChainsFound, repo.savedAlerts)
	}
	alert := repo.savedAlerts[0]
	if alert.Hops != 2 {
		t.Fatalf("expected 2 hops, got %d", alert.Hops)
	}
	if alert.Score != relayChain3Hop {
		t.Fatalf("expected 3-vessel score %d, got %d", relayChain3Hop, alert.Score)
	}
}

func TestDetectSTSRelayChainsIgnoresSimultaneousHops(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		existingAlerts: map[string]bool{},
		stsEvents: []models.StsTransferEvent{
			// Both legs start at the same instant, so neither extends the
			// other in strictly increasing temporal order.
			{Vessel1ID: 1, Vessel2ID: 2, StartTimeUTC: base},
			{Vessel1ID: 2, Vessel2ID: 3, StartTimeUTC: base},
		},
	}

	res, err := DetectSTSRelayChains(repo, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RelayChainsFound != 0 {
		t.Fatalf("expected no relay chain from simultaneous hops, got %d", res.RelayChainsFound)
	}
}

func TestComputeFingerprintRequiresMinimumPoints(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []models.AISPoint
	for i := 0; i < 50; i++ {
		points = append(points, models.AISPoint{TimestampUTC: base.Add(time.Duration(i) * time.Hour), SOG: 10, Heading: 90})
	}

	_, ok := ComputeFingerprint(1, points)
	if ok {
		t.Fatalf("expected fingerprint to be rejected below the 300-point minimum")
	}
}

func TestComputeFingerprintAndMahalanobisDistance(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []models.AISPoint
	for i := 0; i < 400; i++ {
		points = append(points, models.AISPoint{
			TimestampUTC: base.Add(time.Duration(i) * 3 * time.Hour),
			SOG:          12 + float64(i%3),
			Heading:      90,
			Draught:      10,
			NavStatus:    0,
		})
	}

	fp, ok := ComputeFingerprint(1, points)
	if !ok {
		t.Fatalf("expected fingerprint to be computed")
	}
	if fp.WindowCount == 0 {
		t.Fatalf("expected at least one feature window")
	}

	dist, ok := MahalanobisDistance(fp, fp)
	if !ok {
		t.Fatalf("expected a valid distance for a fingerprint compared to itself")
	}
	if dist > 1e-6 {
		t.Fatalf("expected ~0 distance comparing a fingerprint to itself, got %v", dist)
	}
}

func TestFingerprintMergeBonusTiers(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	if key, score := FingerprintMergeBonus(cfg, 0); key != "fingerprint_close" || score != 15 {
		t.Fatalf("expected fingerprint_close/15, got %s/%d", key, score)
	}
	if key, score := FingerprintMergeBonus(cfg, 3.0); key != "fingerprint_similar" || score != 10 {
		t.Fatalf("expected fingerprint_similar/10, got %s/%d", key, score)
	}
	if key, score := FingerprintMergeBonus(cfg, 10.0); key != "fingerprint_divergent" || score != -5 {
		t.Fatalf("expected fingerprint_divergent/-5, got %s/%d", key, score)
	}
}

func TestDetectTypeDWTMismatchFlagsUnknownCombination(t *testing.T) {
	repo := &fakeRepo{maxDraught: map[string]float64{"tanker": 20}}
	cfg := config.DefaultScoringConfig()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	v := models.Vessel{ID: 1, VesselType: "bulk_carrier", DeadweightTons: 50000}
	anomaly := DetectTypeDWTMismatch(v, repo, now, cfg)
	if anomaly == nil {
		t.Fatalf("expected a mismatch anomaly for an unrecognized type")
	}

	v2 := models.Vessel{ID: 2, VesselType: "tanker", DeadweightTons: 50000}
	if a := DetectTypeDWTMismatch(v2, repo, now, cfg); a != nil {
		t.Fatalf("expected no mismatch for a recognized type, got %+v", a)
	}
}

func TestDetectPICyclingRequiresMinimumChanges(t *testing.T) {
	repo := &fakeRepo{piChanges: map[int64]int{1: 1, 2: 2}}
	cfg := config.DefaultScoringConfig()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if a := DetectPICycling(models.Vessel{ID: 1}, repo, now, cfg); a != nil {
		t.Fatalf("expected no anomaly below the 2-change minimum, got %+v", a)
	}
	if a := DetectPICycling(models.Vessel{ID: 2}, repo, now, cfg); a == nil {
		t.Fatalf("expected an anomaly at the 2-change minimum")
	}
}

func TestApplyWeatherDeductionSkippedWithoutSpeedAnomaly(t *testing.T) {
	var b models.ScoreBreakdown
	deduction := WeatherDeduction{Signal: "weather_high_wind", Score: -15, AppliesTo: weatherAppliesToSpeedAnomalyOnly}

	ApplyWeatherDeduction(&b, deduction, false)
	if b.Has("weather_high_wind") {
		t.Fatalf("expected weather deduction to be skipped without a speed anomaly signal")
	}

	ApplyWeatherDeduction(&b, deduction, true)
	if !b.Has("weather_high_wind") {
		t.Fatalf("expected weather deduction to apply once a speed anomaly signal fired")
	}
}

func TestIsDuplicateTemplateByJaccard(t *testing.T) {
	existing := []models.VoyageTemplate{{Ports: []int64{1, 2, 3}}}
	if !isDuplicateTemplate([]int64{1, 2, 4}, existing) {
		t.Fatalf("expected 2/4 overlap (Jaccard 0.5) to count as a duplicate")
	}
	if isDuplicateTemplate([]int64{5, 6, 7}, existing) {
		t.Fatalf("expected disjoint port sets not to dedup")
	}
}
