package scoring

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

type fakeRepo struct {
	corridorByID map[int64]models.CorridorType
	gapCounts    map[int64]int
}

func (f *fakeRepo) CorridorTypeByID(id int64) (models.CorridorType, bool) {
	t, ok := f.corridorByID[id]
	return t, ok
}
func (f *fakeRepo) GapCountSince(vesselID int64, since time.Time) int { return f.gapCounts[vesselID] }
func (f *fakeRepo) FlagChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return models.VesselHistory{}, false
}
func (f *fakeRepo) FlagChangeCountSince(vesselID int64, since time.Time) int { return 0 }
func (f *fakeRepo) NameChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return models.VesselHistory{}, false
}
func (f *fakeRepo) MMSIChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return models.VesselHistory{}, false
}
func (f *fakeRepo) PositionMeanNear(vesselID int64, around time.Time, window time.Duration) (float64, float64, bool) {
	return 0, 0, false
}
func (f *fakeRepo) LastPortDepartureBefore(vesselID int64, before time.Time) (time.Time, bool) {
	return time.Time{}, false
}
func (f *fakeRepo) MergeChainLength(vesselID int64) int    { return 1 }
func (f *fakeRepo) ScrappedIMOInChain(vesselID int64) bool { return false }
func (f *fakeRepo) STSEventsOverlapping(vesselID int64, start, end time.Time, window time.Duration) []models.StsTransferEvent {
	return nil
}
func (f *fakeRepo) LoiteringNear(gap models.GapEvent) (models.LoiteringEvent, bool) {
	return models.LoiteringEvent{}, false
}
func (f *fakeRepo) AllPointsClassA(vesselID int64, since time.Time) bool { return false }
func (f *fakeRepo) EUPortCallCount(vesselID int64, since time.Time) int { return 0 }
func (f *fakeRepo) AnomaliesForGap(gapID int64) []models.SpoofingAnomaly { return nil }

func TestScoreGapDurationTierAndMultipliers(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	corridorID := int64(1)
	v := models.Vessel{ID: 1, DeadweightTons: 250000, Flag: "PA", YearBuilt: 2005}
	gap := models.GapEvent{
		ID:                 1,
		VesselID:           1,
		OriginalVesselID:   1,
		GapStartUTC:        now.Add(-25 * time.Hour),
		GapEndUTC:          now,
		DurationMinutes:    25 * 60,
		CorridorID:         &corridorID,
		PreGapSOG:          5,
	}
	repo := &fakeRepo{corridorByID: map[int64]models.CorridorType{1: models.CorridorSTSZone}}
	cfg := config.DefaultScoringConfig()

	_, breakdown := ScoreGap(gap, v, repo, cfg, now)
	if !breakdown.Has("gap_duration_24h_plus") {
		t.Fatalf("expected gap_duration_24h_plus in breakdown, got %+v", breakdown.Signals)
	}
	if breakdown.Meta.CorridorMultiplier != 1.5 {
		t.Fatalf("expected corridor multiplier 1.5, got %v", breakdown.Meta.CorridorMultiplier)
	}
	if breakdown.Meta.VesselSizeMultiplier != 1.3 {
		t.Fatalf("expected vessel size multiplier 1.3, got %v", breakdown.Meta.VesselSizeMultiplier)
	}
}

func TestScoreGapS4OnlyHighestFrequencyTier(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	v := models.Vessel{ID: 2, DeadweightTons: 100000}
	gap := models.GapEvent{ID: 2, VesselID: 2, OriginalVesselID: 2, GapStartUTC: now.Add(-time.Hour), GapEndUTC: now, DurationMinutes: 200}
	repo := &fakeRepo{gapCounts: map[int64]int{2: 5}}
	cfg := config.DefaultScoringConfig()

	_, breakdown := ScoreGap(gap, v, repo, cfg, now)
	if !breakdown.Has("gap_frequency_5_in_30d") {
		t.Fatalf("expected gap_frequency_5_in_30d, got %+v", breakdown.Signals)
	}
	if breakdown.Has("gap_frequency_4_in_30d") || breakdown.Has("gap_frequency_3_in_30d") {
		t.Fatalf("expected no lower-tier frequency signal, got %+v", breakdown.Signals)
	}
}

func TestComposeNeverAmplifiesLegitimacyDeductions(t *testing.T) {
	var b models.ScoreBreakdown
	b.Add("gap_duration_other", 8)
	b.Add("gap_free_90d_clean", -10)
	cfg := config.DefaultScoringConfig()

	final := compose(&b, cfg, models.CorridorSTSZone, 250000)
	// positive(8) * 1.5 * 1.3 = 15.6 -> round 16, plus -10 = 6
	if final != 6 {
		t.Fatalf("expected 6, got %d", final)
	}
}
