package pipeline

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/scoring"
	"github.com/shadowfleet/aisforensics/internal/sts"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// fakeRepo backs the whole Repository facade with plain fields, in the
// single-file-fake style of internal/sts/sts_test.go and
// internal/fusion/fusion_test.go. Only the behavior each test actually
// exercises is wired; everything else returns zero values.
type fakeRepo struct {
	vessels        []models.Vessel
	points         map[int64][]models.AISPoint
	savedGaps      []models.GapEvent
	savedEnvelopes []models.MovementEnvelope
	savedAnomalies []models.SpoofingAnomaly
	laidUpCalls    int
}

func (f *fakeRepo) CanonicalVessels() []models.Vessel { return f.vessels }
func (f *fakeRepo) AllVessels() []models.Vessel       { return f.vessels }
func (f *fakeRepo) AISPointsFor(vesselID int64) []models.AISPoint {
	return f.points[vesselID]
}

func (f *fakeRepo) SaveGap(gap models.GapEvent) (int64, error) {
	gap.ID = int64(len(f.savedGaps) + 1)
	f.savedGaps = append(f.savedGaps, gap)
	return gap.ID, nil
}
func (f *fakeRepo) SaveEnvelope(env models.MovementEnvelope) error {
	f.savedEnvelopes = append(f.savedEnvelopes, env)
	return nil
}
func (f *fakeRepo) SaveAnomaly(a models.SpoofingAnomaly) error {
	f.savedAnomalies = append(f.savedAnomalies, a)
	return nil
}
func (f *fakeRepo) SaveSTSEvent(e models.StsTransferEvent) (int64, error) { return 1, nil }
func (f *fakeRepo) SaveSatelliteTaskingCandidate(c models.SatelliteTaskingCandidate) error {
	return nil
}
func (f *fakeRepo) SaveMergeCandidate(c models.MergeCandidate) error { return nil }

func (f *fakeRepo) DarkGapsSince(since time.Time) []sts.DarkGap { return nil }

func (f *fakeRepo) UpdateLaidUpFlags(vesselID int64, laidUp30d, laidUp60d, laidUpInSTSZone bool) error {
	f.laidUpCalls++
	return nil
}
func (f *fakeRepo) VesselIDsInAnyMergeChain() []int64 { return nil }

// gapdetect.Repository
func (f *fakeRepo) ExistingGapNear(vesselID int64, start time.Time, window time.Duration) bool {
	return false
}
func (f *fakeRepo) ExistingAnomalyNear(vesselID int64, typology models.SpoofingTypology, start time.Time) bool {
	return false
}

// sts.Repository
func (f *fakeRepo) ExistingEventOverlapping(v1, v2 int64, start, end time.Time) bool { return false }

// identity.Repository
func (f *fakeRepo) VesselByID(id int64) (models.Vessel, bool)  { return models.Vessel{}, false }
func (f *fakeRepo) MergedIntoOf(id int64) (*int64, bool)       { return nil, true }
func (f *fakeRepo) ExistingCandidate(a, b int64) bool          { return false }
func (f *fakeRepo) HasOverlappingAIS(a, b int64) bool          { return false }
func (f *fakeRepo) LastAISPoint(id int64) (models.AISPoint, bool) {
	pts := f.points[id]
	if len(pts) == 0 {
		return models.AISPoint{}, false
	}
	return pts[len(pts)-1], true
}
func (f *fakeRepo) FirstAISPoint(id int64) (models.AISPoint, bool) {
	pts := f.points[id]
	if len(pts) == 0 {
		return models.AISPoint{}, false
	}
	return pts[0], true
}
func (f *fakeRepo) HasGapEvent(id int64) bool                  { return false }
func (f *fakeRepo) HasAISSince(id int64, since time.Time) bool { return false }
func (f *fakeRepo) AISWithinNMOfRussianTerminal(id int64, nm float64, window time.Duration) bool {
	return false
}
func (f *fakeRepo) PortCallsDuring(id int64, start, end time.Time) []models.PortCall { return nil }
func (f *fakeRepo) NearbyVesselCount(lat, lon, nm float64, window time.Duration, around time.Time) int {
	return 0
}
func (f *fakeRepo) SpoofingAnomalyExistsForIMO(imo string, ids ...int64) bool { return false }
func (f *fakeRepo) CanonicalVesselsSharingIMO() map[string][]int64           { return nil }
func (f *fakeRepo) SaveIMOFraudAnomaly(a models.SpoofingAnomaly, vesselIDs []int64) error {
	return nil
}
func (f *fakeRepo) PendingCandidatesWithSameIMODominant() []models.MergeCandidate { return nil }
func (f *fakeRepo) RecapMergeCandidate(c models.MergeCandidate) error             { return nil }
func (f *fakeRepo) ReassignWatchlist(c, a int64) (int, []map[string]any, error) {
	return 0, nil, nil
}
func (f *fakeRepo) ReassignSTSEvents(c, a int64) (int, []models.StsTransferEvent, error) {
	return 0, nil, nil
}
func (f *fakeRepo) ReassignVesselHistory(c, a int64) (int, error) { return 0, nil }
func (f *fakeRepo) SetOriginalVesselIDIfNull(c, a int64) error    { return nil }
func (f *fakeRepo) ReassignSimpleFKTables(c, a int64) (map[string]int, error) {
	return map[string]int{}, nil
}
func (f *fakeRepo) ReassignAISPointsBatched(c, a int64, batch int) (int, int64, int64, error) {
	return 0, 0, 0, nil
}
func (f *fakeRepo) BackfillCanonicalMetadata(c, a int64) error      { return nil }
func (f *fakeRepo) AppendVesselHistory(e models.VesselHistory) error { return nil }
func (f *fakeRepo) SetMergedInto(absorbed, canonical int64) error   { return nil }
func (f *fakeRepo) ClearMergedInto(id int64) error                  { return nil }
func (f *fakeRepo) AutoRejectPendingCandidatesReferencing(id int64) (int, error) {
	return 0, nil
}
func (f *fakeRepo) PersistMergeOperation(op models.MergeOperation) (int64, error) { return 1, nil }
func (f *fakeRepo) AppendAuditLog(e models.AuditLogEntry) error                   { return nil }
func (f *fakeRepo) RescoreGapEventsForVessel(id int64) error                      { return nil }
func (f *fakeRepo) MergeOperationByID(id int64) (models.MergeOperation, bool) {
	return models.MergeOperation{}, false
}
func (f *fakeRepo) ReactivateVessel(id int64) error                       { return nil }
func (f *fakeRepo) RestoreSnapshottedRows(op models.MergeOperation) error { return nil }
func (f *fakeRepo) RemoveVesselHistoryEntry(id int64, field string) error { return nil }
func (f *fakeRepo) ClearEvidenceCardProvenance(id int64) error           { return nil }
func (f *fakeRepo) MarkMergeOperationReversed(id int64) error            { return nil }

// fusion.Repository
func (f *fakeRepo) MergeCandidatesAbove(minConfidence int) []models.MergeCandidate { return nil }
func (f *fakeRepo) ScrappedIMO(vesselID int64) bool                               { return false }
func (f *fakeRepo) ExistingMergeChain(vesselIDs []int64) bool                     { return false }
func (f *fakeRepo) SaveMergeChain(chain models.MergeChain) error                  { return nil }
func (f *fakeRepo) STSEventsSince(since time.Time) []models.StsTransferEvent      { return nil }
func (f *fakeRepo) ExistingFleetAlert(kind string, vesselIDs []int64) bool        { return false }
func (f *fakeRepo) SaveFleetAlert(alert models.FleetAlert) error                  { return nil }
func (f *fakeRepo) AISPointsSince(vesselID int64, since time.Time) []models.AISPoint {
	return nil
}
func (f *fakeRepo) CanonicalVesselIDs() []int64 {
	ids := make([]int64, len(f.vessels))
	for i, v := range f.vessels {
		ids[i] = v.ID
	}
	return ids
}
func (f *fakeRepo) ExistingConvoyEvent(v1, v2 int64, start, end time.Time) bool { return false }
func (f *fakeRepo) SaveConvoyEvent(event models.ConvoyEvent) error              { return nil }
func (f *fakeRepo) LoiteringEventsFor(vesselID int64) []models.LoiteringEvent   { return nil }
func (f *fakeRepo) STSEventsFor(vesselID int64) []models.StsTransferEvent       { return nil }
func (f *fakeRepo) FingerprintFor(vesselID int64) (models.FingerprintVector, bool) {
	return models.FingerprintVector{}, false
}
func (f *fakeRepo) SaveFingerprint(fp models.FingerprintVector) error      { return nil }
func (f *fakeRepo) FingerprintCandidates(vesselID int64, limit int) []int64 { return nil }
func (f *fakeRepo) PortCallsFor(vesselID int64) []models.PortCall           { return nil }
func (f *fakeRepo) SaveVoyageTemplate(t models.VoyageTemplate) error        { return nil }
func (f *fakeRepo) VoyageTemplates() []models.VoyageTemplate                { return nil }
func (f *fakeRepo) PortByID(id int64) (models.Port, bool)                  { return models.Port{}, false }
func (f *fakeRepo) CorridorTypeByID(id int64) (models.CorridorType, bool) {
	return "", false
}
func (f *fakeRepo) MaxDraughtFor(vesselType string, dwt float64) (float64, bool) {
	return 0, false
}
func (f *fakeRepo) WeatherAt(lat, lon float64, at time.Time) (float64, bool) { return 0, false }
func (f *fakeRepo) PICoverageChangeCountSince(vesselID int64, since time.Time) int {
	return 0
}
func (f *fakeRepo) AveragePointsPerDay(vesselID int64, window time.Duration) float64 {
	return 0
}

// loitering.Repository
func (f *fakeRepo) ExistingLoiteringEvent(vesselID int64, start, end time.Time) bool {
	return false
}
func (f *fakeRepo) SaveLoiteringEvent(event models.LoiteringEvent) error { return nil }
func (f *fakeRepo) GapEndingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	return models.GapEvent{}, false
}
func (f *fakeRepo) GapStartingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	return models.GapEvent{}, false
}

// scoring.RescoreRepository (embeds scoring.Repository)
func (f *fakeRepo) GapCountSince(vesselID int64, since time.Time) int { return 0 }
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
func (f *fakeRepo) MergeChainLength(vesselID int64) int      { return 1 }
func (f *fakeRepo) ScrappedIMOInChain(vesselID int64) bool   { return false }
func (f *fakeRepo) STSEventsOverlapping(vesselID int64, start, end time.Time, window time.Duration) []models.StsTransferEvent {
	return nil
}
func (f *fakeRepo) LoiteringNear(gap models.GapEvent) (models.LoiteringEvent, bool) {
	return models.LoiteringEvent{}, false
}
func (f *fakeRepo) AllPointsClassA(vesselID int64, since time.Time) bool { return false }
func (f *fakeRepo) EUPortCallCount(vesselID int64, since time.Time) int  { return 0 }
func (f *fakeRepo) AnomaliesForGap(gapID int64) []models.SpoofingAnomaly { return nil }

func (f *fakeRepo) ClearDerivedDetections() error { return nil }
func (f *fakeRepo) AllGapsWithVessels() ([]scoring.GapVesselPair, error) {
	return nil, nil
}
func (f *fakeRepo) PersistGapScore(gapID int64, score int, breakdown models.ScoreBreakdown) error {
	return nil
}

func TestRunRejectsConcurrentInvocation(t *testing.T) {
	r := &Runner{running: true}
	repo := &fakeRepo{}
	cfg := config.DefaultScoringConfig()
	_, err := r.Run(repo, &corridor.Index{}, cfg, Flags{}, time.Now().UTC())
	if err == nil {
		t.Fatal("expected an error when a run is already in progress")
	}
}

func TestRunEmptyFleetProducesZeroReport(t *testing.T) {
	r := &Runner{}
	repo := &fakeRepo{}
	cfg := config.DefaultScoringConfig()

	report, err := r.Run(repo, &corridor.Index{}, cfg, AllEnabled(), time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Gaps.GapsCreated != 0 || report.AutoMerged != 0 {
		t.Fatalf("expected a zero-valued report for an empty fleet, got %+v", report)
	}
}

func TestRunDetectsGapOnSingleVessel(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	v := models.Vessel{ID: 1, VesselType: "tanker", DeadweightTons: 100000}
	points := []models.AISPoint{
		{ID: 1, VesselID: 1, TimestampUTC: now.Add(-48 * time.Hour), Lat: 10, Lon: 20, SOG: 12},
		{ID: 2, VesselID: 1, TimestampUTC: now.Add(-24 * time.Hour), Lat: 10.5, Lon: 20.5, SOG: 12},
	}
	repo := &fakeRepo{
		vessels: []models.Vessel{v},
		points:  map[int64][]models.AISPoint{1: points},
	}
	cfg := config.DefaultScoringConfig()

	flags := Flags{GapDetection: true}
	r := &Runner{}
	report, err := r.Run(repo, &corridor.Index{}, cfg, flags, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Gaps.GapsCreated == 0 {
		t.Fatalf("expected a gap event across a 24h silence, got %+v", report.Gaps)
	}
	if len(repo.savedGaps) != report.Gaps.GapsCreated {
		t.Fatalf("expected every created gap to be persisted, got %d saved vs %d created", len(repo.savedGaps), report.Gaps.GapsCreated)
	}
}

func TestRunAgainAfterCompletionSucceeds(t *testing.T) {
	r := &Runner{}
	repo := &fakeRepo{}
	cfg := config.DefaultScoringConfig()

	if _, err := r.Run(repo, &corridor.Index{}, cfg, Flags{}, time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error on first run: %v", err)
	}
	if _, err := r.Run(repo, &corridor.Index{}, cfg, Flags{}, time.Now().UTC()); err != nil {
		t.Fatalf("expected the run lock to release after completion: %v", err)
	}
}
