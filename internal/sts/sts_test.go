package sts

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

type fakeRepo struct{ overlap bool }

func (f fakeRepo) ExistingEventOverlapping(v1, v2 int64, start, end time.Time) bool {
	return f.overlap
}

func TestDetectVisibleVisibleEmitsOnLongEnoughRun(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var pts1, pts2 []models.AISPoint
	for i := 0; i < 9; i++ {
		ts := base.Add(time.Duration(i) * 15 * time.Minute)
		pts1 = append(pts1, models.AISPoint{VesselID: 1, TimestampUTC: ts, Lat: 10.0, Lon: 20.0, SOG: 0.2, Heading: 90})
		pts2 = append(pts2, models.AISPoint{VesselID: 2, TimestampUTC: ts, Lat: 10.0001, Lon: 20.0001, SOG: 0.2, Heading: 90})
	}
	points := map[int64][]models.AISPoint{1: pts1, 2: pts2}

	events, res := DetectVisibleVisible(points, nil, fakeRepo{overlap: false})
	if res.VisibleVisibleCreated != 1 {
		t.Fatalf("expected 1 event created, got %d (res=%+v)", len(events), res)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].DetectionType != models.STSVisibleVisible {
		t.Fatalf("unexpected detection type: %s", events[0].DetectionType)
	}
	if events[0].RiskScoreComponent != 25 {
		t.Fatalf("expected base score 25 with no corridor index, got %d", events[0].RiskScoreComponent)
	}
}

func TestDetectVisibleVisibleSkipsShortRun(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var pts1, pts2 []models.AISPoint
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * 15 * time.Minute)
		pts1 = append(pts1, models.AISPoint{VesselID: 1, TimestampUTC: ts, Lat: 10.0, Lon: 20.0, SOG: 0.2, Heading: 90})
		pts2 = append(pts2, models.AISPoint{VesselID: 2, TimestampUTC: ts, Lat: 10.0001, Lon: 20.0001, SOG: 0.2, Heading: 90})
	}
	points := map[int64][]models.AISPoint{1: pts1, 2: pts2}

	_, res := DetectVisibleVisible(points, nil, fakeRepo{overlap: false})
	if res.VisibleVisibleCreated != 0 {
		t.Fatalf("expected no events for a 3-window run, got %d", res.VisibleVisibleCreated)
	}
}

func TestDetectApproachingComputesETA(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stationary := models.AISPoint{Lat: 10.0, Lon: 20.0, SOG: 0.1, TimestampUTC: now}
	moving := models.AISPoint{Lat: 10.0, Lon: 20.1, SOG: 2.0, COG: 270, TimestampUTC: now}
	latest := map[int64]models.AISPoint{100: stationary, 200: moving}

	events, res := DetectApproaching(latest, nil, fakeRepo{overlap: false})
	if res.ApproachingCreated != 1 || len(events) != 1 {
		t.Fatalf("expected one approaching event, got %+v", res)
	}
	if events[0].ETAMinutes == nil || *events[0].ETAMinutes >= maxETAMinutes {
		t.Fatalf("expected eta under threshold, got %+v", events[0].ETAMinutes)
	}
}

func TestApplyDarkPartnerBonus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(1 * time.Hour)
	events := []models.StsTransferEvent{
		{Vessel1ID: 1, Vessel2ID: 2, StartTimeUTC: start, EndTimeUTC: end, RiskScoreComponent: 25},
	}
	gapsByVessel := map[int64][]models.GapEvent{
		1: {{VesselID: 1, GapStartUTC: start.Add(-30 * time.Minute), GapEndUTC: start.Add(30 * time.Minute)}},
	}

	out := ApplyDarkPartnerBonus(events, gapsByVessel)
	if out[0].RiskScoreComponent != 40 {
		t.Fatalf("expected bonus applied (25+15=40), got %d", out[0].RiskScoreComponent)
	}
}

func TestApplyDarkPartnerBonusNoOverlapNoChange(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(1 * time.Hour)
	events := []models.StsTransferEvent{
		{Vessel1ID: 1, Vessel2ID: 2, StartTimeUTC: start, EndTimeUTC: end, RiskScoreComponent: 25},
	}
	gapsByVessel := map[int64][]models.GapEvent{
		1: {{VesselID: 1, GapStartUTC: start.Add(-10 * time.Hour), GapEndUTC: start.Add(-9 * time.Hour)}},
	}

	out := ApplyDarkPartnerBonus(events, gapsByVessel)
	if out[0].RiskScoreComponent != 25 {
		t.Fatalf("expected no bonus, got %d", out[0].RiskScoreComponent)
	}
}
