package loitering

import (
	"testing"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

type fakeRepo struct {
	existing bool
}

func (f *fakeRepo) ExistingLoiteringEvent(vesselID int64, start, end time.Time) bool { return f.existing }
func (f *fakeRepo) SaveLoiteringEvent(event models.LoiteringEvent) error             { return nil }
func (f *fakeRepo) GapEndingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	return models.GapEvent{}, false
}
func (f *fakeRepo) GapStartingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	return models.GapEvent{}, false
}

func TestDetectLoiteringEmitsOnSustainedLowSpeedRun(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []models.AISPoint
	for i := 0; i < 12; i++ {
		points = append(points, models.AISPoint{
			TimestampUTC: base.Add(time.Duration(i) * 15 * time.Minute),
			SOG:          1.2,
			Lat:          10,
			Lon:          20,
		})
	}

	events, res := DetectLoitering(1, points, nil, &fakeRepo{})
	if res.LoiteringEventsFound != 1 {
		t.Fatalf("expected 1 loitering event, got %d", res.LoiteringEventsFound)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 returned event, got %d", len(events))
	}
	if events[0].DurationHours < 2 {
		t.Fatalf("expected a run spanning >= 2h, got %v", events[0].DurationHours)
	}
}

func TestDetectLoiteringSkipsShortRun(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var points []models.AISPoint
	for i := 0; i < 3; i++ {
		points = append(points, models.AISPoint{
			TimestampUTC: base.Add(time.Duration(i) * 15 * time.Minute),
			SOG:          1.0,
		})
	}

	_, res := DetectLoitering(1, points, nil, &fakeRepo{})
	if res.LoiteringEventsFound != 0 {
		t.Fatalf("expected no event from a short run, got %d", res.LoiteringEventsFound)
	}
}

func TestDetectLoiteringBreaksRunOnSpeed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []models.AISPoint{
		{TimestampUTC: base, SOG: 1.0},
		{TimestampUTC: base.Add(30 * time.Minute), SOG: 1.0},
		{TimestampUTC: base.Add(time.Hour), SOG: 12.0}, // breaks the run
		{TimestampUTC: base.Add(90 * time.Minute), SOG: 1.0},
		{TimestampUTC: base.Add(2 * time.Hour), SOG: 1.0},
	}

	_, res := DetectLoitering(1, points, nil, &fakeRepo{})
	if res.LoiteringEventsFound != 0 {
		t.Fatalf("expected neither fragment to reach the 2h minimum, got %d", res.LoiteringEventsFound)
	}
}

func TestClassifyLaidUpTiers(t *testing.T) {
	events := []models.LoiteringEvent{
		{DurationHours: 40 * 24},
	}
	d30, d60, sts := ClassifyLaidUp(events, nil)
	if !d30 || d60 || sts {
		t.Fatalf("expected 40d run to trip the 30d flag only, got 30d=%v 60d=%v sts=%v", d30, d60, sts)
	}

	events = []models.LoiteringEvent{{DurationHours: 70 * 24}}
	d30, d60, _ = ClassifyLaidUp(events, nil)
	if !d30 || !d60 {
		t.Fatalf("expected 70d run to trip both flags, got 30d=%v 60d=%v", d30, d60)
	}
}
