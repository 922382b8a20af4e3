package external

import (
	"strings"
	"testing"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func TestGFWJSONLoaderEncounterOrdersVesselPair(t *testing.T) {
	payload := `{"events": [
		{"id": "e1", "type": "encounter", "start": "2025-06-01T00:00:00Z", "end": "2025-06-01T04:00:00Z",
		 "lat": 55.0, "lon": 20.0, "vessel": {"ssvid": "228357600"},
		 "encounter": {"vessel_ssvid": "273456789"}}
	]}`
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{
		"228357600": {ID: 10, Name: "A"},
		"273456789": {ID: 2, Name: "B"},
	}}

	result, err := GFWJSONLoader{}.LoadGFWEvents(strings.NewReader(payload), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.STSEvents) != 1 {
		t.Fatalf("expected 1 STS event, got %d", len(result.STSEvents))
	}
	ev := result.STSEvents[0]
	if ev.Vessel1ID != 2 || ev.Vessel2ID != 10 {
		t.Fatalf("expected vessel1 < vessel2 ordering, got %d/%d", ev.Vessel1ID, ev.Vessel2ID)
	}
	if ev.DetectionType != models.STSGFWEncounter {
		t.Fatalf("expected gfw_encounter detection type, got %q", ev.DetectionType)
	}
}

func TestGFWJSONLoaderGapProducesReportedGap(t *testing.T) {
	payload := `{"events": [
		{"id": "e2", "type": "gap", "start": "2025-06-01T00:00:00Z", "end": "2025-06-02T00:00:00Z",
		 "lat": 55.0, "lon": 20.0, "vessel": {"ssvid": "228357600"},
		 "gap": {"offPosition": true, "onPosition": true, "durationHours": 24, "distanceKm": 150, "impliedSpeedKnots": 3.3}}
	]}`
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 10, Name: "A"}}}

	result, err := GFWJSONLoader{}.LoadGFWEvents(strings.NewReader(payload), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ReportedGaps) != 1 {
		t.Fatalf("expected 1 reported gap, got %d", len(result.ReportedGaps))
	}
	g := result.ReportedGaps[0]
	if g.VesselID != 10 || g.DurationHours != 24 {
		t.Fatalf("unexpected reported gap: %+v", g)
	}
}

func TestGFWJSONLoaderCountsUnresolvedVessels(t *testing.T) {
	payload := `{"events": [
		{"id": "e3", "type": "gap", "start": "2025-06-01T00:00:00Z", "end": "2025-06-02T00:00:00Z",
		 "vessel": {"ssvid": "000000000"}, "gap": {"durationHours": 10}}
	]}`
	resolver := &stubResolver{}

	result, err := GFWJSONLoader{}.LoadGFWEvents(strings.NewReader(payload), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VesselsUnresolved != 1 || result.EventsSeen != 1 {
		t.Fatalf("expected 1 unresolved vessel out of 1 event seen, got %+v", result)
	}
}
