package external

import (
	"strings"
	"testing"
)

func TestAISCSVLoaderParsesValidRows(t *testing.T) {
	csv := "vessel_mmsi,timestamp,lat,lon,sog,ais_class\n" +
		"228357600,2025-01-01T00:00:00Z,54.5,19.9,12.3,A\n" +
		"273456789,1735689600,55.0,20.0,0,B\n"

	points, stats, err := AISCSVLoader{}.LoadAISPoints(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Accepted != 2 || len(points) != 2 {
		t.Fatalf("expected 2 accepted points, got stats=%+v len=%d", stats, len(points))
	}
	if points[0].MMSI != "228357600" {
		t.Fatalf("expected mmsi to round-trip, got %q", points[0].MMSI)
	}
}

func TestAISCSVLoaderRejectsBadRows(t *testing.T) {
	csv := "mmsi,timestamp,lat,lon\n" +
		",2025-01-01T00:00:00Z,54.5,19.9\n" +
		"228357600,2025-01-01T00:00:00Z,200,19.9\n" +
		"228357600,not-a-time,54.5,19.9\n"

	points, stats, err := AISCSVLoader{}.LoadAISPoints(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no accepted points, got %d", len(points))
	}
	if stats.RejectedNoMMSI != 1 {
		t.Fatalf("expected 1 missing-mmsi rejection, got %d", stats.RejectedNoMMSI)
	}
	if stats.RejectedBadLatLon != 2 {
		t.Fatalf("expected 2 bad-lat/lon-or-timestamp rejections, got %d", stats.RejectedBadLatLon)
	}
}

func TestAISCSVLoaderSkipsDuplicates(t *testing.T) {
	csv := "mmsi,timestamp,lat,lon\n" +
		"228357600,2025-01-01T00:00:00Z,54.5,19.9\n" +
		"228357600,2025-01-01T00:00:00Z,54.5,19.9\n"

	points, stats, err := AISCSVLoader{}.LoadAISPoints(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || stats.SkippedDuplicate != 1 {
		t.Fatalf("expected 1 accepted + 1 duplicate skipped, got points=%d stats=%+v", len(points), stats)
	}
}

func TestParseAISTimestampAcceptsEpochSecondsAndMillis(t *testing.T) {
	if _, ok := parseAISTimestamp("1735689600"); !ok {
		t.Fatalf("expected epoch seconds to parse")
	}
	if _, ok := parseAISTimestamp("1735689600000"); !ok {
		t.Fatalf("expected epoch millis to parse")
	}
	if _, ok := parseAISTimestamp("garbage"); ok {
		t.Fatalf("expected garbage to fail to parse")
	}
}
