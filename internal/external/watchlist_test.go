package external

import (
	"strings"
	"testing"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func TestOFACSDNLoaderHeaderedFormat(t *testing.T) {
	csv := "ent_num,SDN_NAME,SDN_TYPE,VESSEL_ID\n" +
		"12345,M/V SHADOW,Vessel,228357600\n" +
		"99999,JOHN DOE,Individual,\n"

	resolver := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 1, Name: "M/V SHADOW"}}}
	matches, stats, err := OFACSDNLoader{}.LoadWatchlist(strings.NewReader(csv), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 || stats.Skipped != 1 {
		t.Fatalf("expected 1 matched vessel row and 1 skipped non-vessel row, got %+v", stats)
	}
	if len(matches) != 1 || matches[0].Source != "ofac_sdn" || matches[0].MatchedOn != "mmsi" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestOFACSDNLoaderHeaderlessFormat(t *testing.T) {
	csv := "12345,M/V SHADOW,Vessel,,,,,,,,,\n"
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{}, byIMO: map[string]models.Vessel{"12345": {ID: 2, Name: "M/V SHADOW"}}}
	matches, stats, err := OFACSDNLoader{}.LoadWatchlist(strings.NewReader(csv), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 || matches[0].MatchedOn != "imo" {
		t.Fatalf("expected headerless row to resolve via ent_num as IMO, got stats=%+v matches=%+v", stats, matches)
	}
}

func TestKSELoaderFlagScopedFuzzyFallback(t *testing.T) {
	csv := "vessel_name,flag,imo,mmsi\n" +
		"KAZAHN,RU,,\n"
	resolver := &stubResolver{all: []models.Vessel{{ID: 3, Name: "KAZAN", Flag: "RU"}}}
	matches, stats, err := KSELoader{}.LoadWatchlist(strings.NewReader(csv), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 || matches[0].Source != "kse_institute" || matches[0].MatchedOn != "fuzzy_name" {
		t.Fatalf("expected a flag-scoped fuzzy match, got stats=%+v matches=%+v", stats, matches)
	}
}

func TestFleetLeaksLoaderHandlesWrappedArrayAndFlexibleScalars(t *testing.T) {
	payload := `{"vessels": [{"name": "EAGLE S", "mmsi": 228357600, "imo": "9074729", "flag": "CK"}]}`
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 4, Name: "EAGLE S"}}}
	matches, stats, err := FleetLeaksLoader{}.LoadWatchlist(strings.NewReader(payload), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 || matches[0].Source != "fleetleaks" {
		t.Fatalf("expected 1 fleetleaks match, got stats=%+v matches=%+v", stats, matches)
	}
}

func TestOpenSanctionsLoaderNDJSONFiltersNonVessel(t *testing.T) {
	ndjson := `{"schema":"Person","properties":{"name":["JOHN DOE"]}}
{"schema":"Vessel","properties":{"name":["M/V SHADOW"],"mmsi":["228357600"]},"datasets":["us_ofac_sdn"]}
`
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 5, Name: "M/V SHADOW"}}}
	matches, stats, err := OpenSanctionsLoader{}.LoadWatchlist(strings.NewReader(ndjson), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 {
		t.Fatalf("expected the Person row to be filtered out, got stats=%+v", stats)
	}
	if matches[0].Source != "ofac_sdn" {
		t.Fatalf("expected a dataset containing 'ofac' to map to ofac_sdn source, got %q", matches[0].Source)
	}
}

func TestOpenSanctionsLoaderJSONArrayFormat(t *testing.T) {
	arr := `[{"schema":"Vessel","caption":"M/V SHADOW","properties":{"mmsi":["228357600"]},"datasets":["eu_sanctions_map"]}]`
	resolver := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 6, Name: "M/V SHADOW"}}}
	matches, stats, err := OpenSanctionsLoader{}.LoadWatchlist(strings.NewReader(arr), resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 1 || matches[0].Source != "eu_council" {
		t.Fatalf("expected 'eu_' dataset to map to eu_council, got stats=%+v matches=%+v", stats, matches)
	}
}
