package external

import (
	"testing"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

type stubResolver struct {
	byMMSI map[string]models.Vessel
	byIMO  map[string]models.Vessel
	all    []models.Vessel
}

func (r *stubResolver) VesselByMMSI(mmsi string) (models.Vessel, bool) {
	v, ok := r.byMMSI[mmsi]
	return v, ok
}

func (r *stubResolver) VesselByIMO(imo string) (models.Vessel, bool) {
	v, ok := r.byIMO[imo]
	return v, ok
}

func (r *stubResolver) VesselsByFlag(flag string) []models.Vessel {
	var out []models.Vessel
	for _, v := range r.all {
		if v.Flag == flag {
			out = append(out, v)
		}
	}
	return out
}

func (r *stubResolver) AllNamedVessels() []models.Vessel {
	var out []models.Vessel
	for _, v := range r.all {
		if v.Name != "" {
			out = append(out, v)
		}
	}
	return out
}

func TestResolveVesselExactMMSI(t *testing.T) {
	r := &stubResolver{byMMSI: map[string]models.Vessel{"228357600": {ID: 1, Name: "EAGLE S"}}}
	m, ok := ResolveVessel(r, "228357600", "", "", "")
	if !ok || m.MatchedOn != "mmsi" || m.Confidence != 100 {
		t.Fatalf("expected exact mmsi match, got %+v ok=%v", m, ok)
	}
}

func TestResolveVesselExactIMO(t *testing.T) {
	r := &stubResolver{byIMO: map[string]models.Vessel{"9074729": {ID: 2, Name: "BORACAY"}}}
	m, ok := ResolveVessel(r, "", "9074729", "", "")
	if !ok || m.MatchedOn != "imo" {
		t.Fatalf("expected exact imo match, got %+v ok=%v", m, ok)
	}
}

func TestFuzzyMatchVesselNameOnlyRequiresHighConfidence(t *testing.T) {
	r := &stubResolver{all: []models.Vessel{{ID: 3, Name: "OCEAN STAR"}}}
	if _, ok := FuzzyMatchVessel(r, "OCEAN STARR", ""); !ok {
		t.Fatalf("expected a near-identical name to clear the 92%% name-only floor")
	}
	if _, ok := FuzzyMatchVessel(r, "PACIFIC DAWN", ""); ok {
		t.Fatalf("expected an unrelated name to miss the match")
	}
}

func TestFuzzyMatchVesselFlagNarrowedLowerFloor(t *testing.T) {
	r := &stubResolver{all: []models.Vessel{{ID: 4, Name: "KAZAN", Flag: "RU"}}}
	m, ok := FuzzyMatchVessel(r, "KAZAHN", "RU")
	if !ok || m.Vessel.ID != 4 {
		t.Fatalf("expected flag-scoped fuzzy match to succeed, got %+v ok=%v", m, ok)
	}
}

func TestNormalizeNameStripsAccentsAndPunctuation(t *testing.T) {
	got := normalizeName("Göteborg Maru.")
	want := "GOTEBORG MARU"
	if got != want {
		t.Fatalf("normalizeName() = %q, want %q", got, want)
	}
}

func TestIsValidMMSI(t *testing.T) {
	cases := map[string]bool{
		"228357600": true,
		"22835760":  false,
		"2283576001": false,
		"abcdefghi": false,
		"":          false,
	}
	for in, want := range cases {
		if got := isValidMMSI(in); got != want {
			t.Errorf("isValidMMSI(%q) = %v, want %v", in, got, want)
		}
	}
}
