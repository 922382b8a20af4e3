package geo

import "testing"

func TestHaversineSymmetry(t *testing.T) {
	a := HaversineNM(36.5, 22.5, 55.0, 20.0)
	b := HaversineNM(55.0, 20.0, 36.5, 22.5)
	if diff := a - b; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("haversine not symmetric: %v vs %v", a, b)
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	d := HaversineNM(36.5, 22.5, 36.5, 22.5)
	if d != 0 {
		t.Errorf("expected 0 distance for identical points, got %v", d)
	}
}

func TestParseWKTPolygonBBox(t *testing.T) {
	box, err := ParseWKTPolygon("POLYGON((22.0 36.0, 23.0 36.0, 23.0 37.0, 22.0 37.0, 22.0 36.0))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.MinLat != 36.0 || box.MaxLat != 37.0 || box.MinLon != 22.0 || box.MaxLon != 23.0 {
		t.Errorf("unexpected bbox: %+v", box)
	}
}

func TestParseWKTPoint(t *testing.T) {
	lat, lon, err := ParseWKTPoint("POINT(20.0 55.0)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lat != 55.0 || lon != 20.0 {
		t.Errorf("expected (55.0, 20.0), got (%v, %v)", lat, lon)
	}
}

func TestBBoxContainsWithTolerance(t *testing.T) {
	box := BBox{MinLat: 36.0, MaxLat: 37.0, MinLon: 22.0, MaxLon: 23.0}
	if box.Contains(37.03, 22.5, 0.05) == false {
		t.Errorf("expected point just outside bbox to be within tolerance")
	}
	if box.Contains(37.10, 22.5, 0.05) {
		t.Errorf("expected point well outside bbox+tolerance to be excluded")
	}
}
