// Package geo provides stateless geodesy helpers: haversine distance,
// initial bearing, and WKT geometry parsing. No example repo in the
// retrieval pack ships a geodesy/WKT library, so this package is built
// directly on math (see DESIGN.md).
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusNM is the mean Earth radius in nautical miles, as specified.
const EarthRadiusNM = 3440.065

// HaversineNM returns the great-circle distance between two points in
// nautical miles.
func HaversineNM(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, EarthRadiusNM)
}

// HaversineMeters returns the great-circle distance between two points
// in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMeters = 6371008.8
	return haversine(lat1, lon1, lat2, lon2, earthRadiusMeters)
}

func haversine(lat1, lon1, lat2, lon2, radius float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
	math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

// InitialBearingDeg computes the initial great-circle bearing from point
// 1 to point 2, normalized to [0, 360).
func InitialBearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLambda := toRadians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x)
	deg := toDegrees(theta)
	return math.Mod(deg+360, 360)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

// Contains reports whether (lat, lon) falls within the bbox, expanded by
// tolerance degrees on every side (corridor correlator uses 0.05°).
func (b BBox) Contains(lat, lon, toleranceDeg float64) bool {
	return lat >= b.MinLat-toleranceDeg && lat <= b.MaxLat+toleranceDeg &&
	lon >= b.MinLon-toleranceDeg && lon <= b.MaxLon+toleranceDeg
}

// ParseWKTPolygon extracts a bounding box from a WKT POLYGON((...)) string
// via numeric-pair parsing. It does not build exact polygon geometry —
// only requires bbox-based point-in-corridor lookup.
func ParseWKTPolygon(wkt string) (BBox, error) {
	pairs, err := parseCoordPairs(wkt)
	if err != nil {
		return BBox{}, err
	}
	if len(pairs) == 0 {
		return BBox{}, fmt.Errorf("geo: no coordinate pairs found in WKT polygon")
	}
	box := BBox{MinLat: math.MaxFloat64, MaxLat: -math.MaxFloat64, MinLon: math.MaxFloat64, MaxLon: -math.MaxFloat64}
	for _, p := range pairs {
		lon, lat := p[0], p[1]
		if lat < box.MinLat {
			box.MinLat = lat
		}
		if lat > box.MaxLat {
			box.MaxLat = lat
		}
		if lon < box.MinLon {
			box.MinLon = lon
		}
		if lon > box.MaxLon {
			box.MaxLon = lon
		}
	}
	return box, nil
}

// ParseWKTPoint extracts (lat, lon) from a WKT POINT(lon lat) string.
func ParseWKTPoint(wkt string) (lat, lon float64, err error) {
	pairs, err := parseCoordPairs(wkt)
	if err != nil {
		return 0, 0, err
	}
	if len(pairs) != 1 {
		return 0, 0, fmt.Errorf("geo: expected exactly one coordinate pair in WKT point, got %d", len(pairs))
	}
	return pairs[0][1], pairs[0][0], nil
}

// ParseWKTPolygonCoords extracts the full ordered ring of (lon, lat)
// pairs from a WKT POLYGON((...)) string, for GeoJSON export — unlike
// ParseWKTPolygon, which collapses the ring to a bounding box.
func ParseWKTPolygonCoords(wkt string) ([][2]float64, error) {
	return parseCoordPairs(wkt)
}

// parseCoordPairs scans every "lon lat" numeric pair out of a WKT string,
// ignoring the surrounding keyword/parens structure.
func parseCoordPairs(wkt string) ([][2]float64, error) {
	start := strings.IndexByte(wkt, '(')
	end := strings.LastIndexByte(wkt, ')')
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("geo: malformed WKT: %q", wkt)
	}
	body := wkt[start+1 : end]
	body = strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(body)
	fields := strings.Fields(body)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("geo: odd number of numeric tokens in WKT: %q", wkt)
	}
	pairs := make([][2]float64, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		lon, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: invalid longitude token %q: %w", fields[i], err)
		}
		lat, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("geo: invalid latitude token %q: %w", fields[i+1], err)
		}
		pairs = append(pairs, [2]float64{lon, lat})
	}
	return pairs, nil
}
