// Package corridor builds an in-memory, read-only corridor/port index at
// startup and answers point-in-bbox lookups. Grounded on the earlier design's
// "build once, query many" in-memory map style (investigation.go's
// InvestigationManager.cases), adapted here to parallel slices since the
// access pattern is scan-all, not keyed lookup.
package corridor

import (
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// toleranceDeg is the bbox expansion applied to every corridor lookup.
const toleranceDeg = 0.05

type entry struct {
	corridor models.Corridor
	bbox geo.BBox
}

// Index is a read-only, built-once lookup of corridors and ports by
// position. Safe for concurrent reads once built (no detector mutates it
//).
type Index struct {
	stsZones []entry
	exportRoutes []entry
	others []entry
	darkZones []entry
	allOrdered []entry // STS zones first.C preference order
	ports []models.Port
	portBoxes []geo.BBox
}

// Build constructs the index from raw corridor and port rows, parsing
// each corridor's WKT polygon into a bbox once.
func Build(corridors []models.Corridor, ports []models.Port) (*Index, error) {
	idx := &Index{ports: ports}
	for _, c := range corridors {
		box, err := geo.ParseWKTPolygon(c.Geometry)
		if err != nil {
			// A malformed corridor geometry is an InputError:
			// skip it rather than abort the whole index build.
			continue
		}
		e := entry{corridor: c, bbox: box}
		switch c.CorridorType {
		case models.CorridorSTSZone:
			idx.stsZones = append(idx.stsZones, e)
		case models.CorridorExportRoute:
			idx.exportRoutes = append(idx.exportRoutes, e)
		default:
			idx.others = append(idx.others, e)
		}
		if c.IsJammingZone {
			idx.darkZones = append(idx.darkZones, e)
		}
	}
	// STS zones queried before export routes before everything else.
	idx.allOrdered = append(idx.allOrdered, idx.stsZones...)
	idx.allOrdered = append(idx.allOrdered, idx.exportRoutes...)
	idx.allOrdered = append(idx.allOrdered, idx.others...)

	for _, p := range ports {
		lat, lon, err := geo.ParseWKTPoint(p.Geometry)
		if err != nil {
			idx.portBoxes = append(idx.portBoxes, geo.BBox{})
			continue
		}
		idx.portBoxes = append(idx.portBoxes, geo.BBox{MinLat: lat, MaxLat: lat, MinLon: lon, MaxLon: lon})
	}
	return idx, nil
}

// FindCorridorForPoint returns the first corridor (in STS-zone-first
// preference order) whose bbox contains the point, or nil.
func (idx *Index) FindCorridorForPoint(lat, lon float64) *models.Corridor {
	for _, e := range idx.allOrdered {
		if e.bbox.Contains(lat, lon, toleranceDeg) {
			c := e.corridor
			return &c
		}
	}
	return nil
}

// FindDarkZoneForPoint returns the first jamming-tagged corridor
// containing the point, or nil.
func (idx *Index) FindDarkZoneForPoint(lat, lon float64) *models.Corridor {
	for _, e := range idx.darkZones {
		if e.bbox.Contains(lat, lon, toleranceDeg) {
			c := e.corridor
			return &c
		}
	}
	return nil
}

// NearestMajorPortWithinNM reports whether any major port lies within
// nm nautical miles of (lat, lon). Used by the anchor-spoof,
// circle-spoof, slow-roll and visible-STS "not near a major port" gates.
func (idx *Index) NearestMajorPortWithinNM(lat, lon float64, nm float64) bool {
	for i, p := range idx.ports {
		if !p.MajorPort {
			continue
		}
		box := idx.portBoxes[i]
		plat, plon := box.MinLat, box.MinLon
		if geo.HaversineNM(lat, lon, plat, plon) <= nm {
			return true
		}
	}
	return false
}

// NearestRussianTerminalWithinNM reports whether any Russian oil
// terminal lies within nm nautical miles of (lat, lon) (used by
// the russian_port_call signal).
func (idx *Index) NearestRussianTerminalWithinNM(lat, lon float64, nm float64) bool {
	for i, p := range idx.ports {
		if !p.IsRussianOilTerminal {
			continue
		}
		box := idx.portBoxes[i]
		if geo.HaversineNM(lat, lon, box.MinLat, box.MinLon) <= nm {
			return true
		}
	}
	return false
}

// IsWithinAnchorageHolding reports whether (lat, lon) falls within any
// anchorage_holding corridor.
func (idx *Index) IsWithinAnchorageHolding(lat, lon float64) bool {
	for _, e := range idx.others {
		if e.corridor.CorridorType == models.CorridorAnchorageHolding && e.bbox.Contains(lat, lon, toleranceDeg) {
			return true
		}
	}
	return false
}

// CorridorFactor returns the corridor risk multiplier m_c used by the
// scorer. cfg supplies config-driven overrides;
// nil cfg uses the documented defaults.
func CorridorFactor(t models.CorridorType, cfg map[models.CorridorType]float64) float64 {
	if cfg != nil {
		if v, ok := cfg[t]; ok {
			return v
		}
	}
	switch t {
	case models.CorridorSTSZone, models.CorridorExportRoute:
		return 1.5
	case models.CorridorLegitimateTradeRoute:
		return 0.7
	default:
		return 1.0
	}
}
