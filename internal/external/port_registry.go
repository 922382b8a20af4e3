package external

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/shadowfleet/aisforensics/internal/geo"
)

// PortCSVLoader parses the port registry's CSV format: name, country,
// geometry (WKT POINT(lon lat)), major_port, is_russian_oil_terminal,
// is_eu.
type PortCSVLoader struct{}

var _ PortLoader = PortCSVLoader{}

// LoadPorts implements PortLoader.
func (PortCSVLoader) LoadPorts(r ReaderLike) ([]PortRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var out []PortRecord
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}

		wkt := field(row, col, "geometry")
		lat, lon, err := geo.ParseWKTPoint(wkt)
		if err != nil {
			continue
		}

		rec := PortRecord{Lat: lat, Lon: lon}
		rec.Name = field(row, col, "name")
		rec.Country = field(row, col, "country")
		rec.Geometry = wkt
		rec.MajorPort = parseBoolField(row, col, "major_port")
		rec.IsRussianOilTerminal = parseBoolField(row, col, "is_russian_oil_terminal")
		rec.IsEU = parseBoolField(row, col, "is_eu")
		out = append(out, rec)
	}
	return out, nil
}

func parseBoolField(row []string, col map[string]int, name string) bool {
	b, _ := strconv.ParseBool(field(row, col, name))
	return b
}
