package external

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// AISCSVLoader parses the offline AIS point stream's CSV format. Columns
// are matched case-insensitively; unknown columns are ignored.
type AISCSVLoader struct{}

var _ AISPointSource = AISCSVLoader{}

// LoadAISPoints implements AISPointSource.
func (AISCSVLoader) LoadAISPoints(r ReaderLike) ([]AISPointRecord, IngestStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, IngestStats{}, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var stats IngestStats
	var points []AISPointRecord
	seen := make(map[string]bool)

	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		stats.RowsSeen++

		mmsi := field(row, col, "vessel_mmsi", "mmsi")
		if mmsi == "" || !isValidMMSI(mmsi) {
			stats.RejectedNoMMSI++
			continue
		}

		tsRaw := field(row, col, "timestamp", "timestamp_utc")
		ts, ok := parseAISTimestamp(tsRaw)
		if !ok {
			stats.RejectedBadLatLon++
			continue
		}

		lat, latOK := parseFloatField(row, col, "lat")
		lon, lonOK := parseFloatField(row, col, "lon")
		if !latOK || !lonOK || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			stats.RejectedBadLatLon++
			continue
		}

		dedupKey := mmsi + "|" + ts.UTC().Format(time.RFC3339Nano)
		if seen[dedupKey] {
			stats.SkippedDuplicate++
			continue
		}
		seen[dedupKey] = true

		sog, _ := parseFloatField(row, col, "sog")
		cog, _ := parseFloatField(row, col, "cog")
		heading, _ := parseFloatField(row, col, "heading")
		draught, _ := parseFloatField(row, col, "draught")
		navStatus, _ := strconv.Atoi(field(row, col, "nav_status"))

		class := models.AISClassUnknown
		switch strings.ToUpper(field(row, col, "ais_class")) {
		case "A":
			class = models.AISClassA
		case "B":
			class = models.AISClassB
		}

		points = append(points, AISPointRecord{
			MMSI: mmsi,
			Point: models.AISPoint{
				TimestampUTC: ts.UTC(),
				Lat:          lat,
				Lon:          lon,
				SOG:          sog,
				COG:          cog,
				Heading:      heading,
				Draught:      draught,
				NavStatus:    navStatus,
				AISClass:     class,
			},
		})
		stats.Accepted++
	}

	return points, stats, nil
}

func field(row []string, col map[string]int, names ...string) string {
	for _, n := range names {
		if i, ok := col[n]; ok && i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

func parseFloatField(row []string, col map[string]int, name string) (float64, bool) {
	raw := field(row, col, name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

// parseAISTimestamp accepts either ISO-8601 UTC or an epoch number (as
// seconds or milliseconds, distinguished by magnitude).
func parseAISTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if epoch > 1_000_000_000_000 {
			return time.Unix(0, epoch*int64(time.Millisecond)), true
		}
		return time.Unix(epoch, 0), true
	}
	return time.Time{}, false
}
