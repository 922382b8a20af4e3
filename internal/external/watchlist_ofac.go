package external

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// ofacSDNFieldnames is the column order of the official headerless
// sdn.csv export; used when no recognizable header row is present.
var ofacSDNFieldnames = []string{
	"ent_num", "SDN_NAME", "SDN_TYPE", "Program", "Title",
	"Call_Sign", "Vess_type", "Tonnage", "GRT", "Vess_flag",
	"Vess_owner", "REMARKS",
}

// OFACSDNLoader parses the US Treasury OFAC Specially Designated
// Nationals vessel list, in either the headerless official export or a
// header-bearing derivative.
type OFACSDNLoader struct{}

var _ WatchlistSource = OFACSDNLoader{}

// LoadWatchlist implements WatchlistSource. Only rows with
// SDN_TYPE == "Vessel" are considered; MMSI comes from VESSEL_ID, IMO
// from ent_num or ALT_NUM, with a fuzzy name fallback.
func (OFACSDNLoader) LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
	buf := bufio.NewReader(r)
	firstLine, _ := buf.Peek(4096)

	var reader *csv.Reader
	if bytes.Contains(firstLine, []byte("SDN_TYPE")) || bytes.Contains(firstLine, []byte("ent_num")) {
		reader = csv.NewReader(buf)
		reader.FieldsPerRecord = -1
		header, err := reader.Read()
		if err != nil {
			return nil, WatchlistStats{}, err
		}
		return loadOFACRows(reader, headerIndex(header), resolver)
	}

	reader = csv.NewReader(buf)
	reader.FieldsPerRecord = -1
	idx := make(map[string]int, len(ofacSDNFieldnames))
	for i, n := range ofacSDNFieldnames {
		idx[strings.ToLower(n)] = i
	}
	return loadOFACRows(reader, idx, resolver)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func loadOFACRows(reader *csv.Reader, idx map[string]int, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
	var stats WatchlistStats
	var out []models.WatchlistMatch

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		sdnType := field(row, idx, "sdn_type")
		if sdnType != "Vessel" {
			stats.Skipped++
			continue
		}

		name := field(row, idx, "sdn_name", "name")
		mmsi := field(row, idx, "vessel_id")
		imo := field(row, idx, "ent_num", "alt_num")

		match, ok := ResolveVessel(resolver, mmsi, imo, name, "")
		if !ok {
			stats.Unmatched++
			continue
		}

		out = append(out, models.WatchlistMatch{
			VesselID:        match.Vessel.ID,
			Source:          "ofac_sdn",
			MatchConfidence: match.Confidence,
			MatchedName:     name,
			MatchedOn:       match.MatchedOn,
			ListedAt:        time.Now().UTC(),
		})
		stats.Matched++
	}
	return out, stats, nil
}
