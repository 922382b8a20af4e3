package external

import (
	"encoding/csv"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// GURLoader parses the Ukraine GUR shadow-fleet intelligence export.
type GURLoader struct{}

var _ WatchlistSource = GURLoader{}

var (
	gurNameFields = []string{"name", "vessel_name", "ship_name"}
	gurMMSIFields = []string{"mmsi"}
	gurIMOFields  = []string{"imo", "imo_number"}
	gurFlagFields = []string{"flag", "flag_state"}
)

// LoadWatchlist implements WatchlistSource.
func (GURLoader) LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, WatchlistStats{}, err
	}
	idx := headerIndex(header)

	var stats WatchlistStats
	var out []models.WatchlistMatch

	for {
		row, err := reader.Read()
		if err != nil {
			break
		}

		name := field(row, idx, gurNameFields...)
		mmsi := field(row, idx, gurMMSIFields...)
		imo := field(row, idx, gurIMOFields...)
		flag := field(row, idx, gurFlagFields...)

		match, ok := ResolveVessel(resolver, mmsi, imo, name, flag)
		if !ok {
			stats.Unmatched++
			continue
		}

		out = append(out, models.WatchlistMatch{
			VesselID:        match.Vessel.ID,
			Source:          "ukraine_gur",
			MatchConfidence: match.Confidence,
			MatchedName:     name,
			MatchedOn:       match.MatchedOn,
			ListedAt:        time.Now().UTC(),
		})
		stats.Matched++
	}
	return out, stats, nil
}
