package external

import (
	"encoding/csv"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// KSELoader parses the Kyiv School of Economics shadow-fleet tracker
// export. Column names vary by export, so several candidates are tried
// for each field.
type KSELoader struct{}

var _ WatchlistSource = KSELoader{}

var (
	kseNameFields = []string{"vessel_name", "name", "ship_name", "vessel name"}
	kseFlagFields = []string{"flag", "flag_state"}
	kseIMOFields  = []string{"imo", "imo_number"}
	kseMMSIFields = []string{"mmsi"}
)

// LoadWatchlist implements WatchlistSource.
func (KSELoader) LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
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

		name := field(row, idx, kseNameFields...)
		flag := field(row, idx, kseFlagFields...)
		imo := field(row, idx, kseIMOFields...)
		mmsi := field(row, idx, kseMMSIFields...)

		match, ok := ResolveVessel(resolver, mmsi, imo, name, flag)
		if !ok {
			stats.Unmatched++
			continue
		}

		out = append(out, models.WatchlistMatch{
			VesselID:        match.Vessel.ID,
			Source:          "kse_institute",
			MatchConfidence: match.Confidence,
			MatchedName:     name,
			MatchedOn:       match.MatchedOn,
			ListedAt:        time.Now().UTC(),
		})
		stats.Matched++
	}
	return out, stats, nil
}
