package external

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// FleetLeaksLoader parses the fleetleaks.com sanctioned-vessel database
// export: a JSON array of objects, or one wrapped under a "vessels" or
// "data" key.
type FleetLeaksLoader struct{}

var _ WatchlistSource = FleetLeaksLoader{}

// flexScalar unmarshals a JSON string or number into a string, since
// shadow-fleet exports disagree on whether MMSI/IMO are quoted.
type flexScalar string

func (f *flexScalar) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexScalar(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexScalar(n.String())
	return nil
}

type fleetLeaksEntry struct {
	Name       string     `json:"name"`
	VesselName string     `json:"vessel_name"`
	MMSI       flexScalar `json:"mmsi"`
	IMO        flexScalar `json:"imo"`
	IMONumber  flexScalar `json:"imo_number"`
	Flag       string     `json:"flag"`
	FlagState  string     `json:"flag_state"`
}

type fleetLeaksWrapper struct {
	Vessels []fleetLeaksEntry `json:"vessels"`
	Data    []fleetLeaksEntry `json:"data"`
}

// LoadWatchlist implements WatchlistSource.
func (FleetLeaksLoader) LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, WatchlistStats{}, err
	}

	var entries []fleetLeaksEntry
	var asArray []fleetLeaksEntry
	if err := json.Unmarshal(raw, &asArray); err == nil {
		entries = asArray
	} else {
		var wrapper fleetLeaksWrapper
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, WatchlistStats{}, err
		}
		if len(wrapper.Vessels) > 0 {
			entries = wrapper.Vessels
		} else {
			entries = wrapper.Data
		}
	}

	var stats WatchlistStats
	var out []models.WatchlistMatch

	for _, e := range entries {
		name := firstNonEmpty(e.Name, e.VesselName)
		mmsi := strings.TrimSpace(string(e.MMSI))
		imo := firstNonEmpty(string(e.IMO), string(e.IMONumber))
		flag := firstNonEmpty(e.Flag, e.FlagState)

		match, ok := ResolveVessel(resolver, mmsi, imo, name, flag)
		if !ok {
			stats.Unmatched++
			continue
		}

		out = append(out, models.WatchlistMatch{
			VesselID:        match.Vessel.ID,
			Source:          "fleetleaks",
			MatchConfidence: match.Confidence,
			MatchedName:     name,
			MatchedOn:       match.MatchedOn,
			ListedAt:        time.Now().UTC(),
		})
		stats.Matched++
	}
	return out, stats, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
