package external

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// OpenSanctionsLoader parses an OpenSanctions FollowTheMoney export,
// either as NDJSON (one entity per line) or as a JSON array. Only
// entities with schema "Vessel" are processed.
type OpenSanctionsLoader struct{}

var _ WatchlistSource = OpenSanctionsLoader{}

type openSanctionsEntity struct {
	Schema     string                     `json:"schema"`
	Type       string                     `json:"type"`
	Caption    string                     `json:"caption"`
	Properties map[string]json.RawMessage `json:"properties"`
	Datasets   []string                   `json:"datasets"`
	DatasetID  string                     `json:"dataset_id"`
}

func (e openSanctionsEntity) schemaName() string {
	if e.Schema != "" {
		return e.Schema
	}
	return e.Type
}

// propFirst returns the first element of a properties[key] value,
// whether it is encoded as a JSON string or a JSON array of strings.
func (e openSanctionsEntity) propFirst(key string) string {
	raw, ok := e.Properties[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

func (e openSanctionsEntity) name() string {
	if n := e.propFirst("name"); n != "" {
		return n
	}
	return strings.TrimSpace(e.Caption)
}

func (e openSanctionsEntity) watchlistSource() string {
	dataset := ""
	if len(e.Datasets) > 0 {
		dataset = strings.ToLower(e.Datasets[0])
	} else {
		dataset = strings.ToLower(e.DatasetID)
	}
	switch {
	case strings.Contains(dataset, "ofac"):
		return "ofac_sdn"
	case strings.Contains(dataset, "eu_") || strings.HasPrefix(dataset, "eu"):
		return "eu_council"
	default:
		return "opensanctions"
	}
}

// LoadWatchlist implements WatchlistSource.
func (OpenSanctionsLoader) LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error) {
	entities, err := loadOpenSanctionsEntities(r)
	if err != nil {
		return nil, WatchlistStats{}, err
	}

	var stats WatchlistStats
	var out []models.WatchlistMatch

	for _, e := range entities {
		if e.schemaName() != "Vessel" {
			continue
		}

		name := e.name()
		mmsi := firstNonEmpty(e.propFirst("mmsi"), e.propFirst("MMSI"))
		imo := firstNonEmpty(e.propFirst("imoNumber"), e.propFirst("imo"))
		flag := firstNonEmpty(e.propFirst("flag"), e.propFirst("country"))

		match, ok := ResolveVessel(resolver, mmsi, imo, name, flag)
		if !ok {
			stats.Unmatched++
			continue
		}

		out = append(out, models.WatchlistMatch{
			VesselID:        match.Vessel.ID,
			Source:          e.watchlistSource(),
			MatchConfidence: match.Confidence,
			MatchedName:     name,
			MatchedOn:       match.MatchedOn,
			ListedAt:        time.Now().UTC(),
		})
		stats.Matched++
	}
	return out, stats, nil
}

// loadOpenSanctionsEntities detects NDJSON vs a JSON array on the first
// non-empty line and parses accordingly, keeping only entities whose
// outer shape decodes cleanly (a malformed NDJSON line is skipped, not
// fatal to the batch).
func loadOpenSanctionsEntities(r ReaderLike) ([]openSanctionsEntity, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var arr []openSanctionsEntity
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}

	var entities []openSanctionsEntity
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e openSanctionsEntity
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}
