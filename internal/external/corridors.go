package external

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// CorridorYAMLLoader parses a corridor registry expressed as a YAML list
// of maps — loaded once at startup, the same shape as ScoringConfig.
type CorridorYAMLLoader struct{}

var _ CorridorLoader = CorridorYAMLLoader{}

type corridorRow struct {
	Name          string   `yaml:"name"`
	CorridorType  string   `yaml:"corridor_type"`
	RiskWeight    float64  `yaml:"risk_weight"`
	IsJammingZone bool     `yaml:"is_jamming_zone"`
	Description   string   `yaml:"description"`
	Geometry      string   `yaml:"geometry"`
	Tags          []string `yaml:"tags"`
	IsArctic      bool     `yaml:"is_arctic"`
}

// LoadCorridors implements CorridorLoader.
func (CorridorYAMLLoader) LoadCorridors(r ReaderLike) ([]models.Corridor, error) {
	var rows []corridorRow
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	out := make([]models.Corridor, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Corridor{
			Name:          row.Name,
			CorridorType:  models.CorridorType(strings.ToLower(row.CorridorType)),
			RiskWeight:    row.RiskWeight,
			IsJammingZone: row.IsJammingZone,
			Geometry:      row.Geometry,
			Tags:          row.Tags,
			IsArctic:      row.IsArctic,
		})
	}
	return out, nil
}
