package external

import (
	"strings"
	"testing"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func TestCorridorYAMLLoaderParsesRows(t *testing.T) {
	yaml := `
- name: Baltic STS Zone
  corridor_type: sts_zone
  risk_weight: 1.4
  is_jamming_zone: true
  geometry: "POLYGON((19.0 54.0, 20.0 54.0, 20.0 55.0, 19.0 55.0, 19.0 54.0))"
  tags: ["baltic", "sts"]
  is_arctic: false
`
	corridors, err := CorridorYAMLLoader{}.LoadCorridors(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corridors) != 1 {
		t.Fatalf("expected 1 corridor, got %d", len(corridors))
	}
	c := corridors[0]
	if c.Name != "Baltic STS Zone" || c.CorridorType != models.CorridorSTSZone || !c.IsJammingZone {
		t.Fatalf("unexpected corridor: %+v", c)
	}
	if len(c.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %+v", c.Tags)
	}
}
