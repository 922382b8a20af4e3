package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// ScoringConfig is the frozen, validated config struct: loaded once
// per process, hash-stamped for audit, no hot-reload side effects.
// Every signal point value is overridable; a
// missing key falls back to the documented default via the getter
// methods below.
type ScoringConfig struct {
	GapDuration map[string]int `yaml:"gap_duration"`
	GapFrequency map[string]int `yaml:"gap_frequency"`
	SpeedAnomaly map[string]int `yaml:"speed_anomaly"`
	MovementEnvelope map[string]int `yaml:"movement_envelope"`
	Spoofing map[string]int `yaml:"spoofing"`
	Metadata map[string]int `yaml:"metadata"`
	VesselAge map[string]int `yaml:"vessel_age"`
	FlagState map[string]int `yaml:"flag_state"`
	VesselSizeMultiplier map[string]float64 `yaml:"vessel_size_multiplier"`
	Watchlist map[string]int `yaml:"watchlist"`
	DarkZone map[string]int `yaml:"dark_zone"`
	STS map[string]int `yaml:"sts"`
	Behavioral map[string]int `yaml:"behavioral"`
	Legitimacy map[string]int `yaml:"legitimacy"`
	Corridor map[string]float64 `yaml:"corridor"`
	ScoreBands map[string]int `yaml:"score_bands"`
	AISClass map[string]int `yaml:"ais_class"`
	DarkVessel map[string]int `yaml:"dark_vessel"`
	PIInsurance map[string]int `yaml:"pi_insurance"`
	PSCDetention map[string]int `yaml:"psc_detention"`
	IdentityMerge map[string]int `yaml:"identity_merge"`

	// Open-question thresholds: empirically fit, carried as
	// config rather than constants.
	FingerprintSimilarQ1 float64 `yaml:"fingerprint_similar_q1"`
	FingerprintSimilarMedian float64 `yaml:"fingerprint_similar_median"`

	MergeAutoConfidenceThreshold int `yaml:"merge_auto_confidence_threshold"`
	MergeMinConfidence int `yaml:"merge_min_confidence"`
	MergeMaxSpeedKn float64 `yaml:"merge_max_speed_kn"`
	MergeMaxGapDays int `yaml:"merge_max_gap_days"`

	// UnallocatedMIDs are 3-digit MMSI maritime identification digits not
	// assigned to any flag administration by the ITU table; a vessel
	// reporting one is almost certainly spoofing an MMSI.
	UnallocatedMIDs []string `yaml:"unallocated_mids"`
	// RussianOriginFlags are flag states heavily used by the post-2022
	// shadow fleet to re-flag former Russian-trading tankers.
	RussianOriginFlags []string `yaml:"russian_origin_flags"`

	hash string
}

// DefaultScoringConfig returns the documented default signal weights,
// used when no config path is supplied or a key is absent.
func DefaultScoringConfig() *ScoringConfig {
	cfg := &ScoringConfig{
		GapDuration: map[string]int{
			"gap_duration_24h_plus": 30,
			"gap_duration_sts_zone": 20,
			"gap_duration_other": 8,
		},
		GapFrequency: map[string]int{
			"gap_frequency_5_in_30d": 50,
			"gap_frequency_4_in_30d": 40,
			"gap_frequency_3_in_14d": 32,
			"gap_frequency_3_in_30d": 25,
			"gap_frequency_2_in_7d": 18,
		},
		SpeedAnomaly: map[string]int{
			"speed_impossible": 40,
			"speed_spoof_before_gap": 25,
			"speed_spike_before_gap": 8,
		},
		DarkZone: map[string]int{
			"dark_zone_exit_impossible": 35,
			"dark_zone_entry": 20,
			"dark_zone_deduction": -10,
		},
		STS: map[string]int{
			"sts_in_zone": 35,
			"sts_outside_zone": 25,
			"dark_partner_bonus": 15,
		},
		FlagState: map[string]int{
			"flag_and_name_change_within_48h": 30,
			"flag_change_in_last_7d": 35,
			"flag_change_in_last_30d": 25,
			"flag_changes_3_plus_in_90d": 40,
		},
		VesselAge: map[string]int{
			"age_25_plus": 20,
			"age_25_plus_high_risk_flag": 30,
		},
		Legitimacy: map[string]int{
			"gap_free_90d_clean": -10,
			"ais_class_a_consistent": -5,
			"white_flag_jurisdiction": -10,
			"eu_port_call": -5,
		},
		IdentityMerge: map[string]int{
			"mmsi_change_mapped_same_position": 45,
			"mmsi_change_other": 20,
			"name_change_during_active_voyage": 30,
			"merge_chain_3": 15,
			"merge_chain_4plus": 25,
			"scrapped_imo_in_chain": 35,
		},
		Behavioral: map[string]int{
			"loiter_gap_loiter_full": 25,
			"loiter_gap_loiter_pattern": 15,
			"loiter_duration_sts_zone": 20,
			"loiter_duration_other": 8,
			"fingerprint_close": 15,
			"fingerprint_similar": 10,
			"fingerprint_divergent": -5,
		},
		Corridor: map[string]float64{
			"sts_zone": 1.5,
			"export_route": 1.5,
			"legitimate_trade_route": 0.7,
		},
		ScoreBands: map[string]int{
			"low": 20,
			"medium": 50,
			"high": 75,
		},
		FingerprintSimilarQ1: 2.60,
		FingerprintSimilarMedian: 3.06,
		MergeAutoConfidenceThreshold: 75,
		MergeMinConfidence: 50,
		MergeMaxSpeedKn: 16,
		MergeMaxGapDays: 30,
		UnallocatedMIDs: []string{"099", "199", "299", "399", "499", "899"},
		RussianOriginFlags: []string{"Gabon", "Cameroon", "Palau", "Comoros", "Cook Islands", "Tanzania", "Sao Tome and Principe"},
	}
	cfg.hash = cfg.computeHash()
	return cfg
}

// LoadScoringConfig reads a YAML document from path, merging it over the
// documented defaults. A hard parse error aborts the load (ScoringError)
// and the caller should continue using the previously loaded config.
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	cfg := DefaultScoringConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read scoring config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse scoring config %q: %w", path, err)
	}
	cfg.hash = cfg.computeHash()
	return cfg, nil
}

// Hash returns the SHA-256 hash of the canonical-JSON-serialized config,
// used by rescore_all for auditability.
func (c *ScoringConfig) Hash() string { return c.hash }

func (c *ScoringConfig) computeHash() string {
	// Serialize a shallow copy without the hash field to avoid
	// self-reference, mirroring the prior AuditHash computation
	// style in pkg/models (sha256 of a canonical JSON document).
	shallow := *c
	shallow.hash = ""
	b, err := json.Marshal(shallow)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// CorridorFactor returns m_c, preferring config over the compiled-in
// defaults table.
func (c *ScoringConfig) CorridorFactor(t models.CorridorType) float64 {
	if v, ok := c.Corridor[string(t)]; ok {
		return v
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

// IntOrDefault looks up key in table, falling back to def if absent.
func IntOrDefault(table map[string]int, key string, def int) int {
	if table == nil {
		return def
	}
	if v, ok := table[key]; ok {
		return v
	}
	return def
}
