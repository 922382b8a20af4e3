package models

import "time"

// AuditLogEntry is an append-only record of a system or analyst action.
type AuditLogEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   int64          `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// EvidenceCard is the analyst-facing export for a vessel/gap under
// investigation: summary, envelope, linked anomalies, watchlist matches,
// and the scoring breakdown.
type EvidenceCard struct {
	VesselID                  int64             `json:"vesselId"`
	VesselSummary             Vessel            `json:"vesselSummary"`
	GapEvent                  GapEvent          `json:"gapEvent"`
	MovementEnvelopeGeoJSON   string            `json:"movementEnvelopeGeoJson,omitempty"`
	LinkedAnomalies           []SpoofingAnomaly `json:"linkedAnomalies,omitempty"`
	WatchlistMatches          []WatchlistMatch  `json:"watchlistMatches,omitempty"`
	SatelliteCheckRecommended bool              `json:"satelliteCheckRecommended"`
	ScoringBreakdown          ScoreBreakdown    `json:"scoringBreakdown"`

	// Provenance fields populated by merge execution and
	// cleared by reverse_merge.
	OriginalVesselID *int64 `json:"originalVesselId,omitempty"`
	OriginalMMSI     string `json:"originalMmsi,omitempty"`
}

// WatchlistMatch is a sanctions-source row matched to a vessel.
type WatchlistMatch struct {
	ID              int64     `json:"id"`
	VesselID        int64     `json:"vesselId"`
	Source          string    `json:"source"` // ofac_sdn/eu_council/opensanctions/kse_institute/fleetleaks/ukraine_gur
	MatchConfidence float64   `json:"matchConfidence"`
	MatchedName     string    `json:"matchedName"`
	MatchedOn       string    `json:"matchedOn"` // mmsi/imo/fuzzy_name
	ListedAt        time.Time `json:"listedAt"`
}
