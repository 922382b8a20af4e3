// Package models holds the core entity types shared by every detector,
// the scorer, and the API layer.
package models

import "time"

// AISClass is the transponder class a vessel broadcasts under.
type AISClass string

const (
	AISClassA       AISClass = "A"
	AISClassB       AISClass = "B"
	AISClassUnknown AISClass = "unknown"
)

// FlagRisk buckets a flag state's sanctions-evasion risk.
type FlagRisk string

const (
	FlagRiskLow     FlagRisk = "low"
	FlagRiskMedium  FlagRisk = "medium"
	FlagRiskHigh    FlagRisk = "high"
	FlagRiskUnknown FlagRisk = "unknown"
)

// PICoverage is the vessel's protection & indemnity insurance status.
type PICoverage string

const (
	PICoverageActive  PICoverage = "active"
	PICoverageLapsed  PICoverage = "lapsed"
	PICoverageUnknown PICoverage = "unknown"
)

// Vessel is a physical ship. MMSI is reassignable over time; IMO is
// intended to be immutable per hull. MergedInto is the canonical pointer
// used by identity resolution (see internal/identity).
type Vessel struct {
	ID                int64      `json:"id"`
	MMSI              string     `json:"mmsi"`
	IMO               string     `json:"imo,omitempty"`
	Name              string     `json:"name"`
	Flag              string     `json:"flag"`
	VesselType        string     `json:"vesselType"`
	DeadweightTons    float64    `json:"deadweightTons"`
	YearBuilt         int        `json:"yearBuilt,omitempty"`
	AISClass          AISClass   `json:"aisClass"`
	FlagRisk          FlagRisk   `json:"flagRisk"`
	PICoverage        PICoverage `json:"piCoverage"`
	PSCDetainedLast12m bool      `json:"pscDetainedLast12m"`
	MMSIFirstSeen     time.Time  `json:"mmsiFirstSeen"`
	LaidUp30d         bool       `json:"laidUp30d"`
	LaidUp60d         bool       `json:"laidUp60d"`
	LaidUpInSTSZone   bool       `json:"laidUpInStsZone"`
	IceClass          string     `json:"iceClass,omitempty"`
	ISMManager        string     `json:"ismManager,omitempty"`
	PIClub            string     `json:"piClub,omitempty"`
	MergedInto        *int64     `json:"mergedInto,omitempty"`
}

// IsCanonical reports whether the vessel is its own representative.
func (v *Vessel) IsCanonical() bool {
	return v.MergedInto == nil
}

// AISPoint is a decoded position report. Immutable once ingested; never
// reassigned to a different vessel except by a merge operation (I6).
type AISPoint struct {
	ID            int64     `json:"id"`
	VesselID      int64     `json:"vesselId"`
	TimestampUTC  time.Time `json:"timestampUtc"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	SOG           float64   `json:"sog"` // knots
	COG           float64   `json:"cog,omitempty"`
	Heading       float64   `json:"heading,omitempty"`
	Draught       float64   `json:"draught,omitempty"`
	NavStatus     int       `json:"navStatus,omitempty"` // 0..15
	AISClass      AISClass  `json:"aisClass,omitempty"`
}

// VesselHistory is a chronological attribute-change log entry.
type VesselHistory struct {
	ID            int64     `json:"id"`
	VesselID      int64     `json:"vesselId"`
	FieldChanged  string    `json:"fieldChanged"`
	OldValue      string    `json:"oldValue"`
	NewValue      string    `json:"newValue"`
	ObservedAt    time.Time `json:"observedAt"`
	Source        string    `json:"source"`
}
