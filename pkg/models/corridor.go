package models

// CorridorType classifies a geographic zone's role in the corridor
// correlator (internal/corridor) and the risk scorer's multiplier table.
type CorridorType string

const (
	CorridorSTSZone            CorridorType = "sts_zone"
	CorridorExportRoute        CorridorType = "export_route"
	CorridorImportRoute        CorridorType = "import_route"
	CorridorAnchorageHolding   CorridorType = "anchorage_holding"
	CorridorDarkZone           CorridorType = "dark_zone"
	CorridorLegitimateTradeRoute CorridorType = "legitimate_trade_route"
)

// Corridor is a named polygonal region.
type Corridor struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	CorridorType   CorridorType `json:"corridorType"`
	RiskWeight     float64      `json:"riskWeight"` // metadata only, not applied directly
	IsJammingZone  bool         `json:"isJammingZone"`
	Geometry       string       `json:"geometry"` // WKT polygon
	Tags           []string     `json:"tags,omitempty"`
	IsArctic       bool         `json:"isArctic,omitempty"`
}

// Port is a fixed location used for proximity checks (major port, RU
// terminal, EU port).
type Port struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Country              string  `json:"country"`
	Geometry             string  `json:"geometry"` // WKT point
	MajorPort            bool    `json:"majorPort"`
	IsRussianOilTerminal bool    `json:"isRussianOilTerminal"`
	IsEU                 bool    `json:"isEu"`
}
