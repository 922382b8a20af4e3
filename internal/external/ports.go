// Package external holds the narrow collaborator-facing ports and their
// concrete CSV/NDJSON/JSON parsers: the AIS point stream, corridor and
// port registries, sanctions watchlists, and GFW detection feeds. Every
// interface here is a single-purpose port the detection core depends on
// (never the other way round), the same shape as internal/bitcoin's
// narrow RPC client wrapping a single collaborator.
package external

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// AISPointSource ingests the offline/batch AIS point stream.
type AISPointSource interface {
	// LoadAISPoints parses r and returns every well-formed point plus an
	// IngestStats tally of what was rejected and why. Points carry MMSI
	// rather than VesselID: mapping mmsi to a vessel row (creating one on
	// first reception) is the ingestion step's job, not the parser's.
	LoadAISPoints(r ReaderLike) ([]AISPointRecord, IngestStats, error)
}

// AISPointRecord pairs a parsed position report with the MMSI it was
// broadcast under, before vessel resolution.
type AISPointRecord struct {
	MMSI  string
	Point models.AISPoint
}

// CorridorLoader ingests the corridor-definition registry.
type CorridorLoader interface {
	LoadCorridors(r ReaderLike) ([]models.Corridor, error)
}

// PortLoader ingests the port registry.
type PortLoader interface {
	LoadPorts(r ReaderLike) ([]PortRecord, error)
}

// PortRecord is the port registry's wire shape: models.Port plus the
// lat/lon internal/db persists directly alongside the WKT geometry.
type PortRecord struct {
	models.Port
	Lat float64
	Lon float64
}

// WatchlistSource ingests one sanctions-list format into WatchlistMatch
// rows, resolving each row's vessel via VesselResolver.
type WatchlistSource interface {
	LoadWatchlist(r ReaderLike, resolver VesselResolver) ([]models.WatchlistMatch, WatchlistStats, error)
}

// GFWEventSource ingests a Global Fishing Watch v3 events payload.
type GFWEventSource interface {
	LoadGFWEvents(r ReaderLike, resolver VesselResolver) (GFWImportResult, error)
}

// VesselResolver is the minimal vessel-lookup surface the watchlist and
// GFW loaders need: MMSI/IMO exact match plus a flag-scoped candidate
// list for fuzzy name matching. internal/db's Store satisfies this
// alongside pipeline.Repository.
type VesselResolver interface {
	VesselByMMSI(mmsi string) (models.Vessel, bool)
	VesselByIMO(imo string) (models.Vessel, bool)
	VesselsByFlag(flag string) []models.Vessel
	AllNamedVessels() []models.Vessel
}

// ReaderLike is the minimal io.Reader surface the parsers need; kept as
// its own name so callers reading this package's exports don't have to
// cross-reference the io package for such a small dependency.
type ReaderLike interface {
	Read(p []byte) (n int, err error)
}

// IngestStats tallies one AIS point batch's accept/reject counts —
// mirrors the count-dict style every detector's Result type uses.
type IngestStats struct {
	Accepted          int
	RejectedBadLatLon int
	RejectedNoMMSI    int
	SkippedDuplicate  int
	RowsSeen          int
}

// WatchlistStats tallies one watchlist source's match outcome.
type WatchlistStats struct {
	Matched   int
	Unmatched int
	Skipped   int
}

// GFWImportResult tallies what one GFW events payload produced.
type GFWImportResult struct {
	STSEvents         []models.StsTransferEvent
	PortCalls         []models.PortCall
	ReportedGaps      []GFWGapReport
	EventsSeen        int
	VesselsUnresolved int
	EarliestEventUTC  time.Time
	LatestEventUTC    time.Time
}

// GFWGapReport is a corroborating AIS-gap signal carried in a GFW event's
// nested gap object — evidence the detection core can cross-reference
// against its own gap detection, not a gap record in its own right.
type GFWGapReport struct {
	VesselID          int64
	StartUTC          time.Time
	EndUTC            time.Time
	DurationHours     float64
	DistanceKM        float64
	ImpliedSpeedKnots float64
	Lat               float64
	Lon               float64
}
