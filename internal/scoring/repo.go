// Package scoring composites gap-event signals into a final risk score
// through the three-phase additive/corridor/size pipeline. Grounded on
// the prior internal/heuristics/realtime_risk.go (ScoreTransaction's
// additive accumulation into a single verdict) and llr_engine.go (the
// ordered application of independent adjustments to a base measure).
package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the narrow persistence port the scorer depends on for
// every signal that needs history beyond the single GapEvent/Vessel
// pair — gap frequency, flag/name/MMSI change history, merge chain
// depth, overlapping STS events, loitering brackets, and legitimacy
// lookbacks. A concrete implementation lives in internal/db.
type Repository interface {
	// CorridorTypeByID resolves a gap's corridor for the multiplier and
	// gap_duration_sts_zone signal.
	CorridorTypeByID(id int64) (models.CorridorType, bool)

	// GapCountSince counts gap events for vesselID (already resolved to
	// original_vessel_id by the caller per I7) with gap_start_utc at or
	// after since.
	GapCountSince(vesselID int64, since time.Time) int

	// FlagChangeWithin returns the most recent flag-change history entry
	// within window of now, if any.
	FlagChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool)
	// FlagChangeCountSince counts flag-change history entries since.
	FlagChangeCountSince(vesselID int64, since time.Time) int
	// NameChangeWithin returns the most recent name-change history entry
	// within window of now, if any.
	NameChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool)
	// MMSIChangeWithin returns the most recent mmsi-change history entry
	// within window of now, if any.
	MMSIChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool)
	// PositionMeanNear returns the mean AIS position for vesselID within
	// ±window of around, or ok=false if no points exist there.
	PositionMeanNear(vesselID int64, around time.Time, window time.Duration) (lat, lon float64, ok bool)
	// LastPortDepartureBefore returns the vessel's most recent port
	// departure at or before the cutoff, used for the active-voyage
	// window on name_change_during_active_voyage.
	LastPortDepartureBefore(vesselID int64, before time.Time) (time.Time, bool)

	// MergeChainLength returns how many vessel records have been merged
	// into vesselID's canonical chain (including itself); 1 means no
	// merges.
	MergeChainLength(vesselID int64) int
	// ScrappedIMOInChain reports whether any vessel absorbed into
	// vesselID's chain carries an IMO flagged scrapped/recycled.
	ScrappedIMOInChain(vesselID int64) bool

	// STSEventsOverlapping returns STS transfer events for vesselID
	// whose window overlaps [start, end] expanded by window on each
	// side.
	STSEventsOverlapping(vesselID int64, start, end time.Time, window time.Duration) []models.StsTransferEvent

	// LoiteringNear returns the loitering event bracketing gap, if any.
	LoiteringNear(gap models.GapEvent) (models.LoiteringEvent, bool)

	// AllPointsClassA reports whether every AIS point for vesselID since
	// the cutoff reports AIS class A.
	AllPointsClassA(vesselID int64, since time.Time) bool
	// EUPortCallCount counts EU port calls for vesselID since the cutoff.
	EUPortCallCount(vesselID int64, since time.Time) int

	// AnomaliesForGap returns every spoofing anomaly already linked to
	// gapID (internal/gapdetect.LinkAnomaliesToGaps populates this).
	AnomaliesForGap(gapID int64) []models.SpoofingAnomaly
}

// Result tallies one rescore_all pass, in the prior count-dict
// style (internal/heuristics/investigation.go's summary counters).
type Result struct {
	GapsScored int
	ConfigHash string
	ClearedFirst bool
}
