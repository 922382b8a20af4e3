// Package loitering detects sustained low-speed dwells and classifies
// the laid-up vessel flags that depend on them.
// Grounded on internal/sts/visible.go's consecutive-passing-window run
// tracker, reused here for a single vessel instead of a vessel pair:
// loitering is the same "accumulate a run of windows passing a filter,
// emit once the run crosses a minimum length" shape applied to one
// vessel's own speed instead of two vessels' relative proximity.
package loitering

import (
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the narrow persistence port loitering detection reads
// and writes through. A concrete implementation lives in internal/db.
type Repository interface {
	// ExistingLoiteringEvent reports whether a loitering event already
	// covers this vessel's [start, end] window (idempotent re-run dedup).
	ExistingLoiteringEvent(vesselID int64, start, end time.Time) bool
	// SaveLoiteringEvent persists a newly detected loitering event.
	SaveLoiteringEvent(event models.LoiteringEvent) error
	// GapEndingNear returns the gap event ending at or just before t for
	// vesselID, if any (loiter-gap-loiter bracketing, preceding side).
	GapEndingNear(vesselID int64, t time.Time) (models.GapEvent, bool)
	// GapStartingNear returns the gap event starting at or just after t
	// for vesselID, if any (loiter-gap-loiter bracketing, following side).
	GapStartingNear(vesselID int64, t time.Time) (models.GapEvent, bool)
}

// Result tallies one loitering pass in the prior count-dict style.
type Result struct {
	LoiteringEventsFound int
	Laid30d int
	Laid60d int
	LaidInSTSZone int
}
