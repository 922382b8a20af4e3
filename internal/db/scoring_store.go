package db

import (
	"context"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func (s *Store) GapCountSince(vesselID int64, since time.Time) int {
	var count int
	_ = s.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM gap_events WHERE vessel_id = $1 AND gap_start_utc >= $2`,
		vesselID, since).Scan(&count)
	return count
}

func (s *Store) FlagChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return s.historyChangeWithin(vesselID, "flag", now, window)
}

func (s *Store) FlagChangeCountSince(vesselID int64, since time.Time) int {
	return s.historyChangeCountSince(vesselID, "flag", since)
}

func (s *Store) NameChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return s.historyChangeWithin(vesselID, "name", now, window)
}

func (s *Store) MMSIChangeWithin(vesselID int64, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	return s.historyChangeWithin(vesselID, "mmsi", now, window)
}

func (s *Store) historyChangeWithin(vesselID int64, field string, now time.Time, window time.Duration) (models.VesselHistory, bool) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_id, field_changed, old_value, new_value, observed_at, source
		FROM vessel_history
		WHERE vessel_id = $1 AND field_changed = $2 AND observed_at BETWEEN $3 AND $4
		ORDER BY observed_at DESC LIMIT 1`,
		vesselID, field, now.Add(-window), now)
	if err != nil {
		return models.VesselHistory{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.VesselHistory{}, false
	}
	var h models.VesselHistory
	if err := rows.Scan(&h.ID, &h.VesselID, &h.FieldChanged, &h.OldValue, &h.NewValue, &h.ObservedAt, &h.Source); err != nil {
		return models.VesselHistory{}, false
	}
	return h, true
}

func (s *Store) historyChangeCountSince(vesselID int64, field string, since time.Time) int {
	var count int
	_ = s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM vessel_history
		WHERE vessel_id = $1 AND field_changed = $2 AND observed_at >= $3`,
		vesselID, field, since).Scan(&count)
	return count
}

// MergeChainLength counts vessels in vesselID's canonical chain
// (itself plus every vessel whose merged_into points directly at it —
// ExecuteMerge always resolves to the final canonical ID before
// setting merged_into, so this is never more than one hop deep).
func (s *Store) MergeChainLength(vesselID int64) int {
	var count int
	_ = s.pool.QueryRow(context.Background(),
		`SELECT 1 + COUNT(*) FROM vessels WHERE merged_into = $1`, vesselID).Scan(&count)
	return count
}

func (s *Store) ScrappedIMOInChain(vesselID int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(
			SELECT 1 FROM vessels v JOIN scrapped_imo_registry r ON r.imo = v.imo
			WHERE (v.id = $1 OR v.merged_into = $1) AND v.imo <> '')`, vesselID).Scan(&exists)
	return exists
}

func (s *Store) LoiteringNear(gap models.GapEvent) (models.LoiteringEvent, bool) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_id, start_time_utc, end_time_utc, duration_hours, mean_lat, mean_lon,
			median_sog_kn, corridor_id, preceding_gap_id, following_gap_id
		FROM loitering_events
		WHERE preceding_gap_id = $1 OR following_gap_id = $1
		LIMIT 1`, gap.ID)
	if err != nil {
		return models.LoiteringEvent{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.LoiteringEvent{}, false
	}
	var e models.LoiteringEvent
	if err := rows.Scan(&e.ID, &e.VesselID, &e.StartTimeUTC, &e.EndTimeUTC, &e.DurationHours,
		&e.MeanLat, &e.MeanLon, &e.MedianSOGKn, &e.CorridorID, &e.PrecedingGapID, &e.FollowingGapID); err != nil {
		return models.LoiteringEvent{}, false
	}
	return e, true
}
