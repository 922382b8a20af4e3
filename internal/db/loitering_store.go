package db

import (
	"context"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func (s *Store) ExistingLoiteringEvent(vesselID int64, start, end time.Time) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM loitering_events
			WHERE vessel_id = $1 AND start_time_utc <= $3 AND end_time_utc >= $2)`,
		vesselID, start, end).Scan(&exists)
	return exists
}

func (s *Store) SaveLoiteringEvent(event models.LoiteringEvent) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO loitering_events (
			vessel_id, start_time_utc, end_time_utc, duration_hours, mean_lat, mean_lon,
			median_sog_kn, corridor_id, preceding_gap_id, following_gap_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		event.VesselID, event.StartTimeUTC, event.EndTimeUTC, event.DurationHours,
		event.MeanLat, event.MeanLon, event.MedianSOGKn, event.CorridorID,
		event.PrecedingGapID, event.FollowingGapID)
	return err
}

func (s *Store) GapEndingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+gapEventColumns+` FROM gap_events
			WHERE vessel_id = $1 AND gap_end_utc <= $2
			ORDER BY gap_end_utc DESC LIMIT 1`, vesselID, t)
	if err != nil {
		return models.GapEvent{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.GapEvent{}, false
	}
	g, err := scanGapEvent(rows)
	if err != nil {
		return models.GapEvent{}, false
	}
	return g, true
}

func (s *Store) GapStartingNear(vesselID int64, t time.Time) (models.GapEvent, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+gapEventColumns+` FROM gap_events
			WHERE vessel_id = $1 AND gap_start_utc >= $2
			ORDER BY gap_start_utc ASC LIMIT 1`, vesselID, t)
	if err != nil {
		return models.GapEvent{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.GapEvent{}, false
	}
	g, err := scanGapEvent(rows)
	if err != nil {
		return models.GapEvent{}, false
	}
	return g, true
}
