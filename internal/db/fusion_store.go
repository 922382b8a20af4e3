package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

func (s *Store) MergeCandidatesAbove(minConfidence int) []models.MergeCandidate {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_a_id, vessel_b_id, confidence_score, match_reasons, status,
			a_snapshot, b_snapshot, created_at
		FROM merge_candidates
		WHERE confidence_score >= $1 AND status IN ('pending', 'auto_merged', 'analyst_merged')`,
		minConfidence)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []models.MergeCandidate
	for rows.Next() {
		c, err := scanMergeCandidate(rows)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) ScrappedIMO(vesselID int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(
			SELECT 1 FROM vessels v JOIN scrapped_imo_registry r ON r.imo = v.imo
			WHERE v.id = $1 AND v.imo <> '')`, vesselID).Scan(&exists)
	return exists
}

func (s *Store) ExistingMergeChain(vesselIDs []int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM merge_chains WHERE vessel_ids = $1)`, vesselIDs).Scan(&exists)
	return exists
}

func (s *Store) SaveMergeChain(chain models.MergeChain) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO merge_chains (vessel_ids, confidence, confidence_band, contains_scrapped_imo)
		VALUES ($1,$2,$3,$4)`,
		chain.VesselIDs, chain.Confidence, string(chain.ConfidenceBand), chain.ContainsScrappedIMO)
	return err
}

func (s *Store) STSEventsSince(since time.Time) []models.StsTransferEvent {
	return s.stsEventsWhere(`start_time_utc >= $1 ORDER BY start_time_utc ASC`, since)
}

func (s *Store) STSEventsFor(vesselID int64) []models.StsTransferEvent {
	return s.stsEventsWhere(`vessel1_id = $1 OR vessel2_id = $1`, vesselID)
}

func (s *Store) STSEventsOverlapping(vesselID int64, start, end time.Time, window time.Duration) []models.StsTransferEvent {
	return s.stsEventsWhere(`
		(vessel1_id = $1 OR vessel2_id = $1)
		AND start_time_utc <= $3 AND end_time_utc >= $2`,
		vesselID, start.Add(-window), end.Add(window))
}

func (s *Store) stsEventsWhere(where string, args ...any) []models.StsTransferEvent {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel1_id, vessel2_id, detection_type, start_time_utc, end_time_utc,
			duration_minutes, mean_proximity_meters, mean_lat, mean_lon, corridor_id,
			eta_minutes, risk_score_component
		FROM sts_transfer_events WHERE `+where, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []models.StsTransferEvent
	for rows.Next() {
		var e models.StsTransferEvent
		var detectionType string
		if err := rows.Scan(&e.ID, &e.Vessel1ID, &e.Vessel2ID, &detectionType, &e.StartTimeUTC,
			&e.EndTimeUTC, &e.DurationMinutes, &e.MeanProximityMeters, &e.MeanLat, &e.MeanLon,
			&e.CorridorID, &e.ETAMinutes, &e.RiskScoreComponent); err != nil {
			continue
		}
		e.DetectionType = models.STSDetectionType(detectionType)
		out = append(out, e)
	}
	return out
}

func (s *Store) ExistingFleetAlert(kind string, vesselIDs []int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM fleet_alerts WHERE kind = $1 AND vessel_ids = $2)`,
		kind, vesselIDs).Scan(&exists)
	return exists
}

func (s *Store) SaveFleetAlert(alert models.FleetAlert) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO fleet_alerts (kind, vessel_ids, hops, score) VALUES ($1,$2,$3,$4)`,
		alert.Kind, alert.VesselIDs, alert.Hops, alert.Score)
	return err
}

func (s *Store) ExistingConvoyEvent(v1, v2 int64, start, end time.Time) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM convoy_events
			WHERE ((vessel1_id = $1 AND vessel2_id = $2) OR (vessel1_id = $2 AND vessel2_id = $1))
			AND start_time_utc <= $4 AND end_time_utc >= $3)`,
		v1, v2, start, end).Scan(&exists)
	return exists
}

func (s *Store) SaveConvoyEvent(event models.ConvoyEvent) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO convoy_events (
			vessel1_id, vessel2_id, start_time_utc, end_time_utc, duration_hours, score,
			is_floating_storage, is_arctic_no_ice_class
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		event.Vessel1ID, event.Vessel2ID, event.StartTimeUTC, event.EndTimeUTC,
		event.DurationHours, event.Score, event.IsFloatingStorage, event.IsArcticNoIceClass)
	return err
}

func (s *Store) LoiteringEventsFor(vesselID int64) []models.LoiteringEvent {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_id, start_time_utc, end_time_utc, duration_hours, mean_lat, mean_lon,
			median_sog_kn, corridor_id, preceding_gap_id, following_gap_id
		FROM loitering_events WHERE vessel_id = $1 ORDER BY start_time_utc ASC`, vesselID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []models.LoiteringEvent
	for rows.Next() {
		var e models.LoiteringEvent
		if err := rows.Scan(&e.ID, &e.VesselID, &e.StartTimeUTC, &e.EndTimeUTC, &e.DurationHours,
			&e.MeanLat, &e.MeanLon, &e.MedianSOGKn, &e.CorridorID, &e.PrecedingGapID,
			&e.FollowingGapID); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Store) FingerprintFor(vesselID int64) (models.FingerprintVector, bool) {
	var fp models.FingerprintVector
	var covariance []byte
	err := s.pool.QueryRow(context.Background(), `
		SELECT vessel_id, mean, covariance, window_count, is_diagonal_only
		FROM vessel_fingerprints WHERE vessel_id = $1`, vesselID).
		Scan(&fp.VesselID, &fp.Mean, &covariance, &fp.WindowCount, &fp.IsDiagonalOnly)
	if err != nil {
		return models.FingerprintVector{}, false
	}
	unmarshalJSONB(covariance, &fp.Covariance)
	return fp, true
}

func (s *Store) SaveFingerprint(fp models.FingerprintVector) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO vessel_fingerprints (vessel_id, mean, covariance, window_count, is_diagonal_only)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (vessel_id) DO UPDATE SET
			mean = EXCLUDED.mean, covariance = EXCLUDED.covariance,
			window_count = EXCLUDED.window_count, is_diagonal_only = EXCLUDED.is_diagonal_only`,
		fp.VesselID, fp.Mean, marshalJSONB(fp.Covariance), fp.WindowCount, fp.IsDiagonalOnly)
	return err
}

// FingerprintCandidates returns up to limit canonical vessel IDs in the
// same type/DWT-band/AIS-class eligibility group as vesselID (+/-20% DWT
// band), excluding vesselID itself.
func (s *Store) FingerprintCandidates(vesselID int64, limit int) []int64 {
	v, ok := s.VesselByID(vesselID)
	if !ok {
		return nil
	}
	rows, err := s.pool.Query(context.Background(), `
		SELECT id FROM vessels
		WHERE merged_into IS NULL AND id <> $1 AND vessel_type = $2 AND ais_class = $3
			AND deadweight_tons BETWEEN $4 AND $5
		ORDER BY id ASC LIMIT $6`,
		vesselID, v.VesselType, string(v.AISClass), v.DeadweightTons*0.8, v.DeadweightTons*1.2, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) SaveVoyageTemplate(t models.VoyageTemplate) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO voyage_templates (ports, support) VALUES ($1,$2)`, t.Ports, t.Support)
	return err
}

func (s *Store) VoyageTemplates() []models.VoyageTemplate {
	rows, err := s.pool.Query(context.Background(), `SELECT id, ports, support FROM voyage_templates`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []models.VoyageTemplate
	for rows.Next() {
		var t models.VoyageTemplate
		if err := rows.Scan(&t.ID, &t.Ports, &t.Support); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) PICoverageChangeCountSince(vesselID int64, since time.Time) int {
	var count int
	_ = s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM vessel_history
		WHERE vessel_id = $1 AND field_changed = 'pi_coverage' AND observed_at >= $2`,
		vesselID, since).Scan(&count)
	return count
}

func scanMergeCandidate(row pgx.CollectableRow) (models.MergeCandidate, error) {
	var c models.MergeCandidate
	var status string
	var matchReasons, aSnap, bSnap []byte
	err := row.Scan(&c.ID, &c.VesselAID, &c.VesselBID, &c.ConfidenceScore, &matchReasons,
		&status, &aSnap, &bSnap, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.Status = models.MergeCandidateStatus(status)
	unmarshalJSONB(matchReasons, &c.MatchReasons)
	if len(aSnap) > 0 {
		c.ASnapshot = &models.VesselSnapshot{}
		unmarshalJSONB(aSnap, c.ASnapshot)
	}
	if len(bSnap) > 0 {
		c.BSnapshot = &models.VesselSnapshot{}
		unmarshalJSONB(bSnap, c.BSnapshot)
	}
	return c, nil
}
