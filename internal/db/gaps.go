package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shadowfleet/aisforensics/internal/scoring"
	"github.com/shadowfleet/aisforensics/internal/sts"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

func (s *Store) ExistingGapNear(vesselID int64, start time.Time, window time.Duration) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM gap_events
			WHERE vessel_id = $1 AND gap_start_utc BETWEEN $2 AND $3)`,
		vesselID, start.Add(-window), start.Add(window)).Scan(&exists)
	return exists
}

func (s *Store) ExistingAnomalyNear(vesselID int64, typology models.SpoofingTypology, start time.Time) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM spoofing_anomalies
			WHERE vessel_id = $1 AND typology = $2 AND start_time_utc = $3)`,
		vesselID, string(typology), start).Scan(&exists)
	return exists
}

// SaveGap inserts a GapEvent, returning its assigned ID. The unique
// dedup index on (vessel_id, gap_start_utc) is a belt-and-braces
// constraint beneath ExistingGapNear's window check.
func (s *Store) SaveGap(gap models.GapEvent) (int64, error) {
	var id int64
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO gap_events (
			vessel_id, original_vessel_id, gap_start_utc, gap_end_utc, duration_minutes,
			start_point_id, end_point_id, corridor_id, dark_zone_id, in_dark_zone,
			impossible_speed_flag, velocity_plausibility_ratio, max_plausible_distance_nm,
			actual_gap_distance_nm, pre_gap_sog, risk_score, risk_breakdown, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (vessel_id, gap_start_utc) DO UPDATE SET gap_end_utc = EXCLUDED.gap_end_utc
		RETURNING id`,
		gap.VesselID, gap.OriginalVesselID, gap.GapStartUTC, gap.GapEndUTC, gap.DurationMinutes,
		gap.StartPointID, gap.EndPointID, gap.CorridorID, gap.DarkZoneID, gap.InDarkZone,
		gap.ImpossibleSpeedFlag, gap.VelocityPlausibilityRatio, gap.MaxPlausibleDistanceNM,
		gap.ActualGapDistanceNM, gap.PreGapSOG, gap.RiskScore, marshalJSONB(gap.RiskBreakdown), string(gap.Status),
	).Scan(&id)
	return id, err
}

func (s *Store) SaveEnvelope(env models.MovementEnvelope) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO movement_envelopes (
			gap_event_id, semi_major_nm, semi_minor_nm, heading_deg, method,
			interpolated_points, confidence_ellipse_wkt
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (gap_event_id) DO UPDATE SET
			semi_major_nm = EXCLUDED.semi_major_nm, semi_minor_nm = EXCLUDED.semi_minor_nm`,
		env.GapEventID, env.SemiMajorNM, env.SemiMinorNM, env.HeadingDeg, string(env.Method),
		marshalJSONB(env.InterpolatedPoints), env.ConfidenceEllipseWKT)
	return err
}

func (s *Store) SaveAnomaly(a models.SpoofingAnomaly) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO spoofing_anomalies (
			vessel_id, typology, start_time_utc, end_time_utc, risk_score_component,
			evidence, gap_event_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.VesselID, string(a.Typology), a.StartTimeUTC, a.EndTimeUTC, a.RiskScoreComponent,
		marshalJSONB(a.Evidence), a.GapEventID)
	return err
}

func (s *Store) AnomaliesForGap(gapID int64) []models.SpoofingAnomaly {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_id, typology, start_time_utc, end_time_utc, risk_score_component,
			evidence, gap_event_id
		FROM spoofing_anomalies WHERE gap_event_id = $1`, gapID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []models.SpoofingAnomaly
	for rows.Next() {
		var a models.SpoofingAnomaly
		var typology string
		var evidence []byte
		if err := rows.Scan(&a.ID, &a.VesselID, &typology, &a.StartTimeUTC, &a.EndTimeUTC,
			&a.RiskScoreComponent, &evidence, &a.GapEventID); err != nil {
			continue
		}
		a.Typology = models.SpoofingTypology(typology)
		unmarshalJSONB(evidence, &a.Evidence)
		out = append(out, a)
	}
	return out
}

func (s *Store) SaveSTSEvent(e models.StsTransferEvent) (int64, error) {
	var id int64
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO sts_transfer_events (
			vessel1_id, vessel2_id, detection_type, start_time_utc, end_time_utc,
			duration_minutes, mean_proximity_meters, mean_lat, mean_lon, corridor_id,
			eta_minutes, risk_score_component
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id`,
		e.Vessel1ID, e.Vessel2ID, string(e.DetectionType), e.StartTimeUTC, e.EndTimeUTC,
		e.DurationMinutes, e.MeanProximityMeters, e.MeanLat, e.MeanLon, e.CorridorID,
		e.ETAMinutes, e.RiskScoreComponent,
	).Scan(&id)
	return id, err
}

func (s *Store) ExistingEventOverlapping(vessel1ID, vessel2ID int64, start, end time.Time) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM sts_transfer_events
			WHERE ((vessel1_id = $1 AND vessel2_id = $2) OR (vessel1_id = $2 AND vessel2_id = $1))
			AND start_time_utc <= $4 AND end_time_utc >= $3)`,
		vessel1ID, vessel2ID, start, end).Scan(&exists)
	return exists
}

func (s *Store) SaveSatelliteTaskingCandidate(c models.SatelliteTaskingCandidate) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO satellite_tasking_candidates (
			vessel1_id, vessel2_id, window_start_utc, window_end_utc, confidence_tier, mean_lat, mean_lon
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.Vessel1ID, c.Vessel2ID, c.WindowStartUTC, c.WindowEndUTC, c.ConfidenceTier, c.MeanLat, c.MeanLon)
	return err
}

// DarkGapsSince resolves every gap event since the cutoff to its
// off-position (the vessel's last AIS point before the gap started),
// for the dark-dark STS correlation pass.
func (s *Store) DarkGapsSince(since time.Time) []sts.DarkGap {
	rows, err := s.pool.Query(context.Background(), `
		SELECT g.id, g.vessel_id, g.original_vessel_id, g.gap_start_utc, g.gap_end_utc,
			g.duration_minutes, g.start_point_id, g.end_point_id, g.corridor_id, g.dark_zone_id,
			g.in_dark_zone, g.impossible_speed_flag, g.velocity_plausibility_ratio,
			g.max_plausible_distance_nm, g.actual_gap_distance_nm, g.pre_gap_sog,
			g.risk_score, g.risk_breakdown, g.status, p.lat, p.lon
		FROM gap_events g
		JOIN ais_points p ON p.id = g.start_point_id
		WHERE g.gap_start_utc >= $1
		ORDER BY g.gap_start_utc ASC`, since)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []sts.DarkGap
	for rows.Next() {
		var dg sts.DarkGap
		var status string
		var breakdown []byte
		if err := rows.Scan(&dg.Gap.ID, &dg.Gap.VesselID, &dg.Gap.OriginalVesselID,
			&dg.Gap.GapStartUTC, &dg.Gap.GapEndUTC, &dg.Gap.DurationMinutes,
			&dg.Gap.StartPointID, &dg.Gap.EndPointID, &dg.Gap.CorridorID, &dg.Gap.DarkZoneID,
			&dg.Gap.InDarkZone, &dg.Gap.ImpossibleSpeedFlag, &dg.Gap.VelocityPlausibilityRatio,
			&dg.Gap.MaxPlausibleDistanceNM, &dg.Gap.ActualGapDistanceNM, &dg.Gap.PreGapSOG,
			&dg.Gap.RiskScore, &breakdown, &status, &dg.OffLat, &dg.OffLon); err != nil {
			continue
		}
		dg.Gap.Status = models.GapStatus(status)
		unmarshalJSONB(breakdown, &dg.Gap.RiskBreakdown)
		out = append(out, dg)
	}
	return out
}

func scanGapEvent(row pgx.CollectableRow) (models.GapEvent, error) {
	var g models.GapEvent
	var status string
	var breakdown []byte
	err := row.Scan(&g.ID, &g.VesselID, &g.OriginalVesselID, &g.GapStartUTC, &g.GapEndUTC,
		&g.DurationMinutes, &g.StartPointID, &g.EndPointID, &g.CorridorID, &g.DarkZoneID,
		&g.InDarkZone, &g.ImpossibleSpeedFlag, &g.VelocityPlausibilityRatio,
		&g.MaxPlausibleDistanceNM, &g.ActualGapDistanceNM, &g.PreGapSOG,
		&g.RiskScore, &breakdown, &status)
	g.Status = models.GapStatus(status)
	unmarshalJSONB(breakdown, &g.RiskBreakdown)
	return g, err
}

const gapEventColumns = `id, vessel_id, original_vessel_id, gap_start_utc, gap_end_utc,
	duration_minutes, start_point_id, end_point_id, corridor_id, dark_zone_id,
	in_dark_zone, impossible_speed_flag, velocity_plausibility_ratio,
	max_plausible_distance_nm, actual_gap_distance_nm, pre_gap_sog, risk_score, risk_breakdown, status`

// AllGapsWithVessels loads every gap event joined to its owning vessel.
// RescoreAll resets each gap's in-memory score to zero before scoring,
// so the persisted risk_score column is not reset here.
func (s *Store) AllGapsWithVessels() ([]scoring.GapVesselPair, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+gapEventColumns+` FROM gap_events ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	gaps, err := pgx.CollectRows(rows, scanGapEvent)
	if err != nil {
		return nil, err
	}
	out := make([]scoring.GapVesselPair, 0, len(gaps))
	for _, g := range gaps {
		v, _ := s.VesselByID(g.VesselID)
		out = append(out, scoring.GapVesselPair{Gap: g, Vessel: v})
	}
	return out, nil
}

// PersistGapScore writes a freshly computed score and breakdown back to
// a gap event.
func (s *Store) PersistGapScore(gapID int64, score int, breakdown models.ScoreBreakdown) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE gap_events SET risk_score = $2, risk_breakdown = $3 WHERE id = $1`,
		gapID, score, marshalJSONB(breakdown))
	return err
}

// ClearDerivedDetections purges every derived detection table, leaving
// vessels and ais_points intact — used by a clean rescore_all run.
func (s *Store) ClearDerivedDetections() error {
	_, err := s.pool.Exec(context.Background(), `
		TRUNCATE spoofing_anomalies, movement_envelopes, sts_transfer_events,
			satellite_tasking_candidates, loitering_events, convoy_events,
			merge_chains, fleet_alerts, vessel_fingerprints, voyage_templates
			RESTART IDENTITY CASCADE`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(context.Background(),
		`UPDATE gap_events SET risk_score = 0, risk_breakdown = '{}'`)
	return err
}
