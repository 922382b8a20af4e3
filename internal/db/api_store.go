package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const gapEventColumns = `id, vessel_id, original_vessel_id, gap_start_utc, gap_end_utc,
	duration_minutes, start_point_id, end_point_id, corridor_id, dark_zone_id,
	in_dark_zone, impossible_speed_flag, velocity_plausibility_ratio,
	max_plausible_distance_nm, actual_gap_distance_nm, pre_gap_sog,
	risk_score, risk_breakdown, status`

func scanGapEvent(row pgx.CollectableRow) (models.GapEvent, error) {
	var g models.GapEvent
	var breakdown []byte
	err := row.Scan(
		&g.ID, &g.VesselID, &g.OriginalVesselID, &g.GapStartUTC, &g.GapEndUTC,
		&g.DurationMinutes, &g.StartPointID, &g.EndPointID, &g.CorridorID, &g.DarkZoneID,
		&g.InDarkZone, &g.ImpossibleSpeedFlag, &g.VelocityPlausibilityRatio,
		&g.MaxPlausibleDistanceNM, &g.ActualGapDistanceNM, &g.PreGapSOG,
		&g.RiskScore, &breakdown, &g.Status,
	)
	if err != nil {
		return g, err
	}
	unmarshalJSONB(breakdown, &g.RiskBreakdown)
	return g, nil
}

// GapEventByID fetches a single gap event by its row ID.
func (s *Store) GapEventByID(id int64) (models.GapEvent, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+gapEventColumns+` FROM gap_events WHERE id = $1`, id)
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

// GapEventFilter narrows a ListGapEvents call. An empty Status or nil
// MinRiskScore leaves that dimension unfiltered.
type GapEventFilter struct {
	Status       models.GapStatus
	MinRiskScore *int
	CorridorID   *int64
	Limit        int
	Offset       int
}

// ListGapEvents returns the page of gap events matching filter, newest
// first, plus the total matching row count (for pagination headers).
func (s *Store) ListGapEvents(filter GapEventFilter) ([]models.GapEvent, int, error) {
	where := `WHERE ($1 = '' OR status = $1)
		AND ($2::int IS NULL OR risk_score >= $2)
		AND ($3::bigint IS NULL OR corridor_id = $3)`
	args := []any{string(filter.Status), filter.MinRiskScore, filter.CorridorID}

	var total int
	if err := s.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM gap_events `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+gapEventColumns+` FROM gap_events `+where+`
		ORDER BY gap_start_utc DESC LIMIT $4 OFFSET $5`,
		append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	gaps, err := pgx.CollectRows(rows, scanGapEvent)
	if err != nil {
		return nil, 0, err
	}
	return gaps, total, nil
}

// EnvelopeForGap returns a gap's movement envelope, if one was persisted.
func (s *Store) EnvelopeForGap(gapID int64) (models.MovementEnvelope, bool) {
	var env models.MovementEnvelope
	var points []byte
	err := s.pool.QueryRow(context.Background(),
		`SELECT gap_event_id, semi_major_nm, semi_minor_nm, heading_deg, method,
			interpolated_points, confidence_ellipse_wkt
		FROM movement_envelopes WHERE gap_event_id = $1`, gapID).Scan(
		&env.GapEventID, &env.SemiMajorNM, &env.SemiMinorNM, &env.HeadingDeg,
		&env.Method, &points, &env.ConfidenceEllipseWKT)
	if err != nil {
		return models.MovementEnvelope{}, false
	}
	unmarshalJSONB(points, &env.InterpolatedPoints)
	return env, true
}

// WatchlistMatchesForVessel returns every sanctions-source row matched
// to vesselID.
func (s *Store) WatchlistMatchesForVessel(vesselID int64) []models.WatchlistMatch {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, vessel_id, source, match_confidence, matched_name, matched_on, listed_at
		FROM watchlist_matches WHERE vessel_id = $1 ORDER BY listed_at DESC`, vesselID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.WatchlistMatch, error) {
		var m models.WatchlistMatch
		err := row.Scan(&m.ID, &m.VesselID, &m.Source, &m.MatchConfidence, &m.MatchedName, &m.MatchedOn, &m.ListedAt)
		return m, err
	})
	if err != nil {
		return nil
	}
	return matches
}

// SaveWatchlistMatch upserts a sanctions-source row for vesselID,
// replacing any prior match from the same source.
func (s *Store) SaveWatchlistMatch(m models.WatchlistMatch) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO watchlist_matches (vessel_id, source, match_confidence, matched_name, matched_on, listed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vessel_id, source) DO UPDATE SET
			match_confidence = EXCLUDED.match_confidence,
			matched_name = EXCLUDED.matched_name,
			matched_on = EXCLUDED.matched_on,
			listed_at = EXCLUDED.listed_at`,
		m.VesselID, m.Source, m.MatchConfidence, m.MatchedName, m.MatchedOn, m.ListedAt)
	return err
}

// RecentAuditLog returns the most recent audit entries, newest first.
func (s *Store) RecentAuditLog(limit int) []models.AuditLogEntry {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, action, entity_type, entity_id, details, user_agent, ip_address, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditLogEntry, error) {
		var e models.AuditLogEntry
		var details []byte
		err := row.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.UserAgent, &e.IPAddress, &e.CreatedAt)
		if err != nil {
			return e, err
		}
		unmarshalJSONB(details, &e.Details)
		return e, nil
	})
	if err != nil {
		return nil
	}
	return entries
}

// AllCorridors returns the full corridor registry.
func (s *Store) AllCorridors() []models.Corridor {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, name, corridor_type, risk_weight, is_jamming_zone, geometry, tags, is_arctic
		FROM corridors ORDER BY id ASC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	corridors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Corridor, error) {
		var c models.Corridor
		err := row.Scan(&c.ID, &c.Name, &c.CorridorType, &c.RiskWeight, &c.IsJammingZone, &c.Geometry, &c.Tags, &c.IsArctic)
		return c, err
	})
	if err != nil {
		return nil
	}
	return corridors
}

// AllPorts returns the full port registry.
func (s *Store) AllPorts() []models.Port {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, name, country, geometry, major_port, is_russian_oil_terminal, is_eu
		FROM ports ORDER BY id ASC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	ports, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Port, error) {
		var p models.Port
		err := row.Scan(&p.ID, &p.Name, &p.Country, &p.Geometry, &p.MajorPort, &p.IsRussianOilTerminal, &p.IsEU)
		return p, err
	})
	if err != nil {
		return nil
	}
	return ports
}

// SaveCorridor inserts one corridor registry row.
func (s *Store) SaveCorridor(c models.Corridor) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO corridors (name, corridor_type, risk_weight, is_jamming_zone, geometry, tags, is_arctic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.Name, c.CorridorType, c.RiskWeight, c.IsJammingZone, c.Geometry, c.Tags, c.IsArctic)
	return err
}

// SavePort inserts one port registry row, including the lat/lon the
// external package's loader already derived from the WKT geometry.
func (s *Store) SavePort(p models.Port, lat, lon float64) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO ports (name, country, geometry, lat, lon, major_port, is_russian_oil_terminal, is_eu)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.Name, p.Country, p.Geometry, lat, lon, p.MajorPort, p.IsRussianOilTerminal, p.IsEU)
	return err
}

// SavePortCall inserts one port-call record (e.g. from a GFW events
// import), independent of the AIS-derived port-call detection pipeline
// steps may write through the narrower pipeline.Repository surface.
func (s *Store) SavePortCall(pc models.PortCall) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO port_calls (vessel_id, port_id, arrival_utc, departure_utc, source)
		VALUES ($1, $2, $3, $4, $5)`,
		pc.VesselID, pc.PortID, pc.ArrivalUTC, pc.DepartureUTC, pc.Source)
	return err
}

// UpsertVesselByMMSI finds the vessel currently broadcasting mmsi,
// creating a bare placeholder row on first reception — the ingestion
// step's job per AISPointSource's doc comment, not the CSV parser's.
func (s *Store) UpsertVesselByMMSI(mmsi string, firstSeen time.Time) (int64, error) {
	if v, ok := s.VesselByMMSI(mmsi); ok {
		return v.ID, nil
	}
	var id int64
	err := s.pool.QueryRow(context.Background(),
		`INSERT INTO vessels (mmsi, mmsi_first_seen) VALUES ($1, $2) RETURNING id`,
		mmsi, firstSeen).Scan(&id)
	return id, err
}

// SaveAISPoint inserts one decoded position report for vesselID.
func (s *Store) SaveAISPoint(vesselID int64, p models.AISPoint) error {
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO ais_points (vessel_id, timestamp_utc, lat, lon, sog, cog, heading, draught, nav_status, ais_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		vesselID, p.TimestampUTC, p.Lat, p.Lon, p.SOG, p.COG, p.Heading, p.Draught, p.NavStatus, p.AISClass)
	return err
}
