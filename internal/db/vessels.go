package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

func scanVessel(row pgx.CollectableRow) (models.Vessel, error) {
	var v models.Vessel
	err := row.Scan(
		&v.ID, &v.MMSI, &v.IMO, &v.Name, &v.Flag, &v.VesselType, &v.DeadweightTons,
		&v.YearBuilt, &v.AISClass, &v.FlagRisk, &v.PICoverage, &v.PSCDetainedLast12m,
		&v.MMSIFirstSeen, &v.LaidUp30d, &v.LaidUp60d, &v.LaidUpInSTSZone,
		&v.IceClass, &v.ISMManager, &v.PIClub, &v.MergedInto,
	)
	return v, err
}

const vesselColumns = `id, mmsi, imo, name, flag, vessel_type, deadweight_tons,
	year_built, ais_class, flag_risk, pi_coverage, psc_detained_last_12m,
	mmsi_first_seen, laid_up_30d, laid_up_60d, laid_up_in_sts_zone,
	ice_class, ism_manager, pi_club, merged_into`

// CanonicalVessels returns every vessel with merged_into IS NULL,
// ordered by id ascending.
func (s *Store) CanonicalVessels() []models.Vessel {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE merged_into IS NULL ORDER BY id ASC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	vessels, err := pgx.CollectRows(rows, scanVessel)
	if err != nil {
		return nil
	}
	return vessels
}

// AllVessels returns every vessel row regardless of merge state.
func (s *Store) AllVessels() []models.Vessel {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels ORDER BY id ASC`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	vessels, err := pgx.CollectRows(rows, scanVessel)
	if err != nil {
		return nil
	}
	return vessels
}

func (s *Store) VesselByID(id int64) (models.Vessel, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE id = $1`, id)
	if err != nil {
		return models.Vessel{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.Vessel{}, false
	}
	v, err := scanVessel(rows)
	if err != nil {
		return models.Vessel{}, false
	}
	return v, true
}

func (s *Store) MergedIntoOf(id int64) (*int64, bool) {
	var mergedInto *int64
	err := s.pool.QueryRow(context.Background(),
		`SELECT merged_into FROM vessels WHERE id = $1`, id).Scan(&mergedInto)
	if err != nil {
		return nil, false
	}
	return mergedInto, true
}

// VesselByMMSI looks up a vessel by its broadcast MMSI. Satisfies
// external.VesselResolver.
func (s *Store) VesselByMMSI(mmsi string) (models.Vessel, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE mmsi = $1`, mmsi)
	if err != nil {
		return models.Vessel{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.Vessel{}, false
	}
	v, err := scanVessel(rows)
	if err != nil {
		return models.Vessel{}, false
	}
	return v, true
}

// VesselByIMO looks up a vessel by its hull-bound IMO number. Satisfies
// external.VesselResolver.
func (s *Store) VesselByIMO(imo string) (models.Vessel, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE imo = $1`, imo)
	if err != nil {
		return models.Vessel{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.Vessel{}, false
	}
	v, err := scanVessel(rows)
	if err != nil {
		return models.Vessel{}, false
	}
	return v, true
}

// VesselsByFlag returns every vessel flying flag, for fuzzy name matching
// scoped by a flag pre-filter. Satisfies external.VesselResolver.
func (s *Store) VesselsByFlag(flag string) []models.Vessel {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE flag = $1`, flag)
	if err != nil {
		return nil
	}
	defer rows.Close()
	vessels, err := pgx.CollectRows(rows, scanVessel)
	if err != nil {
		return nil
	}
	return vessels
}

// AllNamedVessels returns every vessel with a non-empty name, the
// unscoped candidate pool for name-only fuzzy matching. Satisfies
// external.VesselResolver.
func (s *Store) AllNamedVessels() []models.Vessel {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+vesselColumns+` FROM vessels WHERE name IS NOT NULL AND name != ''`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	vessels, err := pgx.CollectRows(rows, scanVessel)
	if err != nil {
		return nil
	}
	return vessels
}

func scanAISPoint(row pgx.CollectableRow) (models.AISPoint, error) {
	var p models.AISPoint
	var aisClass string
	err := row.Scan(&p.ID, &p.VesselID, &p.TimestampUTC, &p.Lat, &p.Lon, &p.SOG,
		&p.COG, &p.Heading, &p.Draught, &p.NavStatus, &aisClass)
	p.AISClass = models.AISClass(aisClass)
	return p, err
}

const aisPointColumns = `id, vessel_id, timestamp_utc, lat, lon, sog, cog, heading, draught, nav_status, ais_class`

// AISPointsFor returns a vessel's full AIS point history, ascending by
// timestamp.
func (s *Store) AISPointsFor(vesselID int64) []models.AISPoint {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+aisPointColumns+` FROM ais_points WHERE vessel_id = $1 ORDER BY timestamp_utc ASC`, vesselID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	points, err := pgx.CollectRows(rows, scanAISPoint)
	if err != nil {
		return nil
	}
	return points
}

func (s *Store) AISPointsSince(vesselID int64, since time.Time) []models.AISPoint {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+aisPointColumns+` FROM ais_points WHERE vessel_id = $1 AND timestamp_utc >= $2 ORDER BY timestamp_utc ASC`,
		vesselID, since)
	if err != nil {
		return nil
	}
	defer rows.Close()
	points, err := pgx.CollectRows(rows, scanAISPoint)
	if err != nil {
		return nil
	}
	return points
}

func (s *Store) LastAISPoint(vesselID int64) (models.AISPoint, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+aisPointColumns+` FROM ais_points WHERE vessel_id = $1 ORDER BY timestamp_utc DESC LIMIT 1`, vesselID)
	if err != nil {
		return models.AISPoint{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.AISPoint{}, false
	}
	p, err := scanAISPoint(rows)
	if err != nil {
		return models.AISPoint{}, false
	}
	return p, true
}

func (s *Store) FirstAISPoint(vesselID int64) (models.AISPoint, bool) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT `+aisPointColumns+` FROM ais_points WHERE vessel_id = $1 ORDER BY timestamp_utc ASC LIMIT 1`, vesselID)
	if err != nil {
		return models.AISPoint{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return models.AISPoint{}, false
	}
	p, err := scanAISPoint(rows)
	if err != nil {
		return models.AISPoint{}, false
	}
	return p, true
}

func (s *Store) HasAISSince(vesselID int64, since time.Time) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM ais_points WHERE vessel_id = $1 AND timestamp_utc >= $2)`,
		vesselID, since).Scan(&exists)
	return exists
}

func (s *Store) AllPointsClassA(vesselID int64, since time.Time) bool {
	var anyNonA bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM ais_points WHERE vessel_id = $1 AND timestamp_utc >= $2 AND ais_class <> 'A')`,
		vesselID, since).Scan(&anyNonA)
	return !anyNonA
}

func (s *Store) AveragePointsPerDay(vesselID int64, window time.Duration) float64 {
	var count int
	since := timeNowUTC().Add(-window)
	_ = s.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM ais_points WHERE vessel_id = $1 AND timestamp_utc >= $2`,
		vesselID, since).Scan(&count)
	days := window.Hours() / 24
	if days <= 0 {
		return 0
	}
	return float64(count) / days
}

func (s *Store) AISWithinNMOfRussianTerminal(vesselID int64, nm float64, window time.Duration) bool {
	since := timeNowUTC().Add(-window)
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(
			SELECT 1 FROM ais_points p
			JOIN ports port ON port.is_russian_oil_terminal
			WHERE p.vessel_id = $1 AND p.timestamp_utc >= $2
			AND haversine_nm(p.lat, p.lon, port.lat, port.lon) <= $3
		)`, vesselID, since, nm).Scan(&exists)
	return exists
}

func (s *Store) NearbyVesselCount(lat, lon, nm float64, window time.Duration, around time.Time) int {
	var count int
	start, end := around.Add(-window), around.Add(window)
	_ = s.pool.QueryRow(context.Background(), `
		SELECT COUNT(DISTINCT vessel_id) FROM ais_points
		WHERE timestamp_utc BETWEEN $1 AND $2
		AND haversine_nm(lat, lon, $3, $4) <= $5`,
		start, end, lat, lon, nm).Scan(&count)
	return count
}

func (s *Store) PositionMeanNear(vesselID int64, around time.Time, window time.Duration) (float64, float64, bool) {
	start, end := around.Add(-window), around.Add(window)
	var lat, lon *float64
	err := s.pool.QueryRow(context.Background(), `
		SELECT AVG(lat), AVG(lon) FROM ais_points
		WHERE vessel_id = $1 AND timestamp_utc BETWEEN $2 AND $3`,
		vesselID, start, end).Scan(&lat, &lon)
	if err != nil || lat == nil || lon == nil {
		return 0, 0, false
	}
	return *lat, *lon, true
}

func (s *Store) HasGapEvent(vesselID int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM gap_events WHERE vessel_id = $1)`, vesselID).Scan(&exists)
	return exists
}

func (s *Store) PortCallsDuring(vesselID int64, start, end time.Time) []models.PortCall {
	return s.portCallsWhere(`vessel_id = $1 AND arrival_utc BETWEEN $2 AND $3`, vesselID, start, end)
}

func (s *Store) PortCallsFor(vesselID int64) []models.PortCall {
	return s.portCallsWhere(`vessel_id = $1 ORDER BY arrival_utc ASC`, vesselID)
}

func (s *Store) portCallsWhere(where string, args ...any) []models.PortCall {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, vessel_id, port_id, arrival_utc, departure_utc, source FROM port_calls WHERE `+where, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var calls []models.PortCall
	for rows.Next() {
		var c models.PortCall
		if err := rows.Scan(&c.ID, &c.VesselID, &c.PortID, &c.ArrivalUTC, &c.DepartureUTC, &c.Source); err != nil {
			continue
		}
		calls = append(calls, c)
	}
	return calls
}

func (s *Store) EUPortCallCount(vesselID int64, since time.Time) int {
	var count int
	_ = s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM port_calls pc JOIN ports p ON p.id = pc.port_id
		WHERE pc.vessel_id = $1 AND pc.arrival_utc >= $2 AND p.is_eu`,
		vesselID, since).Scan(&count)
	return count
}

func (s *Store) LastPortDepartureBefore(vesselID int64, before time.Time) (time.Time, bool) {
	var t *time.Time
	err := s.pool.QueryRow(context.Background(), `
		SELECT MAX(departure_utc) FROM port_calls
		WHERE vessel_id = $1 AND departure_utc <= $2`, vesselID, before).Scan(&t)
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return *t, true
}

func (s *Store) PortByID(id int64) (models.Port, bool) {
	var p models.Port
	var lat, lon float64
	err := s.pool.QueryRow(context.Background(),
		`SELECT id, name, country, geometry, lat, lon, major_port, is_russian_oil_terminal, is_eu FROM ports WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Country, &p.Geometry, &lat, &lon, &p.MajorPort, &p.IsRussianOilTerminal, &p.IsEU)
	if err != nil {
		return models.Port{}, false
	}
	return p, true
}

func (s *Store) CorridorTypeByID(id int64) (models.CorridorType, bool) {
	var t string
	err := s.pool.QueryRow(context.Background(),
		`SELECT corridor_type FROM corridors WHERE id = $1`, id).Scan(&t)
	if err != nil {
		return "", false
	}
	return models.CorridorType(t), true
}

func (s *Store) MaxDraughtFor(vesselType string, dwt float64) (float64, bool) {
	var d float64
	err := s.pool.QueryRow(context.Background(),
		`SELECT max_draught_m FROM max_draught_table WHERE vessel_type = $1`, vesselType).Scan(&d)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (s *Store) WeatherAt(lat, lon float64, at time.Time) (float64, bool) {
	var wind float64
	err := s.pool.QueryRow(context.Background(), `
		SELECT wind_kn FROM weather_observations
		ORDER BY haversine_nm(lat, lon, $1, $2), ABS(EXTRACT(EPOCH FROM (observed_at - $3)))
		LIMIT 1`, lat, lon, at).Scan(&wind)
	if err != nil {
		return 0, false
	}
	return wind, true
}

func (s *Store) UpdateLaidUpFlags(vesselID int64, laidUp30d, laidUp60d, laidUpInSTSZone bool) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE vessels SET laid_up_30d = $2, laid_up_60d = $3, laid_up_in_sts_zone = $4 WHERE id = $1`,
		vesselID, laidUp30d, laidUp60d, laidUpInSTSZone)
	return err
}

func (s *Store) CanonicalVesselIDs() []int64 {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id FROM vessels WHERE merged_into IS NULL ORDER BY id ASC`)
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

// VesselIDsInAnyMergeChain returns every vessel ID referenced by an
// already-persisted merge_chains row, for the extended merge pass's
// chain-aware dark-pool seed.
func (s *Store) VesselIDsInAnyMergeChain() []int64 {
	rows, err := s.pool.Query(context.Background(),
		`SELECT DISTINCT unnest(vessel_ids) FROM merge_chains`)
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

func timeNowUTC() time.Time { return time.Now().UTC() }
