package db

import (
	"context"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

func (s *Store) ExistingCandidate(a, b int64) bool {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	var exists bool
	_ = s.pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM merge_candidates WHERE vessel_a_id = $1 AND vessel_b_id = $2)`,
		lo, hi).Scan(&exists)
	return exists
}

// HasOverlappingAIS reports whether the two vessels share any common
// 3600-second epoch bucket across all their AIS points, via a SQL
// INTERSECT of bucketed timestamps.
func (s *Store) HasOverlappingAIS(a, b int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(
			SELECT floor(extract(epoch FROM timestamp_utc) / 3600) FROM ais_points WHERE vessel_id = $1
			INTERSECT
			SELECT floor(extract(epoch FROM timestamp_utc) / 3600) FROM ais_points WHERE vessel_id = $2
		)`, a, b).Scan(&exists)
	return exists
}

func (s *Store) SaveMergeCandidate(c models.MergeCandidate) error {
	lo, hi := c.VesselAID, c.VesselBID
	if hi < lo {
		lo, hi = hi, lo
	}
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO merge_candidates (vessel_a_id, vessel_b_id, confidence_score, match_reasons, status, a_snapshot, b_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (vessel_a_id, vessel_b_id) DO UPDATE SET
			confidence_score = EXCLUDED.confidence_score, match_reasons = EXCLUDED.match_reasons,
			status = EXCLUDED.status`,
		lo, hi, c.ConfidenceScore, marshalJSONB(c.MatchReasons), string(c.Status),
		nullableSnapshot(c.ASnapshot), nullableSnapshot(c.BSnapshot))
	return err
}

func nullableSnapshot(snap *models.VesselSnapshot) []byte {
	if snap == nil {
		return nil
	}
	return marshalJSONB(snap)
}

func (s *Store) SpoofingAnomalyExistsForIMO(imo string, vesselIDs ...int64) bool {
	var exists bool
	_ = s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM spoofing_anomalies
			WHERE typology = 'imo_fraud' AND vessel_id = ANY($1) AND evidence->>'imo' = $2)`,
		vesselIDs, imo).Scan(&exists)
	return exists
}

func (s *Store) CanonicalVesselsSharingIMO() map[string][]int64 {
	rows, err := s.pool.Query(context.Background(), `
		SELECT imo, id FROM vessels
		WHERE merged_into IS NULL AND imo <> ''
		ORDER BY imo, id`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	grouped := make(map[string][]int64)
	for rows.Next() {
		var imo string
		var id int64
		if err := rows.Scan(&imo, &id); err != nil {
			continue
		}
		grouped[imo] = append(grouped[imo], id)
	}
	for imo, ids := range grouped {
		if len(ids) < 2 {
			delete(grouped, imo)
		}
	}
	return grouped
}

func (s *Store) SaveIMOFraudAnomaly(anomaly models.SpoofingAnomaly, vesselIDs []int64) error {
	for _, vid := range vesselIDs {
		a := anomaly
		a.VesselID = vid
		if err := s.SaveAnomaly(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PendingCandidatesWithSameIMODominant() []models.MergeCandidate {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, vessel_a_id, vessel_b_id, confidence_score, match_reasons, status,
			a_snapshot, b_snapshot, created_at
		FROM merge_candidates
		WHERE status = 'pending'
			AND confidence_score > 0
			AND COALESCE((match_reasons->>'same_imo')::numeric, 0) > confidence_score * 0.25`)
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

func (s *Store) RecapMergeCandidate(candidate models.MergeCandidate) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE merge_candidates SET confidence_score = $2, match_reasons = $3, status = $4
		WHERE id = $1`,
		candidate.ID, candidate.ConfidenceScore, marshalJSONB(candidate.MatchReasons), string(candidate.Status))
	return err
}

// --- merge execution ---

func (s *Store) ReassignWatchlist(canonicalID, absorbedID int64) (int, []map[string]any, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT id, vessel_id, source, match_confidence, matched_name, matched_on, listed_at
			FROM watchlist_matches WHERE vessel_id = $1`, absorbedID)
	if err != nil {
		return 0, nil, err
	}
	var deleted []map[string]any
	for rows.Next() {
		var id, vesselID int64
		var source, matchedName, matchedOn string
		var conf float64
		var listedAt time.Time
		if err := rows.Scan(&id, &vesselID, &source, &conf, &matchedName, &matchedOn, &listedAt); err == nil {
			deleted = append(deleted, map[string]any{
				"id": id, "vesselId": vesselID, "source": source, "matchConfidence": conf,
				"matchedName": matchedName, "matchedOn": matchedOn, "listedAt": listedAt,
			})
		}
	}
	rows.Close()

	tag, err := s.pool.Exec(context.Background(),
		`UPDATE watchlist_matches SET vessel_id = $1 WHERE vessel_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return 0, nil, err
	}
	return int(tag.RowsAffected()), deleted, nil
}

func (s *Store) ReassignSTSEvents(canonicalID, absorbedID int64) (int, []models.StsTransferEvent, error) {
	deleted := s.stsEventsWhere(`vessel1_id = $1 OR vessel2_id = $1`, absorbedID)

	tag1, err := s.pool.Exec(context.Background(),
		`UPDATE sts_transfer_events SET vessel1_id = $1 WHERE vessel1_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return 0, nil, err
	}
	tag2, err := s.pool.Exec(context.Background(),
		`UPDATE sts_transfer_events SET vessel2_id = $1 WHERE vessel2_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return 0, nil, err
	}
	return int(tag1.RowsAffected() + tag2.RowsAffected()), deleted, nil
}

func (s *Store) ReassignVesselHistory(canonicalID, absorbedID int64) (int, error) {
	tag, err := s.pool.Exec(context.Background(),
		`UPDATE vessel_history SET vessel_id = $1 WHERE vessel_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// SetOriginalVesselIDIfNull backfills the provenance sentinel (0 means
// unset, since the column is NOT NULL) to each vessel's own ID, for
// both sides of the pair — gap_events created before this rule existed
// never had original_vessel_id populated at all.
func (s *Store) SetOriginalVesselIDIfNull(canonicalID, absorbedID int64) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE gap_events SET original_vessel_id = vessel_id
		WHERE vessel_id IN ($1, $2) AND original_vessel_id = 0`, canonicalID, absorbedID)
	return err
}

// ReassignSimpleFKTables reassigns every remaining single-column
// vessel_id foreign key the other reassignment steps don't already
// own — port calls, loitering events, convoy pairs and spoofing
// anomalies — and deletes the merge candidates referencing the absorbed
// vessel.
func (s *Store) ReassignSimpleFKTables(canonicalID, absorbedID int64) (map[string]int, error) {
	counts := make(map[string]int)
	tag, err := s.pool.Exec(context.Background(),
		`UPDATE port_calls SET vessel_id = $1 WHERE vessel_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return nil, err
	}
	counts["port_calls"] = int(tag.RowsAffected())

	tag, err = s.pool.Exec(context.Background(),
		`UPDATE loitering_events SET vessel_id = $1 WHERE vessel_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return nil, err
	}
	counts["loitering_events"] = int(tag.RowsAffected())

	tag, err = s.pool.Exec(context.Background(),
		`UPDATE convoy_events SET vessel1_id = $1 WHERE vessel1_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return nil, err
	}
	tag2, err := s.pool.Exec(context.Background(),
		`UPDATE convoy_events SET vessel2_id = $1 WHERE vessel2_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return nil, err
	}
	counts["convoy_events"] = int(tag.RowsAffected() + tag2.RowsAffected())

	tag, err = s.pool.Exec(context.Background(),
		`UPDATE spoofing_anomalies SET vessel_id = $1 WHERE vessel_id = $2`, canonicalID, absorbedID)
	if err != nil {
		return nil, err
	}
	counts["spoofing_anomalies"] = int(tag.RowsAffected())

	_, err = s.pool.Exec(context.Background(),
		`DELETE FROM merge_candidates WHERE vessel_a_id = $1 OR vessel_b_id = $1`, absorbedID)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Store) ReassignAISPointsBatched(canonicalID, absorbedID int64, batchSize int) (int, int64, int64, error) {
	var minID, maxID *int64
	err := s.pool.QueryRow(context.Background(),
		`SELECT MIN(id), MAX(id) FROM ais_points WHERE vessel_id = $1`, absorbedID).Scan(&minID, &maxID)
	if err != nil {
		return 0, 0, 0, err
	}
	if minID == nil || maxID == nil {
		return 0, 0, 0, nil
	}
	total := 0
	for {
		tag, err := s.pool.Exec(context.Background(), `
			UPDATE ais_points SET vessel_id = $1
			WHERE id IN (SELECT id FROM ais_points WHERE vessel_id = $2 ORDER BY id LIMIT $3)`,
			canonicalID, absorbedID, batchSize)
		if err != nil {
			return total, *minID, *maxID, err
		}
		n := int(tag.RowsAffected())
		total += n
		if n < batchSize {
			break
		}
	}
	return total, *minID, *maxID, nil
}

// BackfillCanonicalMetadata fills the canonical vessel's blank imo, name,
// ism_manager, pi_club and ice_class from the absorbed one, without
// overwriting data the canonical already carries. Deadweight, year built
// and mmsi_first_seen are left as they are.
func (s *Store) BackfillCanonicalMetadata(canonicalID, absorbedID int64) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE vessels AS c SET
			imo = CASE WHEN c.imo = '' THEN a.imo ELSE c.imo END,
			name = CASE WHEN c.name = '' THEN a.name ELSE c.name END,
			ism_manager = CASE WHEN c.ism_manager = '' THEN a.ism_manager ELSE c.ism_manager END,
			pi_club = CASE WHEN c.pi_club = '' THEN a.pi_club ELSE c.pi_club END,
			ice_class = CASE WHEN c.ice_class = '' THEN a.ice_class ELSE c.ice_class END
		FROM vessels AS a
		WHERE c.id = $1 AND a.id = $2`, canonicalID, absorbedID)
	return err
}

func (s *Store) AppendVesselHistory(entry models.VesselHistory) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO vessel_history (vessel_id, field_changed, old_value, new_value, observed_at, source)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.VesselID, entry.FieldChanged, entry.OldValue, entry.NewValue, entry.ObservedAt, entry.Source)
	return err
}

func (s *Store) SetMergedInto(absorbedID, canonicalID int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE vessels SET merged_into = $1 WHERE id = $2`, canonicalID, absorbedID)
	return err
}

func (s *Store) ClearMergedInto(vesselID int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE vessels SET merged_into = NULL WHERE id = $1`, vesselID)
	return err
}

func (s *Store) AutoRejectPendingCandidatesReferencing(vesselID int64) (int, error) {
	tag, err := s.pool.Exec(context.Background(), `
		UPDATE merge_candidates SET status = 'rejected'
		WHERE status = 'pending' AND (vessel_a_id = $1 OR vessel_b_id = $1)`, vesselID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) PersistMergeOperation(op models.MergeOperation) (int64, error) {
	var id int64
	err := s.pool.QueryRow(context.Background(), `
		INSERT INTO merge_operations (canonical_vessel_id, absorbed_vessel_id, affected_records, executed_by, executed_at, status)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		op.CanonicalVesselID, op.AbsorbedVesselID, marshalJSONB(op.AffectedRecords),
		op.ExecutedBy, op.ExecutedAt, string(op.Status)).Scan(&id)
	return id, err
}

func (s *Store) AppendAuditLog(entry models.AuditLogEntry) error {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO audit_log (action, entity_type, entity_id, details, user_agent, ip_address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.Action, entry.EntityType, entry.EntityID, marshalJSONB(entry.Details),
		entry.UserAgent, entry.IPAddress, entry.CreatedAt)
	return err
}

func (s *Store) RescoreGapEventsForVessel(vesselID int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE gap_events SET risk_score = 0 WHERE vessel_id = $1`, vesselID)
	return err
}

// --- reverse merge ---

func (s *Store) MergeOperationByID(id int64) (models.MergeOperation, bool) {
	var op models.MergeOperation
	var affected []byte
	var status string
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, canonical_vessel_id, absorbed_vessel_id, affected_records, executed_by, executed_at, status
		FROM merge_operations WHERE id = $1`, id).
		Scan(&op.ID, &op.CanonicalVesselID, &op.AbsorbedVesselID, &affected, &op.ExecutedBy, &op.ExecutedAt, &status)
	if err != nil {
		return models.MergeOperation{}, false
	}
	op.Status = models.MergeOperationStatus(status)
	unmarshalJSONB(affected, &op.AffectedRecords)
	return op, true
}

func (s *Store) ReactivateVessel(vesselID int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE vessels SET merged_into = NULL WHERE id = $1`, vesselID)
	return err
}

// RestoreSnapshottedRows best-effort re-inserts the watchlist and STS
// rows captured in the merge operation's AffectedRecords snapshot. AIS
// points are never split back; that limitation is enforced by
// ReverseMerge's pre-check before any of this runs.
func (s *Store) RestoreSnapshottedRows(op models.MergeOperation) error {
	for _, row := range op.AffectedRecords.DeletedWatchlistRows {
		listedAt, _ := time.Parse(time.RFC3339, stringField(row["listedAt"]))
		_, err := s.pool.Exec(context.Background(), `
			INSERT INTO watchlist_matches (vessel_id, source, match_confidence, matched_name, matched_on, listed_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			op.AbsorbedVesselID, row["source"], row["matchConfidence"], row["matchedName"],
			row["matchedOn"], listedAt)
		if err != nil {
			return err
		}
	}
	for _, e := range op.AffectedRecords.DeletedSTSRows {
		if _, err := s.SaveSTSEvent(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RemoveVesselHistoryEntry(vesselID int64, fieldChanged string) error {
	_, err := s.pool.Exec(context.Background(),
		`DELETE FROM vessel_history WHERE vessel_id = $1 AND field_changed = $2`, vesselID, fieldChanged)
	return err
}

// ClearEvidenceCardProvenance undoes SetOriginalVesselIDIfNull's
// backfill for the reactivated vessel's own gaps, restoring the
// pre-merge "unset" sentinel.
func (s *Store) ClearEvidenceCardProvenance(vesselID int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE gap_events SET original_vessel_id = 0 WHERE vessel_id = $1 AND original_vessel_id = $1`, vesselID)
	return err
}

func (s *Store) MarkMergeOperationReversed(id int64) error {
	_, err := s.pool.Exec(context.Background(),
		`UPDATE merge_operations SET status = 'reversed' WHERE id = $1`, id)
	return err
}

// stringField recovers a string from a JSON-round-tripped map[string]any
// value (DeletedWatchlistRows is marshaled to JSONB and back as part of
// the merge operation snapshot, so a time.Time becomes an RFC3339 string).
func stringField(v any) string {
	s, _ := v.(string)
	return s
}
