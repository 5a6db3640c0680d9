package store

import (
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// InsertRelationship inserts a new edge row.
func (s *Store) InsertRelationship(tx *sql.Tx, r *Relationship) error {
	attrs, err := json.Marshal(r.Attributes)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.InsertRelationship", err)
	}
	exec := s.execer(tx)
	_, err = exec(`INSERT INTO relationships
		(id, from_id, to_id, type, attributes, rationale, confidence, weight,
		 invalidated_by, review_status, created_at, valid_at, invalid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.FromID, r.ToID, r.Type, string(attrs), r.Rationale, r.Confidence, r.Weight,
		nullIfEmpty(r.InvalidatedBy), string(r.ReviewStatus), r.CreatedAt, r.ValidAt, r.InvalidAt,
	)
	if err != nil {
		return classifyStorageErr("store.InsertRelationship", err)
	}
	return nil
}

// GetRelationship retrieves an edge by id, or nil if not found.
func (s *Store) GetRelationship(id string) (*Relationship, error) {
	row := s.QueryRow(relationshipSelect+` WHERE id = ?`, id)
	return scanRelationship(row)
}

const relationshipSelect = `SELECT id, from_id, to_id, type, attributes, rationale, confidence, weight,
	invalidated_by, review_status, created_at, valid_at, invalid_at FROM relationships`

// ListValidFromType returns every currently-valid (invalid_at IS NULL)
// edge with the given from_id and type: the set S the contradiction
// engine's detection step reads (spec 4.6).
func (s *Store) ListValidFromType(fromID, typ string) ([]*Relationship, error) {
	rows, err := s.Query(relationshipSelect+`
		WHERE from_id = ? AND type = ? AND invalid_at IS NULL
		ORDER BY created_at ASC`, fromID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationshipRowsAll(rows)
}

// ListRelationshipsForEntity returns every edge touching entityID, in
// either direction, used for graph traversal (C7) and community
// detection (C11) adjacency construction.
func (s *Store) ListRelationshipsForEntity(entityID string) ([]*Relationship, error) {
	rows, err := s.Query(relationshipSelect+`
		WHERE (from_id = ? OR to_id = ?) AND invalid_at IS NULL
		ORDER BY created_at ASC`, entityID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationshipRowsAll(rows)
}

// ListValidRelationships returns every currently-valid edge, the base
// graph C11's community detector clusters over.
func (s *Store) ListValidRelationships() ([]*Relationship, error) {
	rows, err := s.Query(relationshipSelect + ` WHERE invalid_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationshipRowsAll(rows)
}

// RelationshipsAtTime is C4's point-in-time query for edges (spec 4.4):
// valid_at <= t AND (invalid_at IS NULL OR invalid_at > t).
func (s *Store) RelationshipsAtTime(fromID string, t int64) ([]*Relationship, error) {
	rows, err := s.Query(relationshipSelect+`
		WHERE from_id = ? AND valid_at <= ? AND (invalid_at IS NULL OR invalid_at > ?)
		ORDER BY created_at ASC`, fromID, t, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRelationshipRowsAll(rows)
}

// InvalidateRelationship is the compare-and-set spec 5 requires: it
// only sets invalid_at when it is currently NULL, so two racing
// resolutions on the same incumbent edge never both "win". Returns true
// only when this call changed the row (false means the race was lost or
// the edge was already invalid — caller treats that as a no-op per spec
// 4.4). An already-invalid edge is only
// a no-op when t is at or after its existing invalid_at; an earlier t
// is an invariant violation, matching invalidateRow's rule.
func (s *Store) InvalidateRelationship(id string, t int64, supersededBy string) (bool, error) {
	var existing sql.NullInt64
	err := s.QueryRow(`SELECT invalid_at FROM relationships WHERE id = ?`, id).Scan(&existing)
	if err == sql.ErrNoRows {
		return false, errkind.New(errkind.NotFound, "store.InvalidateRelationship", nil)
	}
	if err != nil {
		return false, classifyStorageErr("store.InvalidateRelationship", err)
	}
	if existing.Valid {
		if t >= existing.Int64 {
			return false, nil // no-op, already invalidated at or before t
		}
		return false, errkind.New(errkind.InvariantViolation, "store.InvalidateRelationship", nil)
	}

	res, err := s.Exec(`UPDATE relationships SET invalid_at = ?, invalidated_by = ?
		WHERE id = ? AND invalid_at IS NULL`, t, nullIfEmpty(supersededBy), id)
	if err != nil {
		return false, classifyStorageErr("store.InvalidateRelationship", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetAttributes overwrites a relationship's attributes blob, used by
// the contradiction engine's manual policy to attach cross-references
// onto an already-inserted incumbent edge.
func (s *Store) SetAttributes(id string, attrs map[string]any) error {
	b, err := json.Marshal(attrs)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.SetAttributes", err)
	}
	_, err = s.Exec(`UPDATE relationships SET attributes = ? WHERE id = ?`, string(b), id)
	if err != nil {
		return classifyStorageErr("store.SetAttributes", err)
	}
	return nil
}

// SetReviewStatus updates a relationship's review_status, used by the
// manual resolution policy and by re-review workflows.
func (s *Store) SetReviewStatus(id string, status ReviewStatus) error {
	_, err := s.Exec(`UPDATE relationships SET review_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return classifyStorageErr("store.SetReviewStatus", err)
	}
	return nil
}

func scanRelationship(row *sql.Row) (*Relationship, error) {
	var r Relationship
	var attrs sql.NullString
	var invalidatedBy sql.NullString
	var reviewStatus string
	var invalidAt sql.NullInt64
	err := row.Scan(&r.ID, &r.FromID, &r.ToID, &r.Type, &attrs, &r.Rationale, &r.Confidence, &r.Weight,
		&invalidatedBy, &reviewStatus, &r.CreatedAt, &r.ValidAt, &invalidAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanRelationship", err)
	}
	if attrs.Valid && attrs.String != "" {
		json.Unmarshal([]byte(attrs.String), &r.Attributes)
	}
	r.InvalidatedBy = invalidatedBy.String
	r.ReviewStatus = ReviewStatus(reviewStatus)
	if invalidAt.Valid {
		r.InvalidAt = &invalidAt.Int64
	}
	return &r, nil
}

func scanRelationshipRowsAll(rows *sql.Rows) ([]*Relationship, error) {
	var out []*Relationship
	for rows.Next() {
		var r Relationship
		var attrs, invalidatedBy sql.NullString
		var reviewStatus string
		var invalidAt sql.NullInt64
		if err := rows.Scan(&r.ID, &r.FromID, &r.ToID, &r.Type, &attrs, &r.Rationale, &r.Confidence, &r.Weight,
			&invalidatedBy, &reviewStatus, &r.CreatedAt, &r.ValidAt, &invalidAt); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.scanRelationshipRowsAll", err)
		}
		if attrs.Valid && attrs.String != "" {
			json.Unmarshal([]byte(attrs.String), &r.Attributes)
		}
		r.InvalidatedBy = invalidatedBy.String
		r.ReviewStatus = ReviewStatus(reviewStatus)
		if invalidAt.Valid {
			r.InvalidAt = &invalidAt.Int64
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
