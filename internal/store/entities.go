package store

import (
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

const entitySelect = `SELECT id, name, type, community_id, confidence, extra, created_at, updated_at FROM entities`

// InsertEntity inserts a brand-new entity row. Blending semantics for
// repeated mentions live in pkg/graphstore (C5); this is the raw
// storage primitive.
func (s *Store) InsertEntity(tx *sql.Tx, e *Entity) error {
	extra, err := json.Marshal(e.Extra)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.InsertEntity", err)
	}
	exec := s.execer(tx)
	_, err = exec(`INSERT INTO entities (id, name, type, community_id, confidence, extra, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Type, nullIfEmpty(e.CommunityID), e.Confidence, string(extra), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return classifyStorageErr("store.InsertEntity", err)
	}
	return nil
}

// UpdateEntity overwrites an existing entity row in place (entities are
// mutated on repeat mention, unlike messages/edges).
func (s *Store) UpdateEntity(tx *sql.Tx, e *Entity) error {
	extra, err := json.Marshal(e.Extra)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.UpdateEntity", err)
	}
	exec := s.execer(tx)
	_, err = exec(`UPDATE entities SET confidence = ?, community_id = ?, extra = ?, updated_at = ?
		WHERE id = ?`, e.Confidence, nullIfEmpty(e.CommunityID), string(extra), e.UpdatedAt, e.ID)
	if err != nil {
		return classifyStorageErr("store.UpdateEntity", err)
	}
	return nil
}

// GetEntity retrieves an entity by id, or nil if not found.
func (s *Store) GetEntity(id string) (*Entity, error) {
	row := s.QueryRow(entitySelect+` WHERE id = ?`, id)
	return scanEntity(row)
}

// GetEntityByNameType looks up an entity by its (name, type) unique key,
// the read half of C5's upsert_entity dedup check.
func (s *Store) GetEntityByNameType(name, typ string) (*Entity, error) {
	row := s.QueryRow(entitySelect+` WHERE name = ? AND type = ?`, name, typ)
	return scanEntity(row)
}

// ListEntities returns every entity, optionally filtered by type
// ("" means all types).
func (s *Store) ListEntities(typ string) ([]*Entity, error) {
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = s.Query(entitySelect)
	} else {
		rows, err = s.Query(entitySelect+` WHERE type = ?`, typ)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		e, err := scanEntityRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEntities returns the total entity count.
func (s *Store) CountEntities() (int, error) {
	var n int
	err := s.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&n)
	if err != nil {
		return 0, classifyStorageErr("store.CountEntities", err)
	}
	return n, nil
}

// SetEntityCommunity stamps entity id with communityID, the per-entity
// side of C11's community persistence step (spec 4.11 step 4).
func (s *Store) SetEntityCommunity(tx *sql.Tx, id, communityID string, updatedAt int64) error {
	exec := s.execer(tx)
	_, err := exec(`UPDATE entities SET community_id = ?, updated_at = ? WHERE id = ?`,
		nullIfEmpty(communityID), updatedAt, id)
	if err != nil {
		return classifyStorageErr("store.SetEntityCommunity", err)
	}
	return nil
}

func scanEntity(row *sql.Row) (*Entity, error) {
	var e Entity
	var communityID, extra sql.NullString
	err := row.Scan(&e.ID, &e.Name, &e.Type, &communityID, &e.Confidence, &extra, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanEntity", err)
	}
	e.CommunityID = communityID.String
	if extra.Valid && extra.String != "" {
		json.Unmarshal([]byte(extra.String), &e.Extra)
	}
	return &e, nil
}

func scanEntityRows(rows *sql.Rows) (*Entity, error) {
	var e Entity
	var communityID, extra sql.NullString
	if err := rows.Scan(&e.ID, &e.Name, &e.Type, &communityID, &e.Confidence, &extra, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanEntityRows", err)
	}
	e.CommunityID = communityID.String
	if extra.Valid && extra.String != "" {
		json.Unmarshal([]byte(extra.String), &e.Extra)
	}
	return &e, nil
}
