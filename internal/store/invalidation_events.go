package store

import (
	"database/sql"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// InvalidationEvent is the event record spec 4.4's invalidation
// operation emits: "(key, t_end, cause, actor)".
type InvalidationEvent struct {
	ID         string
	RefKey     string
	TEnd       int64
	Cause      string
	Actor      string
	RecordedAt int64
}

// InsertInvalidationEvent records one invalidation event.
func (s *Store) InsertInvalidationEvent(tx *sql.Tx, e *InvalidationEvent) error {
	exec := s.execer(tx)
	_, err := exec(`INSERT INTO invalidation_events (id, ref_key, t_end, cause, actor, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.RefKey, e.TEnd, e.Cause, nullIfEmpty(e.Actor), e.RecordedAt,
	)
	if err != nil {
		return classifyStorageErr("store.InsertInvalidationEvent", err)
	}
	return nil
}

// ListInvalidationEvents returns every event recorded for refKey, oldest first.
func (s *Store) ListInvalidationEvents(refKey string) ([]*InvalidationEvent, error) {
	rows, err := s.Query(`SELECT id, ref_key, t_end, cause, actor, recorded_at
		FROM invalidation_events WHERE ref_key = ? ORDER BY recorded_at ASC`, refKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvalidationEventRows(rows)
}

// ListAllInvalidationEvents returns every recorded event, oldest first —
// used by Export.
func (s *Store) ListAllInvalidationEvents() ([]*InvalidationEvent, error) {
	rows, err := s.Query(`SELECT id, ref_key, t_end, cause, actor, recorded_at
		FROM invalidation_events ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvalidationEventRows(rows)
}

func scanInvalidationEventRows(rows *sql.Rows) ([]*InvalidationEvent, error) {
	var out []*InvalidationEvent
	for rows.Next() {
		var e InvalidationEvent
		var actor sql.NullString
		if err := rows.Scan(&e.ID, &e.RefKey, &e.TEnd, &e.Cause, &actor, &e.RecordedAt); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.scanInvalidationEventRows", err)
		}
		e.Actor = actor.String
		out = append(out, &e)
	}
	return out, rows.Err()
}
