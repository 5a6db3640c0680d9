package store

import (
	"database/sql"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// InsertContradictionLog writes one resolution-decision record (spec 4.6).
func (s *Store) InsertContradictionLog(tx *sql.Tx, e *ContradictionLogEntry) error {
	exec := s.execer(tx)
	_, err := exec(`INSERT INTO contradiction_log
		(id, new_edge_id, existing_edge_id, strategy, action, success, reason, context, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.NewEdgeID, e.ExistingEdgeID, e.Strategy, e.Action, boolToInt(e.Success), e.Reason, e.Context, e.Timestamp,
	)
	if err != nil {
		return classifyStorageErr("store.InsertContradictionLog", err)
	}
	return nil
}

// ListContradictionLog returns every contradiction log entry, oldest first.
func (s *Store) ListContradictionLog() ([]*ContradictionLogEntry, error) {
	rows, err := s.Query(`SELECT id, new_edge_id, existing_edge_id, strategy, action, success, reason, context, timestamp
		FROM contradiction_log ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ContradictionLogEntry
	for rows.Next() {
		var e ContradictionLogEntry
		var success int
		if err := rows.Scan(&e.ID, &e.NewEdgeID, &e.ExistingEdgeID, &e.Strategy, &e.Action, &success,
			&e.Reason, &e.Context, &e.Timestamp); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.ListContradictionLog", err)
		}
		e.Success = success != 0
		out = append(out, &e)
	}
	return out, rows.Err()
}
