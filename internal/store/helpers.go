package store

import (
	"database/sql"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// execer returns tx.Exec when called inside a Store.Transaction, or
// s.Exec (which takes its own lock) otherwise, so every CRUD method
// can be called either standalone or as a step of a larger transaction
// without duplicating itself.
func (s *Store) execer(tx *sql.Tx) func(query string, args ...any) (sql.Result, error) {
	if tx != nil {
		return tx.Exec
	}
	return s.Exec
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// invalidateRow implements spec 4.4's invalidation primitive for any
// table shaped (id, invalid_at): set invalid_at = t if currently null;
// double-invalidation is a no-op when t >= existing invalid_at,
// otherwise an invariant-violation.
func invalidateRow(s *Store, table, id string, t int64) error {
	var existing sql.NullInt64
	err := s.QueryRow(`SELECT invalid_at FROM `+table+` WHERE id = ?`, id).Scan(&existing)
	if err == sql.ErrNoRows {
		return errkind.New(errkind.NotFound, "store.invalidateRow", nil)
	}
	if err != nil {
		return classifyStorageErr("store.invalidateRow", err)
	}

	if existing.Valid {
		if t >= existing.Int64 {
			return nil // no-op, already invalidated at or before t
		}
		return errkind.New(errkind.InvariantViolation, "store.invalidateRow", nil)
	}

	res, err := s.Exec(`UPDATE `+table+` SET invalid_at = ? WHERE id = ? AND invalid_at IS NULL`, t, id)
	if err != nil {
		return classifyStorageErr("store.invalidateRow", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Lost the compare-and-set race (spec 5 ordering guarantees):
		// someone else invalidated it first. Treat as a no-op, not an
		// error, the same as the t >= existing case above.
		return nil
	}
	return nil
}
