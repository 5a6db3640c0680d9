package store

import (
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// InsertCompaction inserts a Compaction Record (spec 3, spec 4.12).
func (s *Store) InsertCompaction(tx *sql.Tx, c *Compaction) error {
	keys, err := json.Marshal(c.SourceKeys)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.InsertCompaction", err)
	}
	exec := s.execer(tx)
	_, err = exec(`INSERT INTO compactions (id, conversation_id, source_keys, summary, created_at, valid_at, invalid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ConversationID, string(keys), c.Summary, c.CreatedAt, c.ValidAt, c.InvalidAt,
	)
	if err != nil {
		return classifyStorageErr("store.InsertCompaction", err)
	}
	return nil
}

// ListCompactions returns every compaction record for conversationID.
func (s *Store) ListCompactions(conversationID string) ([]*Compaction, error) {
	rows, err := s.Query(`SELECT id, conversation_id, source_keys, summary, created_at, valid_at, invalid_at
		FROM compactions WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Compaction
	for rows.Next() {
		var c Compaction
		var keys string
		var invalidAt sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ConversationID, &keys, &c.Summary, &c.CreatedAt, &c.ValidAt, &invalidAt); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.ListCompactions", err)
		}
		json.Unmarshal([]byte(keys), &c.SourceKeys)
		if invalidAt.Valid {
			c.InvalidAt = &invalidAt.Int64
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
