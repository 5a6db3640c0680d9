package store

import (
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// CreateMemory inserts a new memory row, summarizing one or more messages.
func (s *Store) CreateMemory(tx *sql.Tx, m *Memory) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.CreateMemory", err)
	}
	exec := s.execer(tx)
	_, err = exec(`INSERT INTO memories
		(id, content, summary, conversation_id, metadata, created_at, valid_at, invalid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Content, m.Summary, m.ConversationID, string(meta), m.CreatedAt, m.ValidAt, m.InvalidAt,
	)
	if err != nil {
		return classifyStorageErr("store.CreateMemory", err)
	}
	return nil
}

// GetMemory retrieves a memory by id, or nil if not found.
func (s *Store) GetMemory(id string) (*Memory, error) {
	row := s.QueryRow(`SELECT id, content, summary, conversation_id, metadata,
		created_at, valid_at, invalid_at FROM memories WHERE id = ?`, id)
	return scanMemory(row)
}

// ListMemoriesByConversation returns every memory for conversationID in
// creation order.
func (s *Store) ListMemoriesByConversation(conversationID string) ([]*Memory, error) {
	rows, err := s.Query(`SELECT id, content, summary, conversation_id, metadata,
		created_at, valid_at, invalid_at FROM memories
		WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemoryRowsAll(rows)
}

// ListMemoriesByEpisode resolves Memory documents whose conversation's
// messages carry episode_id = episodeID — the storage half of C10's
// conversations(id) operation (spec 4.10).
func (s *Store) ListMemoriesByEpisode(episodeID string) ([]*Memory, error) {
	rows, err := s.Query(`SELECT DISTINCT m.id, m.content, m.summary, m.conversation_id, m.metadata,
		m.created_at, m.valid_at, m.invalid_at
		FROM memories m
		JOIN messages msg ON msg.conversation_id = m.conversation_id
		WHERE msg.episode_id = ?
		ORDER BY m.created_at ASC`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemoryRowsAll(rows)
}

// InvalidateMemory mirrors InvalidateMessage for the memories table.
func (s *Store) InvalidateMemory(id string, t int64) error {
	return invalidateRow(s, "memories", id, t)
}

func scanMemory(row *sql.Row) (*Memory, error) {
	var m Memory
	var summary sql.NullString
	var meta sql.NullString
	var invalidAt sql.NullInt64
	err := row.Scan(&m.ID, &m.Content, &summary, &m.ConversationID, &meta, &m.CreatedAt, &m.ValidAt, &invalidAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanMemory", err)
	}
	m.Summary = summary.String
	if meta.Valid && meta.String != "" {
		json.Unmarshal([]byte(meta.String), &m.Metadata)
	}
	if invalidAt.Valid {
		m.InvalidAt = &invalidAt.Int64
	}
	return &m, nil
}

func scanMemoryRowsAll(rows *sql.Rows) ([]*Memory, error) {
	var out []*Memory
	for rows.Next() {
		var m Memory
		var summary, meta sql.NullString
		var invalidAt sql.NullInt64
		if err := rows.Scan(&m.ID, &m.Content, &summary, &m.ConversationID, &meta, &m.CreatedAt, &m.ValidAt, &invalidAt); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.scanMemoryRowsAll", err)
		}
		m.Summary = summary.String
		if meta.Valid && meta.String != "" {
			json.Unmarshal([]byte(meta.String), &m.Metadata)
		}
		if invalidAt.Valid {
			m.InvalidAt = &invalidAt.Int64
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
