package store

import (
	"database/sql"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// CreateMessage inserts a new message row. Messages are never mutated
// after creation (spec 3 Lifecycle); only InvalidateMessage may touch
// an existing row, and only its invalid_at column.
func (s *Store) CreateMessage(tx *sql.Tx, m *Message) error {
	exec := s.execer(tx)
	_, err := exec(`INSERT INTO messages
		(id, role, content, conversation_id, episode_id, previous_message_key, created_at, valid_at, invalid_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Role, m.Content, m.ConversationID, nullIfEmpty(m.EpisodeID), nullIfEmpty(m.PreviousMessageKey),
		m.CreatedAt, m.ValidAt, m.InvalidAt,
	)
	if err != nil {
		return classifyStorageErr("store.CreateMessage", err)
	}
	return nil
}

// GetMessage retrieves a message by id, or nil if not found.
func (s *Store) GetMessage(id string) (*Message, error) {
	row := s.QueryRow(`SELECT id, role, content, conversation_id, episode_id, previous_message_key,
		created_at, valid_at, invalid_at FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

// TailMessage returns the most recent (by created_at) message in
// conversationID, the read half of the memory agent's read-then-write
// previous_message_key chain (spec 5 Ordering guarantees).
func (s *Store) TailMessage(conversationID string) (*Message, error) {
	row := s.QueryRow(`SELECT id, role, content, conversation_id, episode_id, previous_message_key,
		created_at, valid_at, invalid_at FROM messages
		WHERE conversation_id = ? ORDER BY created_at DESC LIMIT 1`, conversationID)
	return scanMessage(row)
}

// ListMessages returns every message in conversationID in creation order.
func (s *Store) ListMessages(conversationID string) ([]*Message, error) {
	rows, err := s.Query(`SELECT id, role, content, conversation_id, episode_id, previous_message_key,
		created_at, valid_at, invalid_at FROM messages
		WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MessagesAtTime returns messages valid as of t in conversationID: the
// storage primitive behind C4's point-in-time query (spec 4.4).
func (s *Store) MessagesAtTime(conversationID string, t int64) ([]*Message, error) {
	rows, err := s.Query(`SELECT id, role, content, conversation_id, episode_id, previous_message_key,
		created_at, valid_at, invalid_at FROM messages
		WHERE conversation_id = ? AND valid_at <= ? AND (invalid_at IS NULL OR invalid_at > ?)
		ORDER BY created_at ASC`, conversationID, t, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InvalidateMessage sets invalid_at for id if currently null (spec 4.4
// invalidation). Returns errkind.InvariantViolation if already
// invalidated at an earlier time than t (double-invalidation with
// t >= existing invalid_at is a no-op, per spec).
func (s *Store) InvalidateMessage(id string, t int64) error {
	return invalidateRow(s, "messages", id, t)
}

func scanMessage(row *sql.Row) (*Message, error) {
	var m Message
	var episodeID, prevKey sql.NullString
	var invalidAt sql.NullInt64
	err := row.Scan(&m.ID, &m.Role, &m.Content, &m.ConversationID, &episodeID, &prevKey,
		&m.CreatedAt, &m.ValidAt, &invalidAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanMessage", err)
	}
	m.EpisodeID = episodeID.String
	m.PreviousMessageKey = prevKey.String
	if invalidAt.Valid {
		m.InvalidAt = &invalidAt.Int64
	}
	return &m, nil
}

func scanMessageRows(rows *sql.Rows) (*Message, error) {
	var m Message
	var episodeID, prevKey sql.NullString
	var invalidAt sql.NullInt64
	err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.ConversationID, &episodeID, &prevKey,
		&m.CreatedAt, &m.ValidAt, &invalidAt)
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanMessageRows", err)
	}
	m.EpisodeID = episodeID.String
	m.PreviousMessageKey = prevKey.String
	if invalidAt.Valid {
		m.InvalidAt = &invalidAt.Int64
	}
	return &m, nil
}
