package store

import (
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// CreateEpisode inserts a new, active episode.
func (s *Store) CreateEpisode(tx *sql.Tx, e *Episode) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return errkind.New(errkind.ValidationFailed, "store.CreateEpisode", err)
	}
	exec := s.execer(tx)
	_, err = exec(`INSERT INTO episodes
		(id, title, event_type, start_time, end_time, is_active, conversation_count, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.EventType, e.StartTime, e.EndTime, boolToInt(e.IsActive), e.ConversationCount, string(meta),
	)
	if err != nil {
		return classifyStorageErr("store.CreateEpisode", err)
	}
	return nil
}

// GetEpisode retrieves an episode by id, or nil if not found.
func (s *Store) GetEpisode(id string) (*Episode, error) {
	row := s.QueryRow(episodeSelect+` WHERE id = ?`, id)
	return scanEpisode(row)
}

const episodeSelect = `SELECT id, title, event_type, start_time, end_time, is_active, conversation_count, metadata FROM episodes`

// CurrentEpisode returns the most recently opened still-active episode,
// or nil if none is active — spec 4.10's current().
func (s *Store) CurrentEpisode() (*Episode, error) {
	row := s.QueryRow(episodeSelect + ` WHERE is_active = 1 ORDER BY start_time DESC LIMIT 1`)
	return scanEpisode(row)
}

// CloseEpisode sets end_time and is_active=false. Returns
// alreadyClosed=true (not an error) if the episode was already closed,
// per spec 4.10's "idempotent w.r.t. already-closed episodes".
func (s *Store) CloseEpisode(id string, endTime int64) (alreadyClosed bool, err error) {
	var isActive int
	err = s.QueryRow(`SELECT is_active FROM episodes WHERE id = ?`, id).Scan(&isActive)
	if err == sql.ErrNoRows {
		return false, errkind.New(errkind.NotFound, "store.CloseEpisode", nil)
	}
	if err != nil {
		return false, classifyStorageErr("store.CloseEpisode", err)
	}
	if isActive == 0 {
		return true, nil
	}
	_, err = s.Exec(`UPDATE episodes SET end_time = ?, is_active = 0 WHERE id = ?`, endTime, id)
	if err != nil {
		return false, classifyStorageErr("store.CloseEpisode", err)
	}
	return false, nil
}

// ListEpisodes returns every episode, most recently started first.
func (s *Store) ListEpisodes() ([]*Episode, error) {
	rows, err := s.Query(episodeSelect + ` ORDER BY start_time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Episode
	for rows.Next() {
		e, err := scanEpisodeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IncrementConversationCount bumps an episode's conversation_count by one.
func (s *Store) IncrementConversationCount(id string) error {
	_, err := s.Exec(`UPDATE episodes SET conversation_count = conversation_count + 1 WHERE id = ?`, id)
	if err != nil {
		return classifyStorageErr("store.IncrementConversationCount", err)
	}
	return nil
}

func scanEpisode(row *sql.Row) (*Episode, error) {
	var e Episode
	var title, eventType, meta sql.NullString
	var endTime sql.NullInt64
	var isActive int
	err := row.Scan(&e.ID, &title, &eventType, &e.StartTime, &endTime, &isActive, &e.ConversationCount, &meta)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanEpisode", err)
	}
	e.Title = title.String
	e.EventType = eventType.String
	e.IsActive = isActive != 0
	if endTime.Valid {
		e.EndTime = &endTime.Int64
	}
	if meta.Valid && meta.String != "" {
		json.Unmarshal([]byte(meta.String), &e.Metadata)
	}
	return &e, nil
}

func scanEpisodeRows(rows *sql.Rows) (*Episode, error) {
	var e Episode
	var title, eventType, meta sql.NullString
	var endTime sql.NullInt64
	var isActive int
	err := rows.Scan(&e.ID, &title, &eventType, &e.StartTime, &endTime, &isActive, &e.ConversationCount, &meta)
	if err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "store.scanEpisodeRows", err)
	}
	e.Title = title.String
	e.EventType = eventType.String
	e.IsActive = isActive != 0
	if endTime.Valid {
		e.EndTime = &endTime.Int64
	}
	if meta.Valid && meta.String != "" {
		json.Unmarshal([]byte(meta.String), &e.Metadata)
	}
	return &e, nil
}
