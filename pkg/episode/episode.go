// Package episode implements C10: a thin manager over the store's
// Episode CRUD, adding id assignment and the conversations() resolver
// spec 4.10 names. Grounded on the same thin-wrapper-over-store shape
// pkg/graphstore and pkg/temporal use for their own components.
package episode

import (
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/internal/store"
)

// Manager is C10's entry point.
type Manager struct {
	s *store.Store
}

func New(s *store.Store) *Manager {
	return &Manager{s: s}
}

// Open creates a new active episode starting now.
func (m *Manager) Open(title, eventType string, metadata map[string]any) (*store.Episode, error) {
	e := &store.Episode{
		ID:        uuid.NewString(),
		Title:     title,
		EventType: eventType,
		StartTime: time.Now().Unix(),
		IsActive:  true,
		Metadata:  metadata,
	}
	if err := m.s.CreateEpisode(nil, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get retrieves an episode by id.
func (m *Manager) Get(id string) (*store.Episode, error) {
	return m.s.GetEpisode(id)
}

// Current returns the most recently opened still-active episode, or
// nil if none is active (spec 4.10's current()).
func (m *Manager) Current() (*store.Episode, error) {
	return m.s.CurrentEpisode()
}

// Close closes id, returning alreadyClosed=true (not an error) if it
// was already closed — spec 4.10's idempotent close().
func (m *Manager) Close(id string) (alreadyClosed bool, err error) {
	return m.s.CloseEpisode(id, time.Now().Unix())
}

// List returns every episode, most recently started first.
func (m *Manager) List() ([]*store.Episode, error) {
	return m.s.ListEpisodes()
}

// Conversations resolves Memory documents whose messages carry
// episode_id = id — spec 4.10's conversations(id).
func (m *Manager) Conversations(id string) ([]*store.Memory, error) {
	return m.s.ListMemoriesByEpisode(id)
}

// RecordConversation bumps id's conversation_count by one, the
// bookkeeping side of linking a new conversation into an episode.
func (m *Manager) RecordConversation(id string) error {
	return m.s.IncrementConversationCount(id)
}
