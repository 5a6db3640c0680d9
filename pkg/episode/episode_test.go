package episode

import (
	"testing"

	"github.com/kittclouds/memgraph/internal/store"
)

func newTestManager(t *testing.T) (*store.Store, *Manager) {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, New(s)
}

func TestOpenAndGet(t *testing.T) {
	_, m := newTestManager(t)

	e, err := m.Open("standup", "meeting", map[string]any{"room": "A"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected a generated id")
	}
	if !e.IsActive {
		t.Fatal("expected a freshly opened episode to be active")
	}

	got, err := m.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != "standup" {
		t.Fatalf("unexpected episode: %+v", got)
	}
}

func TestCurrent_MostRecentActive(t *testing.T) {
	s, m := newTestManager(t)

	first := &store.Episode{ID: "ep-first", Title: "first", EventType: "meeting", StartTime: 100, IsActive: true}
	if err := s.CreateEpisode(nil, first); err != nil {
		t.Fatalf("CreateEpisode first: %v", err)
	}
	second := &store.Episode{ID: "ep-second", Title: "second", EventType: "meeting", StartTime: 200, IsActive: true}
	if err := s.CreateEpisode(nil, second); err != nil {
		t.Fatalf("CreateEpisode second: %v", err)
	}

	cur, err := m.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur == nil || cur.ID != second.ID {
		t.Fatalf("expected most recently opened episode %s, got %+v", second.ID, cur)
	}

	if _, err := m.Close(second.ID); err != nil {
		t.Fatalf("Close second: %v", err)
	}
	cur, err = m.Current()
	if err != nil {
		t.Fatalf("Current after close: %v", err)
	}
	if cur == nil || cur.ID != first.ID {
		t.Fatalf("expected fallback to first episode %s, got %+v", first.ID, cur)
	}
}

func TestClose_Idempotent(t *testing.T) {
	_, m := newTestManager(t)

	e, err := m.Open("retro", "meeting", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	alreadyClosed, err := m.Close(e.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if alreadyClosed {
		t.Fatal("expected first close to report alreadyClosed=false")
	}

	alreadyClosed, err = m.Close(e.ID)
	if err != nil {
		t.Fatalf("second Close returned an error instead of a typed signal: %v", err)
	}
	if !alreadyClosed {
		t.Fatal("expected second close to report alreadyClosed=true")
	}
}

func TestConversations_ResolvesMemoriesByEpisode(t *testing.T) {
	s, m := newTestManager(t)

	e, err := m.Open("planning", "meeting", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	msg := &store.Message{
		ID: "msg-1", Role: "user", Content: "hello", ConversationID: "conv-1",
		EpisodeID: e.ID, CreatedAt: 100, ValidAt: 100,
	}
	if err := s.CreateMessage(nil, msg); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	mem := &store.Memory{
		ID: "mem-1", Content: "hello", Summary: "hello", ConversationID: "conv-1",
		CreatedAt: 100, ValidAt: 100,
	}
	if err := s.CreateMemory(nil, mem); err != nil {
		t.Fatalf("CreateMemory: %v", err)
	}

	if err := m.RecordConversation(e.ID); err != nil {
		t.Fatalf("RecordConversation: %v", err)
	}
	got, err := m.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ConversationCount != 1 {
		t.Errorf("expected conversation_count 1, got %d", got.ConversationCount)
	}

	mems, err := m.Conversations(e.ID)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(mems) != 1 || mems[0].ID != "mem-1" {
		t.Fatalf("expected memory mem-1, got %+v", mems)
	}
}

func TestList_MostRecentFirst(t *testing.T) {
	s, m := newTestManager(t)

	first := &store.Episode{ID: "ep-one", Title: "one", EventType: "meeting", StartTime: 100, IsActive: true}
	if err := s.CreateEpisode(nil, first); err != nil {
		t.Fatalf("CreateEpisode first: %v", err)
	}
	second := &store.Episode{ID: "ep-two", Title: "two", EventType: "meeting", StartTime: 200, IsActive: true}
	if err := s.CreateEpisode(nil, second); err != nil {
		t.Fatalf("CreateEpisode second: %v", err)
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
}
