// Package temporal implements C4: point-in-time queries and
// invalidation over the bi-temporal columns internal/store persists
// (created_at, valid_at, invalid_at). The heavy lifting — the actual
// compare-and-set UPDATE — lives in internal/store; this package adds
// the invalidation-event bookkeeping spec 4.4 asks for on top of it.
package temporal

import (
	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/internal/store"
)

// Cause enumerates why something was invalidated, recorded alongside
// every invalidation event for audit/debugging.
type Cause string

const (
	CauseContradiction Cause = "contradiction"
	CauseCompaction    Cause = "compaction"
	CauseManual        Cause = "manual"
	CauseSuperseded    Cause = "superseded"
)

// Messages returns messages valid as of t in conversationID (spec
// 4.4's point-in-time query over the messages collection).
func Messages(s *store.Store, conversationID string, t int64) ([]*store.Message, error) {
	return s.MessagesAtTime(conversationID, t)
}

// Relationships returns edges from fromID valid as of t.
func Relationships(s *store.Store, fromID string, t int64) ([]*store.Relationship, error) {
	return s.RelationshipsAtTime(fromID, t)
}

// InvalidateMessage invalidates message id as of t and records the event.
func InvalidateMessage(s *store.Store, id string, t int64, cause Cause, actor string) error {
	if err := s.InvalidateMessage(id, t); err != nil {
		return err
	}
	return recordEvent(s, id, t, cause, actor)
}

// InvalidateMemory invalidates memory id as of t and records the event.
func InvalidateMemory(s *store.Store, id string, t int64, cause Cause, actor string) error {
	if err := s.InvalidateMemory(id, t); err != nil {
		return err
	}
	return recordEvent(s, id, t, cause, actor)
}

// InvalidateRelationship invalidates relationship id as of t, superseded
// by supersededBy (empty if none), and records the event only if this
// call actually won the compare-and-set race — a losing call is a
// silent no-op, per spec 5's ordering guarantees, and emits nothing.
func InvalidateRelationship(s *store.Store, id string, t int64, supersededBy string, cause Cause, actor string) (won bool, err error) {
	won, err = s.InvalidateRelationship(id, t, supersededBy)
	if err != nil || !won {
		return won, err
	}
	return won, recordEvent(s, id, t, cause, actor)
}

func recordEvent(s *store.Store, refKey string, t int64, cause Cause, actor string) error {
	return s.InsertInvalidationEvent(nil, &store.InvalidationEvent{
		ID:         uuid.NewString(),
		RefKey:     refKey,
		TEnd:       t,
		Cause:      string(cause),
		Actor:      actor,
		RecordedAt: t,
	})
}
