package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// Snapshot is the full-database export shape, generalizing the
// teacher's Export()/Import() (notes/entities/edges/folders) to the
// bi-temporal schema: every collection spec 6 names. Not required by
// spec.md's distillation, but present in the original Python source
// and cheap to carry — useful for tests and for operators migrating
// between storage backends (see SPEC_FULL.md 5).
type Snapshot struct {
	Messages           []*Message               `json:"messages"`
	Memories           []*Memory                `json:"memories"`
	Entities           []*Entity                `json:"entities"`
	Relationships      []*Relationship          `json:"relationships"`
	Communities        []*Community             `json:"communities"`
	Episodes           []*Episode               `json:"episodes"`
	Compactions        []*Compaction            `json:"compactions"`
	ContradictionLog   []*ContradictionLogEntry `json:"contradiction_log"`
	InvalidationEvents []*InvalidationEvent     `json:"invalidation_events"`
}

// Export serializes every collection in Snapshot to JSON, including
// relationships that have already been invalidated. The vec0 embedding
// tables are not included.
func (s *Store) Export() ([]byte, error) {
	var snap Snapshot
	var err error

	rows, err := s.Query(`SELECT DISTINCT conversation_id FROM messages`)
	if err != nil {
		return nil, err
	}
	var conversationIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errkind.New(errkind.PermanentStorage, "store.Export", err)
		}
		conversationIDs = append(conversationIDs, id)
	}
	rows.Close()

	for _, cid := range conversationIDs {
		msgs, err := s.ListMessages(cid)
		if err != nil {
			return nil, err
		}
		snap.Messages = append(snap.Messages, msgs...)

		mems, err := s.ListMemoriesByConversation(cid)
		if err != nil {
			return nil, err
		}
		snap.Memories = append(snap.Memories, mems...)

		comps, err := s.ListCompactions(cid)
		if err != nil {
			return nil, err
		}
		snap.Compactions = append(snap.Compactions, comps...)
	}

	if snap.Entities, err = s.ListEntities(""); err != nil {
		return nil, err
	}
	relRows, err := s.Query(relationshipSelect + ` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	snap.Relationships, err = scanRelationshipRowsAll(relRows)
	relRows.Close()
	if err != nil {
		return nil, err
	}
	if snap.Communities, err = s.ListCommunities(); err != nil {
		return nil, err
	}
	if snap.Episodes, err = s.ListEpisodes(); err != nil {
		return nil, err
	}
	if snap.ContradictionLog, err = s.ListContradictionLog(); err != nil {
		return nil, err
	}
	if snap.InvalidationEvents, err = s.ListAllInvalidationEvents(); err != nil {
		return nil, err
	}

	return json.Marshal(snap)
}

// Restore replaces the database's contents with a previously exported
// snapshot, inside a single transaction.
func (s *Store) Restore(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errkind.New(errkind.ValidationFailed, "store.Restore", err)
	}

	return s.Transaction(context.Background(), func(tx *sql.Tx) error {
		for _, table := range []string{
			"messages", "memories", "entities", "relationships",
			"communities", "episodes", "compactions", "contradiction_log",
			"invalidation_events",
		} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return classifyStorageErr("store.Restore", err)
			}
		}

		for _, m := range snap.Messages {
			if err := s.CreateMessage(tx, m); err != nil {
				return err
			}
		}
		for _, m := range snap.Memories {
			if err := s.CreateMemory(tx, m); err != nil {
				return err
			}
		}
		for _, e := range snap.Entities {
			if err := s.InsertEntity(tx, e); err != nil {
				return err
			}
		}
		for _, r := range snap.Relationships {
			if err := s.InsertRelationship(tx, r); err != nil {
				return err
			}
		}
		for _, c := range snap.Communities {
			if _, err := tx.Exec(`INSERT INTO communities (id, member_count, modularity, created_at)
				VALUES (?, ?, ?, ?)`, c.ID, c.MemberCount, c.Modularity, c.CreatedAt); err != nil {
				return classifyStorageErr("store.Restore", err)
			}
		}
		for _, e := range snap.Episodes {
			if err := s.CreateEpisode(tx, e); err != nil {
				return err
			}
		}
		for _, c := range snap.Compactions {
			if err := s.InsertCompaction(tx, c); err != nil {
				return err
			}
		}
		for _, l := range snap.ContradictionLog {
			if err := s.InsertContradictionLog(tx, l); err != nil {
				return err
			}
		}
		for _, ev := range snap.InvalidationEvents {
			if err := s.InsertInvalidationEvent(tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
}
