package store

import (
	"context"
	"database/sql"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// ReplaceCommunities truncates the communities collection and inserts
// the given set, then stamps every (entityID -> communityID) pair,
// all inside one transaction — spec 4.11 step 4: "truncate the
// communities collection, insert one record per community, stamp
// every entity with its community_id."
func (s *Store) ReplaceCommunities(communities []*Community, assignments map[string]string, updatedAt int64) error {
	return s.Transaction(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM communities`); err != nil {
			return classifyStorageErr("store.ReplaceCommunities", err)
		}
		if _, err := tx.Exec(`UPDATE entities SET community_id = NULL`); err != nil {
			return classifyStorageErr("store.ReplaceCommunities", err)
		}
		for _, c := range communities {
			if _, err := tx.Exec(`INSERT INTO communities (id, member_count, modularity, created_at)
				VALUES (?, ?, ?, ?)`, c.ID, c.MemberCount, c.Modularity, c.CreatedAt); err != nil {
				return classifyStorageErr("store.ReplaceCommunities", err)
			}
		}
		for entityID, communityID := range assignments {
			if _, err := tx.Exec(`UPDATE entities SET community_id = ?, updated_at = ? WHERE id = ?`,
				communityID, updatedAt, entityID); err != nil {
				return classifyStorageErr("store.ReplaceCommunities", err)
			}
		}
		return nil
	})
}

// ListCommunities returns every persisted community.
func (s *Store) ListCommunities() ([]*Community, error) {
	rows, err := s.Query(`SELECT id, member_count, modularity, created_at FROM communities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.MemberCount, &c.Modularity, &c.CreatedAt); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "store.ListCommunities", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
