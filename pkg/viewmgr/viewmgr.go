// Package viewmgr manages FTS5 search views the way the original
// ArangoDB-backed system manages ArangoSearch views: a configuration
// object names a collection and a fieldset; under CheckConfig the
// manager recreates the backing virtual table only when the requested
// configuration differs from the one this Manager last applied (C3,
// spec 4.3). The live table's configuration is not read back, so an
// existing view with no cached configuration is recreated.
package viewmgr

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/internal/store"
)

var log = logx.New("viewmgr")

// Config is a search view's configuration object: the collection it
// indexes and the fields carried into the index.
type Config struct {
	Collection string
	Fields     []string
}

// normalize produces a canonical string for comparison: sorted field
// names, joined — logically-equivalent configurations (field order
// doesn't matter) hash identically, mirroring the source's
// json.dumps(properties, sort_keys=True).
func (c Config) normalize() string {
	fields := append([]string(nil), c.Fields...)
	sort.Strings(fields)
	b, _ := json.Marshal(struct {
		Collection string   `json:"collection"`
		Fields     []string `json:"fields"`
	}{c.Collection, fields})
	return string(b)
}

// Manager is the process-global view-configuration cache: the only
// other piece of bounded global mutable state alongside the embedding
// cache (spec 9).
type Manager struct {
	s *store.Store

	mu    sync.RWMutex
	cache map[string]string // "db:view" -> normalized config

	group singleflight.Group
}

// New builds a Manager backed by s. EnsureView's dbName argument
// distinguishes cache entries when a process manages more than one
// database.
func New(s *store.Store) *Manager {
	return &Manager{s: s, cache: make(map[string]string)}
}

func cacheKey(dbName, viewName string) string {
	return dbName + ":" + viewName
}

// EnsureView creates or updates the FTS5 virtual table backing
// viewName per policy (spec 4.3):
//   - NeverRecreate: if the view exists, return.
//   - AlwaysRecreate: delete and recreate unconditionally.
//   - CheckConfig (default): compare the normalized requested
//     configuration with the one cached for this view; recreate on
//     mismatch, or when the view exists but nothing is cached for it
//     (a new Manager, or after Clear).
//
// Concurrent calls for the same (dbName, viewName) are coalesced via
// singleflight so a cache-miss storm doesn't recreate the same view
// more than once.
func (m *Manager) EnsureView(ctx context.Context, dbName, viewName string, cfg Config, policy config.ViewUpdatePolicy) error {
	key := cacheKey(dbName, viewName)

	_, err, _ := m.group.Do(key, func() (any, error) {
		return nil, m.ensureView(viewName, cfg, policy, key)
	})
	return err
}

func (m *Manager) ensureView(viewName string, cfg Config, policy config.ViewUpdatePolicy, key string) error {
	exists, err := m.viewExists(viewName)
	if err != nil {
		return err
	}

	switch policy {
	case config.NeverRecreate:
		if exists {
			log.Debugf("view %s exists, NeverRecreate policy, skipping", viewName)
			return nil
		}
	case config.AlwaysRecreate:
		log.Infof("view %s AlwaysRecreate policy, recreating", viewName)
	default: // CheckConfig
		if exists {
			m.mu.RLock()
			cached, ok := m.cache[key]
			m.mu.RUnlock()
			normalized := cfg.normalize()
			if ok && cached == normalized {
				log.Debugf("view %s configuration unchanged (cache hit)", viewName)
				return nil
			}
		}
	}

	if exists {
		if _, err := m.s.Exec(`DROP TABLE IF EXISTS ` + viewName); err != nil {
			return err
		}
	}

	ddl := fmt.Sprintf(
		"CREATE VIRTUAL TABLE %s USING fts5(id UNINDEXED, %s, tokenize='porter unicode61')",
		viewName, strings.Join(cfg.Fields, ", "),
	)
	if _, err := m.s.Exec(ddl); err != nil {
		return errkind.New(errkind.PermanentStorage, "viewmgr.EnsureView", err)
	}

	if err := m.populate(viewName, cfg); err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[key] = cfg.normalize()
	m.mu.Unlock()

	log.Infof("view %s created over %s(%s)", viewName, cfg.Collection, strings.Join(cfg.Fields, ","))
	return nil
}

func (m *Manager) populate(viewName string, cfg Config) error {
	cols := strings.Join(cfg.Fields, ", ")
	insert := fmt.Sprintf(
		"INSERT INTO %s (id, %s) SELECT id, %s FROM %s",
		viewName, cols, cols, cfg.Collection,
	)
	if _, err := m.s.Exec(insert); err != nil {
		return errkind.New(errkind.PermanentStorage, "viewmgr.populate", err)
	}
	return nil
}

func (m *Manager) viewExists(viewName string) (bool, error) {
	row := m.s.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, viewName)
	var name string
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errkind.New(errkind.PermanentStorage, "viewmgr.viewExists", err)
	}
	return true, nil
}

// Clear drops a single (dbName, viewName) entry from the cache,
// forcing the next EnsureView call to re-check configuration.
func (m *Manager) Clear(dbName, viewName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, cacheKey(dbName, viewName))
}

// ClearAll empties the entire view-configuration cache.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]string)
}
