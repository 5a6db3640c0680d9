package store

import "strconv"

// schema defines every table the engine persists to. Follows the
// teacher's single CREATE-TABLE-IF-NOT-EXISTS constant pattern
// (sqlite_store.go's `schema`), extended with the bi-temporal
// collections spec 6 names: messages, memories, entities,
// relationships, communities, episodes, compactions, contradiction_log.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    conversation_id TEXT NOT NULL,
    episode_id TEXT,
    previous_message_key TEXT,
    created_at INTEGER NOT NULL,
    valid_at INTEGER NOT NULL,
    invalid_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
CREATE INDEX IF NOT EXISTS idx_messages_episode ON messages(episode_id);
CREATE INDEX IF NOT EXISTS idx_messages_valid ON messages(conversation_id, valid_at, invalid_at);

CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    summary TEXT,
    conversation_id TEXT NOT NULL,
    metadata TEXT,
    created_at INTEGER NOT NULL,
    valid_at INTEGER NOT NULL,
    invalid_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_memories_conversation ON memories(conversation_id);
CREATE INDEX IF NOT EXISTS idx_memories_valid ON memories(conversation_id, valid_at, invalid_at);

CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    community_id TEXT,
    confidence REAL NOT NULL DEFAULT 0.5,
    extra TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE(name, type)
);
CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
CREATE INDEX IF NOT EXISTS idx_entities_community ON entities(community_id);

-- Relationships (edges). No foreign keys: referential integrity for
-- the entity pair is checked at the application level (pkg/graphstore),
-- the same way the teacher's edges table manages entity references.
CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    type TEXT NOT NULL,
    attributes TEXT,
    rationale TEXT NOT NULL,
    confidence REAL NOT NULL,
    weight REAL NOT NULL,
    invalidated_by TEXT,
    review_status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    valid_at INTEGER NOT NULL,
    invalid_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_rel_from_type ON relationships(from_id, type);
CREATE INDEX IF NOT EXISTS idx_rel_to ON relationships(to_id);
CREATE INDEX IF NOT EXISTS idx_rel_valid ON relationships(from_id, type, valid_at, invalid_at);

CREATE TABLE IF NOT EXISTS communities (
    id TEXT PRIMARY KEY,
    member_count INTEGER NOT NULL,
    modularity REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS episodes (
    id TEXT PRIMARY KEY,
    title TEXT,
    event_type TEXT,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    is_active INTEGER NOT NULL DEFAULT 1,
    conversation_count INTEGER NOT NULL DEFAULT 0,
    metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_episodes_active ON episodes(is_active);

CREATE TABLE IF NOT EXISTS compactions (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    source_keys TEXT NOT NULL,
    summary TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    valid_at INTEGER NOT NULL,
    invalid_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_compactions_conversation ON compactions(conversation_id);

CREATE TABLE IF NOT EXISTS contradiction_log (
    id TEXT PRIMARY KEY,
    new_edge_id TEXT NOT NULL,
    existing_edge_id TEXT NOT NULL,
    strategy TEXT NOT NULL,
    action TEXT NOT NULL,
    success INTEGER NOT NULL,
    reason TEXT,
    context TEXT,
    timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contradiction_log_ts ON contradiction_log(timestamp);

CREATE TABLE IF NOT EXISTS invalidation_events (
    id TEXT PRIMARY KEY,
    ref_key TEXT NOT NULL,
    t_end INTEGER NOT NULL,
    cause TEXT NOT NULL,
    actor TEXT,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invalidation_events_key ON invalidation_events(ref_key);
`

// ensureVectorTableSQL creates a vec0 virtual table named vec_<collection>
// sized to dim float32 columns, the sqlite-vec analog of spec 4.1's
// ensure_vector_index(coll, field, dim, metric, nLists). nLists only
// matters for sqlite-vec's IVF partitioning above a few thousand rows;
// below that it is a no-op parameter, so it is accepted but not wired
// into the CREATE statement (sqlite-vec's default flat scan already
// satisfies the spec's "nLists is small for sub-100-document collections").
func ensureVectorTableSQL(collection string, dim int) string {
	return `CREATE VIRTUAL TABLE IF NOT EXISTS vec_` + collection + ` USING vec0(
		id TEXT PRIMARY KEY,
		embedding FLOAT[` + strconv.Itoa(dim) + `] distance_metric=cosine
	)`
}
