// Package store provides SQLite-backed persistence for the memory engine:
// documents, edges, and the indexes (FTS5, vec0) the rest of the system
// treats as an external multi-model database. It deliberately exposes a
// narrow, storage-only surface (CRUD plus a transaction scope and a raw
// query escape hatch) — temporal semantics, entity-upsert blending, and
// contradiction detection are built on top of it, not inside it.
package store

// Message is a single conversational turn (spec 3 Message).
type Message struct {
	ID                 string
	Role               string // "user" | "agent"
	Content            string
	ConversationID      string
	EpisodeID          string // optional
	Embedding          []float32
	PreviousMessageKey string // optional linked-list pointer

	CreatedAt int64 // transaction time, immutable
	ValidAt   int64
	InvalidAt *int64
}

// Memory is a summarized exchange derived from one or more messages
// (spec 3 Memory).
type Memory struct {
	ID             string
	Content        string
	Summary        string
	Embedding      []float32
	ConversationID string
	Metadata       map[string]any

	CreatedAt int64
	ValidAt   int64
	InvalidAt *int64
}

// Entity is a named thing extracted from text (spec 3 Entity).
type Entity struct {
	ID          string
	Name        string
	Type        string
	Embedding   []float32
	CommunityID string // optional
	Confidence  float64
	Extra       map[string]any // caller-supplied fields merged on repeat mention (spec 4.5)

	CreatedAt int64
	UpdatedAt int64
}

// Relationship is a typed directed edge between two entities (spec 3
// Relationship/Edge).
type Relationship struct {
	ID            string
	FromID        string
	ToID          string
	Type          string
	Attributes    map[string]any
	Rationale     string
	Confidence    float64
	Weight        float64
	InvalidatedBy string // optional edge key that superseded this one
	ReviewStatus  ReviewStatus

	CreatedAt int64
	ValidAt   int64
	InvalidAt *int64
}

// ReviewStatus is the closed enum from spec 3 Relationship.
type ReviewStatus string

const (
	ReviewAutoApproved ReviewStatus = "auto_approved"
	ReviewPending      ReviewStatus = "pending"
	ReviewRejected     ReviewStatus = "rejected"
)

// Community is a cluster of entities (spec 3 Community).
type Community struct {
	ID          string
	MemberCount int
	Modularity  float64
	CreatedAt   int64
}

// Episode is a named bounded time span grouping conversations (spec 3
// Episode).
type Episode struct {
	ID                string
	Title             string
	EventType         string
	StartTime         int64
	EndTime           *int64 // nullable -> active
	IsActive          bool
	ConversationCount int
	Metadata          map[string]any
}

// Compaction is a summary node replacing many messages (spec 3
// Compaction Record).
type Compaction struct {
	ID             string
	ConversationID string
	SourceKeys     []string
	Summary        string
	Embedding      []float32

	CreatedAt int64
	ValidAt   int64
	InvalidAt *int64
}

// ContradictionLogEntry records one resolution decision made by the
// contradiction engine (spec 4.6).
type ContradictionLogEntry struct {
	ID            string
	NewEdgeID     string
	ExistingEdgeID string
	Strategy      string
	Action        string // "invalidate" | "rejected" | "pending"
	Success       bool
	Reason        string
	Context       string
	Timestamp     int64
}

// VectorHit is one result of an unconstrained ANN query against a vec0
// virtual table: a candidate id with its raw (not yet normalized)
// cosine-distance-derived score.
type VectorHit struct {
	ID    string
	Score float64 // raw operator output in [-1, 1], per spec 4.7
}
