// Package config holds the engine's single configuration object, built
// the way the teacher wires service configuration: plain structs passed
// into constructors (batch.Config, memory.ExtractorConfig), no flag or
// env-parsing framework, since the CLI shell that would own one is out
// of scope.
package config

import "time"

// ResolutionPolicy is the contradiction engine's closed enum of
// resolution strategies (spec 4.6).
type ResolutionPolicy int

const (
	NewestWins ResolutionPolicy = iota
	HighestConfidenceWins
	Manual
)

func (p ResolutionPolicy) String() string {
	switch p {
	case NewestWins:
		return "newest_wins"
	case HighestConfidenceWins:
		return "highest_confidence_wins"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

// ViewUpdatePolicy is the view manager's closed enum (spec 4.3).
type ViewUpdatePolicy int

const (
	NeverRecreate ViewUpdatePolicy = iota
	AlwaysRecreate
	CheckConfig
)

func (p ViewUpdatePolicy) String() string {
	switch p {
	case NeverRecreate:
		return "NEVER_RECREATE"
	case AlwaysRecreate:
		return "ALWAYS_RECREATE"
	case CheckConfig:
		return "CHECK_CONFIG"
	default:
		return "unknown"
	}
}

// RerankStrategy controls how a cross-encoder rerank score is combined
// with the fused RRF score (spec 4.7).
type RerankStrategy int

const (
	RerankReplace RerankStrategy = iota
	RerankWeighted
	RerankMax
	RerankMin
)

// SearchDefaults bundles the tunables spec 6 calls out as "search
// defaults (initial_k, top_n, thresholds, RRF k0, rerank strategy)".
type SearchDefaults struct {
	InitialK        int
	TopN            int
	ExpandFactor    int
	BM25MinScore    float64
	VectorMinScore  float64
	RRFK0           int
	RerankTopK      int
	RerankStrategy  RerankStrategy
	RerankWeight    float64 // used by RerankWeighted: fused*（1-w) + cross*w
	SearchDeadline  time.Duration
	IngestDeadline  time.Duration
}

// Config is the single configuration object spec 6 describes: database
// coordinates, embedding model id/dimension, LLM provider parameters,
// functional predicate list, default resolution policy, view policy,
// search defaults, community min_size, deadlines.
type Config struct {
	// EmbeddingModel identifies the model passed to the embedding boundary;
	// Dimension is the system-wide constant D (1024 in the reference).
	EmbeddingModel string
	Dimension      int

	// LLMProvider/LLMModel identify the extraction/rationale-generation model.
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string

	// FunctionalPredicates is the contradiction engine's configuration
	// table (spec 9 Open Question: "must expose this set as configuration").
	FunctionalPredicates map[string]bool

	DefaultResolutionPolicy ResolutionPolicy
	DefaultViewPolicy       ViewUpdatePolicy

	Search SearchDefaults

	CommunityMinSize int

	CommunityDeadline time.Duration
}

// Default returns a Config with the documented defaults from the spec:
// functional predicates {WORKS_FOR, LIVES_IN, OWNS}, newest_wins,
// CHECK_CONFIG, search deadline 5s, ingestion deadline 30s, community
// min_size 2, RRF k0=60.
func Default() Config {
	return Config{
		EmbeddingModel: "default",
		Dimension:      1024,

		LLMProvider: "",
		LLMModel:    "",

		FunctionalPredicates: map[string]bool{
			"WORKS_FOR": true,
			"LIVES_IN":  true,
			"OWNS":      true,
		},

		DefaultResolutionPolicy: NewestWins,
		DefaultViewPolicy:       CheckConfig,

		Search: SearchDefaults{
			InitialK:       50,
			TopN:           20,
			ExpandFactor:   5,
			BM25MinScore:   0,
			VectorMinScore: 0.5,
			RRFK0:          60,
			RerankTopK:     50,
			RerankStrategy: RerankReplace,
			RerankWeight:   0.5,
			SearchDeadline: 5 * time.Second,
			IngestDeadline: 30 * time.Second,
		},

		CommunityMinSize: 2,
		CommunityDeadline: 0, // unbounded, per spec 5: "community detection unbounded"
	}
}
