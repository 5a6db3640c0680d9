// Package extraction turns a single LLM completion into validated entity
// and relationship candidates for C5 (pkg/graphstore) to upsert, via
// pkg/llm.Completer. Kept and re-themed from the teacher's fiction-domain
// extractor (CHARACTER/NPC/BATTLES, ...) to the spec's Person/Organization/
// Concept entities and configurable relationship predicates; the
// malformed-item-discard behavior is carried over unchanged: malformed
// items are dropped without logging a warning, and never fail the
// ingestion.
package extraction

// MaxNameLength bounds an entity name or free-form type string, the
// "length bound" spec §9's design note calls for on free-form types.
const MaxNameLength = 200

// MinRationaleLength mirrors spec §4.5's rationale floor so malformed
// relations are caught here rather than failing deep inside C5.
const MinRationaleLength = 50

// WellKnownEntityTypes lists the types named in spec §3 ("e.g., Person,
// Organization, Concept"). Type is NOT a closed enum — any non-empty
// string within MaxNameLength validates — but prompts steer the LLM
// toward these first.
var WellKnownEntityTypes = []string{"Person", "Organization", "Concept", "Location", "Event"}

// WellKnownRelationTypes lists the predicates spec §4.5/§4.6 names by
// example: the three functional predicates from the default config
// (WORKS_FOR, LIVES_IN, OWNS) plus the non-functional ones spec §9 calls
// out as inconsistently classified in the source (KNOWS, LOCATED_IN,
// PART_OF). RelationType is likewise open — config.FunctionalPredicates
// is what actually governs contradiction semantics, not this list.
var WellKnownRelationTypes = []string{
	"WORKS_FOR", "LIVES_IN", "OWNS",
	"KNOWS", "LOCATED_IN", "PART_OF",
	"CAUSES", "RELATED_TO",
}

// ExtractedEntity is one entity candidate returned by the LLM boundary,
// validated before C5 ever sees it.
type ExtractedEntity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// ExtractedRelation is one relationship candidate. Rationale is the
// natural-language justification spec §3 requires (>=50 chars); Subject/
// Object are entity names resolved against the upserted entity set by
// the caller (pkg/memoryagent), not ids — the LLM only ever sees text.
type ExtractedRelation struct {
	Subject    string         `json:"subject"`
	Object     string         `json:"object"`
	Type       string         `json:"type"`
	Rationale  string         `json:"rationale"`
	Confidence float64        `json:"confidence"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ExtractionResult is the unified output from a single LLM call: both
// entities and relations, parsed from one completion the way the
// teacher's combined prompt does ("single LLM call to extract both").
type ExtractionResult struct {
	Entities  []ExtractedEntity   `json:"entities"`
	Relations []ExtractedRelation `json:"relations"`
}
