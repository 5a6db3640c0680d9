// Package contradiction implements C6: detection of conflicting edges
// sharing a (from, type) pair and their resolution under one of three
// policies, with every decision written to a queryable log (spec 4.6).
package contradiction

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/temporal"
)

var log = logx.New("contradiction")

// Action records what a resolution actually did to the candidate edge.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionRejected Action = "rejected"
	ActionPending  Action = "pending"

	// ActionInvalidate is the per-log-entry action recorded against an
	// existing edge that a resolution invalidated — distinct from
	// Decision.Action, which describes the candidate's own disposition.
	ActionInvalidate Action = "invalidate"
)

// Decision is C6's verdict on a candidate edge: whether (and how) it
// may be committed.
type Decision struct {
	Action      Action
	Reason      string
	Contradicts []*store.Relationship // the set S members actually in conflict
}

// Engine detects and resolves contradictions over a Store.
type Engine struct {
	s *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{s: s}
}

// Detect finds the set S of currently-valid edges sharing candidate's
// (from_id, type), then narrows to those that actually conflict: for
// functional predicates, any member whose to_id differs from
// candidate's; for non-functional predicates, none (S is "related",
// not conflicting) — spec 4.6 Detection.
func (e *Engine) Detect(candidate *store.Relationship, functionalPredicates map[string]bool) ([]*store.Relationship, error) {
	s, err := e.s.ListValidFromType(candidate.FromID, candidate.Type)
	if err != nil {
		return nil, err
	}
	if !functionalPredicates[candidate.Type] {
		return nil, nil
	}
	var conflicting []*store.Relationship
	for _, existing := range s {
		if existing.ToID != candidate.ToID {
			conflicting = append(conflicting, existing)
		}
	}
	return orderByTiebreak(conflicting), nil
}

// orderByTiebreak sorts by smaller created_at first, then lexicographic
// key — spec 4.6's "when two resolutions race, the one with the
// smaller created_at wins; equal timestamps are broken by lexicographic key."
func orderByTiebreak(edges []*store.Relationship) []*store.Relationship {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CreatedAt != edges[j].CreatedAt {
			return edges[i].CreatedAt < edges[j].CreatedAt
		}
		return edges[i].ID < edges[j].ID
	})
	return edges
}

// Resolve applies policy to candidate given the conflicting set S
// (as returned by Detect), writing one contradiction log entry for
// every member of S (including when it rejects the candidate outright),
// and returns the decision the caller (C5) must honor before
// committing candidate.
func (e *Engine) Resolve(candidate *store.Relationship, conflicting []*store.Relationship, policy config.ResolutionPolicy) (Decision, error) {
	if len(conflicting) == 0 {
		return Decision{Action: ActionInserted, Reason: "no contradiction"}, nil
	}

	switch policy {
	case config.HighestConfidenceWins:
		return e.resolveHighestConfidenceWins(candidate, conflicting)
	case config.Manual:
		return e.resolveManual(candidate, conflicting)
	default: // NewestWins
		return e.resolveNewestWins(candidate, conflicting)
	}
}

func (e *Engine) resolveNewestWins(candidate *store.Relationship, conflicting []*store.Relationship) (Decision, error) {
	for _, existing := range conflicting {
		won, err := temporal.InvalidateRelationship(e.s, existing.ID, candidate.ValidAt, candidate.ID, temporal.CauseContradiction, "contradiction-engine")
		success := err == nil && won
		e.logDecision(candidate, existing, "newest_wins", string(ActionInvalidate), success, "newest edge invalidates prior conflicting edge")
		if err != nil {
			return Decision{}, err
		}
	}
	return Decision{Action: ActionInserted, Reason: "newest_wins invalidated conflicting edges", Contradicts: conflicting}, nil
}

func (e *Engine) resolveHighestConfidenceWins(candidate *store.Relationship, conflicting []*store.Relationship) (Decision, error) {
	maxConfidence := 0.0
	for _, existing := range conflicting {
		if existing.Confidence > maxConfidence {
			maxConfidence = existing.Confidence
		}
	}
	if maxConfidence > candidate.Confidence {
		for _, existing := range conflicting {
			e.logDecision(candidate, existing, "highest_confidence_wins", string(ActionRejected), true,
				"existing edge has higher confidence")
		}
		return Decision{Action: ActionRejected, Reason: "existing edge has higher confidence", Contradicts: conflicting}, nil
	}

	for _, existing := range conflicting {
		won, err := temporal.InvalidateRelationship(e.s, existing.ID, candidate.ValidAt, candidate.ID, temporal.CauseContradiction, "contradiction-engine")
		success := err == nil && won
		e.logDecision(candidate, existing, "highest_confidence_wins", string(ActionInvalidate), success,
			"candidate confidence meets or exceeds existing")
		if err != nil {
			return Decision{}, err
		}
	}
	return Decision{Action: ActionInserted, Reason: "candidate confidence meets or exceeds existing", Contradicts: conflicting}, nil
}

// resolveManual leaves both sides valid for human review, but attaches
// cross-references in both directions (spec 4.6) so a reviewer (or any
// later reader of either edge) can discover the other side of the
// conflict from either edge's own attributes.
func (e *Engine) resolveManual(candidate *store.Relationship, conflicting []*store.Relationship) (Decision, error) {
	candidate.ReviewStatus = store.ReviewPending

	var contradicts []string
	for _, existing := range conflicting {
		contradicts = append(contradicts, existing.ID)
	}
	if candidate.Attributes == nil {
		candidate.Attributes = make(map[string]any)
	}
	candidate.Attributes["contradicts"] = contradicts

	for _, existing := range conflicting {
		if existing.Attributes == nil {
			existing.Attributes = make(map[string]any)
		}
		existing.Attributes["contradicted_by"] = candidate.ID
		if err := e.s.SetAttributes(existing.ID, existing.Attributes); err != nil {
			log.Warnf("failed to attach cross-reference to %s: %v", existing.ID, err)
		}
		e.logDecision(candidate, existing, "manual", string(ActionPending), true,
			"manual policy: left for human review, cross-referenced")
	}
	return Decision{Action: ActionPending, Reason: "manual review required", Contradicts: conflicting}, nil
}

func (e *Engine) logDecision(candidate, existing *store.Relationship, strategy, action string, success bool, reason string) {
	entry := &store.ContradictionLogEntry{
		ID:             uuid.NewString(),
		NewEdgeID:      candidate.ID,
		ExistingEdgeID: existing.ID,
		Strategy:       strategy,
		Action:         action,
		Success:        success,
		Reason:         reason,
		Timestamp:      candidate.CreatedAt,
	}
	if err := e.s.InsertContradictionLog(nil, entry); err != nil {
		log.Warnf("failed to write contradiction log entry for %s vs %s: %v", candidate.ID, existing.ID, err)
	}
}

// Summary aggregates the contradiction log into counts by action and
// an overall success rate (spec 4.6: "C6 exposes summary() returning
// counts by action and a success rate").
type Summary struct {
	CountsByAction map[string]int
	Total          int
	SuccessRate    float64
}

func (e *Engine) Summary() (Summary, error) {
	entries, err := e.s.ListContradictionLog()
	if err != nil {
		return Summary{}, errkind.New(errkind.PermanentStorage, "contradiction.Summary", err)
	}

	sum := Summary{CountsByAction: make(map[string]int)}
	var successes int
	for _, entry := range entries {
		sum.CountsByAction[entry.Action]++
		if entry.Success {
			successes++
		}
	}
	sum.Total = len(entries)
	if sum.Total > 0 {
		sum.SuccessRate = float64(successes) / float64(sum.Total)
	}
	return sum, nil
}
