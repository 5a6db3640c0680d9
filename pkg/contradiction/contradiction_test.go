package contradiction

import (
	"testing"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var functionalPredicates = map[string]bool{"WORKS_FOR": true}

// ---------------------------------------------------------------------------
// Detect
// ---------------------------------------------------------------------------

func TestDetect_FunctionalPredicateConflict(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)

	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, err := e.Detect(candidate, functionalPredicates)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != "r1" {
		t.Fatalf("expected 1 conflict with r1, got %+v", conflicts)
	}
}

func TestDetect_NonFunctionalPredicateNeverConflicts(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "MENTIONS", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)

	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "MENTIONS", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, err := e.Detect(candidate, functionalPredicates)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts for non-functional predicate, got %+v", conflicts)
	}
}

// ---------------------------------------------------------------------------
// Resolve: newest_wins
// ---------------------------------------------------------------------------

func TestResolve_NewestWinsInvalidatesConflicting(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)
	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, _ := e.Detect(candidate, functionalPredicates)
	decision, err := e.Resolve(candidate, conflicts, config.NewestWins)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.Action != ActionInserted {
		t.Fatalf("expected ActionInserted, got %v", decision.Action)
	}

	got, err := s.GetRelationship("r1")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got.InvalidAt == nil {
		t.Error("expected r1 to be invalidated")
	}
}

// ---------------------------------------------------------------------------
// Resolve: highest_confidence_wins
// ---------------------------------------------------------------------------

func TestResolve_HighestConfidenceWinsRejectsLowerConfidenceCandidate(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.95, Weight: 0.95, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)
	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.5, Weight: 0.5, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, _ := e.Detect(candidate, functionalPredicates)
	decision, err := e.Resolve(candidate, conflicts, config.HighestConfidenceWins)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.Action != ActionRejected {
		t.Fatalf("expected ActionRejected, got %v", decision.Action)
	}

	got, err := s.GetRelationship("r1")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got.InvalidAt != nil {
		t.Error("expected r1 to remain valid when rejecting the candidate")
	}
}

// ---------------------------------------------------------------------------
// Resolve: manual
// ---------------------------------------------------------------------------

func TestResolve_ManualLeavesExistingValidAndMarksCandidatePending(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)
	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, _ := e.Detect(candidate, functionalPredicates)
	decision, err := e.Resolve(candidate, conflicts, config.Manual)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.Action != ActionPending {
		t.Fatalf("expected ActionPending, got %v", decision.Action)
	}
	if candidate.ReviewStatus != store.ReviewPending {
		t.Errorf("expected candidate review status pending, got %v", candidate.ReviewStatus)
	}

	got, err := s.GetRelationship("r1")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got.InvalidAt != nil {
		t.Error("expected r1 to remain valid under manual policy")
	}
}

func TestResolve_ManualAttachesCrossReferencesBothWays(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)
	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, _ := e.Detect(candidate, functionalPredicates)
	if _, err := e.Resolve(candidate, conflicts, config.Manual); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := candidate.Attributes["contradicts"]; got == nil {
		t.Error("expected candidate to carry a contradicts cross-reference")
	}

	got, err := s.GetRelationship("r1")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if got.Attributes["contradicted_by"] != candidate.ID {
		t.Errorf("expected r1 to carry contradicted_by=%s, got %v", candidate.ID, got.Attributes["contradicted_by"])
	}
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummary_CountsByActionAndSuccessRate(t *testing.T) {
	s := newTestStore(t)
	existing := &store.Relationship{ID: "r1", FromID: "alice", ToID: "acme", Type: "WORKS_FOR", Rationale: "x", Confidence: 0.8, Weight: 0.8, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 100, ValidAt: 100}
	s.InsertRelationship(nil, existing)
	candidate := &store.Relationship{ID: "r2", FromID: "alice", ToID: "globex", Type: "WORKS_FOR", Rationale: "y", Confidence: 0.9, Weight: 0.9, ReviewStatus: store.ReviewAutoApproved, CreatedAt: 200, ValidAt: 200}

	e := New(s)
	conflicts, _ := e.Detect(candidate, functionalPredicates)
	if _, err := e.Resolve(candidate, conflicts, config.NewestWins); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	sum, err := e.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 1 {
		t.Fatalf("expected 1 log entry, got %d", sum.Total)
	}
	if sum.SuccessRate != 1.0 {
		t.Errorf("expected success rate 1.0, got %v", sum.SuccessRate)
	}
	if sum.CountsByAction[string(ActionInvalidate)] != 1 {
		t.Errorf("expected 1 invalidate action, got %v", sum.CountsByAction)
	}
}
