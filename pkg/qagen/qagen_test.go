package qagen

import (
	"context"
	"testing"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/extraction"
	"github.com/kittclouds/memgraph/pkg/graphstore"
)

type stubCompleter struct{ response string }

func (c stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.response, nil
}

func newTestGenerator(t *testing.T, completion string) (*store.Store, *Generator) {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	cfg := config.Default()
	gs := graphstore.New(s, cfg)
	extractor := extraction.NewService(stubCompleter{response: completion})
	return s, New(extractor, gs, nil)
}

func TestGenerate_CreatesOrderedPairEdges(t *testing.T) {
	completion := `{
		"entities": [
			{"name": "Ada Lovelace", "type": "Person", "confidence": 0.9},
			{"name": "Analytical Engine", "type": "Concept", "confidence": 0.9}
		],
		"relations": []
	}`
	s, gen := newTestGenerator(t, completion)

	edges, err := gen.Generate(context.Background(), Pair{
		Question:        "Who designed the Analytical Engine?",
		Answer:          "Ada Lovelace contributed the first published algorithm for it.",
		QuestionType:    "factual",
		ValidationScore: 0.95,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 ordered-pair edges for 2 entities, got %d", len(edges))
	}
	for _, e := range edges {
		if e.Confidence <= 0 || e.Confidence > 1 {
			t.Errorf("confidence out of range: %+v", e)
		}
	}

	rels, err := s.ListValidRelationships()
	if err != nil {
		t.Fatalf("ListValidRelationships: %v", err)
	}
	for _, r := range rels {
		if r.Type != "qa_derived" {
			t.Errorf("expected qa_derived edge type, got %q", r.Type)
		}
		if r.Attributes["question_type"] != "factual" {
			t.Errorf("expected question_type attribute to survive, got %+v", r.Attributes)
		}
	}
}

func TestGenerate_LowConfidenceEdgesLandPending(t *testing.T) {
	completion := `{
		"entities": [
			{"name": "Entity One", "type": "Thing", "confidence": 0.5},
			{"name": "Entity Two", "type": "Thing", "confidence": 0.5}
		],
		"relations": []
	}`
	s, gen := newTestGenerator(t, completion)

	_, err := gen.Generate(context.Background(), Pair{
		Question:        "Is entity one related to entity two in any meaningful way?",
		Answer:          "Only loosely, through a shared but weakly attested context.",
		QuestionType:    "relational",
		ValidationScore: 0.6,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rels, err := s.ListValidRelationships()
	if err != nil {
		t.Fatalf("ListValidRelationships: %v", err)
	}
	found := false
	for _, r := range rels {
		if r.Type == "qa_derived" {
			found = true
			if r.ReviewStatus != store.ReviewPending {
				t.Errorf("expected low-confidence qa_derived edge to be pending, got %v", r.ReviewStatus)
			}
		}
	}
	if !found {
		t.Fatal("expected at least one qa_derived edge")
	}
}

func TestGenerate_FewerThanTwoEntitiesIsNoOp(t *testing.T) {
	completion := `{"entities": [{"name": "Solo", "type": "Thing", "confidence": 0.9}], "relations": []}`
	_, gen := newTestGenerator(t, completion)

	edges, err := gen.Generate(context.Background(), Pair{Question: "q", Answer: "a", ValidationScore: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if edges != nil {
		t.Fatalf("expected no edges with fewer than 2 entities, got %+v", edges)
	}
}
