// Package qagen implements C13: synthesizing qa_derived relationship
// edges from validated question/answer pairs. Grounded on
// pkg/memoryagent's extractAndLink (same extract-then-upsert-then-link
// shape), re-themed from conversational text onto question+answer
// pairs with a caller-supplied validation score folded into confidence.
package qagen

import (
	"context"
	"fmt"
	"time"

	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/pkg/embedding"
	"github.com/kittclouds/memgraph/pkg/extraction"
	"github.com/kittclouds/memgraph/pkg/graphstore"
)

var log = logx.New("qagen")

// Pair is a single pre-validated question/thinking/answer triple (spec
// 4.13's "validated to appear in the corpus").
type Pair struct {
	Question        string
	Thinking        string
	Answer          string
	QuestionType    string
	ValidationScore float64 // in [0,1]
}

// Generator composes the extraction boundary and C5 to turn a batch of
// Pairs into qa_derived edges.
type Generator struct {
	extractor *extraction.Service
	gs        *graphstore.Store
	embed     *embedding.Cache
}

func New(extractor *extraction.Service, gs *graphstore.Store, embed *embedding.Cache) *Generator {
	return &Generator{extractor: extractor, gs: gs, embed: embed}
}

// EdgeResult reports one synthesized edge for the caller's bookkeeping.
type EdgeResult struct {
	FromEntity string
	ToEntity   string
	Confidence float64
}

// Generate implements spec 4.13's per-pair steps 1-3: extract entities
// from (question ⊕ answer), then for every ordered entity pair create
// a qa_derived relationship whose confidence blends the extracted
// entities' own confidences with the pair's validation score.
func (g *Generator) Generate(ctx context.Context, p Pair) ([]EdgeResult, error) {
	if g.extractor == nil || !g.extractor.IsEnabled() {
		return nil, fmt.Errorf("qagen: no extractor configured")
	}

	text := p.Question + " " + p.Answer
	result, err := g.extractor.ExtractFromText(ctx, text, nil)
	if err != nil {
		return nil, fmt.Errorf("qagen: extraction failed: %w", err)
	}
	if len(result.Entities) < 2 {
		return nil, nil
	}

	now := time.Now().Unix()
	type upserted struct {
		id         string
		confidence float64
	}
	entities := make([]upserted, 0, len(result.Entities))
	for _, e := range result.Entities {
		var emb []float32
		if g.embed != nil {
			emb, err = g.embed.Embed(ctx, e.Name)
			if err != nil {
				log.Warnf("embed entity %q failed: %v", e.Name, err)
				emb = nil
			}
		}
		id, err := g.gs.UpsertEntity(e.Name, e.Type, emb, nil, now)
		if err != nil {
			log.Warnf("upsert entity %q failed: %v", e.Name, err)
			continue
		}
		entities = append(entities, upserted{id: id, confidence: e.Confidence})
	}

	rationale := p.Question + " → " + p.Answer
	attributes := map[string]any{
		"question_type":    p.QuestionType,
		"validation_score": p.ValidationScore,
	}

	var edges []EdgeResult
	for i := range entities {
		for j := range entities {
			if i == j {
				continue
			}
			from, to := entities[i], entities[j]
			confidence := pairConfidence(from.confidence, to.confidence, p.ValidationScore)
			if _, _, err := g.gs.CreateRelationship(from.id, to.id, "qa_derived", rationale, attributes, confidence, nil, now); err != nil {
				log.Warnf("create qa_derived edge %s-%s failed: %v", from.id, to.id, err)
				continue
			}
			edges = append(edges, EdgeResult{FromEntity: from.id, ToEntity: to.id, Confidence: confidence})
		}
	}
	return edges, nil
}

// pairConfidence blends two extracted entities' own confidences with
// the pair's validation score, spec 4.13's "compute a confidence from
// the pair's own confidences and the validation score". The product of
// all three lets any single weak input pull the result down, rather
// than averaging it away.
func pairConfidence(a, b, validation float64) float64 {
	c := a * b * validation
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
