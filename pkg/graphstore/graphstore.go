// Package graphstore implements C5: entity upsert with blending
// semantics and relationship creation with weighting, review-status
// auto-approval, and contradiction handling wired in before commit.
package graphstore

import (
	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/contradiction"
	"github.com/kittclouds/memgraph/pkg/embedding"
)

// confidenceAlpha is the nudge-toward-1 rate spec 4.5 fixes: "increment
// confidence toward 1 by α·(1−confidence_prior) with α=0.1".
const confidenceAlpha = 0.1

// baseWeight is spec 4.5's fixed relationship-type table.
var baseWeight = map[string]float64{
	"FACTUAL":     1.0,
	"CAUSAL":      0.9,
	"MULTI_HOP":   0.6,
	"ASSOCIATIVE": 0.5,
}

func weightFor(relType string) float64 {
	if w, ok := baseWeight[relType]; ok {
		return w
	}
	return 0.7
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const (
	errRationaleTooShort    = sentinelErr("rationale must be at least 50 characters")
	errConfidenceOutOfRange = sentinelErr("confidence must be in [0,1]")
	errEndpointMissing      = sentinelErr("both entities must exist")
)

// Store is C5's entry point, composing internal/store with the
// contradiction engine.
type Store struct {
	s      *store.Store
	engine *contradiction.Engine
	cfg    config.Config
}

func New(s *store.Store, cfg config.Config) *Store {
	return &Store{s: s, engine: contradiction.New(s), cfg: cfg}
}

// UpsertEntity implements spec 4.5's upsert_entity: first mention
// creates (confidence defaults to 0.5 if unsupplied); subsequent
// mentions with the same (name, type) update confidence and embedding
// by blending, merging extra fields (new wins for scalars, union for
// lists).
func (gs *Store) UpsertEntity(name, typ string, emb []float32, extra map[string]any, now int64) (string, error) {
	existing, err := gs.s.GetEntityByNameType(name, typ)
	if err != nil {
		return "", err
	}

	if existing == nil {
		e := &store.Entity{
			ID:         uuid.NewString(),
			Name:       name,
			Type:       typ,
			Confidence: 0.5,
			Extra:      extra,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := gs.s.InsertEntity(nil, e); err != nil {
			return "", err
		}
		if len(emb) > 0 {
			if err := gs.s.UpsertVector("entities", e.ID, embedding.Normalize(emb)); err != nil {
				return "", err
			}
		}
		return e.ID, nil
	}

	existing.Confidence += confidenceAlpha * (1 - existing.Confidence)
	existing.Extra = mergeExtra(existing.Extra, extra)
	existing.UpdatedAt = now
	if err := gs.s.UpdateEntity(nil, existing); err != nil {
		return "", err
	}

	if len(emb) > 0 {
		prior, err := gs.s.GetVector("entities", existing.ID)
		if err != nil {
			return "", err
		}
		blended := embedding.Blend(prior, emb)
		if err := gs.s.UpsertVector("entities", existing.ID, blended); err != nil {
			return "", err
		}
	}
	return existing.ID, nil
}

// mergeExtra implements spec 4.5's merge rule: new wins for scalars,
// union for lists.
func mergeExtra(prior, next map[string]any) map[string]any {
	if prior == nil && next == nil {
		return nil
	}
	out := make(map[string]any, len(prior)+len(next))
	for k, v := range prior {
		out[k] = v
	}
	for k, v := range next {
		priorList, priorIsList := prior[k].([]any)
		nextList, nextIsList := v.([]any)
		if priorIsList && nextIsList {
			out[k] = unionLists(priorList, nextList)
			continue
		}
		out[k] = v // new wins for scalars
	}
	return out
}

func unionLists(a, b []any) []any {
	seen := make(map[any]bool, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, v := range append(append([]any(nil), a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// CreateRelationship implements spec 4.5's create_relationship:
// validates rationale length and confidence range, computes weight,
// runs the candidate through the contradiction engine, and sets
// review_status per the auto-approval rule.
func (gs *Store) CreateRelationship(fromID, toID, relType, rationale string, attributes map[string]any, confidence float64, validAt *int64, now int64) (*store.Relationship, *contradiction.Decision, error) {
	if len(rationale) < 50 {
		return nil, nil, errkind.New(errkind.ValidationFailed, "graphstore.CreateRelationship", errRationaleTooShort)
	}
	if confidence < 0 || confidence > 1 {
		return nil, nil, errkind.New(errkind.ValidationFailed, "graphstore.CreateRelationship", errConfidenceOutOfRange)
	}

	from, err := gs.s.GetEntity(fromID)
	if err != nil {
		return nil, nil, err
	}
	to, err := gs.s.GetEntity(toID)
	if err != nil {
		return nil, nil, err
	}
	if from == nil || to == nil {
		return nil, nil, errkind.New(errkind.ValidationFailed, "graphstore.CreateRelationship", errEndpointMissing)
	}

	va := now
	if validAt != nil {
		va = *validAt
	}

	reviewStatus := store.ReviewPending
	if confidence >= 0.7 && from.Confidence >= 0.7 && to.Confidence >= 0.7 {
		reviewStatus = store.ReviewAutoApproved
	}

	candidate := &store.Relationship{
		ID:           uuid.NewString(),
		FromID:       fromID,
		ToID:         toID,
		Type:         relType,
		Attributes:   attributes,
		Rationale:    rationale,
		Confidence:   confidence,
		Weight:       weightFor(relType) * confidence,
		ReviewStatus: reviewStatus,
		CreatedAt:    now,
		ValidAt:      va,
	}

	conflicting, err := gs.engine.Detect(candidate, gs.cfg.FunctionalPredicates)
	if err != nil {
		return nil, nil, err
	}

	decision, err := gs.engine.Resolve(candidate, conflicting, gs.cfg.DefaultResolutionPolicy)
	if err != nil {
		return nil, nil, err
	}

	if decision.Action == contradiction.ActionRejected {
		return nil, &decision, errkind.New(errkind.ContradictionRejected, "graphstore.CreateRelationship", nil)
	}

	if err := gs.s.InsertRelationship(nil, candidate); err != nil {
		return nil, nil, err
	}
	return candidate, &decision, nil
}
