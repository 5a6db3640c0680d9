package search

import (
	"context"
	"time"

	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/kittclouds/memgraph/internal/store"
)

// VectorOptions configures the two-stage vector search (spec 4.7).
// Filter runs in-process against Stage 1's candidates — it is never
// mixed into the ANN query itself; that is a hard rule (P6 in the
// original test suite targets exactly this).
type VectorOptions struct {
	TopN         int
	ExpandFactor int
	MinScore     float64
	Filter       func(docID string) bool
}

// Vector implements C7's two-stage vector search: an unconstrained
// ANN query against collection's vec0 table, then in-process Stage-2
// filtering. Falls back to the manual cosine scan if the ANN operator
// errors, annotating the result engine=manual-cosine rather than
// failing — spec 4.7 treats that fallback as a first-class path.
func (e *Engine) Vector(ctx context.Context, collection string, query []float32, opts VectorOptions) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("Vector", ctx); err != nil {
		return nil, err
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = e.cfg.TopN
	}
	expand := opts.ExpandFactor
	if expand <= 0 {
		expand = e.cfg.ExpandFactor
		if expand <= 0 {
			expand = 1
		}
	}
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = e.cfg.VectorMinScore
	}

	engineName := "vector"
	candidates, err := e.s.VectorSearch(collection, query, topN*expand)
	if err != nil {
		log.Warnf("ANN query failed for %s, falling back to manual cosine: %v", collection, err)
		candidates, err = e.s.ManualCosineSearch(collection, query, topN*expand)
		if err != nil {
			return nil, err
		}
		engineName = "manual-cosine"
	}

	hits := stage2Filter(candidates, minScore, opts.Filter, topN)

	out, truncated := truncate(hits, topN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(hits),
		TimeMS:    elapsedMS(start),
		Engine:    engineName,
		Truncated: truncated,
	}, nil
}

// VectorText embeds queryText via the configured embedder and runs
// Vector against the resulting vector — the convenience path callers
// that don't already hold a vector use.
func (e *Engine) VectorText(ctx context.Context, collection, queryText string, opts VectorOptions) (*Result, error) {
	if e.embed == nil {
		return nil, errkind.New(errkind.ExternalUnavailable, "search.VectorText", nil)
	}
	vec, err := e.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}
	return e.Vector(ctx, collection, vec, opts)
}

// stage2Filter normalizes raw [-1,1] scores to [0,1] via (s+1)/2,
// applies the min-score floor and predicate filter, and stops once
// topN matches are found — spec 4.7's Stage 2.
func stage2Filter(candidates []store.VectorHit, minScore float64, filter func(string) bool, topN int) []Hit {
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		normalized := (c.Score + 1) / 2
		if normalized < minScore {
			continue
		}
		if filter != nil && !filter(c.ID) {
			continue
		}
		hits = append(hits, Hit{DocID: c.ID, Score: normalized})
		if topN > 0 && len(hits) >= topN {
			break
		}
	}
	return hits
}
