// Package search implements C7: six search methods sharing one result
// envelope, against the lexical views C3 maintains and the vec0 tables
// C1 maintains. Grounded on the teacher's query layer shape (a thin
// Engine composing *store.Store) and the original_source search_config
// module's six-method split (BM25, vector, tag, keyword, graph,
// hybrid).
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/errkind"
	"github.com/kittclouds/memgraph/internal/logx"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/embedding"
	"github.com/kittclouds/memgraph/pkg/llm"
)

var log = logx.New("search")

// Hit is one scored result. Doc carries whatever auxiliary value a
// given method attaches (nil for tag/keyword, which spec 4.7 says
// return unscored in insertion order).
type Hit struct {
	DocID string
	Score float64
	Doc   any
}

// Result is the shared envelope every search method returns (spec 4.7:
// "{results:[{doc, score, …}], total, time_ms, engine}").
type Result struct {
	Results   []Hit
	Total     int
	TimeMS    int64
	Engine    string
	Truncated bool // set when a deadline elapsed before all stages completed
}

// Engine is C7's entry point. embed and rerank are both optional —
// a nil embed disables the Vector/Hybrid methods' text-to-vector
// convenience path (callers may still pass a precomputed vector); a
// nil rerank disables the Hybrid method's optional cross-encoder pass.
type Engine struct {
	s      *store.Store
	embed  *embedding.Cache
	rerank llm.Reranker
	cfg    config.SearchDefaults
}

func New(s *store.Store, embed *embedding.Cache, rerank llm.Reranker, cfg config.SearchDefaults) *Engine {
	return &Engine{s: s, embed: embed, rerank: rerank, cfg: cfg}
}

// deadlineExceeded reports whether ctx's deadline has already passed,
// the cooperative-cancellation check run at each stage boundary (spec
// 5's "respect cooperative cancellation at each stage boundary").
func deadlineExceeded(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// truncate applies top-N truncation and reports Result.Truncated as
// deadlineHit alone — cutting to topN is ordinary windowing, not the
// deadline-driven truncation spec 4.7 means by the flag, so an
// over-fetch trimmed to size never gets reported as a timeout.
func truncate(hits []Hit, topN int, deadlineHit bool) (out []Hit, truncated bool) {
	if topN > 0 && len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, deadlineHit
}

func wrapDeadline(op string, ctx context.Context) error {
	if deadlineExceeded(ctx) {
		return errkind.New(errkind.DeadlineExceeded, op, ctx.Err())
	}
	return nil
}

func fmtViewErr(op, view string, err error) error {
	return fmt.Errorf("search.%s: view %s: %w", op, view, err)
}
