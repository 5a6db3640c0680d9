package search

import (
	"context"
	"time"

	"github.com/kittclouds/memgraph/internal/errkind"
)

// BM25Options configures a lexical search (spec 4.7: "optional tag
// filter (intersection), optional score floor, top-N truncation").
type BM25Options struct {
	MinScore  float64
	TopN      int
	TagFilter func(docID string) bool // optional; nil means no filter
}

// BM25 runs the database's native BM25 scoring against viewName, the
// FTS5 virtual table C3 maintains over a collection. viewName must
// already exist (callers ensure this via pkg/viewmgr before calling in).
func (e *Engine) BM25(ctx context.Context, viewName, query string, opts BM25Options) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("BM25", ctx); err != nil {
		return nil, err
	}

	if opts.TopN <= 0 {
		opts.TopN = e.cfg.TopN
	}
	minScore := opts.MinScore
	if minScore == 0 {
		minScore = e.cfg.BM25MinScore
	}

	fetchLimit := opts.TopN
	if opts.TagFilter != nil {
		fetchLimit = opts.TopN * 4 // overfetch since Stage-2 tag intersection may drop candidates
	}
	if fetchLimit <= 0 {
		fetchLimit = e.cfg.InitialK
	}

	rows, err := e.s.Query(
		`SELECT id, bm25(`+viewName+`) AS rank FROM `+viewName+` WHERE `+viewName+` MATCH ? ORDER BY rank LIMIT ?`,
		buildFTSQuery(query), fetchLimit,
	)
	if err != nil {
		return nil, fmtViewErr("BM25", viewName, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, errkind.New(errkind.PermanentStorage, "search.BM25", err)
		}
		// sqlite's bm25() is lower-is-better (often negative); invert so
		// higher is better, matching every other method's score sense.
		score := -rank
		if score < minScore {
			continue
		}
		if opts.TagFilter != nil && !opts.TagFilter(id) {
			continue
		}
		hits = append(hits, Hit{DocID: id, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.New(errkind.PermanentStorage, "search.BM25", err)
	}

	out, truncated := truncate(hits, opts.TopN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(hits),
		TimeMS:    elapsedMS(start),
		Engine:    "bm25",
		Truncated: truncated,
	}, nil
}
