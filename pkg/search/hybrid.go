package search

import (
	"context"
	"sort"
	"time"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/pkg/pool"
)

// HybridOptions configures the RRF fusion and optional rerank pass
// (spec 4.7).
type HybridOptions struct {
	ViewName   string // FTS5 view queried for the BM25 leg
	Collection string // vec0 collection queried for the vector leg
	InitialK   int
	TopN       int
	Filter     func(docID string) bool // Stage-2 predicate shared by both legs

	// DocText resolves a doc id to the text passed to the reranker.
	// Required only when rerank is enabled (Engine.rerank != nil).
	DocText func(docID string) (string, error)
}

// Hybrid runs BM25 and Vector concurrently, fuses with Reciprocal Rank
// Fusion (score(d) = Σ 1/(k0+rank) over methods that returned d), and
// optionally reranks the top rerank_top_k with a cross-encoder,
// combining by the configured strategy.
func (e *Engine) Hybrid(ctx context.Context, query string, queryVec []float32, opts HybridOptions) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("Hybrid", ctx); err != nil {
		return nil, err
	}

	initialK := opts.InitialK
	if initialK <= 0 {
		initialK = e.cfg.InitialK
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = e.cfg.TopN
	}

	bm25ch := make(chan legResult, 1)
	vecch := make(chan legResult, 1)

	go func() {
		r, err := e.BM25(ctx, opts.ViewName, query, BM25Options{TopN: initialK, TagFilter: opts.Filter})
		bm25ch <- legResult{r, err}
	}()
	go func() {
		vec := queryVec
		var err error
		if len(vec) == 0 && e.embed != nil {
			vec, err = e.embed.Embed(ctx, query)
		}
		if err != nil {
			vecch <- legResult{nil, err}
			return
		}
		r, err := e.Vector(ctx, opts.Collection, vec, VectorOptions{TopN: initialK, Filter: opts.Filter})
		vecch <- legResult{r, err}
	}()

	bm25Leg := <-bm25ch
	vecLeg := <-vecch

	k0 := float64(e.cfg.RRFK0)
	if k0 == 0 {
		k0 = 60
	}
	fused := fuseRRF(k0, bm25Leg, vecLeg)

	sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })

	rerankTopK := e.cfg.RerankTopK
	if rerankTopK > 0 && len(fused) > 0 {
		fused = applyRerank(ctx, e, query, fused, rerankTopK, opts.DocText, e.cfg.RerankStrategy, e.cfg.RerankWeight)
		sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	}

	out, truncated := truncate(fused, topN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(fused),
		TimeMS:    elapsedMS(start),
		Engine:    "hybrid",
		Truncated: truncated,
	}, nil
}

// legResult pairs a single search leg's result with its error, so
// fuseRRF can skip legs that failed without failing the whole call.
type legResult struct {
	res *Result
	err error
}

// fuseRRF implements score(d) = Σ_m 1/(k0+rank_m(d)), summing over
// every leg that returned d; a leg that errored contributes nothing
// rather than failing the whole hybrid call (search degrades gracefully
// to a single-method result).
func fuseRRF(k0 float64, legs ...legResult) []Hit {
	scores := make(map[string]float64)
	order := make([]string, 0)
	for _, leg := range legs {
		if leg.err != nil || leg.res == nil {
			continue
		}
		for rank, hit := range leg.res.Results {
			if _, seen := scores[hit.DocID]; !seen {
				order = append(order, hit.DocID)
			}
			scores[hit.DocID] += 1.0 / (k0 + float64(rank+1))
		}
	}
	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		hits = append(hits, Hit{DocID: id, Score: scores[id]})
	}
	return hits
}

// applyRerank scores the top rerankTopK fused hits with the
// cross-encoder and combines per strategy. Rerank failures or a nil
// reranker/DocText leave the fused order untouched — the cross-encoder
// step is optional (spec 4.7).
func applyRerank(ctx context.Context, e *Engine, query string, fused []Hit, rerankTopK int, docText func(string) (string, error), strategy config.RerankStrategy, weight float64) []Hit {
	if e.rerank == nil || docText == nil {
		return fused
	}
	n := rerankTopK
	if n > len(fused) {
		n = len(fused)
	}
	head := fused[:n]
	tail := fused[n:]

	docs := pool.GetStringSlice()
	defer pool.PutStringSlice(docs)
	for _, h := range head {
		text, err := docText(h.DocID)
		if err != nil {
			log.Warnf("rerank: doc text lookup failed for %s: %v", h.DocID, err)
			return fused
		}
		docs = append(docs, text)
	}

	scores, err := e.rerank.Rerank(ctx, query, docs)
	if err != nil {
		log.Warnf("rerank call failed, keeping fused order: %v", err)
		return fused
	}
	if len(scores) != len(head) {
		log.Warnf("rerank returned %d scores for %d docs, keeping fused order", len(scores), len(head))
		return fused
	}

	for i := range head {
		cross := scores[i]
		switch strategy {
		case config.RerankWeighted:
			head[i].Score = head[i].Score*(1-weight) + cross*weight
		case config.RerankMax:
			if cross > head[i].Score {
				head[i].Score = cross
			}
		case config.RerankMin:
			if cross < head[i].Score {
				head[i].Score = cross
			}
		default: // RerankReplace
			head[i].Score = cross
		}
	}

	return append(head, tail...)
}
