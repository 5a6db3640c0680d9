package memoryagent

import (
	"context"
	"strings"
	"time"

	"github.com/kittclouds/memgraph/pkg/router"
	"github.com/kittclouds/memgraph/pkg/search"
)

// Search implements spec 4.9's search(query, conversation_id?,
// n_results, point_in_time?): delegates to C8 for routing and C7 for
// execution, optionally constraining results to a conversation and/or
// a point in time via Stage-2 filtering. engine is the C7 Engine the
// caller wires against the same store this Agent writes to.
func (a *Agent) Search(ctx context.Context, engine *search.Engine, query string, conversationID string, topN int, pointInTime *int64) (*search.Result, error) {
	route := router.Classify(query, time.Now())

	filter := a.stage2Filter(conversationID, pointInTime)

	switch route.Method {
	case router.MethodTag:
		return engine.TagSearch(ctx, "", tagsFromQuery(query), false)
	case router.MethodGraph:
		seed, ok := a.resolveSeedEntity(query)
		if !ok {
			return engine.Hybrid(ctx, query, nil, search.HybridOptions{
				ViewName: "memories_fts", Collection: "memories", TopN: topN, Filter: filter,
			})
		}
		return engine.GraphTraverse(ctx, seed, 3, false, nil)
	case router.MethodBM25:
		return engine.BM25(ctx, "memories_fts", query, search.BM25Options{TopN: topN, TagFilter: filter})
	case router.MethodVector:
		return engine.VectorText(ctx, "memories", query, search.VectorOptions{TopN: topN, Filter: filter})
	default: // MethodHybrid, including RECENT_CONTEXT's dynamic window
		combinedFilter := filter
		if route.Window != nil {
			combinedFilter = combineFilters(filter, a.windowFilter(*route.Window))
		}
		return engine.Hybrid(ctx, query, nil, search.HybridOptions{
			ViewName: "memories_fts", Collection: "memories", TopN: topN, Filter: combinedFilter,
		})
	}
}

// stage2Filter builds the conversation/point-in-time predicate spec
// 4.9 asks search() to apply via Stage 2, not by mixing it into the
// ANN or BM25 query.
func (a *Agent) stage2Filter(conversationID string, pointInTime *int64) func(docID string) bool {
	if conversationID == "" && pointInTime == nil {
		return nil
	}
	return func(docID string) bool {
		mem, err := a.s.GetMemory(docID)
		if err != nil || mem == nil {
			return false
		}
		if conversationID != "" && mem.ConversationID != conversationID {
			return false
		}
		if pointInTime != nil {
			t := *pointInTime
			if mem.ValidAt > t {
				return false
			}
			if mem.InvalidAt != nil && *mem.InvalidAt <= t {
				return false
			}
		}
		return true
	}
}

func (a *Agent) windowFilter(w router.TimeRange) func(docID string) bool {
	return func(docID string) bool {
		mem, err := a.s.GetMemory(docID)
		if err != nil || mem == nil {
			return false
		}
		return mem.ValidAt >= w.From && mem.ValidAt <= w.To
	}
}

func combineFilters(a, b func(string) bool) func(string) bool {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(id string) bool { return a(id) && b(id) }
}

// tagsFromQuery strips the "tag:" prefix or "#" marker a TAG_BASED
// query carries, leaving the bare tag name(s).
func tagsFromQuery(query string) []string {
	for _, prefix := range []string{"tag:", "#"} {
		if strings.HasPrefix(query, prefix) {
			return []string{strings.TrimPrefix(query, prefix)}
		}
	}
	return []string{query}
}

// resolveSeedEntity looks for an entity name mentioned verbatim in the
// query, the seed vertex GRAPH_EXPLORATION traversal starts from.
func (a *Agent) resolveSeedEntity(query string) (string, bool) {
	entities, err := a.s.ListEntities("")
	if err != nil {
		return "", false
	}
	lower := strings.ToLower(query)
	for _, e := range entities {
		if e.Name != "" && strings.Contains(lower, strings.ToLower(e.Name)) {
			return e.ID, true
		}
	}
	return "", false
}
