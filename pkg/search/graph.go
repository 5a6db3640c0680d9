package search

import (
	"context"
	"time"

	"github.com/kittclouds/memgraph/internal/store"
)

// GraphHit is one (vertex, edge, path) triple spec 4.7's graph-traverse
// method returns.
type GraphHit struct {
	Vertex string
	Edge   *store.Relationship
	Path   []string
}

// GraphTraverse runs a breadth-first traversal from seed up to
// maxDepth, directed or undirected, with an optional per-edge filter
// (spec 4.7). Depth 0 is the seed itself and is never returned as a
// hit, only used to prime the frontier.
func (e *Engine) GraphTraverse(ctx context.Context, seed string, maxDepth int, directed bool, edgeFilter func(*store.Relationship) bool) (*Result, error) {
	start := time.Now()
	if err := wrapDeadline("GraphTraverse", ctx); err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}

	type frontierNode struct {
		vertex string
		path   []string
	}

	visited := map[string]bool{seed: true}
	frontier := []frontierNode{{vertex: seed, path: []string{seed}}}
	var hits []Hit
	var graphHits []*GraphHit

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		if deadlineExceeded(ctx) {
			break
		}
		var next []frontierNode
		for _, node := range frontier {
			edges, err := e.s.ListRelationshipsForEntity(node.vertex)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				if edgeFilter != nil && !edgeFilter(edge) {
					continue
				}
				var neighbor string
				switch {
				case edge.FromID == node.vertex:
					neighbor = edge.ToID
				case !directed && edge.ToID == node.vertex:
					neighbor = edge.FromID
				default:
					continue // directed traversal only follows from->to
				}
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				path := append(append([]string(nil), node.path...), neighbor)
				gh := &GraphHit{Vertex: neighbor, Edge: edge, Path: path}
				graphHits = append(graphHits, gh)
				hits = append(hits, Hit{DocID: neighbor, Doc: gh})
				next = append(next, frontierNode{vertex: neighbor, path: path})
			}
		}
		frontier = next
	}

	out, truncated := truncate(hits, e.cfg.TopN, deadlineExceeded(ctx))
	return &Result{
		Results:   out,
		Total:     len(hits),
		TimeMS:    elapsedMS(start),
		Engine:    "graph",
		Truncated: truncated,
	}, nil
}
