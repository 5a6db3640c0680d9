// Package community implements C11: modularity-based community
// detection over the entity/relationship graph. Grounded on
// GraphAnalyzer.FindCommunities's simplified Louvain loop
// (_examples/2lar-b2/backend/internal/domain/services/graph_analyzer.go),
// re-themed onto weighted edges (relationship confidence/weight) and
// extended with spec 4.11's small-cluster merge step.
package community

import (
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/store"
)

// Detector owns the adjacency build, Louvain-style optimization, and
// persistence of the resulting partition.
type Detector struct {
	s   *store.Store
	cfg config.Config
}

func New(s *store.Store, cfg config.Config) *Detector {
	return &Detector{s: s, cfg: cfg}
}

// graph is the in-memory weighted adjacency the detector optimizes
// over, built fresh on every Run.
type graph struct {
	nodes     []string
	adjacency map[string]map[string]float64 // symmetrized edge weights
	degree    map[string]float64            // sum of incident edge weights
	totalW    float64                       // sum over all edges, each counted once
}

// Run rebuilds the partition from every currently-valid relationship,
// merges clusters below the configured minimum size into a neighbor,
// and persists the result — spec 4.11's detect_communities().
func (d *Detector) Run() error {
	rels, err := d.s.ListValidRelationships()
	if err != nil {
		return err
	}

	g := buildGraph(rels)
	if len(g.nodes) == 0 {
		return d.s.ReplaceCommunities(nil, nil, time.Now().Unix())
	}

	assign := louvain(g)
	assign = mergeSmallClusters(g, assign, minSize(d.cfg))

	communities, memberAssignments := toCommunities(assign, g)
	modularity := computeModularity(g, assign)
	for _, c := range communities {
		c.Modularity = modularity
	}

	return d.s.ReplaceCommunities(communities, memberAssignments, time.Now().Unix())
}

func minSize(cfg config.Config) int {
	if cfg.CommunityMinSize > 0 {
		return cfg.CommunityMinSize
	}
	return 2
}

// buildGraph symmetrizes every valid relationship into an undirected,
// weighted adjacency keyed on edge confidence — spec 4.11's "weights
// come from relationship confidence".
func buildGraph(rels []*store.Relationship) *graph {
	g := &graph{
		adjacency: make(map[string]map[string]float64),
		degree:    make(map[string]float64),
	}
	seen := make(map[string]bool)

	ensure := func(id string) {
		if !seen[id] {
			seen[id] = true
			g.nodes = append(g.nodes, id)
			g.adjacency[id] = make(map[string]float64)
		}
	}

	for _, r := range rels {
		if r.FromID == "" || r.ToID == "" || r.FromID == r.ToID {
			continue
		}
		ensure(r.FromID)
		ensure(r.ToID)
		w := r.Confidence
		if w <= 0 {
			w = 0.5
		}
		g.adjacency[r.FromID][r.ToID] += w
		g.adjacency[r.ToID][r.FromID] += w
		g.degree[r.FromID] += w
		g.degree[r.ToID] += w
		g.totalW += w
	}
	return g
}

// louvain runs the iterative one-node-at-a-time reassignment loop:
// each node tries every neighboring community and keeps whichever
// placement maximizes global modularity, until a full pass improves
// nothing.
func louvain(g *graph) map[string]string {
	assign := make(map[string]string, len(g.nodes))
	for _, n := range g.nodes {
		assign[n] = n // each node starts in its own community
	}

	improved := true
	for improved {
		improved = false
		for _, n := range g.nodes {
			current := assign[n]
			best := current
			bestQ := computeModularity(g, assign)

			tried := map[string]bool{current: true}
			for neighbor := range g.adjacency[n] {
				nc := assign[neighbor]
				if tried[nc] {
					continue
				}
				tried[nc] = true
				assign[n] = nc
				q := computeModularity(g, assign)
				if q > bestQ {
					bestQ = q
					best = nc
					improved = true
				}
			}
			assign[n] = best
		}
	}
	return assign
}

// computeModularity evaluates Q = (1/2m)*sum[(A_ij - k_i*k_j/2m)*delta(c_i,c_j)]
// over every node pair — spec 4.11's modularity formula. The A_ij term
// is summed over edges; the k_i*k_j term is summed per community as
// (sum of member degrees)^2.
func computeModularity(g *graph, assign map[string]string) float64 {
	if g.totalW == 0 {
		return 0
	}
	twoM := 2 * g.totalW
	var q float64
	commDegree := make(map[string]float64)
	for _, n := range g.nodes {
		commDegree[assign[n]] += g.degree[n]
		for neighbor, w := range g.adjacency[n] {
			if assign[n] == assign[neighbor] {
				q += w
			}
		}
	}
	for _, k := range commDegree {
		q -= k * k / twoM
	}
	return q / twoM
}

// mergeSmallClusters folds any community smaller than minSize into
// whichever neighboring community it shares the greatest total edge
// weight with — spec 4.11's small-cluster merge step.
func mergeSmallClusters(g *graph, assign map[string]string, minSize int) map[string]string {
	counts := clusterSizes(assign)

	for _, n := range g.nodes {
		c := assign[n]
		if counts[c] >= minSize {
			continue
		}
		weightTo := make(map[string]float64)
		for neighbor, w := range g.adjacency[n] {
			nc := assign[neighbor]
			if nc == c {
				continue
			}
			weightTo[nc] += w
		}
		best, bestW := "", -1.0
		for nc, w := range weightTo {
			if w > bestW {
				bestW = w
				best = nc
			}
		}
		if best != "" {
			counts[c]--
			assign[n] = best
			counts[best]++
		}
	}
	return assign
}

func clusterSizes(assign map[string]string) map[string]int {
	sizes := make(map[string]int)
	for _, c := range assign {
		sizes[c]++
	}
	return sizes
}

// toCommunities assigns each surviving label a stable opaque id and
// builds the persistence-ready records.
func toCommunities(assign map[string]string, g *graph) ([]*store.Community, map[string]string) {
	labelToID := make(map[string]string)
	memberCounts := make(map[string]int)
	for _, n := range g.nodes {
		label := assign[n]
		if _, ok := labelToID[label]; !ok {
			labelToID[label] = uuid.NewString()
		}
		memberCounts[label]++
	}

	now := time.Now().Unix()
	communities := make([]*store.Community, 0, len(labelToID))
	for label, id := range labelToID {
		communities = append(communities, &store.Community{
			ID:          id,
			MemberCount: memberCounts[label],
			CreatedAt:   now,
		})
	}

	assignments := make(map[string]string, len(g.nodes))
	for _, n := range g.nodes {
		assignments[n] = labelToID[assign[n]]
	}
	return communities, assignments
}
