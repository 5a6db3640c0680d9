package search

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/embedding"
	"github.com/kittclouds/memgraph/pkg/viewmgr"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func unitVec(dim int, hot int) []float32 {
	v := make([]float32, dim)
	v[hot%dim] = 1
	return v
}

func TestEngine_BM25(t *testing.T) {
	s := newTestStore(t)
	vm := viewmgr.New(s)
	now := time.Now().Unix()

	for _, e := range []*store.Entity{
		{ID: "e1", Name: "Ada Lovelace", Type: "Person", Confidence: 0.9, CreatedAt: now, UpdatedAt: now},
		{ID: "e2", Name: "Grace Hopper", Type: "Person", Confidence: 0.9, CreatedAt: now, UpdatedAt: now},
	} {
		if err := s.InsertEntity(nil, e); err != nil {
			t.Fatalf("InsertEntity: %v", err)
		}
	}

	if err := vm.EnsureView(context.Background(), "default", "entities_fts",
		viewmgr.Config{Collection: "entities", Fields: []string{"name"}}, config.CheckConfig); err != nil {
		t.Fatalf("EnsureView: %v", err)
	}

	eng := New(s, nil, nil, config.Default().Search)
	res, err := eng.BM25(context.Background(), "entities_fts", "Lovelace", BM25Options{})
	if err != nil {
		t.Fatalf("BM25: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].DocID != "e1" {
		t.Errorf("expected e1 only, got %+v", res.Results)
	}
}

func TestEngine_Vector(t *testing.T) {
	s := newTestStore(t)
	dim := s.Dimension()
	now := time.Now().Unix()

	for i, id := range []string{"a", "b", "c"} {
		e := &store.Entity{ID: id, Name: id, Type: "Thing", Confidence: 0.9, CreatedAt: now, UpdatedAt: now}
		if err := s.InsertEntity(nil, e); err != nil {
			t.Fatalf("InsertEntity: %v", err)
		}
		if err := s.UpsertVector("entities", id, embedding.Normalize(unitVec(dim, i))); err != nil {
			t.Fatalf("UpsertVector: %v", err)
		}
	}

	eng := New(s, nil, nil, config.Default().Search)
	query := embedding.Normalize(unitVec(dim, 0))
	res, err := eng.Vector(context.Background(), "entities", query, VectorOptions{TopN: 3, MinScore: 0})
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	if len(res.Results) == 0 {
		t.Fatal("expected at least one hit")
	}
	if res.Results[0].DocID != "a" {
		t.Errorf("expected closest match 'a' first, got %q", res.Results[0].DocID)
	}
	for _, h := range res.Results {
		if h.Score < 0 || h.Score > 1 {
			t.Errorf("normalized score out of [0,1]: %f", h.Score)
		}
	}
}

func TestEngine_TagSearch(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Unix()

	e1 := &store.Entity{ID: "e1", Name: "Ada", Type: "Person", Confidence: 0.9,
		Extra: map[string]any{"tags": []any{"mathematician", "programmer"}}, CreatedAt: now, UpdatedAt: now}
	e2 := &store.Entity{ID: "e2", Name: "Grace", Type: "Person", Confidence: 0.9,
		Extra: map[string]any{"tags": []any{"programmer"}}, CreatedAt: now, UpdatedAt: now}
	for _, e := range []*store.Entity{e1, e2} {
		if err := s.InsertEntity(nil, e); err != nil {
			t.Fatalf("InsertEntity: %v", err)
		}
	}

	eng := New(s, nil, nil, config.Default().Search)

	res, err := eng.TagSearch(context.Background(), "", []string{"mathematician"}, false)
	if err != nil {
		t.Fatalf("TagSearch: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].DocID != "e1" {
		t.Errorf("expected only e1, got %+v", res.Results)
	}

	res, err = eng.TagSearch(context.Background(), "", []string{"programmer"}, true)
	if err != nil {
		t.Fatalf("TagSearch: %v", err)
	}
	if len(res.Results) != 2 {
		t.Errorf("expected both entities via union, got %d", len(res.Results))
	}
}

func TestTruncate_TopNCutIsNotReportedAsTruncated(t *testing.T) {
	hits := []Hit{{DocID: "a"}, {DocID: "b"}, {DocID: "c"}}
	out, truncated := truncate(hits, 2, false)
	if len(out) != 2 {
		t.Fatalf("expected 2 hits after top-N cut, got %d", len(out))
	}
	if truncated {
		t.Error("expected ordinary top-N windowing to not set the deadline-truncated flag")
	}
}

func TestTruncate_DeadlineHitIsReportedRegardlessOfTopN(t *testing.T) {
	hits := []Hit{{DocID: "a"}}
	out, truncated := truncate(hits, 10, true)
	if len(out) != 1 {
		t.Fatalf("expected hits unchanged when under topN, got %d", len(out))
	}
	if !truncated {
		t.Error("expected deadline hit to be reported even when nothing was cut by top-N")
	}
}

func TestFuseRRF(t *testing.T) {
	bm25 := &Result{Results: []Hit{{DocID: "x"}, {DocID: "y"}}}
	vec := &Result{Results: []Hit{{DocID: "y"}, {DocID: "z"}}}

	fused := fuseRRF(60, legResult{res: bm25}, legResult{res: vec})

	scores := map[string]float64{}
	for _, h := range fused {
		scores[h.DocID] = h.Score
	}
	wantY := 1.0/62 + 1.0/61
	if math.Abs(scores["y"]-wantY) > 1e-9 {
		t.Errorf("expected y fused score %f, got %f", wantY, scores["y"])
	}
	if scores["y"] <= scores["x"] || scores["y"] <= scores["z"] {
		t.Errorf("expected y (present in both legs) to outscore x/z: %+v", scores)
	}
}
