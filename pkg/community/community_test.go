package community

import (
	"testing"

	"github.com/kittclouds/memgraph/config"
	"github.com/kittclouds/memgraph/internal/store"
	"github.com/kittclouds/memgraph/pkg/graphstore"
)

func newTestDetector(t *testing.T) (*store.Store, *graphstore.Store, *Detector) {
	t.Helper()
	s, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	cfg := config.Default()
	gs := graphstore.New(s, cfg)
	return s, gs, New(s, cfg)
}

func link(t *testing.T, gs *graphstore.Store, from, to string) {
	t.Helper()
	if _, _, err := gs.CreateRelationship(from, to, "ASSOCIATIVE", "linked for the test fixture", nil, 0.9, nil, 100); err != nil {
		t.Fatalf("CreateRelationship %s-%s: %v", from, to, err)
	}
}

func TestRun_EmptyGraph(t *testing.T) {
	s, _, d := newTestDetector(t)

	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	communities, err := s.ListCommunities()
	if err != nil {
		t.Fatalf("ListCommunities: %v", err)
	}
	if len(communities) != 0 {
		t.Fatalf("expected no communities for an empty graph, got %d", len(communities))
	}
}

func TestRun_TwoDenseClusters(t *testing.T) {
	s, gs, d := newTestDetector(t)

	a1, _ := gs.UpsertEntity("A1", "Person", nil, nil, 100)
	a2, _ := gs.UpsertEntity("A2", "Person", nil, nil, 100)
	a3, _ := gs.UpsertEntity("A3", "Person", nil, nil, 100)
	b1, _ := gs.UpsertEntity("B1", "Person", nil, nil, 100)
	b2, _ := gs.UpsertEntity("B2", "Person", nil, nil, 100)
	b3, _ := gs.UpsertEntity("B3", "Person", nil, nil, 100)

	link(t, gs, a1, a2)
	link(t, gs, a2, a3)
	link(t, gs, a1, a3)
	link(t, gs, b1, b2)
	link(t, gs, b2, b3)
	link(t, gs, b1, b3)
	// a single bridge edge, much weaker than the intra-cluster ties
	link(t, gs, a1, b1)

	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	aEntity, err := s.GetEntity(a1)
	if err != nil {
		t.Fatalf("GetEntity a1: %v", err)
	}
	a2Entity, err := s.GetEntity(a2)
	if err != nil {
		t.Fatalf("GetEntity a2: %v", err)
	}
	bEntity, err := s.GetEntity(b1)
	if err != nil {
		t.Fatalf("GetEntity b1: %v", err)
	}

	if aEntity.CommunityID == "" || bEntity.CommunityID == "" {
		t.Fatal("expected every entity to receive a community id")
	}
	if aEntity.CommunityID != a2Entity.CommunityID {
		t.Errorf("expected A1 and A2 in the same community, got %q vs %q", aEntity.CommunityID, a2Entity.CommunityID)
	}

	communities, err := s.ListCommunities()
	if err != nil {
		t.Fatalf("ListCommunities: %v", err)
	}
	if len(communities) == 0 {
		t.Fatal("expected at least one persisted community")
	}
	for _, c := range communities {
		if c.MemberCount <= 0 {
			t.Errorf("expected positive member count, got %+v", c)
		}
	}
}

func TestRun_SmallClusterMerged(t *testing.T) {
	s, gs, d := newTestDetector(t)
	cfg := config.Default()
	cfg.CommunityMinSize = 3
	d = New(s, cfg)

	a1, _ := gs.UpsertEntity("A1", "Person", nil, nil, 100)
	a2, _ := gs.UpsertEntity("A2", "Person", nil, nil, 100)
	a3, _ := gs.UpsertEntity("A3", "Person", nil, nil, 100)
	lone, _ := gs.UpsertEntity("Lone", "Person", nil, nil, 100)

	link(t, gs, a1, a2)
	link(t, gs, a2, a3)
	link(t, gs, a1, a3)
	link(t, gs, a1, lone)

	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loneEntity, err := s.GetEntity(lone)
	if err != nil {
		t.Fatalf("GetEntity lone: %v", err)
	}
	a1Entity, err := s.GetEntity(a1)
	if err != nil {
		t.Fatalf("GetEntity a1: %v", err)
	}
	if loneEntity.CommunityID != a1Entity.CommunityID {
		t.Errorf("expected the singleton community to merge into its neighbor, got %q vs %q", loneEntity.CommunityID, a1Entity.CommunityID)
	}
}
