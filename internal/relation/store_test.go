package relation

import (
	"context"
	"sort"
	"testing"

	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/presence"
)

func newTestStore() (*Store, *presence.Store) {
	mem := kv.NewMemory()
	p := presence.NewStore(mem)
	return NewStore(mem, p), p
}

func TestSearchCreatesSymmetricEdge(t *testing.T) {
	store, p := newTestStore()
	ctx := context.Background()

	p.Register(ctx, "bob")

	found, err := store.Search(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if !found {
		t.Fatal("expected bob to be found")
	}

	alicePartners, _ := store.Partners(ctx, "alice")
	bobPartners, _ := store.Partners(ctx, "bob")
	if len(alicePartners) != 1 || alicePartners[0] != "bob" {
		t.Errorf("alice partners = %v, want [bob]", alicePartners)
	}
	if len(bobPartners) != 1 || bobPartners[0] != "alice" {
		t.Errorf("bob partners = %v, want [alice]", bobPartners)
	}
}

func TestSearchMissingUser(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	found, err := store.Search(ctx, "alice", "ghost")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if found {
		t.Error("expected ghost to not be found")
	}

	partners, _ := store.Partners(ctx, "alice")
	if len(partners) != 0 {
		t.Errorf("expected no edge for missing user, got %v", partners)
	}
}

func TestSearchSelfCreatesNoEdge(t *testing.T) {
	store, p := newTestStore()
	ctx := context.Background()

	p.Register(ctx, "alice")

	found, err := store.Search(ctx, "alice", "alice")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if !found {
		t.Error("a self-search should still report existence")
	}

	partners, _ := store.Partners(ctx, "alice")
	if len(partners) != 0 {
		t.Errorf("self-search must not create an edge, got %v", partners)
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	store, p := newTestStore()
	ctx := context.Background()

	p.Register(ctx, "bob")
	store.Search(ctx, "alice", "bob")
	store.Search(ctx, "alice", "bob")

	partners, _ := store.Partners(ctx, "alice")
	if len(partners) != 1 {
		t.Errorf("expected exactly one membership after repeated search, got %v", partners)
	}
}

func TestPartnersEmptyForUnknownUser(t *testing.T) {
	store, _ := newTestStore()

	partners, err := store.Partners(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Partners() error: %v", err)
	}
	if len(partners) != 0 {
		t.Errorf("expected empty set, got %v", partners)
	}
}

func TestTouchMultiplePartners(t *testing.T) {
	store, p := newTestStore()
	ctx := context.Background()

	for _, id := range []string{"bob", "carol"} {
		p.Register(ctx, id)
		store.Search(ctx, "alice", id)
	}

	partners, _ := store.Partners(ctx, "alice")
	sort.Strings(partners)
	if len(partners) != 2 || partners[0] != "bob" || partners[1] != "carol" {
		t.Errorf("alice partners = %v, want [bob carol]", partners)
	}
}
