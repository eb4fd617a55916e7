package service

import (
	"context"
	"testing"

	"github.com/lhchen/storefront/internal/core/domain"
)

func newTestFavorites(t *testing.T) (*FavoritesService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewFavoritesService(store, store, "test-view"), store
}

func TestToggle(t *testing.T) {
	fav, _ := newTestFavorites(t)
	ctx := context.Background()

	on, err := fav.Toggle(ctx, "1")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !on {
		t.Error("expected first toggle to favorite")
	}
	if ok, _ := fav.Contains(ctx, "1"); !ok {
		t.Error("expected contains after toggle on")
	}

	on, _ = fav.Toggle(ctx, "1")
	if on {
		t.Error("expected second toggle to unfavorite")
	}
	if ok, _ := fav.Contains(ctx, "1"); ok {
		t.Error("expected gone after toggle off")
	}
}

func TestAddMany_CountsOnlyNew(t *testing.T) {
	fav, _ := newTestFavorites(t)
	ctx := context.Background()

	fav.Toggle(ctx, "2")

	added, err := fav.AddMany(ctx, []string{"1", "2", "3", "1"})
	if err != nil {
		t.Fatalf("addMany failed: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 newly added, got %d", added)
	}

	ids, _ := fav.List(ctx)
	if len(ids) != 3 {
		t.Errorf("expected 3 favorites, got %d", len(ids))
	}
}

func TestAddMany_AllPresentIsNoWrite(t *testing.T) {
	fav, store := newTestFavorites(t)
	ctx := context.Background()

	fav.AddMany(ctx, []string{"1", "2"})
	before := store.eventCount(domain.StoreFavorites)

	added, err := fav.AddMany(ctx, []string{"1", "2"})
	if err != nil {
		t.Fatalf("addMany failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 added, got %d", added)
	}
	if got := store.eventCount(domain.StoreFavorites); got != before {
		t.Errorf("no-op addMany published %d extra events", got-before)
	}
}

func TestFavorites_MalformedLoadsEmpty(t *testing.T) {
	fav, store := newTestFavorites(t)
	ctx := context.Background()

	store.Set(ctx, "favorites", []byte("]["))

	ids, err := fav.List(ctx)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty favorites, got %v", ids)
	}
}

func TestFavorites_Clear(t *testing.T) {
	fav, _ := newTestFavorites(t)
	ctx := context.Background()

	fav.AddMany(ctx, []string{"1", "2"})
	if err := fav.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if ok, _ := fav.Contains(ctx, "1"); ok {
		t.Error("expected favorites cleared")
	}
}
