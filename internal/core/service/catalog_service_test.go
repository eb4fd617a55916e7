package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetProduct(t *testing.T) {
	catalog := NewCatalogService(0)

	p, err := catalog.GetProduct(context.Background(), "1")
	if err != nil {
		t.Fatalf("getProduct failed: %v", err)
	}
	if p.ID != "1" || p.Name == "" {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	catalog := NewCatalogService(0)

	_, err := catalog.GetProduct(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestListProducts_FiltersByCategory(t *testing.T) {
	catalog := NewCatalogService(0)
	ctx := context.Background()

	all, err := catalog.ListProducts(ctx, "all")
	if err != nil {
		t.Fatalf("listProducts failed: %v", err)
	}
	clothing, err := catalog.ListProducts(ctx, "clothing")
	if err != nil {
		t.Fatalf("listProducts failed: %v", err)
	}

	if len(clothing) == 0 || len(clothing) >= len(all) {
		t.Errorf("expected a proper subset, got %d of %d", len(clothing), len(all))
	}
	for _, p := range clothing {
		if p.Category != "clothing" {
			t.Errorf("expected clothing only, got %s", p.Category)
		}
	}
}

func TestFetch_HonorsContextCancellation(t *testing.T) {
	catalog := NewCatalogService(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := catalog.ListProducts(ctx, "all")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFetch_FailureIsRecoverable(t *testing.T) {
	catalog := NewCatalogService(0)

	boom := errors.New("backend down")
	calls := 0
	catalog.SetFailHook(func() error {
		calls++
		if calls == 1 {
			return boom
		}
		return nil
	})

	_, err := catalog.ListProducts(context.Background(), "all")
	if !errors.Is(err, boom) {
		t.Fatalf("expected simulated failure, got %v", err)
	}

	// Retry is just calling again; nothing sticks from the failed attempt.
	products, err := catalog.ListProducts(context.Background(), "all")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(products) == 0 {
		t.Error("expected products on retry")
	}
}

func TestSearchSuggestions(t *testing.T) {
	catalog := NewCatalogService(0)
	ctx := context.Background()

	got, err := catalog.SearchSuggestions(ctx, "iphone")
	if err != nil {
		t.Fatalf("suggestions failed: %v", err)
	}
	if len(got) != 1 || got[0] != "iPhone 14" {
		t.Errorf("expected [iPhone 14], got %v", got)
	}

	all, _ := catalog.SearchSuggestions(ctx, "")
	if len(all) == 0 {
		t.Error("expected full keyword list for empty query")
	}
}

func TestReviews_Pagination(t *testing.T) {
	catalog := NewCatalogService(0)
	ctx := context.Background()

	first, total, err := catalog.Reviews(ctx, "1", 1, 4)
	if err != nil {
		t.Fatalf("reviews failed: %v", err)
	}
	if total != 9 {
		t.Fatalf("expected 9 total reviews, got %d", total)
	}
	if len(first) != 4 {
		t.Errorf("expected first page of 4, got %d", len(first))
	}

	last, _, _ := catalog.Reviews(ctx, "1", 3, 4)
	if len(last) != 1 {
		t.Errorf("expected last page of 1, got %d", len(last))
	}

	past, _, _ := catalog.Reviews(ctx, "1", 4, 4)
	if len(past) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(past))
	}
}
