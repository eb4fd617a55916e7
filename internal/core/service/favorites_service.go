package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/port"
)

const favoritesKey = "favorites"

// FavoritesService owns the persisted favorite product IDs. It is independent
// of the cart: a plain set keyed by product ID, no variant axes.
type FavoritesService struct {
	kv     port.KVStore
	bus    port.EventBus
	viewID string

	mu sync.Mutex
}

func NewFavoritesService(kv port.KVStore, bus port.EventBus, viewID string) *FavoritesService {
	return &FavoritesService{kv: kv, bus: bus, viewID: viewID}
}

// load treats absent or malformed data as an empty set.
func (s *FavoritesService) load(ctx context.Context) ([]string, error) {
	raw, err := s.kv.Get(ctx, favoritesKey)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, nil
	}
	return ids, nil
}

func (s *FavoritesService) save(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}
	if err := s.kv.Set(ctx, favoritesKey, raw); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	s.publish(ctx, raw)
	return nil
}

func (s *FavoritesService) publish(ctx context.Context, snapshot []byte) {
	// Change feed is best-effort; the mutation already persisted.
	_ = s.bus.Publish(ctx, domain.ChangeEvent{
		Store:    domain.StoreFavorites,
		ViewID:   s.viewID,
		Snapshot: snapshot,
		At:       time.Now(),
	})
}

// Toggle flips membership of id and returns the new state.
func (s *FavoritesService) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			return false, s.save(ctx, ids)
		}
	}
	ids = append(ids, id)
	return true, s.save(ctx, ids)
}

func (s *FavoritesService) Contains(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

// AddMany adds the given IDs and returns how many were newly added. IDs
// already present are not re-added and not counted.
func (s *FavoritesService) AddMany(ctx context.Context, add []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	present := make(map[string]bool, len(ids))
	for _, v := range ids {
		present[v] = true
	}

	added := 0
	for _, id := range add {
		if present[id] {
			continue
		}
		present[id] = true
		ids = append(ids, id)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, s.save(ctx, ids)
}

func (s *FavoritesService) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FavoritesService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, favoritesKey); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	s.publish(ctx, nil)
	return nil
}
