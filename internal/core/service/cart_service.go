package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/port"
)

var (
	ErrCouponMinimum    = errors.New("subtotal below coupon minimum spend")
	ErrNothingSelected  = errors.New("no items selected")
	ErrDuplicateRequest = errors.New("duplicate request")
)

const (
	cartKey       = "cart"
	couponKey     = "couponDiscount"
	selectionsKey = "cartSelections"
)

// CartService is the sole authority over the persisted cart, plus the
// in-memory checkout selection kept consistent with it. Every mutation is a
// load-modify-save of the whole cart: within one service instance the mutex
// serializes writers, across instances sharing a store the last writer wins.
// That lost-update window between independent views is accepted, it mirrors
// how a shared browser-local store behaves.
type CartService struct {
	kv      port.KVStore
	bus     port.EventBus
	fav     *FavoritesService
	pricing PricingEngine
	viewID  string

	mu        sync.Mutex
	selection *SelectionModel
	couponMin decimal.Decimal // minimum spend of the coupon applied this session

	orderQueue chan domain.Order
}

type AddInput struct {
	ProductID      string
	Name           string
	UnitPrice      decimal.Decimal
	ReferencePrice decimal.Decimal
	ImageRef       string
	Quantity       int
	Color          string
	Storage        string
}

// NewCartService builds the cart over kv and bus. viewID identifies this
// view on the change feed; pass "" to generate one.
func NewCartService(kv port.KVStore, bus port.EventBus, fav *FavoritesService, viewID string, queueSize int) *CartService {
	if viewID == "" {
		viewID = uuid.NewString()
	}
	return &CartService{
		kv:         kv,
		bus:        bus,
		fav:        fav,
		viewID:     viewID,
		selection:  NewSelectionModel(),
		orderQueue: make(chan domain.Order, queueSize),
	}
}

// ViewID identifies this service instance on the change feed, so a view can
// skip events it published itself.
func (s *CartService) ViewID() string { return s.viewID }

// load treats absent or malformed stored data as an empty cart, never an error.
func (s *CartService) load(ctx context.Context) (domain.Cart, error) {
	raw, err := s.kv.Get(ctx, cartKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if raw == nil {
		return domain.Cart{}, nil
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}, nil
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.kv.Set(ctx, cartKey, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.publish(ctx, raw)
	return nil
}

func (s *CartService) publish(ctx context.Context, snapshot []byte) {
	// Change feed is best-effort; the mutation already persisted.
	_ = s.bus.Publish(ctx, domain.ChangeEvent{
		Store:    domain.StoreCart,
		ViewID:   s.viewID,
		Snapshot: snapshot,
		At:       time.Now(),
	})
}

// Add merges into an existing line with the same variant key, clamping the
// summed quantity at the maximum (excess is silently dropped), or appends a
// new line with the quantity clamped into range.
func (s *CartService) Add(ctx context.Context, in AddInput) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return domain.LineItem{}, err
	}

	qty := domain.ClampQuantity(in.Quantity)
	key := domain.VariantKey{ProductID: in.ProductID, Color: in.Color, Storage: in.Storage}

	if i := cart.Find(key); i >= 0 {
		cart[i].Quantity = domain.ClampQuantity(cart[i].Quantity + qty)
		if err := s.save(ctx, cart); err != nil {
			return domain.LineItem{}, err
		}
		return cart[i], nil
	}

	li := domain.LineItem{
		ProductID:      in.ProductID,
		Name:           in.Name,
		UnitPrice:      in.UnitPrice,
		ReferencePrice: in.ReferencePrice,
		ImageRef:       in.ImageRef,
		Color:          in.Color,
		Storage:        in.Storage,
		Quantity:       qty,
		AddedAt:        time.Now(),
	}
	cart = append(cart, li)
	if err := s.save(ctx, cart); err != nil {
		return domain.LineItem{}, err
	}
	return li, nil
}

// SetQuantity updates the line matching key, clamping into range. A missing
// key is a silent no-op. If the stored cart holds more than one line for the
// key, the first match takes the new quantity and the rest are deleted, so
// the store never keeps duplicate keys after this call.
func (s *CartService) SetQuantity(ctx context.Context, key domain.VariantKey, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return err
	}

	out := cart[:0]
	found := false
	for _, li := range cart {
		if li.Key() == key {
			if found {
				continue // duplicate-key anomaly, drop it
			}
			li.Quantity = domain.ClampQuantity(quantity)
			found = true
		}
		out = append(out, li)
	}
	if !found {
		return nil
	}
	return s.save(ctx, out)
}

// Remove deletes every line matching key and drops it from the selection.
func (s *CartService) Remove(ctx context.Context, key domain.VariantKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, map[domain.VariantKey]bool{key: true})
}

// RemoveMany deletes every line whose key is in keys.
func (s *CartService) RemoveMany(ctx context.Context, keys []domain.VariantKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[domain.VariantKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return s.removeLocked(ctx, set)
}

func (s *CartService) removeLocked(ctx context.Context, keys map[domain.VariantKey]bool) (int, error) {
	cart, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	out := cart[:0]
	removed := 0
	for _, li := range cart {
		if keys[li.Key()] {
			removed++
			continue
		}
		out = append(out, li)
	}
	if removed == 0 {
		return 0, nil
	}

	for k := range keys {
		s.selection.Set(k, false)
	}
	if err := s.save(ctx, out); err != nil {
		return 0, err
	}
	return removed, nil
}

// Clear replaces the cart with the empty sequence and resets the selection.
func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, cartKey); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.selection.Reset()
	s.publish(ctx, nil)
	return nil
}

// List returns a snapshot copy of the cart lines in display order.
func (s *CartService) List(ctx context.Context) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LineItem, len(cart))
	copy(out, cart)
	return out, nil
}

// TotalItemCount is the sum of quantities across all lines.
func (s *CartService) TotalItemCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return cart.TotalItemCount(), nil
}

// Select marks or unmarks a line for checkout. Selecting a key not present in
// the stored cart is a no-op.
func (s *CartService) Select(ctx context.Context, key domain.VariantKey, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selected {
		cart, err := s.load(ctx)
		if err != nil {
			return err
		}
		if cart.Find(key) < 0 {
			return nil
		}
	}
	s.selection.Set(key, selected)
	return nil
}

// SelectAll applies selected to every key currently present in the cart.
func (s *CartService) SelectAll(ctx context.Context, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !selected {
		s.selection.Reset()
		return nil
	}
	cart, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, k := range cart.Keys() {
		s.selection.Set(k, true)
	}
	return nil
}

func (s *CartService) IsSelected(key domain.VariantKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IsSelected(key)
}

func (s *CartService) SelectedKeys() []domain.VariantKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.SelectedKeys()
}

// SaveSelections snapshots the selection under its own key. Best-effort UI
// convenience only, never authoritative.
func (s *CartService) SaveSelections(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string]bool, len(s.selection.Selected()))
	for k := range s.selection.Selected() {
		snap[k.String()] = true
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal selections: %w", err)
	}
	if err := s.kv.Set(ctx, selectionsKey, raw); err != nil {
		return fmt.Errorf("save selections: %w", err)
	}
	return nil
}

// RestoreSelections re-selects the snapshotted keys that still exist in the
// cart. Missing or malformed snapshots restore nothing.
func (s *CartService) RestoreSelections(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, selectionsKey)
	if err != nil {
		return fmt.Errorf("load selections: %w", err)
	}
	if raw == nil {
		return nil
	}
	var snap map[string]bool
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}

	cart, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, k := range cart.Keys() {
		if snap[k.String()] {
			s.selection.Set(k, true)
		}
	}
	return nil
}

// ApplyCoupon activates a coupon when the current selected subtotal reaches
// its minimum spend. On rejection the previously active coupon is untouched.
func (s *CartService) ApplyCoupon(ctx context.Context, amount, minimumSpend decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return err
	}
	totals := s.pricing.Compute(cart, s.selection.Selected(), nil)
	if totals.Subtotal.LessThan(minimumSpend) {
		return ErrCouponMinimum
	}

	if err := s.kv.Set(ctx, couponKey, []byte(amount.String())); err != nil {
		return fmt.Errorf("save coupon: %w", err)
	}
	s.couponMin = minimumSpend

	_ = s.bus.Publish(ctx, domain.ChangeEvent{
		Store:  domain.StoreCoupon,
		ViewID: s.viewID,
		At:     time.Now(),
	})
	return nil
}

// ActiveCoupon returns the persisted coupon, or nil when none is active. Only
// the amount is persisted; a coupon restored from storage without a session
// minimum falls back to the default minimum spend.
func (s *CartService) ActiveCoupon(ctx context.Context) (*domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCouponLocked(ctx)
}

func (s *CartService) activeCouponLocked(ctx context.Context) (*domain.Coupon, error) {
	raw, err := s.kv.Get(ctx, couponKey)
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	amount, err := decimal.NewFromString(string(raw))
	if err != nil || amount.IsNegative() {
		return nil, nil
	}

	min := s.couponMin
	if min.IsZero() {
		min = domain.DefaultMinimumSpend
	}
	return &domain.Coupon{Amount: amount, MinimumSpend: min}, nil
}

// Totals prices the current cart, selection and coupon.
func (s *CartService) Totals(ctx context.Context) (domain.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return domain.Totals{}, err
	}
	coupon, err := s.activeCouponLocked(ctx)
	if err != nil {
		return domain.Totals{}, err
	}
	return s.pricing.Compute(cart, s.selection.Selected(), coupon), nil
}

// MoveToFavorites adds the products behind keys to favorites, then removes
// the lines from the cart. Returns lines moved and favorites newly added.
func (s *CartService) MoveToFavorites(ctx context.Context, keys []domain.VariantKey) (moved, added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx)
	if err != nil {
		return 0, 0, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if cart.Find(k) < 0 || seen[k.ProductID] {
			continue
		}
		seen[k.ProductID] = true
		ids = append(ids, k.ProductID)
	}

	added, err = s.fav.AddMany(ctx, ids)
	if err != nil {
		return 0, 0, err
	}

	set := make(map[domain.VariantKey]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	moved, err = s.removeLocked(ctx, set)
	if err != nil {
		return 0, added, err
	}
	return moved, added, nil
}

// Checkout turns the selected lines into an order, enqueues it for the
// archive workers and removes the purchased lines from the cart. requestID
// deduplicates retries of the same checkout.
func (s *CartService) Checkout(ctx context.Context, requestID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := s.selection.Selected()
	if len(selected) == 0 {
		return domain.Order{}, ErrNothingSelected
	}

	ok, err := s.kv.SetIdempotency(ctx, "checkout:"+requestID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("idempotency check: %w", err)
	}
	if !ok {
		return domain.Order{}, ErrDuplicateRequest
	}

	cart, err := s.load(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	var items []domain.LineItem
	for _, li := range cart {
		if selected[li.Key()] {
			items = append(items, li)
		}
	}
	if len(items) == 0 {
		return domain.Order{}, ErrNothingSelected
	}

	coupon, err := s.activeCouponLocked(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	totals := s.pricing.Compute(cart, selected, coupon)

	now := time.Now()
	order := domain.Order{
		ID:             uuid.NewString(),
		RequestID:      requestID,
		Items:          items,
		Subtotal:       totals.Subtotal,
		ShippingFee:    totals.ShippingFee,
		CouponDiscount: totals.CouponDiscount,
		Total:          totals.Total,
		Status:         domain.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.orderQueue <- order

	keys := make(map[domain.VariantKey]bool, len(items))
	for _, li := range items {
		keys[li.Key()] = true
	}
	if _, err := s.removeLocked(ctx, keys); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// OrderQueue exposes queued checkouts to the archive workers.
func (s *CartService) OrderQueue() <-chan domain.Order {
	return s.orderQueue
}

func (s *CartService) Close() {
	close(s.orderQueue)
}
