package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/core/domain"
)

var ErrProductNotFound = errors.New("product not found")

// CatalogService serves hard-coded product data behind an artificial delay,
// standing in for a real catalog backend. Fetches are fire-and-forget from
// the caller's point of view: a failure is returned as-is and retried by
// simply calling again, no state is kept between calls.
type CatalogService struct {
	delay    time.Duration
	failHook func() error // injected by tests to simulate fetch failures

	products    []domain.Product
	hotKeywords []string
	reviews     map[string][]domain.Review
}

func NewCatalogService(delay time.Duration) *CatalogService {
	return &CatalogService{
		delay:       delay,
		products:    demoProducts(),
		hotKeywords: demoKeywords(),
		reviews:     demoReviews(),
	}
}

// SetFailHook installs a hook invoked before each simulated fetch.
func (s *CatalogService) SetFailHook(hook func() error) {
	s.failHook = hook
}

func (s *CatalogService) simulate(ctx context.Context) error {
	if s.failHook != nil {
		if err := s.failHook(); err != nil {
			return fmt.Errorf("catalog fetch: %w", err)
		}
	}
	if s.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}

// ListProducts returns products in the category, or all of them for "" / "all".
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	if category == "" || category == "all" {
		out := make([]domain.Product, len(s.products))
		copy(out, s.products)
		return out, nil
	}
	var out []domain.Product
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProductNotFound
}

func (s *CatalogService) Recommendations(ctx context.Context, n int) ([]domain.Product, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	if n <= 0 || n > len(s.products) {
		n = len(s.products)
	}
	out := make([]domain.Product, n)
	copy(out, s.products[:n])
	return out, nil
}

// SearchSuggestions filters the hot keywords by substring match.
func (s *CatalogService) SearchSuggestions(ctx context.Context, query string) ([]string, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]string, len(s.hotKeywords))
		copy(out, s.hotKeywords)
		return out, nil
	}
	var out []string
	for _, kw := range s.hotKeywords {
		if strings.Contains(strings.ToLower(kw), query) {
			out = append(out, kw)
		}
	}
	return out, nil
}

// Reviews returns one page of reviews and the total count for the product.
func (s *CatalogService) Reviews(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, 0, err
	}
	all := s.reviews[productID]
	total := len(all)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 3
	}
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]domain.Review, end-start)
	copy(out, all[start:end])
	return out, total, nil
}

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func demoProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "1", Name: "苹果iPhone 14 Pro Max 256GB", Category: "electronics",
			Price: price(8999), ReferencePrice: price(9999),
			ImageRef: "images/14promax.jpg", Rating: 4.8, ReviewCount: 1250,
			Colors:   []string{"深空黑", "银色", "暗紫色"},
			Storages: []string{"128GB", "256GB", "512GB"},
			Badge:    "热卖", InStock: true,
		},
		{
			ID: "2", Name: "小米17 Pro 黑色 徕卡影像", Category: "electronics",
			Price: price(5999), ReferencePrice: price(6499),
			ImageRef: "images/小米17pro.jpg", Rating: 4.7, ReviewCount: 980,
			Colors:   []string{"黑色", "白色"},
			Storages: []string{"256GB", "512GB"},
			Badge:    "新品", InStock: true,
		},
		{
			ID: "3", Name: "联想拯救者Y9000P", Category: "electronics",
			Price: price(10999), ReferencePrice: price(11999),
			ImageRef: "images/拯救者.jpg", Rating: 4.9, ReviewCount: 760,
			Storages: []string{"1TB", "2TB"},
			Badge:    "推荐", InStock: true,
		},
		{
			ID: "4", Name: "男士商务休闲西装外套", Category: "clothing",
			Price: price(499), ReferencePrice: price(699),
			ImageRef: "images/西装.jpg", Rating: 4.5, ReviewCount: 320,
			Badge:    "促销", InStock: true,
		},
		{
			ID: "5", Name: "女士春季连衣裙", Category: "clothing",
			Price: price(299), ReferencePrice: price(399),
			ImageRef: "images/连衣裙.jpg", Rating: 4.6, ReviewCount: 450,
			Badge:    "热卖", InStock: true,
		},
		{
			ID: "6", Name: "北欧简约实木餐桌椅", Category: "home",
			Price: price(2499), ReferencePrice: price(2999),
			ImageRef: "images/北欧实木家具.jpg", Rating: 4.8, ReviewCount: 210,
			Badge:    "推荐", InStock: true,
		},
		{
			ID: "7", Name: "智能空气净化器", Category: "home",
			Price: price(1299), ReferencePrice: price(1599),
			ImageRef: "images/空气净化器.jpg", Rating: 4.7, ReviewCount: 380,
			Badge:    "新品", InStock: true,
		},
		{
			ID: "8", Name: "无线蓝牙降噪耳机", Category: "electronics",
			Price: price(199), ReferencePrice: price(999),
			ImageRef: "images/蓝牙耳机.jpg", Rating: 4.6, ReviewCount: 890,
			Badge:    "促销", InStock: true,
		},
	}
}

func demoKeywords() []string {
	return []string{"iPhone 14", "笔记本电脑", "运动鞋", "连衣裙", "蓝牙耳机", "空气净化器"}
}

func demoReviews() map[string][]domain.Review {
	base := time.Date(2023, 10, 10, 12, 0, 0, 0, time.UTC)
	mk := func(n int) []domain.Review {
		out := make([]domain.Review, n)
		for i := range out {
			out[i] = domain.Review{
				Author:    fmt.Sprintf("用户%04d", 1000+i),
				Rating:    5,
				Content:   "商品质量很好，物流速度快，客服态度也很好，非常满意的一次购物体验！",
				CreatedAt: base.AddDate(0, 0, i),
			}
		}
		return out
	}
	return map[string][]domain.Review{
		"1": mk(9),
		"2": mk(6),
		"8": mk(4),
	}
}
