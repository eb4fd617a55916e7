// Command loadgen fires concurrent cart mutations at a shared Redis-backed
// store and verifies that merge-on-add keeps a single line per variant key.
package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/adapter/storage"
	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/core/service"
	"github.com/lhchen/storefront/internal/pkg/flowctl"
)

const (
	redisAddr     = "localhost:6379"
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Clear previous run
	rdb.Del(ctx, "storefront:cart", "storefront:favorites", "storefront:couponDiscount", "storefront:cartSelections")

	adapter := storage.NewRedisAdapter(rdb)
	favorites := service.NewFavoritesService(adapter, adapter, "loadgen")
	cart := service.NewCartService(adapter, adapter, favorites, "loadgen", queueSize)
	defer cart.Close()

	in := service.AddInput{
		ProductID: "1",
		Name:      "苹果iPhone 14 Pro Max 256GB",
		UnitPrice: decimal.NewFromInt(8999),
		Quantity:  1,
		Color:     "深空黑",
		Storage:   "256GB",
	}

	var done, failures atomic.Int32
	var wg sync.WaitGroup
	progress := flowctl.NewThrottler(100 * time.Millisecond)

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cart.Add(ctx, in); err != nil {
				failures.Add(1)
			}
			n := done.Add(1)
			progress.Call(func() {
				log.Printf("progress: %d/%d", n, totalRequests)
			})
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	items, err := cart.List(ctx)
	if err != nil {
		log.Fatalf("failed to list cart: %v", err)
	}

	key := domain.VariantKey{ProductID: in.ProductID, Color: in.Color, Storage: in.Storage}
	lines := 0
	quantity := 0
	for _, li := range items {
		if li.Key() == key {
			lines++
			quantity += li.Quantity
		}
	}

	log.Printf("fired %d adds in %v (%d failed)", totalRequests, elapsed, failures.Load())
	log.Printf("lines for key: %d (want 1), quantity: %d (want %d, clamp %d)",
		lines, quantity, totalRequests, domain.MaxQuantity)

	if lines != 1 {
		log.Fatalf("FAIL: variant key spread across %d lines", lines)
	}
	want := totalRequests
	if want > domain.MaxQuantity {
		want = domain.MaxQuantity
	}
	if quantity != want {
		log.Fatalf("FAIL: quantity %d, want %d", quantity, want)
	}
	log.Println("OK")
}
