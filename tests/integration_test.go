package tests

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/adapter/storage"
	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	kv      *storage.RedisAdapter
	archive *storage.MySQLAdapter
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	kv := storage.NewRedisAdapter(rdb)
	archive := storage.NewMySQLAdapter(db)
	if err := archive.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	// Start from a clean slate.
	rdb.Del(context.Background(),
		"storefront:cart", "storefront:favorites",
		"storefront:couponDiscount", "storefront:cartSelections")

	return &testEnv{
		redis:   rdb,
		mysql:   db,
		kv:      kv,
		archive: archive,
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func newCart(env *testEnv, viewID string) *service.CartService {
	fav := service.NewFavoritesService(env.kv, env.kv, viewID)
	return service.NewCartService(env.kv, env.kv, fav, viewID, 16)
}

func TestCheckoutFlow_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	cart := newCart(env, "view-main")

	// Archive worker drains the queue like cmd/server does.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for order := range cart.OrderQueue() {
			if err := env.archive.SaveOrder(ctx, order); err != nil {
				t.Errorf("archive failed: %v", err)
			}
		}
	}()

	_, err := cart.Add(ctx, service.AddInput{
		ProductID: "1",
		Name:      "苹果iPhone 14 Pro Max 256GB",
		UnitPrice: decimal.NewFromInt(8999),
		Quantity:  1,
		Color:     "深空黑",
		Storage:   "256GB",
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := cart.Add(ctx, service.AddInput{
		ProductID: "1",
		Name:      "苹果iPhone 14 Pro Max 256GB",
		UnitPrice: decimal.NewFromInt(8999),
		Quantity:  2,
		Color:     "深空黑",
		Storage:   "256GB",
	}); err != nil {
		t.Fatalf("merge add failed: %v", err)
	}

	if err := cart.SelectAll(ctx, true); err != nil {
		t.Fatalf("selectAll failed: %v", err)
	}

	totals, err := cart.Totals(ctx)
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if !totals.Subtotal.Equal(decimal.NewFromInt(26997)) {
		t.Fatalf("expected subtotal 26997, got %s", totals.Subtotal)
	}
	if !totals.ShippingFee.IsZero() {
		t.Fatalf("expected free shipping, got %s", totals.ShippingFee)
	}

	requestID := "req-" + uuid.NewString()
	order, err := cart.Checkout(ctx, requestID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	cart.Close()
	<-done

	archived, err := env.archive.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if archived == nil {
		t.Fatal("expected order archived in mysql")
	}
	if !archived.Total.Equal(order.Total) {
		t.Errorf("archived total %s, want %s", archived.Total, order.Total)
	}

	count, err := cart.TotalItemCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty cart after checkout, got %d items", count)
	}
}

func TestCrossViewSync_OtherViewObservesMutation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	writer := newCart(env, "view-writer")
	defer writer.Close()
	observer := newCart(env, "view-observer")
	defer observer.Close()

	events, cancelSub, err := env.kv.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancelSub()

	if _, err := writer.Add(ctx, service.AddInput{
		ProductID: "8",
		Name:      "无线蓝牙降噪耳机",
		UnitPrice: decimal.NewFromInt(199),
		Quantity:  2,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// The observer sees the event, skips its own view id and recomputes
	// from the store rather than the payload.
	for {
		select {
		case ev := <-events:
			if ev.ViewID == "view-observer" || ev.Store != domain.StoreCart {
				continue
			}
			count, err := observer.TotalItemCount(ctx)
			if err != nil {
				t.Fatalf("recompute failed: %v", err)
			}
			if count != 2 {
				t.Errorf("expected observer to see 2 items, got %d", count)
			}
			return
		case <-ctx.Done():
			t.Fatal("timed out waiting for change event")
		}
	}
}

func TestLastWriterWins_AcrossViews(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	a := newCart(env, "view-a")
	defer a.Close()
	b := newCart(env, "view-b")
	defer b.Close()

	in := service.AddInput{ProductID: "5", Name: "女士春季连衣裙", UnitPrice: decimal.NewFromInt(299), Quantity: 1}
	if _, err := a.Add(ctx, in); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	key := domain.VariantKey{ProductID: "5"}
	if err := a.SetQuantity(ctx, key, 3); err != nil {
		t.Fatalf("setQuantity a failed: %v", err)
	}
	if err := b.SetQuantity(ctx, key, 7); err != nil {
		t.Fatalf("setQuantity b failed: %v", err)
	}

	// Replace-whole-cart writes: the later write is what both views read.
	items, err := a.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 7 {
		t.Errorf("expected last writer's quantity 7, got %+v", items)
	}
}
