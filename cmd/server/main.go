package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lhchen/storefront/internal/adapter/handler"
	"github.com/lhchen/storefront/internal/adapter/storage"
	"github.com/lhchen/storefront/internal/core/domain"
	"github.com/lhchen/storefront/internal/core/service"
	"github.com/lhchen/storefront/internal/pkg/flowctl"
	"github.com/lhchen/storefront/internal/port"
)

const (
	defaultHTTPPort  = ":8080"
	defaultMySQLDSN  = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	defaultRedisAddr = "localhost:6379"

	workerCount  = 4
	queueSize    = 1024
	catalogDelay = 300 * time.Millisecond

	// recomputeSettle coalesces bursts of change events before the badge
	// counts are recomputed from the store.
	recomputeSettle = 200 * time.Millisecond
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Key/value store and change feed: Redis when reachable, otherwise an
	// in-process store so the storefront still runs for local development.
	var (
		kv  port.KVStore
		bus port.EventBus
	)
	rdb := redis.NewClient(&redis.Options{Addr: env("REDIS_ADDR", defaultRedisAddr)})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis unavailable, using in-memory store: %v", err)
		rdb.Close()
		rdb = nil
		mem := storage.NewMemoryAdapter()
		kv, bus = mem, mem
	} else {
		log.Println("connected to redis")
		adapter := storage.NewRedisAdapter(rdb)
		kv, bus = adapter, adapter
	}

	// Order archive: MySQL when reachable, otherwise checkouts are only logged.
	var (
		archive port.OrderArchive
		db      *sql.DB
	)
	db, err := sql.Open("mysql", env("MYSQL_DSN", defaultMySQLDSN))
	if err == nil {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if pingErr := db.PingContext(ctx); pingErr != nil {
			log.Printf("warn: mysql unavailable, order archive disabled: %v", pingErr)
			db.Close()
			db = nil
		} else {
			mysqlAdapter := storage.NewMySQLAdapter(db)
			if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
				log.Fatalf("failed to ensure schema: %v", err)
			}
			archive = mysqlAdapter
			log.Println("connected to mysql")
		}
	}

	viewID := uuid.NewString()
	favorites := service.NewFavoritesService(kv, bus, viewID)
	cart := service.NewCartService(kv, bus, favorites, viewID, queueSize)
	catalog := service.NewCatalogService(catalogDelay)

	if err := cart.RestoreSelections(ctx); err != nil {
		log.Printf("warn: could not restore selections: %v", err)
	}

	// Checkout workers drain the order queue into the archive.
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, cart.OrderQueue(), archive)
		}(i)
	}
	log.Printf("started %d checkout workers", workerCount)

	// Change-feed subscriber: stands in for the other open views. Counts are
	// recomputed from the store itself, never from the event payload.
	events, cancelSub, err := bus.Subscribe(ctx)
	if err != nil {
		log.Fatalf("failed to subscribe to change feed: %v", err)
	}
	go func() {
		settle := flowctl.NewDebouncer(recomputeSettle)
		defer settle.Stop()
		for ev := range events {
			if ev.ViewID == cart.ViewID() {
				continue
			}
			store := ev.Store
			settle.Call(func() {
				count, err := cart.TotalItemCount(context.Background())
				if err != nil {
					log.Printf("recompute after %s change failed: %v", store, err)
					return
				}
				log.Printf("%s changed elsewhere, cart now holds %d items", store, count)
			})
		}
	}()

	httpHandler := handler.NewHTTPHandler(cart, favorites, catalog)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    env("HTTP_ADDR", defaultHTTPPort),
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	if err := cart.SaveSelections(shutdownCtx); err != nil {
		log.Printf("warn: could not snapshot selections: %v", err)
	}

	cart.Close()
	wg.Wait()
	log.Println("workers stopped")

	cancelSub()
	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	log.Println("connections closed")
}

func workerLoop(id int, queue <-chan domain.Order, archive port.OrderArchive) {
	for order := range queue {
		if archive == nil {
			log.Printf("worker %d: no archive, order %s (total %s) dropped after logging",
				id, order.ID, order.Total.StringFixed(2))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := archive.SaveOrder(ctx, order); err != nil {
			log.Printf("worker %d: failed to archive order %s: %v", id, order.ID, err)
		} else {
			log.Printf("worker %d: archived order %s", id, order.ID)
		}
		cancel()
	}
}
