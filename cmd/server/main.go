package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogsqlite "github.com/ridekraft/storefront/internal/catalog/sqlite"
	"github.com/ridekraft/storefront/internal/infra/httpx"
	"github.com/ridekraft/storefront/internal/inventory"
	ledgersqlite "github.com/ridekraft/storefront/internal/inventory/ledger/sqlite"
	inventorysqlite "github.com/ridekraft/storefront/internal/inventory/sqlite"
	"github.com/ridekraft/storefront/internal/order"
	"github.com/ridekraft/storefront/internal/order/draft"
	ordersqlite "github.com/ridekraft/storefront/internal/order/sqlite"
	"github.com/ridekraft/storefront/internal/pkg/cache"
	"github.com/ridekraft/storefront/internal/pkg/telemetry"
	"github.com/ridekraft/storefront/internal/storage"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "storefront"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := storage.Open(getEnv("DB_PATH", "storefront.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalogRepo, err := catalogsqlite.New(db)
	if err != nil {
		slog.Error("failed to initialise catalog schema", "error", err)
		os.Exit(1)
	}
	stockStore, err := inventorysqlite.New(db)
	if err != nil {
		slog.Error("failed to initialise stock schema", "error", err)
		os.Exit(1)
	}
	ledgerRepo, err := ledgersqlite.New(db)
	if err != nil {
		slog.Error("failed to initialise ledger schema", "error", err)
		os.Exit(1)
	}
	orderRepo, err := ordersqlite.New(db)
	if err != nil {
		slog.Error("failed to initialise orders schema", "error", err)
		os.Exit(1)
	}

	// REDIS_ADDR is optional: without it the dashboards recompute per request.
	var c cache.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c = cache.NewRedisCache(redisAddr, "storefront")
	}

	tx := storage.NewTxManager(db)
	inventorySvc := inventory.NewService(stockStore, ledgerRepo, tx, c)
	orderSvc := order.NewService(catalogRepo, stockStore, ledgerRepo, orderRepo, tx, c)
	drafts := draft.NewStore()

	handler := httpx.NewHandler(catalogRepo, inventorySvc, orderSvc, drafts, c)
	router := httpx.NewRouter(handler)

	addr := getEnv("HTTP_ADDR", ":8080")
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("storefront API running", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
