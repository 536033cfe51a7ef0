package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	_ "github.com/sijms/go-ora/v2"

	"github.com/fintrack/stocks-service/internal/application"
	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/cache"
	"github.com/fintrack/stocks-service/internal/infrastructure/config"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata/finnhub"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata/yahoo"
	persistmemory "github.com/fintrack/stocks-service/internal/infrastructure/persistence/memory"
	"github.com/fintrack/stocks-service/internal/infrastructure/persistence/sqldb"
	httpHandler "github.com/fintrack/stocks-service/internal/interfaces/http"
)

// setupLogger configures and returns the structured logger used everywhere
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

// initializeLedger sets up the transaction store and runs migrations for
// the SQL backends.
func initializeLedger(cfg *config.Config) (domain.TransactionRepository, error) {
	var db *sql.DB
	var dialect sqldb.Dialect
	var err error

	switch cfg.DBDriver {
	case "memory":
		return persistmemory.NewTransactionRepository(), nil
	case "postgres":
		db, err = sql.Open("pgx", cfg.DBDSN)
		dialect = &sqldb.PostgresDialect{}
	case "oracle":
		db, err = sql.Open("oracle", cfg.DBDSN)
		dialect = &sqldb.OracleDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapper := sqldb.New(db, dialect)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wrapper.Dialect.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return sqldb.NewRepository(wrapper), nil
}

// buildCache selects the cache backend from configuration.
func buildCache(cfg *config.Config) cache.Cache {
	if cfg.CacheBackend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return cache.NewRedis(client)
	}
	return cache.NewMemory()
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, handler *httpHandler.Handler) *http.Server {
	router := gin.Default()
	httpHandler.SetupRoutes(router, handler, cfg.JWTSecret)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// App wraps the application components for easier testing
type App struct {
	Server        *http.Server
	CacheWarmer   *application.CacheWarmer
	CancelContext context.CancelFunc
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	a.CacheWarmer.Stop()
	a.CancelContext()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	return nil
}

// run contains the main application logic without os.Exit calls
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.LogLevel)

	ledger, err := initializeLedger(cfg)
	if err != nil {
		return fmt.Errorf("ledger initialization failed: %w", err)
	}
	slog.Info("Ledger initialized", "driver", cfg.DBDriver)

	marketService := application.NewMarketDataService(
		buildCache(cfg),
		finnhub.NewClient(cfg.FinnhubAPIKey),
		yahoo.NewClient(cfg.YahooBaseURL),
	)
	portfolioService := application.NewPortfolioService(ledger, marketService)
	transactionService := application.NewTransactionService(ledger, portfolioService, marketService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	warmer := application.NewCacheWarmer(marketService, cfg.CacheWarmInterval)
	go warmer.Start(ctx)

	handler := httpHandler.NewHandler(marketService, portfolioService, transactionService)
	server := buildServer(cfg, handler)

	app := &App{
		Server:        server,
		CacheWarmer:   warmer,
		CancelContext: cancel,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "host", cfg.ServerHost, "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
