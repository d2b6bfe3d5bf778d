package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/devashish-g/titleseek/internal/fuzzy"
	"github.com/devashish-g/titleseek/internal/index"
	"github.com/devashish-g/titleseek/internal/ingest"
	"github.com/devashish-g/titleseek/internal/search"
	"github.com/devashish-g/titleseek/internal/server"
	"github.com/devashish-g/titleseek/pkg/config"
	"github.com/devashish-g/titleseek/pkg/health"
	"github.com/devashish-g/titleseek/pkg/logger"
	"github.com/devashish-g/titleseek/pkg/metrics"
	"github.com/devashish-g/titleseek/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting titleseek", "port", cfg.Server.Port, "corpus", cfg.Corpus.Path)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store := index.NewStore()
	inv := index.NewInverted()
	if err := ingest.BuildOrLoad(cfg.Corpus.Path, cfg.Corpus.SnapshotPath, store, inv, m); err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}

	dict, err := fuzzy.NewDictionary(inv.Terms())
	if err != nil {
		slog.Error("failed to build fuzzy dictionary", "error", err)
		os.Exit(1)
	}
	slog.Info("fuzzy dictionary built", "terms", dict.Len())

	cache, err := fuzzy.NewCache(cfg.Search.CacheSize)
	if err != nil {
		slog.Error("failed to create fuzzy cache", "error", err)
		os.Exit(1)
	}
	if m != nil {
		cache.SetObserver(func() { m.FuzzyCacheHitsTotal.Inc() }, func() { m.FuzzyCacheMissTotal.Inc() })
	}

	engine := search.NewEngine(store, inv, dict, cache, search.Options{
		TopN:            cfg.Search.TopN,
		MaxCombinations: cfg.Search.MaxCombinations,
		Metrics:         m,
	})

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if engine.DocCount() > 0 && engine.TermCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents, %d terms", engine.DocCount(), engine.TermCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "index empty"}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	h := server.New(engine, cache)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.CORS(corsCfg)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("titleseek listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("titleseek stopped")
}
