package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/config"
	"github.com/joelkehle/nac-tco/internal/httpapi"
	"github.com/joelkehle/nac-tco/internal/metrics"
	"github.com/joelkehle/nac-tco/internal/report"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
	"github.com/joelkehle/nac-tco/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}

	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, shutdownTracing, err := telemetry.NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing", zap.Error(err))
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			logger.Fatal("load catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
		}
		logger.Info("using catalog file", zap.String("path", cfg.Catalog.Path))
	}

	engineOpts := append([]tco.Option{
		tco.WithLogger(logger.Named("engine")),
		tco.WithTracerProvider(tp),
	}, cfg.EngineOptions()...)
	engine, err := tco.NewEngine(cat, engineOpts...)
	if err != nil {
		logger.Fatal("engine", zap.Error(err))
	}

	opts := []httpapi.Option{
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		httpapi.WithPDFRenderer(report.NewPDFRenderer(cfg.Report.ChromePath, cfg.Report.PDFTimeout)),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, httpapi.WithMetrics(metrics.NewRegistry(cfg.Metrics.Namespace)))
	}
	if cfg.Store.Path != "" {
		ss, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			logger.Fatal("open sqlite store", zap.String("path", cfg.Store.Path), zap.Error(err))
		}
		defer ss.Close()
		opts = append(opts, httpapi.WithStore(ss))
		logger.Info("using sqlite store", zap.String("path", cfg.Store.Path))
	}
	if cfg.Report.Narrative {
		narrator, err := report.NewNarratorFromEnv()
		if err != nil {
			logger.Warn("executive summaries disabled", zap.Error(err))
		} else {
			if cfg.Report.NarrativeModel != "" {
				narrator = narrator.WithModel(cfg.Report.NarrativeModel)
			}
			opts = append(opts, httpapi.WithNarrator(narrator))
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewServer(engine, cfg.Metrics.Path, opts...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("nac-tco listening", zap.String("addr", cfg.Server.Addr), zap.Int("vendors", len(cat.Vendors())))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}
