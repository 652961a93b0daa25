package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/synaptic/internal/adapters/export"
	"github.com/okian/synaptic/internal/adapters/http/api"
	"github.com/okian/synaptic/internal/adapters/http/swagger"
	app "github.com/okian/synaptic/internal/app"
	"github.com/okian/synaptic/internal/config"
	"github.com/okian/synaptic/pkg/logger"
	"github.com/okian/synaptic/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return
	}
	if err := logger.InitFormat(os.Stdout, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()
	loggerInstance := logger.Get()

	// Unknown levels fall back to info.
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(serviceOptions(cfg, loggerInstance)...)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	summary := svc.Summary()
	loggerInstance.Info(ctx, "server stopped",
		logger.String("session", summary.SessionID),
		logger.Int("final_score", summary.FinalScore),
		logger.Float64("duration_seconds", summary.DurationSeconds),
	)
}

// serviceOptions maps the configuration onto service options.
func serviceOptions(cfg *config.Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithLogger(l),
		app.WithTickInterval(cfg.TickInterval()),
		app.WithCommandQueueSize(cfg.CommandQueueSize),
		app.WithRecordQueueSize(cfg.RecordQueueSize),
		app.WithRecordInterval(cfg.RecordInterval()),
		app.WithRecorderWorkers(cfg.RecorderWorkers),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDBPath(cfg.DBPath),
		app.WithSeed(cfg.Seed),
		app.WithConnectLatency(cfg.ConnectLatency()),
		app.WithSamplePeriod(cfg.SamplePeriod()),
		app.WithPlasticityRates(cfg.NeurogenesisRate, cfg.MyelinRate),
		app.WithMaxPopulation(cfg.MaxPopulation),
		app.WithSpawnInterval(cfg.SpawnInterval()),
		app.WithStress(cfg.StressEnabled),
	}
}

// newMux registers the API and documentation routes for a started service.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	// Validate has already rejected unknown formats.
	format, _ := export.ParseFormat(cfg.ExportFormat)
	apiServer := api.NewServer(svc, svc.Reports(), svc,
		api.WithCommandTimeout(cfg.CommandTimeout()),
		api.WithExportFormat(format),
		api.WithLogger(logger.NamedOrNop("api")),
	)
	apiServer.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that only change on reads.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if n, ok := stats["command_queue_size"].(int); ok {
		metrics.UpdateQueueSize("commands", n)
	}
	if n, ok := stats["record_queue_size"].(int); ok {
		metrics.UpdateQueueSize("records", n)
	}
	if n, ok := stats["score"].(int); ok {
		metrics.UpdateSessionScore(n)
	}
}
