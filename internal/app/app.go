package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"AdmitScanner/internal/config"
	"AdmitScanner/internal/infrastructure/enrich"
	"AdmitScanner/internal/infrastructure/scheduler"
	"AdmitScanner/internal/infrastructure/scraper"
	"AdmitScanner/internal/infrastructure/storage"
	"AdmitScanner/internal/infrastructure/telegram"
	"AdmitScanner/internal/logging"
	"AdmitScanner/internal/ports"
	"AdmitScanner/internal/server"
	"AdmitScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	repository *storage.Repository
	runner     *usecase.Runner
	scheduler  *usecase.Scheduler
	httpServer *http.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repository, err := storage.Open(cfg.Database.DSN, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := repository.EnsureSchema(ctx); err != nil {
		repository.Close()
		return nil, fmt.Errorf("prepare store: %w", err)
	}

	source := scraper.NewSurveyScanner(cfg.Scraper.BaseURL, nil, baseLogger.With("component", "scraper"))
	enricher := newEnricher(cfg.Enrichment, baseLogger.With("component", "enrich"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Repository: repository,
		Enricher:   enricher,
		MaxRecords: cfg.Scraper.MaxRecords,
		Delay:      cfg.Scraper.Delay(),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	runner := usecase.NewRunner(pipeline, usecase.NewGate(), notifier, baseLogger.With("component", "runner"))

	srv := server.New(ctx, runner, repository, "", baseLogger.With("component", "server"))
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *usecase.Scheduler
	if cfg.Scheduler.Enabled {
		driver := scheduler.NewTickerScheduler(cfg.Scheduler.Interval())
		sched = usecase.NewScheduler(driver, runner)
	}

	return &Application{
		cfg:        cfg,
		logger:     baseLogger.With("component", "app"),
		repository: repository,
		runner:     runner,
		scheduler:  sched,
		httpServer: httpServer,
	}, nil
}

// newEnricher selects the enrichment boundary: a configured endpoint means
// the hosted HTTP service, otherwise the local subprocess.
func newEnricher(cfg config.EnrichmentConfig, logger *slog.Logger) ports.Enricher {
	if cfg.Endpoint != "" {
		return enrich.NewHTTPEnricher(cfg.Endpoint, cfg.APIKey)
	}
	return enrich.NewCommandEnricher(cfg.Command, cfg.InputPath(), cfg.OutputPath(), logger)
}

// Run serves the trigger endpoints until the context ends, then drains any
// in-flight pipeline run before closing the store.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.httpServer.ListenAndServe()
	}()

	a.logger.Info("listening", "addr", a.cfg.Server.Addr)

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.httpServer.Shutdown(shutdownCtx)
	if a.scheduler != nil {
		_ = a.scheduler.Stop(shutdownCtx)
	}
	a.runner.Wait()

	if err := a.repository.Close(); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("close store: %w", err)
	}

	return serveErr
}
