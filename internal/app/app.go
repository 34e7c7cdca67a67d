// Package app aggregates configuration and shared wiring for the CLI
// commands.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bankrates/internal/ai"
	"bankrates/internal/alerting"
	"bankrates/internal/banks"
	"bankrates/internal/cache"
	"bankrates/internal/config"
	"bankrates/internal/fetch"
	"bankrates/internal/scheduler"
	"bankrates/internal/service"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *fetch.Client {
	return fetch.NewClient(fetch.Options{
		Timeout:   a.Config.Scraper.RequestTimeout,
		UserAgent: a.Config.Scraper.UserAgent,
	}, a.Logger)
}

func (a *App) newAIParser() ai.Parser {
	if !a.Config.AI.Enabled {
		return nil
	}
	return ai.NewOpenRouterParser(ai.Options{
		APIKey:  a.Config.AI.APIKey,
		BaseURL: a.Config.AI.BaseURL,
		Model:   a.Config.AI.Model,
		Timeout: a.Config.AI.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	tg := a.Config.Alerting.Telegram
	return alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger)
}

// openStore returns the configured cache store. Without a database DSN
// the app runs on an in-memory store, which only makes sense for the
// long-lived watch daemon.
func (a *App) openStore(ctx context.Context) (cache.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		a.Logger.Warn().Msg("database.dsn not configured; using in-memory cache")
		return cache.NewMemoryStore(), func() {}, nil
	}

	pool, err := cache.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := cache.NewPostgresStore(pool)
	return store, store.Close, nil
}

func (a *App) newOrchestrator(store cache.Store) *service.Orchestrator {
	registry := banks.DefaultRegistry(a.newClient(), a.Logger)
	return service.New(registry, store, a.newAIParser(), a.newNotifier(), service.Options{
		TTL:           a.Config.Cache.TTL,
		KeepLatest:    a.Config.Cache.KeepLatest,
		AIEnabled:     a.Config.AI.Enabled,
		NullThreshold: a.Config.AI.NullThreshold,
	}, a.Logger)
}

// RatesOptions configure the rates command.
type RatesOptions struct {
	Source  string // empty means all sources
	Refresh bool
}

// Rates prints one source's record, or every source's, as JSON.
func (a *App) Rates(ctx context.Context, opts RatesOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	orch := a.newOrchestrator(store)

	var payload any
	if opts.Source != "" {
		rec, err := orch.GetRates(ctx, opts.Source, opts.Refresh)
		if err != nil {
			return err
		}
		payload = rec
	} else {
		result, err := orch.GetAllRates(ctx, opts.Refresh)
		if err != nil {
			return err
		}
		payload = result
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// Watch runs the periodic refresh daemon until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	orch := a.newOrchestrator(store)
	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		StartupDelay: a.Config.Watch.StartupDelay,
		RunAtStart:   true,
	}, a.Logger)

	a.Logger.Info().
		Dur("interval", a.Config.Watch.Interval).
		Strs("sources", orch.Sources()).
		Msg("starting rate watch daemon")

	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		result, err := orch.GetAllRates(ctx, true)
		if err != nil {
			return err
		}
		if len(result.Failures) > 0 {
			return fmt.Errorf("%d of %d sources failed", len(result.Failures), len(orch.Sources()))
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch daemon terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch daemon stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Source  string
	Refresh bool
}

// ExportOptions hold parameters for exporting one leaf's history.
type ExportOptions struct {
	Source   string
	LeafPath string
	CSVPath  string
	PNGPath  string
	Limit    int
}
