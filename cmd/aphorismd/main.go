package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/clkhoo5211/aphorism/internal/adapters/decks"
	httpadapter "github.com/clkhoo5211/aphorism/internal/adapters/http"
	"github.com/clkhoo5211/aphorism/internal/adapters/llm/openrouter"
	"github.com/clkhoo5211/aphorism/internal/adapters/lots"
	"github.com/clkhoo5211/aphorism/internal/adapters/sessions"
	"github.com/clkhoo5211/aphorism/internal/app"
	"github.com/clkhoo5211/aphorism/internal/config"
	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

// stdRNG delegates to math/rand/v2 (auto-seeded, safe for concurrent use).
type stdRNG struct{}

func (stdRNG) Float64() float64 { return rand.Float64() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deckStore := decks.NewEmbeddedStore()
	lotStore := lots.NewEmbeddedStore()
	if err := checkData(ctx, deckStore, lotStore); err != nil {
		return err
	}

	sessionStore, closeStore, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var interp ports.Interpreter
	if cfg.LLMProvider == config.ProviderOpenRouter {
		interp = openrouter.NewClient(&http.Client{Timeout: cfg.LLMTimeout}, openrouter.Options{
			APIKey:    cfg.OpenRouterAPIKey,
			BaseURL:   cfg.OpenRouterBaseURL,
			Model:     cfg.LLMModel,
			Fallbacks: cfg.LLMFallbackModels,
		}, logger)
	}

	rng := stdRNG{}
	tarot := app.NewTarotService(deckStore, sessionStore, interp, rng, app.TarotOptions{
		ReshuffleBelow: cfg.ReshuffleBelow,
		Style:          cfg.DefaultDeckStyle,
		Model:          cfg.LLMModel,
		Logger:         logger,
	})
	oracle := app.NewOracleService(lotStore, rng)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	httpadapter.NewHandler(tarot, oracle, logger).Register(e)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"session_store", cfg.SessionStore,
			"llm_provider", cfg.LLMProvider,
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.RunJanitor(gctx, sessionStore, cfg.SessionTTL, janitorInterval(cfg.SessionTTL), logger)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// checkData loads the embedded catalogs and oracle systems once so broken data
// stops the process at startup instead of panicking mid-request.
func checkData(ctx context.Context, deckStore *decks.EmbeddedStore, lotStore *lots.EmbeddedStore) error {
	catalog, err := deckStore.GetCatalog(ctx, app.DefaultCatalogID)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if _, err := deckStore.Spreads(ctx); err != nil {
		return fmt.Errorf("load spreads: %w", err)
	}
	systems, err := lotStore.Systems(ctx)
	if err != nil {
		return fmt.Errorf("load oracle systems: %w", err)
	}
	if err := domain.ValidateSystems(systems); err != nil {
		return fmt.Errorf("load oracle systems: %w", err)
	}
	return nil
}

func openSessionStore(cfg config.Config) (ports.SessionStore, func(), error) {
	if cfg.SessionStore == config.StoreMemory {
		return sessions.NewMemoryStore(), func() {}, nil
	}
	store, err := sessions.OpenSQLite(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func janitorInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/10, time.Minute), time.Hour)
}
