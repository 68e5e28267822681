package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/services/identity"
	"github.com/mcoot/wordduel/internal/services/room"
	"github.com/mcoot/wordduel/internal/services/scheduler"
	"github.com/mcoot/wordduel/internal/services/words"
	"github.com/mcoot/wordduel/internal/session"
	"github.com/mcoot/wordduel/internal/storage"
	"github.com/mcoot/wordduel/internal/storage/memory"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
	"github.com/mcoot/wordduel/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Words      *words.Service
	Rooms      *room.Store
	Registry   *identity.Registry
	Scheduler  *scheduler.Scheduler
	Hub        *ws.Hub
	Controller *session.Controller

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// WordsFile is a list of secret words, one per line (optional).
	// If empty, words saved in storage or the built-in list are used.
	WordsFile string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Grace holds the disconnect grace periods; zero values use the defaults
	Grace scheduler.Config
	// Transport holds websocket settings; the zero value uses the defaults
	Transport *ws.Config
}

// New creates a new application with all dependencies wired. Stored rooms
// from an earlier process are cleared, since live connections are not.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	if err := store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset storage: %w", err)
	}

	transport := ws.DefaultConfig()
	if cfg.Transport != nil {
		transport = *cfg.Transport
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.Grace, transport, logger)

	if err := app.loadWords(ctx, cfg.WordsFile); err != nil {
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	grace scheduler.Config,
	transport ws.Config,
	logger *slog.Logger,
) *App {
	wordService := words.New(store, rnd)
	rooms := room.NewStore(store, wordService, clk, rnd, logger.With(slog.String("component", "rooms")))
	registry := identity.New()
	sched := scheduler.New(clk, grace, logger.With(slog.String("component", "scheduler")))
	hub := ws.NewHub(transport, rnd, logger)
	controller := session.NewController(rooms, registry, sched, hub, logger)
	hub.SetHandler(controller)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Words:      wordService,
		Rooms:      rooms,
		Registry:   registry,
		Scheduler:  sched,
		Hub:        hub,
		Controller: controller,
		logger:     logger,
	}
}

func (a *App) loadWords(ctx context.Context, path string) error {
	if path != "" {
		if err := a.Words.LoadFromFile(ctx, path); err != nil {
			return fmt.Errorf("load words file: %w", err)
		}
	} else if err := a.Words.LoadFromStorage(ctx); err != nil {
		a.logger.Debug("no stored word list, using built-in words", slog.Any("error", err))
	}
	a.logger.Info("word list loaded", slog.Int("words", a.Words.Count()))
	return nil
}

// Router builds the HTTP handler serving the API and the websocket endpoint
func (a *App) Router(staticDir, publicURL string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:    a.logger,
		Rooms:     a.Rooms,
		WebSocket: a.Hub,
		StaticDir: staticDir,
		PublicURL: publicURL,
	})
}

// Close disconnects every client, disarms pending removals and releases
// storage connections
func (a *App) Close() error {
	a.Hub.Close()
	a.Controller.Shutdown()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
