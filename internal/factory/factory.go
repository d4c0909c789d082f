// Package factory wires the application's components together.
package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/codebreak-go/internal/dependencies/clock"
	"github.com/mcoot/codebreak-go/internal/dependencies/random"
	"github.com/mcoot/codebreak-go/internal/registry"
	"github.com/mcoot/codebreak-go/internal/session"
	"github.com/mcoot/codebreak-go/internal/stats"
	statsmemory "github.com/mcoot/codebreak-go/internal/stats/memory"
	statsredis "github.com/mcoot/codebreak-go/internal/stats/redis"
	"github.com/mcoot/codebreak-go/internal/supervisor"
	"github.com/mcoot/codebreak-go/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Components
	Registry   *registry.Registry
	Supervisor *supervisor.Supervisor
	Stats      stats.Store
	Hub        *ws.Hub
	Engine     *session.Engine
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the stats backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *statsredis.Config
	// Policy holds the room behavior knobs
	// If nil, defaults to session.DefaultPolicy()
	Policy *session.Policy
	// TickInterval is the grace countdown tick interval
	// If zero, defaults to supervisor.DefaultInterval
	TickInterval time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store stats.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = statsmemory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := statsredis.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// A nil Policy means "use defaults"; a provided one is taken as-is,
	// false booleans included
	policy := session.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	return newWithDependencies(store, clock.New(), random.New(), policy, cfg.TickInterval, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store stats.Store, clk clock.Clock, rnd random.Random, policy session.Policy, tickInterval time.Duration, logger *slog.Logger) *App {
	reg := registry.New(clk, rnd)
	sup := supervisor.New(tickInterval, logger)

	// The hub and engine reference each other, so the hub is built
	// first and bound once the engine exists
	hub := ws.NewHub(logger)
	engine := session.NewEngine(reg, sup, store, hub, clk, policy, logger)
	hub.Bind(engine)

	return &App{
		Clock:      clk,
		Random:     rnd,
		Registry:   reg,
		Supervisor: sup,
		Stats:      store,
		Hub:        hub,
		Engine:     engine,
	}
}

// Close tears down the application's long-lived components
func (a *App) Close() error {
	a.Hub.Close()
	a.Supervisor.Stop()
	if closer, ok := a.Stats.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
