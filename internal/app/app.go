// Package app assembles the configured runner, session store and retrieval
// pipeline for the serve and repl commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/internal/config"
	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/retrieval"
	"github.com/petasbytes/go-assistant/internal/runner"
	"github.com/petasbytes/go-assistant/internal/server"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/tools"
)

type App struct {
	Config *config.Config
	Runner *runner.Runner
	Store  memory.Store
	// Retriever is nil outside rag mode.
	Retriever *retrieval.Retriever

	closers []func() error
}

// Deps overrides the upstream clients New would otherwise build from config.
type Deps struct {
	Model    provider.ChatModel
	Embedder provider.Embedder
	Sensor   tools.Sensor
}

// New builds an App from a validated config.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewWithDeps(ctx, cfg, Deps{})
}

func NewWithDeps(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	telemetry.Configure(telemetry.Config{Observe: cfg.Telemetry.Observe, Dir: cfg.Telemetry.Dir})

	a := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	model, embedder := deps.Model, deps.Embedder
	if model == nil || (embedder == nil && cfg.Mode == config.ModeRAG) {
		m, e := newClients(cfg)
		if model == nil {
			model = m
		}
		if embedder == nil {
			embedder = e
		}
	}

	store, err := a.newStore(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	a.Store = store

	preset := cfg.Preset()
	var reg *tools.Registry
	if preset.Tools {
		sensor := deps.Sensor
		if sensor == nil {
			sensor = tools.RandomSensor
		}
		reg = tools.SmartHome(sensor)
	}

	r := runner.New(model, reg)
	r.Preamble = preset.Preamble
	r.Temperature = preset.Temperature
	r.MaxTokens = preset.MaxTokens
	r.MaxIterations = cfg.Runner.MaxIterations
	r.TokenBudget = cfg.Runner.TokenBudget

	if preset.Retrieval {
		if embedder == nil {
			return nil, fmt.Errorf("%w: rag mode requires an embedding provider", config.ErrInvalidConfig)
		}
		vs, err := retrieval.NewSQLiteStore(cfg.Retrieval.DSN, cfg.Retrieval.Collection, cfg.Retrieval.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
		a.closers = append(a.closers, vs.Close)
		a.Retriever = retrieval.NewRetriever(embedder, vs)
		a.Retriever.TopK = cfg.Retrieval.TopK
		r.Augmenter = a.Retriever
	}
	a.Runner = r

	log.Info().
		Str("mode", cfg.Mode).
		Str("provider", cfg.Provider.Name).
		Str("sessions", cfg.Session.Backend).
		Int("tools", reg.Len()).
		Bool("retrieval", a.Retriever != nil).
		Msg("app: ready")
	ok = true
	return a, nil
}

func newClients(cfg *config.Config) (provider.ChatModel, provider.Embedder) {
	p := cfg.Provider
	if p.Name == config.ProviderAnthropic {
		return provider.NewAnthropicClient(provider.AnthropicConfig{APIKey: p.AnthropicKey, Model: p.AnthropicModel}), nil
	}
	c := provider.NewAzureClient(provider.AzureConfig{
		Endpoint:       p.Endpoint,
		APIVersion:     p.APIVersion,
		APIKey:         p.AzureKey,
		Deployment:     p.Deployment,
		EmbeddingModel: p.EmbeddingModel,
		Dimensions:     cfg.Retrieval.Dimensions,
	})
	return c, c
}

func (a *App) newStore(ctx context.Context, s config.SessionConfig) (memory.Store, error) {
	switch s.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: s.RedisAddr, DB: s.RedisDB})
		a.closers = append(a.closers, client.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", s.RedisAddr, err)
		}
		return memory.NewRedisStore(client, s.RedisTTL), nil
	case config.BackendFile:
		fs, err := memory.NewFileStore(s.FileDir)
		if err != nil {
			return nil, fmt.Errorf("file sessions %s: %w", s.FileDir, err)
		}
		return fs, nil
	default:
		return memory.NewMemoryStore(), nil
	}
}

// Server returns an HTTP server over the app's runner and store.
func (a *App) Server() *server.Server {
	opts := server.Options{Mode: a.Config.Mode, Runner: a.Runner, Store: a.Store}
	if a.Retriever != nil {
		opts.Documents = a.Retriever
	}
	return server.New(opts)
}

// Close releases the session store and vector store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
