package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kamelat/Netopeer2/internal/config"
	httpAdapter "github.com/kamelat/Netopeer2/pkg/adapters/http"
	redisAdapter "github.com/kamelat/Netopeer2/pkg/adapters/redis"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/observability"
	"github.com/kamelat/Netopeer2/pkg/rpc"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// app holds the components every subcommand is built from.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	client   *redis.Client
	schema   *schema.Context
	backend  *redisAdapter.Backend
	store    *redisAdapter.Store
	sessions *session.Manager

	registry *prometheus.Registry
	metrics  *observability.Metrics
	streams  *httpAdapter.StreamManager
	coord    *rpc.Coordinator
}

// newApp connects to the Redis server named by cfg.
func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a, err := newAppFromClient(cfg, logger, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return a, nil
}

func newAppFromClient(cfg config.Config, logger *slog.Logger, client *redis.Client) (*app, error) {
	if len(cfg.Schema) == 0 {
		return nil, errors.New("no schema modules configured")
	}
	ctx, err := schema.Load(cfg.Schema...)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		schema: ctx,
	}
	a.backend = redisAdapter.NewFromClient(client,
		redisAdapter.WithPrefix(cfg.Redis.Prefix),
		redisAdapter.WithTimeout(time.Duration(cfg.Backend.Timeout)),
		redisAdapter.WithLogger(logger),
	)
	a.store = redisAdapter.NewStore(client, redisAdapter.WithStorePrefix(cfg.Redis.Prefix+"session:"))
	a.sessions = session.NewManager(a.store, a.backend,
		session.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix)),
		session.WithLogger(logger),
	)

	a.streams = httpAdapter.NewStreamManager(logger)
	hooks := []domain.LifecycleHooks{a.streams.Hooks()}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.metrics = observability.NewMetrics(a.registry)
		hooks = append(hooks, a.metrics.Hooks(logger))
	}
	a.coord = rpc.NewCoordinator(
		rpc.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		rpc.WithLogger(logger),
		rpc.WithDefaultsMode(cfg.Mode()),
	)
	return a, nil
}

// server builds the HTTP front end.
func (a *app) server() *httpAdapter.Server {
	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(a.streams),
		httpAdapter.WithLimiter(httpAdapter.NewLimiter(a.cfg.HTTP.Rate, a.cfg.HTTP.Burst)),
		httpAdapter.WithLogger(a.logger),
	}
	if a.metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(a.metrics, a.registry))
	}
	return httpAdapter.NewServer(a.schema, a.sessions, a.coord, opts...)
}

// responder builds the backend side answering calls queued by a.backend.
func (a *app) responder() *redisAdapter.Responder {
	return redisAdapter.NewResponder(a.client,
		redisAdapter.WithResponderPrefix(a.cfg.Redis.Prefix),
		redisAdapter.WithWorkers(a.cfg.Backend.Workers),
		redisAdapter.WithResponderLogger(a.logger),
	)
}

func (a *app) Close() error {
	return a.client.Close()
}
