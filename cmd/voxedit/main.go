package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxedit/internal/cache"
	"github.com/annel0/voxedit/internal/config"
	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent/stage"
	"github.com/annel0/voxedit/internal/history"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/operation"
	"github.com/annel0/voxedit/internal/session"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $VOXEDIT_CONFIG)")
		command    = flag.String("cmd", "inspect", "Command: fill, replace, undo, redo, inspect")
		minFlag    = flag.String("min", "0,0,0", "First corner x,y,z")
		maxFlag    = flag.String("max", "", "Second corner x,y,z (default: -min)")
		blockFlag  = flag.String("block", "stone", "Block to place (name or id)")
		fromFlag   = flag.String("from", "air", "Block to replace (replace only)")
		sessionID  = flag.String("session", "", "Session id to continue (default: new)")
		serve      = flag.Duration("serve-metrics", 0, "Keep /metrics up for this long after the command")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("voxedit"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	req, err := parseRequest(*command, *minFlag, *maxFlag, *blockFlag, *fromFlag)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cfg, *sessionID, req, *serve); err != nil {
		logging.Error("❌ %s: %v", req.Command, err)
		os.Exit(1)
	}
}

func parseRequest(command, minFlag, maxFlag, blockFlag, fromFlag string) (request, error) {
	req := request{Command: command}

	var err error
	if req.Min, err = vec.ParseVec3(minFlag); err != nil {
		return req, fmt.Errorf("-min: %w", err)
	}
	req.Max = req.Min
	if maxFlag != "" {
		if req.Max, err = vec.ParseVec3(maxFlag); err != nil {
			return req, fmt.Errorf("-max: %w", err)
		}
	}

	id, err := parseBlock(blockFlag)
	if err != nil {
		return req, fmt.Errorf("-block: %w", err)
	}
	req.Block = block.New(id)

	if req.From, err = parseBlock(fromFlag); err != nil {
		return req, fmt.Errorf("-from: %w", err)
	}
	return req, nil
}

func execute(ctx context.Context, cfg *config.Config, sessionID string, req request, serve time.Duration) error {
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, logging.Default())
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var server *http.Server
	if serve > 0 {
		addr := fmt.Sprintf(":%d", cfg.Metrics.GetPort())
		server = &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
			}
		}()
		defer server.Close()
	}

	worldStorage, err := storage.NewWorldStorage(cfg.World.DataPath)
	if err != nil {
		return err
	}
	defer worldStorage.Close()

	opts := world.Options{
		Min:       cfg.World.Min,
		Max:       cfg.World.Max,
		Persister: worldStorage,
		Logger:    logging.GetWorldLogger(),
	}
	if cfg.World.Generate {
		opts.Generator = world.NewTerrainGenerator(cfg.World.Seed)
	}

	var invalidator *cache.NATSInvalidator
	if cfg.World.CacheAddr != "" {
		if url := cfg.EventBus.GetURL(); url != "" {
			invalidator, err = cache.NewNATSInvalidator(&cache.InvalidatorConfig{NATSURL: url}, "", logging.GetStorageLogger())
			if err != nil {
				return err
			}
			defer invalidator.Close()
		}

		var inv cache.Invalidator
		if invalidator != nil {
			inv = invalidator
		}
		chunkCache, err := cache.NewChunkCache(ctx, worldStorage, &cache.Config{
			Addr: cfg.World.CacheAddr,
			TTL:  cfg.World.CacheTTL(),
		}, inv, logging.GetStorageLogger())
		if err != nil {
			return err
		}
		defer chunkCache.Close()
		opts.Persister = chunkCache
	}

	w, err := world.New(opts)
	if err != nil {
		return err
	}
	if invalidator != nil {
		err := invalidator.SubscribeInvalidations(ctx, func(coords vec.Vec2) {
			if w.Evict(coords) {
				logging.Debug("колонка %s выгружена: сохранена другим узлом", coords)
			}
		})
		if err != nil {
			return err
		}
	}

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var bus eventbus.EventBus
	if cfg.Session.Notify {
		bus, err = openBus(cfg)
		if err != nil {
			return err
		}
		defer bus.Close()

		if _, err := eventbus.StartLoggingListener(bus, logging.GetEventBusLogger()); err != nil {
			return err
		}
		exporter := eventbus.NewMetricsExporter(bus, reg)
		exporter.Start(time.Second)
		defer exporter.Stop()
	}

	disallowed, err := cfg.Session.DisallowedIDs()
	if err != nil {
		return err
	}

	s, err := session.New(ctx, session.Options{
		ID:         sessionID,
		World:      w,
		MaxChanges: cfg.Session.MaxChanges,
		Disallowed: disallowed,
		Reorder:    cfg.Session.Reorder,
		Bus:        bus,
		History:    store,
		Metrics:    stage.NewMetricSet(reg),
		Executor: operation.NewExecutor(
			operation.WithMetrics(operation.NewMetrics(reg)),
			operation.WithLogger(logging.GetOperationLogger()),
		),
		Logger: logging.GetSessionLogger(),
	})
	if err != nil {
		return err
	}
	logging.Info("Сессия %s, команда %s, регион %s..%s", s.ID(), req.Command, req.Min, req.Max)

	if err := run(ctx, s, req, os.Stdout); err != nil {
		return err
	}

	if server != nil {
		logging.Info("Метрики доступны еще %v", serve)
		select {
		case <-time.After(serve):
		case <-ctx.Done():
		}
	}
	return nil
}

func openHistory(ctx context.Context, cfg *config.Config) (history.Store, func(), error) {
	if cfg.History.Backend != "redis" {
		return history.NewMemoryStore(), func() {}, nil
	}

	store, err := history.NewRedisStore(ctx, &history.RedisConfig{
		Addr:      cfg.History.GetRedisAddr(),
		KeyPrefix: cfg.History.KeyPrefix,
		TTL:       cfg.History.TTL(),
	})
	if err != nil {
		return nil, nil, err
	}
	logging.Info("🔴 История сессий в Redis %s", cfg.History.GetRedisAddr())
	return store, func() { store.Close() }, nil
}

func openBus(cfg *config.Config) (eventbus.EventBus, error) {
	url := cfg.EventBus.GetURL()
	if url == "" {
		return eventbus.NewMemoryBus(1024), nil
	}

	bus, err := eventbus.NewJetStreamBus(eventbus.JetStreamConfig{
		URL:       url,
		Stream:    cfg.EventBus.Stream,
		Retention: cfg.EventBus.RetentionDuration(),
	})
	if err != nil {
		return nil, err
	}
	logging.Info("📡 События в NATS JetStream %s (stream=%s)", url, cfg.EventBus.Stream)
	return bus, nil
}
