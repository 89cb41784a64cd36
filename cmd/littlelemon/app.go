package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/littlelemon/internal/menu/application"
	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/internal/menu/infrastructure/codec"
	"github.com/wyfcoding/littlelemon/internal/menu/infrastructure/messaging"
	"github.com/wyfcoding/littlelemon/internal/menu/infrastructure/persistence/gormdb"
	menuredis "github.com/wyfcoding/littlelemon/internal/menu/infrastructure/persistence/redis"
	"github.com/wyfcoding/littlelemon/internal/menu/infrastructure/source"
	"github.com/wyfcoding/littlelemon/pkg/cache"
	"github.com/wyfcoding/littlelemon/pkg/config"
	"github.com/wyfcoding/littlelemon/pkg/db"
	"github.com/wyfcoding/littlelemon/pkg/logger"
	"github.com/wyfcoding/littlelemon/pkg/metrics"
	"github.com/wyfcoding/littlelemon/pkg/mq"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	db       *db.DB
	redis    *cache.RedisCache
	producer *mq.KafkaProducer

	views *application.ViewHub
	sync  *application.SyncService
	query *application.MenuQueryService
}

func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	err = logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger.Get().With("service", cfg.ServiceName), nil
}

// openStore connects the database and prepares the schema.
func openStore(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	conn, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open menu store: %w", err)
	}
	if _, err := gormdb.Migrate(ctx, conn.DB); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate menu store: %w", err)
	}
	return conn, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log, metrics: metrics.New(cfg.ServiceName)}
	if cfg.Metrics.Enabled {
		if err := a.metrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	conn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.db = conn

	menuRepo := gormdb.NewMenuRepository(conn.DB, cfg.Menu.BatchSize)
	stateRepo := gormdb.NewSyncStateRepository(conn.DB)

	var snapshotRepo domain.SnapshotReadRepository
	if cfg.Redis.Enabled {
		a.redis, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		snapshotRepo = menuredis.NewSnapshotRedisRepository(a.redis, time.Duration(cfg.Redis.SnapshotTTL)*time.Second)
	}

	publisher := messaging.NewLogPublisher()
	if cfg.Kafka.Enabled() {
		a.producer = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		publisher = messaging.NewKafkaPublisher(a.producer, cfg.Kafka.Topic)
	}

	menuSource := source.New(source.Config{
		URL:         cfg.Menu.SourceURL,
		Timeout:     cfg.Menu.FetchTimeout,
		MaxAttempts: cfg.Menu.FetchMaxAttempts,
	}, source.WithAttemptObserver(func(outcome string) {
		a.metrics.FetchAttemptsTotal.WithLabelValues(outcome).Inc()
	}))

	a.views = application.NewViewHub(menuRepo, a.metrics, log)
	a.sync = application.NewSyncService(menuSource, codec.JSONDecoder{}, menuRepo, stateRepo,
		snapshotRepo, publisher, a.views, a.metrics, log)
	a.query = application.NewMenuQueryService(menuRepo, stateRepo, a.views)

	if n, err := menuRepo.Count(ctx); err == nil {
		a.metrics.MenuEntries.Set(float64(n))
		log.InfoContext(ctx, "menu store opened", "driver", conn.Driver(), "cached_entries", n)
	}
	return a, nil
}

// Close releases every connection, joining their errors.
func (a *app) Close() error {
	var errs []error
	if a.views != nil {
		a.views.Close()
	}
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
