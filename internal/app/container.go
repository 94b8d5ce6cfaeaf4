package app

import (
	"context"
	"fmt"

	"github.com/JasChiang/ai-video-writer-sub000/internal/config"
	"github.com/JasChiang/ai-video-writer-sub000/internal/constants"
	"github.com/JasChiang/ai-video-writer-sub000/internal/dashboard"
	"github.com/JasChiang/ai-video-writer-sub000/internal/period"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/analytics"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/cache"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/comparison"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/history"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/metadata"
	"github.com/JasChiang/ai-video-writer-sub000/internal/service/snapshot"
	"github.com/JasChiang/ai-video-writer-sub000/internal/util"
	"go.uber.org/zap"
)

// Container holds the assembled service graph for one dashboard process.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Dashboard *dashboard.Service

	closers []func()
}

// Close releases infrastructure resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all infrastructure services. Heavy initialization (Redis,
// YouTube clients, Postgres) happens here so the dashboard service stays pure
// orchestration.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	cacheSvc, err := cache.NewService(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})
	if err := cacheSvc.WaitUntilReady(ctx, constants.RedisConfig.ReadyTimeout); err != nil {
		return nil, fmt.Errorf("redis not ready: %w", err)
	}

	dataAPI, err := metadata.NewDataAPI(ctx, cfg.YouTube.APIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create data api client: %w", err)
	}
	accessor := metadata.NewAccessor(dataAPI, cacheSvc, cfg.Channel.ID, logger)

	reporter, err := analytics.NewAPIReporter(ctx, cfg.YouTube.AccessToken, cfg.Channel.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics reporter: %w", err)
	}
	resolver := analytics.NewResolver(reporter, accessor, logger)

	loc := util.LoadReportingZone(cfg.Channel.Timezone)
	calc := period.NewCalculator(loc, nil)
	computer := comparison.NewComputer(calc, resolver, logger)
	store := snapshot.NewStore(cacheSvc, logger)

	var historyRepo dashboard.HistoryRecorder
	if cfg.Postgres.Enabled {
		repo, repoErr := history.NewRepository(history.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if repoErr != nil {
			logger.Warn("Fetch history disabled, Postgres unavailable", zap.Error(repoErr))
		} else {
			historyRepo = repo
			closers = append(closers, func() {
				_ = repo.Close()
			})
		}
	}

	svc := dashboard.NewService(
		cfg.Channel.ID,
		calc,
		resolver,
		accessor,
		computer,
		store,
		historyRepo,
		logger,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Dashboard: svc,
		closers:   closers,
	}, nil
}
