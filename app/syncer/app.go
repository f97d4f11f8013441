package syncer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/liskcounter/counterx/app/syncer/controller"
	"github.com/liskcounter/counterx/app/syncer/types"
	"github.com/liskcounter/counterx/pkg/explorer"
	"github.com/liskcounter/counterx/pkg/logging"
	"github.com/liskcounter/counterx/pkg/redis"
	syncerpkg "github.com/liskcounter/counterx/pkg/syncer"
	"github.com/liskcounter/counterx/pkg/txcache"
	"github.com/liskcounter/counterx/pkg/utils"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg, err := syncerpkg.FromEnv()
	if err != nil {
		logger.Fatal("Unable to load configuration", zap.Error(err))
	}

	client := explorer.NewWithOpts(explorer.Opts{
		Endpoints: cfg.ExplorerEndpoints,
	})

	store := txcache.NewStore(cfg.CachePath, cfg.LegacyCachePath, logger)

	// Initialize Redis client for real-time WebSocket events (optional)
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - WebSocket real-time events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for WebSocket real-time events")
		}
	} else {
		logger.Info("Redis disabled - WebSocket real-time events will not be available")
	}

	sync := syncerpkg.New(client, store, redisClient, logger, cfg)
	if err := sync.Bootstrap(); err != nil {
		logger.Fatal("Unable to load cache snapshot", zap.Error(err))
	}

	app := &types.App{
		Syncer:      sync,
		RedisClient: redisClient,
		CronSpec:    cfg.CronSpec,
		Logger:      logger,
	}

	if err := SetupScheduler(ctx, app); err != nil {
		logger.Fatal("Unable to set up scheduler", zap.Error(err))
	}

	if err := NewServer(app); err != nil {
		logger.Fatal("Unable to initialize server", zap.Error(err))
	}

	return app
}

// SetupScheduler sets up the cron scheduler that drives background
// synchronization cycles.
func SetupScheduler(ctx context.Context, app *types.App) error {
	cronLogger := cron.DefaultLogger
	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger)))

	_, err := app.Cron.AddFunc(app.CronSpec, func() {
		if err := app.Syncer.TrySync(ctx); err != nil {
			if errors.Is(err, syncerpkg.ErrSyncInFlight) {
				app.Logger.Info("Skipping scheduled sync, previous cycle still running")
				return
			}
			app.Logger.Error("Scheduled sync cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	app.Cron.Start()
	app.Logger.Info("Cron started", zap.String("cronSpec", app.CronSpec))

	return nil
}

// NewServer creates and returns a new Server instance with the given http.Server and zap.Logger.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	addr := utils.Env("ADDR", ":3000")

	app.Server = &http.Server{
		Addr:              addr,
		Handler:           controller.WithCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
