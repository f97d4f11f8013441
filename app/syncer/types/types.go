package types

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/liskcounter/counterx/pkg/redis"
	"github.com/liskcounter/counterx/pkg/syncer"
)

type App struct {
	// Syncer owns the cache lifecycle and serves read snapshots.
	Syncer *syncer.Syncer

	// RedisClient publishes cache.updated events; nil when Redis is disabled.
	RedisClient *redis.Client

	// Cron is the scheduler that triggers synchronization cycles, according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// Logger is used to log messages, errors, and events during the application's lifecycle and operations.
	Logger *zap.Logger

	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
