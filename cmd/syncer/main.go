package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/liskcounter/counterx/app/syncer"
	syncerpkg "github.com/liskcounter/counterx/pkg/syncer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := syncer.Initialize(ctx)

	// Kick off one cycle at boot so a fresh deployment serves data without
	// waiting for the first cron tick.
	go func() {
		if err := app.Syncer.TrySync(ctx); err != nil && !errors.Is(err, syncerpkg.ErrSyncInFlight) {
			app.Logger.Error("Boot-time sync cycle failed", zap.Error(err))
		}
	}()

	app.Start(ctx)
}
