// Package syncer owns the cache update lifecycle: mode selection between full
// rebuild and incremental fetch, pagination against the explorer, merge and
// persistence, and the read API served to HTTP handlers.
package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/liskcounter/counterx/pkg/utils"
)

// Config carries every environment-tuned knob of the synchronizer. The
// shipped defaults are starting points, not gospel; in particular the reorg
// buffer and the minimum-daily floor should be tuned per deployment.
type Config struct {
	// ExplorerEndpoints are the Blockscout-style base URLs, tried in order.
	ExplorerEndpoints []string
	// ContractAddress is the tracked contract; only transactions sent to it
	// count.
	ContractAddress string

	// CachePath is the primary artifact location; LegacyCachePath is the v1
	// fallback read once and migrated.
	CachePath       string
	LegacyCachePath string

	// CronSpec schedules background synchronization (seconds field included).
	CronSpec string

	// ReorgBuffer is the block-count backfill window re-examined during
	// incremental sync to survive chain reorganizations.
	ReorgBuffer int64
	// MinDailyFloor is the gap detector's minimum plausible transactions per
	// day; zero disables the floor check.
	MinDailyFloor int

	// MaxPagesIncremental and MaxPagesFull bound how many pages a cycle may
	// fetch before aborting cleanly.
	MaxPagesIncremental int
	MaxPagesFull        int

	// CycleTimeout bounds one whole synchronization cycle.
	CycleTimeout time.Duration
}

// FromEnv builds the config from environment variables.
func FromEnv() (Config, error) {
	contract := utils.Env("CONTRACT_ADDRESS", "")
	if contract == "" {
		return Config{}, fmt.Errorf("CONTRACT_ADDRESS environment variable is required")
	}

	endpoints := strings.Split(utils.Env("EXPLORER_URL", "https://blockscout.lisk.com"), ",")

	return Config{
		ExplorerEndpoints:   utils.Dedup(endpoints),
		ContractAddress:     contract,
		CachePath:           utils.Env("CACHE_PATH", "data/txcache.json"),
		LegacyCachePath:     utils.Env("LEGACY_CACHE_PATH", "data/transaction-cache.json"),
		CronSpec:            utils.Env("SYNC_CRON", "0 0 3 * * *"),
		ReorgBuffer:         utils.EnvInt64("REORG_BUFFER", 120),
		MinDailyFloor:       utils.EnvIntNonNeg("MIN_DAILY_TX", 10),
		MaxPagesIncremental: utils.EnvInt("MAX_PAGES_INCREMENTAL", 25),
		MaxPagesFull:        utils.EnvInt("MAX_PAGES_FULL", 5000),
		CycleTimeout:        utils.EnvDuration("SYNC_TIMEOUT", 10*time.Minute),
	}, nil
}
