package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/liskcounter/counterx/pkg/explorer"
	"github.com/liskcounter/counterx/pkg/redis"
	"github.com/liskcounter/counterx/pkg/retry"
	"github.com/liskcounter/counterx/pkg/txcache"
	"go.uber.org/zap"
)

// ErrSyncInFlight is returned when a synchronization cycle is requested while
// another one is still running. The caller treats it as a no-op, not a
// failure: exactly one writer may mutate the cache artifact at a time.
var ErrSyncInFlight = errors.New("synchronization cycle already in flight")

// Explorer is the slice of the explorer client the syncer depends on.
type Explorer interface {
	AddressTransactions(ctx context.Context, address string, pageParams map[string]any) (*explorer.TxPage, error)
}

// Mode names the two top-level synchronization modes.
type Mode string

const (
	ModeFullRebuild Mode = "full_rebuild"
	ModeIncremental Mode = "incremental"
)

// SnapshotData is the read-only view handed to API consumers. It is always
// built from the last fully persisted snapshot, never from an in-flight
// working copy.
type SnapshotData struct {
	TotalTransactions int              `json:"totalTransactions"`
	TotalDaysActive   int              `json:"totalDaysActive"`
	Analysis          txcache.Analysis `json:"analysis"`
	LastUpdate        time.Time        `json:"lastUpdate"`
	SchemaVersion     string           `json:"schemaVersion"`
}

// Syncer drives the cache update lifecycle. Readers see the last persisted
// snapshot through an atomic pointer; sync cycles build a working copy and
// swap it in only after a successful atomic save.
type Syncer struct {
	client Explorer
	store  *txcache.Store
	events *redis.Client // optional, best-effort notifications
	logger *zap.Logger
	cfg    Config

	retryCfg retry.Config

	mu        sync.Mutex
	snapshot  atomic.Pointer[txcache.Cache]
	forceCold atomic.Bool

	// now is swappable so tests can pin "today".
	now func() time.Time
}

// New builds a syncer. Call Bootstrap afterwards to load the last persisted
// snapshot before serving reads.
func New(client Explorer, store *txcache.Store, events *redis.Client, logger *zap.Logger, cfg Config) *Syncer {
	return &Syncer{
		client:   client,
		store:    store,
		events:   events,
		logger:   logger,
		cfg:      cfg,
		retryCfg: retry.DefaultConfig(),
		now:      time.Now,
	}
}

// Bootstrap loads the last persisted cache, migrating legacy artifacts if
// needed. A missing artifact is not an error; it just means the first cycle
// will be a cold start.
func (s *Syncer) Bootstrap() error {
	c, err := s.store.Load()
	if err != nil {
		if errors.Is(err, txcache.ErrNoCache) {
			s.logger.Info("No cache artifact found, first cycle will be a full rebuild")
			return nil
		}
		return err
	}
	s.snapshot.Store(c)
	s.logger.Info("Loaded cache snapshot",
		zap.String("schema_version", c.SchemaVersion),
		zap.Int("total_transactions", c.TotalTransactions),
		zap.Time("last_update", c.LastUpdate))
	return nil
}

// Snapshot returns the last persisted cache, or nil before the first
// successful cycle.
func (s *Syncer) Snapshot() *txcache.Cache {
	return s.snapshot.Load()
}

// LastUpdate returns the time of the last successful cache mutation.
func (s *Syncer) LastUpdate() time.Time {
	if c := s.snapshot.Load(); c != nil {
		return c.LastUpdate
	}
	return time.Time{}
}

// GetCachedData builds the read snapshot with derived rollups. The second
// return is false before the first successful synchronization.
func (s *Syncer) GetCachedData(ctx context.Context) (SnapshotData, bool) {
	c := s.snapshot.Load()
	if c == nil {
		return SnapshotData{}, false
	}
	return SnapshotData{
		TotalTransactions: c.TotalTransactions,
		TotalDaysActive:   c.TotalDaysActive,
		Analysis:          txcache.BuildAnalysis(ctx, c, txcache.DayKey(s.now())),
		LastUpdate:        c.LastUpdate,
		SchemaVersion:     c.SchemaVersion,
	}, true
}

// GapReport runs the offline gap scan against the last persisted snapshot.
func (s *Syncer) GapReport() txcache.GapReport {
	return txcache.DetectGaps(s.snapshot.Load(), txcache.DayKey(s.now()), s.cfg.MinDailyFloor)
}

// ClearCache flags the next cycle to run as a cold-start full rebuild. The
// current snapshot keeps serving reads until that cycle succeeds.
func (s *Syncer) ClearCache() {
	s.forceCold.Store(true)
	s.logger.Info("Cache flagged for cold-start rebuild")
}

// ForceUpdate runs an out-of-schedule synchronization cycle and waits for it,
// returning ErrSyncInFlight when one is already running.
func (s *Syncer) ForceUpdate(ctx context.Context) error {
	return s.TrySync(ctx)
}

// TrySync runs one synchronization cycle unless another is in flight. Any
// error aborts the cycle and leaves the previous snapshot authoritative.
func (s *Syncer) TrySync(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrSyncInFlight
	}
	defer s.mu.Unlock()
	return s.runCycle(ctx)
}

// TriggerAsync starts a cycle in the background, reporting ErrSyncInFlight
// synchronously when another cycle already holds the lock. Errors from the
// background cycle are logged, not returned.
func (s *Syncer) TriggerAsync(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrSyncInFlight
	}
	go func() {
		defer s.mu.Unlock()
		if err := s.runCycle(ctx); err != nil {
			s.logger.Error("Triggered sync cycle failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Syncer) runCycle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CycleTimeout)
	defer cancel()

	started := s.now()
	prev := s.snapshot.Load()

	mode := ModeIncremental
	switch {
	case prev == nil:
		mode = ModeFullRebuild
	case s.forceCold.Load():
		mode = ModeFullRebuild
	default:
		if report := txcache.DetectGaps(prev, txcache.DayKey(started), s.cfg.MinDailyFloor); report.HasGaps {
			s.logger.Warn("Gap detector escalated to full rebuild",
				zap.Strings("findings", report.Details))
			mode = ModeFullRebuild
		}
	}

	s.logger.Info("Starting synchronization cycle", zap.String("mode", string(mode)))

	var (
		next   *txcache.Cache
		merged int
		err    error
	)
	if mode == ModeFullRebuild {
		next, err = s.fullRebuild(ctx)
		if next != nil {
			merged = next.TotalTransactions
		}
	} else {
		next, merged, err = s.incremental(ctx, prev)
	}
	if err != nil {
		// The working copy is discarded; the last good artifact stays
		// authoritative and readers keep seeing it.
		s.logger.Warn("Synchronization cycle aborted",
			zap.String("mode", string(mode)),
			zap.Error(err))
		return err
	}

	if err := s.store.Save(next); err != nil {
		// Persistence failures mean the next read will also be stale, which
		// is worse than a data-quality hiccup; log them at error level.
		s.logger.Error("Failed to persist cache artifact", zap.Error(err))
		return fmt.Errorf("persist cache: %w", err)
	}

	s.snapshot.Store(next)
	if mode == ModeFullRebuild {
		s.forceCold.Store(false)
	}

	s.logger.Info("Synchronization cycle complete",
		zap.String("mode", string(mode)),
		zap.Int("merged", merged),
		zap.Int("total_transactions", next.TotalTransactions),
		zap.Duration("took", s.now().Sub(started)))

	s.publishUpdated(ctx, mode, next)
	return nil
}

// fullRebuild paginates the upstream listing from the newest page all the way
// back, deduplicates by hash, and folds the entire set into a fresh cache.
func (s *Syncer) fullRebuild(ctx context.Context) (*txcache.Cache, error) {
	acc := map[string]txcache.Transaction{}
	var params map[string]any

	for page := 1; ; page++ {
		if page > s.cfg.MaxPagesFull {
			return nil, fmt.Errorf("full rebuild exceeded page budget (%d pages)", s.cfg.MaxPagesFull)
		}

		tp, err := s.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}

		for _, tx := range txcache.Normalize(tp.Items, s.cfg.ContractAddress) {
			acc[tx.Hash] = tx
		}

		if len(tp.NextPageParams) == 0 {
			break
		}
		params = tp.NextPageParams
	}

	ordered := txcache.MergeAndDedupe(acc, nil)
	return txcache.Fold(ordered, s.now()), nil
}

// incremental paginates from the newest page collecting only transactions
// strictly after the stored cursor and above the reorg-buffer block floor,
// then merges them into the existing aggregates. It stops at the first page
// that yields nothing new.
func (s *Syncer) incremental(ctx context.Context, prev *txcache.Cache) (*txcache.Cache, int, error) {
	cursor := prev.Cursor
	minBlock := cursor.LastBlockNumber - s.cfg.ReorgBuffer

	batch := map[string]txcache.Transaction{}
	var params map[string]any

	for page := 1; page <= s.cfg.MaxPagesIncremental; page++ {
		tp, err := s.fetchPage(ctx, params)
		if err != nil {
			return nil, 0, err
		}

		txs := txcache.Normalize(tp.Items, s.cfg.ContractAddress)

		if page == 1 && len(txs) > 0 && !cursor.IsZero() {
			// The newest upstream transaction sorting before our cursor is a
			// data anomaly (reorg or upstream rollback). The cursor must not
			// move backward; record it for gap analysis instead.
			if newest := maxTx(txs); txcache.CompareToCursor(newest, cursor) < 0 {
				s.logger.Warn("Cursor regression detected, keeping stored cursor",
					zap.Int64("upstream_block", newest.Block),
					zap.Int64("cursor_block", cursor.LastBlockNumber))
			}
		}

		qualifying := 0
		for _, tx := range txs {
			if txcache.IsAfterCursor(tx, cursor) && tx.Block > minBlock {
				batch[tx.Hash] = tx
				qualifying++
			}
		}

		if qualifying == 0 || len(tp.NextPageParams) == 0 {
			break
		}
		params = tp.NextPageParams
	}

	ordered := txcache.MergeAndDedupe(batch, nil)
	next, res := prev.ApplyBatch(ordered, s.now())
	return next, res.Merged, nil
}

// fetchPage retrieves one page with retry/backoff. A page that cannot be
// fetched after retries aborts the whole cycle; partial pages are never
// merged.
func (s *Syncer) fetchPage(ctx context.Context, params map[string]any) (*explorer.TxPage, error) {
	var tp *explorer.TxPage
	err := retry.WithBackoff(ctx, s.retryCfg, s.logger, "fetch transactions page", func() error {
		var ferr error
		tp, ferr = s.client.AddressTransactions(ctx, s.cfg.ContractAddress, params)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

// publishUpdated emits a best-effort cache.updated event for websocket and
// other subscribers.
func (s *Syncer) publishUpdated(ctx context.Context, mode Mode, c *txcache.Cache) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"mode":              string(mode),
		"totalTransactions": c.TotalTransactions,
		"lastUpdate":        c.LastUpdate,
		"schemaVersion":     c.SchemaVersion,
	})
	if err != nil {
		return
	}
	s.events.Publish(ctx, redis.ChannelCacheUpdated, payload)
}

func maxTx(txs []txcache.Transaction) txcache.Transaction {
	max := txs[0]
	for _, tx := range txs[1:] {
		if txcache.IsAfterCursor(tx, txcache.CursorOf(max)) {
			max = tx
		}
	}
	return max
}
