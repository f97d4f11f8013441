package txcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoCache means no usable cache artifact exists and the next cycle must be
// a full rebuild. Unreadable and unmigratable artifacts degrade to this
// rather than failing the service.
var ErrNoCache = errors.New("no cache artifact found")

// Store persists the cache artifact at a well-known path. Writes are atomic
// (write-temp-then-rename) so readers and crashed cycles never observe a
// partial file. Loads fall back to the legacy v1 location and migrate.
type Store struct {
	path       string
	legacyPath string
	logger     *zap.Logger
}

// NewStore returns a store rooted at path with an optional legacy fallback
// location.
func NewStore(path, legacyPath string, logger *zap.Logger) *Store {
	return &Store{path: path, legacyPath: legacyPath, logger: logger}
}

// Path returns the primary artifact location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the newest usable artifact. Order: primary path, then legacy
// path. Whatever is found is run through the migration chain; an integrity
// mismatch is logged but does not reject the artifact, since the checksum is
// advisory.
func (s *Store) Load() (*Cache, error) {
	bz, path, err := s.readFirst(s.path, s.legacyPath)
	if err != nil {
		return nil, err
	}

	c, err := s.migrate(bz)
	if err != nil {
		s.logger.Warn("Cache artifact unusable, treating as no cache",
			zap.String("path", path),
			zap.Error(err))
		return nil, ErrNoCache
	}

	if !VerifyIntegrity(c) {
		s.logger.Warn("Cache integrity checksum mismatch",
			zap.String("path", path),
			zap.String("stored", c.Integrity))
	}

	// A legacy artifact is rewritten in place at the primary path so the
	// fallback only ever happens once.
	if path != s.path {
		if err := s.Save(c); err != nil {
			return nil, fmt.Errorf("persist migrated cache: %w", err)
		}
		s.logger.Info("Migrated legacy cache artifact",
			zap.String("from", path),
			zap.String("to", s.path))
	}

	return c, nil
}

// Save atomically writes the artifact. The integrity checksum is recomputed
// on every save so the stored value always matches the stored aggregates.
func (s *Store) Save(c *Cache) error {
	c.Integrity = ComputeIntegrity(c)

	bz, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bz); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache artifact: %w", err)
	}
	return nil
}

// readFirst returns the contents of the first path that exists.
func (s *Store) readFirst(paths ...string) ([]byte, string, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		bz, err := os.ReadFile(p)
		if err == nil {
			return bz, p, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("read cache artifact %s: %w", p, err)
		}
	}
	return nil, "", ErrNoCache
}

// cacheV1 is the legacy artifact shape: no dailyStatus, no integrity checksum,
// hourly arrays of whatever length the old writer happened to emit.
type cacheV1 struct {
	SchemaVersion     string           `json:"schemaVersion"`
	DailyTotals       map[string]int   `json:"dailyTotals"`
	MonthlyTotals     map[string]int   `json:"monthlyTotals"`
	RecentHourly      map[string][]int `json:"recentHourly"`
	Cursor            Cursor           `json:"cursor"`
	TotalTransactions int              `json:"totalTransactions"`
	LastUpdate        time.Time        `json:"lastUpdate"`
}

// migrate walks the versioned migration chain until the artifact is at the
// current schema. Each step is a pure old-shape -> new-shape function.
func (s *Store) migrate(bz []byte) (*Cache, error) {
	var probe struct {
		SchemaVersion string `json:"schemaVersion"`
	}
	if err := json.Unmarshal(bz, &probe); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}

	switch major(probe.SchemaVersion) {
	case "2":
		var c Cache
		if err := json.Unmarshal(bz, &c); err != nil {
			return nil, fmt.Errorf("parse v2 artifact: %w", err)
		}
		normalizeLoaded(&c)
		return &c, nil
	case "1", "":
		var old cacheV1
		if err := json.Unmarshal(bz, &old); err != nil {
			return nil, fmt.Errorf("parse v1 artifact: %w", err)
		}
		s.logger.Info("Migrating cache artifact",
			zap.String("from_version", probe.SchemaVersion),
			zap.String("to_version", SchemaVersion))
		return migrateV1(old, DayKey(time.Now())), nil
	default:
		return nil, fmt.Errorf("unknown schema version %q", probe.SchemaVersion)
	}
}

// migrateV1 lifts a legacy artifact to the current schema: hourly arrays are
// normalized to 24 slots, dailyStatus is re-derived by replaying the
// classifier over the existing aggregates, and the counters and checksum are
// recomputed.
func migrateV1(old cacheV1, todayKey string) *Cache {
	c := NewCache()
	for k, v := range old.DailyTotals {
		c.DailyTotals[k] = v
	}
	for k, v := range old.MonthlyTotals {
		c.MonthlyTotals[k] = v
	}
	for k, v := range old.RecentHourly {
		c.RecentHourly[k] = Ensure24(v)
	}
	for day := range c.DailyTotals {
		c.DailyStatus[day] = c.dayStatusOf(day, todayKey)
	}
	c.Cursor = old.Cursor
	c.TotalTransactions = sumTotals(c.DailyTotals)
	c.TotalDaysActive = len(c.DailyTotals)
	c.LastUpdate = old.LastUpdate
	c.GeneratedAtUTC = time.Now().UTC()
	c.Integrity = ComputeIntegrity(c)
	return c
}

// normalizeLoaded repairs nil maps from hand-edited or truncated artifacts so
// the rest of the engine never branches on nil.
func normalizeLoaded(c *Cache) {
	if c.DailyTotals == nil {
		c.DailyTotals = map[string]int{}
	}
	if c.DailyStatus == nil {
		c.DailyStatus = map[string]DayStatus{}
	}
	if c.MonthlyTotals == nil {
		c.MonthlyTotals = map[string]int{}
	}
	if c.RecentHourly == nil {
		c.RecentHourly = map[string][24]int{}
	}
}

func sumTotals(totals map[string]int) int {
	sum := 0
	for _, n := range totals {
		sum += n
	}
	return sum
}

func major(version string) string {
	if version == "" {
		return ""
	}
	if i := strings.IndexByte(version, '.'); i > 0 {
		return version[:i]
	}
	return version
}
