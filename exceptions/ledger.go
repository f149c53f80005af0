/*
ledger.go - Exception ledger operations

PURPOSE:
  Load/save per-sprint exception entries and the global settings through a
  pluggable Store. Every mutation is a read-modify-write of the whole
  document, serialized by a mutex so overlapping HTTP requests cannot
  interleave their writes.

ERROR POLICY:
  Mutators return a bool instead of an error: the caller shows "could not
  save" to an operator and carries on. Readers degrade to empty data or
  defaults. Nothing here can fail an analysis.

SEE ALSO:
  - adjust.go: AdjustedCapacity, the consumer of entries and settings
  - store/file, store/sqlite, store/memory: Store implementations
*/
package exceptions

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the engine's handle on exception state. Construct one at
// process start and pass it into request-scoped computations.
type Ledger struct {
	mu    sync.Mutex
	store Store
	log   *zap.Logger
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, log: log}
}

// load fetches the current document, substituting a fresh one when the
// store is empty or unreadable.
func (l *Ledger) load(ctx context.Context) *Document {
	doc, err := l.store.Load(ctx)
	if err != nil {
		l.log.Warn("exception document unreadable, using defaults", zap.Error(err))
		return NewDocument()
	}
	if doc == nil {
		return NewDocument()
	}
	doc.normalize()
	return doc
}

// =============================================================================
// SPRINT EXCEPTIONS
// =============================================================================

// SaveExceptions replaces the entries for one sprint wholesale and stamps
// the update time. Returns false if persistence failed.
func (l *Ledger) SaveExceptions(ctx context.Context, period int, exc PeriodExceptions) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load(ctx)
	doc.Sprints[strconv.Itoa(period)] = PeriodRecord{
		Exceptions: exc,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := l.store.Save(ctx, doc); err != nil {
		l.log.Error("saving sprint exceptions failed", zap.Int("sprint", period), zap.Error(err))
		return false
	}
	l.log.Info("sprint exceptions saved", zap.Int("sprint", period), zap.Int("sprinters", len(exc)))
	return true
}

// LoadExceptions returns the entries recorded for one sprint. A sprint
// with nothing recorded yields an empty mapping, not an error.
func (l *Ledger) LoadExceptions(ctx context.Context, period int) PeriodExceptions {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load(ctx)
	if rec, ok := doc.Sprints[strconv.Itoa(period)]; ok && rec.Exceptions != nil {
		return rec.Exceptions
	}
	return PeriodExceptions{}
}

// ClearPeriod removes the entries for one sprint. Clearing a sprint that
// has nothing recorded succeeds.
func (l *Ledger) ClearPeriod(ctx context.Context, period int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load(ctx)
	key := strconv.Itoa(period)
	if _, ok := doc.Sprints[key]; !ok {
		return true
	}
	delete(doc.Sprints, key)
	if err := l.store.Save(ctx, doc); err != nil {
		l.log.Error("clearing sprint exceptions failed", zap.Int("sprint", period), zap.Error(err))
		return false
	}
	return true
}

// Sprinters returns the sorted distinct sprinter ids appearing anywhere in
// the stored history.
func (l *Ledger) Sprinters(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load(ctx)
	seen := make(map[string]struct{})
	for _, rec := range doc.Sprints {
		for id := range rec.Exceptions {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the stored settings merged with the built-in
// defaults, so callers never see a missing parameter.
func (l *Ledger) GetSettings(ctx context.Context) Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settingsLocked(ctx)
}

func (l *Ledger) settingsLocked(ctx context.Context) Settings {
	doc := l.load(ctx)
	return DefaultSettings().Merge(doc.Settings)
}

// UpdateSettings shallow-merges the provided partial over the stored
// settings. Parameters absent from the partial keep their stored values.
func (l *Ledger) UpdateSettings(ctx context.Context, partial Settings) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := l.load(ctx)
	doc.Settings = DefaultSettings().Merge(doc.Settings).Merge(partial)
	now := time.Now().UTC()
	doc.SettingsUpdatedAt = &now
	if err := l.store.Save(ctx, doc); err != nil {
		l.log.Error("saving settings failed", zap.Error(err))
		return false
	}
	return true
}
