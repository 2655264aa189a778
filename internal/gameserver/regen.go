package gameserver

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RegenTicker periodically applies one regeneration tick to every stored
// character that is not in combat.
//
// Invariant: at most one sweep runs at a time; a tick that fires while a sweep
// is still in progress is skipped.
type RegenTicker struct {
	store    CharacterStore
	interval time.Duration
	logger   *zap.Logger
	running  atomic.Bool
}

// NewRegenTicker returns a ticker that sweeps every interval.
//
// Precondition: interval must be > 0.
func NewRegenTicker(store CharacterStore, interval time.Duration, logger *zap.Logger) *RegenTicker {
	if interval <= 0 {
		panic("gameserver.NewRegenTicker: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegenTicker{store: store, interval: interval, logger: logger}
}

// Tick runs one regeneration sweep. Per-character failures are logged and do
// not stop the sweep.
//
// Postcondition: Returns the number of characters whose pools changed, and
// false if the sweep was skipped because another was in progress.
func (r *RegenTicker) Tick(ctx context.Context) (int, bool) {
	if !r.running.CompareAndSwap(false, true) {
		return 0, false
	}
	defer r.running.Store(false)

	chars, err := r.store.List(ctx)
	if err != nil {
		r.logger.Warn("listing characters for regen", zap.Error(err))
		return 0, true
	}
	changed := 0
	for _, c := range chars {
		if ctx.Err() != nil {
			break
		}
		if c.InCombat {
			continue
		}
		ok, err := r.store.Regenerate(ctx, c.ID)
		if err != nil {
			r.logger.Warn("regenerating character",
				zap.Int64("character", c.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			changed++
		}
	}
	if changed > 0 {
		r.logger.Debug("regen tick", zap.Int("changed", changed))
	}
	return changed, true
}

// Run ticks every interval until ctx is cancelled.
//
// Postcondition: Always returns nil once ctx is done.
func (r *RegenTicker) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}
