package checkpoint

import (
	"context"
	"fmt"
	"time"

	"StockScan/internal/domain/repository"
	"StockScan/pkg/logger"
)

// Manager owns the checkpoint lifecycle against a generic key/value
// store. It is the only writer of the checkpoint key.
type Manager struct {
	store repository.CheckpointStore
	key   string
	log   *logger.Logger
}

func NewManager(store repository.CheckpointStore, key string, log *logger.Logger) *Manager {
	return &Manager{store: store, key: key, log: log}
}

// Load fetches and validates the stored checkpoint against plan. It
// returns nil when there is nothing usable to resume from: missing key,
// corrupt blob, plan mismatch, or a checkpoint that already covers every
// segment. Unusable checkpoints are deleted on the spot so a later crash
// cannot resurrect them.
func (m *Manager) Load(ctx context.Context, plan Plan) (*Checkpoint, error) {
	value, found, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %q: %w", m.key, err)
	}
	if !found {
		return nil, nil
	}

	cp, err := Decode(value)
	if err != nil {
		m.log.Warn("discarding unreadable checkpoint", logger.String("key", m.key), logger.Error(err))
		m.clear(ctx)
		return nil, nil
	}
	if !cp.Matches(plan) {
		m.log.Info("checkpoint does not match current plan, starting fresh",
			logger.String("key", m.key),
			logger.String("stored_signature", short(cp.UniverseSignature)),
			logger.String("plan_signature", short(plan.UniverseSignature)),
			logger.Int("stored_segments", cp.SegmentCount),
			logger.Int("plan_segments", plan.SegmentCount))
		m.clear(ctx)
		return nil, nil
	}
	if cp.NextSegmentIndex >= cp.SegmentCount {
		m.log.Info("checkpoint already covers all segments, starting fresh",
			logger.String("key", m.key))
		m.clear(ctx)
		return nil, nil
	}

	m.log.Info("resuming from checkpoint",
		logger.String("key", m.key),
		logger.Int("next_segment", cp.NextSegmentIndex),
		logger.Int("segments", cp.SegmentCount),
		logger.Int64("scanned", cp.Scanned))
	return cp, nil
}

// Save persists the checkpoint. A save failure is surfaced but must not
// abort the run; losing a checkpoint only costs re-scanning on the next
// resume.
func (m *Manager) Save(ctx context.Context, cp *Checkpoint) error {
	cp.Version = Version
	cp.UpdatedAt = time.Now().UTC()
	value, err := Encode(cp)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, m.key, value); err != nil {
		return fmt.Errorf("save checkpoint %q: %w", m.key, err)
	}
	return nil
}

// Clear removes the checkpoint after a completed run.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("clear checkpoint %q: %w", m.key, err)
	}
	return nil
}

func (m *Manager) clear(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.log.Warn("failed to delete stale checkpoint", logger.String("key", m.key), logger.Error(err))
	}
}

func short(sig string) string {
	if len(sig) > 12 {
		return sig[:12]
	}
	return sig
}
