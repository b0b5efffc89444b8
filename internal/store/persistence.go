package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
	"github.com/capitalize-ai/telegram-assistant/pkg/metrics"
)

// ErrNoSnapshot indicates no usable persisted state was found. A missing,
// unreadable, or malformed state file all map to this error; callers start
// from empty state.
var ErrNoSnapshot = errors.New("no usable snapshot")

// Gateway periodically serializes the conversation store and quota tracker
// to a single JSON file and restores them at startup. Persistence is best
// effort: flush failures are logged and never reach the serving path.
type Gateway struct {
	path          string
	interval      time.Duration
	conversations *ConversationStore
	quota         *QuotaTracker
	logger        *logger.Logger
}

// NewGateway creates a persistence gateway writing to path every interval.
func NewGateway(path string, interval time.Duration, conversations *ConversationStore, quota *QuotaTracker, log *logger.Logger) *Gateway {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Gateway{
		path:          path,
		interval:      interval,
		conversations: conversations,
		quota:         quota,
		logger:        log,
	}
}

// Snapshot captures the current state of both owners without mutating
// them. Each owner copies its state under its own lock.
func (g *Gateway) Snapshot() model.Snapshot {
	conversations, preferences := g.conversations.SnapshotState()
	return model.Snapshot{
		Conversations:   conversations,
		UserPreferences: preferences,
		DailyStats:      g.quota.SnapshotState(),
	}
}

// Flush writes the snapshot to the state file. The write is atomic: a
// crash mid-flush leaves either the previous or the new file, never a
// torn one.
func (g *Gateway) Flush(snapshot model.Snapshot) error {
	start := time.Now()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(g.path, data); err != nil {
		return err
	}

	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	return nil
}

// Restore reads the state file. Absent or malformed state yields
// ErrNoSnapshot rather than a hard failure.
func (g *Gateway) Restore() (model.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Snapshot{}, ErrNoSnapshot
		}
		g.logger.Warn("state file unreadable", zap.String("path", g.path), zap.Error(err))
		return model.Snapshot{}, ErrNoSnapshot
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		g.logger.Warn("state file malformed, starting empty", zap.String("path", g.path), zap.Error(err))
		return model.Snapshot{}, ErrNoSnapshot
	}
	return snapshot, nil
}

// Load restores persisted state into both owners. Missing state is not an
// error; the stores keep their empty initial state. A restored quota from
// a previous day is reset before use.
func (g *Gateway) Load() {
	snapshot, err := g.Restore()
	if err != nil {
		g.logger.Info("no persisted state, starting fresh", zap.String("path", g.path))
		return
	}

	g.conversations.RestoreState(snapshot.Conversations, snapshot.UserPreferences)
	g.quota.RestoreState(snapshot.DailyStats)

	g.logger.Info("state restored",
		zap.String("path", g.path),
		zap.Int("conversations", len(snapshot.Conversations)),
		zap.Int("users", len(snapshot.UserPreferences)),
		zap.Int("request_count", snapshot.DailyStats.RequestCount),
	)
}

// FlushNow snapshots and flushes once, swallowing failures. It is safe to
// call from any goroutine.
func (g *Gateway) FlushNow() {
	if err := g.Flush(g.Snapshot()); err != nil {
		metrics.SnapshotFailuresTotal.Inc()
		g.logger.Error("snapshot flush failed", zap.String("path", g.path), zap.Error(err))
	}
}

// Run flushes on a ticker until ctx is canceled, then performs one final
// flush so shutdown loses at most nothing past the last inbound message.
func (g *Gateway) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.FlushNow()
		case <-ctx.Done():
			g.FlushNow()
			return
		}
	}
}
