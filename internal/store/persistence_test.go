package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
)

func newTestGateway(t *testing.T, path string) (*Gateway, *ConversationStore, *QuotaTracker) {
	t.Helper()

	conversations := NewConversationStore(40)
	quota := NewQuotaTracker(1000, 200, 50)
	gateway := NewGateway(path, time.Second, conversations, quota, logger.NewNop())
	return gateway, conversations, quota
}

func TestRestoreMissingFile(t *testing.T) {
	t.Parallel()

	gateway, conversations, quota := newTestGateway(t, filepath.Join(t.TempDir(), "state.json"))

	_, err := gateway.Restore()
	require.ErrorIs(t, err, ErrNoSnapshot)

	// Load falls back to empty state.
	gateway.Load()
	convCount, _ := conversations.Counts()
	require.Equal(t, 0, convCount)
	require.Equal(t, 0, quota.Status().Used)
}

func TestRestoreMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	gateway, _, _ := newTestGateway(t, path)

	_, err := gateway.Restore()
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFlushRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	gateway, conversations, quota := newTestGateway(t, path)

	conversations.Append(42, model.RoleUser, "hello")
	conversations.Append(42, model.RoleModel, "hi!")
	conversations.Append(43, model.RoleUser, "other chat")
	conversations.SetPreference(7, "language", "en")
	quota.Increment(7)
	quota.Increment(8)

	require.NoError(t, gateway.Flush(gateway.Snapshot()))

	restoredGateway, restoredConvs, restoredQuota := newTestGateway(t, path)
	restoredGateway.Load()

	history := restoredConvs.History(42)
	require.Len(t, history, 2)
	require.Equal(t, model.RoleUser, history[0].Role)
	require.Equal(t, "hello", history[0].Text)
	require.Equal(t, model.RoleModel, history[1].Role)
	require.Equal(t, "hi!", history[1].Text)

	original := conversations.History(42)
	for i := range history {
		require.True(t, history[i].Timestamp.Equal(original[i].Timestamp))
	}

	require.Len(t, restoredConvs.History(43), 1)
	require.Equal(t, "en", restoredConvs.Preference(7, "language", ""))

	status := restoredQuota.Status()
	require.Equal(t, 2, status.Used)
	require.Equal(t, 2, restoredQuota.UniqueUsers())
}

func TestFlushWritesPersistedLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	gateway, conversations, quota := newTestGateway(t, path)

	conversations.Append(1, model.RoleUser, "x")
	quota.Increment(9)

	require.NoError(t, gateway.Flush(gateway.Snapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "conversations")
	require.Contains(t, raw, "userPreferences")
	require.Contains(t, raw, "dailyStats")

	var stats model.DailyStats
	require.NoError(t, json.Unmarshal(raw["dailyStats"], &stats))
	require.Equal(t, time.Now().UTC().Format(model.DateLayout), stats.Date)
	require.Equal(t, 1, stats.RequestCount)
	require.Equal(t, []int64{9}, stats.UniqueUserIDs)
}

func TestFlushReplacesAtomically(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	gateway, conversations, _ := newTestGateway(t, path)

	conversations.Append(1, model.RoleUser, "first")
	require.NoError(t, gateway.Flush(gateway.Snapshot()))

	conversations.Append(1, model.RoleModel, "second")
	require.NoError(t, gateway.Flush(gateway.Snapshot()))

	// The file parses as a complete snapshot and no temp files linger.
	var snapshot model.Snapshot
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Len(t, snapshot.Conversations, 1)
	require.Len(t, snapshot.Conversations[0].Entries, 2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSnapshotIsConsistentCopy(t *testing.T) {
	t.Parallel()

	gateway, conversations, quota := newTestGateway(t, filepath.Join(t.TempDir(), "state.json"))

	conversations.Append(1, model.RoleUser, "before")
	quota.Increment(1)

	snapshot := gateway.Snapshot()

	// Mutations after the snapshot must not leak into it.
	conversations.Append(1, model.RoleModel, "after")
	quota.Increment(2)

	require.Len(t, snapshot.Conversations, 1)
	require.Len(t, snapshot.Conversations[0].Entries, 1)
	require.Equal(t, 1, snapshot.DailyStats.RequestCount)
	require.Equal(t, []int64{1}, snapshot.DailyStats.UniqueUserIDs)
}
