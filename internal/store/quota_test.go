package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
)

func TestQuotaStatusFreshDay(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)

	status := q.Status()
	require.Equal(t, 0, status.Used)
	require.Equal(t, 1000, status.Limit)
	require.Equal(t, 1000, status.Remaining)
	require.Equal(t, 0, status.Percentage)
	require.Equal(t, model.TierAmple, status.Tier)
}

func TestQuotaStatusTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		used       int
		remaining  int
		percentage int
		tier       model.QuotaTier
	}{
		{name: "ample", used: 100, remaining: 900, percentage: 10, tier: model.TierAmple},
		{name: "low", used: 850, remaining: 150, percentage: 85, tier: model.TierLow},
		{name: "exhausted", used: 1000, remaining: 0, percentage: 100, tier: model.TierExhausted},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := NewQuotaTracker(1000, 200, 50)
			for i := 0; i < tt.used; i++ {
				q.Increment(1)
			}

			status := q.Status()
			require.Equal(t, tt.used, status.Used)
			require.Equal(t, tt.remaining, status.Remaining)
			require.Equal(t, tt.percentage, status.Percentage)
			require.Equal(t, tt.tier, status.Tier)
		})
	}
}

func TestQuotaDayRollover(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(model.DateLayout)
	q.mu.Lock()
	q.date = yesterday
	q.count = 500
	q.users = map[int64]struct{}{1: {}, 2: {}}
	q.mu.Unlock()

	// The stale date is reset as part of the next access, before any
	// other effect.
	status := q.Status()
	require.Equal(t, 0, status.Used)
	require.Equal(t, 1000, status.Remaining)
	require.Equal(t, 0, q.UniqueUsers())
}

func TestQuotaRolloverOnIncrement(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)

	q.mu.Lock()
	q.date = time.Now().UTC().AddDate(0, 0, -1).Format(model.DateLayout)
	q.count = 999
	q.mu.Unlock()

	q.Increment(7)

	status := q.Status()
	require.Equal(t, 1, status.Used)
	require.Equal(t, 1, q.UniqueUsers())
}

func TestTryIncrementStopsAtLimit(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(3, 2, 1)

	require.True(t, q.TryIncrement(1))
	require.True(t, q.TryIncrement(2))
	require.True(t, q.TryIncrement(3))
	require.False(t, q.TryIncrement(4))

	status := q.Status()
	require.Equal(t, 3, status.Used)
	require.Equal(t, model.TierExhausted, status.Tier)

	// The rejected user is not counted among today's users.
	require.Equal(t, 3, q.UniqueUsers())
}

func TestConcurrentIncrements(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)

	var wg sync.WaitGroup
	for i := int64(1); i <= 10; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			q.Increment(userID)
		}(i)
	}
	wg.Wait()

	status := q.Status()
	require.Equal(t, 10, status.Used)
	require.Equal(t, 10, q.UniqueUsers())
}

func TestRestoreStateDiscardsStaleStats(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)
	q.RestoreState(model.DailyStats{
		Date:          time.Now().UTC().AddDate(0, 0, -1).Format(model.DateLayout),
		RequestCount:  750,
		UniqueUserIDs: []int64{1, 2, 3},
	})

	status := q.Status()
	require.Equal(t, 0, status.Used)
	require.Equal(t, 0, q.UniqueUsers())
}

func TestRestoreStateKeepsTodayStats(t *testing.T) {
	t.Parallel()

	q := NewQuotaTracker(1000, 200, 50)
	q.RestoreState(model.DailyStats{
		Date:          time.Now().UTC().Format(model.DateLayout),
		RequestCount:  42,
		UniqueUserIDs: []int64{5, 6},
	})

	status := q.Status()
	require.Equal(t, 42, status.Used)
	require.Equal(t, 2, q.UniqueUsers())
}
