package store

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/pkg/metrics"
)

// QuotaTracker owns the shared daily request counter and the set of users
// seen today. The day boundary is evaluated lazily on every access by
// comparing the stored date with the current UTC date, so the counter is
// correct even if the process slept across midnight.
type QuotaTracker struct {
	limit          int
	ampleThreshold int
	lowThreshold   int

	mu    sync.Mutex
	date  string
	count int
	users map[int64]struct{}
}

// NewQuotaTracker creates a tracker for the given daily limit. The tier
// thresholds classify remaining quota: remaining > ampleThreshold is
// "ample", remaining > lowThreshold is "low", anything else "exhausted".
func NewQuotaTracker(limit, ampleThreshold, lowThreshold int) *QuotaTracker {
	if limit <= 0 {
		limit = 1000
	}
	return &QuotaTracker{
		limit:          limit,
		ampleThreshold: ampleThreshold,
		lowThreshold:   lowThreshold,
		date:           time.Now().UTC().Format(model.DateLayout),
		users:          make(map[int64]struct{}),
	}
}

// Status reports today's usage. A stale date is reset before the figures
// are computed.
func (t *QuotaTracker) Status() model.QuotaStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	return t.statusLocked()
}

// Increment records one request for userID after the day-rollover check.
// It does not gate on the limit; callers that want check-and-act in one
// step should use TryIncrement.
func (t *QuotaTracker) Increment(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	t.incrementLocked(userID)
}

// TryIncrement records one request only if quota remains, returning
// whether the request was admitted. Checking and incrementing under one
// lock closes the race where concurrent callers each observe remaining
// quota and collectively overshoot the limit.
func (t *QuotaTracker) TryIncrement(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	if t.count >= t.limit {
		return false
	}
	t.incrementLocked(userID)
	return true
}

// UniqueUsers reports how many distinct users were seen today.
func (t *QuotaTracker) UniqueUsers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()
	return len(t.users)
}

// SnapshotState captures the current daily stats for persistence.
func (t *QuotaTracker) SnapshotState() model.DailyStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rolloverLocked()

	userIDs := make([]int64, 0, len(t.users))
	for id := range t.users {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	return model.DailyStats{
		Date:          t.date,
		RequestCount:  t.count,
		UniqueUserIDs: userIDs,
	}
}

// RestoreState replaces the tracker's state with persisted stats. Stats
// from a previous day are discarded so restarts never resurrect a stale
// counter.
func (t *QuotaTracker) RestoreState(stats model.DailyStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := time.Now().UTC().Format(model.DateLayout)
	if stats.Date != today {
		t.date = today
		t.count = 0
		t.users = make(map[int64]struct{})
		metrics.QuotaUsed.Set(0)
		return
	}

	t.date = stats.Date
	t.count = stats.RequestCount
	t.users = make(map[int64]struct{}, len(stats.UniqueUserIDs))
	for _, id := range stats.UniqueUserIDs {
		t.users[id] = struct{}{}
	}
	metrics.QuotaUsed.Set(float64(t.count))
}

// rolloverLocked resets the counter when the stored date is no longer the
// current UTC day. Callers must hold the lock.
func (t *QuotaTracker) rolloverLocked() {
	today := time.Now().UTC().Format(model.DateLayout)
	if t.date == today {
		return
	}
	t.date = today
	t.count = 0
	t.users = make(map[int64]struct{})
	metrics.QuotaUsed.Set(0)
}

func (t *QuotaTracker) incrementLocked(userID int64) {
	t.count++
	t.users[userID] = struct{}{}
	metrics.QuotaUsed.Set(float64(t.count))
}

func (t *QuotaTracker) statusLocked() model.QuotaStatus {
	remaining := t.limit - t.count
	if remaining < 0 {
		remaining = 0
	}

	percentage := int(math.Round(float64(t.count) / float64(t.limit) * 100))

	tier := model.TierExhausted
	switch {
	case remaining > t.ampleThreshold:
		tier = model.TierAmple
	case remaining > t.lowThreshold:
		tier = model.TierLow
	}

	return model.QuotaStatus{
		Used:       t.count,
		Limit:      t.limit,
		Remaining:  remaining,
		Percentage: percentage,
		Tier:       tier,
	}
}
