package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
)

func TestHealth(t *testing.T) {
	t.Parallel()

	h := NewStatusHandler(store.NewConversationStore(40), store.NewQuotaTracker(1000, 200, 50))

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestStatusShape(t *testing.T) {
	t.Parallel()

	conversations := store.NewConversationStore(40)
	quota := store.NewQuotaTracker(1000, 200, 50)
	h := NewStatusHandler(conversations, quota)

	conversations.Append(1, model.RoleUser, "hello")
	conversations.Append(2, model.RoleUser, "hi")
	conversations.SetPreference(7, "language", "en")
	quota.Increment(7)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Equal(t, "ok", resp.Status)
	require.Equal(t, 1, resp.Quota.Used)
	require.Equal(t, 1000, resp.Quota.Limit)
	require.Equal(t, 999, resp.Quota.Remaining)
	require.Equal(t, model.TierAmple, resp.Quota.Tier)
	require.Equal(t, 2, resp.Stats.Conversations)
	require.Equal(t, 1, resp.Stats.TotalUsers)
	require.Equal(t, 1, resp.Stats.ActiveToday)
	require.False(t, resp.Timestamp.IsZero())
}

func TestDashboardRenders(t *testing.T) {
	t.Parallel()

	h := NewStatusHandler(store.NewConversationStore(40), store.NewQuotaTracker(1000, 200, 50))

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	require.Contains(t, body, "Assistant Status")
	require.Contains(t, body, `http-equiv="refresh"`)
	require.True(t, strings.Contains(body, "0 / 1000"))
}
