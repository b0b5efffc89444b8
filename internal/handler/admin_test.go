package handler

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
)

func newAdminRouter(t *testing.T) (*chi.Mux, *store.ConversationStore, *store.QuotaTracker) {
	t.Helper()

	conversations := store.NewConversationStore(40)
	quota := store.NewQuotaTracker(1000, 200, 50)
	gateway := store.NewGateway(filepath.Join(t.TempDir(), "state.json"), time.Second, conversations, quota, logger.NewNop())
	h := NewAdminHandler(conversations, quota, gateway, logger.NewNop())

	r := chi.NewRouter()
	r.Get("/quota", h.Quota)
	r.Get("/chats", h.Chats)
	r.Delete("/chats/{id}/history", h.ClearHistory)
	r.Post("/snapshot", h.ForceSnapshot)
	return r, conversations, quota
}

func TestAdminClearHistory(t *testing.T) {
	t.Parallel()

	r, conversations, _ := newAdminRouter(t)
	conversations.Append(42, model.RoleUser, "hello")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chats/42/history", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, conversations.History(42))
}

func TestAdminClearHistoryInvalidID(t *testing.T) {
	t.Parallel()

	r, _, _ := newAdminRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chats/not-a-number/history", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminForceSnapshot(t *testing.T) {
	t.Parallel()

	r, conversations, _ := newAdminRouter(t)
	conversations.Append(1, model.RoleUser, "persist me")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"flushed"}`, rec.Body.String())
}

func TestAdminQuota(t *testing.T) {
	t.Parallel()

	r, _, quota := newAdminRouter(t)
	quota.Increment(5)
	quota.Increment(6)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quota", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"unique_users":2`)
}
