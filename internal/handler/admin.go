package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/internal/middleware"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
)

// AdminHandler serves the authenticated admin API.
type AdminHandler struct {
	conversations *store.ConversationStore
	quota         *store.QuotaTracker
	gateway       *store.Gateway
	logger        *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(conversations *store.ConversationStore, quota *store.QuotaTracker, gateway *store.Gateway, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		conversations: conversations,
		quota:         quota,
		gateway:       gateway,
		logger:        log,
	}
}

// Quota handles GET /api/v1/quota
func (h *AdminHandler) Quota(w http.ResponseWriter, r *http.Request) {
	status := h.quota.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quota":        status,
		"unique_users": h.quota.UniqueUsers(),
	})
}

// Chats handles GET /api/v1/chats
func (h *AdminHandler) Chats(w http.ResponseWriter, r *http.Request) {
	conversations, _ := h.conversations.SnapshotState()

	type chatInfo struct {
		ChatID  int64 `json:"chat_id"`
		Entries int   `json:"entries"`
	}
	chats := make([]chatInfo, 0, len(conversations))
	for _, conv := range conversations {
		chats = append(chats, chatInfo{ChatID: conv.ChatID, Entries: len(conv.Entries)})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chats": chats,
		"total": len(chats),
	})
}

// ClearHistory handles DELETE /api/v1/chats/{id}/history
func (h *AdminHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	chatID, err := middleware.ParseChatID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.conversations.Clear(chatID)
	h.logger.Info("history cleared by admin",
		zap.Int64("chat_id", chatID),
		zap.String("subject", middleware.GetSubject(r.Context())),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ForceSnapshot handles POST /api/v1/snapshot
func (h *AdminHandler) ForceSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Flush(h.gateway.Snapshot()); err != nil {
		h.logger.Error("forced snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "flushed",
	})
}
