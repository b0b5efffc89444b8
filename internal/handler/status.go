// Package handler provides HTTP handlers for the status server.
package handler

import (
	"html/template"
	"net/http"
	"time"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
)

// StatusHandler serves the health, status, and dashboard endpoints.
type StatusHandler struct {
	conversations *store.ConversationStore
	quota         *store.QuotaTracker
	startedAt     time.Time
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(conversations *store.ConversationStore, quota *store.QuotaTracker) *StatusHandler {
	return &StatusHandler{
		conversations: conversations,
		quota:         quota,
		startedAt:     time.Now(),
	}
}

// Health handles GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *StatusHandler) statusResponse() model.StatusResponse {
	conversations, users := h.conversations.Counts()
	return model.StatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Quota:         h.quota.Status(),
		Stats: model.UsageStats{
			TotalUsers:    users,
			ActiveToday:   h.quota.UniqueUsers(),
			Conversations: conversations,
		},
		Timestamp: time.Now().UTC(),
	}
}

// Status handles GET /status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.statusResponse())
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="10">
<title>Assistant Status</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem auto; max-width: 40rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
td, th { text-align: left; padding: .4rem .8rem; border-bottom: 1px solid #ddd; }
.tier-ample { color: #2a7d2a; }
.tier-low { color: #b8860b; }
.tier-exhausted { color: #b22222; }
</style>
</head>
<body>
<h1>Assistant Status</h1>
<table>
<tr><th>Status</th><td>{{.Status}}</td></tr>
<tr><th>Uptime</th><td>{{.UptimeSeconds}}s</td></tr>
<tr><th>Quota</th><td class="tier-{{.Quota.Tier}}">{{.Quota.Used}} / {{.Quota.Limit}} ({{.Quota.Percentage}}%, {{.Quota.Tier}})</td></tr>
<tr><th>Conversations</th><td>{{.Stats.Conversations}}</td></tr>
<tr><th>Users</th><td>{{.Stats.TotalUsers}}</td></tr>
<tr><th>Active today</th><td>{{.Stats.ActiveToday}}</td></tr>
<tr><th>As of</th><td>{{.Timestamp.Format "2006-01-02 15:04:05 UTC"}}</td></tr>
</table>
</body>
</html>
`))

// Dashboard handles GET / with a human-readable, auto-refreshing page.
func (h *StatusHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, h.statusResponse()); err != nil {
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}
