package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/internal/events"
	"github.com/capitalize-ai/telegram-assistant/internal/llm"
	"github.com/capitalize-ai/telegram-assistant/internal/model"
	"github.com/capitalize-ai/telegram-assistant/pkg/metrics"
)

// Reply templates. Every inbound message produces exactly one reply, so
// each failure path below ends in a send.
const (
	replyWelcome       = "Hi! Send me a message and I'll answer. Use /help for commands."
	replyHelp          = "Commands:\n/start - start over\n/reset - forget this conversation\n/status - daily quota status\n/help - this message"
	replyReset         = "Conversation history cleared."
	replyQuotaExceeded = "The daily request limit has been reached. Please try again tomorrow."
	replyFiltered      = "I can't help with that request."
	replyTransient     = "Something went wrong talking to the model. Please try again in a moment."
)

// preference key recording when a user first talked to the bot.
const prefFirstContact = "first_contact"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	log := b.logger.WithChat(chatID, userID)

	switch msg.Command() {
	case "start":
		// First contact resets any prior history for the chat.
		b.conversations.Clear(chatID)
		if b.conversations.Preference(userID, prefFirstContact, "") == "" {
			b.conversations.SetPreference(userID, prefFirstContact, time.Now().UTC().Format(time.RFC3339))
		}
		b.reply(chatID, replyWelcome)

	case "reset":
		b.conversations.Clear(chatID)
		b.reply(chatID, replyReset)

	case "status":
		b.reply(chatID, formatQuotaStatus(b.quota.Status()))

	case "help":
		b.reply(chatID, replyHelp)

	default:
		log.Debug("unknown command", zap.String("command", msg.Command()))
		b.reply(chatID, replyHelp)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	log := b.logger.WithChat(chatID, userID)

	// Check-and-increment in one step so concurrent messages cannot push
	// the counter past the daily limit.
	if !b.quota.TryIncrement(userID) {
		metrics.QuotaRejectionsTotal.Inc()
		status := b.quota.Status()
		b.events.PublishQuotaExhausted(events.QuotaExhausted{
			ChatID:    chatID,
			UserID:    userID,
			Used:      status.Used,
			Limit:     status.Limit,
			Timestamp: time.Now().UTC(),
		})
		log.Info("message rejected, quota exhausted", zap.Int("used", status.Used))
		b.reply(chatID, replyQuotaExceeded)
		return
	}

	b.sendTyping(chatID)

	history := b.conversations.History(chatID)
	messages := toChatMessages(history, msg.Text)

	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	start := time.Now()
	resp, err := b.llm.Complete(callCtx, &llm.CompletionRequest{
		Model:     b.model,
		Messages:  messages,
		MaxTokens: b.maxTokens,
	})
	if err != nil {
		metrics.RecordLLMRequest(b.llm.Name(), b.model, "error", time.Since(start).Seconds(), 0, 0)
		log.Warn("completion failed", zap.Error(err))
		b.reply(chatID, replyForError(err))
		return
	}

	// A partial exchange is never recorded: both turns are appended only
	// after a successful completion.
	b.conversations.Append(chatID, model.RoleUser, msg.Text)
	b.conversations.Append(chatID, model.RoleModel, resp.Content)
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleModel)).Inc()
	metrics.RecordLLMRequest(b.llm.Name(), resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	b.events.PublishMessageHandled(events.MessageHandled{
		ChatID:    chatID,
		UserID:    userID,
		Provider:  b.llm.Name(),
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		LatencyMs: resp.LatencyMs,
		Timestamp: time.Now().UTC(),
	})

	b.reply(chatID, resp.Content)
}

// toChatMessages converts stored history plus the new user message into
// the LLM wire format. Stored "model" turns map to the providers'
// "assistant" role.
func toChatMessages(history []model.ConversationEntry, newText string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, entry := range history {
		role := "user"
		if entry.Role == model.RoleModel {
			role = "assistant"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: entry.Text})
	}
	return append(messages, llm.ChatMessage{Role: "user", Content: newText})
}

// replyForError maps a classified completion failure to the user-facing
// reply. Unclassified errors get the generic retry hint.
func replyForError(err error) string {
	switch {
	case errors.Is(err, llm.ErrQuotaExceeded):
		return replyQuotaExceeded
	case errors.Is(err, llm.ErrContentFiltered):
		return replyFiltered
	default:
		return replyTransient
	}
}

func formatQuotaStatus(status model.QuotaStatus) string {
	return fmt.Sprintf(
		"Daily quota: %d/%d used (%d%%)\nRemaining: %d\nLevel: %s",
		status.Used, status.Limit, status.Percentage, status.Remaining, status.Tier,
	)
}
