// Package bot implements the Telegram transport: the long-poll update
// loop, command dispatch, and the quota-gated relay of user messages to
// the LLM client.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/internal/events"
	"github.com/capitalize-ai/telegram-assistant/internal/llm"
	"github.com/capitalize-ai/telegram-assistant/internal/store"
	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
	"github.com/capitalize-ai/telegram-assistant/pkg/metrics"
)

// Telegram rejects messages longer than 4096 characters; chunk a little
// below that to leave room for formatting.
const messageChunkLimit = 4000

// llmCallTimeout bounds a single completion call.
const llmCallTimeout = 90 * time.Second

// Options configures a Bot.
type Options struct {
	Token         string
	UpdateTimeout int
	Model         string
	MaxTokens     int
}

// Bot is the Telegram assistant.
type Bot struct {
	api           *tgbotapi.BotAPI
	conversations *store.ConversationStore
	quota         *store.QuotaTracker
	llm           llm.Client
	events        *events.Publisher
	logger        *logger.Logger

	model         string
	maxTokens     int
	updateTimeout int
}

// New creates a Bot connected to the Telegram API.
func New(
	opts Options,
	conversations *store.ConversationStore,
	quota *store.QuotaTracker,
	llmClient llm.Client,
	publisher *events.Publisher,
	log *logger.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, err
	}

	updateTimeout := opts.UpdateTimeout
	if updateTimeout <= 0 {
		updateTimeout = 30
	}

	log.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

	return &Bot{
		api:           api,
		conversations: conversations,
		quota:         quota,
		llm:           llmClient,
		events:        publisher,
		logger:        log,
		model:         opts.Model,
		maxTokens:     opts.MaxTokens,
		updateTimeout: updateTimeout,
	}, nil
}

// Run processes updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.updateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		metrics.UpdatesTotal.WithLabelValues("ignored").Inc()
		return
	}

	msg := update.Message
	if msg.IsCommand() {
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		b.handleCommand(ctx, msg)
		return
	}

	metrics.UpdatesTotal.WithLabelValues("message").Inc()
	b.handleMessage(ctx, msg)
}
