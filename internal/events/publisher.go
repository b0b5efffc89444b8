// Package events publishes operational events to NATS for downstream
// automation. Publishing is optional and best effort: a nil publisher is
// valid and every method on it is a no-op.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/capitalize-ai/telegram-assistant/pkg/logger"
)

// Subjects for published events.
const (
	SubjectMessageHandled = "assistant.message.handled"
	SubjectQuotaExhausted = "assistant.quota.exhausted"
)

// MessageHandled is emitted after a completed user/model exchange.
type MessageHandled struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	TokensIn  int       `json:"tokens_in"`
	TokensOut int       `json:"tokens_out"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// QuotaExhausted is emitted when a message is rejected by the daily quota.
type QuotaExhausted struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher wraps a NATS connection for event publishing.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Connect establishes a NATS connection for publishing. An empty URL
// returns a nil publisher, which disables publishing entirely.
func Connect(url, token string, log *logger.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, logger: log}, nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}

// PublishMessageHandled emits a message-handled event.
func (p *Publisher) PublishMessageHandled(event MessageHandled) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	p.publish(SubjectMessageHandled, event)
}

// PublishQuotaExhausted emits a quota-exhausted event.
func (p *Publisher) PublishQuotaExhausted(event QuotaExhausted) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	p.publish(SubjectQuotaExhausted, event)
}

func (p *Publisher) publish(subject string, event any) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
