package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/telegram-assistant/internal/llm"
	"github.com/capitalize-ai/telegram-assistant/internal/model"
)

func TestToChatMessagesMapsRoles(t *testing.T) {
	t.Parallel()

	history := []model.ConversationEntry{
		{Role: model.RoleUser, Text: "question"},
		{Role: model.RoleModel, Text: "answer"},
	}

	messages := toChatMessages(history, "follow-up")
	require.Len(t, messages, 3)
	require.Equal(t, llm.ChatMessage{Role: "user", Content: "question"}, messages[0])
	require.Equal(t, llm.ChatMessage{Role: "assistant", Content: "answer"}, messages[1])
	require.Equal(t, llm.ChatMessage{Role: "user", Content: "follow-up"}, messages[2])
}

func TestToChatMessagesEmptyHistory(t *testing.T) {
	t.Parallel()

	messages := toChatMessages(nil, "first message")
	require.Len(t, messages, 1)
	require.Equal(t, "user", messages[0].Role)
}

func TestReplyForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "quota", err: fmt.Errorf("wrapped: %w", llm.ErrQuotaExceeded), want: replyQuotaExceeded},
		{name: "filtered", err: fmt.Errorf("wrapped: %w", llm.ErrContentFiltered), want: replyFiltered},
		{name: "transient", err: errors.New("connection reset"), want: replyTransient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, replyForError(tt.err))
		})
	}
}

func TestFormatQuotaStatus(t *testing.T) {
	t.Parallel()

	text := formatQuotaStatus(model.QuotaStatus{
		Used:       850,
		Limit:      1000,
		Remaining:  150,
		Percentage: 85,
		Tier:       model.TierLow,
	})

	require.Contains(t, text, "850/1000")
	require.Contains(t, text, "85%")
	require.Contains(t, text, "150")
	require.Contains(t, text, "low")
}
