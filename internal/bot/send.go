package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// reply sends text to the chat, split into chunks below Telegram's length
// limit. Send failures are logged; there is no retry.
func (b *Bot) reply(chatID int64, text string) {
	for _, chunk := range splitMessage(text, messageChunkLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

// sendTyping sends the "typing" chat action so the user sees the bot is
// working on a reply.
func (b *Bot) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		b.logger.Debug("failed to send typing action", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// splitMessage splits text into rune-safe chunks of at most limit runes,
// preferring to break at the last newline, then the last space, inside
// each window.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return []string{""}
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		window := runes[:limit]
		cut := limit
		if idx := lastIndexRune(window, '\n'); idx > 0 {
			cut = idx
		} else if idx := lastIndexRune(window, ' '); idx > 0 {
			cut = idx
		}

		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n "))
		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == '\n' || runes[0] == ' ') {
			runes = runes[1:]
		}
	}
	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
