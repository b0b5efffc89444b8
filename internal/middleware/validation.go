package middleware

import (
	"errors"
	"strconv"
)

// ParseChatID validates and parses a chat identifier path parameter.
// Telegram chat IDs are signed 64-bit integers (group chats are negative).
func ParseChatID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid chat ID format")
	}
	return id, nil
}
