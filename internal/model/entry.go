// Package model defines data structures for the assistant.
package model

import (
	"time"
)

// Role represents the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ConversationEntry is one turn in a chat. Entries are immutable once
// created.
type ConversationEntry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry creates an entry stamped with the current UTC time.
func NewEntry(role Role, text string) ConversationEntry {
	return ConversationEntry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
