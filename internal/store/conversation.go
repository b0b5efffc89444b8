// Package store owns the bot's mutable state: per-chat conversation
// histories, per-user preferences, and the daily request quota.
package store

import (
	"sort"
	"sync"

	"github.com/capitalize-ai/telegram-assistant/internal/model"
)

// ConversationStore holds bounded conversation histories and user
// preferences. All state is guarded by a single lock; operations never
// perform I/O, so critical sections are short.
type ConversationStore struct {
	limit int

	mu          sync.RWMutex
	histories   map[int64][]model.ConversationEntry
	preferences map[int64]map[string]string
}

// NewConversationStore creates a store that caps each chat's history at
// historyLimit entries, evicting oldest-first.
func NewConversationStore(historyLimit int) *ConversationStore {
	if historyLimit <= 0 {
		historyLimit = 40
	}
	return &ConversationStore{
		limit:       historyLimit,
		histories:   make(map[int64][]model.ConversationEntry),
		preferences: make(map[int64]map[string]string),
	}
}

// Limit returns the configured history cap.
func (s *ConversationStore) Limit() int {
	return s.limit
}

// History returns a copy of the chat's history, creating an empty one on
// first access. It never fails.
func (s *ConversationStore) History(chatID int64) []model.ConversationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.histories[chatID]
	if !ok {
		s.histories[chatID] = nil
		return []model.ConversationEntry{}
	}

	out := make([]model.ConversationEntry, len(entries))
	copy(out, entries)
	return out
}

// Append adds one entry stamped with the current time. When the history
// grows past the cap, oldest entries are evicted until the cap holds.
func (s *ConversationStore) Append(chatID int64, role model.Role, text string) {
	entry := model.NewEntry(role, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.histories[chatID], entry)
	if len(entries) > s.limit {
		evicted := len(entries) - s.limit
		entries = append(entries[:0:0], entries[evicted:]...)
	}
	s.histories[chatID] = entries
}

// Clear replaces the chat's history with an empty sequence.
func (s *ConversationStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[chatID] = nil
}

// Preference returns the user's value for key, or defaultValue when the
// user or key is unknown. Reading never creates a preference record.
func (s *ConversationStore) Preference(userID int64, key, defaultValue string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.preferences[userID]
	if !ok {
		return defaultValue
	}
	value, ok := prefs[key]
	if !ok {
		return defaultValue
	}
	return value
}

// SetPreference stores a key/value pair for the user, creating the user's
// preference record on first write.
func (s *ConversationStore) SetPreference(userID int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, ok := s.preferences[userID]
	if !ok {
		prefs = make(map[string]string)
		s.preferences[userID] = prefs
	}
	prefs[key] = value
}

// Counts reports the number of tracked conversations and preference users.
func (s *ConversationStore) Counts() (conversations, users int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.histories), len(s.preferences)
}

// SnapshotState captures a consistent point-in-time copy of all histories
// and preferences, ordered by identifier for stable serialization.
func (s *ConversationStore) SnapshotState() ([]model.ConversationState, []model.PreferenceState) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversations := make([]model.ConversationState, 0, len(s.histories))
	for chatID, entries := range s.histories {
		copied := make([]model.ConversationEntry, len(entries))
		copy(copied, entries)
		conversations = append(conversations, model.ConversationState{
			ChatID:  chatID,
			Entries: copied,
		})
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].ChatID < conversations[j].ChatID
	})

	preferences := make([]model.PreferenceState, 0, len(s.preferences))
	for userID, prefs := range s.preferences {
		copied := make(map[string]string, len(prefs))
		for k, v := range prefs {
			copied[k] = v
		}
		preferences = append(preferences, model.PreferenceState{
			UserID:      userID,
			Preferences: copied,
		})
	}
	sort.Slice(preferences, func(i, j int) bool {
		return preferences[i].UserID < preferences[j].UserID
	})

	return conversations, preferences
}

// RestoreState replaces all histories and preferences with the given
// snapshot contents. Restored histories are re-capped in case the
// configured limit shrank since the snapshot was written.
func (s *ConversationStore) RestoreState(conversations []model.ConversationState, preferences []model.PreferenceState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories = make(map[int64][]model.ConversationEntry, len(conversations))
	for _, conv := range conversations {
		entries := conv.Entries
		if len(entries) > s.limit {
			entries = entries[len(entries)-s.limit:]
		}
		copied := make([]model.ConversationEntry, len(entries))
		copy(copied, entries)
		s.histories[conv.ChatID] = copied
	}

	s.preferences = make(map[int64]map[string]string, len(preferences))
	for _, pref := range preferences {
		copied := make(map[string]string, len(pref.Preferences))
		for k, v := range pref.Preferences {
			copied[k] = v
		}
		s.preferences[pref.UserID] = copied
	}
}
