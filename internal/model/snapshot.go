package model

// DateLayout is the calendar-day format used for quota bookkeeping. Days
// are always evaluated in UTC.
const DateLayout = "2006-01-02"

// ConversationState pairs a chat with its persisted history.
type ConversationState struct {
	ChatID  int64               `json:"chatId"`
	Entries []ConversationEntry `json:"entries"`
}

// PreferenceState pairs a user with their preference map.
type PreferenceState struct {
	UserID      int64             `json:"userId"`
	Preferences map[string]string `json:"preferences"`
}

// DailyStats is the persisted form of the daily quota counter.
type DailyStats struct {
	Date          string  `json:"date"`
	RequestCount  int     `json:"requestCount"`
	UniqueUserIDs []int64 `json:"uniqueUserIds"`
}

// Snapshot is the serializable union of all state owned by the stores.
// It is written as a single JSON document and replaced atomically.
type Snapshot struct {
	Conversations   []ConversationState `json:"conversations"`
	UserPreferences []PreferenceState   `json:"userPreferences"`
	DailyStats      DailyStats          `json:"dailyStats"`
}
