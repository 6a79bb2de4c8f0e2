package storage

import "github.com/xaenox/voiceinsight/internal/models"

// Storage persists the conversation list, user preferences and the rolling
// emotion history. Implementations are best-effort: a failed save leaves the
// in-memory state as the source of truth for the rest of the session.
type Storage interface {
	LoadConversations() ([]*models.Conversation, error)
	SaveConversations(conversations []*models.Conversation) error

	LoadPreferences() (*models.Preferences, error)
	SavePreferences(prefs *models.Preferences) error

	// AppendEmotionHistory adds a record and trims the history to the
	// implementation's cap, oldest entries first.
	AppendEmotionHistory(record models.EmotionRecord) error
	LoadEmotionHistory() ([]models.EmotionRecord, error)

	Close() error
}

// EmotionHistoryCap bounds the rolling emotion history across all
// implementations.
const EmotionHistoryCap = 100
