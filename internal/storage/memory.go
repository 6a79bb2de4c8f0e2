package storage

import (
	"encoding/json"
	"sync"

	"github.com/xaenox/voiceinsight/internal/models"
)

// MemoryStorage keeps all state in process memory. Used for tests and for
// running without durable persistence. Data is stored serialized so that
// loads return independent copies, matching the file store's behavior.
type MemoryStorage struct {
	mu             sync.RWMutex
	conversations  []byte
	preferences    []byte
	emotionHistory []models.EmotionRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) LoadConversations() ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.conversations == nil {
		return []*models.Conversation{}, nil
	}
	var conversations []*models.Conversation
	if err := json.Unmarshal(s.conversations, &conversations); err != nil {
		return []*models.Conversation{}, nil
	}
	return conversations, nil
}

func (s *MemoryStorage) SaveConversations(conversations []*models.Conversation) error {
	data, err := json.Marshal(conversations)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = data
	return nil
}

func (s *MemoryStorage) LoadPreferences() (*models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.preferences == nil {
		return nil, nil
	}
	var prefs models.Preferences
	if err := json.Unmarshal(s.preferences, &prefs); err != nil {
		return nil, nil
	}
	return &prefs, nil
}

func (s *MemoryStorage) SavePreferences(prefs *models.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences = data
	return nil
}

func (s *MemoryStorage) AppendEmotionHistory(record models.EmotionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emotionHistory = append(s.emotionHistory, record)
	if len(s.emotionHistory) > EmotionHistoryCap {
		s.emotionHistory = s.emotionHistory[len(s.emotionHistory)-EmotionHistoryCap:]
	}
	return nil
}

func (s *MemoryStorage) LoadEmotionHistory() ([]models.EmotionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]models.EmotionRecord, len(s.emotionHistory))
	copy(history, s.emotionHistory)
	return history, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
