package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xaenox/voiceinsight/internal/models"
	"go.uber.org/zap"
)

// Key files under the state directory, mirroring the browser client's
// local-storage keys.
const (
	conversationsFile  = "voice_conversations.json"
	preferencesFile    = "voice_preferences.json"
	emotionHistoryFile = "voice_emotion_history.json"
)

// FileStorage keeps each concern in its own JSON file under a state
// directory. Corrupt or missing files degrade to empty state rather than
// failing the caller.
type FileStorage struct {
	dir    string
	logger *zap.Logger
}

func NewFileStorage(dir string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating state directory: %w", err)
	}
	return &FileStorage{dir: dir, logger: logger}, nil
}

func (s *FileStorage) LoadConversations() ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	if !s.read(conversationsFile, &conversations) {
		return []*models.Conversation{}, nil
	}
	return conversations, nil
}

func (s *FileStorage) SaveConversations(conversations []*models.Conversation) error {
	return s.write(conversationsFile, conversations)
}

func (s *FileStorage) LoadPreferences() (*models.Preferences, error) {
	var prefs models.Preferences
	if !s.read(preferencesFile, &prefs) {
		return nil, nil
	}
	return &prefs, nil
}

func (s *FileStorage) SavePreferences(prefs *models.Preferences) error {
	return s.write(preferencesFile, prefs)
}

func (s *FileStorage) AppendEmotionHistory(record models.EmotionRecord) error {
	history, err := s.LoadEmotionHistory()
	if err != nil {
		return err
	}
	history = append(history, record)
	if len(history) > EmotionHistoryCap {
		history = history[len(history)-EmotionHistoryCap:]
	}
	return s.write(emotionHistoryFile, history)
}

func (s *FileStorage) LoadEmotionHistory() ([]models.EmotionRecord, error) {
	var history []models.EmotionRecord
	if !s.read(emotionHistoryFile, &history) {
		return []models.EmotionRecord{}, nil
	}
	return history, nil
}

func (s *FileStorage) Close() error {
	// Nothing held open between operations.
	return nil
}

// read unmarshals the named key file into v. It returns false when the file
// is absent or unreadable, logging anything other than plain absence.
func (s *FileStorage) read(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read state file",
				zap.String("file", name),
				zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("Discarding corrupt state file",
			zap.String("file", name),
			zap.Error(err))
		return false
	}
	return true
}

func (s *FileStorage) write(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error replacing %s: %w", name, err)
	}
	return nil
}
