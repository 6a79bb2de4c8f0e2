package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/xaenox/voiceinsight/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStorage persists each concern as a single JSONB blob keyed by
// name, keeping the same whole-list round-trip semantics as the file store.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) LoadConversations() ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	if !s.read(conversationsFile, &conversations) {
		return []*models.Conversation{}, nil
	}
	return conversations, nil
}

func (s *PostgresStorage) SaveConversations(conversations []*models.Conversation) error {
	return s.write(conversationsFile, conversations)
}

func (s *PostgresStorage) LoadPreferences() (*models.Preferences, error) {
	var prefs models.Preferences
	if !s.read(preferencesFile, &prefs) {
		return nil, nil
	}
	return &prefs, nil
}

func (s *PostgresStorage) SavePreferences(prefs *models.Preferences) error {
	return s.write(preferencesFile, prefs)
}

func (s *PostgresStorage) AppendEmotionHistory(record models.EmotionRecord) error {
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

func (s *PostgresStorage) LoadEmotionHistory() ([]models.EmotionRecord, error) {
	var history []models.EmotionRecord
	if !s.read(emotionHistoryFile, &history) {
		return []models.EmotionRecord{}, nil
	}
	return history, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) read(key string, v any) bool {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM app_state WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to read state row",
				zap.String("key", key),
				zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("Discarding corrupt state row",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

func (s *PostgresStorage) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}

	query := `
		INSERT INTO app_state (key, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET data = $2, updated_at = $3`

	if _, err := s.db.Exec(query, key, data, time.Now()); err != nil {
		return fmt.Errorf("error writing %s: %w", key, err)
	}
	return nil
}
