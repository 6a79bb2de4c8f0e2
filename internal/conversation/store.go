package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/voiceinsight/internal/models"
	"github.com/xaenox/voiceinsight/internal/storage"
	"go.uber.org/zap"
)

// ErrNoActiveConversation is returned by AddMessage when no conversation is
// selected.
var ErrNoActiveConversation = errors.New("no active conversation")

const titleWordLimit = 6

// Turn is one history entry in the shape expected by the completion API.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagePatch carries the fields UpdateMessage may change. Nil fields are
// left untouched.
type MessagePatch struct {
	Content    *string
	Processing *models.ProcessingResult
	IsTyping   *bool
	AudioURL   *string
}

// Store owns the conversation list (most-recent-first) and the pointer to
// the current conversation. Every public operation is a single atomic block;
// mutations recompute the emotional summary and persist the whole list.
type Store struct {
	mu            sync.RWMutex
	conversations []*models.Conversation
	currentID     string
	storage       storage.Storage
	logger        *zap.Logger
	now           func() time.Time
}

func NewStore(store storage.Storage, logger *zap.Logger) *Store {
	return &Store{
		storage: store,
		logger:  logger,
		now:     time.Now,
	}
}

// Init loads the persisted conversation list. A load failure degrades to an
// empty list; the store stays usable either way.
func (s *Store) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations, err := s.storage.LoadConversations()
	if err != nil {
		s.logger.Warn("Failed to load conversations, starting empty", zap.Error(err))
		conversations = []*models.Conversation{}
	}
	s.conversations = conversations
}

// Create starts a new conversation, inserts it at the front of the list and
// makes it current. An empty title defaults to the creation date.
func (s *Store) Create(title string) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if title == "" {
		title = now.Format("January 2, 2006")
	}

	conv := &models.Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		Messages:  []*models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.conversations = append([]*models.Conversation{conv}, s.conversations...)
	s.currentID = conv.ID
	s.persistLocked()
	return conv
}

// Current returns the selected conversation, or nil when none is selected
// or the selection went stale after a delete.
func (s *Store) Current() *models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.currentID)
}

// SetCurrent switches the selection. The id is not validated; a stale id
// simply makes Current return nil. The pointer is process-local and never
// persisted.
func (s *Store) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = id
}

// AddMessage appends a message to the current conversation, assigning id
// and timestamp. The first user message overwrites the default title with a
// summary of its content.
func (s *Store) AddMessage(msg models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(s.currentID)
	if conv == nil {
		return nil, ErrNoActiveConversation
	}

	msg.ID = uuid.New().String()
	msg.Timestamp = s.now()

	stored := msg
	conv.Messages = append(conv.Messages, &stored)
	conv.UpdatedAt = stored.Timestamp

	if len(conv.Messages) == 1 && stored.Type == models.UserMessage {
		conv.Title = deriveTitle(stored.Content)
	}

	conv.EmotionalSummary = computeSummary(conv.Messages)
	s.recordEmotionLocked(&stored)
	s.persistLocked()
	return &stored, nil
}

// UpdateMessage merges the patch into the identified message within the
// current conversation. A miss is a no-op: the conversation may have been
// deleted while an async reply was still in flight.
func (s *Store) UpdateMessage(id string, patch MessagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(s.currentID)
	if conv == nil {
		return
	}

	var target *models.Message
	for _, msg := range conv.Messages {
		if msg.ID == id {
			target = msg
			break
		}
	}
	if target == nil {
		return
	}

	if patch.Content != nil {
		target.Content = *patch.Content
	}
	if patch.Processing != nil {
		target.Processing = patch.Processing
		s.recordEmotionLocked(target)
	}
	if patch.IsTyping != nil {
		target.IsTyping = *patch.IsTyping
	}
	if patch.AudioURL != nil {
		target.AudioURL = *patch.AudioURL
	}

	conv.UpdatedAt = s.now()
	conv.EmotionalSummary = computeSummary(conv.Messages)
	s.persistLocked()
}

// Conversations returns a copy of the list, most recent first.
func (s *Store) Conversations() []*models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Delete removes a conversation. Deleting the current one clears the
// selection; the caller is expected to create or select another.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, conv := range s.conversations {
		if conv.ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			if s.currentID == id {
				s.currentID = ""
			}
			s.persistLocked()
			return
		}
	}
}

// History projects a conversation's messages into role/content pairs for
// the completion API. An empty id means the current conversation.
func (s *Store) History(conversationID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if conversationID == "" {
		conversationID = s.currentID
	}
	conv := s.findLocked(conversationID)
	if conv == nil {
		return nil
	}

	turns := make([]Turn, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		role := "assistant"
		if msg.Type == models.UserMessage {
			role = "user"
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	return turns
}

// exportedMessage is the per-message projection included in an export.
// Audio references and raw confidence scores are deliberately dropped.
type exportedMessage struct {
	Type      models.MessageType `json:"type"`
	Content   string             `json:"content"`
	Timestamp time.Time          `json:"timestamp"`
	Emotion   string             `json:"emotion,omitempty"`
	Sentiment string             `json:"sentiment,omitempty"`
}

type exportedConversation struct {
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	Messages  []exportedMessage `json:"messages"`
}

// Export serializes a conversation for sharing.
func (s *Store) Export(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.findLocked(id)
	if conv == nil {
		return "", fmt.Errorf("conversation %s not found", id)
	}

	export := exportedConversation{
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		Messages:  make([]exportedMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		exported := exportedMessage{
			Type:      msg.Type,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		if msg.Processing != nil {
			exported.Sentiment = msg.Processing.Sentiment
			if msg.Processing.Emotions != nil {
				exported.Emotion = msg.Processing.Emotions.PrimaryEmotion
			}
		}
		export.Messages = append(export.Messages, exported)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding export: %w", err)
	}
	return string(data), nil
}

// Insights computes the per-day emotional aggregates over the trailing
// window. Days defaults to 7.
func (s *Store) Insights(days int) []models.EmotionalInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 {
		days = 7
	}
	return dailyInsights(s.conversations, days, s.now())
}

func (s *Store) findLocked(id string) *models.Conversation {
	if id == "" {
		return nil
	}
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// deriveTitle summarizes message content into a short title: the first six
// words, with an ellipsis when truncated.
func deriveTitle(content string) string {
	words := strings.Fields(content)
	if len(words) <= titleWordLimit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWordLimit], " ") + "..."
}

// recordEmotionLocked feeds the rolling emotion history. Best-effort: a
// storage failure only logs.
func (s *Store) recordEmotionLocked(msg *models.Message) {
	if msg.Processing == nil || msg.Processing.Emotions == nil {
		return
	}
	record := models.EmotionRecord{
		Emotion:    msg.Processing.Emotions.PrimaryEmotion,
		Confidence: msg.Processing.Emotions.Confidence,
		Timestamp:  msg.Timestamp,
	}
	if err := s.storage.AppendEmotionHistory(record); err != nil {
		s.logger.Warn("Failed to record emotion history", zap.Error(err))
	}
}

// persistLocked writes the full list back to storage. Failures are logged
// and swallowed; in-memory state remains the source of truth.
func (s *Store) persistLocked() {
	if err := s.storage.SaveConversations(s.conversations); err != nil {
		s.logger.Warn("Failed to persist conversations", zap.Error(err))
	}
}
