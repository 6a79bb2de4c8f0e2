package models

import "time"

type MessageType string

const (
	UserMessage      MessageType = "user"
	AssistantMessage MessageType = "ai"
)

// Message represents one turn (user or AI) within a conversation.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// AudioURL points at a session-local audio handle. It is never
	// persisted: the handle is owned by the recording pipeline and does
	// not survive a restart.
	AudioURL string `json:"-"`

	// Processing carries the analysis payload for messages that went
	// through the backend; nil for messages without one.
	Processing *ProcessingResult `json:"processing_result,omitempty"`

	// IsTyping marks a reply that is still being streamed in. Cleared
	// before the message is considered final; never persisted.
	IsTyping bool `json:"-"`
}

// ProcessingResult is the structured transcript/sentiment/emotion payload
// returned by the analysis backend for one audio submission.
type ProcessingResult struct {
	Transcript           string           `json:"transcript"`
	OriginalTranscript   string           `json:"original_transcript,omitempty"`
	TranscriptConfidence float64          `json:"transcript_confidence"`
	Language             string           `json:"language"`
	LanguageName         string           `json:"language_name,omitempty"`
	IsSouthIndian        bool             `json:"is_south_indian_language,omitempty"`
	Sentiment            string           `json:"sentiment"`
	SentimentConfidence  float64          `json:"sentiment_confidence"`
	SentimentScores      SentimentScores  `json:"sentiment_scores"`
	SentimentMethod      string           `json:"sentiment_method,omitempty"`
	ProcessingTime       float64          `json:"processing_time"`
	Emotions             *EmotionAnalysis `json:"emotions,omitempty"`
}

type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// EmotionAnalysis is the fine-grained emotion payload, present only when
// the backend's emotion model ran.
type EmotionAnalysis struct {
	PrimaryEmotion string             `json:"primary_emotion"`
	EmotionScores  map[string]float64 `json:"emotion_scores,omitempty"`
	Confidence     float64            `json:"confidence"`
	Category       string             `json:"category"`  // positive, negative, neutral
	Intensity      string             `json:"intensity"` // low, medium, high
	TopEmotions    []EmotionScore     `json:"top_emotions,omitempty"`
}

type EmotionScore struct {
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
}

// Conversation is a titled, ordered collection of messages with derived
// emotional aggregates.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// EmotionalSummary is recomputed in full from Messages on every
	// append or update; nil when no message carries analysis data.
	EmotionalSummary *EmotionalSummary `json:"emotional_summary,omitempty"`
}

// EmotionalSummary is the per-conversation derived aggregate.
type EmotionalSummary struct {
	DominantEmotion     string         `json:"dominant_emotion"`
	AverageSentiment    float64        `json:"average_sentiment"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
}

// EmotionalInsight is the per-day aggregate across all conversations in a
// trailing window. Computed on demand, never stored.
type EmotionalInsight struct {
	Date              string         `json:"date"` // YYYY-MM-DD
	DominantEmotion   string         `json:"dominant_emotion"`
	SentimentScore    float64        `json:"sentiment_score"`
	ConversationCount int            `json:"conversation_count"`
	EmotionBreakdown  map[string]int `json:"emotion_breakdown"`
}

// Preferences holds user-facing settings persisted separately from the
// conversation list.
type Preferences struct {
	Theme        string  `json:"theme"`
	Personality  string  `json:"personality"`
	VoiceEnabled bool    `json:"voice_enabled"`
	VoiceRate    float64 `json:"voice_rate"`
	VoicePitch   float64 `json:"voice_pitch"`
}

// EmotionRecord is one entry in the rolling emotion history.
type EmotionRecord struct {
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}
