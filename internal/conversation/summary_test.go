package conversation

import (
	"reflect"
	"testing"
	"time"

	"github.com/xaenox/voiceinsight/internal/models"
)

func emotionMessage(emotion string) *models.Message {
	return &models.Message{
		Type: models.UserMessage,
		Processing: &models.ProcessingResult{
			Emotions: &models.EmotionAnalysis{PrimaryEmotion: emotion},
		},
	}
}

func sentimentMessage(sentiment string, confidence float64) *models.Message {
	return &models.Message{
		Type: models.UserMessage,
		Processing: &models.ProcessingResult{
			Sentiment:           sentiment,
			SentimentConfidence: confidence,
		},
	}
}

func TestComputeSummary_DominantEmotion(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		emotionMessage("happy"),
		emotionMessage("happy"),
		emotionMessage("sad"),
	}

	summary := computeSummary(messages)
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if summary.DominantEmotion != "happy" {
		t.Fatalf("DominantEmotion=%q", summary.DominantEmotion)
	}
	want := map[string]int{"happy": 2, "sad": 1}
	if !reflect.DeepEqual(summary.EmotionDistribution, want) {
		t.Fatalf("EmotionDistribution=%v", summary.EmotionDistribution)
	}
}

func TestComputeSummary_AverageSentiment(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		sentimentMessage("positive", 0.8),
		sentimentMessage("negative", 0.4),
	}

	summary := computeSummary(messages)
	if summary == nil {
		t.Fatal("expected a summary")
	}
	// (1*0.8 + (-1)*0.4) / 2
	if got, want := summary.AverageSentiment, 0.2; !floatEqual(got, want) {
		t.Fatalf("AverageSentiment=%v want %v", got, want)
	}
}

func TestComputeSummary_NeutralContributesZero(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		sentimentMessage("positive", 0.6),
		sentimentMessage("neutral", 0.9),
	}

	summary := computeSummary(messages)
	if got, want := summary.AverageSentiment, 0.3; !floatEqual(got, want) {
		t.Fatalf("AverageSentiment=%v want %v", got, want)
	}
}

func TestComputeSummary_NoAnalysisData(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		{Type: models.UserMessage, Content: "hello"},
		{Type: models.AssistantMessage, Content: "hi"},
	}

	if summary := computeSummary(messages); summary != nil {
		t.Fatalf("expected nil summary, got %+v", summary)
	}
}

func TestComputeSummary_Deterministic(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		emotionMessage("calm"),
		emotionMessage("happy"),
		sentimentMessage("positive", 0.5),
	}

	first := computeSummary(messages)
	second := computeSummary(messages)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute drifted: %+v vs %+v", first, second)
	}
}

func TestComputeSummary_TieBreaksFirstSeen(t *testing.T) {
	t.Parallel()

	messages := []*models.Message{
		emotionMessage("sad"),
		emotionMessage("happy"),
		emotionMessage("happy"),
		emotionMessage("sad"),
	}

	summary := computeSummary(messages)
	if summary.DominantEmotion != "sad" {
		t.Fatalf("DominantEmotion=%q, want first-seen label on tie", summary.DominantEmotion)
	}
}

func TestDailyInsights_AggregatesSameDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	conversations := []*models.Conversation{
		{
			UpdatedAt: now.Add(-2 * time.Hour),
			EmotionalSummary: &models.EmotionalSummary{
				DominantEmotion:     "happy",
				AverageSentiment:    0.6,
				EmotionDistribution: map[string]int{"happy": 3},
			},
		},
		{
			UpdatedAt: now.Add(-4 * time.Hour),
			EmotionalSummary: &models.EmotionalSummary{
				DominantEmotion:     "happy",
				AverageSentiment:    0.2,
				EmotionDistribution: map[string]int{"happy": 1},
			},
		},
	}

	insights := dailyInsights(conversations, 7, now)
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}
	day := insights[0]
	if day.Date != "2026-08-28" {
		t.Fatalf("Date=%q", day.Date)
	}
	if day.ConversationCount != 2 {
		t.Fatalf("ConversationCount=%d", day.ConversationCount)
	}
	if day.EmotionBreakdown["happy"] != 4 {
		t.Fatalf("EmotionBreakdown=%v", day.EmotionBreakdown)
	}
	if day.DominantEmotion != "happy" {
		t.Fatalf("DominantEmotion=%q", day.DominantEmotion)
	}
	if got, want := day.SentimentScore, 0.4; !floatEqual(got, want) {
		t.Fatalf("SentimentScore=%v want %v", got, want)
	}
}

func TestDailyInsights_WindowAndOrdering(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	summary := func(emotion string) *models.EmotionalSummary {
		return &models.EmotionalSummary{
			DominantEmotion:     emotion,
			EmotionDistribution: map[string]int{emotion: 1},
		}
	}
	conversations := []*models.Conversation{
		{UpdatedAt: now.AddDate(0, 0, -1), EmotionalSummary: summary("sad")},
		{UpdatedAt: now, EmotionalSummary: summary("happy")},
		// Outside the 7-day window; must be excluded.
		{UpdatedAt: now.AddDate(0, 0, -10), EmotionalSummary: summary("angry")},
	}

	insights := dailyInsights(conversations, 7, now)
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2", len(insights))
	}
	if insights[0].Date >= insights[1].Date {
		t.Fatalf("insights not ascending: %q then %q", insights[0].Date, insights[1].Date)
	}
	for _, insight := range insights {
		if insight.DominantEmotion == "angry" {
			t.Fatal("conversation outside window leaked into insights")
		}
	}
}

func TestDailyInsights_SkipsUnanalyzedConversations(t *testing.T) {
	t.Parallel()

	now := time.Now()
	conversations := []*models.Conversation{
		{UpdatedAt: now},
	}

	if insights := dailyInsights(conversations, 7, now); len(insights) != 0 {
		t.Fatalf("got %d insights, want 0", len(insights))
	}
}

func floatEqual(a, b float64) bool {
	const eps = 1e-9
	diff := a - b
	return diff < eps && diff > -eps
}
