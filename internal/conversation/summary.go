package conversation

import (
	"sort"
	"time"

	"github.com/xaenox/voiceinsight/internal/models"
)

// sentimentPolarity maps a sentiment label to its numeric sign.
func sentimentPolarity(label string) float64 {
	switch label {
	case "positive":
		return 1
	case "negative":
		return -1
	default:
		return 0
	}
}

// emotionTally accumulates per-label counts while remembering the order in
// which labels were first seen, so that ties on count resolve to the label
// encountered first.
type emotionTally struct {
	counts map[string]int
	order  []string
}

func newEmotionTally() *emotionTally {
	return &emotionTally{counts: make(map[string]int)}
}

func (t *emotionTally) add(label string, n int) {
	if _, seen := t.counts[label]; !seen {
		t.order = append(t.order, label)
	}
	t.counts[label] += n
}

func (t *emotionTally) dominant() string {
	best := ""
	bestCount := 0
	for _, label := range t.order {
		if t.counts[label] > bestCount {
			best = label
			bestCount = t.counts[label]
		}
	}
	return best
}

// computeSummary derives the emotional aggregate from a message list. It is
// a full recompute every time: the summary is never patched incrementally.
// Returns nil when no message carries analysis data.
func computeSummary(messages []*models.Message) *models.EmotionalSummary {
	tally := newEmotionTally()
	sentimentSum := 0.0
	sentimentCount := 0
	analyzed := false

	for _, msg := range messages {
		if msg.Processing == nil {
			continue
		}
		if msg.Processing.Emotions != nil {
			tally.add(msg.Processing.Emotions.PrimaryEmotion, 1)
			analyzed = true
		}
		if msg.Processing.Sentiment != "" {
			sentimentSum += sentimentPolarity(msg.Processing.Sentiment) * msg.Processing.SentimentConfidence
			sentimentCount++
			analyzed = true
		}
	}

	if !analyzed {
		return nil
	}

	average := 0.0
	if sentimentCount > 0 {
		average = sentimentSum / float64(sentimentCount)
	}

	return &models.EmotionalSummary{
		DominantEmotion:     tally.dominant(),
		AverageSentiment:    average,
		EmotionDistribution: tally.counts,
	}
}

// dailyInsights aggregates conversation summaries by UTC calendar day of
// UpdatedAt over the trailing window, ascending by date.
func dailyInsights(conversations []*models.Conversation, days int, now time.Time) []models.EmotionalInsight {
	cutoff := now.AddDate(0, 0, -days)

	type dayAccum struct {
		tally        *emotionTally
		sentimentSum float64
		count        int
	}
	byDay := make(map[string]*dayAccum)

	for _, conv := range conversations {
		if conv.EmotionalSummary == nil {
			continue
		}
		if !conv.UpdatedAt.After(cutoff) {
			continue
		}
		day := conv.UpdatedAt.UTC().Format("2006-01-02")
		accum, ok := byDay[day]
		if !ok {
			accum = &dayAccum{tally: newEmotionTally()}
			byDay[day] = accum
		}
		for _, label := range sortedLabels(conv.EmotionalSummary.EmotionDistribution) {
			accum.tally.add(label, conv.EmotionalSummary.EmotionDistribution[label])
		}
		accum.sentimentSum += conv.EmotionalSummary.AverageSentiment
		accum.count++
	}

	insights := make([]models.EmotionalInsight, 0, len(byDay))
	for day, accum := range byDay {
		insights = append(insights, models.EmotionalInsight{
			Date:              day,
			DominantEmotion:   accum.tally.dominant(),
			SentimentScore:    accum.sentimentSum / float64(accum.count),
			ConversationCount: accum.count,
			EmotionBreakdown:  accum.tally.counts,
		})
	}

	sort.Slice(insights, func(i, j int) bool {
		return insights[i].Date < insights[j].Date
	})
	return insights
}

// sortedLabels gives a stable iteration order over a distribution map so
// that tie-breaking does not depend on map ordering.
func sortedLabels(distribution map[string]int) []string {
	labels := make([]string, 0, len(distribution))
	for label := range distribution {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
