// Package companion generates empathetic AI replies to analyzed user
// messages via the OpenAI chat completion API.
package companion

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/voiceinsight/internal/conversation"
	"go.uber.org/zap"
)

// historyWindow is how many trailing conversation turns are sent along with
// each completion request.
const historyWindow = 10

// personaPrompts are the system prompts per selectable personality.
var personaPrompts = map[string]string{
	"supportive": "You are a warm, supportive companion. The user is speaking to you " +
		"by voice and their words arrive with sentiment and emotion analysis. " +
		"Respond with empathy in two to three sentences, acknowledging how they feel.",
	"coach": "You are an encouraging wellness coach. Keep replies short, practical " +
		"and forward-looking. Suggest one small concrete step when it fits.",
	"listener": "You are a calm, attentive listener. Reflect back what the user " +
		"expressed without judging or advising unless asked.",
}

const defaultPersona = "supportive"

// fallbackReplies are the canned per-sentiment responses used when the
// completion call fails.
var fallbackReplies = map[string]string{
	"positive": "That sounds wonderful! I'm really glad to hear things are going well for you.",
	"negative": "I'm sorry you're going through this. I'm here, and it's okay to feel the way you feel.",
	"neutral":  "Thanks for sharing that with me. Tell me more about what's on your mind.",
}

type Companion struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	persona     string
	logger      *zap.Logger
}

func New(apiKey, model string, maxTokens int, temperature float64, persona string, logger *zap.Logger) *Companion {
	if _, ok := personaPrompts[persona]; !ok {
		persona = defaultPersona
	}
	return &Companion{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		persona:     persona,
		logger:      logger,
	}
}

// Reply generates a response to the latest transcript given the trailing
// conversation history and the detected sentiment label. It never fails:
// completion errors fall back to a canned per-sentiment reply.
func (c *Companion) Reply(ctx context.Context, history []conversation.Turn, transcript, sentiment string) string {
	messages := buildMessages(personaPrompts[c.persona], history, transcript)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err != nil {
		c.logger.Error("Failed to get completion, using fallback",
			zap.Error(err),
			zap.String("sentiment", sentiment))
		return FallbackReply(sentiment)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("Completion returned no choices, using fallback",
			zap.String("sentiment", sentiment))
		return FallbackReply(sentiment)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// buildMessages assembles the system prompt, the last historyWindow turns
// and the latest transcript into a completion request body.
func buildMessages(systemPrompt string, history []conversation.Turn, transcript string) []openai.ChatCompletionMessage {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == "user" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: transcript,
	})
	return messages
}

// FallbackReply picks the canned response for a sentiment label. Unknown
// labels get the neutral reply.
func FallbackReply(sentiment string) string {
	if reply, ok := fallbackReplies[sentiment]; ok {
		return reply
	}
	return fallbackReplies["neutral"]
}
