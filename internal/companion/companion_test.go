package companion

import (
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/voiceinsight/internal/conversation"
)

func TestBuildMessages_TrimsHistoryWindow(t *testing.T) {
	t.Parallel()

	history := make([]conversation.Turn, 0, 25)
	for i := 0; i < 25; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, conversation.Turn{Role: role, Content: "turn"})
	}

	messages := buildMessages("system prompt", history, "latest words")

	// system + trailing window + latest transcript
	if len(messages) != historyWindow+2 {
		t.Fatalf("got %d messages", len(messages))
	}
	if messages[0].Role != openai.ChatMessageRoleSystem || messages[0].Content != "system prompt" {
		t.Fatalf("first message = %+v", messages[0])
	}
	last := messages[len(messages)-1]
	if last.Role != openai.ChatMessageRoleUser || last.Content != "latest words" {
		t.Fatalf("last message = %+v", last)
	}
}

func TestBuildMessages_RoleMapping(t *testing.T) {
	t.Parallel()

	history := []conversation.Turn{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	}
	messages := buildMessages("p", history, "next")

	if messages[1].Role != openai.ChatMessageRoleUser {
		t.Fatalf("user turn mapped to %q", messages[1].Role)
	}
	if messages[2].Role != openai.ChatMessageRoleAssistant {
		t.Fatalf("assistant turn mapped to %q", messages[2].Role)
	}
}

func TestFallbackReply_PerSentiment(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"positive": "glad",
		"negative": "sorry",
		"neutral":  "sharing",
		"unknown":  "sharing", // falls back to neutral
		"":         "sharing",
	}
	for sentiment, want := range cases {
		reply := FallbackReply(sentiment)
		if !strings.Contains(strings.ToLower(reply), want) {
			t.Fatalf("FallbackReply(%q) = %q", sentiment, reply)
		}
	}
}

func TestNew_UnknownPersonaFallsBack(t *testing.T) {
	t.Parallel()

	c := New("key", "gpt-3.5-turbo", 100, 0.7, "nonexistent", nil)
	if c.persona != defaultPersona {
		t.Fatalf("persona = %q", c.persona)
	}
}
