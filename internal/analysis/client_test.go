package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{BaseURL: server.URL}, zap.NewNop())
}

func TestProcessAudio(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process-audio" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("auto_detect"); got != "true" {
			t.Errorf("auto_detect = %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "ta-IN" {
			t.Errorf("language = %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			file.Close()
			if header.Filename != "clip.wav" {
				t.Errorf("filename = %q", header.Filename)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"transcript": "I had a really good day",
			"transcript_confidence": 0.94,
			"language": "ta-IN",
			"sentiment": "positive",
			"sentiment_confidence": 0.9,
			"sentiment_scores": {"positive": 0.9, "negative": 0.02, "neutral": 0.08},
			"processing_time": 1.2,
			"emotions": {
				"primary_emotion": "happy",
				"confidence": 0.85,
				"category": "positive",
				"intensity": "high",
				"top_emotions": [{"emotion": "happy", "score": 0.85}]
			}
		}`))
	}))

	result, err := client.ProcessAudio(context.Background(), "clip.wav", strings.NewReader("fake audio"), ProcessAudioOptions{
		Language:   "ta-IN",
		AutoDetect: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Transcript != "I had a really good day" {
		t.Fatalf("Transcript=%q", result.Transcript)
	}
	if result.Sentiment != "positive" || result.SentimentScores.Positive != 0.9 {
		t.Fatalf("sentiment payload = %+v", result)
	}
	if result.Emotions == nil || result.Emotions.PrimaryEmotion != "happy" || result.Emotions.Intensity != "high" {
		t.Fatalf("emotions payload = %+v", result.Emotions)
	}
}

func TestProcessAudio_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://unused"}, zap.NewNop())
	_, err := client.ProcessAudio(context.Background(), "notes.txt", strings.NewReader("x"), ProcessAudioOptions{})
	if err == nil || !strings.Contains(err.Error(), "unsupported audio format") {
		t.Fatalf("err=%v", err)
	}
}

func TestProcessAudio_ServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))

	_, err := client.ProcessAudio(context.Background(), "clip.wav", strings.NewReader("x"), ProcessAudioOptions{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err=%v", err)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analyze-sentiment" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sentiment": "negative", "confidence": 0.77, "scores": {"negative": 0.77}}`))
	}))

	result, err := client.AnalyzeSentiment(context.Background(), "this is awful", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Sentiment != "negative" || result.Confidence != 0.77 {
		t.Fatalf("result = %+v", result)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status": "healthy"}`))
	}))

	if err := client.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
}
