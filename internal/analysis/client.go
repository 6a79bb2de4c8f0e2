// Package analysis is the HTTP client for the VoiceInsight analysis
// backend: audio transcription, sentiment and emotion inference.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaenox/voiceinsight/internal/models"
	"go.uber.org/zap"
)

// ClientConfig configures the analysis client.
type ClientConfig struct {
	BaseURL string        // e.g. "https://api.example.com"
	Timeout time.Duration // HTTP request timeout
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL: "http://localhost:8000",
		Timeout: 120 * time.Second,
	}
}

// supportedExtensions mirrors the backend's accepted upload formats.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".webm": true,
	".m4a":  true,
	".flac": true,
}

type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg = DefaultClientConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// ProcessAudioOptions selects the transcription language. AutoDetect lets
// the backend pick; Language pins a specific code.
type ProcessAudioOptions struct {
	Language   string
	AutoDetect bool
}

// ProcessAudio uploads one audio recording and returns the combined
// transcript/sentiment/emotion payload.
func (c *Client) ProcessAudio(ctx context.Context, filename string, audio io.Reader, opts ProcessAudioOptions) (*models.ProcessingResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	query := url.Values{}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	query.Set("auto_detect", fmt.Sprintf("%t", opts.AutoDetect))

	endpoint := c.config.BaseURL + "/api/process-audio?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result models.ProcessingResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SentimentResult is the standalone text-analysis payload.
type SentimentResult struct {
	Sentiment    string                  `json:"sentiment"`
	Confidence   float64                 `json:"confidence"`
	Scores       models.SentimentScores  `json:"scores"`
	Language     string                  `json:"language,omitempty"`
	LanguageName string                  `json:"language_name,omitempty"`
	Method       string                  `json:"method,omitempty"`
	Emotions     *models.EmotionAnalysis `json:"emotions,omitempty"`
}

// AnalyzeSentiment runs sentiment/emotion inference on raw text.
func (c *Client) AnalyzeSentiment(ctx context.Context, text, language string) (*SentimentResult, error) {
	payload := map[string]string{"text": text}
	if language != "" {
		payload["language"] = language
	}
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/analyze-sentiment", payload)
	if err != nil {
		return nil, err
	}
	var result SentimentResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LanguageDetection is the backend's language identification payload.
type LanguageDetection struct {
	DetectedLanguage string             `json:"detected_language"`
	Confidence       float64            `json:"confidence"`
	LanguageName     string             `json:"language_name"`
	IsSouthIndian    bool               `json:"is_south_indian"`
	TopLanguages     map[string]float64 `json:"top_languages"`
}

// DetectLanguage uploads a short audio sample for language identification.
func (c *Client) DetectLanguage(ctx context.Context, filename string, audio io.Reader) (*LanguageDetection, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/detect-language", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result LanguageDetection
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SupportedLanguages fetches the backend's language support matrix.
func (c *Client) SupportedLanguages(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/api/supported-languages")
}

// SupportedEmotions fetches the emotion label set the backend can produce.
func (c *Client) SupportedEmotions(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/api/supported-emotions")
}

// ModelInfo fetches backend model metadata.
func (c *Client) ModelInfo(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, "/api/model-info")
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	var status struct {
		Status string `json:"status"`
	}
	return c.do(req, &status)
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var result map[string]any
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
