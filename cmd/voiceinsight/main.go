package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xaenox/voiceinsight/internal/analysis"
	"github.com/xaenox/voiceinsight/internal/companion"
	"github.com/xaenox/voiceinsight/internal/conversation"
	"github.com/xaenox/voiceinsight/internal/metrics"
	"github.com/xaenox/voiceinsight/internal/models"
	"github.com/xaenox/voiceinsight/internal/storage"
	"github.com/xaenox/voiceinsight/pkg/config"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	list := flag.Bool("list", false, "list stored conversations")
	exportID := flag.String("export", "", "export the conversation with the given id")
	insights := flag.Int("insights", 0, "show daily emotional insights for the trailing N days")
	language := flag.String("language", "", "pin the transcription language instead of auto-detecting")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Initialize the conversation store
	conversations := conversation.NewStore(store, logger)
	conversations.Init()

	switch {
	case *list:
		listConversations(conversations)
		return
	case *exportID != "":
		exportConversation(conversations, *exportID, logger)
		return
	case *insights > 0:
		showInsights(conversations, *insights)
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: voiceinsight [flags] <audio file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Initialize the analysis client and AI companion
	client := analysis.NewClient(analysis.ClientConfig{
		BaseURL: cfg.Analysis.BaseURL,
		Timeout: time.Duration(cfg.Analysis.TimeoutSeconds) * time.Second,
	}, logger)

	ai := companion.New(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.Persona,
		logger,
	)

	// Initialize telemetry
	var batcher *metrics.Batcher
	if cfg.Metrics.Enabled {
		batcher = metrics.NewBatcher(metrics.BatcherConfig{
			Endpoint:      cfg.Metrics.Endpoint,
			Source:        cfg.Metrics.Source,
			FlushInterval: time.Duration(cfg.Metrics.FlushIntervalSeconds) * time.Second,
			BatchSize:     cfg.Metrics.BatchSize,
			QueueCap:      cfg.Metrics.QueueCap,
		}, logger)
		defer batcher.Close()
	}

	lang := cfg.Analysis.Language
	if *language != "" {
		lang = *language
	}

	ctx := context.Background()
	for _, file := range files {
		if err := processFile(ctx, file, lang, cfg.Analysis.AutoDetect, conversations, client, ai, batcher, logger); err != nil {
			logger.Error("Failed to process audio file", zap.Error(err), zap.String("file", file))
		}
	}
}

func newStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Storage.Database.Host,
			Port:     cfg.Storage.Database.Port,
			User:     cfg.Storage.Database.User,
			Password: cfg.Storage.Database.Password,
			DBName:   cfg.Storage.Database.DBName,
			SSLMode:  cfg.Storage.Database.SSLMode,
		}, logger)
	case "memory":
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	default:
		logger.Info("Using file storage", zap.String("dir", cfg.Storage.StateDir))
		return storage.NewFileStorage(cfg.Storage.StateDir, logger)
	}
}

func processFile(
	ctx context.Context,
	file, language string,
	autoDetect bool,
	conversations *conversation.Store,
	client *analysis.Client,
	ai *companion.Companion,
	batcher *metrics.Batcher,
	logger *zap.Logger,
) error {
	audio, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer audio.Close()

	start := time.Now()
	result, err := client.ProcessAudio(ctx, file, audio, analysis.ProcessAudioOptions{
		Language:   language,
		AutoDetect: autoDetect,
	})
	if err != nil {
		if batcher != nil {
			batcher.Count("audio_processing_errors", nil)
		}
		return err
	}

	if batcher != nil {
		batcher.Timing("audio_processing_time", time.Since(start), map[string]string{
			"language": result.Language,
		})
		batcher.Count("audio_processed", nil)
	}

	if conversations.Current() == nil {
		conversations.Create("")
	}

	history := conversations.History("")

	if _, err := conversations.AddMessage(models.Message{
		Type:       models.UserMessage,
		Content:    result.Transcript,
		AudioURL:   file,
		Processing: result,
	}); err != nil {
		return err
	}

	fmt.Printf("You: %s\n", result.Transcript)
	fmt.Printf("  language: %s  sentiment: %s (%.2f)\n", result.Language, result.Sentiment, result.SentimentConfidence)
	if result.Emotions != nil {
		fmt.Printf("  emotion: %s (%s, %s intensity)\n",
			result.Emotions.PrimaryEmotion, result.Emotions.Category, result.Emotions.Intensity)
	}

	reply := ai.Reply(ctx, history, result.Transcript, result.Sentiment)
	if _, err := conversations.AddMessage(models.Message{
		Type:    models.AssistantMessage,
		Content: reply,
	}); err != nil {
		return err
	}

	fmt.Printf("AI: %s\n\n", reply)
	return nil
}

func listConversations(conversations *conversation.Store) {
	for _, conv := range conversations.Conversations() {
		line := fmt.Sprintf("%s  %s  (%d messages)", conv.ID, conv.Title, len(conv.Messages))
		if conv.EmotionalSummary != nil && conv.EmotionalSummary.DominantEmotion != "" {
			line += fmt.Sprintf("  dominant: %s", conv.EmotionalSummary.DominantEmotion)
		}
		fmt.Println(line)
	}
}

func exportConversation(conversations *conversation.Store, id string, logger *zap.Logger) {
	export, err := conversations.Export(id)
	if err != nil {
		logger.Fatal("Failed to export conversation", zap.Error(err), zap.String("id", id))
	}
	fmt.Println(export)
}

func showInsights(conversations *conversation.Store, days int) {
	for _, insight := range conversations.Insights(days) {
		fmt.Printf("%s  %-12s  sentiment %+.2f  (%d conversations)\n",
			insight.Date, insight.DominantEmotion, insight.SentimentScore, insight.ConversationCount)
	}
}
