package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Analysis Analysis `mapstructure:"analysis"`
	OpenAI   OpenAI   `mapstructure:"openai"`
	Storage  Storage  `mapstructure:"storage"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

type Analysis struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Language       string `mapstructure:"language"`
	AutoDetect     bool   `mapstructure:"auto_detect"`
}

type OpenAI struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Persona     string  `mapstructure:"persona"`
}

type Storage struct {
	Backend  string   `mapstructure:"backend"` // file, postgres, memory
	StateDir string   `mapstructure:"state_dir"`
	Database Database `mapstructure:"database"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type Metrics struct {
	Enabled              bool   `mapstructure:"enabled"`
	Endpoint             string `mapstructure:"endpoint"`
	Source               string `mapstructure:"source"`
	FlushIntervalSeconds int    `mapstructure:"flush_interval_seconds"`
	BatchSize            int    `mapstructure:"batch_size"`
	QueueCap             int    `mapstructure:"queue_cap"`
}

func parseDatabaseURL(dbURL string) (Database, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return Database{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	return Database{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("analysis.base_url", "http://localhost:8000")
	v.SetDefault("analysis.timeout_seconds", 120)
	v.SetDefault("analysis.auto_detect", true)
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.persona", "supportive")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.state_dir", ".voiceinsight")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.user", "postgres")
	v.SetDefault("storage.database.sslmode", "disable")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.source", "voiceinsight-cli")
	v.SetDefault("metrics.flush_interval_seconds", 30)
	v.SetDefault("metrics.batch_size", 10)
	v.SetDefault("metrics.queue_cap", 100)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Storage.Database = dbConfig
		config.Storage.Backend = "postgres"
	}

	// Get other environment variables
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if baseURL := v.GetString("VOICEINSIGHT_API_URL"); baseURL != "" {
		config.Analysis.BaseURL = baseURL
	}

	return &config, nil
}
