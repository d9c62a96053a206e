package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Tutor    TutorConfig
	Cache    CacheConfig
	Nats     NatsConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name        string
	Environment string
	LogFilePath string
}

type DatabaseConfig struct {
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // "ollama", "openai" or "mock"
	LLMModel          string
	LLMBaseURL        string
	LLMApiKey         string
}

type TutorConfig struct {
	InactivityWindow        time.Duration
	MaxMessagesPerChat      int
	AnalysisThreshold       int
	RetrievalLimit          int
	RetrievalScoreThreshold float64
	DevMode                 bool
	AnalysisAsync           bool
}

type CacheConfig struct {
	RedisURL string // empty disables the shared tier
	L1TTL    time.Duration
	L2TTL    time.Duration
}

type NatsConfig struct {
	URL     string // empty disables event publishing
	Stream  string
	Subject string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ai-tutor"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "tutor.log"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMApiKey:         getEnv("LLM_API_KEY", ""),
		},
		Tutor: TutorConfig{
			InactivityWindow:        getEnvAsDuration("TUTOR_INACTIVITY_WINDOW", 5*time.Minute),
			MaxMessagesPerChat:      getEnvAsInt("TUTOR_MAX_MESSAGES_PER_CHAT", 50),
			AnalysisThreshold:       getEnvAsInt("TUTOR_ANALYSIS_THRESHOLD", 6),
			RetrievalLimit:          getEnvAsInt("TUTOR_RETRIEVAL_LIMIT", 5),
			RetrievalScoreThreshold: getEnvAsFloat("TUTOR_RETRIEVAL_SCORE_THRESHOLD", 0.5),
			DevMode:                 getEnvAsBool("TUTOR_DEV_MODE", false),
			AnalysisAsync:           getEnvAsBool("TUTOR_ANALYSIS_ASYNC", false),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			L1TTL:    getEnvAsDuration("CACHE_L1_TTL", 5*time.Minute),
			L2TTL:    getEnvAsDuration("CACHE_L2_TTL", 30*time.Minute),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", ""),
			Stream:  getEnv("NATS_TUTOR_STREAM", "TUTOR"),
			Subject: getEnv("NATS_TUTOR_SUBJECT", "tutor.events"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-tutor"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
