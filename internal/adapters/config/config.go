package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"fincopilot/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	MarketData    MarketDataConfig
	News          NewsConfig
	Auth          AuthConfig
	Agents        AgentsConfig
	RAG           RAGConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"fincopilot"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Port         int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"fincopilot"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"fincopilot"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	Model           string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	Timeout         time.Duration `envconfig:"AI_TIMEOUT" default:"45s"`
	RequestsPerMin  int           `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
}

type MarketDataConfig struct {
	BaseURL        string        `envconfig:"MARKET_DATA_BASE_URL" default:"https://query1.finance.yahoo.com"`
	Timeout        time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"10s"`
	PriceTTL       time.Duration `envconfig:"MARKET_DATA_PRICE_TTL" default:"60s"`
	FundamentalTTL time.Duration `envconfig:"MARKET_DATA_FUNDAMENTAL_TTL" default:"5m"`
}

type NewsConfig struct {
	Timeout  time.Duration `envconfig:"NEWS_TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"NEWS_CACHE_TTL" default:"5m"`
}

type AuthConfig struct {
	JWTSecret   string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	TokenExpiry time.Duration `envconfig:"JWT_TOKEN_EXPIRY" default:"24h"`
}

// AgentsConfig tunes the orchestration layer.
type AgentsConfig struct {
	MaxHoldingsAnalyzed int           `envconfig:"AGENTS_MAX_HOLDINGS" default:"5"`
	AnalysisTimeout     time.Duration `envconfig:"AGENTS_ANALYSIS_TIMEOUT" default:"3m"`
	MemoryLimit         int           `envconfig:"AGENTS_MEMORY_LIMIT" default:"100"`
	MemoryKeep          int           `envconfig:"AGENTS_MEMORY_KEEP" default:"50"`
}

type RAGConfig struct {
	Enabled        bool   `envconfig:"RAG_ENABLED" default:"false"`
	EmbeddingModel string `envconfig:"RAG_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	TopK           int    `envconfig:"RAG_TOP_K" default:"3"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
