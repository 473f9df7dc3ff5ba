package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	LLM          LLMConfig
	Scoring      ScoringConfig
	Gamification GamificationConfig
	Reports      ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LLMConfig selects and reaches the text-completion provider.
type LLMConfig struct {
	Provider   string
	Endpoint   string
	APIKey     string
	Deployment string
	Timeout    time.Duration
}

// ScoringConfig controls normalization policy and result caching.
type ScoringConfig struct {
	// Strict surfaces invalid metric maxima as errors instead of scoring them as zero.
	Strict         bool
	ProgressTTL    time.Duration
	InsightTTL     time.Duration
	DefaultWeights string
}

// GamificationConfig tunes XP awards and notification delivery.
type GamificationConfig struct {
	XPPerPrediction int
	XPPerWhatIf     int
	XPPerSubjects   int
	NotifyWorkers   int
	NotifyRetries   int
}

// ReportsConfig configures asynchronous cohort report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	DistributionTTL   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.LLM = LLMConfig{
		Provider:   strings.ToLower(v.GetString("LLM_PROVIDER")),
		Endpoint:   v.GetString("LLM_ENDPOINT"),
		APIKey:     v.GetString("LLM_API_KEY"),
		Deployment: v.GetString("LLM_DEPLOYMENT"),
		Timeout:    parseDuration(v.GetString("LLM_TIMEOUT"), 30*time.Second),
	}

	strict := cfg.Env != EnvProduction
	if v.IsSet("SCORING_STRICT") {
		strict = v.GetBool("SCORING_STRICT")
	}
	cfg.Scoring = ScoringConfig{
		Strict:         strict,
		ProgressTTL:    parseDuration(v.GetString("PROGRESS_CACHE_TTL"), 5*time.Minute),
		InsightTTL:     parseDuration(v.GetString("INSIGHT_CACHE_TTL"), time.Hour),
		DefaultWeights: v.GetString("SCORING_DEFAULT_WEIGHTS"),
	}

	cfg.Gamification = GamificationConfig{
		XPPerPrediction: v.GetInt("XP_PER_PREDICTION"),
		XPPerWhatIf:     v.GetInt("XP_PER_WHAT_IF"),
		XPPerSubjects:   v.GetInt("XP_PER_SUBJECTS_UPDATE"),
		NotifyWorkers:   v.GetInt("NOTIFY_WORKERS"),
		NotifyRetries:   v.GetInt("NOTIFY_RETRIES"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		DistributionTTL:   parseDuration(v.GetString("RISK_DISTRIBUTION_CACHE_TTL"), 10*time.Minute),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edupredict")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "720h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LLM_PROVIDER", "disabled")
	v.SetDefault("LLM_ENDPOINT", "")
	v.SetDefault("LLM_DEPLOYMENT", "gpt-3.5-turbo")
	v.SetDefault("LLM_TIMEOUT", "30s")

	v.SetDefault("PROGRESS_CACHE_TTL", "5m")
	v.SetDefault("INSIGHT_CACHE_TTL", "1h")
	v.SetDefault("SCORING_DEFAULT_WEIGHTS", "current")

	v.SetDefault("XP_PER_PREDICTION", 50)
	v.SetDefault("XP_PER_WHAT_IF", 25)
	v.SetDefault("XP_PER_SUBJECTS_UPDATE", 100)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("RISK_DISTRIBUTION_CACHE_TTL", "10m")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
}

// NewViper returns a viper instance with environment binding and defaults,
// for callers that layer their own flags on top.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)
	return v
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
