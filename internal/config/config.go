package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Mail      MailConfig
	Chatbot   ChatbotConfig
	Scheduler SchedulerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MailConfig configures outbound notification mail.
type MailConfig struct {
	Enabled    bool
	From       string
	PortalURL  string
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	TLSMode    string
	SkipVerify bool
}

// ChatbotConfig configures the assistant proxy.
type ChatbotConfig struct {
	Endpoint           string
	APIKey             string
	Model              string
	SystemPrompt       string
	TimeoutSeconds     int
	HistoryTTLMinutes  int
	MaxHistoryMessages int
	RequestsPerMinute  int
	Burst              int
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	Enabled          bool
	OverdueSchedule  string
	OverdueAfterDays int
	Timezone         string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			Enabled:    getEnvAsBool("MAIL_ENABLED", false),
			From:       getEnv("MAIL_FROM", "noreply@example.com"),
			PortalURL:  getEnv("PORTAL_URL", "http://localhost:8080"),
			SMTPHost:   getEnv("SMTP_HOST", "localhost"),
			SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:   os.Getenv("SMTP_USER"),
			SMTPPass:   os.Getenv("SMTP_PASSWORD"),
			TLSMode:    getEnv("SMTP_TLS_MODE", "starttls"),
			SkipVerify: getEnvAsBool("SMTP_SKIP_VERIFY", false),
		},
		Chatbot: ChatbotConfig{
			Endpoint:           getEnv("CHATBOT_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			APIKey:             os.Getenv("CHATBOT_API_KEY"),
			Model:              getEnv("CHATBOT_MODEL", "gpt-4o-mini"),
			SystemPrompt:       getEnv("CHATBOT_SYSTEM_PROMPT", defaultSystemPrompt),
			TimeoutSeconds:     getEnvAsInt("CHATBOT_TIMEOUT_SECONDS", 30),
			HistoryTTLMinutes:  getEnvAsInt("CHATBOT_HISTORY_TTL_MINUTES", 0),
			MaxHistoryMessages: getEnvAsInt("CHATBOT_MAX_HISTORY_MESSAGES", 0),
			RequestsPerMinute:  getEnvAsInt("CHATBOT_REQUESTS_PER_MINUTE", 20),
			Burst:              getEnvAsInt("CHATBOT_BURST", 5),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvAsBool("SCHEDULER_ENABLED", true),
			OverdueSchedule:  getEnv("SCHEDULER_OVERDUE_CRON", "0 9 * * *"),
			OverdueAfterDays: getEnvAsInt("SCHEDULER_OVERDUE_AFTER_DAYS", 7),
			Timezone:         getEnv("SCHEDULER_TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultSystemPrompt = "You are a helpful customer support assistant. " +
	"Answer questions about submitting and tracking support tickets concisely."

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.App.Env != "development" && c.App.Env != "test" {
			return fmt.Errorf("AUTH_JWT_SECRET is required in %s", c.App.Env)
		}
		c.Auth.JWTSecret = "dev-secret"
	}
	if c.Mail.Enabled && c.Mail.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when MAIL_ENABLED is set")
	}
	switch c.Mail.TLSMode {
	case "none", "starttls", "smtps":
	default:
		return fmt.Errorf("invalid SMTP_TLS_MODE %q", c.Mail.TLSMode)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Timeout returns the upstream call timeout.
func (c ChatbotConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HistoryTTL returns how long a conversation is kept; zero keeps it until cleared.
func (c ChatbotConfig) HistoryTTL() time.Duration {
	if c.HistoryTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(c.HistoryTTLMinutes) * time.Minute
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
