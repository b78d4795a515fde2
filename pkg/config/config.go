package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Cache        CacheConfig
	Availability AvailabilityConfig
	Stripe       StripeConfig
	Meet         MeetConfig
	Kafka        KafkaConfig
	Tracing      TracingConfig
	RateLimit    RateLimitConfig
	Jobs         JobsConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	AutoMigrate    bool
	MigrationsDir  string
	MigrationTable string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles Redis-backed read caching.
type CacheConfig struct {
	Enabled         bool
	AvailabilityTTL time.Duration
	TutorListTTL    time.Duration
}

// AvailabilityConfig tunes slot generation for course availability.
type AvailabilityConfig struct {
	HorizonDays         int
	SlotDurationMinutes int
}

// StripeConfig carries card processing and Connect onboarding settings.
type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	WebhookTolerance  time.Duration
	Currency          string
	DefaultAmount     int64
	ConnectCountry    string
	ConnectRefreshURL string
	ConnectReturnURL  string
}

// MeetConfig configures the Google Calendar client used for meeting links.
type MeetConfig struct {
	Enabled     bool
	CalendarID  string
	AccessToken string
	Timeout     time.Duration
}

// KafkaConfig configures outbox publishing.
type KafkaConfig struct {
	Brokers      []string
	PollInterval time.Duration
	BatchSize    int
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRatio  float64
}

// RateLimitConfig bounds booking and payment calls per client.
type RateLimitConfig struct {
	Enabled  bool
	Limit    int
	Window   time.Duration
	FailOpen bool
}

// JobsConfig sizes the background refund queue.
type JobsConfig struct {
	RefundWorkers    int
	RefundRetries    int
	RefundRetryDelay time.Duration
	RefundSweep      time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),
		MigrationsDir:  v.GetString("DB_MIGRATIONS_DIR"),
		MigrationTable: v.GetString("DB_MIGRATIONS_TABLE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		AvailabilityTTL: parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), time.Minute),
		TutorListTTL:    parseDuration(v.GetString("TUTOR_LIST_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Availability = AvailabilityConfig{
		HorizonDays:         v.GetInt("AVAILABILITY_HORIZON_DAYS"),
		SlotDurationMinutes: v.GetInt("SLOT_DURATION_MINUTES"),
	}

	cfg.Stripe = StripeConfig{
		SecretKey:         v.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret:     v.GetString("STRIPE_WEBHOOK_SECRET"),
		WebhookTolerance:  parseDuration(v.GetString("STRIPE_WEBHOOK_TOLERANCE"), 5*time.Minute),
		Currency:          v.GetString("STRIPE_CURRENCY"),
		DefaultAmount:     v.GetInt64("STRIPE_DEFAULT_AMOUNT"),
		ConnectCountry:    v.GetString("STRIPE_CONNECT_COUNTRY"),
		ConnectRefreshURL: v.GetString("STRIPE_CONNECT_REFRESH_URL"),
		ConnectReturnURL:  v.GetString("STRIPE_CONNECT_RETURN_URL"),
	}

	cfg.Meet = MeetConfig{
		Enabled:     v.GetBool("ENABLE_GOOGLE_MEET"),
		CalendarID:  v.GetString("GOOGLE_CALENDAR_ID"),
		AccessToken: v.GetString("GOOGLE_ACCESS_TOKEN"),
		Timeout:     parseDuration(v.GetString("GOOGLE_MEET_TIMEOUT"), 10*time.Second),
	}

	cfg.Kafka = KafkaConfig{
		Brokers:      splitAndTrim(v.GetString("KAFKA_BROKERS")),
		PollInterval: parseDuration(v.GetString("KAFKA_POLL_INTERVAL"), 2*time.Second),
		BatchSize:    v.GetInt("KAFKA_BATCH_SIZE"),
	}

	sampleRatio := v.GetFloat64("OTEL_SAMPLING_RATIO")
	if sampleRatio < 0 || sampleRatio > 1 {
		sampleRatio = 1
	}
	cfg.Tracing = TracingConfig{
		Enabled:      v.GetBool("OTEL_ENABLED"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SampleRatio:  sampleRatio,
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:  v.GetBool("ENABLE_RATE_LIMIT"),
		Limit:    v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		FailOpen: v.GetBool("RATE_LIMIT_FAIL_OPEN"),
	}

	cfg.Jobs = JobsConfig{
		RefundWorkers:    v.GetInt("REFUND_WORKER_CONCURRENCY"),
		RefundRetries:    v.GetInt("REFUND_WORKER_RETRIES"),
		RefundRetryDelay: parseDuration(v.GetString("REFUND_RETRY_DELAY"), 5*time.Second),
		RefundSweep:      parseDuration(v.GetString("REFUND_SWEEP_INTERVAL"), time.Minute),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured marketplace timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Ho_Chi_Minh")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutor_marketplace")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("DB_MIGRATIONS_TABLE", "goose_db_version")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "tutor-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "1m")
	v.SetDefault("TUTOR_LIST_CACHE_TTL", "5m")

	v.SetDefault("AVAILABILITY_HORIZON_DAYS", 7)
	v.SetDefault("SLOT_DURATION_MINUTES", 50)

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_WEBHOOK_TOLERANCE", "5m")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("STRIPE_DEFAULT_AMOUNT", 50)
	v.SetDefault("STRIPE_CONNECT_COUNTRY", "US")
	v.SetDefault("STRIPE_CONNECT_REFRESH_URL", "http://localhost:3000/tutor/payouts/refresh")
	v.SetDefault("STRIPE_CONNECT_RETURN_URL", "http://localhost:3000/tutor/payouts/complete")

	v.SetDefault("ENABLE_GOOGLE_MEET", false)
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("GOOGLE_ACCESS_TOKEN", "")
	v.SetDefault("GOOGLE_MEET_TIMEOUT", "10s")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_POLL_INTERVAL", "2s")
	v.SetDefault("KAFKA_BATCH_SIZE", 50)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "tutor-api")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)

	v.SetDefault("ENABLE_RATE_LIMIT", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 30)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_FAIL_OPEN", true)

	v.SetDefault("REFUND_WORKER_CONCURRENCY", 1)
	v.SetDefault("REFUND_WORKER_RETRIES", 3)
	v.SetDefault("REFUND_RETRY_DELAY", "5s")
	v.SetDefault("REFUND_SWEEP_INTERVAL", "1m")
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
