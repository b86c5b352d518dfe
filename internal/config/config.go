// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database selection, authentication,
// inference-service access, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultSystemPrompt is the coaching persona seeded as the first message of
// every conversation unless SYSTEM_PROMPT overrides it.
const defaultSystemPrompt = "You are Alari, a compassionate, helpful personal growth coach and " +
	"motivational companion for accomplishing goals. Always answer in a personal, interactive way. " +
	"Always refer to yourself as Alari. Be warm, encouraging, and non-judgmental. " +
	"Knowledge cutoff: October 2025. If unsure, ask clarifying questions."

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	// AllowedOrigins is the origin allowlist. Empty means allow all
	// (CORS_ORIGINS="*" normalizes to empty).
	AllowedOrigins []string
	MaxAge         time.Duration
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store on API responses; user data
	// should not end up in shared caches.
	NoStore bool
}

// InferenceConfig defines access to the model inference service.
type InferenceConfig struct {
	ServiceURL    string        // INFERENCE_SERVICE_URL
	APIKey        string        // INFERENCE_API_KEY, sent as X-API-Key
	Timeout       time.Duration // INFERENCE_TIMEOUT: buffered call deadline
	StreamTimeout time.Duration // INFERENCE_STREAM_TIMEOUT: whole-stream deadline
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "alari-backend")
	SampleRatio float64 // OTEL_SAMPLE_RATIO in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // bounds the whole response, streams included
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful-shutdown grace period
	MaxHeaderBytes    int           // bytes
	BodyLimitBytes    int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from request logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Database
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite file path
	DatabaseURL string // PostgreSQL DSN (required for postgres)

	// Auth
	JWTSecret string        // HS256 signing secret (required)
	TokenTTL  time.Duration // access-token lifetime

	// Chat
	SystemPrompt    string // persona seeded into new conversations
	MaxMessageRunes int    // user utterance cap
	TitleMaxLen     int    // conversation/goal title cap

	// Inference service
	Inference InferenceConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a turn receipt stays replayable

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 300*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		BodyLimitBytes:    int64(getint("BODY_LIMIT_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRedact:      getbool("LOG_REDACT", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// Database
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:      getenv("DB_PATH", "data/alari.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),

		// Auth
		JWTSecret: getenv("JWT_SECRET", ""),
		TokenTTL:  getdur("TOKEN_TTL", 10080*time.Minute),

		// Chat
		SystemPrompt:    getenv("SYSTEM_PROMPT", defaultSystemPrompt),
		MaxMessageRunes: getint("MAX_MESSAGE_RUNES", 4000),
		TitleMaxLen:     getint("TITLE_MAX_LEN", 255),

		// Inference service
		Inference: InferenceConfig{
			ServiceURL:    getenv("INFERENCE_SERVICE_URL", "http://localhost:8001"),
			APIKey:        getenv("INFERENCE_API_KEY", ""),
			Timeout:       getdur("INFERENCE_TIMEOUT", 120*time.Second),
			StreamTimeout: getdur("INFERENCE_STREAM_TIMEOUT", 180*time.Second),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ORIGINS", "*")),
			MaxAge:         getdur("CORS_MAX_AGE", 12*time.Hour),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("HSTS_ENABLED", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			NoStore:    getbool("RESPONSE_NO_STORE", true),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "alari-backend"),
			SampleRatio: getfloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	// A wildcard origin means "no allowlist".
	for _, o := range cfg.CORS.AllowedOrigins {
		if o == "*" {
			cfg.CORS.AllowedOrigins = nil
			break
		}
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.BodyLimitBytes <= 0 {
		return cfg, errors.New("BODY_LIMIT_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty when DB_DRIVER=sqlite")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.TokenTTL <= 0 {
		return cfg, errors.New("TOKEN_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Inference.ServiceURL) == "" {
		return cfg, errors.New("INFERENCE_SERVICE_URL must not be empty")
	}
	if cfg.Inference.Timeout <= 0 || cfg.Inference.StreamTimeout <= 0 {
		return cfg, errors.New("inference timeouts must be positive durations")
	}
	// The stream is written inside the HTTP response window; a shorter
	// WRITE_TIMEOUT would cut live streams off mid-sentence.
	if cfg.WriteTimeout <= cfg.Inference.StreamTimeout {
		return cfg, errors.New("WRITE_TIMEOUT must exceed INFERENCE_STREAM_TIMEOUT")
	}
	if cfg.MaxMessageRunes <= 0 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be > 0")
	}
	if cfg.TitleMaxLen <= 0 {
		return cfg, errors.New("TITLE_MAX_LEN must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.CORS.MaxAge < 0 {
		return cfg, errors.New("CORS_MAX_AGE must be >= 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_SAMPLE_RATIO must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
