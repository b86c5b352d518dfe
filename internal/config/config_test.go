package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// setRequired fills the variables Load refuses to default so tests can focus
// on the knob under test.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	setRequired(t)

	// Server timeouts / sizes (valid; write window above the stream window)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "10s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("BODY_LIMIT_BYTES", "2048")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("LOG_REDACT", "on")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Database
	t.Setenv("DB_DRIVER", "SQLITE") // case-insensitive
	t.Setenv("DB_PATH", "db.sqlite")

	// Auth
	t.Setenv("TOKEN_TTL", "30m")

	// Chat
	t.Setenv("SYSTEM_PROMPT", "You are a test persona.")
	t.Setenv("MAX_MESSAGE_RUNES", "100")
	t.Setenv("TITLE_MAX_LEN", "64")

	// Inference
	t.Setenv("INFERENCE_SERVICE_URL", "http://inference:9000")
	t.Setenv("INFERENCE_API_KEY", "sk-test")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("INFERENCE_STREAM_TIMEOUT", "8s")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("CORS_MAX_AGE", "1h")
	t.Setenv("HSTS_ENABLED", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("RESPONSE_NO_STORE", "0")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 10*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.ShutdownTimeout != 3*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.BodyLimitBytes != 2048 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.LogRedact || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Database
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "db.sqlite" {
		t.Fatalf("database fields unexpected: %+v", cfg)
	}

	// Auth
	if cfg.JWTSecret != "test-secret" || cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("auth fields unexpected: %+v", cfg)
	}

	// Chat
	if cfg.SystemPrompt != "You are a test persona." || cfg.MaxMessageRunes != 100 || cfg.TitleMaxLen != 64 {
		t.Fatalf("chat fields unexpected: %+v", cfg)
	}

	// Inference
	if cfg.Inference.ServiceURL != "http://inference:9000" ||
		cfg.Inference.APIKey != "sk-test" ||
		cfg.Inference.Timeout != 5*time.Second ||
		cfg.Inference.StreamTimeout != 8*time.Second {
		t.Fatalf("inference fields unexpected: %+v", cfg.Inference)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if cfg.CORS.MaxAge != time.Hour {
		t.Fatalf("cors max age unexpected: %v", cfg.CORS.MaxAge)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.Security.NoStore {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("PORT default expected 8000, got %q", cfg.Port)
	}
	if cfg.APIBasePath != "/" {
		t.Fatalf("API_BASE_PATH default expected '/', got %q", cfg.APIBasePath)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "data/alari.db" {
		t.Fatalf("database defaults unexpected: %+v", cfg)
	}
	if cfg.TokenTTL != 10080*time.Minute {
		t.Fatalf("TOKEN_TTL default expected 7 days, got %v", cfg.TokenTTL)
	}
	if !strings.Contains(cfg.SystemPrompt, "Alari") {
		t.Fatalf("default persona missing: %q", cfg.SystemPrompt)
	}
	if cfg.Inference.ServiceURL != "http://localhost:8001" ||
		cfg.Inference.Timeout != 120*time.Second ||
		cfg.Inference.StreamTimeout != 180*time.Second {
		t.Fatalf("inference defaults unexpected: %+v", cfg.Inference)
	}
	if cfg.MaxMessageRunes != 4000 || cfg.TitleMaxLen != 255 {
		t.Fatalf("chat defaults unexpected: %+v", cfg)
	}
	// The stream fits inside the response window by default.
	if cfg.WriteTimeout <= cfg.Inference.StreamTimeout {
		t.Fatalf("default WRITE_TIMEOUT %v must exceed stream timeout %v", cfg.WriteTimeout, cfg.Inference.StreamTimeout)
	}
	// Wildcard CORS normalizes to an empty allowlist.
	if cfg.CORS.AllowedOrigins != nil {
		t.Fatalf("CORS default expected allow-all (nil), got %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.NoStore {
		t.Fatalf("RESPONSE_NO_STORE should default to true")
	}
	if cfg.OTEL.ServiceName != "alari-backend" {
		t.Fatalf("OTEL_SERVICE_NAME default unexpected: %q", cfg.OTEL.ServiceName)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("invalid LOG_LEVEL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := Load(); err == nil {
			t.Fatalf("expected LOG_LEVEL validation error")
		}
	})
	t.Run("empty PORT via spaces", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "PORT must not be empty") {
			t.Fatalf("expected port validation error, got: %v", err)
		}
	})
	t.Run("non-positive timeouts", func(t *testing.T) {
		setRequired(t)
		t.Setenv("READ_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "timeouts must be positive") {
			t.Fatalf("expected timeouts validation error, got: %v", err)
		}
	})
	t.Run("max header bytes <= 0", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MAX_HEADER_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_HEADER_BYTES") {
			t.Fatalf("expected MAX_HEADER_BYTES validation error, got: %v", err)
		}
	})
	t.Run("body limit <= 0", func(t *testing.T) {
		setRequired(t)
		t.Setenv("BODY_LIMIT_BYTES", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "BODY_LIMIT_BYTES") {
			t.Fatalf("expected BODY_LIMIT_BYTES validation error, got: %v", err)
		}
	})
	t.Run("unknown DB_DRIVER", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_DRIVER", "oracle")
		if _, err := Load(); err == nil || !containsErr(err, "DB_DRIVER") {
			t.Fatalf("expected DB_DRIVER validation error, got: %v", err)
		}
	})
	t.Run("sqlite without DB_PATH", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_PATH", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "DB_PATH") {
			t.Fatalf("expected DB_PATH validation error, got: %v", err)
		}
	})
	t.Run("postgres without DATABASE_URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_DRIVER", "postgres")
		if _, err := Load(); err == nil || !containsErr(err, "DATABASE_URL") {
			t.Fatalf("expected DATABASE_URL validation error, got: %v", err)
		}
	})
	t.Run("missing JWT_SECRET", func(t *testing.T) {
		if _, err := Load(); err == nil || !containsErr(err, "JWT_SECRET") {
			t.Fatalf("expected JWT_SECRET validation error, got: %v", err)
		}
	})
	t.Run("token ttl non-positive", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TOKEN_TTL", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "TOKEN_TTL") {
			t.Fatalf("expected TOKEN_TTL validation error, got: %v", err)
		}
	})
	t.Run("empty INFERENCE_SERVICE_URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("INFERENCE_SERVICE_URL", "  ")
		if _, err := Load(); err == nil || !containsErr(err, "INFERENCE_SERVICE_URL") {
			t.Fatalf("expected INFERENCE_SERVICE_URL validation error, got: %v", err)
		}
	})
	t.Run("write timeout below stream timeout", func(t *testing.T) {
		setRequired(t)
		t.Setenv("WRITE_TIMEOUT", "30s")
		t.Setenv("INFERENCE_STREAM_TIMEOUT", "60s")
		if _, err := Load(); err == nil || !containsErr(err, "WRITE_TIMEOUT") {
			t.Fatalf("expected WRITE_TIMEOUT validation error, got: %v", err)
		}
	})
	t.Run("message cap non-positive", func(t *testing.T) {
		setRequired(t)
		t.Setenv("MAX_MESSAGE_RUNES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_MESSAGE_RUNES") {
			t.Fatalf("expected MAX_MESSAGE_RUNES validation error, got: %v", err)
		}
	})
	t.Run("title cap non-positive", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TITLE_MAX_LEN", "-5")
		if _, err := Load(); err == nil || !containsErr(err, "TITLE_MAX_LEN") {
			t.Fatalf("expected TITLE_MAX_LEN validation error, got: %v", err)
		}
	})
	t.Run("rate rps negative", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RATE_RPS", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_RPS") {
			t.Fatalf("expected RATE_RPS validation error, got: %v", err)
		}
	})
	t.Run("rate burst < 1", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RATE_BURST", "0")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_BURST") {
			t.Fatalf("expected RATE_BURST validation error, got: %v", err)
		}
	})
	t.Run("cors max age negative", func(t *testing.T) {
		setRequired(t)
		t.Setenv("CORS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "CORS_MAX_AGE") {
			t.Fatalf("expected CORS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("hsts max age negative", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HSTS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "HSTS_MAX_AGE") {
			t.Fatalf("expected HSTS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("idempotency ttl non-positive", func(t *testing.T) {
		setRequired(t)
		t.Setenv("IDEMPOTENCY_TTL", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "IDEMPOTENCY_TTL") {
			t.Fatalf("expected IDEMPOTENCY_TTL validation error, got: %v", err)
		}
	})
	t.Run("otel sample ratio out of range", func(t *testing.T) {
		setRequired(t)
		t.Setenv("OTEL_SAMPLE_RATIO", "1.5")
		if _, err := Load(); err == nil || !containsErr(err, "OTEL_SAMPLE_RATIO") {
			t.Fatalf("expected OTEL_SAMPLE_RATIO validation error, got: %v", err)
		}
	})
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + config_strconv(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + config_strconv(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	// normalizeBasePath
	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

// small helper (avoid fmt just for ints)
func config_strconv(i int) string { return string('a' + rune(i)) }

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("JWT_SECRET")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
