// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, payment-provider
// credentials, tracking rate limits, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-registry-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// FedaPayConfig holds credentials and endpoints for the payment provider.
//
// WebhookSecret may legitimately be empty at startup; the webhook handler
// treats its absence as a per-request configuration error rather than
// refusing to boot, so the rest of the API stays available.
type FedaPayConfig struct {
	APIBase       string // FEDAPAY_API_BASE
	SecretKey     string // FEDAPAY_SECRET_KEY (bearer for provider API calls)
	WebhookSecret string // FEDAPAY_WEBHOOK_SECRET (HMAC shared secret)
	Currency      string // FEDAPAY_CURRENCY, ISO code (XOF)
	Country       string // FEDAPAY_COUNTRY, customer phone country (CI)
	CallbackURL   string // PAYMENT_CALLBACK_URL pointing at /payment-webhook
}

// TrackingConfig holds the sliding-window limiter knobs for the public
// tracking endpoint. The unit of enforcement is the (caller IP, phone) pair.
type TrackingConfig struct {
	Window        time.Duration // TRACKING_WINDOW
	MaxAttempts   int           // TRACKING_MAX_ATTEMPTS
	BlockDuration time.Duration // TRACKING_BLOCK
	SweepInterval time.Duration // TRACKING_SWEEP_INTERVAL (0 disables the sweep)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes ("/" keeps legacy paths)

	// App
	DBPath        string // SQLite path
	AuthJWTSecret string // HMAC secret for bearer tokens

	// Payment provider
	FedaPay FedaPayConfig

	// Public tracking limiter
	Tracking TrackingConfig

	// Edge rate limiting (token bucket, all routes)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a payment Idempotency-Key is valid

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
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// App
		DBPath:        getenv("DB_PATH", "app.db"),
		AuthJWTSecret: getenv("AUTH_JWT_SECRET", ""),

		// Payment provider
		FedaPay: FedaPayConfig{
			APIBase:       strings.TrimRight(getenv("FEDAPAY_API_BASE", "https://api.fedapay.com/v1"), "/"),
			SecretKey:     getenv("FEDAPAY_SECRET_KEY", ""),
			WebhookSecret: getenv("FEDAPAY_WEBHOOK_SECRET", ""),
			Currency:      getenv("FEDAPAY_CURRENCY", "XOF"),
			Country:       getenv("FEDAPAY_COUNTRY", "CI"),
			CallbackURL:   getenv("PAYMENT_CALLBACK_URL", ""),
		},

		// Public tracking limiter
		Tracking: TrackingConfig{
			Window:        getdur("TRACKING_WINDOW", 60*time.Minute),
			MaxAttempts:   getint("TRACKING_MAX_ATTEMPTS", 10),
			BlockDuration: getdur("TRACKING_BLOCK", 30*time.Minute),
			SweepInterval: getdur("TRACKING_SWEEP_INTERVAL", time.Hour),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-registry-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
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

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.FedaPay.APIBase) == "" {
		return cfg, errors.New("FEDAPAY_API_BASE must not be empty")
	}
	if strings.TrimSpace(cfg.FedaPay.Currency) == "" {
		return cfg, errors.New("FEDAPAY_CURRENCY must not be empty")
	}
	if cfg.Tracking.Window <= 0 {
		return cfg, errors.New("TRACKING_WINDOW must be > 0")
	}
	if cfg.Tracking.MaxAttempts < 1 {
		return cfg, errors.New("TRACKING_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Tracking.BlockDuration <= 0 {
		return cfg, errors.New("TRACKING_BLOCK must be > 0")
	}
	if cfg.Tracking.SweepInterval < 0 {
		return cfg, errors.New("TRACKING_SWEEP_INTERVAL must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
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
