package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/career-coach/internal/platform/logging"
	"github.com/riskibarqy/career-coach/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	DBURL                      string
	CacheEnabled               bool
	CacheTTL                   time.Duration
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	ClerkAPIURL                string
	ClerkSecretKey             string
	ClerkJWTPublicKey          string
	ClerkAuthorizedParties     []string
	ClerkTimeout               time.Duration
	ClerkCircuit               resilience.CircuitBreakerConfig
	AuthCacheTTL               time.Duration
	AuthClockSkew              time.Duration
	GeminiBaseURL              string
	GeminiAPIKey               string
	GeminiModel                string
	GeminiTemperature          float64
	GeminiCircuit              resilience.CircuitBreakerConfig
	InsightGenerateTimeout     time.Duration
	InsightLockTTL             time.Duration
	InsightRefreshBatchSize    int
	InsightRefreshWorkers      int
	ProfileTxTimeout           time.Duration
	RevalidateURL              string
	RevalidateSecret           string
	RevalidateTimeout          time.Duration
	RedisURL                   string
	InternalJobToken           string
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "career-coach-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		UptraceDSN:                 strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		ClerkAPIURL:                strings.TrimSpace(getEnv("CLERK_API_URL", "https://api.clerk.com")),
		ClerkSecretKey:             strings.TrimSpace(getEnv("CLERK_SECRET_KEY", "")),
		ClerkJWTPublicKey:          strings.TrimSpace(getEnv("CLERK_JWT_KEY", "")),
		ClerkAuthorizedParties:     splitCSV(getEnv("CLERK_AUTHORIZED_PARTIES", "")),
		GeminiBaseURL:              strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIKey:               strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:                strings.TrimSpace(getEnv("GEMINI_MODEL", "gemini-1.5-flash")),
		RevalidateURL:              strings.TrimSpace(getEnv("REVALIDATE_URL", "")),
		RevalidateSecret:           strings.TrimSpace(getEnv("REVALIDATE_SECRET", "")),
		RedisURL:                   strings.TrimSpace(getEnv("REDIS_URL", "")),
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	// The profile update can spend 10s on generation plus 10s in the
	// transaction, so the write deadline has to cover both.
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if cfg.ClerkTimeout, err = getEnvAsDuration("CLERK_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ClerkCircuit, err = loadCircuit("CLERK"); err != nil {
		return Config{}, err
	}
	if cfg.AuthCacheTTL, err = getEnvAsDuration("AUTH_CACHE_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.AuthClockSkew, err = getEnvAsDuration("AUTH_CLOCK_SKEW", 5*time.Second); err != nil {
		return Config{}, err
	}
	if appEnv == EnvProd {
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when APP_ENV=%s", EnvProd)
		}
		if cfg.ClerkSecretKey == "" {
			return Config{}, fmt.Errorf("CLERK_SECRET_KEY is required when APP_ENV=%s", EnvProd)
		}
		if cfg.ClerkJWTPublicKey == "" {
			return Config{}, fmt.Errorf("CLERK_JWT_KEY is required when APP_ENV=%s", EnvProd)
		}
		if cfg.GeminiAPIKey == "" {
			return Config{}, fmt.Errorf("GEMINI_API_KEY is required when APP_ENV=%s", EnvProd)
		}
	}

	if cfg.GeminiTemperature, err = getEnvAsFloat("GEMINI_TEMPERATURE", 0.4); err != nil {
		return Config{}, err
	}
	if cfg.GeminiCircuit, err = loadCircuit("GEMINI"); err != nil {
		return Config{}, err
	}

	if cfg.InsightGenerateTimeout, err = getEnvAsDuration("INSIGHT_GENERATE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.InsightLockTTL, err = getEnvAsDuration("INSIGHT_LOCK_TTL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.InsightLockTTL <= cfg.InsightGenerateTimeout {
		return Config{}, fmt.Errorf("INSIGHT_LOCK_TTL must be greater than INSIGHT_GENERATE_TIMEOUT")
	}
	if cfg.InsightRefreshBatchSize, err = getEnvAsPositiveInt("INSIGHT_REFRESH_BATCH_SIZE", 50); err != nil {
		return Config{}, err
	}
	if cfg.InsightRefreshWorkers, err = getEnvAsPositiveInt("INSIGHT_REFRESH_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.ProfileTxTimeout, err = getEnvAsDuration("PROFILE_TX_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.RevalidateTimeout, err = getEnvAsDuration("REVALIDATE_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RevalidateURL != "" && cfg.RevalidateSecret == "" {
		return Config{}, fmt.Errorf("REVALIDATE_SECRET is required when REVALIDATE_URL is set")
	}

	return cfg, nil
}

func loadCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := getEnvAsBool(prefix+"_CIRCUIT_ENABLED", defaults.Enabled)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failures, err := getEnvAsPositiveInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	openTimeout, err := getEnvAsDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpen, err := getEnvAsPositiveInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}

	cfg := resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failures,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpen,
	}
	if err := cfg.Validate(); err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s circuit: %w", prefix, err)
	}
	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
