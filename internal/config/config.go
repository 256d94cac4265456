package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the coaching service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	RequestTimeout   time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	LogLevel      string
	LogFormat     string
	TraceExporter string

	GeminiAPIKey  string
	GeminiBaseURL string

	SpeechProvider     string
	SpeechModel        string
	SpeechVoice        string
	SpeechCacheSize    int
	MaxSpeechTextChars int

	PlanProvider      string
	PlanModel         string
	PlanOpenAIBaseURL string

	UpstreamRequestsPerMinute int

	DatabaseURL    string
	PlanSQLitePath string

	NATSURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "fitcoach"),
		AllowAnyOrigin:   false,
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "console"),
		TraceExporter:    envOrDefault("TRACE_EXPORTER", "none"),
		GeminiAPIKey:     firstNonEmpty(stringsTrimSpace("GEMINI_API_KEY"), stringsTrimSpace("GOOGLE_GENERATIVE_AI_API_KEY")),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		SpeechProvider:   envOrDefault("SPEECH_PROVIDER", "auto"),
		// Flash TTS is the low-latency option; the pro preview needs separate access.
		SpeechModel:        envOrDefault("SPEECH_MODEL", "gemini-2.5-flash-preview-tts"),
		SpeechVoice:        envOrDefault("SPEECH_VOICE", "Zephyr"),
		SpeechCacheSize:    64,
		MaxSpeechTextChars: 8000,
		PlanProvider:       envOrDefault("PLAN_PROVIDER", "auto"),
		PlanModel:          envOrDefault("PLAN_MODEL", "gemini-2.5-flash"),
		PlanOpenAIBaseURL:  envOrDefault("PLAN_OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		// 0 disables the limiter.
		UpstreamRequestsPerMinute: 60,
		DatabaseURL:               stringsTrimSpace("DATABASE_URL"),
		PlanSQLitePath:            stringsTrimSpace("PLAN_SQLITE_PATH"),
		NATSURL:                   stringsTrimSpace("NATS_URL"),
		ShutdownTimeout:           15 * time.Second,
		RequestTimeout:            90 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout, err = durationFromEnv("APP_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeechCacheSize, err = intFromEnv("SPEECH_CACHE_SIZE", cfg.SpeechCacheSize)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxSpeechTextChars, err = intFromEnv("MAX_SPEECH_TEXT_CHARS", cfg.MaxSpeechTextChars)
	if err != nil {
		return Config{}, err
	}
	cfg.UpstreamRequestsPerMinute, err = intFromEnv("UPSTREAM_REQUESTS_PER_MINUTE", cfg.UpstreamRequestsPerMinute)
	if err != nil {
		return Config{}, err
	}

	if cfg.RequestTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_REQUEST_TIMEOUT must be at least 1s")
	}
	if cfg.SpeechCacheSize < 0 {
		return Config{}, fmt.Errorf("SPEECH_CACHE_SIZE must be >= 0")
	}
	if cfg.MaxSpeechTextChars <= 0 {
		return Config{}, fmt.Errorf("MAX_SPEECH_TEXT_CHARS must be positive")
	}
	if cfg.UpstreamRequestsPerMinute < 0 {
		return Config{}, fmt.Errorf("UPSTREAM_REQUESTS_PER_MINUTE must be >= 0")
	}
	for key, v := range map[string]string{
		"SPEECH_PROVIDER": cfg.SpeechProvider,
		"PLAN_PROVIDER":   cfg.PlanProvider,
	} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "auto", "gemini", "mock":
		default:
			return Config{}, fmt.Errorf("invalid %s: %q (expected auto|gemini|mock)", key, v)
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.TraceExporter)) {
	case "none", "stdout":
	default:
		return Config{}, fmt.Errorf("invalid TRACE_EXPORTER: %q (expected none|stdout)", cfg.TraceExporter)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
