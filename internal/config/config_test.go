package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.SpeechModel != "gemini-2.5-flash-preview-tts" {
		t.Fatalf("SpeechModel = %q, want flash tts default", cfg.SpeechModel)
	}
	if cfg.SpeechVoice != "Zephyr" {
		t.Fatalf("SpeechVoice = %q, want %q", cfg.SpeechVoice, "Zephyr")
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty default", cfg.GeminiAPIKey)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Fatalf("RequestTimeout = %v, want 90s", cfg.RequestTimeout)
	}
}

func TestLoadAPIKeyFallback(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GOOGLE_GENERATIVE_AI_API_KEY", " fallback-key ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiAPIKey != "fallback-key" {
		t.Fatalf("GeminiAPIKey = %q, want fallback value", cfg.GeminiAPIKey)
	}

	t.Setenv("GEMINI_API_KEY", "primary-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiAPIKey != "primary-key" {
		t.Fatalf("GeminiAPIKey = %q, want primary value", cfg.GeminiAPIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SPEECH_PROVIDER":              "elevenlabs",
		"PLAN_PROVIDER":                "openai",
		"TRACE_EXPORTER":               "jaeger",
		"SPEECH_CACHE_SIZE":            "-1",
		"UPSTREAM_REQUESTS_PER_MINUTE": "many",
		"APP_REQUEST_TIMEOUT":          "10ms",
		"APP_ALLOW_ANY_ORIGIN":         "maybe",
	}
	for key, value := range cases {
		setCoreEnvEmpty(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("Load() with %s=%q expected error", key, value)
		}
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_REQUEST_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"TRACE_EXPORTER",
		"GEMINI_API_KEY",
		"GOOGLE_GENERATIVE_AI_API_KEY",
		"GEMINI_BASE_URL",
		"SPEECH_PROVIDER",
		"SPEECH_MODEL",
		"SPEECH_VOICE",
		"SPEECH_CACHE_SIZE",
		"MAX_SPEECH_TEXT_CHARS",
		"PLAN_PROVIDER",
		"PLAN_MODEL",
		"PLAN_OPENAI_BASE_URL",
		"UPSTREAM_REQUESTS_PER_MINUTE",
		"DATABASE_URL",
		"PLAN_SQLITE_PATH",
		"NATS_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
