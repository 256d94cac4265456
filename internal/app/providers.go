package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/speech"
)

// ProviderInfo describes which backend a mode resolved to.
type ProviderInfo struct {
	Name   string
	Detail string
	// Fallback is set when auto mode settled on the mock for lack of a key.
	Fallback bool
}

func mockFallback(kind string) ProviderInfo {
	logging.Warnf("%s: GEMINI_API_KEY is not set, serving mock output; set %s=mock to silence this", kind, kind)
	return ProviderInfo{Name: "mock", Detail: "mock (no gemini key)", Fallback: true}
}

func normalizeMode(v string) string {
	mode := strings.ToLower(strings.TrimSpace(v))
	if mode == "" {
		return "auto"
	}
	return mode
}

// ResolveSpeechProvider picks the speech backend for cfg.SpeechProvider.
// "auto" uses Gemini when a key is present and the mock tone otherwise.
func ResolveSpeechProvider(cfg config.Config) (speech.Provider, ProviderInfo, error) {
	hasKey := strings.TrimSpace(cfg.GeminiAPIKey) != ""
	gemini := func() speech.Provider {
		return speech.NewGeminiProvider(speech.GeminiConfig{APIKey: cfg.GeminiAPIKey, BaseURL: cfg.GeminiBaseURL})
	}

	switch normalizeMode(cfg.SpeechProvider) {
	case "gemini":
		if !hasKey {
			return nil, ProviderInfo{}, fmt.Errorf("SPEECH_PROVIDER=gemini but GEMINI_API_KEY is not set")
		}
		return gemini(), ProviderInfo{Name: "gemini", Detail: "gemini streaming tts"}, nil
	case "mock":
		return speech.NewMockProvider(), ProviderInfo{Name: "mock", Detail: "mock"}, nil
	case "auto":
		if hasKey {
			return gemini(), ProviderInfo{Name: "gemini", Detail: "gemini streaming tts"}, nil
		}
		return speech.NewMockProvider(), mockFallback("SPEECH_PROVIDER"), nil
	default:
		return nil, ProviderInfo{}, fmt.Errorf("invalid SPEECH_PROVIDER: %q (expected auto|gemini|mock)", cfg.SpeechProvider)
	}
}

// ResolvePlanGenerator picks the plan backend for cfg.PlanProvider. The
// Gemini backend talks to its OpenAI-compatible endpoint.
func ResolvePlanGenerator(ctx context.Context, cfg config.Config) (plan.Generator, ProviderInfo, error) {
	hasKey := strings.TrimSpace(cfg.GeminiAPIKey) != ""
	model := func() (plan.Generator, ProviderInfo, error) {
		m, err := plan.NewOpenAIChatModel(ctx, plan.OpenAIConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.PlanOpenAIBaseURL,
			Model:   cfg.PlanModel,
		})
		if err != nil {
			return nil, ProviderInfo{}, fmt.Errorf("plan model init failed: %w", err)
		}
		return plan.NewModelGenerator("gemini", m), ProviderInfo{Name: "gemini", Detail: "gemini " + cfg.PlanModel}, nil
	}

	switch normalizeMode(cfg.PlanProvider) {
	case "gemini":
		if !hasKey {
			return nil, ProviderInfo{}, fmt.Errorf("PLAN_PROVIDER=gemini but GEMINI_API_KEY is not set")
		}
		return model()
	case "mock":
		return plan.MockGenerator{}, ProviderInfo{Name: "mock", Detail: "mock"}, nil
	case "auto":
		if hasKey {
			return model()
		}
		return plan.MockGenerator{}, mockFallback("PLAN_PROVIDER"), nil
	default:
		return nil, ProviderInfo{}, fmt.Errorf("invalid PLAN_PROVIDER: %q (expected auto|gemini|mock)", cfg.PlanProvider)
	}
}

// NewSpeechService wraps provider with the cache, limiter and limits from cfg.
func NewSpeechService(provider speech.Provider, cfg config.Config, deps Deps) (*speech.Service, error) {
	return speech.NewService(provider, speech.Config{
		Voice:             cfg.SpeechVoice,
		Model:             cfg.SpeechModel,
		MaxTextChars:      cfg.MaxSpeechTextChars,
		RequestsPerMinute: cfg.UpstreamRequestsPerMinute,
		CacheSize:         cfg.SpeechCacheSize,
	}, deps.Metrics, deps.Publisher)
}
