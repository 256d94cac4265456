package httpapi

import (
	"net/http"
	"strings"

	"github.com/antoniostano/fitcoach/internal/planstore"
)

type onboardingCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"` // ok|warn|error
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

type onboardingStatusResponse struct {
	SpeechProvider string            `json:"speech_provider"`
	PlanGenerator  string            `json:"plan_generator"`
	PlanStore      string            `json:"plan_store"`
	EventBus       bool              `json:"event_bus"`
	Checks         []onboardingCheck `json:"checks"`
}

func (s *Server) handleOnboardingStatus(w http.ResponseWriter, _ *http.Request) {
	speechProvider := s.speech.ProviderName()
	planGenerator := s.plans.GeneratorName()
	storeMode := planstore.Backend(s.store)

	checks := make([]onboardingCheck, 0, 6)
	if strings.TrimSpace(s.cfg.GeminiAPIKey) == "" {
		checks = append(checks, onboardingCheck{
			ID:     "gemini_key",
			Status: "error",
			Label:  "Gemini API key",
			Detail: "GEMINI_API_KEY is not set",
			Fix:    "Set GEMINI_API_KEY (or GOOGLE_GENERATIVE_AI_API_KEY), or use SPEECH_PROVIDER=mock and PLAN_PROVIDER=mock.",
		})
	} else {
		checks = append(checks, onboardingCheck{
			ID:     "gemini_key",
			Status: "ok",
			Label:  "Gemini API key",
			Detail: "present",
		})
	}

	checks = append(checks, providerCheck("speech_provider", "Speech backend", speechProvider,
		"No real speech will be generated; a test tone is returned instead."))
	checks = append(checks, providerCheck("plan_generator", "Plan generator", planGenerator,
		"Plans come from the built-in sample instead of the model."))

	switch storeMode {
	case "postgres", "sqlite":
		checks = append(checks, onboardingCheck{
			ID:     "plan_store",
			Status: "ok",
			Label:  "Plan persistence",
			Detail: storeMode,
		})
	default:
		checks = append(checks, onboardingCheck{
			ID:     "plan_store",
			Status: "warn",
			Label:  "Plan persistence",
			Detail: "in-memory only",
			Fix:    "Set DATABASE_URL or PLAN_SQLITE_PATH to keep plans across restarts.",
		})
	}

	eventBus := strings.TrimSpace(s.cfg.NATSURL) != ""
	if eventBus {
		checks = append(checks, onboardingCheck{
			ID:     "event_bus",
			Status: "ok",
			Label:  "Event bus",
			Detail: "nats",
		})
	}

	respondJSON(w, http.StatusOK, onboardingStatusResponse{
		SpeechProvider: speechProvider,
		PlanGenerator:  planGenerator,
		PlanStore:      storeMode,
		EventBus:       eventBus,
		Checks:         checks,
	})
}

func providerCheck(id, label, name, mockDetail string) onboardingCheck {
	if name == "mock" {
		return onboardingCheck{
			ID:     id,
			Status: "warn",
			Label:  label + " is mock",
			Detail: mockDetail,
		}
	}
	return onboardingCheck{ID: id, Status: "ok", Label: label, Detail: name}
}
