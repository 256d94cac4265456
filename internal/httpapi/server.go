package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/antoniostano/fitcoach/internal/audio"
	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
	"github.com/antoniostano/fitcoach/internal/speech"
)

// PlanGenerator creates and stores plans.
type PlanGenerator interface {
	Generate(ctx context.Context, userID string, p plan.Profile) (plan.Record, error)
	GeneratorName() string
}

// Synthesizer turns text into a playable container.
type Synthesizer interface {
	SynthesizeWithProgress(ctx context.Context, text string, observe func(audio.ChunkInfo)) (speech.Result, error)
	ProviderName() string
}

type Server struct {
	cfg      config.Config
	plans    PlanGenerator
	store    planstore.Store
	speech   Synthesizer
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

// New builds the server. A nil metrics gets a private registry so handlers
// never see a nil collector.
func New(cfg config.Config, plans PlanGenerator, store planstore.Store, synth Synthesizer, metrics *observability.Metrics) *Server {
	if metrics == nil {
		metrics = observability.NewMetricsWith(prometheus.NewRegistry(), "fitcoach")
	}
	return &Server{
		cfg:     cfg,
		plans:   plans,
		store:   store,
		speech:  synth,
		metrics: metrics,
		static:  newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	r.Get("/v1/onboarding/status", s.handleOnboardingStatus)

	r.Get("/v1/plans/sample", s.handleSamplePlan)
	r.Get("/v1/plans/{id}", s.handleGetPlan)
	r.Get("/v1/users/{user_id}/plan", s.handleLatestPlan)
	r.Get("/v1/speech/ws", s.handleSpeechWS)

	r.Group(func(r chi.Router) {
		r.Use(s.withRequestTimeout)
		r.Post("/v1/plans", s.handleCreatePlan)
		r.Post("/v1/speech", s.handleSpeech)
		r.Post("/v1/plans/{id}/speech/{script}", s.handlePlanSpeech)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"speech_provider": s.speech.ProviderName(),
		"plan_generator":  s.plans.GeneratorName(),
		"plan_store":      planstore.Backend(s.store),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ready"
	if pg, ok := s.store.(interface{ Healthy(context.Context) bool }); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if !pg.Healthy(ctx) {
			status = http.StatusServiceUnavailable
			state = "store_unavailable"
		}
	}
	respondJSON(w, status, map[string]any{
		"status":     state,
		"plan_store": planstore.Backend(s.store),
	})
}

func (s *Server) withRequestTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
