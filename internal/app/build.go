package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/fitcoach/internal/bus"
	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/httpapi"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
	"github.com/antoniostano/fitcoach/internal/speech"
)

// Deps are the shared components every service is built with.
type Deps struct {
	Metrics   *observability.Metrics
	Publisher bus.Publisher
}

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Speech  *speech.Service
	Plans   *plan.Service
	Store   planstore.Store
	Metrics *observability.Metrics

	SpeechProvider ProviderInfo
	PlanGenerator  ProviderInfo

	// Cleanup should be called on shutdown to release external resources (DB, NATS, cache).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	return BuildWith(ctx, cfg, metrics)
}

// BuildWith is Build with caller-supplied metrics, so tests can use a
// private registry.
func BuildWith(ctx context.Context, cfg config.Config, metrics *observability.Metrics) (*BuildResult, error) {
	store, err := planstore.NewStore(ctx, cfg.DatabaseURL, cfg.PlanSQLitePath)
	if err != nil {
		return nil, fmt.Errorf("plan store init failed: %w", err)
	}

	speechProvider, speechInfo, err := ResolveSpeechProvider(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	generator, planInfo, err := ResolvePlanGenerator(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	publisher := newPublisher(cfg.NATSURL)
	deps := Deps{Metrics: metrics, Publisher: publisher}

	synth, err := NewSpeechService(speechProvider, cfg, deps)
	if err != nil {
		publisher.Close()
		_ = store.Close()
		return nil, fmt.Errorf("speech service init failed: %w", err)
	}
	plans := plan.NewService(generator, store, plan.ServiceConfig{
		RequestsPerMinute: cfg.UpstreamRequestsPerMinute,
	}, metrics, publisher)

	// Report the resolved backends rather than the requested modes.
	cfg.SpeechProvider = speechInfo.Name
	cfg.PlanProvider = planInfo.Name

	api := httpapi.New(cfg, plans, store, synth, metrics)

	cleanup := func() error {
		var errs []string
		synth.Close()
		publisher.Close()
		if err := store.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:         cfg,
		API:            api,
		Speech:         synth,
		Plans:          plans,
		Store:          store,
		Metrics:        metrics,
		SpeechProvider: speechInfo,
		PlanGenerator:  planInfo,
		Cleanup:        cleanup,
	}, nil
}

// newPublisher connects to NATS when configured. Events are best effort, so
// an unreachable broker degrades to the no-op publisher.
func newPublisher(url string) bus.Publisher {
	if strings.TrimSpace(url) == "" {
		return bus.NopPublisher{}
	}
	p, err := bus.Connect(url)
	if err != nil {
		logging.Warnf("event bus unavailable, continuing without events: %v", err)
		return bus.NopPublisher{}
	}
	return p
}
