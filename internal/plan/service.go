package plan

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/antoniostano/fitcoach/internal/bus"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/policy"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

const (
	MsgGenerateFailed = "Failed to generate plan. Please try again."
	MsgNotConfigured  = "API Key missing"
	MsgStoreFailed    = "Failed to save plan"
)

// Saver persists generated plans.
type Saver interface {
	Save(ctx context.Context, rec Record) error
}

type ServiceConfig struct {
	// RequestsPerMinute throttles model calls. Zero disables throttling.
	RequestsPerMinute int
}

type Service struct {
	generator Generator
	store     Saver
	metrics   *observability.Metrics
	publisher bus.Publisher
	limiter   *rate.Limiter
	now       func() time.Time
}

func NewService(gen Generator, store Saver, cfg ServiceConfig, metrics *observability.Metrics, publisher bus.Publisher) *Service {
	if publisher == nil {
		publisher = bus.NopPublisher{}
	}
	s := &Service{
		generator: gen,
		store:     store,
		metrics:   metrics,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return s
}

func (s *Service) GeneratorName() string { return s.generator.Name() }

// Generate validates the profile, asks the generator for a plan, and stores
// the result as the user's latest plan. Validation problems are returned as
// *ValidationError wrapped in a KindInvalid failure; every generator problem
// surfaces with the same message.
func (s *Service) Generate(ctx context.Context, userID string, p Profile) (Record, error) {
	ctx, span := observability.Tracer().Start(ctx, "plan.generate")
	defer span.End()
	log := logging.Ctx(ctx)

	if err := Validate(p); err != nil {
		s.count("invalid")
		return Record{}, reliability.NewFailure(reliability.KindInvalid, "Invalid profile", err)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("plan.generator", s.generator.Name()),
		attribute.String("plan.goal", p.Goal),
		attribute.String("plan.level", p.Level),
		attribute.String("plan.location", p.Location),
	)
	log.Infow("generating plan",
		"generator", s.generator.Name(),
		"goal", p.Goal,
		"level", p.Level,
		"location", p.Location,
		"diet", p.DietaryPreference,
		"conditions", policy.RedactConditions(p.Conditions),
	)

	if c, ok := s.generator.(Configurable); ok && !c.Configured() {
		return Record{}, s.fail(span, reliability.KindConfig, MsgNotConfigured, false, ErrNotConfigured)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Record{}, s.fail(span, reliability.KindUpstream, MsgGenerateFailed, true, err)
		}
	}

	started := time.Now()
	out, err := s.generator.Generate(ctx, p)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return Record{}, s.fail(span, reliability.KindConfig, MsgNotConfigured, false, err)
		}
		return Record{}, s.fail(span, reliability.KindUpstream, MsgGenerateFailed, reliability.IsRetryable(err), err)
	}
	if s.metrics != nil {
		s.metrics.ObservePlan(time.Since(started))
	}

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Profile:   p,
		Plan:      out,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return Record{}, s.fail(span, reliability.KindUpstream, MsgStoreFailed, false, err)
	}
	s.count("ok")
	log.Infow("plan generated", "plan_id", rec.ID, "days", len(out.Workout.Schedule), "meals", len(out.Diet), "took", time.Since(started).Round(time.Millisecond))

	event := bus.PlanGenerated{
		PlanID:    rec.ID,
		UserID:    rec.UserID,
		Focus:     out.Focus,
		Split:     out.Workout.Split,
		Days:      len(out.Workout.Schedule),
		CreatedAt: rec.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, bus.SubjectPlanGenerated, event); err != nil {
		log.Warnw("publish plan event failed", "error", err)
	}
	return rec, nil
}

func (s *Service) fail(span trace.Span, kind reliability.Kind, msg string, retryable bool, err error) error {
	s.count(string(kind))
	if s.metrics != nil && kind != reliability.KindInvalid {
		s.metrics.ProviderErrors.WithLabelValues(s.generator.Name(), string(kind)).Inc()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	logging.Errorf("plan generation failed: generator=%s kind=%s err=%v", s.generator.Name(), kind, err)
	return &reliability.Failure{Kind: kind, Message: msg, Retryable: retryable, Err: err}
}

func (s *Service) count(outcome string) {
	if s.metrics != nil {
		s.metrics.PlanRequests.WithLabelValues(outcome).Inc()
	}
}
