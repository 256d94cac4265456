package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/antoniostano/fitcoach/internal/audio"
	"github.com/antoniostano/fitcoach/internal/bus"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

const (
	MsgNotConfigured = "API Key missing"
	MsgNoAudio       = "No audio data received"
	MsgFailed        = "Failed to generate speech"
	MsgEmptyText     = "Text is required"
	MsgTextTooLong   = "Text is too long"
)

type Config struct {
	Voice        string
	Model        string
	MaxTextChars int
	// RequestsPerMinute throttles upstream calls. Zero disables throttling.
	RequestsPerMinute int
	// CacheSize is the number of payloads kept. Zero disables caching.
	CacheSize int
}

// Result is one finished synthesis.
type Result struct {
	Audio  audio.Container
	Chunks int
	Cached bool
}

// Service turns text into a playable audio container. Each call owns its
// accumulator, so concurrent calls never share buffers.
type Service struct {
	provider  Provider
	cfg       Config
	cache     *Cache
	limiter   *rate.Limiter
	metrics   *observability.Metrics
	publisher bus.Publisher
	registry  audio.Registry
}

func NewService(provider Provider, cfg Config, metrics *observability.Metrics, publisher bus.Publisher) (*Service, error) {
	if provider == nil {
		return nil, errors.New("speech provider is required")
	}
	if publisher == nil {
		publisher = bus.NopPublisher{}
	}
	s := &Service{
		provider:  provider,
		cfg:       cfg,
		metrics:   metrics,
		publisher: publisher,
		registry:  audio.DefaultRegistry,
	}
	if cfg.CacheSize > 0 {
		cache, err := NewCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return s, nil
}

func (s *Service) ProviderName() string { return s.provider.Name() }

func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

func (s *Service) Synthesize(ctx context.Context, text string) (Result, error) {
	return s.SynthesizeWithProgress(ctx, text, nil)
}

// SynthesizeWithProgress is Synthesize with a callback per received chunk.
// The callback is not invoked for cache hits.
func (s *Service) SynthesizeWithProgress(ctx context.Context, text string, observe func(audio.ChunkInfo)) (Result, error) {
	ctx, span := observability.Tracer().Start(ctx, "speech.synthesize")
	defer span.End()
	log := logging.Ctx(ctx)

	res, err := s.synthesize(ctx, text, observe)
	if err != nil {
		f, _ := reliability.AsFailure(err)
		s.countFailure(f)
		span.RecordError(err)
		span.SetStatus(codes.Error, f.Message)
		log.Warnw("speech synthesis failed", "provider", s.provider.Name(), "kind", f.Kind, "error", f.Err)
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("speech.provider", s.provider.Name()),
		attribute.String("speech.media_type", res.Audio.MediaType),
		attribute.Int("speech.data_length", res.Audio.DataLength),
		attribute.Int("speech.chunks", res.Chunks),
		attribute.Bool("speech.cached", res.Cached),
	)
	if s.metrics != nil {
		s.metrics.SpeechRequests.WithLabelValues("ok").Inc()
	}
	log.Infow("speech synthesized",
		"provider", s.provider.Name(),
		"media_type", res.Audio.MediaType,
		"size", humanize.Bytes(uint64(len(res.Audio.Data))),
		"chunks", res.Chunks,
		"cached", res.Cached,
	)

	event := bus.SpeechSynthesized{
		RequestID:  logging.RequestID(ctx),
		MediaType:  res.Audio.MediaType,
		SampleRate: res.Audio.Format.SampleRate,
		DataLength: res.Audio.DataLength,
		Chunks:     res.Chunks,
		Cached:     res.Cached,
	}
	if err := s.publisher.Publish(ctx, bus.SubjectSpeechSynthesized, event); err != nil {
		log.Warnw("publish speech event failed", "error", err)
	}
	return res, nil
}

func (s *Service) synthesize(ctx context.Context, text string, observe func(audio.ChunkInfo)) (Result, error) {
	if !configured(s.provider) {
		return Result{}, s.classify(ErrNotConfigured)
	}
	text = SanitizeText(text)
	if text == "" {
		return Result{}, reliability.NewFailure(reliability.KindInvalid, MsgEmptyText, nil)
	}
	if s.cfg.MaxTextChars > 0 && len([]rune(text)) > s.cfg.MaxTextChars {
		return Result{}, reliability.NewFailure(reliability.KindInvalid, MsgTextTooLong,
			fmt.Errorf("%d characters exceeds limit %d", len([]rune(text)), s.cfg.MaxTextChars))
	}

	req := Request{Text: text, Voice: s.cfg.Voice, Model: s.cfg.Model}
	key := CacheKey(req)
	if s.cache != nil {
		if payload, ok := s.cache.Get(key); ok {
			s.countCache("hit")
			return Result{Audio: s.registry.Wrap(payload.Data, payload.MIMEType), Chunks: payload.Chunks, Cached: true}, nil
		}
		s.countCache("miss")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Result{}, &reliability.Failure{Kind: reliability.KindUpstream, Message: MsgFailed, Retryable: true, Err: err}
		}
	}

	started := time.Now()
	stream, err := s.provider.OpenStream(ctx, req)
	if err != nil {
		return Result{}, s.classify(err)
	}

	first := true
	payload, err := audio.Drain(ctx, stream, func(ci audio.ChunkInfo) {
		if first {
			first = false
			if s.metrics != nil {
				s.metrics.ObserveFirstChunk(time.Since(started))
			}
		}
		if observe != nil {
			observe(ci)
		}
	})
	if err != nil {
		return Result{}, s.classify(err)
	}
	if s.metrics != nil {
		s.metrics.ObserveSpeech(time.Since(started), payload.Chunks, len(payload.Data))
	}
	if s.cache != nil {
		s.cache.Put(key, payload)
	}

	return Result{Audio: s.registry.Wrap(payload.Data, payload.MIMEType), Chunks: payload.Chunks}, nil
}

func (s *Service) classify(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return reliability.NewFailure(reliability.KindConfig, MsgNotConfigured, err)
	case errors.Is(err, audio.ErrNoAudio):
		return reliability.NewFailure(reliability.KindEmpty, MsgNoAudio, err)
	default:
		return &reliability.Failure{
			Kind:      reliability.KindUpstream,
			Message:   MsgFailed,
			Retryable: retryableStreamError(err),
			Err:       err,
		}
	}
}

func (s *Service) countFailure(f *reliability.Failure) {
	if s.metrics == nil {
		return
	}
	s.metrics.SpeechRequests.WithLabelValues(string(f.Kind)).Inc()
	if f.Kind != reliability.KindInvalid {
		s.metrics.ProviderErrors.WithLabelValues(s.provider.Name(), string(f.Kind)).Inc()
	}
}

func (s *Service) countCache(result string) {
	if s.metrics != nil {
		s.metrics.SpeechCache.WithLabelValues(result).Inc()
		s.metrics.ObserveIndicator("speech_cache_" + result)
	}
}
