package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrNotConfigured is returned when the model generator has no credentials.
var ErrNotConfigured = errors.New("plan model not configured")

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultOpenAIBase = "https://generativelanguage.googleapis.com/v1beta/openai/"
	Temperature       = 0.7
)

// Generator produces a plan for a validated profile.
type Generator interface {
	Name() string
	Generate(ctx context.Context, p Profile) (Plan, error)
}

// Configurable is implemented by generators that can report missing
// credentials without a request.
type Configurable interface {
	Configured() bool
}

// ChatModel is the slice of an eino chat model the generator needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ModelGenerator asks a chat model for a JSON plan.
type ModelGenerator struct {
	model ChatModel
	name  string
}

func NewModelGenerator(name string, m ChatModel) *ModelGenerator {
	return &ModelGenerator{model: m, name: name}
}

func (g *ModelGenerator) Name() string { return g.name }

func (g *ModelGenerator) Configured() bool { return g.model != nil }

func (g *ModelGenerator) Generate(ctx context.Context, p Profile) (Plan, error) {
	if g.model == nil {
		return Plan{}, ErrNotConfigured
	}
	msgs := []*schema.Message{
		schema.SystemMessage("You are an expert personal trainer and sports nutritionist. You answer with JSON only."),
		schema.UserMessage(BuildPrompt(p)),
	}
	resp, err := g.model.Generate(ctx, msgs, model.WithTemperature(Temperature))
	if err != nil {
		return Plan{}, fmt.Errorf("model generate: %w", err)
	}
	if resp == nil {
		return Plan{}, errors.New("model returned no message")
	}
	return DecodePlan(resp.Content)
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func chatModelConfig(cfg OpenAIConfig) *openai.ChatModelConfig {
	return &openai.ChatModelConfig{
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
		ResponseFormat: ResponseFormat(),
	}
}

// NewOpenAIChatModel builds an OpenAI-compatible chat model. The default base
// URL is Gemini's OpenAI-compatible endpoint. Replies are constrained to the
// plan schema.
func NewOpenAIChatModel(ctx context.Context, cfg OpenAIConfig) (ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOpenAIBase
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	m, err := openai.NewChatModel(ctx, chatModelConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return m, nil
}
