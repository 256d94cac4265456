package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antoniostano/fitcoach/internal/audio"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice   = "Zephyr"
)

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiProvider streams speech from the Gemini generateContent API over SSE.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &GeminiProvider{cfg: cfg, client: client}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Configured() bool { return strings.TrimSpace(p.cfg.APIKey) != "" }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	Temperature        float64            `json:"temperature"`
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type geminiStreamChunk struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *geminiError) Error() string {
	return fmt.Sprintf("gemini stream error %d %s: %s", e.Code, e.Status, e.Message)
}

func (p *GeminiProvider) OpenStream(ctx context.Context, req Request) (audio.ChunkStream, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = defaultGeminiVoice
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Text}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:        1,
			ResponseModalities: []string{"AUDIO"},
		},
	}
	body.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voice

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(strings.TrimRight(p.cfg.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(model) + ":streamGenerateContent")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("alt", "sse")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &reliability.StatusError{Provider: p.Name(), Code: res.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	scanner := bufio.NewScanner(res.Body)
	// Each event carries a whole base64 audio chunk on one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	return &geminiStream{body: res.Body, scanner: scanner}, nil
}

type geminiStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func (s *geminiStream) Recv() (audio.Chunk, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk geminiStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return audio.Chunk{}, fmt.Errorf("decode stream event: %w", err)
		}
		if chunk.Error != nil {
			return audio.Chunk{}, chunk.Error
		}
		return chunkFromGemini(chunk), nil
	}
	if err := s.scanner.Err(); err != nil {
		return audio.Chunk{}, fmt.Errorf("stream read: %w", err)
	}
	return audio.Chunk{}, io.EOF
}

func (s *geminiStream) Close() error { return s.body.Close() }

// chunkFromGemini reads the first part of the first candidate, which is where
// the API places inline audio.
func chunkFromGemini(c geminiStreamChunk) audio.Chunk {
	if len(c.Candidates) == 0 || len(c.Candidates[0].Content.Parts) == 0 {
		return audio.Chunk{}
	}
	inline := c.Candidates[0].Content.Parts[0].InlineData
	if inline == nil {
		return audio.Chunk{}
	}
	return audio.Chunk{MIMEType: inline.MIMEType, Data: inline.Data}
}

// retryableStreamError reports whether an in-stream error is transient.
func retryableStreamError(err error) bool {
	var ge *geminiError
	if errors.As(err, &ge) {
		return reliability.IsRetryableUpstreamStatus(ge.Status) || reliability.IsRetryableHTTPStatus(ge.Code)
	}
	return reliability.IsRetryable(err)
}
