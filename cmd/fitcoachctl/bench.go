package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/antoniostano/fitcoach/internal/protocol"
)

var defaultBenchTexts = []string{
	"Let's get moving. Three sets of ten squats.",
	"Rest for 60 seconds between sets.",
	"Stay hydrated and stick to the plan.",
	"Great work. Go crush it.",
}

type benchOptions struct {
	baseURL  string
	requests int
	texts    []string
	timeout  time.Duration
}

type benchSample struct {
	firstChunk time.Duration
	ready      time.Duration
	chunks     int
	bytes      int
	cached     bool
}

type benchReport struct {
	samples []benchSample
	errors  int
}

func (c *cli) benchCmd() *cobra.Command {
	var opts benchOptions
	var textsRaw string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure speech latency over the websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.texts = splitTexts(textsRaw)
			if opts.requests <= 0 {
				return fmt.Errorf("requests must be > 0")
			}
			report, err := runBench(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report.print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "http://127.0.0.1:8080", "fitcoach base URL")
	cmd.Flags().IntVar(&opts.requests, "requests", 8, "number of speech requests")
	cmd.Flags().StringVar(&textsRaw, "texts", "", "utterances separated by '|' (optional)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "timeout per request")
	return cmd
}

func splitTexts(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultBenchTexts...)
	}
	return out
}

func speechWSURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/speech/ws"
	return u.String(), nil
}

// runBench sends requests one at a time so latencies are not skewed by
// queueing behind earlier requests on the same connection.
func runBench(ctx context.Context, opts benchOptions, logw io.Writer) (benchReport, error) {
	wsURL, err := speechWSURL(opts.baseURL)
	if err != nil {
		return benchReport{}, fmt.Errorf("build ws URL: %w", err)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return benchReport{}, fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	var report benchReport
	for i := 0; i < opts.requests; i++ {
		text := opts.texts[i%len(opts.texts)]
		sample, err := benchOne(conn, text, opts.timeout)
		if err != nil {
			var ev *benchErrorEvent
			if !errors.As(err, &ev) {
				return report, fmt.Errorf("request %d: %w", i+1, err)
			}
			fmt.Fprintf(logw, "bench: request %d error_event code=%s detail=%s\n", i+1, ev.Code, ev.Detail)
			report.errors++
			continue
		}
		report.samples = append(report.samples, sample)
	}
	return report, nil
}

type benchErrorEvent struct {
	protocol.ErrorEvent
}

func (e *benchErrorEvent) Error() string { return e.Code + ": " + e.Detail }

func benchOne(conn *websocket.Conn, text string, timeout time.Duration) (benchSample, error) {
	requestID := uuid.NewString()
	started := time.Now()
	_ = conn.SetWriteDeadline(started.Add(10 * time.Second))
	if err := conn.WriteJSON(protocol.SpeechRequest{
		Type:      protocol.TypeSpeechRequest,
		RequestID: requestID,
		Text:      text,
	}); err != nil {
		return benchSample{}, fmt.Errorf("send speech_request: %w", err)
	}

	var sample benchSample
	_ = conn.SetReadDeadline(started.Add(timeout))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return benchSample{}, fmt.Errorf("ws read: %w", err)
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case protocol.TypeSpeechChunk:
			if sample.firstChunk == 0 {
				sample.firstChunk = time.Since(started)
			}
		case protocol.TypeSpeechReady:
			var ready protocol.SpeechReady
			if err := json.Unmarshal(data, &ready); err != nil {
				return benchSample{}, err
			}
			if ready.RequestID != requestID {
				continue
			}
			sample.ready = time.Since(started)
			sample.chunks = ready.Chunks
			sample.bytes = ready.DataLength
			sample.cached = ready.Cached
			return sample, nil
		case protocol.TypeErrorEvent:
			var ev protocol.ErrorEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				return benchSample{}, err
			}
			if ev.RequestID == requestID || ev.RequestID == "" {
				return benchSample{}, &benchErrorEvent{ErrorEvent: ev}
			}
		}
	}
}

func percentile(values []time.Duration, p float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}

func (r benchReport) print(w io.Writer) {
	var first, ready []time.Duration
	var cached, totalBytes int
	for _, s := range r.samples {
		ready = append(ready, s.ready)
		if s.firstChunk > 0 {
			first = append(first, s.firstChunk)
		}
		if s.cached {
			cached++
		}
		totalBytes += s.bytes
	}
	fmt.Fprintf(w, "requests: %d ok, %d failed, %d cached\n", len(r.samples), r.errors, cached)
	fmt.Fprintf(w, "audio: %s total\n", humanize.Bytes(uint64(totalBytes)))
	fmt.Fprintf(w, "first chunk: p50=%s p95=%s\n", percentile(first, 0.50), percentile(first, 0.95))
	fmt.Fprintf(w, "ready:       p50=%s p95=%s\n", percentile(ready, 0.50), percentile(ready, 0.95))
}
