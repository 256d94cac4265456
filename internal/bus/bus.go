// Package bus publishes service events to NATS so other systems can react to
// new plans and synthesized audio without polling the API.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectPlanGenerated     = "fitcoach.plan.generated"
	SubjectSpeechSynthesized = "fitcoach.speech.synthesized"
)

// PlanGenerated is published after a plan is stored.
type PlanGenerated struct {
	PlanID    string    `json:"plan_id"`
	UserID    string    `json:"user_id"`
	Focus     string    `json:"focus"`
	Split     string    `json:"split"`
	Days      int       `json:"days"`
	CreatedAt time.Time `json:"created_at"`
}

// SpeechSynthesized is published after a container is produced.
type SpeechSynthesized struct {
	RequestID  string `json:"request_id,omitempty"`
	MediaType  string `json:"media_type"`
	SampleRate int    `json:"sample_rate"`
	DataLength int    `json:"data_length"`
	Chunks     int    `json:"chunks"`
	Cached     bool   `json:"cached"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close()
}

// NopPublisher drops every event. It is used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close()                                     {}

// NATSPublisher publishes JSON events on a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

func Connect(url string) (*NATSPublisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("fitcoach"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Healthy() bool {
	return p != nil && p.conn != nil && p.conn.Status() == nats.CONNECTED
}

func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
	p.conn.Close()
}
