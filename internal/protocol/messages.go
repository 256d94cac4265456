package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeSpeechRequest MessageType = "speech_request"
	TypeClientControl MessageType = "client_control"
	TypeSpeechChunk   MessageType = "speech_chunk"
	TypeSpeechReady   MessageType = "speech_ready"
	TypeSystemEvent   MessageType = "system_event"
	TypeErrorEvent    MessageType = "error_event"
)

// Scripts a speech request can ask for instead of free text.
const (
	ScriptWorkout = "workout"
	ScriptDiet    = "diet"
	ScriptWelcome = "welcome"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// SpeechRequest asks for audio of either Text or a script built from a
// stored plan.
type SpeechRequest struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id"`
	Text      string      `json:"text,omitempty"`
	PlanID    string      `json:"plan_id,omitempty"`
	Script    string      `json:"script,omitempty"`
	Day       int         `json:"day,omitempty"`
}

type ClientControl struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

type SpeechChunk struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id"`
	Seq       int         `json:"seq"`
	Bytes     int         `json:"bytes"`
	Total     int         `json:"total"`
}

type SpeechReady struct {
	Type       MessageType `json:"type"`
	RequestID  string      `json:"request_id"`
	Audio      string      `json:"audio"`
	MediaType  string      `json:"media_type"`
	SampleRate int         `json:"sample_rate,omitempty"`
	DataLength int         `json:"data_length"`
	Chunks     int         `json:"chunks"`
	Cached     bool        `json:"cached"`
}

type SystemEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeSpeechRequest:
		var msg SpeechRequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if err := validateSpeechRequest(msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

func validateSpeechRequest(msg SpeechRequest) error {
	if strings.TrimSpace(msg.RequestID) == "" {
		return errors.New("invalid speech_request: request_id is required")
	}
	hasText := strings.TrimSpace(msg.Text) != ""
	hasScript := strings.TrimSpace(msg.PlanID) != "" || msg.Script != ""
	switch {
	case hasText && hasScript:
		return errors.New("invalid speech_request: text and plan script are exclusive")
	case hasText:
		return nil
	case msg.PlanID == "":
		return errors.New("invalid speech_request: text or plan_id is required")
	}
	switch msg.Script {
	case ScriptWorkout, ScriptDiet, ScriptWelcome:
	default:
		return fmt.Errorf("invalid speech_request: unknown script %q", msg.Script)
	}
	if msg.Day < 0 {
		return errors.New("invalid speech_request: day must not be negative")
	}
	return nil
}
