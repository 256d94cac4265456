package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/fitcoach/internal/audio"
	"github.com/antoniostano/fitcoach/internal/logging"
	"github.com/antoniostano/fitcoach/internal/protocol"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

// handleSpeechWS streams synthesis progress. Requests on one connection are
// served in order; chunk events precede the ready event for the same request.
func (s *Server) handleSpeechWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := logging.Ctx(ctx)

	inbound := make(chan protocol.SpeechRequest, 16)
	outbound := make(chan any, 256)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for req := range inbound {
			s.serveSpeechRequest(ctx, req, outbound)
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					log.Debugw("speech ws write failed", "error", err)
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.enqueue(ctx, outbound, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Source: "gateway",
				Detail: err.Error(),
			})
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch msg := parsed.(type) {
		case protocol.ClientControl:
			if msg.Action == "ping" {
				s.enqueue(ctx, outbound, protocol.SystemEvent{Type: protocol.TypeSystemEvent, Code: "pong"})
			}
		case protocol.SpeechRequest:
			select {
			case <-ctx.Done():
				break readLoop
			case inbound <- msg:
			}
		}
	}

	cancel()
	close(inbound)
	<-workerDone
	<-writerDone
}

func (s *Server) serveSpeechRequest(connCtx context.Context, req protocol.SpeechRequest, outbound chan<- any) {
	ctx := logging.WithRequestID(connCtx, req.RequestID)
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	text := req.Text
	if req.PlanID != "" {
		var err error
		text, err = s.scriptText(ctx, req.PlanID, req.Script, req.Day)
		if err != nil {
			code := "store_error"
			var se *scriptError
			if errors.As(err, &se) {
				code = se.code
			}
			s.enqueue(connCtx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				RequestID: req.RequestID,
				Code:      code,
				Source:    "plan",
				Detail:    err.Error(),
			})
			return
		}
	}

	res, err := s.speech.SynthesizeWithProgress(ctx, text, func(ci audio.ChunkInfo) {
		s.enqueue(connCtx, outbound, protocol.SpeechChunk{
			Type:      protocol.TypeSpeechChunk,
			RequestID: req.RequestID,
			Seq:       ci.Seq,
			Bytes:     ci.Size,
			Total:     ci.Total,
		})
	})
	if err != nil {
		ev := protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			RequestID: req.RequestID,
			Code:      "synthesis_failed",
			Source:    "speech",
			Detail:    err.Error(),
		}
		if f, ok := reliability.AsFailure(err); ok {
			_, ev.Code = failureCode(f, "synthesis_failed")
			ev.Retryable = f.Retryable
			ev.Detail = f.Message
		}
		s.enqueue(connCtx, outbound, ev)
		return
	}

	s.enqueue(connCtx, outbound, protocol.SpeechReady{
		Type:       protocol.TypeSpeechReady,
		RequestID:  req.RequestID,
		Audio:      res.Audio.DataURI(),
		MediaType:  res.Audio.MediaType,
		SampleRate: res.Audio.Format.SampleRate,
		DataLength: res.Audio.DataLength,
		Chunks:     res.Chunks,
		Cached:     res.Cached,
	})
}

// enqueue blocks until the writer accepts msg or the connection ends, so a
// ready event is never dropped behind its chunks.
func (s *Server) enqueue(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.SpeechRequest:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.SpeechChunk:
		return m.Type, true
	case protocol.SpeechReady:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
