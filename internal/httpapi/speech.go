package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
	"github.com/antoniostano/fitcoach/internal/protocol"
	"github.com/antoniostano/fitcoach/internal/speech"
)

type speechRequest struct {
	Text string `json:"text"`
}

type speechResponse struct {
	Audio      string `json:"audio"`
	MediaType  string `json:"media_type"`
	SampleRate int    `json:"sample_rate,omitempty"`
	DataLength int    `json:"data_length"`
	Chunks     int    `json:"chunks"`
	Cached     bool   `json:"cached"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "body must be {\"text\": \"...\"}")
		return
	}
	s.synthesizeAndRespond(w, r, req.Text)
}

func (s *Server) handlePlanSpeech(w http.ResponseWriter, r *http.Request) {
	day := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("day")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_day", "day must be a non-negative integer")
			return
		}
		day = n
	}

	text, err := s.scriptText(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "script"), day)
	if err != nil {
		var se *scriptError
		if errors.As(err, &se) {
			respondError(w, se.status, se.code, se.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "store_error", "failed to load plan")
		return
	}
	s.synthesizeAndRespond(w, r, text)
}

func (s *Server) synthesizeAndRespond(w http.ResponseWriter, r *http.Request, text string) {
	res, err := s.speech.SynthesizeWithProgress(r.Context(), text, nil)
	if err != nil {
		respondFailure(w, err, "synthesis_failed")
		return
	}

	if wantsRawAudio(r) {
		w.Header().Set("Content-Type", res.Audio.MediaType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio.Data)))
		w.Header().Set("X-Audio-Chunks", strconv.Itoa(res.Chunks))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Audio.Data)
		return
	}
	respondJSON(w, http.StatusOK, speechResponse{
		Audio:      res.Audio.DataURI(),
		MediaType:  res.Audio.MediaType,
		SampleRate: res.Audio.Format.SampleRate,
		DataLength: res.Audio.DataLength,
		Chunks:     res.Chunks,
		Cached:     res.Cached,
	})
}

func wantsRawAudio(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "raw") {
		return true
	}
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "audio/wav") || strings.Contains(accept, "audio/*")
}

type scriptError struct {
	status int
	code   string
	msg    string
}

func (e *scriptError) Error() string { return e.msg }

// scriptText loads a stored plan and renders the requested coaching script.
func (s *Server) scriptText(ctx context.Context, planID, script string, day int) (string, error) {
	rec, err := s.store.Get(ctx, strings.TrimSpace(planID))
	if err != nil {
		if errors.Is(err, planstore.ErrNotFound) {
			return "", &scriptError{status: http.StatusNotFound, code: "plan_not_found", msg: err.Error()}
		}
		return "", err
	}
	switch script {
	case protocol.ScriptWorkout:
		text, err := plan.WorkoutScript(rec.Plan, day)
		if err != nil {
			return "", &scriptError{status: http.StatusBadRequest, code: "invalid_day", msg: err.Error()}
		}
		return text, nil
	case protocol.ScriptDiet:
		return plan.DietScript(rec.Plan), nil
	case protocol.ScriptWelcome:
		return plan.WelcomeScript(rec.Plan), nil
	default:
		return "", &scriptError{status: http.StatusNotFound, code: "unknown_script", msg: fmt.Sprintf("unknown script %q", script)}
	}
}

var _ Synthesizer = (*speech.Service)(nil)
