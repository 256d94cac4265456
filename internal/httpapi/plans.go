package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
)

type createPlanRequest struct {
	UserID  string        `json:"user_id"`
	Profile *plan.Profile `json:"profile"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "invalid_request", "request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Profile == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "profile is required")
		return
	}

	rec, err := s.plans.Generate(r.Context(), req.UserID, *req.Profile)
	if err != nil {
		respondFailure(w, err, "generation_failed")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	rec, err := s.store.Latest(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// handleSamplePlan serves the demo plan the dashboard shows before the user
// has generated one.
func (s *Server) handleSamplePlan(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, plan.SamplePlan())
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, planstore.ErrNotFound) {
		respondError(w, http.StatusNotFound, "plan_not_found", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "store_error", "failed to load plan")
}

var _ PlanGenerator = (*plan.Service)(nil)
