package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/reliability"
)

// failureCode maps a failure to an HTTP status and stable error code.
// upstreamCode names the operation that failed upstream.
func failureCode(f *reliability.Failure, upstreamCode string) (int, string) {
	switch f.Kind {
	case reliability.KindConfig:
		return http.StatusServiceUnavailable, "provider_not_configured"
	case reliability.KindEmpty:
		return http.StatusBadGateway, "no_audio"
	case reliability.KindInvalid:
		return http.StatusBadRequest, "invalid_request"
	default:
		if errors.Is(f.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, upstreamCode
		}
		return http.StatusBadGateway, upstreamCode
	}
}

func respondFailure(w http.ResponseWriter, err error, upstreamCode string) {
	f, ok := reliability.AsFailure(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	status, code := failureCode(f, upstreamCode)
	resp := errorResponse{Error: f.Message, Code: code, Retryable: f.Retryable}

	var ve *plan.ValidationError
	if errors.As(err, &ve) {
		resp.Code = "invalid_profile"
		resp.Fields = ve.Fields
	}
	respondJSON(w, status, resp)
}
