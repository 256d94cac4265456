package httpapi

import (
	"net/http"
	"strings"
)

// handlePerfLatency reports the rolling latency window. Repeated or
// comma-separated ?stage= values limit the report to those stages.
func (s *Server) handlePerfLatency(w http.ResponseWriter, r *http.Request) {
	var stages []string
	for _, v := range r.URL.Query()["stage"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				stages = append(stages, name)
			}
		}
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotStages(stages...))
}
