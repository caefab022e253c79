package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		jsonError(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}
	resp := map[string]any{
		"extraction": s.metrics.ExtractLatency.Snapshot(),
		"ranking":    s.metrics.RankLatency.Snapshot(),
	}
	if s.orchestrator != nil {
		resp["queue_depth"] = s.orchestrator.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
