package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/vtxana/pkg/metrics"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	provider StatusProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(provider StatusProvider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

type healthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
	State  string `json:"state"`
}

// HandleHealth handles GET /healthz requests. A failed run reports 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	st := h.provider.Status(r.Context())
	resp := healthResponse{Status: "ok", RunID: st.RunID, State: st.State}
	if st.State == StateFailed {
		resp.Status = "failing"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NewMetricsHandler serves the vtxana metrics registry.
func NewMetricsHandler() http.Handler {
	// Use our custom metrics registry to serve metrics
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
