package api

import (
	"net/http"
)

// Run states reported in Status.State.
const (
	StateStarting  = "starting"
	StateRunning   = "running"
	StateFinishing = "finishing"
	StateDone      = "done"
	StateFailed    = "failed"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatusProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatusProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.Status(r.Context()))
}
