package handler

import (
	"net/http"
	"time"
)

// Simulation is the running state of the local simulation.
type Simulation interface {
	Running() bool
	MarketIDs() []string
	Ticks() int64
}

// Leadership reports whether this node drives the simulation.
type Leadership interface {
	Leading() bool
}

// StatusHandler serves the backend status for the dashboard.
type StatusHandler struct {
	Mode      string
	SessionID string
	StartedAt time.Time

	sim    Simulation
	leader Leadership
}

// NewStatusHandler creates a StatusHandler. leader may be nil when the node
// always drives its own simulation.
func NewStatusHandler(mode, sessionID string, startedAt time.Time, sim Simulation, leader Leadership) *StatusHandler {
	return &StatusHandler{
		Mode:      mode,
		SessionID: sessionID,
		StartedAt: startedAt,
		sim:       sim,
		leader:    leader,
	}
}

// GetStatus responds with the mode, leadership and simulation progress.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	leading := true
	if h.leader != nil {
		leading = h.leader.Leading()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"session_id":     h.SessionID,
		"leading":        leading,
		"running":        h.sim.Running(),
		"ticks":          h.sim.Ticks(),
		"markets":        len(h.sim.MarketIDs()),
		"started_at":     h.StartedAt.UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	})
}
