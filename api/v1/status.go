package v1

import (
	"net/http"

	"tether/internal/gateway/handlers"
)

// HandleStatus returns the engine connection state, identity, and
// pipeline counters, plus the maintenance task history when a scheduler
// is attached.
func (r *Router) HandleStatus(w http.ResponseWriter, req *http.Request) {
	if r.engine == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "Engine not available")
		return
	}

	resp := StatusResponse{
		State:         r.engine.State().String(),
		UptimeSeconds: int64(r.engine.Uptime().Seconds()),
		InFlight:      r.engine.InFlight(),
		Stats:         r.engine.Stats(),
	}

	if id := r.engine.Identity(); id != nil {
		resp.Identity = &IdentityView{
			UserID: id.UserID,
			BotID:  id.BotID,
			Team:   id.Team,
		}
	}

	if r.cron != nil {
		resp.Tasks = r.cron.Status()
	}

	handlers.SendJSON(w, http.StatusOK, resp)
}
