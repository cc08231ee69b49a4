package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"tether/internal/config"
	"tether/internal/gateway/handlers"
	"tether/pkg/logger"
)

// HandleGetEngineConfig returns the mutable engine settings.
func (r *Router) HandleGetEngineConfig(w http.ResponseWriter, req *http.Request) {
	var rt config.Runtime

	handlers.SendJSON(w, http.StatusOK, EngineConfigView{
		AutoReply:       rt.AutoReply(),
		ListenOnlyTag:   rt.ListenTag(),
		HistoryDepth:    rt.HistoryDepth(),
		DispatchTimeout: rt.DispatchTimeout().String(),
	})
}

// HandleUpdateEngineConfig applies a partial engine settings update and
// persists it. Running pipelines observe the new values immediately
// because the engine reads settings at use time.
func (r *Router) HandleUpdateEngineConfig(w http.ResponseWriter, req *http.Request) {
	var body UpdateEngineConfigRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	if body.AutoReply != nil {
		if err := config.Set("engine.auto_reply", *body.AutoReply); err != nil {
			handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
			return
		}
	}

	if body.ListenOnlyTag != nil {
		if err := config.Set("engine.listen_only_tag", *body.ListenOnlyTag); err != nil {
			handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
			return
		}
	}

	if body.HistoryDepth != nil {
		if *body.HistoryDepth <= 0 {
			handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "history_depth must be positive")
			return
		}
		if err := config.Set("engine.history_depth", *body.HistoryDepth); err != nil {
			handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
			return
		}
	}

	if body.DispatchTimeout != nil {
		d, err := time.ParseDuration(*body.DispatchTimeout)
		if err != nil || d <= 0 {
			handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "dispatch_timeout must be a positive duration")
			return
		}
		if err := config.Set("engine.dispatch_timeout", d.String()); err != nil {
			handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
			return
		}
	}

	logger.Info().Msg("Engine config updated")

	r.HandleGetEngineConfig(w, req)
}
