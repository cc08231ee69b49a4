package v1

import (
	"net/http"
	"strconv"

	"tether/internal/gateway/handlers"
	"tether/internal/store"
)

const defaultEventCount = 20

// HandleListEvents returns the newest stored events, oldest first.
// The count query parameter bounds the slice.
func (r *Router) HandleListEvents(w http.ResponseWriter, req *http.Request) {
	if r.eventLog == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "Event log not available")
		return
	}

	count := defaultEventCount
	if raw := req.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	events, err := r.eventLog.Tail(count)
	if err != nil {
		handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
		return
	}

	if events == nil {
		events = []store.Record{}
	}

	handlers.SendJSON(w, http.StatusOK, EventsResponse{
		Events: events,
		Count:  len(events),
	})
}
