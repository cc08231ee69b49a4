package v1

import (
	"net/http"
	"strconv"

	"tether/internal/gateway/handlers"
)

// HandleListChannels returns the conversations visible to the bot.
func (r *Router) HandleListChannels(w http.ResponseWriter, req *http.Request) {
	if r.channels == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "Channel listing not available")
		return
	}

	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	channels, err := r.channels.ListChannels(req.Context(), limit)
	if err != nil {
		handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
		return
	}

	views := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, ChannelView{
			ID:        ch.ID,
			Name:      ch.Name,
			IsPrivate: ch.IsPrivate,
			IsMember:  ch.IsMember,
		})
	}

	handlers.SendJSON(w, http.StatusOK, ChannelsResponse{
		Channels: views,
		Count:    len(views),
	})
}
