package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"tether/internal/actions"
	"tether/internal/gateway/handlers"
)

// HandleListActions returns the registered action allow-list.
func (r *Router) HandleListActions(w http.ResponseWriter, req *http.Request) {
	if r.actions == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "Actions not available")
		return
	}

	views := make([]ActionView, 0, r.actions.Len())
	for _, a := range r.actions.List() {
		views = append(views, ActionView{
			Name:        a.Name(),
			Description: a.Description(),
		})
	}

	handlers.SendJSON(w, http.StatusOK, ActionsResponse{Actions: views})
}

// HandleExecuteAction runs one allow-listed action by name. An empty
// body is accepted as an invocation with no arguments.
func (r *Router) HandleExecuteAction(w http.ResponseWriter, req *http.Request) {
	if r.actions == nil {
		handlers.SendError(w, http.StatusServiceUnavailable, handlers.ErrCodeServiceUnavailable, "Actions not available")
		return
	}

	name := mux.Vars(req)["name"]

	var body ExecuteActionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, "Invalid JSON body")
		return
	}

	result, err := r.actions.Execute(req.Context(), name, body.Args)
	if err != nil {
		var unknown *actions.UnknownActionError
		if errors.As(err, &unknown) {
			handlers.SendError(w, http.StatusNotFound, handlers.ErrCodeNotFound, err.Error())
			return
		}
		var invalid *actions.InvalidArgsError
		if errors.As(err, &invalid) {
			handlers.SendError(w, http.StatusBadRequest, handlers.ErrCodeInvalidRequest, err.Error())
			return
		}
		handlers.SendError(w, http.StatusInternalServerError, handlers.ErrCodeInternalError, err.Error())
		return
	}

	handlers.SendJSON(w, http.StatusOK, ExecuteActionResponse{
		Action:   name,
		Content:  result.Content,
		Metadata: result.Metadata,
	})
}
