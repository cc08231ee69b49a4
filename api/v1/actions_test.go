package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tether/internal/actions"
)

// echoAction records its arguments and returns a fixed result.
type echoAction struct {
	name string
	err  error
	args map[string]any
}

func (a *echoAction) Name() string        { return a.name }
func (a *echoAction) Description() string { return "echoes arguments back" }

func (a *echoAction) Execute(ctx context.Context, args map[string]any) (actions.Result, error) {
	a.args = args
	if a.err != nil {
		return actions.Result{}, a.err
	}
	return actions.Result{
		Content:  "done",
		Metadata: map[string]any{"echo": args},
	}, nil
}

func testRegistry(t *testing.T, acts ...actions.Action) *actions.Registry {
	t.Helper()
	reg := actions.NewRegistry()
	for _, a := range acts {
		if err := reg.Register(a); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return reg
}

func TestHandleListActions(t *testing.T) {
	reg := testRegistry(t, &echoAction{name: "echo"}, &echoAction{name: "probe"})
	router := NewRouter(&RouterDeps{Actions: reg})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/actions", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp ActionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if len(resp.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(resp.Actions))
	}
	if resp.Actions[0].Description == "" {
		t.Error("description missing")
	}
}

func TestHandleExecuteAction(t *testing.T) {
	act := &echoAction{name: "echo"}
	router := NewRouter(&RouterDeps{Actions: testRegistry(t, act)})

	body := `{"args": {"channel": "C1", "text": "hello"}}`
	req := httptest.NewRequest("POST", "/api/v1/actions/echo", strings.NewReader(body))
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp ExecuteActionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if resp.Action != "echo" || resp.Content != "done" {
		t.Errorf("response = %+v", resp)
	}
	if act.args["channel"] != "C1" {
		t.Errorf("args = %+v, want channel C1", act.args)
	}
}

func TestHandleExecuteActionEmptyBody(t *testing.T) {
	act := &echoAction{name: "echo"}
	router := NewRouter(&RouterDeps{Actions: testRegistry(t, act)})

	req := httptest.NewRequest("POST", "/api/v1/actions/echo", nil)
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if act.args != nil {
		t.Errorf("args = %+v, want nil", act.args)
	}
}

func TestHandleExecuteActionErrors(t *testing.T) {
	reg := testRegistry(t,
		&echoAction{name: "broken", err: errors.New("platform said no")},
		&echoAction{name: "picky", err: actions.NewInvalidArgsError("picky", "channel is required", nil)},
	)
	router := NewRouter(&RouterDeps{Actions: reg})

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"unknown action", "/api/v1/actions/missing", "", http.StatusNotFound},
		{"invalid args", "/api/v1/actions/picky", "", http.StatusBadRequest},
		{"execution failure", "/api/v1/actions/broken", "", http.StatusInternalServerError},
		{"malformed body", "/api/v1/actions/broken", `{"args":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body == "" {
				body = strings.NewReader("")
			} else {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest("POST", tt.path, body)
			w := serve(router, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}
