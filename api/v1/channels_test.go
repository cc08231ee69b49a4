package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tether/internal/slack"
)

func TestHandleListChannels(t *testing.T) {
	lister := &mockChannelLister{
		channels: []slack.Channel{
			{ID: "C1", Name: "general", IsMember: true},
			{ID: "C2", Name: "ops", IsPrivate: true},
		},
	}
	router := NewRouter(&RouterDeps{Channels: lister})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/channels?limit=50", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp ChannelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Channels[0].ID != "C1" || !resp.Channels[0].IsMember {
		t.Errorf("channel[0] = %+v", resp.Channels[0])
	}
	if resp.Channels[1].Name != "ops" || !resp.Channels[1].IsPrivate {
		t.Errorf("channel[1] = %+v", resp.Channels[1])
	}
	if lister.limit != 50 {
		t.Errorf("limit = %d, want 50", lister.limit)
	}
}

func TestHandleListChannelsError(t *testing.T) {
	router := NewRouter(&RouterDeps{
		Channels: &mockChannelLister{err: errors.New("conversations.list failed")},
	})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/channels", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandleListChannelsBadLimit(t *testing.T) {
	router := NewRouter(&RouterDeps{Channels: &mockChannelLister{}})

	w := serve(router, httptest.NewRequest("GET", "/api/v1/channels?limit=-1", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
