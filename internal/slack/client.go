package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Defaults for the Web API client.
const (
	DefaultAPIBase = "https://slack.com/api"
	DefaultTimeout = 30 * time.Second

	listPageSize = 200
)

// Config configures the Web API client.
type Config struct {
	BotToken string
	AppToken string
	APIBase  string
	Timeout  time.Duration
}

// Client is the Slack Web API client. Event-side calls use the bot
// token; apps.connections.open uses the app token.
type Client struct {
	apiBase    string
	botToken   string
	appToken   string
	httpClient *http.Client
}

// NewClient creates a Web API client.
func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		apiBase:  cfg.APIBase,
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type authTestResponse struct {
	apiResponse
	URL    string `json:"url"`
	Team   string `json:"team"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	BotID  string `json:"bot_id"`
}

type postMessageResponse struct {
	apiResponse
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

type connectionsOpenResponse struct {
	apiResponse
	URL string `json:"url"`
}

type conversationsListResponse struct {
	apiResponse
	Channels         []Channel `json:"channels"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// AuthTest resolves the authenticated identity for the bot token.
func (c *Client) AuthTest(ctx context.Context) (*Identity, error) {
	var resp authTestResponse
	if err := c.postJSON(ctx, "auth.test", c.botToken, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Method: "auth.test", Code: resp.Error}
	}

	return &Identity{
		UserID: resp.UserID,
		BotID:  resp.BotID,
		Team:   resp.Team,
		TeamID: resp.TeamID,
	}, nil
}

// PostMessage publishes text to a channel, threaded when threadTS is
// set, and returns the platform message ref (ts).
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	body := map[string]string{
		"channel": channel,
		"text":    text,
	}
	if threadTS != "" {
		body["thread_ts"] = threadTS
	}

	var resp postMessageResponse
	if err := c.postJSON(ctx, "chat.postMessage", c.botToken, body, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", &APIError{Method: "chat.postMessage", Code: resp.Error}
	}
	return resp.TS, nil
}

// AddReaction puts an emoji marker on a message. An already_reacted
// answer counts as success so marker retries stay idempotent.
func (c *Client) AddReaction(ctx context.Context, channel, name, ref string) error {
	body := map[string]string{
		"channel":   channel,
		"name":      name,
		"timestamp": ref,
	}

	var resp apiResponse
	if err := c.postJSON(ctx, "reactions.add", c.botToken, body, &resp); err != nil {
		return err
	}
	if !resp.OK && resp.Error != "already_reacted" {
		return &APIError{Method: "reactions.add", Code: resp.Error}
	}
	return nil
}

// RemoveReaction clears an emoji marker. A no_reaction answer counts
// as success so clearing an absent marker stays idempotent.
func (c *Client) RemoveReaction(ctx context.Context, channel, name, ref string) error {
	body := map[string]string{
		"channel":   channel,
		"name":      name,
		"timestamp": ref,
	}

	var resp apiResponse
	if err := c.postJSON(ctx, "reactions.remove", c.botToken, body, &resp); err != nil {
		return err
	}
	if !resp.OK && resp.Error != "no_reaction" {
		return &APIError{Method: "reactions.remove", Code: resp.Error}
	}
	return nil
}

// ListChannels pages through conversations.list. A positive limit caps
// the number returned; zero means all pages.
func (c *Client) ListChannels(ctx context.Context, limit int) ([]Channel, error) {
	var channels []Channel
	cursor := ""

	for {
		params := url.Values{}
		params.Set("types", "public_channel,private_channel")
		params.Set("exclude_archived", "true")
		params.Set("limit", fmt.Sprintf("%d", listPageSize))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp conversationsListResponse
		if err := c.getForm(ctx, "conversations.list", c.botToken, params, &resp); err != nil {
			return nil, err
		}
		if !resp.OK {
			return nil, &APIError{Method: "conversations.list", Code: resp.Error}
		}

		channels = append(channels, resp.Channels...)
		if limit > 0 && len(channels) >= limit {
			return channels[:limit], nil
		}

		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			return channels, nil
		}
	}
}

// ConnectionsOpen requests a fresh socket mode URL with the app token.
func (c *Client) ConnectionsOpen(ctx context.Context) (string, error) {
	if c.appToken == "" {
		return "", ErrNoToken
	}

	var resp connectionsOpenResponse
	if err := c.postJSON(ctx, "apps.connections.open", c.appToken, nil, &resp); err != nil {
		return "", err
	}
	if !resp.OK {
		return "", &APIError{Method: "apps.connections.open", Code: resp.Error}
	}
	return resp.URL, nil
}

// postJSON sends an authorized JSON POST to a Web API method.
func (c *Client) postJSON(ctx context.Context, method, token string, body, out any) error {
	if token == "" {
		return ErrNoToken
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/"+method, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, method, out)
}

// getForm sends an authorized GET with query parameters.
func (c *Client) getForm(ctx context.Context, method, token string, params url.Values, out any) error {
	if token == "" {
		return ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrInvalidResponse, method, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponse, method, err)
	}
	return nil
}
