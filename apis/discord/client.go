// Package discord is a minimal Discord REST API client used by the secretary
// assistant to read channel history.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"
	defaultTimeout = 30 * time.Second
)

// Client is a Discord REST API client authenticated by a bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithToken sets the bot token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a Discord client. The token defaults to the DISCORD_BOT_TOKEN
// environment variable.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   os.Getenv("DISCORD_BOT_TOKEN"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	if c.token == "" {
		return nil, goerr.Wrap(factagent.ErrNoCredential, "DISCORD_BOT_TOKEN is not set")
	}

	reqURL := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Discord request")
	}
	// The bot token scheme, not Bearer.
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call Discord API", goerr.V("url", reqURL))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read Discord response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(raw)
		var errBody map[string]any
		if json.Unmarshal(raw, &errBody) == nil {
			if msg, ok := errBody["message"].(string); ok {
				detail = msg
			}
			if errs, ok := errBody["errors"]; ok {
				detail = fmt.Sprintf("%s (details: %v)", detail, errs)
			}
		}
		return nil, goerr.Wrap(factagent.ErrRemoteAPI, "Discord API request failed",
			goerr.V("status_code", resp.StatusCode),
			goerr.V("detail", detail),
		)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode Discord response")
	}
	return result, nil
}

// ChannelMessages fetches recent messages from a channel. The limit is
// clamped to the API's 1-100 range.
func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int) ([]any, error) {
	if channelID == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "channel_id is required")
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))

	result, err := c.get(ctx, "channels/"+channelID+"/messages", params)
	if err != nil {
		return nil, err
	}
	messages, _ := result.([]any)
	return messages, nil
}
