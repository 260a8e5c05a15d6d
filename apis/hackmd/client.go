// Package hackmd is a client for the HackMD REST API, used by the secretary
// assistant to read and write collaborative notes.
package hackmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

const (
	defaultBaseURL = "https://api.hackmd.io/v1"
	defaultTimeout = 30 * time.Second
)

// noteIDPattern matches a HackMD note id inside a URL or path: an opaque
// 16-22 character token, possibly URL-encoded behind a team path.
var noteIDPattern = regexp.MustCompile(`(?:/|%2F)?([A-Za-z0-9_-]{16,22})(?:[/?#]|$)`)

// ExtractNoteID pulls a note id out of a HackMD URL or raw id string.
// Returns an empty string when nothing id-shaped is found.
func ExtractNoteID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := noteIDPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Client is a HackMD REST API client authenticated by a bearer token.
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

// WithToken sets the API token.
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

// New creates a HackMD client. The token defaults to the HACKMD_API_TOKEN
// environment variable.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   os.Getenv("HACKMD_API_TOKEN"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (any, error) {
	if c.token == "" {
		return nil, goerr.Wrap(factagent.ErrNoCredential, "HACKMD_API_TOKEN is not set")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal HackMD request")
		}
		body = bytes.NewReader(raw)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create HackMD request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call HackMD API", goerr.V("url", url))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read HackMD response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(raw)
		var errBody map[string]any
		if json.Unmarshal(raw, &errBody) == nil {
			if msg, ok := errBody["message"].(string); ok {
				detail = msg
			}
		}
		return nil, goerr.Wrap(factagent.ErrRemoteAPI, "HackMD API request failed",
			goerr.V("status_code", resp.StatusCode),
			goerr.V("detail", detail),
		)
	}

	if len(raw) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode HackMD response")
	}
	return result, nil
}

// GetNote reads a note's content and metadata by id.
func (c *Client) GetNote(ctx context.Context, noteID string) (map[string]any, error) {
	result, err := c.do(ctx, http.MethodGet, "notes/"+noteID, nil)
	if err != nil {
		return nil, err
	}
	note, _ := result.(map[string]any)
	return note, nil
}

// NoteInput is the attribute set for creating or updating a note. Nil fields
// are omitted from the request.
type NoteInput struct {
	Title             *string
	Content           *string
	ReadPermission    *string
	WritePermission   *string
	CommentPermission *string
	Permalink         *string
}

func (n NoteInput) payload() map[string]any {
	payload := map[string]any{}
	if n.Title != nil {
		payload["title"] = *n.Title
	}
	if n.Content != nil {
		payload["content"] = *n.Content
	}
	if n.ReadPermission != nil {
		payload["readPermission"] = *n.ReadPermission
	}
	if n.WritePermission != nil {
		payload["writePermission"] = *n.WritePermission
	}
	if n.CommentPermission != nil {
		payload["commentPermission"] = *n.CommentPermission
	}
	if n.Permalink != nil {
		payload["permalink"] = *n.Permalink
	}
	return payload
}

// CreateNote creates a new note. At least one attribute must be set.
func (c *Client) CreateNote(ctx context.Context, input NoteInput) (map[string]any, error) {
	payload := input.payload()
	if len(payload) == 0 {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "cannot create an empty note")
	}

	result, err := c.do(ctx, http.MethodPost, "notes", payload)
	if err != nil {
		return nil, err
	}
	note, _ := result.(map[string]any)
	return note, nil
}

// UpdateNote patches an existing note. Returns the updated note when the API
// echoes it back, or nil on a bare success status.
func (c *Client) UpdateNote(ctx context.Context, noteID string, input NoteInput) (map[string]any, error) {
	payload := input.payload()
	if len(payload) == 0 {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "no update parameters provided")
	}

	result, err := c.do(ctx, http.MethodPatch, "notes/"+noteID, payload)
	if err != nil {
		return nil, err
	}
	note, _ := result.(map[string]any)
	return note, nil
}
