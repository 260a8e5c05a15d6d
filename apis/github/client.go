// Package github is a minimal GitHub REST API client used by the secretary
// assistant to file and look up issues.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	defaultTimeout = 30 * time.Second
)

// issueURLPattern matches github.com issue/PR/comment URLs, e.g.
// https://github.com/owner/repo/issues/123 or .../pull/45#issuecomment-678.
var issueURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s]+)/(issues|pull)/(\d+)(?:#issuecomment-(\d+))?`)

// Reference identifies an issue, pull request, or comment parsed from a URL.
type Reference struct {
	Owner     string
	Repo      string
	Kind      string // "issues" or "pull"
	Number    string
	CommentID string // empty unless the URL points at a comment
}

// ParseReference extracts an issue/PR/comment reference from a GitHub URL.
func ParseReference(url string) (Reference, bool) {
	m := issueURLPattern.FindStringSubmatch(url)
	if m == nil {
		return Reference{}, false
	}
	return Reference{
		Owner:     m[1],
		Repo:      m[2],
		Kind:      m[3],
		Number:    m[4],
		CommentID: m[5],
	}, true
}

// Client is a GitHub REST API client authenticated by a personal access
// token.
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

// WithToken sets the access token.
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

// New creates a GitHub client. The token defaults to the
// GITHUB_PERSONAL_ACCESS_TOKEN environment variable.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   os.Getenv("GITHUB_PERSONAL_ACCESS_TOKEN"),
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
		return nil, goerr.Wrap(factagent.ErrNoCredential, "GITHUB_PERSONAL_ACCESS_TOKEN is not set")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal GitHub request")
		}
		body = bytes.NewReader(raw)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call GitHub API", goerr.V("url", url))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GitHub response")
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
		return nil, goerr.Wrap(factagent.ErrRemoteAPI, "GitHub API request failed",
			goerr.V("status_code", resp.StatusCode),
			goerr.V("detail", detail),
		)
	}

	var result any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, goerr.Wrap(err, "failed to decode GitHub response")
		}
	}
	return result, nil
}

// IssueInput is the content of a new issue.
type IssueInput struct {
	Owner     string
	Repo      string
	Title     string
	Body      string
	Assignees []string
	Labels    []string
}

// CreateIssue files a new issue in the given repository.
func (c *Client) CreateIssue(ctx context.Context, input IssueInput) (map[string]any, error) {
	if input.Owner == "" || input.Repo == "" || input.Title == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "owner, repo, and title are required")
	}

	payload := map[string]any{"title": input.Title}
	if input.Body != "" {
		payload["body"] = input.Body
	}
	if len(input.Assignees) > 0 {
		payload["assignees"] = input.Assignees
	}
	if len(input.Labels) > 0 {
		payload["labels"] = input.Labels
	}

	result, err := c.do(ctx, http.MethodPost, fmt.Sprintf("repos/%s/%s/issues", input.Owner, input.Repo), payload)
	if err != nil {
		return nil, err
	}
	issue, _ := result.(map[string]any)
	return issue, nil
}

// GetIssue retrieves an issue by repository and number.
func (c *Client) GetIssue(ctx context.Context, owner, repo, number string) (map[string]any, error) {
	result, err := c.do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s/issues/%s", owner, repo, number), nil)
	if err != nil {
		return nil, err
	}
	issue, _ := result.(map[string]any)
	return issue, nil
}

// GetPullRequest retrieves a pull request by repository and number.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo, number string) (map[string]any, error) {
	result, err := c.do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s/pulls/%s", owner, repo, number), nil)
	if err != nil {
		return nil, err
	}
	pr, _ := result.(map[string]any)
	return pr, nil
}

// GetIssueComment retrieves a single issue comment by its id.
func (c *Client) GetIssueComment(ctx context.Context, owner, repo, commentID string) (map[string]any, error) {
	result, err := c.do(ctx, http.MethodGet, fmt.Sprintf("repos/%s/%s/issues/comments/%s", owner, repo, commentID), nil)
	if err != nil {
		return nil, err
	}
	comment, _ := result.(map[string]any)
	return comment, nil
}
