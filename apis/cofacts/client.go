// Package cofacts is a client for the Cofacts fact-checking database GraphQL
// API. Articles are suspicious messages reported by LINE users; each article
// carries community fact-check replies and reply requests.
package cofacts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

const (
	defaultEndpoint = "https://api.cofacts.tw/graphql"
	defaultTimeout  = 30 * time.Second
)

// commonArticleFields is shared by every article-returning query so the
// agents always see the same article shape.
const commonArticleFields = `
fragment CommonArticleFields on Article {
  id
  text
  createdAt
  articleType
  attachmentUrl(variant: PREVIEW)
  factCheckCount: replyCount
  communityDemandCount: replyRequestCount
  hyperlinks {
    url
    title
    summary
    status
    error
  }
  factCheckResponses: articleReplies(statuses: [NORMAL]) {
    id
    reply {
      id
      type
      text
      createdAt
      reference
      user {
        name
      }
      hyperlinks {
        url
        normalizedUrl
        title
        summary
        topImageUrl
        status
        error
      }
    }
    user {
      name
    }
    createdAt
    helpfulCount: positiveFeedbackCount
    unhelpfulCount: negativeFeedbackCount
    feedbacks(statuses: [NORMAL]) {
      vote
      comment
      createdAt
      user {
        name
      }
    }
  }
  additionalContext: replyRequests(statuses: [NORMAL]) {
    user {
      name
    }
    reason
    createdAt
    helpfulCount: positiveFeedbackCount
    unhelpfulCount: negativeFeedbackCount
  }
  bundledMessages: cooccurrences {
    id
    articleIds
    createdAt
    articles {
      id
      text
      articleType
      attachmentUrl(variant: PREVIEW)
    }
  }
  relatedArticles(first: 10) {
    totalCount
    edges {
      node {
        id
        text
        articleType
        factCheckCount: replyCount
        createdAt
        factCheckResponses: articleReplies(statuses: [NORMAL]) {
          reply {
            id
            type
            text
          }
          helpfulCount: positiveFeedbackCount
          unhelpfulCount: negativeFeedbackCount
        }
      }
      score
    }
  }
  stats(dateRange: { GTE: "now-90d/d" }) {
    date
    lineUser
    lineVisit
    webUser
    webVisit
    downstreamBotUsers: liffUser
    downstreamBotVisits: liffVisit
  }
}
`

const listArticlesQuery = commonArticleFields + `
query ListArticles($filter: ListArticleFilter!, $orderBy: [ListArticleOrderBy!]!, $first: Int!, $after: String) {
  ListArticles(
    filter: $filter
    orderBy: $orderBy
    first: $first
    after: $after
  ) {
    totalCount
    pageInfo {
      firstCursor
      lastCursor
    }
    edges {
      node {
        ...CommonArticleFields
      }
      score
      cursor
    }
  }
}
`

const getArticleQuery = commonArticleFields + `
query GetArticle($id: String!) {
  GetArticle(id: $id) {
    ...CommonArticleFields
  }
}
`

const createReplyMutation = `
mutation CreateReply($text: String!, $type: ReplyTypeEnum!, $reference: String!) {
  CreateReply(text: $text, type: $type, reference: $reference) {
    id
    text
    type
    reference
    createdAt
  }
}
`

// Client is a Cofacts GraphQL API client.
type Client struct {
	endpoint   string
	httpClient *http.Client
	apiToken   string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithEndpoint sets the GraphQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithAPIToken sets the bearer token used for write operations. Read queries
// need no credential.
func WithAPIToken(token string) Option {
	return func(c *Client) {
		c.apiToken = token
	}
}

// New creates a Cofacts client. The write-operation token defaults to the
// COFACTS_API_TOKEN environment variable.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		apiToken: os.Getenv("COFACTS_API_TOKEN"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

type graphqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []any          `json:"errors"`
}

// Query executes one GraphQL operation. A GraphQL errors array or a non-2xx
// status is reported as a remote API error with the payload attached;
// transport failures are reported separately.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	return c.query(ctx, query, variables, false)
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, authenticated bool) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal GraphQL request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GraphQL request")
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call Cofacts API", goerr.V("endpoint", c.endpoint))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read Cofacts API response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.Wrap(factagent.ErrRemoteAPI, "Cofacts API returned non-OK status",
			goerr.V("status_code", resp.StatusCode),
			goerr.V("body", string(raw)),
		)
	}

	var result graphqlResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode Cofacts API response")
	}

	if len(result.Errors) > 0 {
		return nil, goerr.Wrap(factagent.ErrRemoteAPI, "Cofacts API returned GraphQL errors",
			goerr.V("errors", result.Errors),
		)
	}

	return result.Data, nil
}

// SearchQuery is the filter set for SearchArticles. Zero values disable the
// corresponding filter.
type SearchQuery struct {
	// Text searches articles by similarity to the given message.
	Text string

	// ArticleIDs retrieves specific articles instead of a similarity search.
	ArticleIDs []string

	// Limit is the maximum number of results. Defaults to 10.
	Limit int

	// After is the pagination cursor.
	After string

	// ReplyCountMax keeps only articles with fewer fact-check replies than
	// this bound. Useful for finding articles that still need fact-checks.
	ReplyCountMax *int

	// DaysBack keeps only articles created within this many days.
	DaysBack int

	// OrderBy is "_score" (default), "replyRequestCount", or "createdAt".
	OrderBy string
}

// SearchArticles runs a ListArticles query with the given filters and returns
// the connection payload (totalCount, pageInfo, edges).
func (c *Client) SearchArticles(ctx context.Context, q SearchQuery) (map[string]any, error) {
	filter := map[string]any{}
	if q.Text != "" {
		filter["moreLikeThis"] = map[string]any{
			"like":               q.Text,
			"minimumShouldMatch": "0",
		}
	}
	if len(q.ArticleIDs) > 0 {
		filter["ids"] = q.ArticleIDs
	}
	if q.ReplyCountMax != nil {
		filter["replyCount"] = map[string]any{"LT": *q.ReplyCountMax}
	}
	if q.DaysBack > 0 {
		end := time.Now()
		start := end.AddDate(0, 0, -q.DaysBack)
		filter["createdAt"] = map[string]any{
			"GTE": start.Format(time.RFC3339),
			"LTE": end.Format(time.RFC3339),
		}
	}

	var orderBy []map[string]any
	switch q.OrderBy {
	case "replyRequestCount":
		orderBy = []map[string]any{{"replyRequestCount": "DESC"}, {"createdAt": "DESC"}}
	case "createdAt":
		orderBy = []map[string]any{{"createdAt": "DESC"}}
	default:
		orderBy = []map[string]any{{"_score": "DESC"}}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	variables := map[string]any{
		"filter":  filter,
		"orderBy": orderBy,
		"first":   limit,
	}
	if q.After != "" {
		variables["after"] = q.After
	}

	data, err := c.Query(ctx, listArticlesQuery, variables)
	if err != nil {
		return nil, err
	}

	list, _ := data["ListArticles"].(map[string]any)
	return list, nil
}

// GetArticle retrieves a single article by id. Returns nil when the article
// does not exist.
func (c *Client) GetArticle(ctx context.Context, articleID string) (map[string]any, error) {
	data, err := c.Query(ctx, getArticleQuery, map[string]any{"id": articleID})
	if err != nil {
		return nil, err
	}

	article, _ := data["GetArticle"].(map[string]any)
	return article, nil
}

// ReplyInput is the content of a fact-check reply submission.
type ReplyInput struct {
	// Type is one of RUMOR, NOT_RUMOR, OPINIONATED, NOT_ARTICLE.
	Type string

	// Text is the fact-check response body.
	Text string

	// Reference lists the source URLs and summaries.
	Reference string
}

// CreateReply submits a fact-check reply. Requires the API token; without one
// the call refuses to proceed before touching the network.
func (c *Client) CreateReply(ctx context.Context, input ReplyInput) (map[string]any, error) {
	if c.apiToken == "" {
		return nil, goerr.Wrap(factagent.ErrNoCredential, "COFACTS_API_TOKEN is not set")
	}

	data, err := c.query(ctx, createReplyMutation, map[string]any{
		"text":      input.Text,
		"type":      input.Type,
		"reference": input.Reference,
	}, true)
	if err != nil {
		return nil, err
	}

	reply, _ := data["CreateReply"].(map[string]any)
	return reply, nil
}
