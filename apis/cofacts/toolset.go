package cofacts

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

// ToolSet exposes the Cofacts API as agent tools. API failures are returned
// as structured error payloads rather than Go errors so a multi-step workflow
// can inspect the failure and continue with its remaining steps.
type ToolSet struct {
	client *Client
}

// NewToolSet creates a ToolSet over the given client.
func NewToolSet(client *Client) *ToolSet {
	return &ToolSet{client: client}
}

// Specs returns the specifications of the Cofacts tools.
func (x *ToolSet) Specs(ctx context.Context) ([]factagent.ToolSpec, error) {
	return []factagent.ToolSpec{
		{
			Name:        "search_cofacts_database",
			Description: "Search the Cofacts database for reported suspicious messages by text similarity, specific IDs, or recency/demand filters. Results include community fact-check responses with feedback scores.",
			Parameters: map[string]*factagent.Parameter{
				"query": {
					Type:        factagent.TypeString,
					Description: "The suspicious message or claim to search for by similarity",
				},
				"article_ids": {
					Type:        factagent.TypeArray,
					Description: "Specific article IDs to retrieve instead of a similarity search",
					Items:       &factagent.Parameter{Type: factagent.TypeString},
				},
				"limit": {
					Type:        factagent.TypeInteger,
					Description: "Maximum number of results to return (default: 10)",
				},
				"after": {
					Type:        factagent.TypeString,
					Description: "Pagination cursor; returns results after this cursor",
				},
				"reply_count_max": {
					Type:        factagent.TypeInteger,
					Description: "Only include articles with fewer fact-check replies than this (for finding articles that need fact-checks)",
				},
				"days_back": {
					Type:        factagent.TypeInteger,
					Description: "Only include articles created within this many days",
				},
				"order_by": {
					Type:        factagent.TypeString,
					Description: "Sort order for results",
					Enum:        []string{"_score", "replyRequestCount", "createdAt"},
				},
			},
		},
		{
			Name:        "get_cofacts_article",
			Description: "Get a single Cofacts article by ID with its full fact-check responses, additional context, and traffic stats. Article IDs map to URLs as https://cofacts.tw/article/{id}.",
			Parameters: map[string]*factagent.Parameter{
				"article_id": {
					Type:        factagent.TypeString,
					Description: "The Cofacts article ID to retrieve",
				},
			},
			Required: []string{"article_id"},
		},
		{
			Name:        "list_trending_articles",
			Description: "List recent articles with high community demand that still lack fact-check replies.",
			Parameters: map[string]*factagent.Parameter{
				"days_back": {
					Type:        factagent.TypeInteger,
					Description: "Only include articles created within this many days (default: 7)",
				},
				"limit": {
					Type:        factagent.TypeInteger,
					Description: "Maximum number of results to return (default: 10)",
				},
			},
		},
		{
			Name:        "submit_cofacts_reply",
			Description: "Submit a fact-check reply to a Cofacts article. Requires API credentials.",
			Parameters: map[string]*factagent.Parameter{
				"article_id": {
					Type:        factagent.TypeString,
					Description: "The Cofacts article ID to reply to",
				},
				"reply_type": {
					Type:        factagent.TypeString,
					Description: "Type of the reply",
					Enum:        []string{"RUMOR", "NOT_RUMOR", "OPINIONATED", "NOT_ARTICLE"},
				},
				"text": {
					Type:        factagent.TypeString,
					Description: "The fact-check response text",
				},
				"reference": {
					Type:        factagent.TypeString,
					Description: "URLs and summaries used as references",
				},
			},
			Required: []string{"article_id", "reply_type", "text", "reference"},
		},
	}, nil
}

// Run executes the named Cofacts tool.
func (x *ToolSet) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "search_cofacts_database":
		return x.searchDatabase(ctx, args)
	case "get_cofacts_article":
		return x.getArticle(ctx, args)
	case "list_trending_articles":
		return x.listTrending(ctx, args)
	case "submit_cofacts_reply":
		return x.submitReply(ctx, args)
	default:
		return nil, goerr.Wrap(factagent.ErrInvalidTool, "unknown Cofacts tool", goerr.V("name", name))
	}
}

func (x *ToolSet) searchDatabase(ctx context.Context, args map[string]any) (map[string]any, error) {
	q := SearchQuery{
		Text:    stringArg(args, "query"),
		After:   stringArg(args, "after"),
		OrderBy: stringArg(args, "order_by"),
		Limit:   intArg(args, "limit", 10),
	}
	if ids, ok := args["article_ids"].([]any); ok {
		for _, id := range ids {
			if s, ok := id.(string); ok {
				q.ArticleIDs = append(q.ArticleIDs, s)
			}
		}
	}
	if _, ok := args["reply_count_max"]; ok {
		bound := intArg(args, "reply_count_max", 0)
		q.ReplyCountMax = &bound
	}
	q.DaysBack = intArg(args, "days_back", 0)

	result, err := x.client.SearchArticles(ctx, q)
	if err != nil {
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "data": result}, nil
}

func (x *ToolSet) getArticle(ctx context.Context, args map[string]any) (map[string]any, error) {
	articleID := stringArg(args, "article_id")
	if articleID == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "article_id is required")
	}

	article, err := x.client.GetArticle(ctx, articleID)
	if err != nil {
		return errorPayload(err), nil
	}
	if article == nil {
		return map[string]any{
			"status":        "error",
			"error_message": "article not found",
			"article_id":    articleID,
		}, nil
	}
	return map[string]any{"status": "success", "article_id": articleID, "article": article}, nil
}

func (x *ToolSet) listTrending(ctx context.Context, args map[string]any) (map[string]any, error) {
	noReplies := 1
	q := SearchQuery{
		Limit:         intArg(args, "limit", 10),
		DaysBack:      intArg(args, "days_back", 7),
		ReplyCountMax: &noReplies,
		OrderBy:       "replyRequestCount",
	}

	result, err := x.client.SearchArticles(ctx, q)
	if err != nil {
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "data": result}, nil
}

func (x *ToolSet) submitReply(ctx context.Context, args map[string]any) (map[string]any, error) {
	articleID := stringArg(args, "article_id")
	if articleID == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "article_id is required")
	}

	reply, err := x.client.CreateReply(ctx, ReplyInput{
		Type:      stringArg(args, "reply_type"),
		Text:      stringArg(args, "text"),
		Reference: stringArg(args, "reference"),
	})
	if err != nil {
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "article_id": articleID, "reply": reply}, nil
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status":        "error",
		"error_message": err.Error(),
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
