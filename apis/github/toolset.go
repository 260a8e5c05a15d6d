package github

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

// ToolSet exposes the GitHub API as agent tools.
type ToolSet struct {
	client *Client
}

// NewToolSet creates a ToolSet over the given client.
func NewToolSet(client *Client) *ToolSet {
	return &ToolSet{client: client}
}

// Specs returns the specifications of the GitHub tools.
func (x *ToolSet) Specs(ctx context.Context) ([]factagent.ToolSpec, error) {
	return []factagent.ToolSpec{
		{
			Name:        "create_github_issue",
			Description: "Create a new issue in a GitHub repository.",
			Parameters: map[string]*factagent.Parameter{
				"owner": {
					Type:        factagent.TypeString,
					Description: "The owner of the repository",
				},
				"repo": {
					Type:        factagent.TypeString,
					Description: "The name of the repository",
				},
				"title": {
					Type:        factagent.TypeString,
					Description: "The title of the issue",
				},
				"body": {
					Type:        factagent.TypeString,
					Description: "The contents of the issue",
				},
				"assignees": {
					Type:        factagent.TypeArray,
					Description: "Logins of users to assign to the issue",
					Items:       &factagent.Parameter{Type: factagent.TypeString},
				},
				"labels": {
					Type:        factagent.TypeArray,
					Description: "Labels to associate with the issue",
					Items:       &factagent.Parameter{Type: factagent.TypeString},
				},
			},
			Required: []string{"owner", "repo", "title"},
		},
		{
			Name:        "get_github_reference",
			Description: "Look up a GitHub issue, pull request, or issue comment from its URL.",
			Parameters: map[string]*factagent.Parameter{
				"url": {
					Type:        factagent.TypeString,
					Description: "A github.com issue, pull request, or comment URL",
				},
			},
			Required: []string{"url"},
		},
	}, nil
}

// Run executes the named GitHub tool.
func (x *ToolSet) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "create_github_issue":
		return x.createIssue(ctx, args)
	case "get_github_reference":
		return x.getReference(ctx, args)
	default:
		return nil, goerr.Wrap(factagent.ErrInvalidTool, "unknown GitHub tool", goerr.V("name", name))
	}
}

func (x *ToolSet) createIssue(ctx context.Context, args map[string]any) (map[string]any, error) {
	input := IssueInput{
		Owner: stringArg(args, "owner"),
		Repo:  stringArg(args, "repo"),
		Title: stringArg(args, "title"),
		Body:  stringArg(args, "body"),
	}
	input.Assignees = stringSliceArg(args, "assignees")
	input.Labels = stringSliceArg(args, "labels")

	issue, err := x.client.CreateIssue(ctx, input)
	if err != nil {
		if errors.Is(err, factagent.ErrInvalidParameter) {
			return nil, err
		}
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "issue_data": issue}, nil
}

func (x *ToolSet) getReference(ctx context.Context, args map[string]any) (map[string]any, error) {
	url := stringArg(args, "url")
	ref, ok := ParseReference(url)
	if !ok {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "not a recognizable GitHub issue/PR/comment URL", goerr.V("url", url))
	}

	var result map[string]any
	var err error
	var kind string
	switch {
	case ref.CommentID != "":
		kind = "comment"
		result, err = x.client.GetIssueComment(ctx, ref.Owner, ref.Repo, ref.CommentID)
	case ref.Kind == "pull":
		kind = "pull_request"
		result, err = x.client.GetPullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	default:
		kind = "issue"
		result, err = x.client.GetIssue(ctx, ref.Owner, ref.Repo, ref.Number)
	}
	if err != nil {
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "kind": kind, "data": result}, nil
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

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
