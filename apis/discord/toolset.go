package discord

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

// ToolSet exposes the Discord API as agent tools.
type ToolSet struct {
	client *Client
}

// NewToolSet creates a ToolSet over the given client.
func NewToolSet(client *Client) *ToolSet {
	return &ToolSet{client: client}
}

// Specs returns the specifications of the Discord tools.
func (x *ToolSet) Specs(ctx context.Context) ([]factagent.ToolSpec, error) {
	return []factagent.ToolSpec{
		{
			Name:        "get_discord_channel_messages",
			Description: "Fetch recent messages from a Discord channel. Each message includes its author, content, and timestamp.",
			Parameters: map[string]*factagent.Parameter{
				"channel_id": {
					Type:        factagent.TypeString,
					Description: "The ID of the Discord channel to fetch messages from",
				},
				"limit": {
					Type:        factagent.TypeInteger,
					Description: "Maximum number of messages to return, 1-100 (default: 50)",
				},
			},
			Required: []string{"channel_id"},
		},
	}, nil
}

// Run executes the named Discord tool.
func (x *ToolSet) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if name != "get_discord_channel_messages" {
		return nil, goerr.Wrap(factagent.ErrInvalidTool, "unknown Discord tool", goerr.V("name", name))
	}

	channelID, _ := args["channel_id"].(string)
	limit := 50
	switch v := args["limit"].(type) {
	case float64:
		limit = int(v)
	case int:
		limit = v
	}

	messages, err := x.client.ChannelMessages(ctx, channelID, limit)
	if err != nil {
		if errors.Is(err, factagent.ErrInvalidParameter) {
			return nil, err
		}
		return map[string]any{
			"status":        "error",
			"error_message": err.Error(),
		}, nil
	}

	return map[string]any{
		"status":   "success",
		"messages": messages,
	}, nil
}
