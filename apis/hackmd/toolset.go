package hackmd

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/cofacts/factagent"
)

// ToolSet exposes the HackMD API as agent tools. API failures come back as
// structured error payloads so the assistant can explain them instead of
// aborting the turn.
type ToolSet struct {
	client *Client
}

// NewToolSet creates a ToolSet over the given client.
func NewToolSet(client *Client) *ToolSet {
	return &ToolSet{client: client}
}

// Specs returns the specifications of the HackMD tools.
func (x *ToolSet) Specs(ctx context.Context) ([]factagent.ToolSpec, error) {
	permissionParams := map[string]*factagent.Parameter{
		"read_permission": {
			Type:        factagent.TypeString,
			Description: "Read permission for the note",
			Enum:        []string{"owner", "signed_in", "guest"},
		},
		"write_permission": {
			Type:        factagent.TypeString,
			Description: "Write permission for the note",
			Enum:        []string{"owner", "signed_in", "guest"},
		},
		"permalink": {
			Type:        factagent.TypeString,
			Description: "Custom permalink for the note",
		},
	}

	createParams := map[string]*factagent.Parameter{
		"title": {
			Type:        factagent.TypeString,
			Description: "The title of the note",
		},
		"content": {
			Type:        factagent.TypeString,
			Description: "The Markdown content of the note",
		},
		"comment_permission": {
			Type:        factagent.TypeString,
			Description: "Comment permission for the note",
			Enum:        []string{"disabled", "forbidden", "owners", "signed_in_users", "everyone"},
		},
	}
	for k, v := range permissionParams {
		createParams[k] = v
	}

	updateParams := map[string]*factagent.Parameter{
		"note_id": {
			Type:        factagent.TypeString,
			Description: "The ID or URL of the note to update",
		},
		"content": {
			Type:        factagent.TypeString,
			Description: "The new Markdown content of the note",
		},
	}
	for k, v := range permissionParams {
		updateParams[k] = v
	}

	return []factagent.ToolSpec{
		{
			Name:        "read_hackmd_note",
			Description: "Read the content and metadata of a HackMD note given its ID or URL.",
			Parameters: map[string]*factagent.Parameter{
				"note_id": {
					Type:        factagent.TypeString,
					Description: "The HackMD note ID or URL to read",
				},
			},
			Required: []string{"note_id"},
		},
		{
			Name:        "create_hackmd_note",
			Description: "Create a new HackMD note with optional title, content, and permissions.",
			Parameters:  createParams,
		},
		{
			Name:        "update_hackmd_note",
			Description: "Update the content or permissions of an existing HackMD note.",
			Parameters:  updateParams,
			Required:    []string{"note_id"},
		},
	}, nil
}

// Run executes the named HackMD tool.
func (x *ToolSet) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "read_hackmd_note":
		return x.readNote(ctx, args)
	case "create_hackmd_note":
		return x.createNote(ctx, args)
	case "update_hackmd_note":
		return x.updateNote(ctx, args)
	default:
		return nil, goerr.Wrap(factagent.ErrInvalidTool, "unknown HackMD tool", goerr.V("name", name))
	}
}

func (x *ToolSet) readNote(ctx context.Context, args map[string]any) (map[string]any, error) {
	noteID := noteIDArg(args)
	if noteID == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "note_id is required")
	}

	note, err := x.client.GetNote(ctx, noteID)
	if err != nil {
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "note_data": note}, nil
}

func (x *ToolSet) createNote(ctx context.Context, args map[string]any) (map[string]any, error) {
	note, err := x.client.CreateNote(ctx, noteInputFromArgs(args))
	if err != nil {
		if errors.Is(err, factagent.ErrInvalidParameter) {
			return nil, err
		}
		return errorPayload(err), nil
	}
	return map[string]any{"status": "success", "note_data": note}, nil
}

func (x *ToolSet) updateNote(ctx context.Context, args map[string]any) (map[string]any, error) {
	noteID := noteIDArg(args)
	if noteID == "" {
		return nil, goerr.Wrap(factagent.ErrInvalidParameter, "note_id is required")
	}

	note, err := x.client.UpdateNote(ctx, noteID, noteInputFromArgs(args))
	if err != nil {
		if errors.Is(err, factagent.ErrInvalidParameter) {
			return nil, err
		}
		return errorPayload(err), nil
	}
	if note == nil {
		return map[string]any{"status": "success", "message": "note " + noteID + " updated"}, nil
	}
	return map[string]any{"status": "success", "note_data": note}, nil
}

func noteIDArg(args map[string]any) string {
	raw, _ := args["note_id"].(string)
	if id := ExtractNoteID(raw); id != "" {
		return id
	}
	return raw
}

func noteInputFromArgs(args map[string]any) NoteInput {
	var input NoteInput
	if v, ok := args["title"].(string); ok {
		input.Title = &v
	}
	if v, ok := args["content"].(string); ok {
		input.Content = &v
	}
	if v, ok := args["read_permission"].(string); ok {
		input.ReadPermission = &v
	}
	if v, ok := args["write_permission"].(string); ok {
		input.WritePermission = &v
	}
	if v, ok := args["comment_permission"].(string); ok {
		input.CommentPermission = &v
	}
	if v, ok := args["permalink"].(string); ok {
		input.Permalink = &v
	}
	return input
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status":        "error",
		"error_message": err.Error(),
	}
}
