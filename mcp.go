package factagent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// MCPClient connects an agent to an MCP server's tools, e.g. the HackMD MCP
// server. It implements ToolSet; the server's tool list is fetched lazily on
// first use.
type MCPClient struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	client     *client.Client
	initResult *mcp.InitializeResult

	initMutex sync.Mutex
}

// MCPonStdioOption is the option for a local MCP executable server via stdio.
type MCPonStdioOption func(*MCPClient)

// WithEnvVars appends environment variables passed to the MCP server process.
func WithEnvVars(envVars []string) MCPonStdioOption {
	return func(m *MCPClient) {
		m.envVars = append(m.envVars, envVars...)
	}
}

// MCPonSSEOption is the option for a remote MCP server via HTTP SSE.
type MCPonSSEOption func(*MCPClient)

// WithHeaders sets the HTTP headers for the MCP client.
func WithHeaders(headers map[string]string) MCPonSSEOption {
	return func(m *MCPClient) {
		m.headers = headers
	}
}

// NewMCPStdio creates an MCP client for a local server executable.
func NewMCPStdio(path string, args []string, opts ...MCPonStdioOption) *MCPClient {
	c := &MCPClient{
		path: path,
		args: args,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMCPSSE creates an MCP client for a remote server over HTTP SSE.
func NewMCPSSE(baseURL string, opts ...MCPonSSEOption) *MCPClient {
	c := &MCPClient{
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MCPClient) start(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if c.path != "" {
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	}

	if c.baseURL != "" {
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport")
	}

	c.client = client.NewClient(tp)

	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "factagent",
		Version: "0.0.1",
	}

	resp, err := c.client.Initialize(ctx, initRequest)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	}
	c.initResult = resp

	return nil
}

// Specs returns the specifications of the MCP server's tools.
func (c *MCPClient) Specs(ctx context.Context) ([]ToolSpec, error) {
	if err := c.start(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list MCP tools")
	}

	specs := make([]ToolSpec, 0, len(resp.Tools))
	for _, tool := range resp.Tools {
		parameters, err := inputSchemaToParameters(tool.InputSchema)
		if err != nil {
			return nil, err
		}
		specs = append(specs, ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
			Required:    tool.InputSchema.Required,
		})
	}

	return specs, nil
}

// Run calls the named tool on the MCP server.
func (c *MCPClient) Run(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if err := c.start(ctx); err != nil {
		return nil, err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call MCP tool", goerr.V("tool", name))
	}

	return mcpContentToMap(resp.Content), nil
}

// Close shuts down the MCP client connection.
func (c *MCPClient) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	return nil
}

func valueOrEmpty[T any](v any) T {
	var empty T
	if v == nil {
		return empty
	}
	if v, ok := v.(T); ok {
		return v
	}
	return empty
}

func inputSchemaToParameters(inputSchema mcp.ToolInputSchema) (map[string]*Parameter, error) {
	parameters := map[string]*Parameter{}

	for name, property := range inputSchema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidTool, "invalid MCP property", goerr.V("property", property))
		}

		parameter, err := propertyToParameter(name, prop)
		if err != nil {
			return nil, err
		}
		parameters[name] = parameter
	}

	return parameters, nil
}

func propertyToParameter(name string, prop map[string]any) (*Parameter, error) {
	var properties map[string]*Parameter
	var items *Parameter
	propType := valueOrEmpty[string](prop["type"])

	if propType == "object" {
		properties = map[string]*Parameter{}
		for k, v := range valueOrEmpty[map[string]any](prop["properties"]) {
			nested, ok := v.(map[string]any)
			if !ok {
				return nil, goerr.Wrap(ErrInvalidTool, "invalid nested MCP property", goerr.V("property", v))
			}
			objParam, err := propertyToParameter(k, nested)
			if err != nil {
				return nil, err
			}
			properties[k] = objParam
		}
	}

	if propType == "array" {
		itemsProp, ok := prop["items"].(map[string]any)
		if !ok {
			return nil, goerr.Wrap(ErrInvalidTool, "invalid MCP array items", goerr.V("items", prop["items"]))
		}
		v, err := propertyToParameter(name, itemsProp)
		if err != nil {
			return nil, err
		}
		items = v
	}

	return &Parameter{
		Type:        ParameterType(propType),
		Title:       valueOrEmpty[string](prop["title"]),
		Description: valueOrEmpty[string](prop["description"]),
		Required:    stringSlice(prop["required"]),
		Enum:        stringSlice(prop["enum"]),
		Properties:  properties,
		Items:       items,
	}, nil
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		var out []string
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mcpContentToMap(contents []mcp.Content) map[string]any {
	for _, c := range contents {
		txt, ok := c.(*mcp.TextContent)
		if !ok {
			continue
		}

		var v any
		if err := json.Unmarshal([]byte(txt.Text), &v); err == nil {
			if mapData, ok := v.(map[string]any); ok {
				return mapData
			}
			return map[string]any{"result": v}
		}

		return map[string]any{"result": txt.Text}
	}

	return map[string]any{}
}
