package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolFunc is a typed MCP tool implementation. The request type is
// unmarshalled from the raw tool arguments before fn runs.
type ToolFunc[Req any] func(ctx context.Context, req Req) (any, error)

// RegisterTool wires fn as an MCP tool on srv. The response is
// marshalled to JSON text content. Application errors become tool
// errors, never protocol errors, so the session stays usable.
func RegisterTool[Req any](srv *mcp.Server, tool *mcp.Tool, fn ToolFunc[Req]) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req Req
		if len(call.Params.Arguments) > 0 {
			if err := json.Unmarshal(call.Params.Arguments, &req); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return toolError(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal response: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
