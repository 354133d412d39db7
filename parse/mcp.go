package parse

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/filepipe/filepipe/kit"
)

// RegisterMCP registers the parsing tools on an MCP server.
func (d *Dispatcher) RegisterMCP(srv *mcp.Server) {
	d.registerReadFileTool(srv)
	d.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- read_file ---

type readFileReq struct {
	FilePath string `json:"file_path"`
	Options
}

func (d *Dispatcher) registerReadFileTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "read_file",
		Description: "Parse a file and return its structured content. Supports text, csv, tsv, xlsx, pdf, docx, pptx, json and common image formats.",
		InputSchema: inputSchema(map[string]any{
			"file_path":  map[string]any{"type": "string", "description": "Path of the file to parse"},
			"max_rows":   map[string]any{"type": "integer", "description": "Row budget for tabular formats"},
			"max_pages":  map[string]any{"type": "integer", "description": "Page budget for paged formats (pdf, pptx)"},
			"max_chars":  map[string]any{"type": "integer", "description": "Character budget for text formats"},
			"max_items":  map[string]any{"type": "integer", "description": "Item budget for json and docx paragraphs"},
			"encoding":   map[string]any{"type": "string", "description": "Declared text encoding, e.g. gbk"},
			"sheet":      map[string]any{"type": "string", "description": "Workbook sheet to parse; default is the first sheet"},
			"all_sheets": map[string]any{"type": "boolean", "description": "Parse every sheet of a workbook"},
		}, []string{"file_path"}),
	}

	kit.RegisterTool(srv, tool, func(ctx context.Context, req readFileReq) (any, error) {
		ctx = kit.WithTransport(ctx, "mcp")
		return d.Parse(ctx, req.FilePath, req.Options), nil
	})
}

// --- get_formats ---

type formatsReq struct{}

func (d *Dispatcher) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_formats",
		Description: "List the file formats the read_file tool can parse.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	kit.RegisterTool(srv, tool, func(_ context.Context, _ formatsReq) (any, error) {
		formats := d.Formats()
		return map[string]any{
			"success":           true,
			"supported_formats": formats,
			"total_formats":     len(formats),
		}, nil
	})
}
