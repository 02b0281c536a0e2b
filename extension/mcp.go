// mcp.go defines MCP tool registration for extensions and the argument
// helpers their handlers share.
//
// Separated from extension.go to isolate MCP-specific concerns. Not all
// extensions need MCP tools - some only provide CLI commands.
//
// Design: MCPTool pairs a tool definition with a handler that receives the
// extension Context, so a tool reaches the same tree service the CLI uses.
// Tool failures are reported as tool results prefixed with the error kind
// ("not_found: ..."), the same shape the built-in tools return.

package extension

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/store"
)

// MCPTool pairs an MCP tool definition with its handler.
type MCPTool struct {
	Tool    mcp.Tool
	Handler MCPHandler
}

// MCPHandler processes MCP tool requests. extCtx gives access to the tree
// service and configuration.
type MCPHandler func(ctx context.Context, extCtx Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolString returns a string argument, or "" when absent.
func ToolString(req mcp.CallToolRequest, name string) string {
	v, _ := req.RequireString(name)
	return v
}

// ToolInt returns a numeric argument, or def when absent. JSON numbers
// arrive as float64 and are truncated.
func ToolInt(req mcp.CallToolRequest, name string, def int) int {
	if v, ok := toolArgs(req)[name].(float64); ok {
		return int(v)
	}
	return def
}

// ToolBool returns a boolean argument, false when absent.
func ToolBool(req mcp.CallToolRequest, name string) bool {
	v, _ := toolArgs(req)[name].(bool)
	return v
}

func toolArgs(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

// ToolError renders err as an error result tagged with its kind.
func ToolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", store.KindOf(err), err))
}
