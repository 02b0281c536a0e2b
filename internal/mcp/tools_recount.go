// tools_recount.go implements the MCP tool for counter maintenance.

package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/log"
)

// recount handles ndr_recount tool calls. A check reports drift and needs
// no actor; applying the recomputed counters does.
func (h *handlers) recount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if result := h.requireInit(); result != nil {
		return result, nil
	}
	actor := getString(req, "actor", "")
	check := getBool(req, "check", false)

	res, err := h.svc.Recount(ctx, actor, !check)

	l := log.Event("mcp:recount", "recount").Author(actor).Detail("check", check)
	if res != nil {
		l.Detail("nodes", res.Nodes).Detail("changed", len(res.Changed))
	}
	l.Write(err)

	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}
