// tools_util.go provides helper functions for MCP tool parameter extraction.
//
// Separated to centralise the boilerplate of extracting typed parameters from
// MCP's generic argument map. These helpers return safe defaults when
// optional parameters are missing.
//
// Design: Extraction is permissive (default on a missing or mistyped value)
// for optional parameters. Required parameters go through the Require*
// helpers, which report a plain "x is required" message the LLM can act on.

package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/store"
)

func args(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

// getString extracts a string parameter, returning def if the parameter is
// missing or not a string.
func getString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// getOptString distinguishes an absent parameter (nil) from an empty one.
// Update tools use it so "" can clear a field.
func getOptString(req mcp.CallToolRequest, name string) *string {
	v, ok := args(req)[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// getBool extracts a boolean parameter. A string "true" from a confused
// client is not accepted; the default applies instead.
func getBool(req mcp.CallToolRequest, name string, def bool) bool {
	if v, ok := args(req)[name].(bool); ok {
		return v
	}
	return def
}

// getInt extracts an integer parameter. JSON numbers decode as float64.
func getInt(req mcp.CallToolRequest, name string, def int) int {
	if v, ok := args(req)[name].(float64); ok {
		return int(v)
	}
	return def
}

// getID extracts an id parameter, 0 when absent.
func getID(req mcp.CallToolRequest, name string) int64 {
	if v, ok := args(req)[name].(float64); ok {
		return int64(v)
	}
	return 0
}

// requireID extracts a positive id parameter.
func requireID(req mcp.CallToolRequest, name string) (int64, error) {
	id := getID(req, name)
	if id <= 0 {
		return 0, fmt.Errorf("%s is required", name)
	}
	return id, nil
}

// getIDs extracts an array of ids. Non-numeric elements are skipped.
func getIDs(req mcp.CallToolRequest, name string) []int64 {
	arr, ok := args(req)[name].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(arr))
	for _, v := range arr {
		if f, ok := v.(float64); ok {
			ids = append(ids, int64(f))
		}
	}
	return ids
}

// getObject extracts a JSON object parameter.
func getObject(req mcp.CallToolRequest, name string) map[string]any {
	m, _ := args(req)[name].(map[string]any)
	return m
}

// getStringMap extracts a JSON object of string values, skipping others.
func getStringMap(req mcp.CallToolRequest, name string) map[string]string {
	obj := getObject(req, name)
	if len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch v := v.(type) {
		case string:
			out[k] = v
		case float64, bool:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// resolveNode finds the node named by an "id" or "path" parameter.
func (h *handlers) resolveNode(ctx context.Context, req mcp.CallToolRequest, includeDeleted bool) (*store.Node, error) {
	if id := getID(req, "id"); id > 0 {
		return h.svc.GetNode(ctx, id, includeDeleted)
	}
	if p := getString(req, "path", ""); p != "" {
		return h.svc.GetByPath(ctx, p)
	}
	return nil, fmt.Errorf("%w: id or path is required", store.ErrInvalidOperation)
}

// toolError converts a service error into an MCP error result prefixed with
// its kind, so the client can tell a missing node from a conflict.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", store.KindOf(err), err))
}

// jsonResult serialises v as indented JSON in an MCP text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := store.MarshalJSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
