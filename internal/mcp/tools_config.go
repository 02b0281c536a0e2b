// tools_config.go implements MCP tools for configuration management.
//
// Separated because config changes affect every later operation: limits
// such as max_depth and page_size are cached by the running service, which
// must reload them after a write.

package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/log"
)

// configGet handles ndr_config_get tool calls. It works without a store
// because config lives beside, not inside, the database.
func (h *handlers) configGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := getString(req, "key", "")
	l := log.Event("mcp:config_get", "get").Author("mcp").Detail("key", key)

	cfg, err := config.Load()
	if err != nil {
		l.Write(err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if key == "" {
		l.Write(nil)
		return jsonResult(cfg.All())
	}

	v, err := cfg.Get(key)
	l.Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{key: v})
}

// configSet handles ndr_config_set tool calls.
func (h *handlers) configSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("key is required"), nil //nolint:nilerr
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required"), nil //nolint:nilerr
	}

	l := log.Event("mcp:config_set", "set").Author("mcp").Detail("key", key).Detail("value", value)
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Set(key, value)
	}
	if err == nil {
		err = cfg.Save()
	}
	l.Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if h.svc != nil {
		if err := h.svc.ReloadConfig(); err != nil {
			log.Event("mcp:config_set", "reload").Author("mcp").Write(err)
			return mcp.NewToolResultText(fmt.Sprintf("%s = %s (warning: reload failed, restart server to apply: %v)", key, value, err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %s", key, value)), nil
}
