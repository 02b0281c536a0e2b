// tools_init.go implements the MCP tool for initialising a new store.
//
// This tool works without an existing store, allowing LLMs to bootstrap
// a new ndr repository. Other tools require initialisation first.

package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/repo"
	"github.com/prehisle/ndr/internal/tree"
)

// initStore handles ndr_init tool calls.
func (h *handlers) initStore(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.svc != nil {
		return mcp.NewToolResultError("store already initialised"), nil
	}

	local := getBool(req, "local", false)
	location, err := tree.Init(repo.InitOptions{DB: h.db, Local: local})

	log.Event("mcp:init", "init").Author("mcp").Detail("local", local).Write(err)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svc, err := tree.New(h.db)
	if err != nil {
		return mcp.NewToolResultError("init succeeded but failed to open store: " + err.Error()), nil
	}
	if err := h.attach(svc); err != nil {
		svc.Close()
		return mcp.NewToolResultError("init succeeded but failed to start extensions: " + err.Error()), nil
	}
	log.SetProject(svc.ProjectDir())

	slog.Info("store initialised", "location", location, "local", local)

	if local {
		return mcp.NewToolResultText("store initialised at " + location + " (local - gitignored)"), nil
	}
	return mcp.NewToolResultText("store initialised at " + location), nil
}
