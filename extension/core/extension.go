// Package core provides the core extension for ndr.
// It registers commands: init, config, serve, guide, llm, db, version,
// purge and recount.
package core

import (
	"github.com/prehisle/ndr/extension"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the core extension.
type Extension struct{}

var (
	_ extension.Extension = (*Extension)(nil)
	_ extension.Storeless = (*Extension)(nil)
)

// Name returns "core" - this extension provides fundamental ndr commands.
func (e *Extension) Name() string { return "core" }

// Commands returns all core CLI commands for repository management.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		newInitCmd(),
		newConfigCmd(),
		newServeCmd(),
		newGuideCmd(),
		newLlmCmd(),
		newDBCmd(),
		newVersionCmd(),
		newPurgeCmd(),
		newRecountCmd(),
	}
}

// MCPTools returns nil - the built-in tools are registered by internal/mcp.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

// NoStoreCommands returns commands that manage their own service lifecycle.
// serve: long-running MCP or HTTP server with its own lifecycle.
// purge: must work with --dry-run and opens the store itself.
// db: manages gitignore entries; --stats opens the store itself.
// version: displays build info.
func (e *Extension) NoStoreCommands() []string {
	return []string{"serve", "purge", "db", "version"}
}
