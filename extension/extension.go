// Package extension provides the plugin architecture for ndr. Extensions
// encapsulate related functionality (commands, MCP tools) and register at
// init time, enabling modular feature development without touching core code.
package extension

import (
	"time"

	"github.com/spf13/cobra"
)

// Extension defines the contract for ndr extensions.
type Extension interface {
	// Name returns a unique identifier for this extension.
	Name() string

	// Commands returns CLI commands to register with the root command.
	Commands() []*cobra.Command

	// MCPTools returns MCP tools to register with the server.
	MCPTools() []MCPTool
}

// Initializable extensions can perform setup (migrations, etc).
type Initializable interface {
	Extension
	Init(ctx Context) error
}

// Storeless is an optional interface for extensions with commands that
// don't require a store. Commands returned by NoStoreCommands() will
// not trigger store initialisation in PersistentPreRunE.
//
// Use cases:
// 1. Bootstrap commands (like init) that run before store exists
// 2. Commands that manage their own service lifecycle
// 3. Utility commands that don't need the tree (guide, version)
type Storeless interface {
	NoStoreCommands() []string
}

// Purgeable extensions can clean up their own data during "ndr purge".
// The purge command calls Purge on every extension implementing this
// interface after purging soft-deleted nodes, so extensions with custom
// tables take part in the same retention window.
type Purgeable interface {
	Extension
	// Purge permanently deletes records older than the given duration.
	// If olderThan is nil, every eligible record is removed.
	// Returns the count of records deleted.
	Purge(ctx Context, olderThan *time.Duration) (int64, error)
}
