// flags.go defines constants for all CLI flag names.
//
// Using constants instead of string literals prevents typos and enables
// compile-time checking when flag names are used in both Flags().Type()
// definitions and GetType() calls.
//
// Naming convention: Flag<PascalCaseName> where name matches the kebab-case
// CLI flag (e.g., "dry-run" -> FlagDryRun).

package extension

// Flag name constants for CLI commands.
const (
	// Boolean flags

	FlagAll                 = "all"                   // Include soft-deleted rows
	FlagAncestors           = "ancestors"             // Show the breadcrumb
	FlagApply               = "apply"                 // Write recomputed values
	FlagCheck               = "check"                 // Report without writing
	FlagDirect              = "direct"                // Only the node itself, not descendants
	FlagDryRun              = "dry-run"               // Preview without making changes
	FlagHTTP                = "http"                  // Serve the REST API instead of MCP
	FlagIncludeDeletedNodes = "include-deleted-nodes" // Walk through soft-deleted nodes
	FlagLocal               = "local"                 // Use local scope (gitignored)
	FlagLong                = "long"                  // Long format output
	FlagPurge               = "purge"                 // Permanently remove after deleting
	FlagRaw                 = "raw"                   // Skip terminal rendering
	FlagShare               = "share"                 // Mark as shared (committed)
	FlagStats               = "stats"                 // Show database statistics
	FlagTree                = "tree"                  // Tree view output

	// String flags

	FlagAddr      = "addr"       // Listen address
	FlagFormat    = "format"     // Outline encoding: yaml or json
	FlagMeta      = "meta"       // Metadata key=value pair (repeatable)
	FlagName      = "name"       // Display name
	FlagOlderThan = "older-than" // Duration threshold
	FlagParent    = "parent"     // Parent path
	FlagPath      = "path"       // Path prefix filter
	FlagQuery     = "query"      // Case-insensitive title search
	FlagRelation  = "relation"   // Binding relation type
	FlagSlug      = "slug"       // Path segment
	FlagTitle     = "title"      // Document title
	FlagType      = "type"       // Node or document type

	// Integer flags

	FlagDepth = "depth" // Levels below the node to include
	FlagPage  = "page"  // 1-based page number
	FlagSize  = "size"  // Page size
)
