// Package outline provides the outline extension: exporting a subtree as a
// YAML or JSON outline and importing one as new nodes. It registers the
// "outline" command (export, import) and the ndr_outline_export and
// ndr_outline_import MCP tools.
package outline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/outline"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the outline extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "outline".
func (e *Extension) Name() string { return "outline" }

// Init receives the shared service from the extension context.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns the outline command group.
func (e *Extension) Commands() []*cobra.Command {
	c := &cobra.Command{
		Use:   "outline",
		Short: "Export or import subtree outlines",
		Long: `An outline is the structure of a subtree (names, slugs, types and child
order) as nested YAML or JSON. Bindings and counts are not included.

  ndr outline export docs > docs.yaml
  ndr outline import docs.yaml --parent archive
  ndr outline export docs --format json | ndr outline import - --format json --parent copy`,
	}
	c.AddCommand(e.newExportCmd(), e.newImportCmd())
	return []*cobra.Command{c}
}

func (e *Extension) newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <path>",
		Short: "Write a subtree outline to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := formatFlag(c)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			depth, _ := c.Flags().GetInt(extension.FlagDepth)

			ent, err := outline.Export(c.Context(), e.svc, args[0], depth)

			log.Event("outline:export", "export").Author(cmd.Actor()).Path(args[0]).Write(err)

			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("export %q: %w", args[0], err))
			}
			if cmd.JSON() {
				return cmd.PrintJSON(ent)
			}
			return outline.Encode(cmd.Out(), ent, f)
		},
	}
	c.Flags().StringP(extension.FlagFormat, "f", "yaml", "Outline format: yaml or json")
	c.Flags().IntP(extension.FlagDepth, "d", 64, "Levels below the root to include")
	return c
}

func (e *Extension) newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import <file|->",
		Short: "Create nodes from an outline",
		Long: `Create the nodes described by an outline, parents before children.

The first failure stops the import; nodes created before it remain. Use
--dry-run to list the paths that would be created.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runImport,
	}
	c.Flags().StringP(extension.FlagFormat, "f", "yaml", "Outline format: yaml or json")
	c.Flags().StringP(extension.FlagParent, "p", "", "Parent path (empty for the root level)")
	c.Flags().BoolP(extension.FlagDryRun, "n", false, "Show what would be created")
	return c
}

func (e *Extension) runImport(c *cobra.Command, args []string) error {
	f, err := formatFlag(c)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	parent, _ := c.Flags().GetString(extension.FlagParent)
	dryRun, _ := c.Flags().GetBool(extension.FlagDryRun)

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("open outline: %w", err))
		}
		defer file.Close()
		r = file
	}
	entries, err := outline.Decode(r, f)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	res, err := outline.Import(c.Context(), w, e.svc, entries, outline.Options{
		Parent: parent,
		Actor:  cmd.Actor(),
		DryRun: dryRun,
	})

	log.Event("outline:import", "import").Author(cmd.Actor()).Path(parent).
		Detail("dry_run", dryRun).Detail("count", len(res.Paths)).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("import: %w", err))
	}
	if !cmd.JSON() && !dryRun {
		fmt.Fprintf(w, "Created %d node(s)\n", len(res.Paths))
	}
	return cmd.PrintJSON(res)
}

func formatFlag(c *cobra.Command) (outline.Format, error) {
	raw, _ := c.Flags().GetString(extension.FlagFormat)
	return outline.ParseFormat(raw)
}

// MCPTools exposes export and import to MCP clients.
func (e *Extension) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("ndr_outline_export",
				mcp.WithDescription("Export the subtree at a path as a nested outline (names, slugs, types, child order)."),
				mcp.WithString("path", mcp.Required(), mcp.Description("Dotted path of the subtree root")),
				mcp.WithString("format", mcp.Description("yaml (default) or json")),
				mcp.WithNumber("depth", mcp.Description("Levels below the root to include (default 64)")),
			),
			Handler: exportTool,
		},
		{
			Tool: mcp.NewTool("ndr_outline_import",
				mcp.WithDescription("Create nodes from an outline. Stops at the first failure; earlier nodes remain."),
				mcp.WithString("actor", mcp.Required(), mcp.Description("Acting identity recorded on the new nodes")),
				mcp.WithString("outline", mcp.Required(), mcp.Description("Outline text: one entry or a list of entries")),
				mcp.WithString("format", mcp.Description("yaml (default) or json")),
				mcp.WithString("parent", mcp.Description("Parent path; empty for the root level")),
				mcp.WithBoolean("dry_run", mcp.Description("Only report the paths that would be created")),
			),
			Handler: importTool,
		},
	}
}

func exportTool(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := outline.ParseFormat(extension.ToolString(req, "format"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := extension.ToolString(req, "path")
	ent, err := outline.Export(ctx, extCtx.Service(), path, extension.ToolInt(req, "depth", 64))
	if err != nil {
		return extension.ToolError(err), nil
	}
	var buf bytes.Buffer
	if err := outline.Encode(&buf, ent, f); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func importTool(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := outline.ParseFormat(extension.ToolString(req, "format"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := outline.Decode(strings.NewReader(extension.ToolString(req, "outline")), f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	actor := extension.ToolString(req, "actor")
	opts := outline.Options{
		Parent: extension.ToolString(req, "parent"),
		Actor:  actor,
		DryRun: extension.ToolBool(req, "dry_run"),
	}

	res, err := outline.Import(ctx, io.Discard, extCtx.Service(), entries, opts)

	log.Event("mcp:outline_import", "import").Author(actor).Path(opts.Parent).
		Detail("dry_run", opts.DryRun).Detail("count", len(res.Paths)).Write(err)

	if err != nil {
		return extension.ToolError(err), nil
	}
	b, err := store.MarshalJSON(res)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
