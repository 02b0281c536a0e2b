// Package document provides the document extension. It registers the "doc"
// command with subcommands add, get, ls, rm, restore and purge.
//
// Documents are registered by title, type and free-form metadata; the tree
// does not hold their content. Deleting a document keeps its bindings but
// takes it out of every subtree count until it is restored.
package document

import (
	"fmt"
	"strconv"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/extension/node"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the document extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "document".
func (e *Extension) Name() string { return "document" }

// Init connects to the shared service for document operations.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns the doc command group.
func (e *Extension) Commands() []*cobra.Command {
	c := &cobra.Command{
		Use:   "doc",
		Short: "Register and manage documents",
		Long:  `Register documents that nodes can bind to, edit and list them, and delete or restore them.`,
	}
	c.AddCommand(
		e.newAddCmd(),
		e.newGetCmd(),
		e.newSetCmd(),
		e.newLsCmd(),
		e.newRmCmd(),
		e.newRestoreCmd(),
		e.newPurgeCmd(),
	)
	return []*cobra.Command{c}
}

// MCPTools returns nil - document MCP tools are provided by internal/mcp.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid document id %q", store.ErrInvalidOperation, s)
	}
	return id, nil
}

// printDocument writes a document as labelled fields, or JSON.
func printDocument(d *store.Document) error {
	if cmd.JSON() {
		return cmd.PrintJSON(d.ToJSON())
	}
	j := d.ToJSON()
	w := cmd.Out()
	fmt.Fprintf(w, "ID:       %d\n", j.ID)
	fmt.Fprintf(w, "Title:    %s\n", j.Title)
	fmt.Fprintf(w, "Type:     %s\n", j.Type)
	fmt.Fprintf(w, "Created:  %s by %s\n", j.CreatedAt, j.CreatedBy)
	fmt.Fprintf(w, "Updated:  %s by %s\n", j.UpdatedAt, j.UpdatedBy)
	if j.DeletedAt != nil {
		fmt.Fprintf(w, "Deleted:  %s\n", *j.DeletedAt)
	}
	if len(j.Metadata) > 0 {
		b, err := store.MarshalJSON(j.Metadata)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Metadata: %s\n", b)
	}
	return nil
}

// pageOf wraps node.PrintDocumentPage for the document list.
func pageOf(p *store.DocumentPage) error {
	if cmd.JSON() {
		return cmd.PrintJSON(p.ToJSON())
	}
	return node.PrintDocumentPage(p)
}
