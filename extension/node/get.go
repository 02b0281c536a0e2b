// get.go implements "ndr node get" for inspecting a single node.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

// getResult is the JSON shape of "node get --ancestors".
type getResult struct {
	Node      store.NodeJSON   `json:"node"`
	Ancestors []store.NodeJSON `json:"ancestors"`
}

func (e *Extension) newGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <node>",
		Short: "Show a node",
		Long: `Show a node's fields, including its subtree document count.

  ndr node get docs.guide
  ndr node get @42 --all          # also finds a soft-deleted node
  ndr node get docs.guide --ancestors`,
		Args: cobra.ExactArgs(1),
		RunE: e.runGet,
	}
	c.Flags().BoolP(extension.FlagAll, "A", false, "Include soft-deleted nodes (ids only)")
	c.Flags().Bool(extension.FlagAncestors, false, "Also list the ancestors, root first")
	return c
}

func (e *Extension) runGet(c *cobra.Command, args []string) error {
	ctx := c.Context()
	all, _ := c.Flags().GetBool(extension.FlagAll)
	withAncestors, _ := c.Flags().GetBool(extension.FlagAncestors)

	n, err := Resolve(ctx, e.svc, args[0], all)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("get %q: %w", args[0], err))
	}

	var ancestors []store.Node
	if withAncestors && n.Active() {
		if ancestors, err = e.svc.Ancestors(ctx, n.ID); err != nil {
			return cmd.PrintJSONError(fmt.Errorf("ancestors of %q: %w", args[0], err))
		}
	}

	if cmd.JSON() {
		if !withAncestors {
			return cmd.PrintJSON(n.ToJSON())
		}
		return cmd.PrintJSON(getResult{Node: n.ToJSON(), Ancestors: store.NodesJSON(ancestors)})
	}

	w := cmd.Out()
	if err := format.Node(w, n); err != nil {
		return err
	}
	if withAncestors {
		fmt.Fprintln(w)
		return format.Nodes(w, ancestors)
	}
	return nil
}
