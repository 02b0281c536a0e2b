// reorder.go implements "ndr node reorder" for changing sibling order.
//
// Design: The listed children move to the front in the given order; the
// siblings not listed keep their relative order behind them. Positions are
// then renumbered from zero.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func (e *Extension) newReorderCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "reorder <child>...",
		Short: "Reorder sibling nodes",
		Long: `Place the given children first, in order, among their siblings.

  ndr node reorder docs.faq docs.intro                # both under docs
  ndr node reorder --parent docs faq intro            # slugs relative to --parent
  ndr node reorder --parent "" archive                # roots`,
		Args: cobra.MinimumNArgs(1),
		RunE: e.runReorder,
	}
	c.Flags().StringP(extension.FlagParent, "p", "", "Parent node; children are then given as slugs")
	return c
}

func (e *Extension) runReorder(c *cobra.Command, args []string) error {
	ctx := c.Context()
	withParent := c.Flags().Changed(extension.FlagParent)
	parentRef, _ := c.Flags().GetString(extension.FlagParent)

	refs := args
	if withParent && parentRef != "" && parentRef[0] != '@' {
		refs = make([]string, len(args))
		for i, a := range args {
			refs[i] = a
			if a != "" && a[0] != '@' {
				refs[i] = nodepath.Join(parentRef, a)
			}
		}
	}

	ids := make([]int64, len(refs))
	var parentID int64
	for i, ref := range refs {
		n, err := Resolve(ctx, e.svc, ref, false)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("reorder %q: %w", ref, err))
		}
		ids[i] = n.ID
		if i == 0 {
			parentID = n.ParentKey()
		}
	}
	if withParent {
		parentID = 0
		if parentRef != "" {
			p, err := Resolve(ctx, e.svc, parentRef, false)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("reorder parent %q: %w", parentRef, err))
			}
			parentID = p.ID
		}
	}

	nodes, err := e.svc.ReorderChildren(ctx, cmd.Actor(), parentID, ids)

	log.Event("node:reorder", "reorder").Author(cmd.Actor()).Node(parentID).Detail("ordered_ids", ids).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("reorder: %w", err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(store.NodesJSON(nodes))
	}
	return format.Nodes(cmd.Out(), nodes)
}
