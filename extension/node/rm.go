// rm.go implements "ndr node rm" for soft-deleting nodes.
//
// Design: Rm soft-deletes only the named node. Its descendants stay as they
// are but become unreachable, and its ancestors stop counting the subtree's
// documents. --purge additionally removes the node, its subtree and their
// bindings for good, which cannot be undone.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

// rmResult is the JSON shape of "node rm".
type rmResult struct {
	Node   store.NodeJSON     `json:"node"`
	Purged *store.PurgeResult `json:"purged,omitempty"`
}

func (e *Extension) newRmCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "rm <node>",
		Short: "Delete a node",
		Long: `Soft-delete a node (recoverable via "node restore" until purged).

  ndr node rm docs.draft
  ndr node rm @42 --purge     # also works on an already deleted node`,
		Args: cobra.ExactArgs(1),
		RunE: e.runRm,
	}
	c.Flags().Bool(extension.FlagPurge, false, "Permanently remove the node and its subtree")
	return c
}

func (e *Extension) runRm(c *cobra.Command, args []string) error {
	ctx := c.Context()
	purge, _ := c.Flags().GetBool(extension.FlagPurge)

	cur, err := Resolve(ctx, e.svc, args[0], purge)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("rm %q: %w", args[0], err))
	}

	res := rmResult{Node: cur.ToJSON()}
	if cur.Active() {
		n, err := e.svc.DeleteNode(ctx, cmd.Actor(), cur.ID)
		log.Event("node:rm", "delete").Author(cmd.Actor()).Node(cur.ID).Path(cur.Path).Write(err)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("rm %q: %w", args[0], err))
		}
		res.Node = n.ToJSON()
		if !cmd.JSON() {
			fmt.Fprintf(cmd.Out(), "Deleted %s\n", n.Path)
		}
	}

	if purge {
		if !cmd.Force() && !cmd.JSON() && !cmd.Confirm(fmt.Sprintf("Permanently remove %s and its subtree? This cannot be undone.", cur.Path)) {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return cmd.PrintJSON(res)
		}
		pr, err := e.svc.PurgeNode(ctx, cmd.Actor(), cur.ID)

		l := log.Event("node:rm", "purge").Author(cmd.Actor()).Node(cur.ID).Path(cur.Path)
		if pr != nil {
			l.Detail("nodes", pr.Nodes).Detail("bindings", pr.Bindings)
		}
		l.Write(err)

		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("purge %q: %w", args[0], err))
		}
		res.Purged = pr
		if !cmd.JSON() {
			fmt.Fprintf(cmd.Out(), "Purged %d node(s), %d binding(s)\n", pr.Nodes, pr.Bindings)
		}
	}
	return cmd.PrintJSON(res)
}
