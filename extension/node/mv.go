// mv.go implements "ndr node mv" for moving and re-slugging nodes.
//
// Design: The destination is the node's full new path, like Unix mv. Its
// parent must exist; the whole subtree follows and carries its document
// counts from the old ancestor chain to the new one.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

// mvResult contains the outcome of a move.
type mvResult struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Node store.NodeJSON `json:"node"`
}

func (e *Extension) newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <node> <dest-path>",
		Short: "Move or re-slug a node",
		Long: `Move a node (and its subtree) to a new path.

  ndr node mv docs.draft docs.guide.intro   # move and re-slug
  ndr node mv docs.archive archive          # promote to a root`,
		Args: cobra.ExactArgs(2),
		RunE: e.runMv,
	}
}

func (e *Extension) runMv(c *cobra.Command, args []string) error {
	ctx := c.Context()
	ref, dst := args[0], args[1]

	cur, err := Resolve(ctx, e.svc, ref, false)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("mv %q: %w", ref, err))
	}
	parent, _ := nodepath.Parent(dst)
	slug := nodepath.Slug(dst)

	n, err := e.svc.UpdateNode(ctx, cmd.Actor(), cur.ID, store.UpdateNodeOptions{
		Slug:       &slug,
		ParentPath: &parent,
	})

	l := log.Event("node:mv", "move").Author(cmd.Actor()).Node(cur.ID).
		Path(cur.Path).Detail("from", cur.Path).Detail("to", dst)
	if n != nil {
		l.Resolved(n.Path)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("mv %q to %q: %w", ref, dst, err))
	}
	if !cmd.JSON() {
		fmt.Fprintf(cmd.Out(), "Moved %s -> %s\n", cur.Path, n.Path)
	}
	return cmd.PrintJSON(mvResult{From: cur.Path, To: n.Path, Node: n.ToJSON()})
}
