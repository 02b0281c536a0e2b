// ls.go implements "ndr node ls" for listing children and rendering trees.
//
// Design: Without an argument ls lists the root nodes. With a node it walks
// the active subtree breadth-first up to --depth levels, siblings in position
// order. --tree renders the same walk as an indented tree with the subtree
// document count of every node.

package node

import (
	"context"
	"fmt"
	"sort"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func (e *Extension) newLsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ls [node]",
		Short: "List child nodes",
		Long: `List the children of a node, or the root nodes when no node is given.

  ndr node ls                       # roots
  ndr node ls docs --depth 3 -l     # three levels, long format
  ndr node ls docs --tree           # indented tree with document counts
  ndr node ls docs --type chapter   # only chapters (the walk still descends)`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.runLs,
	}
	c.Flags().IntP(extension.FlagDepth, "d", 1, "Levels below the node to include")
	c.Flags().StringP(extension.FlagType, "t", "", "Only list nodes of this type")
	c.Flags().BoolP(extension.FlagLong, "l", false, "Long format with counters and audit columns")
	c.Flags().Bool(extension.FlagTree, false, "Display as tree")
	return c
}

func (e *Extension) runLs(c *cobra.Command, args []string) error {
	ctx := c.Context()
	depth, _ := c.Flags().GetInt(extension.FlagDepth)
	typ, _ := c.Flags().GetString(extension.FlagType)
	long, _ := c.Flags().GetBool(extension.FlagLong)
	asTree, _ := c.Flags().GetBool(extension.FlagTree)

	var root *store.Node
	var nodes []store.Node
	var err error
	if len(args) == 0 {
		nodes, err = roots(ctx, e.svc)
	} else {
		root, err = Resolve(ctx, e.svc, args[0], false)
		if err == nil {
			nodes, err = e.svc.ListChildren(ctx, root.ID, store.ChildrenOptions{Depth: depth, Type: typ})
		}
	}

	l := log.Event("node:ls", "list").Author(cmd.Actor()).Detail("depth", depth)
	if root != nil {
		l.Node(root.ID).Path(root.Path)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("ls: %w", err))
	}

	if cmd.JSON() {
		return cmd.PrintJSON(store.NodesJSON(nodes))
	}
	w := cmd.Out()
	switch {
	case asTree && root != nil:
		return format.Tree(w, root, nodes)
	case long:
		return format.Long(w, nodes)
	default:
		return format.Nodes(w, nodes)
	}
}

// roots returns the active root nodes in position order.
func roots(ctx context.Context, svc service.Service) ([]store.Node, error) {
	paths, err := svc.Glob(ctx, "*")
	if err != nil {
		return nil, err
	}
	out := make([]store.Node, 0, len(paths))
	for _, p := range paths {
		n, err := svc.GetByPath(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
