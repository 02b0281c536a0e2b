// mk.go implements "ndr node mk" for creating nodes.
//
// Design: The argument is the full path of the new node. Its last segment
// becomes the slug and the rest names the parent, which must already exist;
// mk does not create intermediate nodes.

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

func (e *Extension) newMkCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "mk <path>",
		Short: "Create a node",
		Long: `Create a node at the given path. The parent must exist.

  ndr node mk docs                          # root node, named "docs"
  ndr node mk docs.guide --name "User Guide"
  ndr node mk docs.guide.intro --type chapter`,
		Args: cobra.ExactArgs(1),
		RunE: e.runMk,
	}
	c.Flags().String(extension.FlagName, "", "Display name (defaults to the slug)")
	c.Flags().StringP(extension.FlagType, "t", "", "Node type")
	return c
}

func (e *Extension) runMk(c *cobra.Command, args []string) error {
	ctx := c.Context()
	path := args[0]
	name, _ := c.Flags().GetString(extension.FlagName)
	typ, _ := c.Flags().GetString(extension.FlagType)

	parent, _ := nodepath.Parent(path)
	slug := nodepath.Slug(path)
	if name == "" {
		name = slug
	}

	n, err := e.svc.CreateNode(ctx, cmd.Actor(), store.CreateNodeOptions{
		Name:       name,
		Slug:       slug,
		ParentPath: parent,
		Type:       typ,
	})

	l := log.Event("node:mk", "create").Author(cmd.Actor()).Path(path)
	if n != nil {
		l.Node(n.ID).Resolved(n.Path)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("mk %q: %w", path, err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(n.ToJSON())
	}
	return format.Nodes(cmd.Out(), []store.Node{*n})
}
