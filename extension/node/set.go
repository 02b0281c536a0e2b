// set.go implements "ndr node set" for renaming and retyping in place.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func (e *Extension) newSetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "set <node>",
		Short: "Change a node's name, slug or type",
		Long: `Change fields of a node without moving it. Only the flags given are changed.

  ndr node set docs.guide --name "User Guide"
  ndr node set docs.guide --slug manual      # path becomes docs.manual
  ndr node set docs.guide --type ""          # clear the type`,
		Args: cobra.ExactArgs(1),
		RunE: e.runSet,
	}
	c.Flags().String(extension.FlagName, "", "New display name")
	c.Flags().String(extension.FlagSlug, "", "New slug (rewrites the subtree's paths)")
	c.Flags().StringP(extension.FlagType, "t", "", "New type")
	return c
}

func (e *Extension) runSet(c *cobra.Command, args []string) error {
	ctx := c.Context()
	var opts store.UpdateNodeOptions
	for flag, dst := range map[string]**string{
		extension.FlagName: &opts.Name,
		extension.FlagSlug: &opts.Slug,
		extension.FlagType: &opts.Type,
	} {
		if c.Flags().Changed(flag) {
			v, _ := c.Flags().GetString(flag)
			*dst = &v
		}
	}
	if opts.Name == nil && opts.Slug == nil && opts.Type == nil {
		return cmd.PrintJSONError(fmt.Errorf("set: nothing to change (use --name, --slug or --type)"))
	}

	cur, err := Resolve(ctx, e.svc, args[0], false)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("set %q: %w", args[0], err))
	}

	n, err := e.svc.UpdateNode(ctx, cmd.Actor(), cur.ID, opts)

	l := log.Event("node:set", "update").Author(cmd.Actor()).Node(cur.ID).Path(cur.Path)
	if n != nil {
		l.Resolved(n.Path)
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("set %q: %w", args[0], err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(n.ToJSON())
	}
	return format.Node(cmd.Out(), n)
}
