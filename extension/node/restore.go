// restore.go implements "ndr node restore" for undoing a soft delete.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/internal/log"
	"github.com/spf13/cobra"
)

func (e *Extension) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore @<id>",
		Short: "Restore a deleted node",
		Long: `Restore a soft-deleted node at its original path, appended after its
active siblings. Fails with a conflict if the path or the name has been
taken since. Deleted nodes have no reachable path, so address them by id.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runRestore,
	}
}

func (e *Extension) runRestore(c *cobra.Command, args []string) error {
	ctx := c.Context()
	cur, err := Resolve(ctx, e.svc, args[0], true)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("restore %q: %w", args[0], err))
	}

	n, err := e.svc.RestoreNode(ctx, cmd.Actor(), cur.ID)

	log.Event("node:restore", "restore").Author(cmd.Actor()).Node(cur.ID).Path(cur.Path).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("restore %q: %w", args[0], err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(n.ToJSON())
	}
	fmt.Fprintf(cmd.Out(), "Restored %s\n", n.Path)
	return nil
}
