// recount.go implements "ndr recount", the subtree counter repair tool.
//
// Design: Check mode is read-only and needs no actor; applying writes the
// recomputed counters and is attributed like any other change. The drift
// report is coloured only when stdout is a terminal.

package core

import (
	"fmt"
	"os"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/progress"
	"github.com/prehisle/ndr/internal/recount"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRecountCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "recount",
		Short: "Recompute subtree document counters",
		Long: `Recompute every node's subtree document counter from the bindings
and correct any drift.

Use --check to report drift without writing anything:
  ndr recount --check`,
		Args: cobra.NoArgs,
		RunE: runRecount,
	}
	c.Flags().Bool(extension.FlagCheck, false, "Report drift without writing")
	return c
}

func runRecount(c *cobra.Command, _ []string) error {
	check, _ := c.Flags().GetBool(extension.FlagCheck)
	spin := progress.NewSpinner("Recounting")
	spin.Start()
	res, err := recount.Run(c.Context(), cmd.Service(), recount.Options{Actor: cmd.Actor(), Check: check})
	spin.Stop()

	l := log.Event("core:recount", "recount").Author(cmd.Actor()).Detail("check", check)
	if res != nil {
		l.Detail("nodes", res.Nodes).Detail("changed", len(res.Changed))
	}
	l.Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("recount: %w", err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(res)
	}
	recount.NewReport(res).Write(cmd.Out(), res, term.IsTerminal(int(os.Stdout.Fd())))
	return nil
}
