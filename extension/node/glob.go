// glob.go implements "ndr node glob" for pattern matching over paths.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/internal/format"
	"github.com/spf13/cobra"
)

func (e *Extension) newGlobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "glob <pattern>",
		Short: "List node paths matching a pattern",
		Long: `List active node paths matching a dotted glob pattern.

  *   matches within one segment
  **  matches any number of segments

  ndr node glob 'docs.*'          # direct children of docs
  ndr node glob 'docs.**.intro'   # intro at any depth below docs`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			paths, err := e.svc.Glob(c.Context(), args[0])
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("glob %q: %w", args[0], err))
			}
			if paths == nil {
				paths = []string{}
			}
			if cmd.JSON() {
				return cmd.PrintJSON(paths)
			}
			return format.Paths(cmd.Out(), paths)
		},
	}
}
