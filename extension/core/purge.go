// purge.go implements the "ndr purge" command for permanent removal of
// soft-deleted subtrees.
//
// Separated from extension.go because purge is destructive and requires
// special handling including confirmation prompts and dry-run support.
//
// Design: Purge is a NoStoreCommand so --dry-run works without extension
// initialisation. It opens and closes its own service, then gives every
// Purgeable extension the same retention window for its own tables.

package core

import (
	"fmt"
	"io"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/duration"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/purge"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "purge",
		Short: "Permanently remove soft-deleted subtrees",
		Long: `Permanently remove soft-deleted nodes together with their subtrees
and bindings. Documents are not touched.

This is irreversible. Use --force to skip confirmation.

Duration formats: 7d (days), 4w (weeks), 3m (months)`,
		RunE: runPurge,
	}
	c.Flags().String(extension.FlagOlderThan, "", "Only purge deletions older than duration (e.g., 7d, 4w, 3m)")
	c.Flags().StringP(extension.FlagPath, "p", "", "Only purge subtrees at or below this path")
	c.Flags().BoolP(extension.FlagDryRun, "n", false, "Show what would be purged")
	return c
}

func runPurge(c *cobra.Command, _ []string) error {
	ctx := c.Context()
	svc, err := tree.NewIn(cmd.DB(), cmd.Dir())
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("open store: %w", err))
	}
	defer svc.Close()

	olderThan, _ := c.Flags().GetString(extension.FlagOlderThan)
	prefix, _ := c.Flags().GetString(extension.FlagPath)
	dryRun, _ := c.Flags().GetBool(extension.FlagDryRun)

	opts := purge.Options{Prefix: prefix, DryRun: dryRun, Actor: cmd.Actor()}
	if olderThan != "" {
		d, err := duration.Parse(olderThan)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("parse duration %q: %w", olderThan, err))
		}
		opts.OlderThan = &d
	}

	// JSON output replaces the human-readable progress lines.
	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}

	if !dryRun && !cmd.Force() && !cmd.JSON() {
		if !cmd.Confirm("Permanently remove soft-deleted subtrees? This cannot be undone.") {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return nil
		}
	}

	result, err := purge.Run(ctx, w, svc, opts)

	log.Event("core:purge", "purge").
		Author(opts.Actor).
		Path(prefix).
		Detail("dry_run", dryRun).
		Detail("roots", result.Roots).
		Detail("nodes", result.Nodes).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("purge: %w", err))
	}
	if result.Paths == nil {
		result.Paths = []string{}
	}

	extRows := map[string]int64{}
	if !dryRun {
		cfg, err := config.Load()
		if err != nil {
			return cmd.PrintJSONError(err)
		}
		extCtx := extension.NewContext(svc, cfg)
		for _, p := range extension.Of[extension.Purgeable]() {
			count, err := p.Purge(extCtx, opts.OlderThan)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("purge extension %s: %w", p.Name(), err))
			}
			if count > 0 {
				extRows[p.Name()] = count
				if !cmd.JSON() {
					fmt.Fprintf(cmd.Out(), "Purged %d row(s) from %s\n", count, p.Name())
				}
			}
		}
	}

	if cmd.JSON() {
		return cmd.PrintJSON(struct {
			purge.Result
			DryRun     bool             `json:"dry_run"`
			Extensions map[string]int64 `json:"extensions"`
		}{result, dryRun, extRows})
	}
	return nil
}

