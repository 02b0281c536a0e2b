// db.go implements the "ndr db" command for database management.
//
// Separated from extension.go to isolate multi-database management logic
// including local/shared status toggling via gitignore manipulation.
//
// Design: DB is a NoStoreCommand because it manages database metadata
// (gitignore entries) without needing to open the databases themselves.
// Only --stats opens a store, and it closes it before returning.

package core

import (
	"fmt"
	"path/filepath"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/repo"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "db [name]",
		Short: "List or manage databases",
		Long: `List databases or change their local/shared status.

  ndr db                    # list all databases
  ndr db --local            # mark default database as local
  ndr db notes --local      # mark notes database as local
  ndr db notes --share      # mark as shared
  ndr db --dir /path        # list databases in external directory
  ndr db --stats            # node, binding and document totals

Local databases are not committed. Shared databases are.
If no name is given with --local or --share, operates on the default database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDB,
	}
	c.Flags().BoolP(extension.FlagLocal, "l", false, "Mark database as local")
	c.Flags().BoolP(extension.FlagShare, "s", false, "Mark database as shared")
	c.Flags().Bool(extension.FlagStats, false, "Show database statistics")
	c.MarkFlagsMutuallyExclusive(extension.FlagLocal, extension.FlagShare, extension.FlagStats)
	return c
}

func runDB(c *cobra.Command, args []string) error {
	local, _ := c.Flags().GetBool(extension.FlagLocal)
	share, _ := c.Flags().GetBool(extension.FlagShare)
	stats, _ := c.Flags().GetBool(extension.FlagStats)

	// repo functions take the .ndr directory itself; empty means discover
	// it by walking up from the working directory.
	dir := cmd.Dir()
	ndrDir := ""
	if dir != "" {
		ndrDir = filepath.Join(dir, repo.Dir)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	if stats {
		err := showStats(c, name, dir)
		log.Event("core:db", "stats").Author(cmd.Actor()).Detail("db", name).Detail("dir", dir).Write(err)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("db stats: %w", err))
		}
		return nil
	}

	if len(args) == 0 && !local && !share {
		err := listDBs(ndrDir)

		log.Event("core:db", "list").
			Author(cmd.Actor()).
			Detail("dir", dir).
			Write(err)

		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("db list: %w", err))
		}
		return nil
	}

	if local || share {
		op, status, apply := "ignore", "local", repo.IgnoreDB
		if share {
			op, status, apply = "unignore", "shared", repo.UnignoreDB
		}
		err := apply(name, ndrDir)

		log.Event("core:db", op).
			Author(cmd.Actor()).
			Detail("db", name).
			Detail("dir", dir).
			Write(err)

		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("db %s %q: %w", op, name, err))
		}
		file := repo.DBFileName(name)
		if cmd.JSON() {
			return cmd.PrintJSON(dbEntry{File: file, Status: status})
		}
		fmt.Fprintf(cmd.Out(), "%s marked as %s\n", file, status)
		return nil
	}

	ignored, err := repo.IsIgnored(name, ndrDir)

	log.Event("core:db", "status").
		Author(cmd.Actor()).
		Detail("db", name).
		Detail("dir", dir).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("db status %q: %w", name, err))
	}
	status := "shared"
	if ignored {
		status = "local"
	}
	file := repo.DBFileName(name)
	if cmd.JSON() {
		return cmd.PrintJSON(dbEntry{File: file, Status: status})
	}
	fmt.Fprintf(cmd.Out(), "%s: %s\n", file, status)
	return nil
}

// showStats opens the named database just long enough to aggregate it.
func showStats(c *cobra.Command, name, dir string) error {
	svc, err := tree.NewIn(name, dir)
	if err != nil {
		return err
	}
	defer svc.Close()

	st, err := svc.Stats(c.Context())
	if err != nil {
		return err
	}
	if cmd.JSON() {
		return cmd.PrintJSON(st)
	}
	return format.Stats(cmd.Out(), st)
}

type dbEntry struct {
	File   string `json:"file"`
	Status string `json:"status"`
}

// listDBs displays all databases in the target directory with their status.
// Each database shows as "shared" (committed) or "local" (gitignored).
func listDBs(dir string) error {
	dbs, err := repo.ListDBs(dir)
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}

	entries := make([]dbEntry, 0, len(dbs))
	for _, db := range dbs {
		status := "shared"
		if db.Local {
			status = "local"
		}
		entries = append(entries, dbEntry{File: db.File, Status: status})
	}

	if cmd.JSON() {
		return cmd.PrintJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.Out(), "No databases found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.Out(), "%s  %s\n", e.File, e.Status)
	}
	return nil
}
