// init.go implements the "ndr init" command for repository initialisation.
//
// Separated from extension.go to isolate init-specific logic. Init is special
// because it runs before a store exists and creates the initial database.
//
// Design: Init does NOT create config - that's managed separately via
// "ndr config". This follows git's model where init creates repository
// structure and config is separate. The configured store driver decides
// whether a SQLite file is created or the schema is applied to Postgres.

package core

import (
	"fmt"
	"path/filepath"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/repo"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Initialise a new ndr store",
		Long: `Creates a .ndr/ndr.db database in the current directory.

Use --db to create additional databases:
  ndr init --db docs    # creates .ndr/ndr-docs.db

Use --dir to create in a different directory:
  ndr init --dir /path/to/project    # creates /path/to/project/.ndr/ndr.db

Use --local to exclude from git:
  ndr init --db notes --local    # creates ndr-notes.db, not committed

With store.driver set to postgres, init applies the schema to store.dsn
instead of creating a file.

Note: init does not create config. Use "ndr config" to set up configuration.`,
		RunE: runInit,
	}
	c.Flags().BoolP(extension.FlagLocal, "l", false, "Mark database as local (gitignored)")
	return c
}

func runInit(c *cobra.Command, _ []string) error {
	local, _ := c.Flags().GetBool(extension.FlagLocal)
	db, dir := cmd.DB(), cmd.Dir()

	// --local edits the current project's .gitignore, which has nothing to
	// do with a database created under --dir.
	if local && dir != "" {
		return cmd.PrintJSONError(fmt.Errorf("cannot use --local with --dir: --local modifies the current project's .gitignore, but --dir creates the database elsewhere"))
	}

	cfg, err := config.Load()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	location, err := tree.Init(repo.InitOptions{
		Force: cmd.Force(),
		DB:    db,
		Local: local,
		Dir:   dir,
		Store: store.Options{Driver: cfg.Driver(), DSN: cfg.DSN(), PathIndex: cfg.PathIndex()},
	})

	log.Event("core:init", "init").
		Author(cmd.Actor()).
		Detail("db", db).
		Detail("dir", dir).
		Detail("local", local).
		Detail("driver", cfg.Driver()).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("init: %w", err))
	}

	if location != store.DriverPostgres {
		if rel, err := filepath.Rel(".", location); err == nil {
			location = rel
		}
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]string{"location": location})
	}
	fmt.Fprintf(cmd.Out(), "Initialised ndr store in %s\n", location)
	return nil
}
