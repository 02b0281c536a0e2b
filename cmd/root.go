/*
Copyright © 2026 prehisle
*/

// root.go defines the root command and CLI execution entry point.
//
// Separated from init_extensions.go to isolate cobra setup from extension
// initialisation logic.
//
// Design: PersistentPreRunE handles store initialisation lazily - only
// commands that need the store trigger extension init. This enables bootstrap
// commands (init, guide, config) to work without a store existing. The
// noStoreCommands map controls which commands skip initialisation.

package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/prehisle/ndr/internal/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ndr",
	Short: "Hierarchical node tree with document bindings",
	Long: `A tree of named nodes addressed by dotted paths (docs.guide.intro), with
ordered siblings, documents bound to nodes, soft delete and restore, and
per-node counts of the active documents bound anywhere in the subtree.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if output != "" && !slices.Contains(validOutputFormats, output) {
			return fmt.Errorf("invalid output format: %s (valid: %v)", output, validOutputFormats)
		}

		if actor == "" {
			actor = detectActor()
		}

		cmdName := topLevelCmdName(cmd)
		if actorRequiredCommands[cmdName] && actor == "" {
			return fmt.Errorf("actor not configured (checked --actor, NDR_ACTOR, .ndr/config.yaml and ~/.ndr/config.yaml)\n\nRun: ndr config author.name \"your-id\"\n\nSee 'ndr guide config' for local vs global options.")
		}

		if !noStoreCommands[cmdName] {
			if err := initExtensions(); err != nil {
				if JSON() {
					_ = PrintJSON(map[string]string{"error": err.Error()})
					cmd.SilenceErrors = true
					cmd.SilenceUsage = true
				}
				return fmt.Errorf("initialise extensions: %w", err)
			}
		}

		return nil
	},
}

// topLevelCmdName returns the name of the top-level command (direct child of root).
// For "ndr node mk docs", returns "node".
// For "ndr bind 3 7", returns "bind".
func topLevelCmdName(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}

// Execute runs the root command and handles process lifecycle.
// Opens audit logging, registers extensions, executes the command, and ensures
// the tree service is closed before exit. Exit code 1 indicates error.
func Execute() {
	if err := log.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}
	defer log.Close()

	registerExtensions()
	err := rootCmd.Execute()

	if extService != nil {
		if closeErr := extService.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", closeErr)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing and extension access.
func RootCmd() *cobra.Command {
	return rootCmd
}
