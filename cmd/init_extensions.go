/*
Copyright © 2026 prehisle
*/

// init_extensions.go handles extension initialisation and command registration.
//
// Separated from root.go to isolate the initialisation logic that discovers
// the store, loads config, and wires up extensions.
//
// Design: Extensions register during init() but aren't initialised until
// first command execution. This two-phase pattern allows extensions to
// declare commands before the store exists. The service is created once
// and shared across all extensions via the Context.

package cmd

import (
	"fmt"
	"sync"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/tree"
)

// noStoreCommands lists commands that bypass automatic store initialisation.
// Built from bootstrap commands plus extension-declared storeless commands.
var noStoreCommands map[string]bool

// actorRequiredCommands lists top-level commands whose subcommands change the
// tree. Read-only subcommands of these groups still pass through the check,
// which keeps attribution consistent for the whole group.
var actorRequiredCommands = map[string]bool{
	"node":    true,
	"bind":    true,
	"unbind":  true,
	"doc":     true,
	"outline": true,
	"purge":   true,
}

// buildNoStoreCommands creates the set of commands that skip store initialisation.
//
// Two categories need this:
//
//  1. Bootstrap commands (init, guide, config, llm) help users set up or learn
//     about ndr before a store exists.
//
//  2. Extension-declared storeless commands manage their own service
//     lifecycle (serve, purge) or never touch the store (version, db).
func buildNoStoreCommands() map[string]bool {
	cmds := map[string]bool{
		"init":   true,
		"guide":  true,
		"config": true,
		"llm":    true,
	}

	for _, s := range extension.Of[extension.Storeless]() {
		for _, name := range s.NoStoreCommands() {
			cmds[name] = true
		}
	}

	return cmds
}

// Global extension context, created during initialisation.
var (
	extContext extension.Context
	extService *tree.Service
	initOnce   sync.Once
	initErr    error
)

// initExtensions opens the tree service and injects it into extensions.
//
// sync.Once guarantees one service per process: it owns the database handle
// and must be closed exactly once by Execute.
func initExtensions() error {
	initOnce.Do(func() {
		svc, err := tree.NewIn(DB(), Dir())
		if err != nil {
			initErr = fmt.Errorf("opening database: %w", err)
			return
		}
		extService = svc

		log.SetProject(svc.ProjectDir())

		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		extContext = extension.NewContext(svc, cfg)
		svc.SetExtensionContext(extContext)

		for _, ext := range extension.Of[extension.Initializable]() {
			if err := ext.Init(extContext); err != nil {
				initErr = fmt.Errorf("init extension %s: %w", ext.Name(), err)
				return
			}
		}
	})
	return initErr
}

// Service returns the tree service opened for the current command, or nil
// for storeless commands.
func Service() *tree.Service { return extService }

// ExtensionContext returns the shared extension context, or nil before
// initialisation.
func ExtensionContext() extension.Context { return extContext }

var extensionsOnce sync.Once

// registerExtensions adds commands from all registered extensions.
// Called once before Execute runs.
func registerExtensions() {
	extensionsOnce.Do(func() {
		for _, ext := range extension.All() {
			for _, cmd := range ext.Commands() {
				rootCmd.AddCommand(cmd)
			}
		}
		noStoreCommands = buildNoStoreCommands()
	})
}
