// serve.go implements the "ndr serve" command.
//
// Separated from extension.go because serve has unique lifecycle requirements.
// Unlike other commands that run and exit, serve blocks until stdin closes
// (MCP) or the process is interrupted (HTTP).
//
// Design: Serve is a NoStoreCommand - it manages its own service lifecycle
// instead of using the shared service from root.go. The MCP transport starts
// even without a store so an LLM can call ndr_init; the HTTP transport needs
// an initialised store up front.

package core

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/httpapi"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/mcp"
	"github.com/prehisle/ndr/internal/metrics"
	"github.com/prehisle/ndr/internal/tree"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP or HTTP server",
		Long: `Start an MCP (Model Context Protocol) server over stdio for LLM integration.

Use --http to serve the REST API instead:
  ndr serve --http                 # listen on server.addr (default :8080)
  ndr serve --http --addr :9000

Use --db to serve a specific database:
  ndr serve --db docs    # serve ndr-docs.db`,
		RunE: runServe,
	}
	c.Flags().Bool(extension.FlagHTTP, false, "Serve the REST API over HTTP")
	c.Flags().String(extension.FlagAddr, "", "Listen address (overrides server.addr)")
	return c
}

func runServe(c *cobra.Command, _ []string) error {
	useHTTP, _ := c.Flags().GetBool(extension.FlagHTTP)
	if !useHTTP {
		return mcp.Serve(cmd.DB())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, err := tree.NewIn(cmd.DB(), cmd.Dir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer svc.Close()
	log.SetProject(svc.ProjectDir())

	extCtx := extension.NewContext(svc, cfg)
	svc.SetExtensionContext(extCtx)
	for _, ext := range extension.Of[extension.Initializable]() {
		if err := ext.Init(extCtx); err != nil {
			return fmt.Errorf("init extension %s: %w", ext.Name(), err)
		}
	}

	addr, _ := c.Flags().GetString(extension.FlagAddr)
	if addr == "" {
		addr = cfg.Addr()
	}
	opts := httpapi.Options{ActorHeader: cfg.ActorHeader()}
	if cfg.Metrics() {
		opts.Metrics = metrics.Default
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return httpapi.New(svc, opts).ListenAndServe(ctx, addr)
}
