// context.go defines the Context extensions use to reach the tree.
//
// Extensions receive a Context in Init, after every extension has
// registered and the service is open. The same Context is handed to MCP tool
// handlers and to tree event hooks.
//
// Design: Context is an interface so tests can hand extensions a fake. The
// database is always the service's own connection; extensions that need
// tables of their own create them through DB() and never alter the node,
// document or binding tables.

package extension

import (
	"database/sql"

	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/service"
)

// Context gives extensions controlled access to the open tree.
type Context interface {
	// Service returns the tree service for node, binding and document operations.
	Service() service.Service

	// DB is the service's connection, for extension-owned tables.
	DB() *sql.DB

	// Config returns the loaded configuration. Never nil.
	Config() *config.Config
}

type extContext struct {
	svc service.Service
	cfg *config.Config
}

// NewContext wraps an open service. A nil cfg is replaced by the defaults.
func NewContext(svc service.Service, cfg *config.Config) Context {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return extContext{svc: svc, cfg: cfg}
}

func (c extContext) Service() service.Service { return c.svc }
func (c extContext) DB() *sql.DB              { return c.svc.DB() }
func (c extContext) Config() *config.Config   { return c.cfg }
