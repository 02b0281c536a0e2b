// Package tree implements the node tree operations on top of a store.
// It exposes a Service that validates input, takes node locks in ascending
// id order, rewrites paths, positions and subtree counters in one
// transaction, and notifies extensions once the transaction has committed.
package tree

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/config"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/metrics"
	"github.com/prehisle/ndr/internal/repo"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

var _ service.Service = (*Service)(nil)

// Service provides the tree operations backed by a SQLStore.
type Service struct {
	store    *store.SQLStore
	location string // SQLite file path, or "postgres"
	maxSlug  int
	maxName  int
	maxDepth int
	pageSize int
	extCtx   extension.Context // for firing events to extensions
}

// New opens the tree for the named database (empty for the default),
// discovering the .ndr directory by walking up from the working directory.
// When the configured driver is postgres the DSN from config is used instead.
func New(db string) (*Service, error) {
	return NewIn(db, "")
}

// NewIn is New with an explicit repository directory (the parent of .ndr).
// An empty dir falls back to discovery.
func NewIn(db, dir string) (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err // config.Load provides detailed, actionable error messages
	}

	opts := store.Options{Driver: cfg.Driver(), DSN: cfg.DSN(), PathIndex: cfg.PathIndex()}
	location := store.DriverPostgres
	if opts.Driver == store.DriverSQLite {
		dbPath, err := repo.Locate(db, dir)
		if err != nil {
			return nil, err
		}
		opts.DSN = dbPath
		location = dbPath
	}

	s, err := store.OpenWith(opts)
	if err != nil {
		return nil, err
	}
	if opts.Driver == store.DriverPostgres {
		// The schema is idempotent; a fresh Postgres database needs no init step.
		if err := s.Init(); err != nil {
			s.Close()
			return nil, err
		}
	}
	svc := Open(s, cfg)
	svc.location = location
	return svc, nil
}

// Open wraps an already opened store. Limits come from cfg; a zero Config
// gives the defaults.
func Open(s *store.SQLStore, cfg *config.Config) *Service {
	svc := &Service{store: s, location: s.Driver()}
	svc.applyConfig(cfg)
	return svc
}

func (s *Service) applyConfig(cfg *config.Config) {
	s.maxSlug = cfg.MaxSlug()
	s.maxName = cfg.MaxName()
	s.maxDepth = cfg.MaxDepth()
	s.pageSize = cfg.PageSize()
}

// Init initialises a new ndr repository. See repo.Init.
//
// Note: Init does not write config. Config is managed separately via "ndr config".
func Init(opts repo.InitOptions) (string, error) {
	return repo.Init(opts)
}

// Close checkpoints the WAL and closes the database connection.
func (s *Service) Close() error {
	if err := s.store.Checkpoint(context.Background()); err != nil {
		log.Event("service:close", "checkpoint").
			Detail("error", err.Error()).
			Write(err)
	}
	return s.store.Close()
}

// ReloadConfig reloads configuration from disk and updates cached limits.
// Call this after modifying config to ensure the service uses new settings.
func (s *Service) ReloadConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	s.applyConfig(cfg)
	return nil
}

// SetExtensionContext sets the extension context for firing events.
// Called from cmd/root.go after creating the context.
func (s *Service) SetExtensionContext(ctx extension.Context) {
	s.extCtx = ctx
}

// fireEvent notifies all registered extension event handlers.
//
// Design: Event handler errors are logged but not propagated. Events are
// notifications, not veto points, and they are only fired after commit.
func (s *Service) fireEvent(e extension.Event) {
	if s.extCtx == nil {
		return
	}
	for _, ext := range extension.All() {
		if h, ok := ext.(extension.EventHandler); ok {
			if err := h.HandleEvent(s.extCtx, e); err != nil {
				log.Event("event:error", "error").
					Author(e.EventActor()).
					Path(e.EventPath()).
					Detail("ext", ext.Name()).
					Detail("event", string(e.EventType())).
					Write(err)
				metrics.Default.EventHandlerErrors.WithLabelValues(ext.Name()).Inc()
			}
		}
	}
}

// Location returns the SQLite database path, or "postgres".
func (s *Service) Location() string {
	return s.location
}

// ProjectDir returns the directory used as the audit log project key.
func (s *Service) ProjectDir() string {
	if s.location == store.DriverPostgres {
		return s.location
	}
	return filepath.Dir(s.location)
}

// Store exposes the underlying store for packages that run their own
// read-only queries (recount reports, stats).
func (s *Service) Store() *store.SQLStore {
	return s.store
}

// DB returns the underlying database connection for extensions.
func (s *Service) DB() *sql.DB {
	return s.store.DB()
}

// Checkpoint flushes the WAL into the main database file.
func (s *Service) Checkpoint(ctx context.Context) error {
	return s.store.Checkpoint(ctx)
}

// Stats returns aggregate database statistics.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Reader().Stats(ctx)
}

// actor validates the acting identity of a mutating call.
func actor(a string) (string, error) {
	return validate.Actor(a)
}
