// Package httpapi serves the tree over a REST API ("ndr serve --http").
//
// Routes live under /api/v1 and map one-to-one onto service operations.
// The acting identity comes from a configurable request header; mutations
// without it fail with 401 before anything is written. Every mutation is
// recorded in the audit log with the request id the client received in
// X-Request-ID.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prehisle/ndr/internal/metrics"
	"github.com/prehisle/ndr/internal/service"
)

// Options configures a Server.
type Options struct {
	ActorHeader string           // header carrying the actor, default X-User-Id
	Metrics     *metrics.Metrics // nil disables instrumentation and /metrics
	Logger      *slog.Logger     // access log, default slog.Default()
}

// Server holds the HTTP handler dependencies.
type Server struct {
	svc         service.Service
	actorHeader string
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates a server over svc.
func New(svc service.Service, opts Options) *Server {
	s := &Server{
		svc:         svc,
		actorHeader: opts.ActorHeader,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if s.actorHeader == "" {
		s.actorHeader = "X-User-Id"
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Router builds the chi router with middleware and every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.instrument)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.createNode)
			r.Get("/", s.listNodes)
			r.Get("/by-path", s.getByPath)
			r.Post("/reorder", s.reorder)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getNode)
				r.Put("/", s.updateNode)
				r.Delete("/", s.deleteNode)
				r.Delete("/purge", s.purgeNode)
				r.Post("/restore", s.restoreNode)
				r.Get("/ancestors", s.ancestors)
				r.Get("/children", s.children)
				r.Get("/subtree-documents", s.subtreeDocuments)
				r.Post("/bind/{docID}", s.bind)
				r.Delete("/unbind/{docID}", s.unbind)
				r.Post("/bind-batch", s.bindBatch)
				r.Get("/bindings", s.bindings)
			})
		})
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.createDocument)
			r.Get("/", s.listDocuments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getDocument)
				r.Put("/", s.updateDocument)
				r.Delete("/", s.deleteDocument)
				r.Post("/restore", s.restoreDocument)
				r.Delete("/purge", s.purgeDocument)
				r.Get("/binding-status", s.bindingStatus)
			})
		})
		r.Post("/admin/recount", s.recount)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
