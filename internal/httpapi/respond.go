// respond.go implements JSON encoding, error mapping and request decoding
// shared by every handler.
//
// Design: Handlers never choose a status for a failure themselves. They
// return the service error to fail(), which classifies it with
// store.KindOf so a given error kind has the same status on every route.
// Conflicts from a concurrent restructure also set "retryable", telling the
// client the same request may succeed if sent again.

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/tree"
)

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Error     string     `json:"error"`
	Kind      store.Kind `json:"kind"`
	Retryable bool       `json:"retryable,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k store.Kind) int {
	switch k {
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindConflict:
		return http.StatusConflict
	case store.KindInvalidOperation:
		return http.StatusBadRequest
	case store.KindMissingActor:
		return http.StatusUnauthorized
	case store.KindCapabilityUnavailable:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := store.KindOf(err)
	msg := err.Error()
	if kind == store.KindInternal {
		s.logger.Error("internal error", "error", err, "request_id", reqID(r), "path", r.URL.Path)
		msg = "internal error"
	}
	s.writeJSON(w, StatusFor(kind), errorBody{Error: msg, Kind: kind, Retryable: tree.IsRetryable(err)})
}

// badRequest reports malformed input that never reached the service.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidOperation, fmt.Sprintf(format, args...))
}

// actor returns the acting identity from the configured header. Mutating
// handlers pass it through unchecked; the service rejects a blank actor
// with ErrMissingActor, which maps to 401.
func (s *Server) actor(r *http.Request) string {
	return r.Header.Get(s.actorHeader)
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// decode reads a JSON request body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid %s %q", name, raw)
	}
	return b, nil
}
