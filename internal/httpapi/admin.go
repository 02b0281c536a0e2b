// admin.go implements the operational routes: health and recount.

package httpapi

import (
	"net/http"

	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/version"
)

type healthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
}

// health pings the database so a broken connection reports 503.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DB().PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Version: version.Get()})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.Get()})
}

// recount recomputes every counter. ?check=true reports drift only.
func (s *Server) recount(w http.ResponseWriter, r *http.Request) {
	check, err := queryBool(r, "check")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	res, err := s.svc.Recount(r.Context(), actor, !check)
	entry := log.Event("http:recount", "recount").Author(actor).Request(reqID(r)).Detail("check", check)
	if res != nil {
		entry.Detail("nodes", res.Nodes).Detail("changed", len(res.Changed))
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}
