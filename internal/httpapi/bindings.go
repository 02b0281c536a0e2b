// bindings.go implements the node-document binding routes.

package httpapi

import (
	"net/http"

	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

type bindBatchRequest struct {
	DocumentIDs  []int64 `json:"document_ids"`
	RelationType string  `json:"relation_type"`
}

func (s *Server) bind(w http.ResponseWriter, r *http.Request) {
	nodeID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	docID, err := idParam(r, "docID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rel, err := validate.Relation(r.URL.Query().Get("relation_type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	b, err := s.svc.Bind(r.Context(), actor, nodeID, docID, rel)
	log.Event("http:bind", "bind").Author(actor).Request(reqID(r)).Node(nodeID).
		Detail("document", docID).Detail("relation_type", string(rel)).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b.ToJSON())
}

func (s *Server) unbind(w http.ResponseWriter, r *http.Request) {
	nodeID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	docID, err := idParam(r, "docID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	err = s.svc.Unbind(r.Context(), actor, nodeID, docID)
	log.Event("http:unbind", "unbind").Author(actor).Request(reqID(r)).Node(nodeID).
		Detail("document", docID).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bindBatch(w http.ResponseWriter, r *http.Request) {
	nodeID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req bindBatchRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	rel, err := validate.Relation(req.RelationType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	bs, err := s.svc.BatchBind(r.Context(), actor, nodeID, req.DocumentIDs, rel)
	log.Event("http:bind_batch", "bind").Author(actor).Request(reqID(r)).Node(nodeID).
		Detail("documents", req.DocumentIDs).Detail("relation_type", string(rel)).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.BindingsJSON(bs))
}

func (s *Server) bindings(w http.ResponseWriter, r *http.Request) {
	nodeID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bs, err := s.svc.ListBindings(r.Context(), nodeID, includeDeleted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.BindingsJSON(bs))
}

func (s *Server) bindingStatus(w http.ResponseWriter, r *http.Request) {
	docID, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bs, err := s.svc.BindingStatus(r.Context(), docID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.BindingsJSON(bs))
}
