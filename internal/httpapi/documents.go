// documents.go implements the document routes.

package httpapi

import (
	"context"
	"net/http"

	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
)

type createDocumentRequest struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	d, err := s.svc.CreateDocument(r.Context(), actor, store.CreateDocumentOptions{
		Title: req.Title, Type: req.Type, Metadata: req.Metadata,
	})
	entry := log.Event("http:document_create", "create").Author(actor).Request(reqID(r))
	if d != nil {
		entry.Detail("document", d.ID)
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d.ToJSON())
}

// updateDocumentRequest carries a partial edit. Absent fields are kept.
type updateDocumentRequest struct {
	Title    *string        `json:"title"`
	Type     *string        `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateDocumentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	d, err := s.svc.UpdateDocument(r.Context(), actor, id, store.UpdateDocumentOptions{
		Title: req.Title, Type: req.Type, Metadata: req.Metadata,
	})
	log.Event("http:document_update", "update").Author(actor).Request(reqID(r)).
		Detail("document", id).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d.ToJSON())
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.svc.GetDocument(r.Context(), id, includeDeleted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d.ToJSON())
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	f, err := documentFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.ListDocuments(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.ToJSON())
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.documentLifecycle(w, r, "delete", s.svc.DeleteDocument)
}

func (s *Server) restoreDocument(w http.ResponseWriter, r *http.Request) {
	s.documentLifecycle(w, r, "restore", s.svc.RestoreDocument)
}

func (s *Server) documentLifecycle(w http.ResponseWriter, r *http.Request, action string,
	op func(ctx context.Context, actor string, id int64) (*store.Document, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	d, err := op(r.Context(), actor, id)
	log.Event("http:document_"+action, action).Author(actor).Request(reqID(r)).
		Detail("document", id).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d.ToJSON())
}

func (s *Server) purgeDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	removed, err := s.svc.PurgeDocument(r.Context(), actor, id)
	log.Event("http:document_purge", "purge").Author(actor).Request(reqID(r)).
		Detail("document", id).Detail("bindings", removed).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"document_id": id, "bindings": removed})
}
