// nodes.go implements the node routes: CRUD, lifecycle, ordering and
// subtree reads.

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
)

type createNodeRequest struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ParentPath string `json:"parent_path"`
	Type       string `json:"type"`
}

type updateNodeRequest struct {
	Name       *string `json:"name"`
	Slug       *string `json:"slug"`
	ParentPath *string `json:"parent_path"`
	Type       *string `json:"type"`
}

type reorderRequest struct {
	ParentID   int64   `json:"parent_id"`
	OrderedIDs []int64 `json:"ordered_ids"`
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	n, err := s.svc.CreateNode(r.Context(), actor, store.CreateNodeOptions{
		Name: req.Name, Slug: req.Slug, ParentPath: req.ParentPath, Type: req.Type,
	})
	entry := log.Event("http:node_create", "create").Author(actor).Request(reqID(r)).Path(req.ParentPath)
	if n != nil {
		entry.Node(n.ID).Resolved(n.Path)
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, n.ToJSON())
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
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
	n, err := s.svc.GetNode(r.Context(), id, includeDeleted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

func (s *Server) getByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.fail(w, r, badRequest("path is required"))
		return
	}
	n, err := s.svc.GetByPath(r.Context(), path)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

func (s *Server) ancestors(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nodes, err := s.svc.Ancestors(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.NodesJSON(nodes))
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateNodeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	n, err := s.svc.UpdateNode(r.Context(), actor, id, store.UpdateNodeOptions{
		Name: req.Name, Slug: req.Slug, ParentPath: req.ParentPath, Type: req.Type,
	})
	entry := log.Event("http:node_update", "update").Author(actor).Request(reqID(r)).Node(id)
	if req.ParentPath != nil {
		entry.Detail("parent_path", *req.ParentPath)
	}
	if n != nil {
		entry.Resolved(n.Path)
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, "delete", s.svc.DeleteNode)
}

func (s *Server) restoreNode(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, "restore", s.svc.RestoreNode)
}

// lifecycle runs a soft-delete or restore and answers with the node.
func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, action string,
	op func(ctx context.Context, actor string, id int64) (*store.Node, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	n, err := op(r.Context(), actor, id)
	entry := log.Event("http:node_"+action, action).Author(actor).Request(reqID(r)).Node(id)
	if n != nil {
		entry.Path(n.Path)
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

func (s *Server) purgeNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	res, err := s.svc.PurgeNode(r.Context(), actor, id)
	entry := log.Event("http:node_purge", "purge").Author(actor).Request(reqID(r)).Node(id)
	if res != nil {
		entry.Detail("nodes", res.Nodes).Detail("bindings", res.Bindings)
	}
	entry.Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.ListNodes(r.Context(), page, includeDeleted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.ToJSON())
}

func (s *Server) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	actor := s.actor(r)
	nodes, err := s.svc.ReorderChildren(r.Context(), actor, req.ParentID, req.OrderedIDs)
	log.Event("http:node_reorder", "reorder").Author(actor).Request(reqID(r)).
		Node(req.ParentID).Detail("ordered_ids", req.OrderedIDs).Write(err)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.NodesJSON(nodes))
}

func (s *Server) children(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	depth, err := queryInt(r, "depth", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nodes, err := s.svc.ListChildren(r.Context(), id, store.ChildrenOptions{
		Depth: depth,
		Type:  r.URL.Query().Get("type"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.NodesJSON(nodes))
}

func (s *Server) subtreeDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := documentFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := store.SubtreeDocumentsOptions{IncludeDescendants: true, Filter: f}
	if raw := r.URL.Query().Get("include_descendants"); raw != "" {
		if opts.IncludeDescendants, err = queryBool(r, "include_descendants"); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if opts.IncludeDeletedNodes, err = queryBool(r, "include_deleted_nodes"); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.SubtreeDocuments(r.Context(), id, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.ToJSON())
}

// pageParams reads ?page= and ?size=. The service applies defaults and caps.
func pageParams(r *http.Request) (store.Page, error) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		return store.Page{}, err
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		return store.Page{}, err
	}
	return store.Page{Page: page, Size: size}, nil
}

// documentFilter reads the shared document filter parameters. Metadata
// equality filters are given as metadata.<field>=value.
func documentFilter(r *http.Request) (store.DocumentFilter, error) {
	q := r.URL.Query()
	f := store.DocumentFilter{
		Type:  q.Get("type"),
		Query: q.Get("q"),
	}
	var err error
	if f.Page, err = pageParams(r); err != nil {
		return f, err
	}
	if f.IncludeDeleted, err = queryBool(r, "include_deleted"); err != nil {
		return f, err
	}
	if raw := q.Get("relation_type"); raw != "" {
		if f.RelationType, err = validate.Relation(raw); err != nil {
			return f, err
		}
	}
	for key, vals := range q {
		field, ok := strings.CutPrefix(key, "metadata.")
		if !ok || field == "" || len(vals) == 0 {
			continue
		}
		if f.Metadata == nil {
			f.Metadata = make(map[string]string)
		}
		f.Metadata[field] = vals[0]
	}
	return f, nil
}
