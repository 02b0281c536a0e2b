// resources.go implements MCP resource handlers for node access.
//
// MCP resources provide read-only access via URI schemes, so an LLM client
// can load a node and its children as context without a tool call.
//
// Design: Resource URIs follow the pattern ndr://nodes/{path}, where path is
// the dotted node path. The response mirrors "ndr node get" plus the direct
// children in order.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prehisle/ndr/internal/store"
)

var (
	// ErrInvalidURI indicates a malformed resource URI.
	ErrInvalidURI = errors.New("invalid URI")
	// ErrEmptyPath indicates a missing node path in a resource URI.
	ErrEmptyPath = errors.New("empty node path")
)

// readNode handles ndr://nodes/{path} resource requests.
func (h *handlers) readNode(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.svc == nil {
		return nil, errors.New(ErrNotInitialised)
	}
	path, err := parseNodeURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	children, err := h.svc.ListChildren(ctx, n.ID, store.ChildrenOptions{Depth: 1})
	if err != nil {
		return nil, err
	}
	data, err := store.MarshalJSON(map[string]any{
		"node":     n.ToJSON(),
		"children": store.NodesJSON(children),
	})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// parseNodeURI extracts the dotted path from ndr://nodes/{path}.
func parseNodeURI(uri string) (string, error) {
	const prefix = "ndr://nodes/"
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	if rest == "" {
		return "", ErrEmptyPath
	}
	return rest, nil
}
