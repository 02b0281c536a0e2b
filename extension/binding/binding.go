// Package binding provides the binding extension for attaching documents
// to nodes. It registers commands: bind, unbind, bindings, where.
//
// A binding links one document to one node with a relation type. Only
// active "output" bindings of active documents count towards the subtree
// document counts of the node and its ancestors.
package binding

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/extension/node"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the binding extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "binding".
func (e *Extension) Name() string { return "binding" }

// Init receives the shared service from the extension context.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns bind, unbind, bindings and where.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newBindCmd(),
		e.newUnbindCmd(),
		e.newBindingsCmd(),
		e.newWhereCmd(),
	}
}

// MCPTools returns nil - binding MCP tools live in internal/mcp.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

func parseDocIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid document id %q", store.ErrInvalidOperation, a)
		}
		ids[i] = id
	}
	return ids, nil
}

func (e *Extension) newBindCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "bind <node> <document-id>...",
		Short: "Bind documents to a node",
		Long: `Bind one or more documents to a node.

Binding an already bound document is not an error: an unbound binding is
revived and a different --relation switches its type. Several documents are
bound all-or-nothing in one transaction.

  ndr bind docs.guide 7
  ndr bind docs.guide 7 8 9 --relation source`,
		Args: cobra.MinimumNArgs(2),
		RunE: e.runBind,
	}
	c.Flags().StringP(extension.FlagRelation, "r", string(store.RelationOutput), "Relation type: output or source")
	return c
}

func (e *Extension) runBind(c *cobra.Command, args []string) error {
	ctx := c.Context()
	raw, _ := c.Flags().GetString(extension.FlagRelation)
	rel, err := validate.Relation(raw)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	docIDs, err := parseDocIDs(args[1:])
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	n, err := node.Resolve(ctx, e.svc, args[0], false)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("bind %q: %w", args[0], err))
	}

	var bs []store.Binding
	if len(docIDs) == 1 {
		var b *store.Binding
		if b, err = e.svc.Bind(ctx, cmd.Actor(), n.ID, docIDs[0], rel); err == nil {
			bs = []store.Binding{*b}
		}
	} else {
		bs, err = e.svc.BatchBind(ctx, cmd.Actor(), n.ID, docIDs, rel)
	}

	log.Event("binding:bind", "bind").Author(cmd.Actor()).Node(n.ID).Path(n.Path).
		Detail("documents", docIDs).Detail("relation_type", string(rel)).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("bind %q: %w", args[0], err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(store.BindingsJSON(bs))
	}
	return format.Bindings(cmd.Out(), bs)
}

func (e *Extension) newUnbindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unbind <node> <document-id>",
		Short: "Remove a binding",
		Long:  `Remove the binding between a node and a document. The document itself is kept.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			docIDs, err := parseDocIDs(args[1:])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			n, err := node.Resolve(ctx, e.svc, args[0], false)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("unbind %q: %w", args[0], err))
			}

			err = e.svc.Unbind(ctx, cmd.Actor(), n.ID, docIDs[0])

			log.Event("binding:unbind", "unbind").Author(cmd.Actor()).Node(n.ID).Path(n.Path).
				Detail("document", docIDs[0]).Write(err)

			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("unbind %q %d: %w", args[0], docIDs[0], err))
			}
			if !cmd.JSON() {
				fmt.Fprintf(cmd.Out(), "Unbound document %d from %s\n", docIDs[0], n.Path)
			}
			return cmd.PrintJSON(map[string]any{"node_id": n.ID, "document_id": docIDs[0]})
		},
	}
}

func (e *Extension) newBindingsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "bindings <node>",
		Short: "List a node's bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			all, _ := c.Flags().GetBool(extension.FlagAll)
			bs, err := e.nodeBindings(c.Context(), args[0], all)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("bindings %q: %w", args[0], err))
			}
			if cmd.JSON() {
				return cmd.PrintJSON(store.BindingsJSON(bs))
			}
			return format.Bindings(cmd.Out(), bs)
		},
	}
	c.Flags().BoolP(extension.FlagAll, "A", false, "Include removed bindings")
	return c
}

func (e *Extension) nodeBindings(ctx context.Context, ref string, all bool) ([]store.Binding, error) {
	n, err := node.Resolve(ctx, e.svc, ref, false)
	if err != nil {
		return nil, err
	}
	return e.svc.ListBindings(ctx, n.ID, all)
}

// whereEntry pairs a binding with the path of its node.
type whereEntry struct {
	Path    string            `json:"path"`
	Binding store.BindingJSON `json:"binding"`
}

func (e *Extension) newWhereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where <document-id>",
		Short: "Show the nodes a document is bound to",
		Long:  `List the active nodes a document is bound to, with the relation type of each binding.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			ids, err := parseDocIDs(args)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			bs, err := e.svc.BindingStatus(ctx, ids[0])
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("where %d: %w", ids[0], err))
			}
			out := make([]whereEntry, 0, len(bs))
			for _, b := range bs {
				n, err := e.svc.GetNode(ctx, b.NodeID, false)
				if err != nil {
					return cmd.PrintJSONError(fmt.Errorf("where %d: node %d: %w", ids[0], b.NodeID, err))
				}
				out = append(out, whereEntry{Path: n.Path, Binding: b.ToJSON()})
			}
			if cmd.JSON() {
				return cmd.PrintJSON(out)
			}
			for _, w := range out {
				fmt.Fprintf(cmd.Out(), "%-6s  %s\n", w.Binding.RelationType, w.Path)
			}
			return nil
		},
	}
}
