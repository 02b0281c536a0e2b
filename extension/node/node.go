// Package node provides the node extension for tree structure commands.
// It registers the "node" command with subcommands mk, get, ls, mv, set, rm,
// restore, reorder, glob and docs.
//
// Each subcommand file isolates its own flag handling and output
// formatting. All of them address nodes the same way: a dotted path
// ("docs.guide") or "@" followed by a node id ("@42").
package node

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/service"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the node extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "node".
func (e *Extension) Name() string { return "node" }

// Init receives the shared service from the extension context.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns the node command group.
func (e *Extension) Commands() []*cobra.Command {
	c := &cobra.Command{
		Use:   "node",
		Short: "Create, inspect and rearrange nodes",
		Long: `Manage the node tree.

Nodes are addressed by dotted path (docs.guide.intro) or by id with an
"@" prefix (@42). Soft-deleted nodes can only be addressed by id.`,
	}
	c.AddCommand(
		e.newMkCmd(),
		e.newGetCmd(),
		e.newLsCmd(),
		e.newMvCmd(),
		e.newSetCmd(),
		e.newRmCmd(),
		e.newRestoreCmd(),
		e.newReorderCmd(),
		e.newGlobCmd(),
		e.newDocsCmd(),
	)
	return []*cobra.Command{c}
}

// MCPTools returns nil - node MCP tools live in internal/mcp.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

// ParseRef splits a node reference into an id (for "@<id>") or a path.
func ParseRef(ref string) (id int64, path string, err error) {
	if rest, ok := strings.CutPrefix(ref, "@"); ok {
		id, err = strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return 0, "", fmt.Errorf("%w: invalid node id %q", store.ErrInvalidOperation, ref)
		}
		return id, "", nil
	}
	return 0, ref, nil
}

// Resolve looks a node reference up. includeDeleted only applies to ids:
// a path always names the active node holding it.
func Resolve(ctx context.Context, svc service.Service, ref string, includeDeleted bool) (*store.Node, error) {
	id, path, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if id != 0 {
		return svc.GetNode(ctx, id, includeDeleted)
	}
	return svc.GetByPath(ctx, path)
}
