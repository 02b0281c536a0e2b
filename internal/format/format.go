// Package format provides output formatting utilities for CLI display.
//
// Centralises formatting logic so that command implementations focus on
// tree operations while this package handles presentation concerns like
// column alignment and tree rendering.
package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prehisle/ndr/internal/store"
)

func date(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Nodes prints one node per line: id and path.
func Nodes(w io.Writer, nodes []store.Node) error {
	for _, n := range nodes {
		prefix := ""
		if !n.Active() {
			prefix = "[deleted] "
		}
		fmt.Fprintf(w, "%6d  %s%s\n", n.ID, prefix, n.Path)
	}
	return nil
}

// Long prints nodes in long format.
//
// Column order is ID, POS, DOCS, TYPE, UPDATED, BY, PATH. Variable-width
// fields come last so they do not disturb the alignment of the others.
func Long(w io.Writer, nodes []store.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	maxType, maxBy := 4, 2 // "TYPE", "BY"
	for _, n := range nodes {
		maxType = max(maxType, len(orDash(n.Type)))
		maxBy = max(maxBy, len(orDash(n.UpdatedBy)))
	}

	fmt.Fprintf(w, "%6s  %3s  %5s  %-*s  %-16s  %-*s  %s\n",
		"ID", "POS", "DOCS", maxType, "TYPE", "UPDATED", maxBy, "BY", "PATH")
	for _, n := range nodes {
		deleted := ""
		if !n.Active() {
			deleted = " [deleted]"
		}
		fmt.Fprintf(w, "%6d  %3d  %5d  %-*s  %s  %-*s  %s%s\n",
			n.ID, n.Position, n.SubtreeDocCount, maxType, orDash(n.Type),
			date(n.UpdatedAt), maxBy, orDash(n.UpdatedBy), n.Path, deleted)
	}
	return nil
}

// Node prints a single node as labelled fields.
func Node(w io.Writer, n *store.Node) error {
	parent := "-"
	if n.ParentPath != nil {
		parent = *n.ParentPath
	}
	fmt.Fprintf(w, "ID:        %d\n", n.ID)
	fmt.Fprintf(w, "Name:      %s\n", n.Name)
	fmt.Fprintf(w, "Path:      %s\n", n.Path)
	fmt.Fprintf(w, "Parent:    %s\n", parent)
	fmt.Fprintf(w, "Type:      %s\n", orDash(n.Type))
	fmt.Fprintf(w, "Position:  %d\n", n.Position)
	fmt.Fprintf(w, "Documents: %d\n", n.SubtreeDocCount)
	fmt.Fprintf(w, "State:     %s\n", n.State())
	fmt.Fprintf(w, "Created:   %s by %s\n", date(n.CreatedAt), orDash(n.CreatedBy))
	fmt.Fprintf(w, "Updated:   %s by %s\n", date(n.UpdatedAt), orDash(n.UpdatedBy))
	return nil
}

// Tree prints nodes as an indented tree under root. Nodes must be in the
// order ListChildren returns them (breadth-first, siblings by position);
// a node whose parent is not in the set hangs off the nearest listed
// ancestor, which happens when a type filter hid the parent.
func Tree(w io.Writer, root *store.Node, nodes []store.Node) error {
	children := make(map[int64][]store.Node)
	listed := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		listed[n.ID] = true
	}
	// Attach filtered-out parents' children to the closest visible ancestor
	// using the path: the longest listed path prefix wins.
	byPath := make(map[string]int64, len(nodes)+1)
	byPath[root.Path] = root.ID
	for _, n := range nodes {
		byPath[n.Path] = n.ID
	}
	for _, n := range nodes {
		parent := n.ParentKey()
		if !listed[parent] && parent != root.ID {
			parent = root.ID
			p := n.Path
			for {
				i := strings.LastIndexByte(p, '.')
				if i < 0 {
					break
				}
				p = p[:i]
				if id, ok := byPath[p]; ok {
					parent = id
					break
				}
			}
		}
		children[parent] = append(children[parent], n)
	}

	fmt.Fprintf(w, "%s (%d)\n", root.Path, root.SubtreeDocCount)
	var walk func(id int64, prefix string)
	walk = func(id int64, prefix string) {
		kids := children[id]
		for i, n := range kids {
			connector, next := "├── ", "│   "
			if i == len(kids)-1 {
				connector, next = "└── ", "    "
			}
			label := n.Slug
			if n.Name != n.Slug {
				label += " " + fmt.Sprintf("%q", n.Name)
			}
			if n.SubtreeDocCount > 0 {
				label += fmt.Sprintf(" (%d)", n.SubtreeDocCount)
			}
			fmt.Fprintf(w, "%s%s%s\n", prefix, connector, label)
			walk(n.ID, prefix+next)
		}
	}
	walk(root.ID, "")
	return nil
}

// Bindings prints bindings as NODE, DOC, RELATION, UPDATED, BY.
func Bindings(w io.Writer, bs []store.Binding) error {
	for _, b := range bs {
		deleted := ""
		if !b.Active() {
			deleted = " [unbound]"
		}
		fmt.Fprintf(w, "%6d  %6d  %-6s  %s  %s%s\n",
			b.NodeID, b.DocumentID, b.RelationType, date(b.UpdatedAt), orDash(b.UpdatedBy), deleted)
	}
	return nil
}

// Documents prints one document per line: id, type and title.
func Documents(w io.Writer, docs []store.Document) error {
	maxType := 0
	for _, d := range docs {
		maxType = max(maxType, len(orDash(d.Type)))
	}
	for _, d := range docs {
		deleted := ""
		if !d.Active() {
			deleted = " [deleted]"
		}
		fmt.Fprintf(w, "%6d  %-*s  %s%s\n", d.ID, maxType, orDash(d.Type), d.Title, deleted)
	}
	return nil
}

// Paths prints just node paths, one per line.
func Paths(w io.Writer, paths []string) error {
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}

// Stats prints aggregate database statistics.
func Stats(w io.Writer, st *store.Stats) error {
	fmt.Fprintf(w, "Driver:            %s (path index: %s)\n", st.Driver, st.PathIndex)
	fmt.Fprintf(w, "Nodes:             %d active, %d deleted, %d roots\n", st.Nodes, st.DeletedNodes, st.Roots)
	fmt.Fprintf(w, "Max depth:         %d\n", st.MaxDepth)
	fmt.Fprintf(w, "Bindings:          %d active (%d output)\n", st.Bindings, st.OutputBindings)
	fmt.Fprintf(w, "Documents:         %d active, %d deleted\n", st.Documents, st.DeletedDocuments)
	fmt.Fprintf(w, "Actors:            %d\n", st.Actors)
	if st.OldestDeletedAt > 0 {
		fmt.Fprintf(w, "Oldest deletion:   %s\n", date(st.OldestDeletedAt))
	}
	return nil
}
