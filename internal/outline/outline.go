// Package outline exports a subtree as a nested YAML or JSON outline and
// imports such an outline as new nodes.
//
// An outline carries structure only: names, slugs, types and child order.
// Bindings and counters are not part of it; importing an outline into an
// empty parent reproduces the shape of the exported subtree.
package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prehisle/ndr/internal/nodepath"
	"github.com/prehisle/ndr/internal/progress"
	"github.com/prehisle/ndr/internal/store"
	"gopkg.in/yaml.v3"
)

// Entry is one node of an outline.
type Entry struct {
	Name     string  `yaml:"name" json:"name"`
	Slug     string  `yaml:"slug" json:"slug"`
	Type     string  `yaml:"type,omitempty" json:"type,omitempty"`
	Children []Entry `yaml:"children,omitempty" json:"children,omitempty"`
}

// Format selects the encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json"; empty means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("unknown outline format %q (use yaml or json)", s)
}

// Tree is the slice of the tree service this package needs.
type Tree interface {
	GetByPath(ctx context.Context, path string) (*store.Node, error)
	ListChildren(ctx context.Context, id int64, opts store.ChildrenOptions) ([]store.Node, error)
	CreateNode(ctx context.Context, actor string, opts store.CreateNodeOptions) (*store.Node, error)
}

// Export builds the outline of the active subtree rooted at path, the root
// included. depth bounds how far below the root it reaches.
func Export(ctx context.Context, t Tree, path string, depth int) (*Entry, error) {
	root, err := t.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	nodes, err := t.ListChildren(ctx, root.ID, store.ChildrenOptions{Depth: depth})
	if err != nil {
		return nil, err
	}

	// ListChildren is breadth-first with siblings in position order, so
	// appending in that order keeps each child list sorted.
	kids := make(map[int64][]store.Node)
	for _, n := range nodes {
		kids[n.ParentKey()] = append(kids[n.ParentKey()], n)
	}
	var build func(n store.Node) Entry
	build = func(n store.Node) Entry {
		e := Entry{Name: n.Name, Slug: n.Slug, Type: n.Type}
		for _, c := range kids[n.ID] {
			e.Children = append(e.Children, build(c))
		}
		return e
	}
	e := build(*root)
	return &e, nil
}

// Encode writes e in the given format.
func Encode(w io.Writer, e *Entry, f Format) error {
	if f == JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}
	return enc.Close()
}

// Decode reads an outline. The document may be a single entry or a list
// of entries (several roots).
func Decode(r io.Reader, f Format) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	unmarshal := yaml.Unmarshal
	if f == JSON {
		unmarshal = json.Unmarshal
	}
	var list []Entry
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}
	var one Entry
	if err := unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return []Entry{one}, nil
}

// Options configures an import.
type Options struct {
	Parent string // parent path, empty for the root level
	Actor  string
	DryRun bool
}

// Result lists the paths created (or that would be created).
type Result struct {
	Paths []string `json:"paths"`
}

func count(entries []Entry) int {
	n := len(entries)
	for _, e := range entries {
		n += count(e.Children)
	}
	return n
}

// Import creates the entries under opts.Parent, parents before children.
// Nodes are created one call at a time; the first failure stops the import
// and the nodes created so far remain. A dry run only checks that the
// parent exists and reports the paths.
func Import(ctx context.Context, w io.Writer, t Tree, entries []Entry, opts Options) (Result, error) {
	var res Result
	if opts.Parent != "" {
		if _, err := t.GetByPath(ctx, opts.Parent); err != nil {
			return res, err
		}
	}

	prog := progress.New("Importing", count(entries))
	defer prog.Done()

	var walk func(parent string, es []Entry) error
	walk = func(parent string, es []Entry) error {
		for _, e := range es {
			path := nodepath.Join(parent, e.Slug)
			if opts.DryRun {
				fmt.Fprintf(w, "Would create: %s\n", path)
			} else {
				n, err := t.CreateNode(ctx, opts.Actor, store.CreateNodeOptions{
					Name: e.Name, Slug: e.Slug, ParentPath: parent, Type: e.Type,
				})
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				path = n.Path
			}
			res.Paths = append(res.Paths, path)
			prog.Step(path)
			if err := walk(path, e.Children); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(opts.Parent, entries)
	return res, err
}
