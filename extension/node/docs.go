// docs.go implements "ndr node docs" for listing the documents of a subtree.

package node

import (
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/format"
	"github.com/prehisle/ndr/internal/store"
	"github.com/prehisle/ndr/internal/validate"
	"github.com/spf13/cobra"
)

func (e *Extension) newDocsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "docs <node>",
		Short: "List documents bound in a subtree",
		Long: `List the documents bound to a node and its descendants.

  ndr node docs docs.guide
  ndr node docs docs.guide --direct --relation output
  ndr node docs docs --meta lang=en --query intro --page 2 --size 20`,
		Args: cobra.ExactArgs(1),
		RunE: e.runDocs,
	}
	c.Flags().Bool(extension.FlagDirect, false, "Only the node itself, not its descendants")
	c.Flags().Bool(extension.FlagIncludeDeletedNodes, false, "Walk through soft-deleted descendants")
	AddDocumentFilterFlags(c)
	return c
}

func (e *Extension) runDocs(c *cobra.Command, args []string) error {
	ctx := c.Context()
	direct, _ := c.Flags().GetBool(extension.FlagDirect)
	withDeleted, _ := c.Flags().GetBool(extension.FlagIncludeDeletedNodes)

	f, err := DocumentFilter(c)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	n, err := Resolve(ctx, e.svc, args[0], withDeleted)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("docs %q: %w", args[0], err))
	}
	p, err := e.svc.SubtreeDocuments(ctx, n.ID, store.SubtreeDocumentsOptions{
		IncludeDescendants:  !direct,
		IncludeDeletedNodes: withDeleted,
		Filter:              f,
	})
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("docs %q: %w", args[0], err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(p.ToJSON())
	}
	return PrintDocumentPage(p)
}

// AddDocumentFilterFlags registers the flags DocumentFilter reads.
func AddDocumentFilterFlags(c *cobra.Command) {
	c.Flags().StringP(extension.FlagType, "t", "", "Only documents of this type")
	c.Flags().String(extension.FlagRelation, "", "Only bindings of this relation type")
	c.Flags().StringP(extension.FlagQuery, "q", "", "Case-insensitive title search")
	c.Flags().StringArray(extension.FlagMeta, nil, "Metadata equality filter key=value (repeatable)")
	c.Flags().BoolP(extension.FlagAll, "A", false, "Include soft-deleted documents")
	c.Flags().Int(extension.FlagPage, 1, "Page number")
	c.Flags().Int(extension.FlagSize, 0, "Page size (0 for the configured default)")
}

// DocumentFilter builds a store.DocumentFilter from the flags registered by
// AddDocumentFilterFlags.
func DocumentFilter(c *cobra.Command) (store.DocumentFilter, error) {
	var f store.DocumentFilter
	f.Type, _ = c.Flags().GetString(extension.FlagType)
	f.Query, _ = c.Flags().GetString(extension.FlagQuery)
	f.IncludeDeleted, _ = c.Flags().GetBool(extension.FlagAll)
	f.Page.Page, _ = c.Flags().GetInt(extension.FlagPage)
	f.Page.Size, _ = c.Flags().GetInt(extension.FlagSize)

	if raw, _ := c.Flags().GetString(extension.FlagRelation); raw != "" {
		rel, err := validate.Relation(raw)
		if err != nil {
			return f, err
		}
		f.RelationType = rel
	}
	pairs, _ := c.Flags().GetStringArray(extension.FlagMeta)
	md, err := ParseMeta(pairs)
	if err != nil {
		return f, err
	}
	if len(md) > 0 {
		f.Metadata = make(map[string]string, len(md))
		for k, v := range md {
			f.Metadata[k] = fmt.Sprint(v)
		}
	}
	return f, nil
}

// PrintDocumentPage writes one page of documents followed by a page footer.
func PrintDocumentPage(p *store.DocumentPage) error {
	w := cmd.Out()
	if err := format.Documents(w, p.Items); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPage %d, %d of %d document(s)\n", p.Page, len(p.Items), p.Total)
	return nil
}
