// commands.go implements the doc subcommands.

package document

import (
	"context"
	"fmt"

	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/extension/node"
	"github.com/prehisle/ndr/internal/log"
	"github.com/prehisle/ndr/internal/store"
	"github.com/spf13/cobra"
)

func (e *Extension) newAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add <title>",
		Short: "Register a document",
		Long: `Register a document and print its id.

  ndr doc add "Getting started" --type guide --meta lang=en --meta pages=12`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			typ, _ := c.Flags().GetString(extension.FlagType)
			pairs, _ := c.Flags().GetStringArray(extension.FlagMeta)
			md, err := node.ParseMeta(pairs)
			if err != nil {
				return cmd.PrintJSONError(err)
			}

			d, err := e.svc.CreateDocument(c.Context(), cmd.Actor(), store.CreateDocumentOptions{
				Title:    args[0],
				Type:     typ,
				Metadata: md,
			})

			l := log.Event("document:add", "create").Author(cmd.Actor())
			if d != nil {
				l.Detail("document", d.ID)
			}
			l.Write(err)

			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("add %q: %w", args[0], err))
			}
			return printDocument(d)
		},
	}
	c.Flags().StringP(extension.FlagType, "t", "", "Document type")
	c.Flags().StringArray(extension.FlagMeta, nil, "Metadata key=value (repeatable; JSON values keep their type)")
	return c
}

func (e *Extension) newGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			all, _ := c.Flags().GetBool(extension.FlagAll)
			id, err := parseID(args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			d, err := e.svc.GetDocument(c.Context(), id, all)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("get %d: %w", id, err))
			}
			return printDocument(d)
		},
	}
	c.Flags().BoolP(extension.FlagAll, "A", false, "Include a soft-deleted document")
	return c
}

func (e *Extension) newSetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "set <id>",
		Short: "Edit a document",
		Long: `Change the title, type or metadata of a document. Only the flags given are
applied. Any --meta replaces the whole metadata object; an empty --type
clears the type.

  ndr doc set 7 --title "Getting started (v2)"
  ndr doc set 7 --meta lang=de --meta pages=14`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			var opts store.UpdateDocumentOptions
			if c.Flags().Changed(extension.FlagTitle) {
				v, _ := c.Flags().GetString(extension.FlagTitle)
				opts.Title = &v
			}
			if c.Flags().Changed(extension.FlagType) {
				v, _ := c.Flags().GetString(extension.FlagType)
				opts.Type = &v
			}
			if c.Flags().Changed(extension.FlagMeta) {
				pairs, _ := c.Flags().GetStringArray(extension.FlagMeta)
				md, err := node.ParseMeta(pairs)
				if err != nil {
					return cmd.PrintJSONError(err)
				}
				if md == nil {
					md = map[string]any{}
				}
				opts.Metadata = md
			}
			if opts.Title == nil && opts.Type == nil && opts.Metadata == nil {
				return cmd.PrintJSONError(fmt.Errorf("%w: nothing to change (use --title, --type or --meta)", store.ErrInvalidOperation))
			}

			d, err := e.svc.UpdateDocument(c.Context(), cmd.Actor(), id, opts)

			log.Event("document:set", "update").Author(cmd.Actor()).Detail("document", id).Write(err)

			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("set %d: %w", id, err))
			}
			return printDocument(d)
		},
	}
	c.Flags().String(extension.FlagTitle, "", "New title")
	c.Flags().StringP(extension.FlagType, "t", "", "New type (empty clears it)")
	c.Flags().StringArray(extension.FlagMeta, nil, "Metadata key=value (repeatable; replaces all metadata)")
	return c
}

func (e *Extension) newLsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ls",
		Short: "List documents",
		Long: `List documents, newest first, one page at a time.

  ndr doc ls --type guide --meta lang=en
  ndr doc ls -q intro --page 2 --size 20`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			f, err := node.DocumentFilter(c)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			p, err := e.svc.ListDocuments(c.Context(), f)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("ls: %w", err))
			}
			return pageOf(p)
		},
	}
	node.AddDocumentFilterFlags(c)
	return c
}

func (e *Extension) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a document",
		Long:  `Soft-delete a document. Its bindings stay but stop counting until it is restored.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.lifecycle(c, args[0], "delete", e.svc.DeleteDocument)
		},
	}
}

func (e *Extension) newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a deleted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.lifecycle(c, args[0], "restore", e.svc.RestoreDocument)
		},
	}
}

type documentOp func(ctx context.Context, actor string, id int64) (*store.Document, error)

func (e *Extension) lifecycle(c *cobra.Command, arg, action string, op documentOp) error {
	id, err := parseID(arg)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	d, err := op(c.Context(), cmd.Actor(), id)

	log.Event("document:"+action, action).Author(cmd.Actor()).Detail("document", id).Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("%s %d: %w", action, id, err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(d.ToJSON())
	}
	verb := "Deleted"
	if action == "restore" {
		verb = "Restored"
	}
	fmt.Fprintf(cmd.Out(), "%s document %d (%s)\n", verb, d.ID, d.Title)
	return nil
}

func (e *Extension) newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently remove a deleted document",
		Long:  `Permanently remove a soft-deleted document and all of its bindings. This cannot be undone.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if !cmd.Force() && !cmd.JSON() && !cmd.Confirm(fmt.Sprintf("Permanently remove document %d? This cannot be undone.", id)) {
				fmt.Fprintln(cmd.Out(), "Cancelled")
				return nil
			}

			n, err := e.svc.PurgeDocument(c.Context(), cmd.Actor(), id)

			log.Event("document:purge", "purge").Author(cmd.Actor()).Detail("document", id).Detail("bindings", n).Write(err)

			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("purge %d: %w", id, err))
			}
			if !cmd.JSON() {
				fmt.Fprintf(cmd.Out(), "Purged document %d and %d binding(s)\n", id, n)
			}
			return cmd.PrintJSON(map[string]int64{"document_id": id, "bindings": n})
		},
	}
}
