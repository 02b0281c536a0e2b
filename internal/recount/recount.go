// Package recount runs the full subtree counter recompute and renders its
// drift report.
//
// The recompute itself lives in the store (one SQL pass over the eligible
// bindings); this package decides whether to apply it and presents the
// difference between stored and recomputed counters as a line diff, so a
// check run reads like a patch that "ndr recount" would apply.
package recount

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prehisle/ndr/internal/store"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Recounter is the slice of the tree service this package needs.
type Recounter interface {
	Recount(ctx context.Context, actor string, apply bool) (*store.RecountResult, error)
}

// Options configures a run.
type Options struct {
	Actor string // required when applying
	Check bool   // report drift without writing
}

// Run recomputes every counter. In check mode nothing is written and the
// actor may be empty.
func Run(ctx context.Context, svc Recounter, opts Options) (*store.RecountResult, error) {
	return svc.Recount(ctx, opts.Actor, !opts.Check)
}

// Report is the drift of one run as old/new text.
type Report struct {
	Stored   string
	Computed string
	Diff     string
}

// NewReport builds the diff between stored and recomputed counters. Only
// drifted nodes appear; an empty Diff means the counters are exact.
func NewReport(res *store.RecountResult) Report {
	var stored, computed strings.Builder
	for _, c := range res.Changed {
		fmt.Fprintf(&stored, "%s %d\n", c.Path, c.Stored)
		fmt.Fprintf(&computed, "%s %d\n", c.Path, c.Computed)
	}
	r := Report{Stored: stored.String(), Computed: computed.String()}
	if len(res.Changed) == 0 {
		return r
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(r.Stored, r.Computed)
	d := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	r.Diff = format(d)
	return r
}

func format(diffs []diffmatchpatch.Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		mark := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			mark = "- "
		case diffmatchpatch.DiffInsert:
			mark = "+ "
		}
		for _, l := range strings.Split(text, "\n") {
			b.WriteString(mark + l + "\n")
		}
	}
	return b.String()
}

// Colourise adds ANSI colours to diff output.
func Colourise(d string) string {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		reset = "\033[0m"
	)

	var b strings.Builder
	for _, line := range strings.Split(d, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "- "):
			b.WriteString(red + line + reset + "\n")
		case strings.HasPrefix(line, "+ "):
			b.WriteString(green + line + reset + "\n")
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Write prints the report with a header, or a one-line all-clear.
func (r Report) Write(w io.Writer, res *store.RecountResult, colour bool) {
	if r.Diff == "" {
		fmt.Fprintf(w, "%d nodes checked, counters are exact\n", res.Nodes)
		return
	}
	verb := "drifted"
	if res.Applied {
		verb = "corrected"
	}
	fmt.Fprintf(w, "--- stored\n+++ recomputed\n")
	if colour {
		fmt.Fprint(w, Colourise(r.Diff))
	} else {
		fmt.Fprint(w, r.Diff)
	}
	fmt.Fprintf(w, "%d of %d nodes %s\n", len(res.Changed), res.Nodes, verb)
}
