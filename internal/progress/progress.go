// Package progress draws CLI progress for the long-running maintenance
// commands (purge, recount and outline import). Output goes to stderr so stdout stays
// parseable under -o json, and nothing is drawn when stderr is not a
// terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// minItems is the smallest batch worth a counter line.
const minItems = 5

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Counter reports "label: n/total (item)" for batch work such as purging
// soft-deleted roots one by one.
type Counter struct {
	w       io.Writer
	label   string
	total   int
	current int
	tty     bool
}

// New creates a counter on stderr. Batches smaller than minItems stay quiet.
func New(label string, total int) *Counter {
	return NewTo(os.Stderr, label, total)
}

// NewTo is New with an explicit writer.
func NewTo(w io.Writer, label string, total int) *Counter {
	return &Counter{w: w, label: label, total: total, tty: isTTY(w)}
}

func (c *Counter) quiet() bool {
	return !c.tty || c.total < minItems
}

// Step advances the counter and shows item next to it.
func (c *Counter) Step(item string) {
	c.current++
	if c.quiet() {
		return
	}
	line := fmt.Sprintf("%s: %d/%d", c.label, c.current, c.total)
	if item != "" {
		line += " (" + item + ")"
	}
	width := 80
	if f, ok := c.w.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if len(line) > width-1 {
		line = line[:width-1]
	}
	fmt.Fprintf(c.w, "\r%-*s", width-1, line)
}

// Done clears the line.
func (c *Counter) Done() {
	if c.quiet() || c.current == 0 {
		return
	}
	fmt.Fprintf(c.w, "\r%s\r", strings.Repeat(" ", 79))
}

// Spinner animates while a single opaque step runs, such as a full
// recount. It ticks on its own goroutine until Stop is called.
type Spinner struct {
	w     io.Writer
	label string
	tty   bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner on stderr.
func NewSpinner(label string) *Spinner {
	return &Spinner{w: os.Stderr, label: label, tty: isTTY(os.Stderr)}
}

// Start begins the animation. Calling Start twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tty || s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for i := 0; ; i = (i + 1) % len(frames) {
		fmt.Fprintf(s.w, "\r%s %s...", frames[i], s.label)
		select {
		case <-stop:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+6))
			return
		case <-t.C:
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
