// Package metrics provides the metrics extension. It has no commands; it
// receives every committed tree event and counts it in the process-wide
// Prometheus registry served by "ndr serve --http" at /metrics.
package metrics

import (
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/internal/metrics"
	"github.com/spf13/cobra"
)

func init() {
	extension.Register(New(metrics.Default))
}

// Extension implements the metrics extension.
type Extension struct {
	m *metrics.Metrics
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
	_ extension.EventHandler  = (*Extension)(nil)
)

// New returns an extension counting into m.
func New(m *metrics.Metrics) *Extension {
	return &Extension{m: m}
}

// Name returns "metrics".
func (e *Extension) Name() string { return "metrics" }

// Init creates every event series at zero so rate() queries see them
// before the first mutation.
func (e *Extension) Init(extension.Context) error {
	for _, t := range extension.EventTypes {
		e.m.EventsTotal.WithLabelValues(string(t))
	}
	return nil
}

// Commands returns nil.
func (e *Extension) Commands() []*cobra.Command { return nil }

// MCPTools returns nil.
func (e *Extension) MCPTools() []extension.MCPTool { return nil }

// HandleEvent counts the event by type.
func (e *Extension) HandleEvent(_ extension.Context, evt extension.Event) error {
	e.m.EventsTotal.WithLabelValues(string(evt.EventType())).Inc()
	return nil
}
