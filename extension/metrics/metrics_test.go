package metrics_test

import (
	"testing"

	"github.com/prehisle/ndr/extension"
	extmetrics "github.com/prehisle/ndr/extension/metrics"
	"github.com/prehisle/ndr/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEvent_CountsByType(t *testing.T) {
	m := metrics.New()
	ext := extmetrics.New(m)
	require.NoError(t, ext.Init(nil))
	assert.Equal(t, len(extension.EventTypes), testutil.CollectAndCount(m.EventsTotal))

	require.NoError(t, ext.HandleEvent(nil, extension.NodeEvent{Type: extension.EventNodeCreate, Path: "docs"}))
	require.NoError(t, ext.HandleEvent(nil, extension.NodeEvent{Type: extension.EventNodeCreate, Path: "docs.a"}))
	require.NoError(t, ext.HandleEvent(nil, extension.BindingEvent{Bound: false}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("node:create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("binding:unbind")))
	assert.Zero(t, testutil.ToFloat64(m.EventsTotal.WithLabelValues("node:purge")))
}
