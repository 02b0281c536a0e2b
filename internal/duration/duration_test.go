package duration_test

import (
	"testing"
	"time"

	"github.com/prehisle/ndr/internal/duration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"4w", 28 * 24 * time.Hour},
		{"3m", 90 * 24 * time.Hour},
		{"90m30s", 90*time.Minute + 30*time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := duration.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "d", "7x", "0d", "-1h"} {
		_, err := duration.Parse(bad)
		assert.Error(t, err, bad)
	}
}
