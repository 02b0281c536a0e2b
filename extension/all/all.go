// Package all imports all built-in ndr extensions.
// Import this package to register all built-in commands.
package all

import (
	// Each extension registers itself via init()
	_ "github.com/prehisle/ndr/extension/binding"
	_ "github.com/prehisle/ndr/extension/core"
	_ "github.com/prehisle/ndr/extension/document"
	_ "github.com/prehisle/ndr/extension/metrics"
	_ "github.com/prehisle/ndr/extension/node"
	_ "github.com/prehisle/ndr/extension/outline"
)
