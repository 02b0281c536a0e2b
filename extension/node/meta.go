// meta.go parses key=value metadata arguments shared by node and document
// commands.

package node

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prehisle/ndr/internal/store"
)

// ParseMeta turns "key=value" pairs into a metadata map. A value that is
// valid JSON (number, boolean, array, object) keeps its JSON type; anything
// else is stored as a string. A repeated key keeps the last value.
func ParseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	md := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: metadata %q is not key=value", store.ErrInvalidOperation, p)
		}
		var typed any
		if err := json.Unmarshal([]byte(v), &typed); err == nil && !isJSONString(v) {
			md[k] = typed
			continue
		}
		md[k] = v
	}
	return md, nil
}

func isJSONString(v string) bool {
	v = strings.TrimSpace(v)
	return strings.HasPrefix(v, `"`)
}
