// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic used by the CLI and MCP (e.g., "limits.max_depth").
//
// Design: Pointers are used for optional fields so we can distinguish between
// "not set" (nil) and "explicitly set to zero/false". Defaults only apply
// when the user hasn't set a value.

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"author.name", "author.email",
		"store.driver", "store.dsn", "store.path_index",
		"limits.max_slug", "limits.max_name", "limits.max_depth", "limits.page_size",
		"server.addr", "server.metrics", "server.actor_header",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "author.name":
		return c.Author.Name, nil
	case "author.email":
		return c.Author.Email, nil
	case "store.driver":
		return c.Driver(), nil
	case "store.dsn":
		return c.DSN(), nil
	case "store.path_index":
		return c.PathIndex(), nil
	case "limits.max_slug":
		return strconv.Itoa(c.MaxSlug()), nil
	case "limits.max_name":
		return strconv.Itoa(c.MaxName()), nil
	case "limits.max_depth":
		return strconv.Itoa(c.MaxDepth()), nil
	case "limits.page_size":
		return strconv.Itoa(c.PageSize()), nil
	case "server.addr":
		return c.Addr(), nil
	case "server.metrics":
		return strconv.FormatBool(c.Metrics()), nil
	case "server.actor_header":
		return c.ActorHeader(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func positiveInt(key, value string) (*int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidValue, key)
	}
	return &n, nil
}

// Set sets the value of a configuration key. Values are range-checked by
// Validate, which callers run before saving.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "author.name":
		c.Author.Name = value
	case "author.email":
		c.Author.Email = value
	case "store.driver":
		c.Store.Driver = strings.ToLower(value)
	case "store.dsn":
		c.Store.DSN = value
	case "store.path_index":
		c.Store.PathIndex = strings.ToLower(value)
	case "limits.max_slug":
		c.Limits.MaxSlug, err = positiveInt(key, value)
	case "limits.max_name":
		c.Limits.MaxName, err = positiveInt(key, value)
	case "limits.max_depth":
		c.Limits.MaxDepth, err = positiveInt(key, value)
	case "limits.page_size":
		c.Limits.PageSize, err = positiveInt(key, value)
	case "server.addr":
		c.Server.Addr = value
	case "server.metrics":
		v := strings.ToLower(value)
		if v != "true" && v != "false" {
			return fmt.Errorf("%w: server.metrics must be true or false", ErrInvalidValue)
		}
		b := v == "true"
		c.Server.Metrics = &b
	case "server.actor_header":
		c.Server.ActorHeader = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// All returns all configuration values as a map. The DSN is masked because
// it usually carries a password.
func (c *Config) All() map[string]string {
	out := make(map[string]string, len(ValidKeys()))
	for _, k := range ValidKeys() {
		v, _ := c.Get(k)
		out[k] = v
	}
	if out["store.dsn"] != "" {
		out["store.dsn"] = "********"
	}
	return out
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	switch key {
	case "author.name":
		return c.Author.Name != ""
	case "author.email":
		return c.Author.Email != ""
	case "store.driver":
		return c.Store.Driver != ""
	case "store.dsn":
		return c.Store.DSN != ""
	case "store.path_index":
		return c.Store.PathIndex != ""
	case "limits.max_slug":
		return c.Limits.MaxSlug != nil
	case "limits.max_name":
		return c.Limits.MaxName != nil
	case "limits.max_depth":
		return c.Limits.MaxDepth != nil
	case "limits.page_size":
		return c.Limits.PageSize != nil
	case "server.addr":
		return c.Server.Addr != ""
	case "server.metrics":
		return c.Server.Metrics != nil
	case "server.actor_header":
		return c.Server.ActorHeader != ""
	default:
		return false
	}
}
