// Package log provides centralised audit logging for ndr operations.
// Entries are stored in ~/.ndr/log/ndr-log.db and record every CLI command,
// MCP tool call and HTTP mutation across projects.
//
// # Fluent API
//
// Build an entry with [Event], chain the fields that apply, then finish
// with [Builder.Write]:
//
//	log.Event("node:mv", "move").
//		Author(actor).
//		Path(p).
//		Detail("to", dst).
//		Write(err)
//
//	log.Event("http:node_create", "create").
//		Author(actor).
//		Request(reqID).
//		Node(n.ID).
//		Resolved(n.Path).
//		Write(err)
//
// The source follows "{extension}:{command}" for CLI commands, "mcp:{tool}"
// for MCP tools and "http:{route}" for REST handlers.
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source  string // e.g. "node:create", "mcp:ndr_bind"
	Author  string // actor identity
	Action  string // verb: create, move, delete, bind, recount, ...
	Path    string // input: node path requested
	NodeID  int64  // input: node id requested
	Request string // HTTP request id, empty outside the REST API

	// Output fields, populated after the operation succeeds
	ResolvedPath string // path of the node after the operation

	// Timing
	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool
	Error   string
	Detail  map[string]any
}

// Builder constructs a log entry using a fluent API.
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated:
//   - CLI commands: "{extension}:{command}" (e.g. "node:mv", "binding:bind")
//   - MCP tools: "mcp:{tool}" (e.g. "mcp:ndr_node_create")
//   - REST handlers: "http:{route}" (e.g. "http:node_update")
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Author sets who performed the operation.
func (b *Builder) Author(author string) *Builder {
	b.entry.Author = author
	return b
}

// Path sets the node path this operation targets.
func (b *Builder) Path(path string) *Builder {
	b.entry.Path = path
	return b
}

// Node sets the node id this operation targets.
func (b *Builder) Node(id int64) *Builder {
	b.entry.NodeID = id
	return b
}

// Request sets the HTTP request id, so an entry can be matched to the
// X-Request-ID the client saw.
func (b *Builder) Request(id string) *Builder {
	b.entry.Request = id
	return b
}

// Resolved sets the node path after the operation (output). For a move
// this is the destination.
func (b *Builder) Resolved(path string) *Builder {
	b.entry.ResolvedPath = path
	return b
}

// Detail adds a key-value pair to the entry's detail map.
//
//	log.Event("binding:batch", "bind").
//		Detail("documents", ids).
//		Detail("count", len(bound))
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the entry, deriving success or failure from err.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := DBPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return err
	}

	l, err := newLogger(db)
	if err != nil {
		db.Close()
		return err
	}
	global = l
	return nil
}

// SetProject sets the project identifier for subsequent log entries.
// The dir should be the absolute path to the .ndr directory, or the
// Postgres DSN host for server-backed stores.
func SetProject(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.project = hash(dir)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.close()
		global = nil
	}
}
