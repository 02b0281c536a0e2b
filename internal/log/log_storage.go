// log_storage.go persists audit entries to a per-user SQLite database.
//
// Separated from log.go so the fluent builder stays free of SQL. Every
// project writes to the same file under ~/.ndr/log; the project column holds
// a short blake2b digest of the repository location, so entries can be
// grouped per project without recording where projects live.
//
// Design: The insert is prepared once per Open. Logging is best-effort: a
// failed insert is reported on stderr and the tree operation still succeeds.

package log

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	start          INTEGER NOT NULL,
	end            INTEGER NOT NULL,
	project        TEXT NOT NULL,
	source         TEXT NOT NULL,
	author         TEXT,
	action         TEXT NOT NULL,
	path           TEXT,
	node_id        INTEGER,
	request_id     TEXT,
	resolved_path  TEXT,
	success        INTEGER NOT NULL,
	error          TEXT,
	detail         TEXT
);
CREATE INDEX IF NOT EXISTS idx_log_start ON log(start);
CREATE INDEX IF NOT EXISTS idx_log_project ON log(project);
CREATE INDEX IF NOT EXISTS idx_log_source ON log(source);
CREATE INDEX IF NOT EXISTS idx_log_request ON log(request_id);
`

const insertEntry = `
INSERT INTO log (start, end, project, source, author, action, path, node_id,
                 request_id, resolved_path, success, error, detail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Logger writes audit entries through one prepared statement.
type Logger struct {
	db      *sql.DB
	insert  *sql.Stmt
	project string
}

// newLogger applies the schema and prepares the insert.
func newLogger(db *sql.DB) (*Logger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate log: %w", err)
	}
	stmt, err := db.Prepare(insertEntry)
	if err != nil {
		return nil, fmt.Errorf("prepare log insert: %w", err)
	}
	return &Logger{db: db, insert: stmt}, nil
}

func (l *Logger) close() {
	l.insert.Close()
	l.db.Close()
}

func (l *Logger) log(e Entry) {
	if _, err := l.insert.Exec(l.args(e)...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ndr: audit log write failed: %v\n", err)
	}
}

// args maps an entry onto the insert placeholders. Empty optional fields are
// stored as NULL.
func (l *Logger) args(e Entry) []any {
	var detail any
	if len(e.Detail) > 0 {
		if b, err := json.Marshal(e.Detail); err == nil {
			detail = string(b)
		}
	}
	var nodeID any
	if e.NodeID != 0 {
		nodeID = e.NodeID
	}
	success := 0
	if e.Success {
		success = 1
	}
	return []any{
		e.Start, e.End, l.project, e.Source, null(e.Author), e.Action,
		null(e.Path), nodeID, null(e.Request), null(e.ResolvedPath),
		success, null(e.Error), detail,
	}
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dbPathFunc locates the log database. Tests point it at a temp directory.
var dbPathFunc = defaultDBPath

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory (minimal containers): log next to the working dir.
		return filepath.Join(".ndr", "log", "ndr-log.db")
	}
	return filepath.Join(home, ".ndr", "log", "ndr-log.db")
}

// DBPath returns the path to the log database.
func DBPath() string {
	return dbPathFunc()
}

// hash returns a 16 hex digit digest identifying a project.
func hash(s string) string {
	h, err := blake2b.New(8, nil)
	if err != nil {
		// Only a key longer than 64 bytes fails; there is no key here.
		panic("blake2b.New: " + err.Error())
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
