// sql_ops.go provides connection management, transactions and low-level helpers.
//
// Separated to isolate driver concerns (DSN pragmas, driver registration,
// placeholder rebinding) from tree logic. This is the only file that imports
// the database drivers.
//
// Design: SQLite runs in WAL mode with a busy timeout, and every transaction
// begins IMMEDIATE. Writers therefore serialise at BEGIN instead of failing
// later when a read snapshot tries to upgrade, and the in-process lock
// coordinator never waits on a lock held by a transaction that is itself
// blocked on SQLite. Postgres transactions run at READ COMMITTED and rely
// on advisory locks for ordering.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prehisle/ndr/internal/lock"

	// Register database drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled connection via the DSN. Setting
// them with db.Exec would only configure whichever connection ran the statement.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Options selects and configures a backend.
type Options struct {
	Driver    string // DriverSQLite (default) or DriverPostgres
	DSN       string // database file for SQLite, connection string for Postgres
	PathIndex string // PathIndexAuto (default), PathIndexSegment or PathIndexLtree
}

// SQLStore persists the node tree in SQLite or Postgres.
type SQLStore struct {
	db    *sql.DB
	d     dialect
	locks lock.Coordinator
}

// Open opens the SQLite database file at path with the automatic path index.
// The caller should call Close on the returned store.
func Open(path string) (*SQLStore, error) {
	return OpenWith(Options{Driver: DriverSQLite, DSN: path})
}

// OpenWith opens a store for the given backend. For Postgres the presence of
// the ltree extension and server version are checked once here and decides the path index mode.
func OpenWith(opts Options) (*SQLStore, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		db, err := sql.Open("sqlite", opts.DSN+sqlitePragmas)
		if err != nil {
			return nil, fmt.Errorf("open database %s: %w", opts.DSN, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("open database %s: %w", opts.DSN, err)
		}
		return &SQLStore{
			db:    db,
			d:     resolveDialect(DriverSQLite, opts.PathIndex, false, 0),
			locks: lock.NewKeyed(),
		}, nil

	case DriverPostgres:
		db, err := sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		var (
			hasLtree bool
			version  int
		)
		err = db.QueryRow(`SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'ltree'),
			current_setting('server_version_num')::int`).Scan(&hasLtree, &version)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("detect ltree extension: %w", err)
		}
		return &SQLStore{
			db:    db,
			d:     resolveDialect(DriverPostgres, opts.PathIndex, hasLtree, version),
			locks: lock.Advisory{},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", ErrInvalidOperation, opts.Driver)
	}
}

// Init creates tables and indexes if they don't exist. Safe to call multiple
// times; uses IF NOT EXISTS to avoid errors on existing databases.
func (s *SQLStore) Init() error {
	return execSchema(s.db, s.d)
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for extensions that need custom tables.
// Extensions should not modify core tables directly.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the backend name.
func (s *SQLStore) Driver() string {
	return s.d.name
}

// PathIndex returns the effective path index mode, or "unavailable".
func (s *SQLStore) PathIndex() string {
	if s.d.pathIndex == "" {
		return "unavailable"
	}
	return s.d.pathIndex
}

// Reader returns a Querier outside any transaction, for read-only calls.
func (s *SQLStore) Reader() *Querier {
	return &Querier{db: s.db, d: s.d}
}

// Tx executes fn within a database transaction, handling Begin/Commit/Rollback
// automatically. Locks taken through Tx.Lock are released after the
// transaction has ended, whichever way it ended.
//
//	err := s.Tx(ctx, func(tx *store.Tx) error {
//	    if err := tx.Lock(ctx, node.ID, node.ParentKey()); err != nil {
//	        return err
//	    }
//	    return tx.SetPosition(ctx, node.ID, 0)
//	})
func (s *SQLStore) Tx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	t := &Tx{
		Querier: &Querier{db: sqlTx, d: s.d},
		tx:      sqlTx,
		coord:   s.locks,
		held:    make(map[int64]bool),
	}
	defer t.release()
	defer func() { _ = sqlTx.Rollback() }() // no-op after commit

	if err := fn(t); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier runs the store's queries against a connection or a transaction.
type Querier struct {
	db dbtx
	d  dialect
}

func (q *Querier) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.d.rebind(query), args...)
}

func (q *Querier) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.d.rebind(query), args...)
}

func (q *Querier) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.d.rebind(query), args...)
}

// PathIndexAvailable returns ErrCapabilityUnavailable when subtree queries
// cannot run on this backend.
func (q *Querier) PathIndexAvailable() error {
	return q.d.available()
}

// Tx is a transaction with a lock scope.
type Tx struct {
	*Querier
	tx       *sql.Tx
	coord    lock.Coordinator
	releases []func()
	held     map[int64]bool
}

// Lock acquires the node-id locks for this transaction in ascending order.
// Ids already held by the transaction are skipped. Callers pass their whole
// lock set in one call so the ascending order holds across the set.
func (t *Tx) Lock(ctx context.Context, ids ...int64) error {
	var want []int64
	for _, id := range lock.Sorted(ids) {
		if !t.held[id] {
			want = append(want, id)
		}
	}
	if len(want) == 0 {
		return nil
	}
	release, err := t.coord.Acquire(ctx, t.tx, want)
	if err != nil {
		return fmt.Errorf("acquire locks: %w", err)
	}
	t.releases = append(t.releases, release)
	for _, id := range want {
		t.held[id] = true
	}
	return nil
}

func (t *Tx) release() {
	for i := len(t.releases) - 1; i >= 0; i-- {
		t.releases[i]()
	}
	t.releases = nil
}

// scanner abstracts sql.Row and sql.Rows, enabling a single scan function
// to handle both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to the given not-found error.
func notFound(err, nf error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return err
}

// nowUnix is the store clock, replaceable in tests.
var nowUnix = func() int64 { return time.Now().Unix() }

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// inPlaceholders returns "?, ?, ?" for n values and the values as []any.
func inPlaceholders(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	b := make([]byte, 0, len(ids)*3)
	for i, id := range ids {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
		args[i] = id
	}
	return string(b), args
}

// chunk splits ids into batches that stay below driver parameter limits.
func chunk(ids []int64, size int) [][]int64 {
	var out [][]int64
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
