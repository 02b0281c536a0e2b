// checkpoint.go implements WAL checkpoint operations for SQLite.
//
// Separated because checkpointing is a maintenance operation run on server
// shutdown and after purge, not on the write path.
//
// Design: TRUNCATE mode flushes the WAL fully and removes the -wal/-shm
// files. Postgres manages its own WAL, so the call is a no-op there.

package store

import (
	"context"
	"fmt"
)

// Checkpoint writes all WAL data back to the main database file and truncates
// the WAL. It does nothing on Postgres.
func (s *SQLStore) Checkpoint(ctx context.Context) error {
	if s.d.name != DriverSQLite {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}
