// Package repo provides repository initialisation and discovery for ndr.
//
// An ndr repository is a .ndr directory containing one or more SQLite databases.
// This package handles:
//   - Initialising new repositories (creating .ndr/ and the database)
//   - Discovering existing repositories by walking up the directory tree
//   - Managing multiple named databases (ndr.db, ndr-docs.db, etc.)
//   - Controlling git visibility via .gitignore (local vs shared databases)
//
// The discovery algorithm mirrors git's approach: starting from the current
// directory, walk up until a .ndr directory containing the target database
// is found, or the filesystem root is reached.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prehisle/ndr/internal/store"
)

const (
	// Dir is the directory name for the ndr repository.
	Dir = ".ndr"
	// DBFile is the default database filename.
	DBFile = "ndr.db"
)

// DBFileName returns the database filename for a given name.
// Empty name returns the default "ndr.db".
// A name like "docs" returns "ndr-docs.db".
// A name already ending in ".db" is returned as-is.
func DBFileName(name string) string {
	if name == "" {
		return DBFile
	}
	if strings.HasSuffix(name, ".db") {
		return name
	}
	return "ndr-" + name + ".db"
}

// ErrNotInitialised is returned when no ndr repository is found.
var ErrNotInitialised = errors.New("ndr not initialised (run 'ndr init')")

// InitOptions controls repository initialisation.
type InitOptions struct {
	Force bool          // reinitialise an existing SQLite database
	DB    string        // database name (empty for default "ndr.db")
	Local bool          // add the database to .gitignore (not committed)
	Dir   string        // target directory (empty for current directory)
	Store store.Options // backend; Driver "postgres" applies the schema to Store.DSN
}

// Init initialises a new ndr repository and returns the database location
// (the SQLite file path, or "postgres" for a server-backed repository).
//
// Init does not write config. Following the git model, init only creates
// the database; settings are managed via "ndr config". For Postgres the
// .ndr directory is still created so local config and discovery work, and
// the schema is applied idempotently to the configured DSN.
func Init(opts InitOptions) (string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	ndrDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(ndrDir, 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := writeGitignore(ndrDir); err != nil {
		return "", err
	}

	location := store.DriverPostgres
	storeOpts := opts.Store
	if storeOpts.Driver == "" || storeOpts.Driver == store.DriverSQLite {
		dbPath := filepath.Join(ndrDir, DBFileName(opts.DB))
		if _, err := os.Stat(dbPath); err == nil {
			if !opts.Force {
				return "", fmt.Errorf("database %s already exists (use --force to reinitialise)", DBFileName(opts.DB))
			}
			if err := os.Remove(dbPath); err != nil {
				return "", fmt.Errorf("remove database: %w", err)
			}
		}
		storeOpts.Driver = store.DriverSQLite
		storeOpts.DSN = dbPath
		location = dbPath
	}

	s, err := store.OpenWith(storeOpts)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	if err := s.Init(); err != nil {
		return "", fmt.Errorf("init store: %w", err)
	}

	// --local only controls whether the database file is committed to git
	if opts.Local && location != store.DriverPostgres {
		if err := IgnoreDB(opts.DB, ndrDir); err != nil {
			return "", fmt.Errorf("ignore database: %w", err)
		}
	}
	return location, nil
}

// writeGitignore creates .ndr/.gitignore on first init only, so later inits
// for additional databases keep custom entries such as local markers.
func writeGitignore(ndrDir string) error {
	gitignore := filepath.Join(ndrDir, ".gitignore")
	if _, err := os.Stat(gitignore); !os.IsNotExist(err) {
		return nil
	}
	s := `# ndr - ignore local config
# Database files (*.db) are the source of truth and should be committed
config.yaml
`
	if err := os.WriteFile(gitignore, []byte(s), 0644); err != nil {
		return fmt.Errorf("write gitignore: %w", err)
	}
	return nil
}

// Locate resolves the database to open. An explicit dir (from --dir or
// NDR_DIR) is used as-is; otherwise the tree is searched upwards.
func Locate(db, dir string) (string, error) {
	if dir == "" {
		return Discover(db)
	}
	dbPath := filepath.Join(dir, Dir, DBFileName(db))
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("%w: no %s in %s", ErrNotInitialised, DBFileName(db), dir)
	}
	return dbPath, nil
}

// Discover walks up the directory tree looking for a .ndr database.
// The db parameter specifies which database to find (empty for default).
// Returns the full path to the database if found.
func Discover(db string) (string, error) {
	dbFile := DBFileName(db)
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		dbPath := filepath.Join(dir, Dir, dbFile)
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialised
		}
		dir = parent
	}
}

// DiscoverDir finds the .ndr directory, walking up the tree.
// Returns the full path to the .ndr directory.
func DiscoverDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		ndrDir := filepath.Join(dir, Dir)
		if info, err := os.Stat(ndrDir); err == nil && info.IsDir() {
			return ndrDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialised
		}
		dir = parent
	}
}

// DBInfo holds database metadata.
type DBInfo struct {
	Name  string // Short name (empty for default, "docs" for ndr-docs.db)
	File  string // Filename (ndr.db, ndr-docs.db)
	Path  string // Full path
	Local bool   // True if gitignored
}

// ListDBs returns all databases in the .ndr directory with their status.
// If dir is empty, discovers .ndr directory from current working directory.
func ListDBs(dir string) ([]DBInfo, error) {
	if dir == "" {
		var err error
		dir, err = DiscoverDir()
		if err != nil {
			return nil, fmt.Errorf("discover .ndr directory: %w", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read .ndr directory: %w", err)
	}

	var dbs []DBInfo
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".db") {
			continue
		}

		// Extract short name from filename
		name := ""
		if e.Name() == DBFile {
			name = ""
		} else if strings.HasPrefix(e.Name(), "ndr-") {
			name = strings.TrimSuffix(strings.TrimPrefix(e.Name(), "ndr-"), ".db")
		} else {
			continue // Not an ndr database
		}

		ignored, err := IsIgnored(name, dir)
		if err != nil {
			// If we can't determine ignored status, default to false (shared).
			// This can happen if .gitignore is malformed or unreadable.
			ignored = false
		}
		dbs = append(dbs, DBInfo{
			Name:  name,
			File:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			Local: ignored,
		})
	}

	return dbs, nil
}
