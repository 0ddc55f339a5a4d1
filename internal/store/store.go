package store

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/graevy/mag/internal/util"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Store is one connection scope on the library database
type Store struct {
	db   *sql.DB
	path string
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	NetworkOptimized bool // Apply network-optimized pragmas
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options.
// The schema is guaranteed to be present when it returns without error.
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", util.ErrStorageUnavailable)
	}

	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", util.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, path: path}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %w", util.ErrStorageUnavailable, path, err)
	}

	if opts.NetworkOptimized {
		if err := store.applyNetworkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: failed to apply network pragmas: %w", util.ErrStorageUnavailable, err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migration failed: %w", util.ErrStorageUnavailable, err)
	}

	util.DebugLog("Opened library database %s", path)
	return store, nil
}

// dataSourceName builds the SQLite URI for path. The path is percent-escaped
// so that '?', '#' and '%' in file names stay part of the file name.
func dataSourceName(path string) string {
	// Foreign keys are off by default in SQLite and must be enabled per connection
	u := url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     path,
		RawQuery: "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
	}
	return u.String()
}

// applyNetworkPragmas applies SQLite optimizations for libraries kept on network filesystems
func (s *Store) applyNetworkPragmas() error {
	pragmas := []string{
		// NORMAL is safe with WAL: fsync at checkpoints instead of every commit
		"PRAGMA synchronous = NORMAL",

		// Keep temp tables in memory instead of on network disk
		"PRAGMA temp_store = MEMORY",

		// 64MB page cache (negative value = KB)
		"PRAGMA cache_size = -64000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file this store was opened on
func (s *Store) Path() string {
	return s.path
}

// SQLiteVersion returns the SQLite version string
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	err = db.QueryRow("SELECT sqlite_version()").Scan(&version)
	if err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check and PRAGMA foreign_key_check
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	rows, err := s.db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("foreign key check query failed: %w", err)
	}
	defer rows.Close()

	dangling := 0
	for rows.Next() {
		dangling++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("foreign key check query failed: %w", err)
	}
	if dangling > 0 {
		return fmt.Errorf("%w: %d rows reference missing parents", util.ErrConstraintViolation, dangling)
	}

	return nil
}

// migrate applies database migrations.
// The version check and every schema step run in one transaction so a
// concurrent or interrupted startup never leaves a partial schema behind.
func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := getSchemaVersion(tx)
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	util.DebugLog("Migrated %s from schema v%d to v%d", s.path, version, currentSchemaVersion)
	return nil
}

// getSchemaVersion returns the current schema version
func getSchemaVersion(tx *sql.Tx) (int, error) {
	var exists int
	err := tx.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = tx.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}

	return nil
}

// Song is a tagged entity, identified by its filesystem path
type Song struct {
	ID   int64  `json:"id" yaml:"id"`
	Path string `json:"path" yaml:"path"`
}

// Tag is a named 0-9 attribute
type Tag struct {
	ID   int64
	Name string
}

// TagValue is one tag assignment on a song
type TagValue struct {
	Name  string
	Value int
}

// TagUsage is a tag with the number of songs carrying it
type TagUsage struct {
	Name  string
	Songs int
}

// Stats summarizes library contents
type Stats struct {
	Songs       int
	Tags        int
	Assignments int
	PlayEvents  int
}
