package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/ifacetool/internal/model"
)

// FileName is the database file name inside the cache directory.
const FileName = "ifacetool.db"

// IdentityDB caches snap identities in SQLite.
type IdentityDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures IdentityDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that concurrent ifacetool
	// processes do not block each other's readers.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Entry is a cached identity with the time it was resolved.
type Entry struct {
	model.SnapRef
	FetchedAt time.Time
}

// Open opens or creates the identity database in dir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dir string, opts Options) (*IdentityDB, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("identity cache not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check identity cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idb := &IdentityDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idb, nil
}

// Path returns the database file path.
func (idb *IdentityDB) Path() string {
	return idb.dbPath
}

// Close closes the database connection.
func (idb *IdentityDB) Close() error {
	return idb.db.Close()
}

func (idb *IdentityDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snap_identities (
		snap_name TEXT PRIMARY KEY,
		snap_id TEXT NOT NULL,
		publisher_id TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := idb.db.ExecContext(context.Background(), schema)
	return err
}

// Put inserts or replaces the identity of ref.SnapName.
func (idb *IdentityDB) Put(ctx context.Context, ref model.SnapRef) error {
	if ref.SnapName == "" {
		return model.ErrEmptySnapName
	}

	query := `
	INSERT INTO snap_identities (snap_name, snap_id, publisher_id)
	VALUES (?, ?, ?)
	ON CONFLICT(snap_name) DO UPDATE SET
		snap_id = excluded.snap_id,
		publisher_id = excluded.publisher_id,
		fetched_at = CURRENT_TIMESTAMP
	`
	if _, err := idb.db.ExecContext(ctx, query, ref.SnapName, ref.SnapID, ref.PublisherID); err != nil {
		return fmt.Errorf("failed to store identity of %s: %w", ref.SnapName, err)
	}
	return nil
}

// Get returns the cached identity of name, or ErrNotFound.
func (idb *IdentityDB) Get(ctx context.Context, name string) (*Entry, error) {
	query := `
	SELECT snap_name, snap_id, publisher_id, fetched_at
	FROM snap_identities
	WHERE snap_name = ?
	`

	var entry Entry
	var fetchedAt string
	err := idb.db.QueryRowContext(ctx, query, name).Scan(
		&entry.SnapName,
		&entry.SnapID,
		&entry.PublisherID,
		&fetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identity of %s: %w", name, err)
	}
	entry.FetchedAt = parseTimestamp(fetchedAt)

	return &entry, nil
}

// List returns every cached identity ordered by snap name.
func (idb *IdentityDB) List(ctx context.Context) ([]Entry, error) {
	query := `
	SELECT snap_name, snap_id, publisher_id, fetched_at
	FROM snap_identities
	ORDER BY snap_name
	`

	rows, err := idb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var fetchedAt string
		if err := rows.Scan(&entry.SnapName, &entry.SnapID, &entry.PublisherID, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		entry.FetchedAt = parseTimestamp(fetchedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identities: %w", err)
	}

	return entries, nil
}

// Delete removes the identity of name. Deleting a missing name is not an error.
func (idb *IdentityDB) Delete(ctx context.Context, name string) error {
	if _, err := idb.db.ExecContext(ctx, "DELETE FROM snap_identities WHERE snap_name = ?", name); err != nil {
		return fmt.Errorf("failed to delete identity of %s: %w", name, err)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
