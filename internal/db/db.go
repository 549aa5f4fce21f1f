// Package db persists local order state in a SQLite key-value table.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/marcus/ordr/internal/models"
	_ "modernc.org/sqlite"
)

const (
	dataDir = ".ordr"
	dbFile  = "orders.db"

	// SnapshotKey is the key holding the serialized order list
	SnapshotKey = "orderManagementData"
)

var (
	// ErrNotInitialized is returned by Open when no database exists yet
	ErrNotInitialized = errors.New("database not found: run 'ordr init' first")
	// ErrSchemaTooNew means the database was written by a newer ordr
	ErrSchemaTooNew = errors.New("database schema is newer than this binary")
)

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	baseDir string
}

// Path returns the database path for a project directory.
func Path(baseDir string) string {
	return filepath.Join(baseDir, dataDir, dbFile)
}

// Exists reports whether a database has been initialized in baseDir.
func Exists(baseDir string) bool {
	_, err := os.Stat(Path(baseDir))
	return err == nil
}

// Open opens an existing database and applies the schema
func Open(baseDir string) (*DB, error) {
	if !Exists(baseDir) {
		return nil, ErrNotInitialized
	}
	return open(baseDir)
}

// Initialize creates the data directory and database if needed
func Initialize(baseDir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, dataDir), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return open(baseDir)
}

func open(baseDir string) (*DB, error) {
	conn, err := sql.Open("sqlite", Path(baseDir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL so readers never block the single writer
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &DB{conn: conn, baseDir: baseDir}
	v, err := db.GetSchemaVersion()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if v > SchemaVersion {
		conn.Close()
		return nil, fmt.Errorf("%w (v%d > v%d)", ErrSchemaTooNew, v, SchemaVersion)
	}
	if err := db.setSchemaVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// withWriteLock executes fn while holding the cross-process write lock.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// GetSchemaVersion returns the stored schema version, 0 if unset
func (db *DB) GetSchemaVersion() (int, error) {
	var v string
	err := db.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (db *DB) setSchemaVersion() error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		strconv.Itoa(SchemaVersion))
	if err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Get returns the value stored under key. The bool is false when absent.
func (db *DB) Get(key string) (string, bool, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

// Put overwrites the value stored under key.
func (db *DB) Put(key, value string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		return nil
	})
}

// BlobStore persists the order snapshot as one JSON blob.
type BlobStore struct {
	db  *DB
	key string
}

// Snapshots returns a BlobStore over the default snapshot key
func (db *DB) Snapshots() *BlobStore {
	return &BlobStore{db: db, key: SnapshotKey}
}

// Load reads the stored snapshot. A missing blob yields an empty snapshot.
func (b *BlobStore) Load() (*models.Snapshot, error) {
	raw, ok, err := b.db.Get(b.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &models.Snapshot{}, nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save overwrites the stored snapshot, stamping LastSaved if unset.
func (b *BlobStore) Save(snap models.Snapshot) error {
	if snap.LastSaved.IsZero() {
		snap.LastSaved = time.Now().UTC()
	}
	if snap.Orders == nil {
		snap.Orders = []models.Order{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return b.db.Put(b.key, string(data))
}
