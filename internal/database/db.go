// Package database owns the SQLite connection, schema and maintenance
// primitives for the satellite ledger.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/satellite_schema.sql
var satelliteSchema string

// Tables lists every table the schema creates
var Tables = []string{"settings", "budget", "holdings", "formation_usage", "formation_history"}

// DatabaseProfile selects durability PRAGMAs
type DatabaseProfile string

const (
	// ProfileLedger fsyncs on every commit
	ProfileLedger DatabaseProfile = "ledger"
	// ProfileStandard trades some durability for speed (tests, scratch copies)
	ProfileStandard DatabaseProfile = "standard"
)

// DB is an open satellite database
type DB struct {
	conn *sql.DB
	path string
	name string
}

// Config holds database configuration
type Config struct {
	Path        string
	Profile     DatabaseProfile
	Name        string
	BusyTimeout time.Duration
}

// New opens the database at cfg.Path, creating its directory when needed,
// and verifies the connection.
func New(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}
	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "satellite"
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: cfg.Path, name: cfg.Name}, nil
}

func buildConnectionString(path string, profile DatabaseProfile, busyTimeout time.Duration) string {
	pragmas := []string{"journal_mode(WAL)"}
	if profile == ProfileLedger {
		pragmas = append(pragmas, "synchronous(FULL)", "auto_vacuum(NONE)")
	} else {
		pragmas = append(pragmas, "synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)", "temp_store(MEMORY)")
	}
	pragmas = append(pragmas,
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()),
		"wal_autocheckpoint(1000)",
	)

	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		b.WriteString(sep + "_pragma=" + p)
		sep = "&"
	}
	// writers take the lock at BEGIN so read-modify-write batches serialise
	b.WriteString("&_txlock=immediate")
	return b.String()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection pool
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name used in logs
func (db *DB) Name() string {
	return db.name
}

// Path returns the absolute database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (db *DB) Migrate() error {
	return WithTransactionContext(context.Background(), db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(satelliteSchema); err != nil {
			return fmt.Errorf("failed to execute schema for %s: %w", db.name, err)
		}
		return nil
	})
}

// WithTransactionContext runs fn inside a transaction, committing on success
// and rolling back on error or panic. The error returned by fn stays in the
// chain for errors.Is/As.
func WithTransactionContext(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
				return
			}
			err = fmt.Errorf("transaction failed: %w", err)
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

// IntegrityCheck runs PRAGMA integrity_check on conn
func IntegrityCheck(ctx context.Context, conn *sql.DB) error {
	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}
	return nil
}

// MissingTables returns the schema tables absent from conn
func MissingTables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var missing []string
	for _, table := range Tables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

// HealthCheck pings the database and runs a full integrity check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}
	if err := IntegrityCheck(ctx, db.conn); err != nil {
		return fmt.Errorf("%s: %w", db.name, err)
	}
	return nil
}

// WALCheckpoint runs a WAL checkpoint. An empty mode means TRUNCATE.
func (db *DB) WALCheckpoint(mode string) error {
	mode = strings.ToUpper(mode)
	switch mode {
	case "":
		mode = "TRUNCATE"
	case "PASSIVE", "FULL", "RESTART", "TRUNCATE":
	default:
		return fmt.Errorf("invalid WAL checkpoint mode %q", mode)
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(" + mode + ")"); err != nil {
		return fmt.Errorf("WAL checkpoint failed for %s: %w", db.name, err)
	}
	return nil
}

// VacuumInto writes a consistent, compacted copy of the database to path
func (db *DB) VacuumInto(ctx context.Context, path string) error {
	if strings.ContainsRune(path, '\'') {
		return fmt.Errorf("invalid backup path %q", path)
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO '"+path+"'"); err != nil {
		return fmt.Errorf("VACUUM INTO failed for %s: %w", db.name, err)
	}
	return nil
}

// Stats describes the on-disk footprint of the database
type Stats struct {
	SizeBytes     int64 `json:"sizeBytes"`
	WALSizeBytes  int64 `json:"walSizeBytes"`
	PageCount     int64 `json:"pageCount"`
	PageSize      int64 `json:"pageSize"`
	FreelistCount int64 `json:"freelistCount"`
}

// GetStats reads file sizes and page counters
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	if info, err := os.Stat(db.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	if info, err := os.Stat(db.path + "-wal"); err == nil {
		stats.WALSizeBytes = info.Size()
	}

	for pragma, dest := range map[string]*int64{
		"page_count":     &stats.PageCount,
		"page_size":      &stats.PageSize,
		"freelist_count": &stats.FreelistCount,
	} {
		if err := db.conn.QueryRow("PRAGMA " + pragma).Scan(dest); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", pragma, err)
		}
	}
	return stats, nil
}
