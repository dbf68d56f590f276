// Package sqlstore implements the SQL storage backend for the Facets
// attribute engine: the attribute catalog, the typed value store, the
// per-entity cache synchronizer, and the search compiler, over sqlite,
// mysql, or postgres.
package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var _ types.Engine = (*Backend)(nil)

// Backend implements types.Engine over a single transactional SQL store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dialect  string
	caps     *Capabilities
	log      *zap.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx, so read helpers can run
// inside or outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewBackend creates a new, unattached backend. A nil logger disables
// logging.
func NewBackend(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{log: logger}
}

// Attach opens the backing store described by config, bootstraps the
// schema, and probes backend capabilities.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := openDB(config)
	if err != nil {
		return err
	}

	for _, stmt := range schemaDDL(config.Driver) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.dialect = config.Driver
	b.caps = NewCapabilities(config.Driver, db)
	b.attached = true
	return nil
}

// openDB opens a database handle for the configured driver. SQLite stores
// its database file under DataDir; mysql and postgres connect via DSN.
func openDB(config types.Config) (*sql.DB, error) {
	switch config.Driver {
	case types.DriverSQLite:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, err
		}
		return sql.Open("sqlite", filepath.Join(dataDir, "facets.db"))
	case types.DriverMySQL:
		return sql.Open("mysql", config.DSN)
	case types.DriverPostgres:
		return sql.Open("postgres", config.DSN)
	default:
		return nil, types.ErrDriverUnknown
	}
}

// Detach releases the database handle. Idempotent. After Detach, all
// operations return ErrEngineDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// ready reports whether the backend is attached. Callers hold b.mu.
func (b *Backend) ready() error {
	if !b.attached {
		return types.ErrEngineDetached
	}
	return nil
}

// inTx runs fn inside one transaction, committing only when fn returns nil.
func (b *Backend) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// storageErr logs the failure with full operation context, then returns the
// sanitized error that callers see.
func (b *Backend) storageErr(op string, err error, fields ...zap.Field) error {
	b.log.Error("storage failure",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return &types.StorageError{Op: op, Err: err}
}

// rebind rewrites ?-placeholders for the attached dialect.
func (b *Backend) rebind(query string) string {
	return rebind(b.dialect, query)
}

// newUUID generates a UUID v7 string for attribute ids.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
