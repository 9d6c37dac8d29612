package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/verifier.space/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

// Store implements verifier persistence over SQLite.
//
// Writes go through a single connection and start with BEGIN IMMEDIATE, so
// the write lock is held before any work runs and COMMIT never waits on
// another writer. Reads use a separate query-only pool; in WAL mode they never
// block the writer.
type Store struct {
	sqlDB  *sql.DB
	readDB *sql.DB
}

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

// Open opens a verifier SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?" + sqlitePragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	readDB, err := sql.Open("sqlite", dsn+"&_pragma=query_only(1)")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open sqlite read pool: %w", err)
	}
	if err := readDB.Ping(); err != nil {
		_ = readDB.Close()
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite read pool: %w", err)
	}

	return &Store{sqlDB: sqlDB, readDB: readDB}, nil
}

// DB returns the write database handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Close releases both SQLite pools.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	errs = append(errs, s.sqlDB.Close())
	return errors.Join(errs...)
}

// View runs fn in a read transaction that is always rolled back.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.readDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	sqlTx, err := s.readDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	return fn(&tx{sqlTx: sqlTx})
}

// Update runs fn in an immediate write transaction that commits when fn
// returns nil. COMMIT and ROLLBACK ignore ctx cancellation: once fn has
// returned, its outcome must be applied or undone.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	conn, err := s.sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire write connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	finish := context.WithoutCancel(ctx)
	committed := false
	defer func() {
		if committed {
			return
		}
		if _, rbErr := conn.ExecContext(finish, "ROLLBACK"); rbErr != nil {
			// Never hand a connection with an open transaction back to the pool.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	if err := fn(&tx{sqlTx: conn}); err != nil {
		return err
	}
	if _, err := conn.ExecContext(finish, "COMMIT"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// queryer is the statement surface shared by *sql.Tx and *sql.Conn.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tx implements storage.Tx over one SQL transaction.
type tx struct {
	sqlTx queryer
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func parseAmount(value string) (ledger.Amount, error) {
	amount, err := ledger.ParseAmount(value)
	if err != nil {
		return ledger.Amount{}, fmt.Errorf("corrupt amount %q: %w", value, err)
	}
	return amount, nil
}

func encodeMap(values map[string]string) (string, error) {
	if len(values) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMap(value string) (map[string]string, error) {
	if value == "" || value == "{}" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return out, nil
}

var _ storage.Store = (*Store)(nil)
var _ storage.Tx = (*tx)(nil)
