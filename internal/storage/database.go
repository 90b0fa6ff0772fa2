package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a row is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a concurrent writer won the race for a row.
	ErrConflict = errors.New("concurrent update")
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn   *sql.DB
	driver string
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == DriverSQLite {
		// SQLite has a single writer. Funnelling every statement through one
		// connection serializes transactions instead of failing them with BUSY.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to apply schema")
	}

	return &DB{conn: conn, driver: driver}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the name of the underlying driver.
func (db *DB) Driver() string {
	return db.driver
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// rebind rewrites ? placeholders into the driver's native form.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate returns the row locking clause for reads inside a write transaction.
// SQLite transactions already hold the write lock (_txlock=immediate).
func (db *DB) forUpdate(table string) string {
	if db.driver == DriverPostgres {
		return " FOR UPDATE OF " + table
	}
	return ""
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err, "failed to commit transaction")
	}
	return nil
}

// classify wraps err, mapping driver level lock contention onto ErrConflict.
func classify(err error, msg string) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case 5, 6: // SQLITE_BUSY, SQLITE_LOCKED
			return errors.Wrapf(ErrConflict, "%s: %v", msg, err)
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return errors.Wrapf(ErrConflict, "%s: %v", msg, err)
		}
	}
	return errors.Wrap(err, msg)
}

func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}

func toTs(t time.Time) int64 {
	return t.Unix()
}

func fromTs(ts int64) time.Time {
	return time.Unix(ts, 0)
}

func nullTs(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullTs(ts sql.NullInt64) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := fromTs(ts.Int64)
	return &t
}
