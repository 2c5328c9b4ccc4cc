package capability

import (
	"database/sql"
	"fmt"
	"runtime"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteMode is one of the three open modes §4.10's open(path, mode)
// accepts.
type SQLiteMode int

const (
	SQLiteRO SQLiteMode = iota
	SQLiteRW
	SQLiteCRW
)

// ParseSQLiteMode maps the script-level mode string ("RO"/"RW"/"CRW")
// onto a SQLiteMode, case-insensitively.
func ParseSQLiteMode(s string) (SQLiteMode, error) {
	switch strings.ToUpper(s) {
	case "RO":
		return SQLiteRO, nil
	case "RW":
		return SQLiteRW, nil
	case "CRW":
		return SQLiteCRW, nil
	default:
		return 0, fmt.Errorf("capability: unknown sqlite mode %q, want RO/RW/CRW", s)
	}
}

func dsnForMode(path string, mode SQLiteMode) string {
	switch mode {
	case SQLiteRO:
		return fmt.Sprintf("file:%s?mode=ro", path)
	case SQLiteRW:
		return fmt.Sprintf("file:%s?mode=rw", path)
	default:
		return fmt.Sprintf("file:%s?mode=rwc", path)
	}
}

// SQLiteStore is a thin wrapper over a SQLite database, the store
// behind script's server.sqlite capability (§4.10), used by scripts
// that need durable state beyond a single request (session tables,
// counters, audit rows).
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens path for create-or-read-write use, the mode an
// internal Go caller (as opposed to a script) almost always wants.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	return Open(path, SQLiteCRW)
}

// Open opens path under the given mode, the capability behind script's
// server.sqlite.open(path, mode). The returned store's underlying
// connection is closed by Close, or by a finalizer if the caller never
// calls Close; the finalizer runs when the garbage collector reclaims
// the store, at no fixed time.
func Open(path string, mode SQLiteMode) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsnForMode(path, mode))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("capability: open sqlite store %s: %w", path, err)
	}
	s := &SQLiteStore{db: db}
	runtime.SetFinalizer(s, (*SQLiteStore).finalize)
	return s, nil
}

func (s *SQLiteStore) finalize() { _ = s.db.Close() }

// Close releases the store eagerly (§4.10 "~db"), cancelling the
// finalizer so it doesn't run a second time.
func (s *SQLiteStore) Close() error {
	runtime.SetFinalizer(s, nil)
	return s.db.Close()
}

// Exec runs a statement that does not return rows (DDL, INSERT/UPDATE).
func (s *SQLiteStore) Exec(query string, args ...interface{}) (int64, error) {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs a SELECT and returns rows as a slice of column-name maps.
// script.FromGo converts each row map, but not the []map slice as a
// whole (it yields Undefined for that type).
func (s *SQLiteStore) Query(query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Stmt is a prepared statement, the capability behind script's
// db.prepare(sql) -> stmt.
type Stmt struct {
	stmt *sql.Stmt
}

// Prepare compiles query once for repeated binding, the §4.10
// "db << sql -> stmt" operation.
func (s *SQLiteStore) Prepare(query string) (*Stmt, error) {
	st, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	h := &Stmt{stmt: st}
	runtime.SetFinalizer(h, (*Stmt).finalize)
	return h, nil
}

func (st *Stmt) finalize() { _ = st.stmt.Close() }

// Exec binds args and returns the first result row as a 0-indexed slice
// of column values, or nil if the statement produced no rows — the
// §4.10 "stmt(args...) -> row | nil" operation.
func (st *Stmt) Exec(args ...interface{}) ([]interface{}, error) {
	rows, err := st.stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return vals, nil
}

// Release finalises the statement eagerly (§4.10 "~stmt"), cancelling
// the finalizer so it doesn't run a second time.
func (st *Stmt) Release() error {
	runtime.SetFinalizer(st, nil)
	return st.stmt.Close()
}
