package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql/sqlgraph"
)

// DBError wraps a driver error with the statement that produced it,
// its parameters and the provider-specific error code, preserved for
// observability.
type DBError struct {
	SQL    string
	Params []any
	Code   string
	Err    error
}

// Error returns the error string.
func (e *DBError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("zen/engine: %v (code=%s)", e.Err, e.Code)
	}
	return fmt.Sprintf("zen/engine: %v", e.Err)
}

// Unwrap returns the driver error.
func (e *DBError) Unwrap() error { return e.Err }

// AsDBError extracts a DBError from an error chain.
func AsDBError(err error) (*DBError, bool) {
	var e *DBError
	ok := errors.As(err, &e)
	return e, ok
}

// wrapError tags a driver error with its statement context. Constraint
// violations (unique, foreign-key or check) additionally surface as
// ConstraintError so
// errors.Is/As-based call sites can branch without parsing codes.
func (e *Engine) wrapError(err error, query string, params []any) error {
	if err == nil {
		return nil
	}
	dbe := &DBError{SQL: query, Params: params, Code: ErrorCode(err), Err: err}
	if sqlgraph.IsConstraintError(err) {
		return zen.NewConstraintError(err.Error(), dbe)
	}
	return dbe
}

// ErrorCode extracts the provider-specific error code from a driver
// error: SQLSTATE for Postgres (e.g. 23505), the ER_* name for MySQL
// (e.g. ER_DUP_ENTRY), and the extended result-code name for SQLite
// (e.g. SQLITE_CONSTRAINT_UNIQUE).
func ErrorCode(err error) string {
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return string(pqe.Code)
	}
	var mye *mysql.MySQLError
	if errors.As(err, &mye) {
		if name, ok := mysqlErrNames[mye.Number]; ok {
			return name
		}
		return "ER_" + strconv.Itoa(int(mye.Number))
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		if name, ok := sqliteErrNames[se.Code()]; ok {
			return name
		}
		return "SQLITE_" + strconv.Itoa(se.Code())
	}
	return ""
}

var mysqlErrNames = map[uint16]string{
	1062: "ER_DUP_ENTRY",
	1451: "ER_ROW_IS_REFERENCED_2",
	1452: "ER_NO_REFERENCED_ROW_2",
	1048: "ER_BAD_NULL_ERROR",
	3819: "ER_CHECK_CONSTRAINT_VIOLATED",
}

var sqliteErrNames = map[int]string{
	19:   "SQLITE_CONSTRAINT",
	275:  "SQLITE_CONSTRAINT_CHECK",
	787:  "SQLITE_CONSTRAINT_FOREIGNKEY",
	1299: "SQLITE_CONSTRAINT_NOTNULL",
	1555: "SQLITE_CONSTRAINT_PRIMARYKEY",
	2067: "SQLITE_CONSTRAINT_UNIQUE",
}
