// Package dialect provides database dialect abstraction for Zen.
//
// See the package documentation in doc.go for the full overview.
package dialect

import "context"

// Provider identifiers. These are the values stored in a Schema's
// Provider field and used to key SchemaType/Annotation overrides.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Driver is the interface that wraps all the basic methods of a dialect
// driver, implemented by every provider-specific connection wrapper.
type Driver interface {
	// Exec executes a query that doesn't return rows, such as an UPDATE or INSERT.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that is expected to return rows.
	Query(ctx context.Context, query string, args, v any) error
	// Tx starts and returns a transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the name of the dialect (Postgres, MySQL, SQLite).
	Dialect() string
}

// Tx is a transactional Driver. Unlike the Driver interface, a Tx can be
// committed or rolled back and cannot spawn nested transactions through
// itself; nested transaction support is the caller's responsibility
// (savepoints or reuse of the outer transaction).
type Tx interface {
	Driver
	// Commit commits the transaction.
	Commit() error
	// Rollback rolls back the transaction.
	Rollback() error
}

// ExecQuerier wraps the two database/sql primitives every dialect driver
// is ultimately built from.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}
