// Package dialect provides database dialect abstraction for Zen.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing Zen to support multiple database backends including
// PostgreSQL, MySQL, and SQLite.
//
// # Supported Dialects
//
// The following dialects are supported:
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface extends Driver with transaction methods:
//
//	type Tx interface {
//	    Driver
//	    Commit() error
//	    Rollback() error
//	}
//
// # ExecQuerier Interface
//
// The ExecQuerier interface is implemented by both Driver and Tx:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/zenstack-dev/zen-go/dialect"
//	    "github.com/zenstack-dev/zen-go/dialect/sql"
//	)
//
//	db, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// Using with the Zen client:
//
//	c, err := client.Open(client.Config{Schema: s, Driver: db})
//
// # Sub-packages
//
// The dialect package contains several sub-packages:
//
//   - dialect/sql: SQL query builders and driver implementation
//   - dialect/sql/sqlgraph: Relation graph description, in-memory predicate
//     evaluation and constraint-error classification
//   - dialect/sqlschema: SQL annotations for fields, edges and indexes
package dialect
