// Package sql provides SQL query building primitives and database dialect abstraction.
//
// This package is the foundation for generating and executing SQL queries across
// different database systems (PostgreSQL, MySQL, SQLite). It provides a fluent API
// for constructing type-safe SQL statements.
//
// # Builder Types
//
// The package provides specialized builders for different SQL operations:
//
//   - Builder: Low-level SQL string builder with identifier quoting
//   - Selector: SELECT query builder with joins, predicates, and pagination
//   - InsertBuilder: INSERT statement builder with RETURNING support
//   - UpdateBuilder: UPDATE statement builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE statement builder with WHERE predicates
//
// # Dialect Support
//
// SQL generation adapts to different database dialects:
//
//	import "github.com/zenstack-dev/zen-go/dialect"
//
//	// PostgreSQL
//	b := sql.Dialect(dialect.Postgres)
//	b.Select("id", "name").From(sql.Table("users")).Where(sql.EQ("status", "active"))
//
//	// MySQL
//	b := sql.Dialect(dialect.MySQL)
//
// # Predicates
//
// The package provides type-safe predicate functions:
//
//	// Equality
//	sql.EQ("name", "john")           // name = 'john'
//	sql.NEQ("status", "deleted")     // status <> 'deleted'
//
//	// Comparison
//	sql.GT("age", 18)                // age > 18
//	sql.LTE("price", 100.0)          // price <= 100.0
//
//	// String matching
//	sql.Contains("name", "john")     // name LIKE '%john%'
//	sql.HasPrefix("email", "admin")  // email LIKE 'admin%'
//
//	// NULL checks
//	sql.IsNull("deleted_at")         // deleted_at IS NULL
//	sql.NotNull("email")             // email IS NOT NULL
//
//	// IN clauses
//	sql.In("status", "active", "pending")  // status IN ('active', 'pending')
//
// # Joins
//
// Join operations are supported through the selector:
//
//	sql.Select("u.id", "u.name", "p.title").
//	    From(sql.Table("users").As("u")).
//	    Join(sql.Table("posts").As("p")).On("u.id", "p.user_id").
//	    Where(sql.EQ("u.status", "active"))
//
// # Pagination
//
// Offset pagination uses Offset and Limit; cursor (keyset) pagination is a
// row-value comparison over the ordering columns:
//
//	// Offset pagination
//	sql.Select("*").From(sql.Table("users")).Offset(20).Limit(10)
//
//	// Cursor pagination
//	sql.Select("*").From(sql.Table("users")).
//	    Where(sql.CompositeLT([]string{"created_at", "id"}, lastCreatedAt, lastID)).
//	    OrderBy(sql.Desc("created_at"), sql.Desc("id")).
//	    Limit(10)
//
// # Row-Level Locking
//
// The Selector emits no locking clause; SELECT ... FOR UPDATE and
// FOR SHARE are not supported.
//
// # Usage with Zen
//
// The ops handlers build their statements with this package. A find can be
// refined with raw selector predicates through ops.FindArgs.WhereP:
//
//	c.Model("User").FindMany(ctx, &ops.FindArgs{
//	    WhereP: []func(*sql.Selector){
//	        func(s *sql.Selector) { s.Where(sql.GT("age", 18)) },
//	    },
//	})
package sql
