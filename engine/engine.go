// Package engine executes built query nodes against the driver: it
// owns transaction management (including savepoint-backed nesting),
// the low-level query-node interception plane, driver error
// normalization and the raw SQL escape hatch.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// NodeRunner executes a query node and returns its erased result:
// []map[string]any for reads, sql.Result for writes.
type NodeRunner func(ctx context.Context, node sql.Querier) (any, error)

// NodeInterceptor intercepts a built query node just before emission.
// Implementations may rewrite, duplicate or suppress the node; next
// invokes the remainder of the chain.
type NodeInterceptor interface {
	InterceptNode(ctx context.Context, node sql.Querier, next NodeRunner) (any, error)
}

// NodeInterceptorFunc adapts a function to a NodeInterceptor.
type NodeInterceptorFunc func(ctx context.Context, node sql.Querier, next NodeRunner) (any, error)

// InterceptNode implements NodeInterceptor.
func (f NodeInterceptorFunc) InterceptNode(ctx context.Context, node sql.Querier, next NodeRunner) (any, error) {
	return f(ctx, node, next)
}

// Options configures an Engine.
type Options struct {
	// Timeout bounds each top-level operation; zero means none.
	Timeout time.Duration
	// Logger receives debug output; nil means no-op.
	Logger zen.Logger
}

// Engine binds a frozen schema to a driver connection pool.
type Engine struct {
	schema  *schema.Schema
	drv     dialect.Driver
	opts    Options
	// interceptors run outermost-first around every emitted node.
	interceptors []NodeInterceptor
	spSeq        atomic.Int64
}

// New creates an engine for the schema and driver.
func New(s *schema.Schema, drv dialect.Driver, opts Options) (*Engine, error) {
	if s == nil {
		return nil, zen.NewConfigError("engine: schema is required", nil)
	}
	if drv == nil {
		return nil, zen.NewConfigError("engine: driver is required", nil)
	}
	if got, want := drv.Dialect(), s.Provider.Dialect(); got != want {
		return nil, zen.NewConfigError(fmt.Sprintf("engine: driver dialect %q does not match schema provider %q", got, want), nil)
	}
	return &Engine{schema: s, drv: drv, opts: opts}, nil
}

// Schema returns the engine's frozen schema.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Dialect returns the SQL dialect name.
func (e *Engine) Dialect() string { return e.drv.Dialect() }

// Driver returns the underlying driver.
func (e *Engine) Driver() dialect.Driver { return e.drv }

// Close releases the connection pool.
func (e *Engine) Close() error { return e.drv.Close() }

// WithInterceptors returns a derived engine whose node chain has the
// given interceptors appended (and therefore running outermost). The
// receiver is unchanged.
func (e *Engine) WithInterceptors(is ...NodeInterceptor) *Engine {
	d := *e
	d.interceptors = append(append([]NodeInterceptor{}, e.interceptors...), is...)
	return &d
}

// debugf logs through the configured logger, if any.
func (e *Engine) debugf(format string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Debugf(format, args...)
	}
}

type txCtxKey struct{}

type txState struct {
	tx dialect.Tx
}

// txFromContext returns the transaction bound to ctx, if any.
func txFromContext(ctx context.Context) *txState {
	ts, _ := ctx.Value(txCtxKey{}).(*txState)
	return ts
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool { return txFromContext(ctx) != nil }

// conn returns the ExecQuerier operations run on: the transaction
// bound to ctx, or the pool.
func (e *Engine) conn(ctx context.Context) dialect.ExecQuerier {
	if ts := txFromContext(ctx); ts != nil {
		return ts.tx
	}
	return e.drv
}

// WithTx runs fn inside a transaction, committing on success and
// rolling back on error or panic. A nested call collapses to a
// savepoint where the dialect supports them, and re-uses the outer
// transaction otherwise.
func (e *Engine) WithTx(ctx context.Context, fn func(ctx context.Context) error) (rerr error) {
	if ts := txFromContext(ctx); ts != nil {
		return e.withSavepoint(ctx, ts, fn)
	}
	tx, err := e.drv.Tx(ctx)
	if err != nil {
		return e.wrapError(err, "BEGIN", nil)
	}
	ctx = context.WithValue(ctx, txCtxKey{}, &txState{tx: tx})
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(ctx); err != nil {
		if rberr := tx.Rollback(); rberr != nil {
			return &zen.RollbackError{Err: fmt.Errorf("%v: %w", rberr, err)}
		}
		return err
	}
	return tx.Commit()
}

// withSavepoint nests fn in a savepoint on the open transaction.
// MySQL, Postgres and SQLite all support SAVEPOINT, so the re-use
// fallback only applies to exotic drivers that reject the statement.
func (e *Engine) withSavepoint(ctx context.Context, ts *txState, fn func(ctx context.Context) error) error {
	name := "zen_sp_" + strconv.FormatInt(e.spSeq.Add(1), 10)
	if err := ts.tx.Exec(ctx, "SAVEPOINT "+name, []any{}, nil); err != nil {
		// No savepoint support: run in the outer transaction.
		return fn(ctx)
	}
	if err := fn(ctx); err != nil {
		_ = ts.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name, []any{}, nil)
		return err
	}
	return ts.tx.Exec(ctx, "RELEASE SAVEPOINT "+name, []any{}, nil)
}

// MaybeTimeout applies the engine-level per-operation timeout at the
// outermost boundary of an operation.
func (e *Engine) MaybeTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.opts.Timeout)
}

// RunNode sends a query node through the interceptor chain and
// executes it. Selectors produce []map[string]any; other nodes produce
// sql.Result, or []map[string]any when they carry a RETURNING clause.
func (e *Engine) RunNode(ctx context.Context, node sql.Querier) (any, error) {
	run := NodeRunner(e.execNode)
	// The interceptor registered last wraps the rest of the chain.
	for _, ic := range e.interceptors {
		ic, next := ic, run
		run = func(ctx context.Context, node sql.Querier) (any, error) {
			return ic.InterceptNode(ctx, node, next)
		}
	}
	return run(ctx, node)
}

// Query runs a selector through the chain and returns its rows.
func (e *Engine) Query(ctx context.Context, s *sql.Selector) ([]map[string]any, error) {
	v, err := e.RunNode(ctx, s)
	if err != nil {
		return nil, err
	}
	rows, ok := v.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("engine: interceptor returned %T for a select node", v)
	}
	return rows, nil
}

// Exec runs a mutation node through the chain and returns its result.
func (e *Engine) Exec(ctx context.Context, node sql.Querier) (sql.Result, error) {
	v, err := e.RunNode(ctx, node)
	if err != nil {
		return nil, err
	}
	res, ok := v.(sql.Result)
	if !ok {
		return nil, fmt.Errorf("engine: interceptor returned %T for a mutation node", v)
	}
	return res, nil
}

// ExecReturning runs a mutation node carrying a RETURNING clause and
// returns the produced rows.
func (e *Engine) ExecReturning(ctx context.Context, node sql.Querier) ([]map[string]any, error) {
	if !e.schema.Provider.SupportsReturning() {
		return nil, zen.NewNotSupportedError("RETURNING", fmt.Sprintf("provider %s cannot return rows from mutations", e.schema.Provider))
	}
	v, err := e.RunNode(ctx, node)
	if err != nil {
		return nil, err
	}
	rows, ok := v.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("engine: interceptor returned %T for a returning node", v)
	}
	return rows, nil
}

// execNode is the terminal runner of the interceptor chain.
func (e *Engine) execNode(ctx context.Context, node sql.Querier) (any, error) {
	if st, ok := node.(interface{ SetDialect(string) }); ok {
		st.SetDialect(e.Dialect())
	}
	query, args := node.Query()
	if errer, ok := node.(interface{ Err() error }); ok {
		if err := errer.Err(); err != nil {
			return nil, err
		}
	}
	e.debugf("zen/engine: %s %v", query, args)
	if producesRows(node) {
		return e.queryRows(ctx, query, args)
	}
	var res sql.Result
	if err := e.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return nil, e.wrapError(err, query, args)
	}
	return res, nil
}

// producesRows reports whether the node yields a result set: any
// select, or a mutation carrying a RETURNING clause.
func producesRows(node sql.Querier) bool {
	switch n := node.(type) {
	case *sql.Selector:
		return true
	case *sql.InsertBuilder:
		return len(n.ReturningColumns()) > 0
	case interface{ ReturningColumns() []string }:
		return len(n.ReturningColumns()) > 0
	}
	return false
}

// QueryRaw executes a parameterized SQL string and returns its rows.
// Raw queries bypass the node interceptor chain and the policy layer.
func (e *Engine) QueryRaw(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	return e.queryRows(ctx, query, args)
}

// ExecRaw executes a parameterized SQL statement and returns the
// number of affected rows. Raw statements bypass interception and
// policy.
func (e *Engine) ExecRaw(ctx context.Context, query string, args ...any) (int64, error) {
	var res sql.Result
	if err := e.conn(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, e.wrapError(err, query, args)
	}
	return res.RowsAffected()
}

func (e *Engine) queryRows(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	var rows sql.Rows
	if err := e.conn(ctx).Query(ctx, query, args, &rows); err != nil {
		return nil, e.wrapError(err, query, args)
	}
	defer rows.Close()
	out, err := scanMaps(&rows)
	if err != nil {
		return nil, e.wrapError(err, query, args)
	}
	return out, nil
}

// scanMaps reads every row into a column-keyed map.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c] = normalizeScanned(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeScanned maps driver byte slices to strings so result maps
// compare naturally; numeric and time values pass through.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
