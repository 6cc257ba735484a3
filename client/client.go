// Package client exposes the typed CRUD surface over the engine: the
// per-model handles, the transaction/raw-SQL/query-builder escape
// hatches, plugin registration, auth binding and procedures.
package client

import (
	"context"
	"fmt"
	"time"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/engine"
	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/plugin"
	privacy "github.com/zenstack-dev/zen-go/policy"
	"github.com/zenstack-dev/zen-go/procs"
	"github.com/zenstack-dev/zen-go/schema"
)

// Config assembles a client.
type Config struct {
	// Schema is the frozen runtime schema; required.
	Schema *schema.Schema
	// Driver is an opened dialect driver. Leave nil and set DSN to let
	// the client open one.
	Driver dialect.Driver
	// DSN is the data source opened when Driver is nil.
	DSN string
	// EnforcePolicies compiles and applies the schema's access rules.
	EnforcePolicies bool
	// Logger receives engine debug output.
	Logger zen.Logger
	// Debug logs every statement (and transaction boundary) before it
	// runs, through Logger when set and slog otherwise.
	Debug bool
	// SlowQueryThreshold wraps the driver with statistics collection;
	// statements slower than the threshold are counted and logged.
	// Takes precedence over Debug, which wraps the same base driver.
	SlowQueryThreshold time.Duration
	// Timeout bounds each top-level operation.
	Timeout time.Duration
	// Computed registers computed-field expression builders:
	// model -> field -> builder.
	Computed map[string]map[string]ops.ComputedField
	// Procedures binds handlers to the schema's declared procedures.
	Procedures map[string]procs.HandlerFunc
}

// Client is the typed data-access surface bound to one schema and one
// connection pool. Clients are immutable: Use, SetAuth, UnuseAll and
// SetInputValidation derive new clients sharing the pool.
type Client struct {
	cfg      Config
	eng      *engine.Engine
	policy   *privacy.Engine
	registry *procs.Registry
	plugins  []*plugin.Plugin
	auth     any
	validate bool
	handler  *ops.Handler
	stats    *sql.StatsDriver
}

// Open creates a client, opening a driver from the DSN when none is
// supplied. Creation is connection-pool open; Disconnect closes it.
func Open(cfg Config) (*Client, error) {
	if cfg.Schema == nil {
		return nil, zen.NewConfigError("client: schema is required", nil)
	}
	drv := cfg.Driver
	if drv == nil {
		if cfg.DSN == "" {
			return nil, zen.NewConfigError("client: either a driver or a DSN is required", nil)
		}
		opened, err := sql.Open(cfg.Schema.Provider.Dialect(), cfg.DSN)
		if err != nil {
			return nil, zen.NewConfigError("client: opening driver", err)
		}
		drv = opened
		cfg.Driver = opened
	}
	c := &Client{cfg: cfg, validate: true}
	drv = c.instrumentDriver(drv)
	eng, err := engine.New(cfg.Schema, drv, engine.Options{Timeout: cfg.Timeout, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}
	c.eng = eng
	if cfg.EnforcePolicies {
		pe, err := privacy.NewEngine(cfg.Schema)
		if err != nil {
			return nil, err
		}
		c.policy = pe
	}
	if len(cfg.Procedures) > 0 {
		reg, err := procs.NewRegistry(eng, cfg.Procedures)
		if err != nil {
			return nil, err
		}
		c.registry = reg
	}
	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

// instrumentDriver wraps the base driver with statistics collection or
// debug logging when configured. Every statement the executor issues
// flows through the wrapper.
func (c *Client) instrumentDriver(drv dialect.Driver) dialect.Driver {
	base, ok := drv.(*sql.Driver)
	if !ok {
		return drv
	}
	switch {
	case c.cfg.SlowQueryThreshold > 0:
		opts := []sql.StatsOption{sql.WithSlowThreshold(c.cfg.SlowQueryThreshold)}
		if logger := c.cfg.Logger; logger != nil {
			opts = append(opts, sql.WithSlowQueryHook(func(_ context.Context, query string, args []any, d time.Duration) {
				logger.Errorf("slow query (%s): %s args: %v", d, query, args)
			}))
		} else {
			opts = append(opts, sql.WithSlowQueryLog())
		}
		c.stats = sql.NewStatsDriver(base, opts...)
		return c.stats
	case c.cfg.Debug:
		if logger := c.cfg.Logger; logger != nil {
			return sql.NewDebugDriver(base, sql.DebugWithLog(func(_ context.Context, v ...any) {
				logger.Debugf("%v", v)
			}))
		}
		return sql.NewDebugDriver(base)
	}
	return drv
}

// QueryStatistics returns a snapshot of the driver statistics. The
// second result is false unless SlowQueryThreshold enabled collection.
func (c *Client) QueryStatistics() (sql.StatsSnapshot, bool) {
	if c.stats == nil {
		return sql.StatsSnapshot{}, false
	}
	return c.stats.QueryStats().Stats(), true
}

// rebuild derives the handler from the client's current plugin list,
// auth projection and validation toggle.
func (c *Client) rebuild() error {
	eng := c.eng
	var nodeICs []engine.NodeInterceptor
	var hooks []*ops.MutationHook
	for _, p := range c.plugins {
		if p.OnNode != nil {
			fn := p.OnNode
			nodeICs = append(nodeICs, engine.NodeInterceptorFunc(func(ctx context.Context, node sql.Querier, next engine.NodeRunner) (any, error) {
				return fn(ctx, node, next)
			}))
		}
		if p.BeforeEntityMutation != nil || p.AfterEntityMutation != nil {
			hooks = append(hooks, &ops.MutationHook{
				Before: p.BeforeEntityMutation,
				After:  p.AfterEntityMutation,
				InTx:   p.RunAfterMutationWithinTransaction,
			})
		}
	}
	if len(nodeICs) > 0 {
		eng = eng.WithInterceptors(nodeICs...)
	}
	h, err := ops.NewHandler(eng, ops.Options{
		Policy:   c.policy,
		Validate: c.validate,
		Auth:     c.auth,
		Computed: c.cfg.Computed,
		Hooks:    hooks,
	})
	if err != nil {
		return err
	}
	c.handler = h
	return nil
}

func (c *Client) derive(mutate func(*Client)) *Client {
	d := *c
	d.plugins = append([]*plugin.Plugin{}, c.plugins...)
	mutate(&d)
	if err := d.rebuild(); err != nil {
		// Derivation only re-wires existing validated parts; a failure
		// here is an invariant violation.
		panic(err)
	}
	return &d
}

// Use returns a new client with the plugin appended to the chain. The
// receiver is unaffected; the plugin registered last runs outermost.
func (c *Client) Use(p *plugin.Plugin) *Client {
	return c.derive(func(d *Client) {
		d.plugins = append(d.plugins, p)
	})
}

// UnuseAll returns a new client with an empty plugin chain.
func (c *Client) UnuseAll() *Client {
	return c.derive(func(d *Client) {
		d.plugins = nil
	})
}

// SetAuth returns a new client carrying the auth projection. The
// projection's lifetime is that derived client.
func (c *Client) SetAuth(auth any) *Client {
	return c.derive(func(d *Client) {
		d.auth = auth
	})
}

// SetInputValidation returns a new client with validation toggled.
func (c *Client) SetInputValidation(on bool) *Client {
	return c.derive(func(d *Client) {
		d.validate = on
	})
}

// Auth returns the client's auth projection, if any.
func (c *Client) Auth() any { return c.auth }

// Schema returns the frozen schema.
func (c *Client) Schema() *schema.Schema { return c.cfg.Schema }

// Connect verifies the pool is usable.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.eng.QueryRaw(ctx, "SELECT 1")
	return err
}

// Disconnect closes the connection pool. Derived clients share it, so
// one Disconnect ends them all.
func (c *Client) Disconnect() error { return c.eng.Close() }

// Transaction runs fn inside one transaction; every operation issued
// with the given ctx joins it. Nested calls collapse to savepoints.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.eng.WithTx(ctx, fn)
}

// QueryRaw executes parameterized SQL and returns the rows. Raw
// queries bypass plugins and policies: the caller sees every row
// regardless of the auth projection.
func (c *Client) QueryRaw(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	return c.eng.QueryRaw(ctx, query, args...)
}

// QueryRawUnsafe executes a pre-formatted SQL string. The caller is
// responsible for escaping; prefer QueryRaw.
func (c *Client) QueryRawUnsafe(ctx context.Context, query string) ([]map[string]any, error) {
	return c.eng.QueryRaw(ctx, query)
}

// ExecRaw executes a parameterized SQL statement and returns the
// affected row count. Bypasses plugins and policies.
func (c *Client) ExecRaw(ctx context.Context, query string, args ...any) (int64, error) {
	return c.eng.ExecRaw(ctx, query, args...)
}

// ExecRawUnsafe executes a pre-formatted SQL statement.
func (c *Client) ExecRawUnsafe(ctx context.Context, query string) (int64, error) {
	return c.eng.ExecRaw(ctx, query)
}

// QB returns the dialect-bound query builder. Nodes built with it run
// through RunNode, inside the low-level plugin chain but outside the
// policy layer.
func (c *Client) QB() *sql.DialectBuilder {
	return sql.Dialect(c.eng.Dialect())
}

// RunNode executes a hand-built query node through the engine.
func (c *Client) RunNode(ctx context.Context, node sql.Querier) (any, error) {
	return c.handler.Engine().RunNode(ctx, node)
}

// Procs returns the procedure registry.
func (c *Client) Procs() *procs.Registry { return c.registry }

// Procedures is an alias for Procs.
func (c *Client) Procedures() *procs.Registry { return c.registry }

// CallProc runs a named procedure through the registry.
func (c *Client) CallProc(ctx context.Context, name string, args ...any) (any, error) {
	if c.registry == nil {
		return nil, zen.NewConfigError(fmt.Sprintf("no procedure handlers registered (calling %q)", name), nil)
	}
	return c.registry.Call(ctx, name, args...)
}

// Handler exposes the operation handler, the integration point for
// adapters built over the client.
func (c *Client) Handler() *ops.Handler { return c.handler }
