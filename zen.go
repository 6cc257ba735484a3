// Package zen is a schema-driven relational data access engine: a
// typed CRUD surface built over a SQL query-builder substrate, with a
// pluggable query/mutation pipeline and declarative access-policy
// enforcement.
//
// This file defines the small set of interfaces every generated and
// hand-written model accessor is built from: Schema description hooks,
// the Querier/Mutator pipeline, and the Op/QueryContext machinery
// threaded through every operation.
package zen

import (
	"context"
	"slices"
)

// Value is the result of executing a Querier or Mutator. Concrete
// operations return a specific type (a row, a slice of rows, a count);
// Value is the erased form used by the interception pipeline, mirroring
// how the plugin chain in ops/ and engine/ is type-agnostic.
type Value = any

// Interface describes a model's shape and behavior. Every schema
// definition, directly or through the zero-value Schema it embeds,
// implements it.
type Interface interface {
	Fields() []Field
	Edges() []Edge
	Indexes() []Index
	Config() Config
	Mixin() []Mixin
	Hooks() []Hook
	Interceptors() []Interceptor
	Policy() Policy
	Annotations() []Annotation
}

// Field, Edge, Index and Annotation are opaque schema-description
// values; their concrete shape lives in the schema package. They are
// declared here as interfaces so the zen package has no import-cycle
// dependency on schema.
type (
	Field      any
	Edge       any
	Index      any
	Annotation any
)

// Config carries per-schema configuration: table naming and a logger.
type Config struct {
	// Table overrides the default (snake_cased model name) table name.
	Table string
	// Logger is carried with the schema configuration. The engine does
	// not read it; engine debug output goes to the Logger set in
	// client.Config.
	Logger Logger
}

// Logger is the minimal logging seam the engine writes through. No
// implementation is required; a nil Logger is always safe to use.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Mixin composes reusable sets of fields/edges/hooks into a Schema. See
// the mixin package for the built-in time/soft-delete mixins.
type Mixin interface {
	Fields() []Field
	Edges() []Edge
	Indexes() []Index
	Hooks() []Hook
	Interceptors() []Interceptor
	Policy() Policy
	Annotations() []Annotation
}

// Schema is embedded by schema definitions that only need to override a
// handful of Interface's methods; every method returns its zero value
// unless the embedding type shadows it.
type Schema struct{}

// Type is a zero-cost marker method promoted to every embedding schema
// struct. It exists only to be referenced as a method expression (e.g.
// edge.To("posts", Post.Type)), which lets edge.To/edge.From recover the
// related schema's Go type via reflection without needing a Post value.
func (Schema) Type() {}

func (Schema) Fields() []Field             { return nil }
func (Schema) Edges() []Edge               { return nil }
func (Schema) Indexes() []Index            { return nil }
func (Schema) Config() Config              { return Config{} }
func (Schema) Mixin() []Mixin              { return nil }
func (Schema) Hooks() []Hook               { return nil }
func (Schema) Interceptors() []Interceptor { return nil }
func (Schema) Policy() Policy              { return nil }
func (Schema) Annotations() []Annotation   { return nil }

// View marks a Schema as a read-only, non-materialized projection (a
// SQL view or computed model) rather than a concrete table.
type View struct {
	Schema
}

// Viewer is implemented by any Schema embedding View.
type Viewer interface {
	Interface
	isView()
}

func (View) isView() {}

// Mutation is the erased representation of a pending write (create,
// update or delete) passed through Hooks and MutationPolicy rules.
type Mutation interface {
	Op() Op
	Model() string
	SetField(name string, value any) error
	Field(name string) (any, bool)
	Fields() []string
}

// Mutator performs a Mutation and returns the resulting Value.
type Mutator interface {
	Mutate(ctx context.Context, m Mutation) (Value, error)
}

// MutateFunc adapts a function to a Mutator.
type MutateFunc func(ctx context.Context, m Mutation) (Value, error)

// Mutate implements Mutator.
func (f MutateFunc) Mutate(ctx context.Context, m Mutation) (Value, error) { return f(ctx, m) }

// Hook wraps a Mutator, returning a new Mutator that runs additional
// logic before and/or after the wrapped one. Hooks compose in
// registration order, outermost first.
type Hook func(Mutator) Mutator

// Query is the erased representation of a pending read, passed through
// Interceptors and QueryPolicy rules.
type Query interface {
	Op() Op
	Model() string
	WhereP() any
	Limit() *int
	Offset() *int
}

// Querier executes a Query and returns its Value.
type Querier interface {
	Query(ctx context.Context, q Query) (Value, error)
}

// QuerierFunc adapts a function to a Querier.
type QuerierFunc func(ctx context.Context, q Query) (Value, error)

// Query implements Querier.
func (f QuerierFunc) Query(ctx context.Context, q Query) (Value, error) { return f(ctx, q) }

// Interceptor wraps a Querier with additional before/after logic,
// analogous to Hook for mutations.
type Interceptor interface {
	Intercept(Querier) Querier
}

// InterceptFunc adapts a function to an Interceptor.
type InterceptFunc func(Querier) Querier

// Intercept implements Interceptor.
func (f InterceptFunc) Intercept(next Querier) Querier { return f(next) }

// Traverser observes a Query without altering its execution; used for
// read-only side effects (e.g. metrics, audit logging) that should not
// participate in result transformation.
type Traverser interface {
	Traverse(ctx context.Context, q Query) error
}

// TraverseFunc adapts a function to a Traverser. Its Intercept method
// runs the traverse function and then passes the query through to next
// unchanged.
type TraverseFunc func(ctx context.Context, q Query) error

// Traverse implements Traverser.
func (f TraverseFunc) Traverse(ctx context.Context, q Query) error { return f(ctx, q) }

// Intercept implements Interceptor by wrapping next in a Querier that
// runs the traversal first and then defers to next unchanged.
func (f TraverseFunc) Intercept(next Querier) Querier {
	return QuerierFunc(func(ctx context.Context, q Query) (Value, error) {
		if err := f.Traverse(ctx, q); err != nil {
			return nil, err
		}
		return next.Query(ctx, q)
	})
}

// Policy evaluates whether a Query or Mutation is permitted. See the
// policy package for the compiled @@allow/@@deny implementation.
type Policy interface {
	EvalQuery(ctx context.Context, q Query) error
	EvalMutation(ctx context.Context, m Mutation) error
}

// Op identifies the kind of mutation or query being executed. Op values
// are bit flags so a Hook or Policy rule can match a combination (e.g.
// OpUpdate|OpUpdateOne) with a single Is check.
type Op uint

const (
	OpCreate Op = 1 << iota
	OpUpdate
	OpUpdateOne
	OpDelete
	OpDeleteOne
)

const (
	OpQueryFirst Op = 1 << (iota + 16)
	OpQueryFirstID
	OpQueryOnly
	OpQueryOnlyID
	OpQueryAll
	OpQueryIDs
	OpQueryCount
	OpQueryExist
	OpQueryGroupBy
	OpQuerySelect
)

// Is reports whether op has all the bits of check set.
func (op Op) Is(check Op) bool { return op&check == check }

// String returns the Go identifier for op, or "Op(unknown)" for an
// unrecognized or combined value.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "OpCreate"
	case OpUpdate:
		return "OpUpdate"
	case OpUpdateOne:
		return "OpUpdateOne"
	case OpDelete:
		return "OpDelete"
	case OpDeleteOne:
		return "OpDeleteOne"
	case OpQueryFirst:
		return "OpQueryFirst"
	case OpQueryFirstID:
		return "OpQueryFirstID"
	case OpQueryOnly:
		return "OpQueryOnly"
	case OpQueryOnlyID:
		return "OpQueryOnlyID"
	case OpQueryAll:
		return "OpQueryAll"
	case OpQueryIDs:
		return "OpQueryIDs"
	case OpQueryCount:
		return "OpQueryCount"
	case OpQueryExist:
		return "OpQueryExist"
	case OpQueryGroupBy:
		return "OpQueryGroupBy"
	case OpQuerySelect:
		return "OpQuerySelect"
	default:
		return "Op(unknown)"
	}
}

// QueryContext carries the field-selection and pagination state for the
// query currently being planned. It travels on the context.Context so
// that deeply nested relation loaders and policy rules can see (and
// narrow) what the top-level operation asked for.
type QueryContext struct {
	// Fields is the set of column names the caller selected. Nil means
	// "all fields".
	Fields []string
	// Limit is the row cap requested by the caller, if any.
	Limit *int
}

// Clone returns a deep-enough copy of qc: mutating the clone's Fields
// slice or Limit pointer never affects the original.
func (qc *QueryContext) Clone() *QueryContext {
	if qc == nil {
		return nil
	}
	clone := &QueryContext{Fields: slices.Clone(qc.Fields)}
	if qc.Limit != nil {
		limit := *qc.Limit
		clone.Limit = &limit
	}
	return clone
}

// AppendFieldOnce returns a QueryContext with name added to Fields,
// unless it is already present. The receiver is not mutated.
func (qc *QueryContext) AppendFieldOnce(name string) *QueryContext {
	clone := qc.Clone()
	if clone == nil {
		clone = &QueryContext{}
	}
	if slices.Contains(clone.Fields, name) {
		return clone
	}
	clone.Fields = append(clone.Fields, name)
	return clone
}

type queryCtxKey struct{}

// NewQueryContext returns a context carrying qc, retrievable with
// QueryFromContext.
func NewQueryContext(ctx context.Context, qc *QueryContext) context.Context {
	return context.WithValue(ctx, queryCtxKey{}, qc)
}

// QueryFromContext returns the QueryContext stored in ctx, or nil if
// none was set.
func QueryFromContext(ctx context.Context) *QueryContext {
	qc, _ := ctx.Value(queryCtxKey{}).(*QueryContext)
	return qc
}
