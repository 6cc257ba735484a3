package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zenstack-dev/zen-go/dialect"
)

// Querier wraps the Query method. Every statement builder in this
// package implements it; Query returns the SQL string together with its
// bound arguments.
type Querier interface {
	Query() (string, []any)
}

// state threads dialect and placeholder-numbering information between a
// parent builder and the sub-builders it joins (subqueries, predicates).
type state interface {
	Dialect() string
	SetDialect(string)
	Total() int
	SetTotal(int)
}

// Builder is the base query builder all statement builders embed. It
// accumulates the SQL text, the bound arguments and the running
// placeholder counter used by the Postgres dialect.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
	total   int
	errs    []error
	qualifier string
}

// Quote quotes the given identifier with the dialect's quote character.
func (b *Builder) Quote(ident string) string {
	quote := `"`
	if b.dialect == dialect.MySQL {
		quote = "`"
	}
	return quote + ident + quote
}

// Ident appends the given string as an identifier, quoting it unless it
// is already quoted, qualified, the wildcard, or a function call.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case len(s) == 0:
	case s != "*" && !b.isIdent(s) && !isFunc(s) && !isModifier(s):
		if b.qualifier != "" {
			b.WriteString(b.Quote(b.qualifier)).WriteByte('.')
		}
		b.WriteString(b.Quote(s))
	default:
		b.WriteString(s)
	}
	return b
}

// IdentComma appends the given identifiers comma-separated.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s[i])
	}
	return b
}

func (b *Builder) isIdent(s string) bool {
	switch {
	case b.dialect == dialect.MySQL:
		return strings.Contains(s, "`")
	default:
		return strings.Contains(s, `"`)
	}
}

func isFunc(s string) bool     { return strings.Contains(s, "(") && strings.Contains(s, ")") }
func isModifier(s string) bool {
	for _, m := range [...]string{"DISTINCT", "ALL", "WITH ROLLUP"} {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

// String returns the accumulated SQL text.
func (b *Builder) String() string { return b.sb.String() }

// WriteString appends s to the query buffer.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends c to the query buffer.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Len returns the number of accumulated bytes.
func (b *Builder) Len() int { return b.sb.Len() }

// Comma appends ", ".
func (b *Builder) Comma() *Builder { return b.WriteString(", ") }

// Pad appends a single space.
func (b *Builder) Pad() *Builder { return b.WriteByte(' ') }

// AddError records an error to be surfaced by the statement's executor.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the composed error of all builder failures, if any.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	br := strings.Builder{}
	for i, err := range b.errs {
		if i > 0 {
			br.WriteString("; ")
		}
		br.WriteString(err.Error())
	}
	return fmt.Errorf("%s", br.String())
}

// Arg appends an argument placeholder to the query and records its value.
func (b *Builder) Arg(a any) *Builder {
	switch v := a.(type) {
	case nil:
		return b.WriteString("NULL")
	case *raw:
		return b.WriteString(v.s)
	case Querier:
		return b.Nested(func(nb *Builder) { nb.Join(v) })
	}
	b.total++
	b.args = append(b.args, a)
	if b.postgres() {
		b.WriteString("$" + strconv.Itoa(b.total))
	} else {
		b.WriteByte('?')
	}
	return b
}

// Args appends a comma-separated list of argument placeholders.
func (b *Builder) Args(a ...any) *Builder {
	for i := range a {
		if i > 0 {
			b.Comma()
		}
		b.Arg(a[i])
	}
	return b
}

// Nested runs f inside parentheses.
func (b *Builder) Nested(f func(*Builder)) *Builder {
	nb := &Builder{dialect: b.dialect, total: b.total}
	nb.WriteByte('(')
	f(nb)
	nb.WriteByte(')')
	b.WriteString(nb.String())
	b.args = append(b.args, nb.args...)
	b.total = nb.total
	return b
}

// Wrap is like Nested but accepts a Querier.
func (b *Builder) Wrap(q Querier) *Builder {
	return b.Nested(func(nb *Builder) { nb.Join(q) })
}

// Join appends the given queriers to the builder, propagating dialect
// and placeholder numbering into them.
func (b *Builder) Join(qs ...Querier) *Builder { return b.join(qs, "") }

// JoinComma appends the queriers comma-separated.
func (b *Builder) JoinComma(qs ...Querier) *Builder { return b.join(qs, ", ") }

func (b *Builder) join(qs []Querier, sep string) *Builder {
	for i, q := range qs {
		if i > 0 {
			b.WriteString(sep)
		}
		if st, ok := q.(state); ok {
			st.SetDialect(b.dialect)
			st.SetTotal(b.total)
		}
		query, args := q.Query()
		b.WriteString(query)
		b.args = append(b.args, args...)
		b.total += len(args)
	}
	return b
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// SetDialect sets the builder dialect.
func (b *Builder) SetDialect(d string) { b.dialect = d }

// Total returns the total number of arguments so far.
func (b *Builder) Total() int { return b.total }

// SetTotal sets the placeholder counter base, used when a parent
// builder splices this one into a larger statement.
func (b *Builder) SetTotal(total int) { b.total = total }

func (b *Builder) postgres() bool { return b.dialect == dialect.Postgres }

func (b *Builder) clone() Builder {
	c := Builder{dialect: b.dialect, total: b.total, qualifier: b.qualifier}
	if len(b.args) > 0 {
		c.args = append(c.args, b.args...)
	}
	c.sb.WriteString(b.sb.String())
	return c
}

// DialectBuilder prefixes all root builders with the given dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a DialectBuilder for the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select starts a SELECT statement builder.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	s := Select(columns...)
	s.SetDialect(d.dialect)
	return s
}

// Table creates a SelectTable for the dialect.
func (d *DialectBuilder) Table(name string) *SelectTable {
	t := Table(name)
	t.SetDialect(d.dialect)
	return t
}

// Insert starts an INSERT statement builder.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	i := Insert(table)
	i.SetDialect(d.dialect)
	return i
}

// Update starts an UPDATE statement builder.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	u := Update(table)
	u.SetDialect(d.dialect)
	return u
}

// Delete starts a DELETE statement builder.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	dl := Delete(table)
	dl.SetDialect(d.dialect)
	return dl
}

// TableView is a source a Selector reads FROM: a table, a sub-select or
// a raw fragment.
type TableView interface {
	view()
	// C returns the qualified and quoted form of the given column.
	C(string) string
}

// SelectTable is a table reference with an optional alias and schema
// qualifier.
type SelectTable struct {
	Builder
	as     string
	name   string
	schema string
	quote  bool
}

// Table returns a new table reference. The name is quoted on emission.
func Table(name string) *SelectTable {
	return &SelectTable{name: name, quote: true}
}

// As sets the table alias.
func (s *SelectTable) As(alias string) *SelectTable {
	s.as = alias
	return s
}

// Schema sets the database/schema qualifier of the table, emitted as
// "schema"."table" on dialects with schema support.
func (s *SelectTable) Schema(name string) *SelectTable {
	s.schema = name
	return s
}

// C returns the column name qualified by the table alias (or name) and
// quoted for the dialect.
func (s *SelectTable) C(column string) string {
	name := s.name
	if s.as != "" {
		name = s.as
	}
	b := &Builder{dialect: s.dialect}
	if s.quote {
		return b.Quote(name) + "." + b.Quote(column)
	}
	return name + "." + column
}

// Columns returns a list of qualified column names.
func (s *SelectTable) Columns(columns ...string) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, s.C(c))
	}
	return names
}

// Unquote disables quoting of the table name, for references that are
// already formatted (e.g. expressions).
func (s *SelectTable) Unquote() *SelectTable {
	s.quote = false
	return s
}

// Name returns the table name.
func (s *SelectTable) Name() string { return s.name }

// SchemaName returns the schema qualifier, if any.
func (s *SelectTable) SchemaName() string { return s.schema }

func (s *SelectTable) ref() string {
	b := &Builder{dialect: s.dialect}
	switch {
	case !s.quote:
		b.WriteString(s.name)
	case s.schema != "":
		b.WriteString(b.Quote(s.schema)).WriteByte('.').WriteString(b.Quote(s.name))
	default:
		b.WriteString(b.Quote(s.name))
	}
	if s.as != "" {
		b.WriteString(" AS ").WriteString(b.Quote(s.as))
	}
	return b.String()
}

func (*SelectTable) view() {}

// queryView wraps a Querier (raw fragment) as a TableView.
type queryView struct{ Querier }

func (*queryView) view() {}

func (q *queryView) C(column string) string { return column }

// Raw returns a raw SQL fragment usable as an argument value or an
// expression (no quoting, no placeholders).
func Raw(s string) Querier { return &raw{s} }

type raw struct{ s string }

func (r *raw) Query() (string, []any) { return r.s, nil }

// Expr returns a parameterized SQL expression.
func Expr(s string, args ...any) Querier { return &expr{s: s, args: args} }

type expr struct {
	s    string
	args []any
}

func (e *expr) Query() (string, []any) { return e.s, e.args }

// ExprFunc returns an expression that is built at emission time with
// access to the enclosing builder (dialect, placeholder numbering).
func ExprFunc(fn func(*Builder)) Querier { return &exprFunc{fn: fn} }

type exprFunc struct {
	Builder
	fn func(*Builder)
}

func (e *exprFunc) Query() (string, []any) {
	b := &Builder{dialect: e.dialect, total: e.total}
	e.fn(b)
	return b.String(), b.args
}

// Queries are a list of queries concatenated with a space.
type Queries []Querier

// Query returns the concatenated query and its arguments.
func (n Queries) Query() (string, []any) {
	b := &Builder{}
	for i := range n {
		if i > 0 {
			b.Pad()
		}
		query, args := n[i].Query()
		b.WriteString(query)
		b.args = append(b.args, args...)
	}
	return b.String(), b.args
}
