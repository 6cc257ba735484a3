package sql

import (
	"strconv"
	"strings"
)

// Selector builds a SELECT statement.
type Selector struct {
	Builder
	as       string
	columns  []string
	exprs    []Querier
	from     []TableView
	joins    []join
	where    *Predicate
	not      bool
	order    []any
	group    []string
	having   *Predicate
	limit    *int
	offset   *int
	distinct bool
	union    []unionView
	prefix   Queries
	aliasSeq int
}

type join struct {
	kind  string
	table TableView
	on    *Predicate
}

type unionView struct {
	all bool
	q   Querier
}

// Select returns a new selector for the given columns. No columns means
// SELECT *.
func Select(columns ...string) *Selector {
	return (&Selector{}).Select(columns...)
}

// SelectExpr returns a new selector for the given expressions.
func SelectExpr(exprs ...Querier) *Selector {
	return (&Selector{}).SelectExpr(exprs...)
}

// Select replaces the selected columns.
func (s *Selector) Select(columns ...string) *Selector {
	s.columns = columns
	return s
}

// AppendSelect appends additional columns to the selection.
func (s *Selector) AppendSelect(columns ...string) *Selector {
	s.columns = append(s.columns, columns...)
	return s
}

// SelectExpr replaces the selection with raw expressions.
func (s *Selector) SelectExpr(exprs ...Querier) *Selector {
	s.exprs = exprs
	return s
}

// AppendSelectExpr appends raw expressions to the selection.
func (s *Selector) AppendSelectExpr(exprs ...Querier) *Selector {
	s.exprs = append(s.exprs, exprs...)
	return s
}

// SelectedColumns returns the currently selected columns.
func (s *Selector) SelectedColumns() []string { return s.columns }

// From sets the source of the query.
func (s *Selector) From(t TableView) *Selector {
	s.from = []TableView{t}
	if st, ok := t.(state); ok {
		st.SetDialect(s.dialect)
	}
	return s
}

// AppendFrom appends an additional comma-separated source.
func (s *Selector) AppendFrom(t TableView) *Selector {
	s.from = append(s.from, t)
	if st, ok := t.(state); ok {
		st.SetDialect(s.dialect)
	}
	return s
}

// FromSelect wraps the given selector as the FROM source of a new one.
func FromSelect(s2 *Selector) *Selector {
	s := Select()
	s.SetDialect(s2.dialect)
	return s.From(s2)
}

// TableViews returns the FROM sources of the selector, base table first.
func (s *Selector) TableViews() []TableView { return s.from }

// Table returns the first FROM source as a *SelectTable, or nil when
// the selector reads from a sub-select.
func (s *Selector) Table() *SelectTable {
	if len(s.from) == 0 {
		return nil
	}
	t, _ := s.from[0].(*SelectTable)
	return t
}

// TableName returns the physical name of the base table, if any.
func (s *Selector) TableName() string {
	if t := s.Table(); t != nil {
		return t.Name()
	}
	return ""
}

// As gives the selector an alias, used when it appears as a sub-select.
func (s *Selector) As(alias string) *Selector {
	s.as = alias
	return s
}

// Alias returns the selector alias, if set.
func (s *Selector) Alias() string { return s.as }

// C returns the given column qualified by the selector's table (or its
// alias) and quoted for the dialect.
func (s *Selector) C(column string) string {
	if s.as != "" {
		b := &Builder{dialect: s.dialect}
		return b.Quote(s.as) + "." + b.Quote(column)
	}
	if t := s.Table(); t != nil {
		t.SetDialect(s.dialect)
		return t.C(column)
	}
	b := &Builder{dialect: s.dialect}
	return b.Quote(column)
}

// Columns returns a list of columns qualified via C.
func (s *Selector) Columns(columns ...string) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, s.C(c))
	}
	return names
}

// NextAlias allocates the next unique table alias for joins added to
// this selector ("t1", "t2", ...).
func (s *Selector) NextAlias() string {
	s.aliasSeq++
	return "t" + strconv.Itoa(s.aliasSeq)
}

// Where appends the predicate to the WHERE clause, AND-ed with the
// existing one.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.not {
		p = Not(p)
		s.not = false
	}
	if s.where == nil {
		s.where = p
	} else {
		s.where = And(s.where, p)
	}
	return s
}

// P returns the WHERE predicate of the selector.
func (s *Selector) P() *Predicate { return s.where }

// SetP replaces the WHERE predicate of the selector.
func (s *Selector) SetP(p *Predicate) *Selector {
	s.where = p
	return s
}

// Not negates the next predicate passed to Where.
func (s *Selector) Not() *Selector {
	s.not = true
	return s
}

// Join adds an INNER JOIN to the statement.
func (s *Selector) Join(t TableView) *Selector { return s.join("JOIN", t) }

// LeftJoin adds a LEFT JOIN to the statement.
func (s *Selector) LeftJoin(t TableView) *Selector { return s.join("LEFT JOIN", t) }

// RightJoin adds a RIGHT JOIN to the statement.
func (s *Selector) RightJoin(t TableView) *Selector { return s.join("RIGHT JOIN", t) }

func (s *Selector) join(kind string, t TableView) *Selector {
	if st, ok := t.(state); ok {
		st.SetDialect(s.dialect)
	}
	s.joins = append(s.joins, join{kind: kind, table: t})
	return s
}

// Joins returns the joined table views.
func (s *Selector) Joins() []TableView {
	ts := make([]TableView, len(s.joins))
	for i := range s.joins {
		ts[i] = s.joins[i].table
	}
	return ts
}

// On sets the join condition of the lastly added join to col1 = col2.
func (s *Selector) On(col1, col2 string) *Selector {
	return s.OnP(ColumnsEQ(col1, col2))
}

// OnP sets (or ANDs into) the join condition of the lastly added join.
func (s *Selector) OnP(p *Predicate) *Selector {
	if len(s.joins) == 0 {
		s.AddError(errNoJoin)
		return s
	}
	j := &s.joins[len(s.joins)-1]
	if j.on == nil {
		j.on = p
	} else {
		j.on = And(j.on, p)
	}
	return s
}

// Distinct marks the selection as DISTINCT.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// IsDistinct reports whether the selection is DISTINCT.
func (s *Selector) IsDistinct() bool { return s.distinct }

// Limit caps the number of returned rows.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset skips the first n rows.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// OrderBy appends order terms. A term is either a column name (with an
// optional " DESC"/" ASC" suffix) or a Querier expression.
func (s *Selector) OrderBy(terms ...string) *Selector {
	for _, t := range terms {
		s.order = append(s.order, t)
	}
	return s
}

// OrderExpr appends raw order expressions.
func (s *Selector) OrderExpr(exprs ...Querier) *Selector {
	for _, e := range exprs {
		s.order = append(s.order, e)
	}
	return s
}

// OrderColumns returns the string order terms, in order.
func (s *Selector) OrderColumns() []string {
	cols := make([]string, 0, len(s.order))
	for _, o := range s.order {
		if c, ok := o.(string); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// ClearOrder drops all order terms.
func (s *Selector) ClearOrder() *Selector {
	s.order = nil
	return s
}

// GroupBy appends grouping columns.
func (s *Selector) GroupBy(columns ...string) *Selector {
	s.group = append(s.group, columns...)
	return s
}

// Having sets (or ANDs into) the HAVING predicate.
func (s *Selector) Having(p *Predicate) *Selector {
	if s.having == nil {
		s.having = p
	} else {
		s.having = And(s.having, p)
	}
	return s
}

// Union appends a UNION term.
func (s *Selector) Union(q Querier) *Selector {
	s.union = append(s.union, unionView{q: q})
	return s
}

// UnionAll appends a UNION ALL term.
func (s *Selector) UnionAll(q Querier) *Selector {
	s.union = append(s.union, unionView{all: true, q: q})
	return s
}

// Prefix prepends queriers to the statement (e.g. a WITH clause).
func (s *Selector) Prefix(qs ...Querier) *Selector {
	s.prefix = append(s.prefix, qs...)
	return s
}

// Clone returns a duplicate of the selector sharing predicate values
// but owning its own clause slices.
func (s *Selector) Clone() *Selector {
	if s == nil {
		return nil
	}
	c := &Selector{
		as:       s.as,
		distinct: s.distinct,
		not:      s.not,
		columns:  append([]string{}, s.columns...),
		exprs:    append([]Querier{}, s.exprs...),
		from:     append([]TableView{}, s.from...),
		joins:    append([]join{}, s.joins...),
		order:    append([]any{}, s.order...),
		group:    append([]string{}, s.group...),
		union:    append([]unionView{}, s.union...),
		prefix:   append(Queries{}, s.prefix...),
		aliasSeq: s.aliasSeq,
	}
	c.dialect = s.dialect
	if s.where != nil {
		c.where = s.where.clone()
	}
	if s.having != nil {
		c.having = s.having.clone()
	}
	if s.limit != nil {
		v := *s.limit
		c.limit = &v
	}
	if s.offset != nil {
		v := *s.offset
		c.offset = &v
	}
	return c
}

func (*Selector) view() {}

// Query generates the SELECT statement and its arguments.
func (s *Selector) Query() (string, []any) {
	b := s.Builder.clone()
	b.sb.Reset()
	b.args = nil
	if len(s.prefix) > 0 {
		b.join(s.prefix, " ")
		b.Pad()
	}
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	s.joinSelection(&b)
	if len(s.from) > 0 {
		b.WriteString(" FROM ")
	}
	for i, t := range s.from {
		if i > 0 {
			b.Comma()
		}
		s.joinTableView(&b, t)
	}
	for _, j := range s.joins {
		b.Pad().WriteString(j.kind).Pad()
		s.joinTableView(&b, j.table)
		if j.on != nil {
			b.WriteString(" ON ")
			b.Join(j.on)
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		b.Join(s.where)
	}
	if len(s.group) > 0 {
		b.WriteString(" GROUP BY ")
		b.IdentComma(s.group...)
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		b.Join(s.having)
	}
	for _, u := range s.union {
		b.WriteString(" UNION ")
		if u.all {
			b.WriteString("ALL ")
		}
		if st, ok := u.q.(state); ok {
			st.SetDialect(b.dialect)
		}
		b.Join(u.q)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range s.order {
			if i > 0 {
				b.Comma()
			}
			switch t := o.(type) {
			case string:
				writeOrderTerm(&b, t)
			case Querier:
				b.Join(t)
			}
		}
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset))
	}
	s.total = b.total
	s.errs = b.errs
	return b.String(), b.args
}

func (s *Selector) joinSelection(b *Builder) {
	switch {
	case len(s.columns) == 0 && len(s.exprs) == 0:
		b.WriteString("*")
	default:
		for i, c := range s.columns {
			if i > 0 {
				b.Comma()
			}
			writeSelectTerm(b, c)
		}
		for i, e := range s.exprs {
			if i > 0 || len(s.columns) > 0 {
				b.Comma()
			}
			b.Join(e)
		}
	}
}

func (s *Selector) joinTableView(b *Builder, t TableView) {
	switch view := t.(type) {
	case *SelectTable:
		view.SetDialect(b.dialect)
		b.WriteString(view.ref())
	case *Selector:
		b.Wrap(view)
		if view.as != "" {
			b.WriteString(" AS ").WriteString(b.Quote(view.as))
		}
	case *queryView:
		b.Join(view.Querier)
	}
}

// writeSelectTerm writes a single selection term, quoting bare column
// names and passing qualified names, functions and aliases through.
func writeSelectTerm(b *Builder, term string) {
	if i := strings.Index(term, " AS "); i > 0 {
		alias := term[i+4:]
		if !strings.ContainsAny(alias, `"`+"` ") {
			b.Ident(term[:i]).WriteString(" AS ").WriteString(b.Quote(alias))
			return
		}
	}
	b.Ident(term)
}

// writeOrderTerm writes a single ORDER BY term, splitting off a
// trailing direction modifier before quoting.
func writeOrderTerm(b *Builder, term string) {
	for _, suffix := range [...]string{" DESC", " ASC"} {
		if t, ok := strings.CutSuffix(term, suffix); ok {
			b.Ident(t).WriteString(suffix)
			return
		}
	}
	b.Ident(term)
}

var errNoJoin = errStr("sql: OnP called without a join")

type errStr string

func (e errStr) Error() string { return string(e) }

// Order direction markers accepted by OrderBy terms.
const (
	OrderAsc  = " ASC"
	OrderDesc = " DESC"
)

// Asc returns the column with an ascending order suffix.
func Asc(column string) string { return column + OrderAsc }

// Desc returns the column with a descending order suffix.
func Desc(column string) string { return column + OrderDesc }

// As returns an aliased form of the given expression or column.
func As(expr, alias string) string { return expr + " AS " + alias }

// Count returns a COUNT aggregation over the given column.
func Count(column string) string { return "COUNT(" + column + ")" }

// Sum returns a SUM aggregation over the given column.
func Sum(column string) string { return "SUM(" + column + ")" }

// Avg returns an AVG aggregation over the given column.
func Avg(column string) string { return "AVG(" + column + ")" }

// Min returns a MIN aggregation over the given column.
func Min(column string) string { return "MIN(" + column + ")" }

// Max returns a MAX aggregation over the given column.
func Max(column string) string { return "MAX(" + column + ")" }

// CountDistinct returns a COUNT(DISTINCT column) aggregation.
func CountDistinct(column string) string { return "COUNT(DISTINCT " + column + ")" }
