package sql

import (
	"strconv"

	"github.com/zenstack-dev/zen-go/dialect"
)

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	Builder
	table     string
	schema    string
	columns   []string
	values    [][]any
	defaults  bool
	returning []string
	conflict  *conflict
	ignore    bool
}

type conflict struct {
	columns   []string
	doNothing bool
	update    func(*UpdateSet)
}

// Insert creates a builder for the given table.
func Insert(table string) *InsertBuilder { return &InsertBuilder{table: table} }

// Schema sets the database/schema qualifier of the table.
func (i *InsertBuilder) Schema(name string) *InsertBuilder {
	i.schema = name
	return i
}

// Table returns the table the statement inserts into.
func (i *InsertBuilder) Table() string { return i.table }

// Columns sets the insertion columns.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = columns
	return i
}

// InsertColumns returns the insertion columns.
func (i *InsertBuilder) InsertColumns() []string { return i.columns }

// Values appends one row of values. May be called repeatedly for a
// multi-row insert.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// InsertValues returns the rows appended so far.
func (i *InsertBuilder) InsertValues() [][]any { return i.values }

// SetValues replaces all pending rows. Used by query-node interceptors
// that rewrite insertion values before execution.
func (i *InsertBuilder) SetValues(rows [][]any) *InsertBuilder {
	i.values = rows
	return i
}

// Default marks the statement to insert the table defaults only.
func (i *InsertBuilder) Default() *InsertBuilder {
	i.defaults = true
	return i
}

// Returning adds a RETURNING clause. Supported on Postgres and SQLite.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// ReturningColumns returns the RETURNING clause columns.
func (i *InsertBuilder) ReturningColumns() []string { return i.returning }

// OnConflictDoNothing makes conflicting rows be silently skipped.
// Emitted as ON CONFLICT DO NOTHING on Postgres/SQLite and as INSERT
// IGNORE on MySQL.
func (i *InsertBuilder) OnConflictDoNothing(columns ...string) *InsertBuilder {
	if i.Dialect() == dialect.MySQL {
		i.ignore = true
		return i
	}
	i.conflict = &conflict{columns: columns, doNothing: true}
	return i
}

// OnConflictUpdate turns the statement into an upsert on the given
// conflict columns; fn receives the update-set builder.
func (i *InsertBuilder) OnConflictUpdate(columns []string, fn func(*UpdateSet)) *InsertBuilder {
	i.conflict = &conflict{columns: columns, update: fn}
	return i
}

// UpdateSet describes the SET clause of an upsert conflict action.
type UpdateSet struct {
	b       *Builder
	columns []string
	wrote   bool
}

// Set writes column = value.
func (u *UpdateSet) Set(column string, value any) *UpdateSet {
	u.comma()
	u.b.Ident(column).WriteString(" = ").Arg(value)
	return u
}

// SetExcluded writes column = excluded.column (VALUES(column) on MySQL).
func (u *UpdateSet) SetExcluded(column string) *UpdateSet {
	u.comma()
	u.b.Ident(column).WriteString(" = ")
	if u.b.dialect == dialect.MySQL {
		u.b.WriteString("VALUES(").Ident(column).WriteString(")")
	} else {
		u.b.WriteString("excluded.").Ident(column)
	}
	return u
}

// Columns returns the insert columns, letting conflict actions mirror
// the inserted values.
func (u *UpdateSet) Columns() []string { return u.columns }

func (u *UpdateSet) comma() {
	if u.wrote {
		u.b.Comma()
	}
	u.wrote = true
}

// Query generates the INSERT statement and its arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect, total: i.total}
	b.WriteString("INSERT ")
	if i.ignore {
		b.WriteString("IGNORE ")
	}
	b.WriteString("INTO ")
	i.writeTable(b)
	if i.defaults && len(i.columns) == 0 {
		i.writeDefault(b)
	} else {
		b.WriteByte(' ')
		b.Nested(func(nb *Builder) {
			nb.IdentComma(i.columns...)
		})
		b.WriteString(" VALUES ")
		for j, v := range i.values {
			if j > 0 {
				b.Comma()
			}
			b.Nested(func(nb *Builder) {
				nb.Args(v...)
			})
		}
	}
	if i.conflict != nil {
		i.writeConflict(b)
	}
	joinReturning(b, i.returning)
	i.total = b.total
	return b.String(), b.args
}

func (i *InsertBuilder) writeTable(b *Builder) {
	if i.schema != "" {
		b.WriteString(b.Quote(i.schema)).WriteByte('.')
	}
	b.Ident(i.table)
}

func (i *InsertBuilder) writeDefault(b *Builder) {
	switch i.Dialect() {
	case dialect.MySQL:
		b.WriteString(" VALUES ()")
	default:
		b.WriteString(" DEFAULT VALUES")
	}
}

func (i *InsertBuilder) writeConflict(b *Builder) {
	b.WriteString(" ON CONFLICT")
	if len(i.conflict.columns) > 0 {
		b.WriteByte(' ')
		b.Nested(func(nb *Builder) {
			nb.IdentComma(i.conflict.columns...)
		})
	}
	switch {
	case i.conflict.doNothing:
		b.WriteString(" DO NOTHING")
	case i.conflict.update != nil:
		b.WriteString(" DO UPDATE SET ")
		i.conflict.update(&UpdateSet{b: b, columns: i.columns})
	}
}

func joinReturning(b *Builder, columns []string) {
	if len(columns) == 0 || b.dialect == dialect.MySQL {
		return
	}
	b.WriteString(" RETURNING ")
	b.IdentComma(columns...)
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	Builder
	table     string
	schema    string
	columns   []string
	values    []any
	nulls     []string
	where     *Predicate
	order     []string
	limit     *int
	returning []string
	prefix    Queries
}

// Update creates a builder for the given table.
func Update(table string) *UpdateBuilder { return &UpdateBuilder{table: table} }

// Schema sets the database/schema qualifier of the table.
func (u *UpdateBuilder) Schema(name string) *UpdateBuilder {
	u.schema = name
	return u
}

// Table returns the table the statement updates.
func (u *UpdateBuilder) Table() string { return u.table }

// Set assigns value to the given column.
func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, value)
	return u
}

// SetNull assigns NULL to the given column.
func (u *UpdateBuilder) SetNull(column string) *UpdateBuilder {
	u.nulls = append(u.nulls, column)
	return u
}

// SetColumns returns the assigned columns, in order.
func (u *UpdateBuilder) SetColumns() []string { return u.columns }

// SetValues returns the assigned values, aligned with SetColumns.
func (u *UpdateBuilder) SetValues() []any { return u.values }

// Where appends the predicate, AND-ed with the existing one.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if p == nil {
		return u
	}
	if u.where == nil {
		u.where = p
	} else {
		u.where = And(u.where, p)
	}
	return u
}

// P returns the WHERE predicate of the statement.
func (u *UpdateBuilder) P() *Predicate { return u.where }

// OrderBy appends order terms; honored on MySQL only, where UPDATE
// supports ordering.
func (u *UpdateBuilder) OrderBy(columns ...string) *UpdateBuilder {
	u.order = append(u.order, columns...)
	return u
}

// Limit caps the number of updated rows; honored on MySQL only.
func (u *UpdateBuilder) Limit(n int) *UpdateBuilder {
	u.limit = &n
	return u
}

// Returning adds a RETURNING clause. Supported on Postgres and SQLite.
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	u.returning = columns
	return u
}

// ReturningColumns returns the RETURNING clause columns.
func (u *UpdateBuilder) ReturningColumns() []string { return u.returning }

// Prefix prepends queriers to the statement.
func (u *UpdateBuilder) Prefix(qs ...Querier) *UpdateBuilder {
	u.prefix = append(u.prefix, qs...)
	return u
}

// Empty reports whether the statement assigns no columns.
func (u *UpdateBuilder) Empty() bool { return len(u.columns) == 0 && len(u.nulls) == 0 }

// Query generates the UPDATE statement and its arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect, total: u.total}
	if len(u.prefix) > 0 {
		b.join(u.prefix, " ")
		b.Pad()
	}
	b.WriteString("UPDATE ")
	if u.schema != "" {
		b.WriteString(b.Quote(u.schema)).WriteByte('.')
	}
	b.Ident(u.table).WriteString(" SET ")
	for i, c := range u.nulls {
		if i > 0 {
			b.Comma()
		}
		b.Ident(c).WriteString(" = NULL")
	}
	if len(u.nulls) > 0 && len(u.columns) > 0 {
		b.Comma()
	}
	for i, c := range u.columns {
		if i > 0 {
			b.Comma()
		}
		b.Ident(c).WriteString(" = ")
		b.Arg(u.values[i])
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		b.Join(u.where)
	}
	if len(u.order) > 0 && u.dialect == dialect.MySQL {
		b.WriteString(" ORDER BY ")
		for i, c := range u.order {
			if i > 0 {
				b.Comma()
			}
			writeOrderTerm(b, c)
		}
	}
	if u.limit != nil && u.dialect == dialect.MySQL {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*u.limit))
	}
	joinReturning(b, u.returning)
	u.total = b.total
	return b.String(), b.args
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	Builder
	table  string
	schema string
	where  *Predicate
	order  []string
	limit  *int
}

// Delete creates a builder for the given table.
func Delete(table string) *DeleteBuilder { return &DeleteBuilder{table: table} }

// Schema sets the database/schema qualifier of the table.
func (d *DeleteBuilder) Schema(name string) *DeleteBuilder {
	d.schema = name
	return d
}

// Table returns the table the statement deletes from.
func (d *DeleteBuilder) Table() string { return d.table }

// Where appends the predicate, AND-ed with the existing one.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p == nil {
		return d
	}
	if d.where == nil {
		d.where = p
	} else {
		d.where = And(d.where, p)
	}
	return d
}

// P returns the WHERE predicate of the statement.
func (d *DeleteBuilder) P() *Predicate { return d.where }

// OrderBy appends order terms; honored on MySQL only.
func (d *DeleteBuilder) OrderBy(columns ...string) *DeleteBuilder {
	d.order = append(d.order, columns...)
	return d
}

// Limit caps the number of deleted rows; honored on MySQL only.
func (d *DeleteBuilder) Limit(n int) *DeleteBuilder {
	d.limit = &n
	return d
}

// Query generates the DELETE statement and its arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect, total: d.total}
	b.WriteString("DELETE FROM ")
	if d.schema != "" {
		b.WriteString(b.Quote(d.schema)).WriteByte('.')
	}
	b.Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		b.Join(d.where)
	}
	if len(d.order) > 0 && d.dialect == dialect.MySQL {
		b.WriteString(" ORDER BY ")
		for i, c := range d.order {
			if i > 0 {
				b.Comma()
			}
			writeOrderTerm(b, c)
		}
	}
	if d.limit != nil && d.dialect == dialect.MySQL {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*d.limit))
	}
	d.total = b.total
	return b.String(), b.args
}
