package sql

import (
	"fmt"
	"strings"
)

// Predicate is a boolean expression appended to a WHERE, HAVING or JOIN
// ON clause. Predicates compose with And, Or and Not, and are rendered
// lazily at Query time so placeholder numbering stays correct wherever
// the predicate ends up in the final statement.
type Predicate struct {
	Builder
	depth int
	fns   []func(*Builder)
}

// P creates a new predicate, optionally seeded with builder functions.
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Query returns the predicate SQL and its arguments.
func (p *Predicate) Query() (string, []any) {
	if p.Len() > 0 || len(p.args) > 0 {
		p.sb.Reset()
		p.args = nil
	}
	for _, f := range p.fns {
		f(&p.Builder)
	}
	return p.String(), p.args
}

// Append adds a builder function to the predicate.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

func (p *Predicate) clone() *Predicate {
	return &Predicate{fns: append([]func(*Builder){}, p.fns...), depth: p.depth}
}

// And combines the predicates with AND. Composite operands (those built
// by And/Or/Not themselves) are parenthesized.
func And(preds ...*Predicate) *Predicate {
	p := P()
	p.depth = 1
	return p.Append(func(b *Builder) {
		p.mayWrap(preds, b, "AND")
	})
}

// Or combines the predicates with OR.
func Or(preds ...*Predicate) *Predicate {
	p := P()
	p.depth = 1
	return p.Append(func(b *Builder) {
		p.mayWrap(preds, b, "OR")
	})
}

// Not negates the predicate: NOT (p).
func Not(pred *Predicate) *Predicate {
	p := P()
	p.depth = 1
	return p.Append(func(b *Builder) {
		b.WriteString("NOT ")
		b.Nested(func(nb *Builder) {
			nb.Join(pred)
		})
	})
}

func (*Predicate) mayWrap(preds []*Predicate, b *Builder, op string) {
	switch {
	case len(preds) == 1:
		b.Join(preds[0])
		return
	}
	for i, pred := range preds {
		if i > 0 {
			b.Pad().WriteString(op).Pad()
		}
		if pred.depth > 0 {
			b.Wrap(pred)
		} else {
			b.Join(pred)
		}
	}
}

// False appends the FALSE constant, used for policies that deny all
// access to a table.
func False() *Predicate {
	return P(func(b *Builder) {
		b.WriteString("FALSE")
	})
}

// True appends the TRUE constant.
func True() *Predicate {
	return P(func(b *Builder) {
		b.WriteString("TRUE")
	})
}

// EQ returns a column = value predicate. As a special case, comparing
// a column to a boolean constant renders the bare (or negated) column,
// which keeps generated policy predicates readable.
func EQ(col string, value any) *Predicate {
	return P(func(b *Builder) {
		switch value {
		case true:
			b.Ident(col)
		case false:
			b.WriteString("NOT ").Ident(col)
		default:
			b.Ident(col).WriteString(" = ").Arg(value)
		}
	})
}

// NEQ returns a column <> value predicate.
func NEQ(col string, value any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" <> ").Arg(value)
	})
}

// GT returns a column > value predicate.
func GT(col string, value any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" > ").Arg(value)
	})
}

// GTE returns a column >= value predicate.
func GTE(col string, value any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" >= ").Arg(value)
	})
}

// LT returns a column < value predicate.
func LT(col string, value any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" < ").Arg(value)
	})
}

// LTE returns a column <= value predicate.
func LTE(col string, value any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" <= ").Arg(value)
	})
}

// ColumnsEQ compares two columns.
func ColumnsEQ(col1, col2 string) *Predicate { return columnsOp(col1, col2, " = ") }

// ColumnsNEQ compares two columns for inequality.
func ColumnsNEQ(col1, col2 string) *Predicate { return columnsOp(col1, col2, " <> ") }

// ColumnsGT returns a col1 > col2 predicate.
func ColumnsGT(col1, col2 string) *Predicate { return columnsOp(col1, col2, " > ") }

// ColumnsGTE returns a col1 >= col2 predicate.
func ColumnsGTE(col1, col2 string) *Predicate { return columnsOp(col1, col2, " >= ") }

// ColumnsLT returns a col1 < col2 predicate.
func ColumnsLT(col1, col2 string) *Predicate { return columnsOp(col1, col2, " < ") }

// ColumnsLTE returns a col1 <= col2 predicate.
func ColumnsLTE(col1, col2 string) *Predicate { return columnsOp(col1, col2, " <= ") }

func columnsOp(col1, col2, op string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col1).WriteString(op).Ident(col2)
	})
}

// In returns a column IN (...) predicate. A single *Selector argument
// renders as a subquery; an empty value list renders as FALSE.
func In(col string, values ...any) *Predicate {
	return P(func(b *Builder) {
		if len(values) == 1 {
			if q, ok := values[0].(Querier); ok {
				b.Ident(col).WriteString(" IN ").Wrap(q)
				return
			}
		}
		if len(values) == 0 {
			b.WriteString("FALSE")
			return
		}
		b.Ident(col).WriteString(" IN ").Nested(func(nb *Builder) {
			nb.Args(values...)
		})
	})
}

// NotIn returns a column NOT IN (...) predicate. An empty value list
// renders as TRUE.
func NotIn(col string, values ...any) *Predicate {
	return P(func(b *Builder) {
		if len(values) == 1 {
			if q, ok := values[0].(Querier); ok {
				b.Ident(col).WriteString(" NOT IN ").Wrap(q)
				return
			}
		}
		if len(values) == 0 {
			b.WriteString("TRUE")
			return
		}
		b.Ident(col).WriteString(" NOT IN ").Nested(func(nb *Builder) {
			nb.Args(values...)
		})
	})
}

// Exists returns an EXISTS (subquery) predicate.
func Exists(q Querier) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("EXISTS ").Wrap(q)
	})
}

// NotExists returns a NOT EXISTS (subquery) predicate.
func NotExists(q Querier) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT EXISTS ").Wrap(q)
	})
}

// IsNull returns a column IS NULL predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns a column IS NOT NULL predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// IsTrue returns a bare boolean-column predicate.
func IsTrue(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col)
	})
}

// IsFalse returns a negated boolean-column predicate.
func IsFalse(col string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT ").Ident(col)
	})
}

// Like returns a column LIKE pattern predicate.
func Like(col, pattern string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" LIKE ").Arg(pattern)
	})
}

// escapeLike escapes the LIKE wildcard characters in a literal value.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// HasPrefix returns a column LIKE prefix% predicate.
func HasPrefix(col, prefix string) *Predicate { return Like(col, escapeOrKeep(prefix)+"%") }

// HasSuffix returns a column LIKE %suffix predicate.
func HasSuffix(col, suffix string) *Predicate { return Like(col, "%"+escapeOrKeep(suffix)) }

// Contains returns a column LIKE %substr% predicate.
func Contains(col, substr string) *Predicate { return Like(col, "%"+escapeOrKeep(substr)+"%") }

// escapeOrKeep only escapes when the value contains wildcard
// metacharacters, keeping the common case byte-identical to its input.
func escapeOrKeep(s string) string {
	if strings.ContainsAny(s, `%_\`) {
		return escapeLike(s)
	}
	return s
}

// ContainsFold returns a case-insensitive contains predicate.
func ContainsFold(col, substr string) *Predicate { return likeFold(col, "%"+escapeOrKeep(substr)+"%") }

// EqualFold returns a case-insensitive equality predicate.
func EqualFold(col, v string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("LOWER(").Ident(col).WriteString(") = ").Arg(strings.ToLower(v))
	})
}

// HasPrefixFold returns a case-insensitive prefix predicate.
func HasPrefixFold(col, prefix string) *Predicate { return likeFold(col, escapeOrKeep(prefix)+"%") }

// HasSuffixFold returns a case-insensitive suffix predicate.
func HasSuffixFold(col, suffix string) *Predicate { return likeFold(col, "%"+escapeOrKeep(suffix)) }

func likeFold(col, pattern string) *Predicate {
	return P(func(b *Builder) {
		if b.postgres() {
			b.Ident(col).WriteString(" ILIKE ").Arg(pattern)
			return
		}
		b.WriteString("LOWER(").Ident(col).WriteString(") LIKE ").Arg(strings.ToLower(pattern))
	})
}

// CompositeGT returns a row-value (col1, col2, ...) > (v1, v2, ...)
// comparison, used for cursor pagination over a multi-column order.
func CompositeGT(columns []string, args ...any) *Predicate {
	return compositeOp(columns, " > ", args)
}

// CompositeLT returns a row-value (col1, col2, ...) < (v1, v2, ...)
// comparison.
func CompositeLT(columns []string, args ...any) *Predicate {
	return compositeOp(columns, " < ", args)
}

// CompositeGTE returns a row-value >= comparison.
func CompositeGTE(columns []string, args ...any) *Predicate {
	return compositeOp(columns, " >= ", args)
}

// CompositeLTE returns a row-value <= comparison.
func CompositeLTE(columns []string, args ...any) *Predicate {
	return compositeOp(columns, " <= ", args)
}

func compositeOp(columns []string, op string, args []any) *Predicate {
	return P(func(b *Builder) {
		b.Nested(func(nb *Builder) {
			nb.IdentComma(columns...)
		})
		b.WriteString(op)
		b.Nested(func(nb *Builder) {
			nb.Args(args...)
		})
	})
}

// ExprP wraps a raw parameterized expression as a predicate.
func ExprP(expr string, args ...any) *Predicate {
	return P(func(b *Builder) {
		b.Join(Expr(expr, args...))
	})
}

// ColumnCheck verifies that the given identifier is a plain column name
// and safe to interpolate. Used by raw-adjacent surfaces that accept
// user-supplied column names.
func ColumnCheck(name string) error {
	if !isValidIdentifier(name) {
		return fmt.Errorf("sql: invalid column name %q", name)
	}
	return nil
}
