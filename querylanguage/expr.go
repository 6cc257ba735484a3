// Package querylanguage implements a small predicate expression
// language used to describe filters and access-policy rules
// independently of any particular SQL dialect.
//
// A P is an immutable expression tree. Expressions compose with And, Or
// and Not, and leaf predicates are built with the Field* constructors or
// the typed builders in types.go. The tree is structural: consumers such
// as the sqlgraph evaluator walk the exported node types (BinaryExpr,
// NaryExpr, UnaryExpr, CallExpr, EdgeExpr) and translate them to SQL,
// while String renders a canonical, human-readable form used for
// debugging, logging and snapshot testing of compiled policies.
package querylanguage

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// P is a predicate expression. Its String form is a canonical,
// human-readable rendering; its concrete type is one of the exported
// node types of this package (or an external wrapper such as
// sqlgraph.WrapFunc).
type P interface {
	String() string
	// Negate returns the logical negation of the expression. Negating
	// an already-negated expression wraps it again rather than
	// cancelling the two negations, matching how policy rules compose
	// ("not allowed" stacks rather than simplifies).
	Negate() P
}

// Expr is an operand of a predicate: a field reference or a value.
type Expr interface {
	String() string
}

// F is a reference to a field name, used for field-to-field comparisons
// such as EQ(F("current"), F("total")).
type F string

// String returns the field name.
func (f F) String() string { return string(f) }

// Value is a literal operand. A nil V renders as "nil" and translates
// to an IS NULL check.
type Value struct {
	V any
}

// String renders the literal in the expression language's syntax.
func (v Value) String() string {
	if v.V == nil {
		return "nil"
	}
	return formatValue(v.V)
}

// Values is a literal list operand, the right-hand side of an "in".
type Values struct {
	Vs []any
}

// String renders the list as [v1,v2,...].
func (v Values) String() string {
	parts := make([]string, len(v.Vs))
	for i, val := range v.Vs {
		parts[i] = formatValue(val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// BinaryExpr is a comparison between a field and a value, a field and a
// field, or a field and a value list ("in"/"not in").
type BinaryExpr struct {
	Op string
	X  Expr
	Y  Expr
}

// String renders "x op y".
func (e *BinaryExpr) String() string { return e.X.String() + " " + e.Op + " " + e.Y.String() }

// Negate wraps the expression in a negation.
func (e *BinaryExpr) Negate() P { return &UnaryExpr{X: e} }

// UnaryExpr is a logical negation.
type UnaryExpr struct {
	X P
}

// String renders "!(x)".
func (e *UnaryExpr) String() string { return "!(" + e.X.String() + ")" }

// Negate wraps the negation in another negation.
func (e *UnaryExpr) Negate() P { return &UnaryExpr{X: e} }

// NaryExpr is a chain of predicates joined by "&&" or "||".
type NaryExpr struct {
	Op string
	Xs []P
}

// String joins the operands; three or more are grouped in one
// parenthesized clause.
func (e *NaryExpr) String() string {
	parts := make([]string, len(e.Xs))
	for i, x := range e.Xs {
		parts[i] = x.String()
	}
	joined := strings.Join(parts, " "+e.Op+" ")
	if len(e.Xs) > 2 {
		return "(" + joined + ")"
	}
	return joined
}

// Negate wraps the chain in a negation.
func (e *NaryExpr) Negate() P { return &UnaryExpr{X: e} }

// Functions usable in CallExpr.
const (
	FuncContains     = "contains"
	FuncContainsFold = "contains_fold"
	FuncHasPrefix    = "has_prefix"
	FuncHasSuffix    = "has_suffix"
	FuncEqualFold    = "equal_fold"
)

// CallExpr is a string-function predicate over a field.
type CallExpr struct {
	Func  string
	Field string
	V     any
}

// String renders "func(field, value)".
func (e *CallExpr) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Func, e.Field, formatValue(e.V))
}

// Negate wraps the call in a negation.
func (e *CallExpr) Negate() P { return &UnaryExpr{X: e} }

// EdgeExpr asserts the named edge is non-empty, optionally constrained
// by filter predicates evaluated against the related rows.
type EdgeExpr struct {
	Edge    string
	Filters []P
}

// String renders "has_edge(name)" or "has_edge(name, filters...)".
func (e *EdgeExpr) String() string {
	if len(e.Filters) == 0 {
		return fmt.Sprintf("has_edge(%s)", e.Edge)
	}
	parts := make([]string, len(e.Filters))
	for i, f := range e.Filters {
		parts[i] = f.String()
	}
	return fmt.Sprintf("has_edge(%s, %s)", e.Edge, strings.Join(parts, ", "))
}

// Negate wraps the edge assertion in a negation.
func (e *EdgeExpr) Negate() P { return &UnaryExpr{X: e} }

// And combines predicates with logical AND. Two operands render without
// surrounding parens; three or more are grouped in one parenthesized
// clause.
func And(ps ...P) P { return &NaryExpr{Op: "&&", Xs: ps} }

// Or combines predicates with logical OR.
func Or(ps ...P) P { return &NaryExpr{Op: "||", Xs: ps} }

// Not negates a predicate.
func Not(p P) P { return p.Negate() }

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case []byte:
		return strconv.Quote(base64.StdEncoding.EncodeToString(val))
	case time.Time:
		return strconv.Quote(val.Format(time.RFC3339))
	default:
		return "{}"
	}
}

// FieldEQ builds "field == value".
func FieldEQ(field string, v any) P { return &BinaryExpr{Op: "==", X: F(field), Y: Value{v}} }

// FieldNEQ builds "field != value".
func FieldNEQ(field string, v any) P { return &BinaryExpr{Op: "!=", X: F(field), Y: Value{v}} }

// FieldGT builds "field > value".
func FieldGT(field string, v any) P { return &BinaryExpr{Op: ">", X: F(field), Y: Value{v}} }

// FieldGTE builds "field >= value".
func FieldGTE(field string, v any) P { return &BinaryExpr{Op: ">=", X: F(field), Y: Value{v}} }

// FieldLT builds "field < value".
func FieldLT(field string, v any) P { return &BinaryExpr{Op: "<", X: F(field), Y: Value{v}} }

// FieldLTE builds "field <= value".
func FieldLTE(field string, v any) P { return &BinaryExpr{Op: "<=", X: F(field), Y: Value{v}} }

// FieldIn builds "field in [v1,v2,...]".
func FieldIn(field string, vs ...any) P {
	return &BinaryExpr{Op: "in", X: F(field), Y: Values{vs}}
}

// FieldNotIn builds "field not in [v1,v2,...]".
func FieldNotIn(field string, vs ...any) P {
	return &BinaryExpr{Op: "not in", X: F(field), Y: Values{vs}}
}

// FieldContains builds "contains(field, value)".
func FieldContains(field string, v any) P {
	return &CallExpr{Func: FuncContains, Field: field, V: v}
}

// FieldContainsFold builds "contains_fold(field, value)".
func FieldContainsFold(field string, v any) P {
	return &CallExpr{Func: FuncContainsFold, Field: field, V: v}
}

// FieldHasPrefix builds "has_prefix(field, value)".
func FieldHasPrefix(field string, v any) P {
	return &CallExpr{Func: FuncHasPrefix, Field: field, V: v}
}

// FieldHasSuffix builds "has_suffix(field, value)".
func FieldHasSuffix(field string, v any) P {
	return &CallExpr{Func: FuncHasSuffix, Field: field, V: v}
}

// FieldEqualFold builds "equal_fold(field, value)".
func FieldEqualFold(field string, v any) P {
	return &CallExpr{Func: FuncEqualFold, Field: field, V: v}
}

// FieldNil builds "field == nil".
func FieldNil(field string) P { return &BinaryExpr{Op: "==", X: F(field), Y: Value{nil}} }

// FieldNotNil builds "field != nil".
func FieldNotNil(field string) P { return &BinaryExpr{Op: "!=", X: F(field), Y: Value{nil}} }

// HasEdge builds "has_edge(name)", asserting the named edge is non-empty.
func HasEdge(name string) P { return &EdgeExpr{Edge: name} }

// HasEdgeWith builds "has_edge(name, predicates...)", asserting the
// named edge has at least one related row satisfying every predicate.
func HasEdgeWith(name string, ps ...P) P { return &EdgeExpr{Edge: name, Filters: ps} }

// EQ compares two fields for equality.
func EQ(l, r F) P { return &BinaryExpr{Op: "==", X: l, Y: r} }

// NEQ compares two fields for inequality.
func NEQ(l, r F) P { return &BinaryExpr{Op: "!=", X: l, Y: r} }

// GT compares two fields.
func GT(l, r F) P { return &BinaryExpr{Op: ">", X: l, Y: r} }

// GTE compares two fields.
func GTE(l, r F) P { return &BinaryExpr{Op: ">=", X: l, Y: r} }

// LT compares two fields.
func LT(l, r F) P { return &BinaryExpr{Op: "<", X: l, Y: r} }

// LTE compares two fields.
func LTE(l, r F) P { return &BinaryExpr{Op: "<=", X: l, Y: r} }
