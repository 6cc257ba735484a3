package querylanguage

import (
	"database/sql/driver"
	"strconv"
	"time"
)

// Fielder binds a typed predicate builder to a concrete field name,
// producing a P ready for rendering or composition.
type Fielder interface {
	Field(name string) P
}

// TypedP is a predicate builder waiting for a field name. Every typed
// predicate constructor in this package (StringEQ, IntGT, TimeNil, ...)
// returns a TypedP instantiated for its value type.
type TypedP[V any] func(field string) P

// Field implements Fielder.
func (p TypedP[V]) Field(field string) P { return p(field) }

func typedNil[V any]() TypedP[V]    { return func(field string) P { return FieldNil(field) } }
func typedNotNil[V any]() TypedP[V] { return func(field string) P { return FieldNotNil(field) } }

// typedCmp builds a comparison node. The format function is the
// authoring-time witness that V has a canonical rendering; the node
// itself renders (and evaluates) the typed value directly.
func typedCmp[V any](op string, v V, _ func(V) string) TypedP[V] {
	return func(field string) P { return &BinaryExpr{Op: op, X: F(field), Y: Value{v}} }
}

func typedOr[V any](ps ...TypedP[V]) TypedP[V] {
	return func(field string) P {
		terms := make([]P, len(ps))
		for i, p := range ps {
			terms[i] = p(field)
		}
		return &NaryExpr{Op: "||", Xs: terms}
	}
}

func typedAnd[V any](ps ...TypedP[V]) TypedP[V] {
	return func(field string) P {
		terms := make([]P, len(ps))
		for i, p := range ps {
			terms[i] = p(field)
		}
		return &NaryExpr{Op: "&&", Xs: terms}
	}
}

func typedNot[V any](p TypedP[V]) TypedP[V] {
	return func(field string) P { return &UnaryExpr{X: p(field)} }
}

// String

type StringP = TypedP[string]

func fmtString(v string) string { return strconv.Quote(v) }

func StringNil() StringP         { return typedNil[string]() }
func StringNotNil() StringP      { return typedNotNil[string]() }
func StringEQ(v string) StringP  { return typedCmp("==", v, fmtString) }
func StringNEQ(v string) StringP { return typedCmp("!=", v, fmtString) }
func StringGT(v string) StringP  { return typedCmp(">", v, fmtString) }
func StringGTE(v string) StringP { return typedCmp(">=", v, fmtString) }
func StringLT(v string) StringP  { return typedCmp("<", v, fmtString) }
func StringLTE(v string) StringP { return typedCmp("<=", v, fmtString) }
func StringOr(ps ...StringP) StringP  { return typedOr(ps...) }
func StringAnd(ps ...StringP) StringP { return typedAnd(ps...) }
func StringNot(p StringP) StringP     { return typedNot(p) }

// Bool

type BoolP = TypedP[bool]

func fmtBool(v bool) string { return strconv.FormatBool(v) }

func BoolNil() BoolP        { return typedNil[bool]() }
func BoolNotNil() BoolP     { return typedNotNil[bool]() }
func BoolEQ(v bool) BoolP   { return typedCmp("==", v, fmtBool) }
func BoolNEQ(v bool) BoolP  { return typedCmp("!=", v, fmtBool) }
func BoolOr(ps ...BoolP) BoolP  { return typedOr(ps...) }
func BoolAnd(ps ...BoolP) BoolP { return typedAnd(ps...) }
func BoolNot(p BoolP) BoolP     { return typedNot(p) }

// Bytes

type BytesP = TypedP[[]byte]

func fmtBytes(v []byte) string { return formatValue(v) }

func BytesNil() BytesP        { return typedNil[[]byte]() }
func BytesNotNil() BytesP     { return typedNotNil[[]byte]() }
func BytesEQ(v []byte) BytesP { return typedCmp("==", v, fmtBytes) }
func BytesNEQ(v []byte) BytesP { return typedCmp("!=", v, fmtBytes) }
func BytesOr(ps ...BytesP) BytesP  { return typedOr(ps...) }
func BytesAnd(ps ...BytesP) BytesP { return typedAnd(ps...) }
func BytesNot(p BytesP) BytesP     { return typedNot(p) }

// Time

type TimeP = TypedP[time.Time]

func fmtTime(v time.Time) string { return strconv.Quote(v.Format(time.RFC3339)) }

func TimeNil() TimeP         { return typedNil[time.Time]() }
func TimeNotNil() TimeP      { return typedNotNil[time.Time]() }
func TimeEQ(v time.Time) TimeP  { return typedCmp("==", v, fmtTime) }
func TimeNEQ(v time.Time) TimeP { return typedCmp("!=", v, fmtTime) }
func TimeLT(v time.Time) TimeP  { return typedCmp("<", v, fmtTime) }
func TimeLTE(v time.Time) TimeP { return typedCmp("<=", v, fmtTime) }
func TimeGT(v time.Time) TimeP  { return typedCmp(">", v, fmtTime) }
func TimeGTE(v time.Time) TimeP { return typedCmp(">=", v, fmtTime) }
func TimeOr(ps ...TimeP) TimeP  { return typedOr(ps...) }
func TimeAnd(ps ...TimeP) TimeP { return typedAnd(ps...) }
func TimeNot(p TimeP) TimeP     { return typedNot(p) }

// Value / Other - predicates over driver.Valuer or arbitrary values.
// Operands render like any other predicate value: strings, numbers,
// bools, bytes and times by value, and every other type (including any
// driver.Valuer) as the opaque placeholder {}.

type ValueP = TypedP[driver.Valuer]
type OtherP = TypedP[any]

func fmtOpaque[V any](V) string { return "{}" }

func ValueNil() ValueP               { return typedNil[driver.Valuer]() }
func ValueNotNil() ValueP            { return typedNotNil[driver.Valuer]() }
func ValueEQ(v driver.Valuer) ValueP  { return typedCmp("==", v, fmtOpaque[driver.Valuer]) }
func ValueNEQ(v driver.Valuer) ValueP { return typedCmp("!=", v, fmtOpaque[driver.Valuer]) }
func ValueOr(ps ...ValueP) ValueP  { return typedOr(ps...) }
func ValueAnd(ps ...ValueP) ValueP { return typedAnd(ps...) }
func ValueNot(p ValueP) ValueP     { return typedNot(p) }

func OtherNil() OtherP        { return typedNil[any]() }
func OtherNotNil() OtherP     { return typedNotNil[any]() }
func OtherEQ(v any) OtherP    { return typedCmp("==", v, fmtOpaque[any]) }
func OtherNEQ(v any) OtherP   { return typedCmp("!=", v, fmtOpaque[any]) }
func OtherOr(ps ...OtherP) OtherP  { return typedOr(ps...) }
func OtherAnd(ps ...OtherP) OtherP { return typedAnd(ps...) }
func OtherNot(p OtherP) OtherP     { return typedNot(p) }
