package schema

// Expr is a policy or validation expression: a boolean (or scalar)
// expression over the fields of a row, the auth projection, relation
// traversals and the pre-image of an update. Expressions are built
// with the constructor functions below and compiled to SQL by the
// policy engine.
type Expr interface {
	expr()
}

// FieldRef references a scalar field of the current row.
type FieldRef struct {
	Name string
}

// AuthRef projects the current auth context. An empty Path references
// the projection itself (nil when unauthenticated).
type AuthRef struct {
	Path []string
}

// ThisRef references the current row as a whole, for identity
// comparisons such as auth() == this.
type ThisRef struct{}

// BeforeRef references a field of the row's pre-image inside a
// post-update rule. An empty Name references the pre-image row itself.
type BeforeRef struct {
	Name string
}

// Lit is a literal value.
type Lit struct {
	V any
}

// BinOp is a binary operator.
type BinOp string

// Binary operators.
const (
	OpEQ  BinOp = "=="
	OpNE  BinOp = "!="
	OpGT  BinOp = ">"
	OpGE  BinOp = ">="
	OpLT  BinOp = "<"
	OpLE  BinOp = "<="
	OpIn  BinOp = "in"
	OpAnd BinOp = "&&"
	OpOr  BinOp = "||"
)

// Binary is a binary expression.
type Binary struct {
	Op BinOp
	L  Expr
	R  Expr
}

// NotExpr is a logical negation.
type NotExpr struct {
	X Expr
}

// Quantifier selects how a to-many relation traversal matches.
type Quantifier string

// Relation quantifiers.
const (
	Some  Quantifier = "some"
	Every Quantifier = "every"
	None  Quantifier = "none"
	Is    Quantifier = "is"
)

// RelPred traverses a relation field and applies a filter over the
// related rows, quantified by Quant. A to-one traversal uses Is.
type RelPred struct {
	Field  string
	Quant  Quantifier
	Filter Expr
}

// CheckRef reuses the target relation's own policies as an existence
// predicate: check(rel) or check(rel, op).
type CheckRef struct {
	Relation string
	// Op is the checked operation; zero means the current operation.
	Op Operation
}

// CurrentModelRef evaluates to the name of the model under evaluation.
type CurrentModelRef struct{}

// CurrentOperationRef evaluates to the name of the operation under
// evaluation.
type CurrentOperationRef struct{}

func (FieldRef) expr()            {}
func (AuthRef) expr()             {}
func (ThisRef) expr()             {}
func (BeforeRef) expr()           {}
func (Lit) expr()                 {}
func (Binary) expr()              {}
func (NotExpr) expr()             {}
func (RelPred) expr()             {}
func (CheckRef) expr()            {}
func (CurrentModelRef) expr()     {}
func (CurrentOperationRef) expr() {}

// F references a field of the current row.
func F(name string) Expr { return FieldRef{Name: name} }

// Auth projects the auth context along the given path.
func Auth(path ...string) Expr { return AuthRef{Path: path} }

// This references the current row.
func This() Expr { return ThisRef{} }

// Before references a pre-image field in a post-update rule.
func Before(field string) Expr { return BeforeRef{Name: field} }

// Val wraps a literal value.
func Val(v any) Expr { return Lit{V: v} }

// Eq builds l == r.
func Eq(l, r Expr) Expr { return Binary{Op: OpEQ, L: l, R: r} }

// Ne builds l != r.
func Ne(l, r Expr) Expr { return Binary{Op: OpNE, L: l, R: r} }

// Gt builds l > r.
func Gt(l, r Expr) Expr { return Binary{Op: OpGT, L: l, R: r} }

// Ge builds l >= r.
func Ge(l, r Expr) Expr { return Binary{Op: OpGE, L: l, R: r} }

// Lt builds l < r.
func Lt(l, r Expr) Expr { return Binary{Op: OpLT, L: l, R: r} }

// Le builds l <= r.
func Le(l, r Expr) Expr { return Binary{Op: OpLE, L: l, R: r} }

// In builds l in values.
func In(l Expr, values ...any) Expr { return Binary{Op: OpIn, L: l, R: Lit{V: values}} }

// AndExpr combines expressions with logical AND.
func AndExpr(xs ...Expr) Expr { return foldBinary(OpAnd, xs) }

// OrExpr combines expressions with logical OR.
func OrExpr(xs ...Expr) Expr { return foldBinary(OpOr, xs) }

// Not negates an expression.
func Not(x Expr) Expr { return NotExpr{X: x} }

// Rel traverses a relation with a quantifier and filter.
func Rel(field string, quant Quantifier, filter Expr) Expr {
	return RelPred{Field: field, Quant: quant, Filter: filter}
}

// Check reuses the policies of the given relation as a predicate.
func Check(relation string, op ...Operation) Expr {
	c := CheckRef{Relation: relation}
	if len(op) > 0 {
		c.Op = op[0]
	}
	return c
}

// True is the constant true expression.
func True() Expr { return Lit{V: true} }

// False is the constant false expression.
func False() Expr { return Lit{V: false} }

func foldBinary(op BinOp, xs []Expr) Expr {
	switch len(xs) {
	case 0:
		return Lit{V: true}
	case 1:
		return xs[0]
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = Binary{Op: op, L: acc, R: x}
	}
	return acc
}

// AllowRule builds an allow policy for the given operations.
func AllowRule(ops Operation, expr Expr) *Policy {
	return &Policy{Kind: Allow, Operations: ops, Expression: expr}
}

// DenyRule builds a deny policy for the given operations.
func DenyRule(ops Operation, expr Expr) *Policy {
	return &Policy{Kind: Deny, Operations: ops, Expression: expr}
}
