package privacy

import (
	"fmt"
	"strings"

	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/dialect/sql/sqlgraph"
	"github.com/zenstack-dev/zen-go/querylanguage"
	"github.com/zenstack-dev/zen-go/schema"
)

// Engine compiles the schema's @@allow/@@deny rules into SQL
// predicates and rewrites queries to enforce them. One Engine serves
// one frozen schema; it is immutable and safe for concurrent use.
type Engine struct {
	schema *schema.Schema
	graph  *sqlgraph.Schema
}

// NewEngine builds the policy engine, deriving the relational graph
// the rule compiler traverses for relation predicates and check()
// references.
func NewEngine(s *schema.Schema) (*Engine, error) {
	g, err := sqlgraph.FromSchema(s)
	if err != nil {
		return nil, err
	}
	return &Engine{schema: s, graph: g}, nil
}

// Schema returns the schema the engine was built for.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// lowered is a three-valued compilation result: a predicate, or a
// constant decided entirely by the auth context at compile time.
type lowered struct {
	p     querylanguage.P
	known bool
	val   bool
}

func constLowered(v bool) lowered { return lowered{known: true, val: v} }

func predLowered(p querylanguage.P) lowered { return lowered{p: p} }

func (l lowered) and(r lowered) lowered {
	switch {
	case l.known && !l.val, r.known && !r.val:
		return constLowered(false)
	case l.known:
		return r
	case r.known:
		return l
	}
	return predLowered(querylanguage.And(l.p, r.p))
}

func (l lowered) or(r lowered) lowered {
	switch {
	case l.known && l.val, r.known && r.val:
		return constLowered(true)
	case l.known:
		return r
	case r.known:
		return l
	}
	return predLowered(querylanguage.Or(l.p, r.p))
}

func (l lowered) not() lowered {
	if l.known {
		return constLowered(!l.val)
	}
	return predLowered(querylanguage.Not(l.p))
}

// lowerCtx carries the compilation state of one policy expression.
type lowerCtx struct {
	auth any
	op   schema.Operation
	// visited breaks check() cycles, keyed on model name + op.
	visited map[string]bool
}

func (c lowerCtx) key(model string, op schema.Operation) string {
	return fmt.Sprintf("%s/%d", model, op)
}

// Filter compiles the model's effective policy set for op into a
// predicate: OR of the allow rules AND NOT OR of the deny rules. The
// returned lowered value may be a constant (notably false when no
// allow rule exists).
func (e *Engine) Filter(model string, op schema.Operation, auth any) (lowered, error) {
	ctx := lowerCtx{auth: auth, op: op, visited: map[string]bool{}}
	return e.filter(model, op, ctx)
}

func (e *Engine) filter(model string, op schema.Operation, ctx lowerCtx) (lowered, error) {
	m := e.schema.Model(model)
	if m == nil {
		return lowered{}, fmt.Errorf("zen/privacy: unknown model %s", model)
	}
	key := ctx.key(model, op)
	if ctx.visited[key] {
		// Cycle through check(): degrade to a plain existence check
		// against the base table.
		return constLowered(true), nil
	}
	ctx.visited[key] = true
	defer delete(ctx.visited, key)

	allows := constLowered(false)
	denies := constLowered(false)
	hasAllow := false
	for _, p := range m.PoliciesFor(e.schema, op) {
		l, err := e.lower(m, p.Expression, ctx)
		if err != nil {
			return lowered{}, err
		}
		if p.Kind == schema.Allow {
			hasAllow = true
			allows = allows.or(l)
		} else {
			denies = denies.or(l)
		}
	}
	if !hasAllow {
		return constLowered(false), nil
	}
	return allows.and(denies.not()), nil
}

// HasPolicies reports whether the model carries any rule for op,
// including inherited ones. Models without rules are unrestricted.
func (e *Engine) HasPolicies(model string, op schema.Operation) bool {
	m := e.schema.Model(model)
	return m != nil && len(m.PoliciesFor(e.schema, op)) > 0
}

// ApplyRead injects the model's read policy into the selector's WHERE
// clause. Models with no read rules pass through untouched; models
// with rules but no matching allow collapse to a constant-false guard.
func (e *Engine) ApplyRead(s *sql.Selector, model string, auth any) error {
	return e.Apply(s, model, schema.OpRead, auth)
}

// Apply injects the model's policy for op into the selector.
func (e *Engine) Apply(s *sql.Selector, model string, op schema.Operation, auth any) error {
	if !e.HasPolicies(model, op) {
		return nil
	}
	l, err := e.Filter(model, op, auth)
	if err != nil {
		return err
	}
	switch {
	case l.known && l.val:
		return nil
	case l.known:
		s.Where(sql.False())
		return nil
	}
	return e.graph.EvalP(model, l.p, s)
}

// lower compiles one policy expression in the context of model m.
func (e *Engine) lower(m *schema.Model, x schema.Expr, ctx lowerCtx) (lowered, error) {
	switch n := x.(type) {
	case nil:
		return constLowered(true), nil
	case schema.Lit:
		if b, ok := n.V.(bool); ok {
			return constLowered(b), nil
		}
		return lowered{}, fmt.Errorf("zen/privacy: non-boolean literal %v used as a rule", n.V)
	case schema.NotExpr:
		l, err := e.lower(m, n.X, ctx)
		if err != nil {
			return lowered{}, err
		}
		return l.not(), nil
	case schema.Binary:
		return e.lowerBinary(m, n, ctx)
	case schema.RelPred:
		return e.lowerRel(m, n, ctx)
	case schema.CheckRef:
		return e.lowerCheck(m, n, ctx)
	case schema.FieldRef:
		// A bare boolean field.
		return predLowered(querylanguage.FieldEQ(n.Name, true)), nil
	case schema.AuthRef:
		v, ok := resolveAuth(ctx.auth, n.Path)
		if !ok || v == nil {
			return constLowered(false), nil
		}
		if b, isBool := v.(bool); isBool {
			return constLowered(b), nil
		}
		return lowered{}, fmt.Errorf("zen/privacy: auth() projection %v is not boolean", n.Path)
	default:
		return lowered{}, fmt.Errorf("zen/privacy: unsupported expression %T", x)
	}
}

func (e *Engine) lowerBinary(m *schema.Model, n schema.Binary, ctx lowerCtx) (lowered, error) {
	switch n.Op {
	case schema.OpAnd, schema.OpOr:
		l, err := e.lower(m, n.L, ctx)
		if err != nil {
			return lowered{}, err
		}
		r, err := e.lower(m, n.R, ctx)
		if err != nil {
			return lowered{}, err
		}
		if n.Op == schema.OpAnd {
			return l.and(r), nil
		}
		return l.or(r), nil
	}
	// Normalize so a field reference, if any, sits on the left.
	lhs, rhs, op := n.L, n.R, n.Op
	if _, isField := rhs.(schema.FieldRef); isField {
		if _, also := lhs.(schema.FieldRef); !also {
			lhs, rhs = rhs, lhs
			op = flip(op)
		}
	}
	switch lv := lhs.(type) {
	case schema.FieldRef:
		return e.lowerFieldCmp(m, lv, op, rhs, ctx)
	case schema.ThisRef:
		return e.lowerThisCmp(m, op, rhs, ctx)
	case schema.AuthRef:
		if _, isThis := rhs.(schema.ThisRef); isThis {
			return e.lowerThisCmp(m, flip(op), lhs, ctx)
		}
		// Pure auth-side comparison folds to a constant.
		return e.foldConst(lv, op, rhs, ctx, m)
	case schema.CurrentModelRef:
		return foldCmp(op, m.Name, literalOf(rhs, ctx))
	case schema.CurrentOperationRef:
		return foldCmp(op, opName(ctx.op), literalOf(rhs, ctx))
	case schema.BeforeRef:
		return lowered{}, fmt.Errorf("zen/privacy: before() is only valid in post-update rules")
	default:
		return lowered{}, fmt.Errorf("zen/privacy: unsupported comparison operand %T", lhs)
	}
}

// lowerFieldCmp compiles field <op> value|field|auth-projection.
func (e *Engine) lowerFieldCmp(m *schema.Model, f schema.FieldRef, op schema.BinOp, rhs schema.Expr, ctx lowerCtx) (lowered, error) {
	switch rv := rhs.(type) {
	case schema.FieldRef:
		p, err := fieldToField(f.Name, op, rv.Name)
		return predLowered(p), err
	case schema.Lit:
		return e.fieldToValue(f.Name, op, rv.V)
	case schema.AuthRef:
		v, ok := resolveAuth(ctx.auth, rv.Path)
		if !ok {
			// Unauthenticated: auth() projections evaluate to null,
			// and null never compares equal.
			return constLowered(op == schema.OpNE), nil
		}
		return e.fieldToValue(f.Name, op, v)
	default:
		return lowered{}, fmt.Errorf("zen/privacy: unsupported right operand %T", rhs)
	}
}

func (e *Engine) fieldToValue(field string, op schema.BinOp, v any) (lowered, error) {
	if v == nil {
		switch op {
		case schema.OpEQ:
			return predLowered(querylanguage.FieldNil(field)), nil
		case schema.OpNE:
			return predLowered(querylanguage.FieldNotNil(field)), nil
		}
		return lowered{}, fmt.Errorf("zen/privacy: operator %s does not accept null", op)
	}
	switch op {
	case schema.OpEQ:
		return predLowered(querylanguage.FieldEQ(field, v)), nil
	case schema.OpNE:
		return predLowered(querylanguage.FieldNEQ(field, v)), nil
	case schema.OpGT:
		return predLowered(querylanguage.FieldGT(field, v)), nil
	case schema.OpGE:
		return predLowered(querylanguage.FieldGTE(field, v)), nil
	case schema.OpLT:
		return predLowered(querylanguage.FieldLT(field, v)), nil
	case schema.OpLE:
		return predLowered(querylanguage.FieldLTE(field, v)), nil
	case schema.OpIn:
		vs, ok := v.([]any)
		if !ok {
			return lowered{}, fmt.Errorf("zen/privacy: in requires a value list")
		}
		return predLowered(querylanguage.FieldIn(field, vs...)), nil
	}
	return lowered{}, fmt.Errorf("zen/privacy: unsupported operator %s", op)
}

func fieldToField(l string, op schema.BinOp, r string) (querylanguage.P, error) {
	lf, rf := querylanguage.F(l), querylanguage.F(r)
	switch op {
	case schema.OpEQ:
		return querylanguage.EQ(lf, rf), nil
	case schema.OpNE:
		return querylanguage.NEQ(lf, rf), nil
	case schema.OpGT:
		return querylanguage.GT(lf, rf), nil
	case schema.OpGE:
		return querylanguage.GTE(lf, rf), nil
	case schema.OpLT:
		return querylanguage.LT(lf, rf), nil
	case schema.OpLE:
		return querylanguage.LTE(lf, rf), nil
	}
	return nil, fmt.Errorf("zen/privacy: unsupported field comparison %s", op)
}

// lowerThisCmp compiles auth() == this (and its negation): the row is
// "the" auth row when its id fields equal the projection's.
func (e *Engine) lowerThisCmp(m *schema.Model, op schema.BinOp, auth schema.Expr, ctx lowerCtx) (lowered, error) {
	ar, ok := auth.(schema.AuthRef)
	if !ok {
		return lowered{}, fmt.Errorf("zen/privacy: this can only be compared with auth()")
	}
	if op != schema.OpEQ && op != schema.OpNE {
		return lowered{}, fmt.Errorf("zen/privacy: this only supports equality comparison")
	}
	proj, authed := resolveAuth(ctx.auth, ar.Path)
	if !authed || proj == nil {
		return constLowered(op == schema.OpNE), nil
	}
	authRow, ok := proj.(map[string]any)
	if !ok {
		return lowered{}, fmt.Errorf("zen/privacy: auth() == this requires an object projection")
	}
	eq := constLowered(true)
	for _, idf := range m.IDFields {
		v, ok := authRow[idf]
		if !ok {
			eq = constLowered(false)
			break
		}
		eq = eq.and(predLowered(querylanguage.FieldEQ(idf, v)))
	}
	if op == schema.OpNE {
		return eq.not(), nil
	}
	return eq, nil
}

// foldConst evaluates a comparison that involves no row data.
func (e *Engine) foldConst(l schema.AuthRef, op schema.BinOp, rhs schema.Expr, ctx lowerCtx, m *schema.Model) (lowered, error) {
	lv, _ := resolveAuth(ctx.auth, l.Path)
	return foldCmp(op, lv, literalOf(rhs, ctx))
}

func literalOf(x schema.Expr, ctx lowerCtx) any {
	switch n := x.(type) {
	case schema.Lit:
		return n.V
	case schema.AuthRef:
		v, _ := resolveAuth(ctx.auth, n.Path)
		return v
	case schema.CurrentOperationRef:
		return opName(ctx.op)
	}
	return nil
}

func foldCmp(op schema.BinOp, l, r any) (lowered, error) {
	switch op {
	case schema.OpEQ:
		return constLowered(looseEqual(l, r)), nil
	case schema.OpNE:
		return constLowered(!looseEqual(l, r)), nil
	case schema.OpIn:
		vs, ok := r.([]any)
		if !ok {
			return lowered{}, fmt.Errorf("zen/privacy: in requires a value list")
		}
		for _, v := range vs {
			if looseEqual(l, v) {
				return constLowered(true), nil
			}
		}
		return constLowered(false), nil
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return lowered{}, fmt.Errorf("zen/privacy: cannot order-compare %T and %T", l, r)
	}
	switch op {
	case schema.OpGT:
		return constLowered(lf > rf), nil
	case schema.OpGE:
		return constLowered(lf >= rf), nil
	case schema.OpLT:
		return constLowered(lf < rf), nil
	case schema.OpLE:
		return constLowered(lf <= rf), nil
	}
	return lowered{}, fmt.Errorf("zen/privacy: unsupported operator %s", op)
}

// lowerRel compiles a relation traversal predicate.
func (e *Engine) lowerRel(m *schema.Model, n schema.RelPred, ctx lowerCtx) (lowered, error) {
	f := m.Field(n.Field)
	if f == nil || !f.IsRelation() {
		return lowered{}, fmt.Errorf("zen/privacy: %s.%s is not a relation", m.Name, n.Field)
	}
	target := e.schema.Model(f.Type)
	inner, err := e.lower(target, n.Filter, ctx)
	if err != nil {
		return lowered{}, err
	}
	var filters []querylanguage.P
	if !inner.known {
		filters = append(filters, inner.p)
	} else if !inner.val {
		// A constant-false filter matches no related rows.
		switch n.Quant {
		case schema.Some, schema.Is:
			return constLowered(false), nil
		case schema.None:
			return constLowered(true), nil
		case schema.Every:
			// every(false) holds only when the relation is empty.
			return predLowered(querylanguage.Not(querylanguage.HasEdge(n.Field))), nil
		}
	}
	switch n.Quant {
	case schema.Some, schema.Is:
		return predLowered(querylanguage.HasEdgeWith(n.Field, filters...)), nil
	case schema.None:
		return predLowered(querylanguage.Not(querylanguage.HasEdgeWith(n.Field, filters...))), nil
	case schema.Every:
		neg := inner.not()
		if neg.known {
			return constLowered(neg.val), nil
		}
		return predLowered(querylanguage.Not(querylanguage.HasEdgeWith(n.Field, neg.p))), nil
	}
	return lowered{}, fmt.Errorf("zen/privacy: unknown quantifier %q", n.Quant)
}

// lowerCheck inlines the target relation's own policies as an
// existence predicate.
func (e *Engine) lowerCheck(m *schema.Model, n schema.CheckRef, ctx lowerCtx) (lowered, error) {
	f := m.Field(n.Relation)
	if f == nil || !f.IsRelation() {
		return lowered{}, fmt.Errorf("zen/privacy: check(%s): not a relation of %s", n.Relation, m.Name)
	}
	op := n.Op
	if op == 0 {
		op = ctx.op
	}
	inner, err := e.filter(f.Type, op, ctx)
	if err != nil {
		return lowered{}, err
	}
	switch {
	case inner.known && inner.val:
		return predLowered(querylanguage.HasEdge(n.Relation)), nil
	case inner.known:
		return constLowered(false), nil
	}
	return predLowered(querylanguage.HasEdgeWith(n.Relation, inner.p)), nil
}

// resolveAuth walks the projection path into the auth value. The
// second result is false when the auth value itself is absent.
func resolveAuth(auth any, path []string) (any, bool) {
	if auth == nil {
		return nil, false
	}
	cur := auth
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, true
		}
		cur, ok = m[seg]
		if !ok {
			return nil, true
		}
	}
	return cur, true
}

func flip(op schema.BinOp) schema.BinOp {
	switch op {
	case schema.OpGT:
		return schema.OpLT
	case schema.OpGE:
		return schema.OpLE
	case schema.OpLT:
		return schema.OpGT
	case schema.OpLE:
		return schema.OpGE
	}
	return op
}

func opName(op schema.Operation) string {
	var parts []string
	for _, o := range []struct {
		op   schema.Operation
		name string
	}{
		{schema.OpCreate, "create"},
		{schema.OpRead, "read"},
		{schema.OpUpdate, "update"},
		{schema.OpPostUpdate, "post-update"},
		{schema.OpDelete, "delete"},
	} {
		if op.Has(o.op) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, ",")
}
