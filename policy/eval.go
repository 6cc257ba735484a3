package privacy

import (
	"fmt"
	"reflect"

	"github.com/zenstack-dev/zen-go/schema"
)

// RowImages carries the data a post-mutation policy evaluation sees:
// the written row and, for post-update rules, its pre-image.
type RowImages struct {
	Pre  map[string]any
	Post map[string]any
}

// EvalRow evaluates the model's policy set for op against an in-memory
// row, used for post-update rules (which need before()) and for
// field-level write gating where no SQL round-trip is warranted.
// Relation traversals are not evaluable in memory and yield an error;
// callers fall back to the SQL path for those rules.
func (e *Engine) EvalRow(model string, op schema.Operation, auth any, img RowImages) (bool, error) {
	m := e.schema.Model(model)
	if m == nil {
		return false, fmt.Errorf("zen/privacy: unknown model %s", model)
	}
	rules := m.PoliciesFor(e.schema, op)
	if len(rules) == 0 {
		return true, nil
	}
	allowed := false
	for _, p := range rules {
		ok, err := e.evalRowExpr(p.Expression, auth, img, op)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if p.Kind == schema.Deny {
			return false, nil
		}
		allowed = true
	}
	return allowed, nil
}

func (e *Engine) evalRowExpr(x schema.Expr, auth any, img RowImages, op schema.Operation) (bool, error) {
	v, err := e.evalRowValue(x, auth, img, op)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("zen/privacy: rule does not evaluate to a boolean (got %T)", v)
	}
	return b, nil
}

func (e *Engine) evalRowValue(x schema.Expr, auth any, img RowImages, op schema.Operation) (any, error) {
	switch n := x.(type) {
	case nil:
		return true, nil
	case schema.Lit:
		return n.V, nil
	case schema.FieldRef:
		return img.Post[n.Name], nil
	case schema.BeforeRef:
		if img.Pre == nil {
			return nil, fmt.Errorf("zen/privacy: before() requires a pre-image")
		}
		if n.Name == "" {
			return img.Pre, nil
		}
		return img.Pre[n.Name], nil
	case schema.AuthRef:
		v, _ := resolveAuth(auth, n.Path)
		return v, nil
	case schema.CurrentOperationRef:
		return opName(op), nil
	case schema.NotExpr:
		b, err := e.evalRowExpr(n.X, auth, img, op)
		if err != nil {
			return nil, err
		}
		return !b, nil
	case schema.Binary:
		return e.evalRowBinary(n, auth, img, op)
	default:
		return nil, fmt.Errorf("zen/privacy: expression %T is not evaluable in memory", x)
	}
}

func (e *Engine) evalRowBinary(n schema.Binary, auth any, img RowImages, op schema.Operation) (any, error) {
	if n.Op == schema.OpAnd || n.Op == schema.OpOr {
		l, err := e.evalRowExpr(n.L, auth, img, op)
		if err != nil {
			return nil, err
		}
		if n.Op == schema.OpAnd && !l {
			return false, nil
		}
		if n.Op == schema.OpOr && l {
			return true, nil
		}
		return e.evalRowExpr(n.R, auth, img, op)
	}
	l, err := e.evalRowValue(n.L, auth, img, op)
	if err != nil {
		return nil, err
	}
	r, err := e.evalRowValue(n.R, auth, img, op)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case schema.OpEQ:
		return looseEqual(l, r), nil
	case schema.OpNE:
		return !looseEqual(l, r), nil
	case schema.OpIn:
		vs, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("zen/privacy: in requires a value list")
		}
		for _, v := range vs {
			if looseEqual(l, v) {
				return true, nil
			}
		}
		return false, nil
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if lok && rok {
		switch n.Op {
		case schema.OpGT:
			return lf > rf, nil
		case schema.OpGE:
			return lf >= rf, nil
		case schema.OpLT:
			return lf < rf, nil
		case schema.OpLE:
			return lf <= rf, nil
		}
	}
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	if lsok && rsok {
		switch n.Op {
		case schema.OpGT:
			return ls > rs, nil
		case schema.OpGE:
			return ls >= rs, nil
		case schema.OpLT:
			return ls < rs, nil
		case schema.OpLE:
			return ls <= rs, nil
		}
	}
	return nil, fmt.Errorf("zen/privacy: cannot compare %T and %T with %s", l, r, n.Op)
}

// CheckFieldWrites rejects the mutation when any written field carries
// a field-level policy denying op for the current auth context. Field
// rules are evaluated in memory against the payload.
func (e *Engine) CheckFieldWrites(model string, op schema.Operation, auth any, data map[string]any) error {
	m := e.schema.Model(model)
	if m == nil {
		return fmt.Errorf("zen/privacy: unknown model %s", model)
	}
	img := RowImages{Post: data}
	for name := range data {
		f := m.Field(name)
		if f == nil || len(f.Policies) == 0 {
			continue
		}
		allowed := true
		hasRule := false
		for _, p := range f.Policies {
			if !p.Operations.Has(op) {
				continue
			}
			hasRule = true
			ok, err := e.evalRowExpr(p.Expression, auth, img, op)
			if err != nil {
				return err
			}
			if p.Kind == schema.Deny && ok {
				allowed = false
			}
			if p.Kind == schema.Allow && ok {
				allowed = true
				break
			}
			if p.Kind == schema.Allow && !ok {
				allowed = false
			}
		}
		if hasRule && !allowed {
			return NewFieldDeniedError(model, name, opName(op))
		}
	}
	return nil
}

// MaskRow projects nil over fields the auth context may not read,
// per the model's field-level read rules. The row is modified in place
// and returned.
func (e *Engine) MaskRow(model string, auth any, row map[string]any) map[string]any {
	m := e.schema.Model(model)
	if m == nil || row == nil {
		return row
	}
	img := RowImages{Post: row}
	for _, f := range m.Fields {
		if len(f.Policies) == 0 {
			continue
		}
		for _, p := range f.Policies {
			if !p.Operations.Has(schema.OpRead) {
				continue
			}
			ok, err := e.evalRowExpr(p.Expression, auth, img, schema.OpRead)
			if err != nil {
				continue
			}
			if (p.Kind == schema.Deny && ok) || (p.Kind == schema.Allow && !ok) {
				row[f.Name] = nil
			}
		}
	}
	return row
}

func looseEqual(l, r any) bool {
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	return reflect.DeepEqual(l, r)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
