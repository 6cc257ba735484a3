package validator

import (
	"fmt"
	"reflect"

	"github.com/zenstack-dev/zen-go/schema"
)

// evalRow evaluates a validation expression against an in-memory row.
// data holds the incoming payload; prev the current row values for
// updates (may be nil). The expression vocabulary here is the scalar
// subset: field references, literals, comparisons and boolean
// composition. Relation traversals and auth projections belong to the
// policy engine, not row validation.
func evalRow(e schema.Expr, data, prev map[string]any) (bool, error) {
	v, err := evalValue(e, data, prev)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("validator: expression is not boolean (got %T)", v)
	}
	return b, nil
}

func evalValue(e schema.Expr, data, prev map[string]any) (any, error) {
	switch x := e.(type) {
	case schema.Lit:
		return x.V, nil
	case schema.FieldRef:
		if v, ok := data[x.Name]; ok {
			return v, nil
		}
		if v, ok := prev[x.Name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("validator: field %q not present", x.Name)
	case schema.BeforeRef:
		if v, ok := prev[x.Name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("validator: pre-image field %q not present", x.Name)
	case schema.NotExpr:
		b, err := evalRow(x.X, data, prev)
		if err != nil {
			return nil, err
		}
		return !b, nil
	case schema.Binary:
		return evalBinary(x, data, prev)
	default:
		return nil, fmt.Errorf("validator: unsupported expression %T in @@validate", e)
	}
}

func evalBinary(x schema.Binary, data, prev map[string]any) (any, error) {
	switch x.Op {
	case schema.OpAnd, schema.OpOr:
		l, err := evalRow(x.L, data, prev)
		if err != nil {
			return nil, err
		}
		// Short-circuit so a reference that is only meaningful on one
		// side does not poison the whole predicate.
		if x.Op == schema.OpAnd && !l {
			return false, nil
		}
		if x.Op == schema.OpOr && l {
			return true, nil
		}
		return evalRow(x.R, data, prev)
	}
	l, err := evalValue(x.L, data, prev)
	if err != nil {
		return nil, err
	}
	r, err := evalValue(x.R, data, prev)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case schema.OpEQ:
		return looseEqual(l, r), nil
	case schema.OpNE:
		return !looseEqual(l, r), nil
	case schema.OpIn:
		vs, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("validator: right operand of in must be a list")
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
		switch x.Op {
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
	ls, lok2 := l.(string)
	rs, rok2 := r.(string)
	if lok2 && rok2 {
		switch x.Op {
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
	return nil, fmt.Errorf("validator: cannot compare %T and %T with %s", l, r, x.Op)
}

// looseEqual compares across the numeric kinds a JSON-ish payload may
// carry, falling back to deep equality.
func looseEqual(l, r any) bool {
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
	}
	return reflect.DeepEqual(l, r)
}
