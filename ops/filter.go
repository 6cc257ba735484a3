package ops

import (
	"fmt"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/dialect/sql/sqlgraph"
	"github.com/zenstack-dev/zen-go/schema"
)

// columnRef resolves an unqualified column name to its qualified form.
type columnRef interface {
	C(string) string
}

// filterCtx compiles one where clause against a model. tables maps
// every model in the ancestry chain to the table (or alias) its
// columns live on, so inherited fields qualify correctly.
type filterCtx struct {
	h      *Handler
	m      *schema.Model
	s      *sql.Selector
	tables map[string]columnRef
}

func (h *Handler) newFilterCtx(s *sql.Selector, m *schema.Model) *filterCtx {
	return &filterCtx{h: h, m: m, s: s, tables: map[string]columnRef{m.Name: s}}
}

// column qualifies the field's physical column against the table that
// declares it.
func (fc *filterCtx) column(f *schema.Field) string {
	owner := fc.h.ancestorOwning(fc.m, f.Name)
	if owner != nil {
		if ref, ok := fc.tables[owner.Name]; ok {
			return ref.C(f.ColumnName())
		}
	}
	return fc.s.C(f.ColumnName())
}

// compile turns a filter into a predicate, or nil for an empty filter.
func (fc *filterCtx) compile(f Filter) (*sql.Predicate, error) {
	f = NormalizeFilter(f)
	if len(f) == 0 {
		return nil, nil
	}
	var preds []*sql.Predicate
	for _, key := range sortedKeys(f) {
		val := f[key]
		p, err := fc.compileEntry(key, val)
		if err != nil {
			return nil, err
		}
		if p != nil {
			preds = append(preds, p)
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

func (fc *filterCtx) compileEntry(key string, val any) (*sql.Predicate, error) {
	switch key {
	case "AND":
		return fc.compileList(val, sql.And)
	case "OR":
		return fc.compileList(val, sql.Or)
	case "NOT":
		inner, err := fc.compileOne(val)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, nil
		}
		return sql.Not(inner), nil
	}
	f := fc.h.fieldInAncestry(fc.m, key)
	if f == nil {
		return nil, zen.NewValidationError(key, fmt.Errorf("unknown field %q in where clause of %s", key, fc.m.Name))
	}
	if f.IsRelation() {
		return fc.compileRelation(f, val)
	}
	if f.Computed {
		return fc.compileComputed(f, val)
	}
	return fc.compileScalar(f, val)
}

func (fc *filterCtx) compileList(val any, combine func(...*sql.Predicate) *sql.Predicate) (*sql.Predicate, error) {
	items, err := filterList(val)
	if err != nil {
		return nil, err
	}
	var preds []*sql.Predicate
	for _, item := range items {
		p, err := fc.compile(item)
		if err != nil {
			return nil, err
		}
		if p != nil {
			preds = append(preds, p)
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return combine(preds...), nil
}

func (fc *filterCtx) compileOne(val any) (*sql.Predicate, error) {
	switch v := val.(type) {
	case map[string]any:
		return fc.compile(v)
	case []any:
		return fc.compileList(val, sql.And)
	}
	return nil, zen.NewValidationError("NOT", fmt.Errorf("NOT expects a filter object"))
}

func filterList(val any) ([]Filter, error) {
	switch v := val.(type) {
	case []any:
		out := make([]Filter, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, zen.NewValidationError("filter", fmt.Errorf("combinator list items must be filter objects"))
			}
			out = append(out, m)
		}
		return out, nil
	case []Filter:
		return v, nil
	case map[string]any:
		return []Filter{v}, nil
	}
	return nil, zen.NewValidationError("filter", fmt.Errorf("combinator expects a list of filter objects"))
}

// compileScalar handles a scalar field: a bare value means equality,
// a map is an operator object.
func (fc *filterCtx) compileScalar(f *schema.Field, val any) (*sql.Predicate, error) {
	col := fc.column(f)
	if f.IsScalarList() {
		return fc.compileListField(f, col, val)
	}
	if f.Type == schema.TypeJSON || f.JSONTyped {
		return fc.compileJSONField(f, col, val)
	}
	if val == nil {
		return sql.IsNull(col), nil
	}
	ops, isOps := val.(map[string]any)
	if !isOps {
		return scalarOp(col, "equals", val, false)
	}
	insensitive := ops["mode"] == "insensitive"
	var preds []*sql.Predicate
	for _, op := range sortedKeys(ops) {
		if op == "mode" {
			continue
		}
		p, err := scalarOp(col, op, ops[op], insensitive)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

func scalarOp(col, op string, v any, insensitive bool) (*sql.Predicate, error) {
	switch op {
	case "equals":
		if v == nil {
			return sql.IsNull(col), nil
		}
		if insensitive {
			if s, ok := v.(string); ok {
				return sql.EqualFold(col, s), nil
			}
		}
		return sql.EQ(col, v), nil
	case "not":
		inner, err := scalarOp(col, "equals", v, insensitive)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return sql.NotNull(col), nil
		}
		return sql.Not(inner), nil
	case "in":
		vs, err := anySlice(v)
		if err != nil {
			return nil, err
		}
		return sql.In(col, vs...), nil
	case "notIn":
		vs, err := anySlice(v)
		if err != nil {
			return nil, err
		}
		return sql.NotIn(col, vs...), nil
	case "lt":
		return sql.LT(col, v), nil
	case "lte":
		return sql.LTE(col, v), nil
	case "gt":
		return sql.GT(col, v), nil
	case "gte":
		return sql.GTE(col, v), nil
	case "contains":
		s, err := stringOperand(op, v)
		if err != nil {
			return nil, err
		}
		if insensitive {
			return sql.ContainsFold(col, s), nil
		}
		return sql.Contains(col, s), nil
	case "startsWith":
		s, err := stringOperand(op, v)
		if err != nil {
			return nil, err
		}
		if insensitive {
			return sql.HasPrefixFold(col, s), nil
		}
		return sql.HasPrefix(col, s), nil
	case "endsWith":
		s, err := stringOperand(op, v)
		if err != nil {
			return nil, err
		}
		if insensitive {
			return sql.HasSuffixFold(col, s), nil
		}
		return sql.HasSuffix(col, s), nil
	}
	return nil, zen.NewValidationError(col, fmt.Errorf("unknown filter operator %q", op))
}

// compileRelation handles some/every/none (to-many) and is/isNot
// (to-one) traversals as correlated subqueries.
func (fc *filterCtx) compileRelation(f *schema.Field, val any) (*sql.Predicate, error) {
	ops, ok := val.(map[string]any)
	if !ok {
		return nil, zen.NewValidationError(f.Name, fmt.Errorf("relation filter on %q must be an object", f.Name))
	}
	var preds []*sql.Predicate
	for _, op := range sortedKeys(ops) {
		inner, _ := ops[op].(map[string]any)
		sub, err := fc.relationSubquery(f, inner)
		if err != nil {
			return nil, err
		}
		switch op {
		case "some", "is":
			preds = append(preds, sub)
		case "none", "isNot":
			preds = append(preds, sql.Not(sub))
		case "every":
			// every(p) == no related row violating p.
			neg, err := fc.relationSubqueryNeg(f, inner)
			if err != nil {
				return nil, err
			}
			preds = append(preds, sql.Not(neg))
		default:
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("unknown relation operator %q", op))
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

// relationSubquery builds EXISTS(related rows matching inner).
func (fc *filterCtx) relationSubquery(f *schema.Field, inner Filter) (*sql.Predicate, error) {
	return fc.buildRelationExists(f, inner, false)
}

// relationSubqueryNeg builds EXISTS(related rows NOT matching inner).
func (fc *filterCtx) relationSubqueryNeg(f *schema.Field, inner Filter) (*sql.Predicate, error) {
	return fc.buildRelationExists(f, inner, true)
}

func (fc *filterCtx) buildRelationExists(f *schema.Field, inner Filter, negateInner bool) (*sql.Predicate, error) {
	target := fc.h.sch.Model(f.Type)
	node, err := fc.h.graph.Node(fc.m.Name)
	if err != nil {
		return nil, err
	}
	spec, _, ok := node.Edge(f.Name)
	if !ok {
		return nil, zen.NewConfigError(fmt.Sprintf("relation %s.%s has no graph edge", fc.m.Name, f.Name), nil)
	}
	d := fc.s.Dialect()
	tt := sql.Table(target.TableName())
	tt.SetDialect(d)
	if target.DBSchema != "" {
		tt.Schema(target.DBSchema)
	}
	sub := sql.Select().From(tt)
	sub.SetDialect(d)

	switch {
	case spec.Rel == sqlgraph.M2M:
		pk1, pk2 := spec.Columns[0], spec.Columns[1]
		if spec.Inverse {
			pk1, pk2 = pk2, pk1
		}
		jt := sql.Table(spec.Table)
		jt.SetDialect(d)
		sub = sql.Select().From(jt)
		sub.SetDialect(d)
		sub.Join(tt).On(jt.C(pk2), tt.C(target.Field(target.IDFields[0]).ColumnName()))
		sub.Where(sql.ColumnsEQ(fc.column(fc.m.Field(fc.m.IDFields[0])), jt.C(pk1)))
	case spec.Rel == sqlgraph.O2M && !spec.Inverse:
		// FK on the target table.
		ownRef := fc.m.Field(fc.m.IDFields[0])
		if opp := target.Field(f.Relation.Opposite); opp != nil && opp.Relation.Owner() {
			ownRef = fc.m.Field(opp.Relation.References[0])
		}
		sub.Where(sql.ColumnsEQ(fc.column(ownRef), tt.C(spec.Columns[0])))
	default:
		// FK on this model's table.
		refField := target.Field(target.IDFields[0])
		if f.Relation.Owner() {
			refField = target.Field(f.Relation.References[0])
		}
		fkField := fc.m.Field(f.Relation.Fields[0])
		sub.Where(sql.ColumnsEQ(fc.column(fkField), tt.C(refField.ColumnName())))
	}

	innerFC := &filterCtx{h: fc.h, m: target, s: sub, tables: map[string]columnRef{target.Name: sub}}
	p, err := innerFC.compile(inner)
	if err != nil {
		return nil, err
	}
	if p != nil {
		if negateInner {
			p = sql.Not(p)
		}
		sub.Where(p)
	} else if negateInner {
		sub.Where(sql.False())
	}
	return sql.Exists(sub), nil
}

// compileComputed filters on a computed field by wrapping its SQL
// expression.
func (fc *filterCtx) compileComputed(f *schema.Field, val any) (*sql.Predicate, error) {
	cf, ok := fc.h.computedFor(fc.m.Name, f.Name)
	if !ok {
		return nil, zen.NewConfigError(fmt.Sprintf("computed field %s.%s has no registered expression", fc.m.Name, f.Name), nil)
	}
	expr := cf(fc.s)
	ops, isOps := val.(map[string]any)
	if !isOps {
		ops = map[string]any{"equals": val}
	}
	var preds []*sql.Predicate
	for _, op := range sortedKeys(ops) {
		v := ops[op]
		sqlOp, err := comparisonToken(op)
		if err != nil {
			return nil, err
		}
		preds = append(preds, sql.P(func(b *sql.Builder) {
			b.WriteByte('(')
			b.Join(expr)
			b.WriteByte(')')
			b.WriteString(sqlOp)
			b.Arg(v)
		}))
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

func comparisonToken(op string) (string, error) {
	switch op {
	case "equals":
		return " = ", nil
	case "not":
		return " <> ", nil
	case "lt":
		return " < ", nil
	case "lte":
		return " <= ", nil
	case "gt":
		return " > ", nil
	case "gte":
		return " >= ", nil
	}
	return "", zen.NewValidationError(op, fmt.Errorf("operator %q is not supported on computed fields", op))
}

// compileListField handles scalar-list filters: has, hasSome,
// hasEvery, isEmpty, equals.
func (fc *filterCtx) compileListField(f *schema.Field, col string, val any) (*sql.Predicate, error) {
	ops, ok := val.(map[string]any)
	if !ok {
		return fc.listEquals(col, val)
	}
	var preds []*sql.Predicate
	for _, op := range sortedKeys(ops) {
		v := ops[op]
		switch op {
		case "has":
			preds = append(preds, fc.listHas(col, v))
		case "hasSome":
			vs, err := anySlice(v)
			if err != nil {
				return nil, err
			}
			var alts []*sql.Predicate
			for _, item := range vs {
				alts = append(alts, fc.listHas(col, item))
			}
			if len(alts) == 0 {
				preds = append(preds, sql.False())
			} else {
				preds = append(preds, sql.Or(alts...))
			}
		case "hasEvery":
			vs, err := anySlice(v)
			if err != nil {
				return nil, err
			}
			var alts []*sql.Predicate
			for _, item := range vs {
				alts = append(alts, fc.listHas(col, item))
			}
			if len(alts) == 0 {
				preds = append(preds, sql.True())
			} else {
				preds = append(preds, sql.And(alts...))
			}
		case "isEmpty":
			empty := fc.listEmpty(col)
			if v == false {
				empty = sql.Not(empty)
			}
			preds = append(preds, empty)
		case "equals":
			p, err := fc.listEquals(col, v)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		default:
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("unknown list operator %q", op))
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

// listHas matches lists containing the element. Postgres arrays use
// the containment operator; other providers store lists as JSON and
// probe them with json_each.
func (fc *filterCtx) listHas(col string, v any) *sql.Predicate {
	if fc.s.Dialect() == dialect.Postgres {
		return sql.P(func(b *sql.Builder) {
			b.WriteString(col).WriteString(" @> ARRAY[").Arg(v).WriteString("]")
		})
	}
	return sql.P(func(b *sql.Builder) {
		b.WriteString("EXISTS (SELECT 1 FROM json_each(").WriteString(col).WriteString(") WHERE value = ").Arg(v).WriteString(")")
	})
}

func (fc *filterCtx) listEmpty(col string) *sql.Predicate {
	if fc.s.Dialect() == dialect.Postgres {
		return sql.P(func(b *sql.Builder) {
			b.WriteString("COALESCE(array_length(").WriteString(col).WriteString(", 1), 0) = 0")
		})
	}
	return sql.P(func(b *sql.Builder) {
		b.WriteString("json_array_length(").WriteString(col).WriteString(") = 0")
	})
}

func (fc *filterCtx) listEquals(col string, v any) (*sql.Predicate, error) {
	vs, err := anySlice(v)
	if err != nil {
		return nil, err
	}
	enc, err := encodeList(fc.s.Dialect(), vs)
	if err != nil {
		return nil, err
	}
	return sql.EQ(col, enc), nil
}

func stringOperand(op string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", zen.NewValidationError(op, fmt.Errorf("%s expects a string operand", op))
	}
	return s, nil
}

func anySlice(v any) ([]any, error) {
	switch vv := v.(type) {
	case []any:
		return vv, nil
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out, nil
	}
	return nil, zen.NewValidationError("filter", fmt.Errorf("expected a value list, got %T", v))
}
