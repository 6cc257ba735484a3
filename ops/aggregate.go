package ops

import (
	"context"
	"fmt"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// AggregateResult groups the aggregation outputs under their verbs.
type AggregateResult struct {
	Count map[string]int64
	Sum   map[string]any
	Avg   map[string]any
	Min   map[string]any
	Max   map[string]any
}

// Aggregate computes the requested aggregations over the readable rows
// matching the arguments. Sum and Avg reject non-numeric fields.
func (h *Handler) Aggregate(ctx context.Context, model string, args *AggregateArgs) (*AggregateResult, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = &AggregateArgs{}
	}
	inner, _, err := h.buildSelect(m, &FindArgs{
		Where:   args.Where,
		OrderBy: args.OrderBy,
		Skip:    args.Skip,
		Take:    args.Take,
	})
	if err != nil {
		return nil, err
	}
	// Aggregations run over the paginated row window, so skip/take
	// wrap the base query as a sub-select.
	outer := sql.FromSelect(inner.As("agg"))
	type col struct {
		verb  string
		field string
		alias string
	}
	var cols []col
	add := func(verb string, fields []string, numericOnly bool) error {
		for _, name := range fields {
			alias := verb + "_" + name
			if name == "_all" && verb == "count" {
				outer.AppendSelect(sql.As(sql.Count("*"), alias))
				cols = append(cols, col{verb, name, alias})
				continue
			}
			f := h.fieldInAncestry(m, name)
			if f == nil {
				return zen.NewValidationError(name, fmt.Errorf("unknown field %q in aggregation", name))
			}
			if numericOnly && !numericField(f) {
				return zen.NewValidationError(name, fmt.Errorf("%s requires a numeric field, %q is %s", verb, name, f.Type))
			}
			qc := quoteIdent(h.dialect(), name)
			switch verb {
			case "count":
				outer.AppendSelect(sql.As(sql.Count(qc), alias))
			case "sum":
				outer.AppendSelect(sql.As(sql.Sum(qc), alias))
			case "avg":
				outer.AppendSelect(sql.As(sql.Avg(qc), alias))
			case "min":
				outer.AppendSelect(sql.As(sql.Min(qc), alias))
			case "max":
				outer.AppendSelect(sql.As(sql.Max(qc), alias))
			}
			cols = append(cols, col{verb, name, alias})
		}
		return nil
	}
	if err := add("count", args.Count, false); err != nil {
		return nil, err
	}
	if err := add("sum", args.Sum, true); err != nil {
		return nil, err
	}
	if err := add("avg", args.Avg, true); err != nil {
		return nil, err
	}
	if err := add("min", args.Min, false); err != nil {
		return nil, err
	}
	if err := add("max", args.Max, false); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, zen.NewValidationError("aggregate", fmt.Errorf("aggregate requires at least one of _count, _sum, _avg, _min, _max"))
	}
	rows, err := h.eng.Query(ctx, outer)
	if err != nil {
		return nil, zen.NewQueryError(model, "aggregate", err)
	}
	res := &AggregateResult{
		Count: map[string]int64{},
		Sum:   map[string]any{},
		Avg:   map[string]any{},
		Min:   map[string]any{},
		Max:   map[string]any{},
	}
	if len(rows) == 0 {
		return res, nil
	}
	row := rows[0]
	for _, c := range cols {
		v := row[c.alias]
		switch c.verb {
		case "count":
			res.Count[c.field] = toInt64(v)
		case "sum":
			res.Sum[c.field] = v
		case "avg":
			res.Avg[c.field] = v
		case "min":
			res.Min[c.field] = v
		case "max":
			res.Max[c.field] = v
		}
	}
	return res, nil
}

// GroupBy groups the readable rows by the named fields and computes
// per-group aggregations. Every field referenced in having or orderBy
// must appear in by or as an aggregator.
func (h *Handler) GroupBy(ctx context.Context, model string, args *GroupByArgs) ([]map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil || len(args.By) == 0 {
		return nil, zen.NewValidationError("by", fmt.Errorf("groupBy requires at least one by field"))
	}
	aggAliases := map[string]string{}
	registerAgg := func(verb string, fields []string) {
		for _, name := range fields {
			aggAliases[verb+":"+name] = "_" + verb + "_" + name
		}
	}
	registerAgg("count", args.Count)
	registerAgg("sum", args.Sum)
	registerAgg("avg", args.Avg)
	registerAgg("min", args.Min)
	registerAgg("max", args.Max)

	wellFormed := func(field string) bool {
		if contains(args.By, field) {
			return true
		}
		_, ok := aggAliases["count:"+field]
		if !ok {
			_, ok = aggAliases["sum:"+field]
		}
		if !ok {
			_, ok = aggAliases["avg:"+field]
		}
		if !ok {
			_, ok = aggAliases["min:"+field]
		}
		if !ok {
			_, ok = aggAliases["max:"+field]
		}
		return ok
	}

	s := h.selectorFor(m)
	fc := h.newFilterCtx(s, m)
	h.joinAncestry(s, fc, m)
	if err := h.applyReadPolicy(s, model); err != nil {
		return nil, err
	}
	p, err := fc.compile(args.Where)
	if err != nil {
		return nil, err
	}
	s.Where(p)

	var sel []string
	for _, name := range args.By {
		f := h.fieldInAncestry(m, name)
		if f == nil || f.IsRelation() {
			return nil, zen.NewValidationError(name, fmt.Errorf("unknown groupBy field %q", name))
		}
		col := fc.column(f)
		sel = append(sel, sql.As(col, name))
		s.GroupBy(col)
	}
	addAgg := func(verb string, fields []string, numericOnly bool, agg func(string) string) error {
		for _, name := range fields {
			alias := "_" + verb + "_" + name
			if name == "_all" && verb == "count" {
				sel = append(sel, sql.As(sql.Count("*"), alias))
				continue
			}
			f := h.fieldInAncestry(m, name)
			if f == nil {
				return zen.NewValidationError(name, fmt.Errorf("unknown field %q in aggregation", name))
			}
			if numericOnly && !numericField(f) {
				return zen.NewValidationError(name, fmt.Errorf("%s requires a numeric field", verb))
			}
			sel = append(sel, sql.As(agg(fc.column(f)), alias))
		}
		return nil
	}
	if err := addAgg("count", args.Count, false, sql.Count); err != nil {
		return nil, err
	}
	if err := addAgg("sum", args.Sum, true, sql.Sum); err != nil {
		return nil, err
	}
	if err := addAgg("avg", args.Avg, true, sql.Avg); err != nil {
		return nil, err
	}
	if err := addAgg("min", args.Min, false, sql.Min); err != nil {
		return nil, err
	}
	if err := addAgg("max", args.Max, false, sql.Max); err != nil {
		return nil, err
	}
	s.Select(sel...)

	if args.Having != nil {
		hp, err := h.compileHaving(fc, m, args.Having, wellFormed)
		if err != nil {
			return nil, err
		}
		s.Having(hp)
	}
	for _, o := range args.OrderBy {
		if !wellFormed(o.Field) {
			return nil, zen.NewValidationError(o.Field, fmt.Errorf("orderBy field %q must appear in by or as an aggregator", o.Field))
		}
		col := o.Field
		if f := h.fieldInAncestry(m, o.Field); f != nil && contains(args.By, o.Field) {
			col = fc.column(f)
		}
		if o.Desc {
			col = sql.Desc(col)
		}
		s.OrderBy(col)
	}
	if args.Take != nil {
		n := *args.Take
		if n < 0 {
			n = -n
		}
		s.Limit(n)
	}
	if args.Skip != nil && *args.Skip > 0 {
		s.Offset(*args.Skip)
	}
	rows, err := h.eng.Query(ctx, s)
	if err != nil {
		return nil, zen.NewQueryError(model, "groupBy", err)
	}
	for i := range rows {
		rows[i] = h.decodeRow(m, rows[i])
	}
	return rows, nil
}

// compileHaving builds the HAVING predicate. Aggregator predicates use
// the pseudo-fields _count/_sum/_avg/_min/_max nested as
// {"_sum": {"field": {"gt": 10}}}; plain fields must appear in by.
func (h *Handler) compileHaving(fc *filterCtx, m *schema.Model, having Filter, wellFormed func(string) bool) (*sql.Predicate, error) {
	var preds []*sql.Predicate
	for _, key := range sortedKeys(having) {
		val := having[key]
		switch key {
		case "_count", "_sum", "_avg", "_min", "_max":
			verb := key[1:]
			fields, ok := val.(map[string]any)
			if !ok {
				return nil, zen.NewValidationError(key, fmt.Errorf("%s predicate must be an object", key))
			}
			for _, name := range sortedKeys(fields) {
				f := h.fieldInAncestry(m, name)
				var expr string
				if name == "_all" && verb == "count" {
					expr = sql.Count("*")
				} else {
					if f == nil {
						return nil, zen.NewValidationError(name, fmt.Errorf("unknown field %q in having", name))
					}
					expr = aggExpr(verb, fc.column(f))
				}
				ops, ok := fields[name].(map[string]any)
				if !ok {
					ops = map[string]any{"equals": fields[name]}
				}
				for _, op := range sortedKeys(ops) {
					tok, err := comparisonToken(op)
					if err != nil {
						return nil, err
					}
					v := ops[op]
					preds = append(preds, sql.P(func(b *sql.Builder) {
						b.WriteString(expr).WriteString(tok).Arg(v)
					}))
				}
			}
		default:
			if !wellFormed(key) {
				return nil, zen.NewValidationError(key, fmt.Errorf("having field %q must appear in by or as an aggregator", key))
			}
			f := h.fieldInAncestry(m, key)
			p, err := fc.compileScalar(f, val)
			if err != nil {
				return nil, err
			}
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

func aggExpr(verb, col string) string {
	switch verb {
	case "count":
		return sql.Count(col)
	case "sum":
		return sql.Sum(col)
	case "avg":
		return sql.Avg(col)
	case "min":
		return sql.Min(col)
	case "max":
		return sql.Max(col)
	}
	return col
}

func quoteIdent(dialectName, name string) string {
	if dialectName == dialect.MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func numericField(f *schema.Field) bool {
	switch f.Type {
	case schema.TypeInt, schema.TypeBigInt, schema.TypeFloat, schema.TypeDecimal:
		return !f.Array
	}
	return false
}
