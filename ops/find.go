package ops

import (
	"context"
	"fmt"
	"sort"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/dialect/sql/sqlgraph"
	"github.com/zenstack-dev/zen-go/schema"
)

// FindMany returns every readable row matching the arguments.
func (h *Handler) FindMany(ctx context.Context, model string, args *FindArgs) ([]map[string]any, error) {
	if args == nil {
		args = &FindArgs{}
	}
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	s, plan, err := h.buildSelect(m, args)
	if err != nil {
		return nil, err
	}
	rows, err := h.eng.Query(ctx, s)
	if err != nil {
		return nil, zen.NewQueryError(model, "findMany", err)
	}
	reversed := args.Take != nil && *args.Take < 0
	if reversed {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	for i := range rows {
		rows[i] = h.shapeRow(m, plan, args, rows[i])
	}
	if err := h.loadIncludes(ctx, m, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindFirst compiles to FindMany with take 1.
func (h *Handler) FindFirst(ctx context.Context, model string, args *FindArgs) (map[string]any, error) {
	if args == nil {
		args = &FindArgs{}
	}
	one := 1
	if args.Take != nil && *args.Take < 0 {
		one = -1
	}
	limited := *args
	limited.Take = &one
	rows, err := h.FindMany(ctx, model, &limited)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindFirstOrThrow is FindFirst failing with NotFoundError on a miss.
func (h *Handler) FindFirstOrThrow(ctx context.Context, model string, args *FindArgs) (map[string]any, error) {
	row, err := h.FindFirst(ctx, model, args)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, zen.NewNotFoundError(model)
	}
	return row, nil
}

// FindUnique returns the row selected by a unique criterion, or nil.
func (h *Handler) FindUnique(ctx context.Context, model string, args *FindArgs) (map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil || args.Where == nil {
		return nil, zen.NewValidationError("where", fmt.Errorf("findUnique requires a unique criterion"))
	}
	if _, ok := m.UniqueCriterion(args.Where); !ok {
		return nil, zen.NewValidationError("where", fmt.Errorf("findUnique requires a unique criterion (id field or unique tuple)"))
	}
	return h.FindFirst(ctx, model, args)
}

// FindUniqueOrThrow is FindUnique failing with NotFoundError on a miss.
func (h *Handler) FindUniqueOrThrow(ctx context.Context, model string, args *FindArgs) (map[string]any, error) {
	row, err := h.FindUnique(ctx, model, args)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, zen.NewNotFoundError(model)
	}
	return row, nil
}

// Count returns the number of readable rows matching where.
func (h *Handler) Count(ctx context.Context, model string, where Filter) (int64, error) {
	m, err := h.model(model)
	if err != nil {
		return 0, err
	}
	s, _, err := h.buildSelect(m, &FindArgs{Where: where})
	if err != nil {
		return 0, err
	}
	s.Select(sql.As(sql.Count("*"), "count"))
	s.ClearOrder()
	rows, err := h.eng.Query(ctx, s)
	if err != nil {
		return 0, zen.NewQueryError(model, "count", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

// buildSelect assembles the selector of a find call: projection,
// delegate ancestry joins, policy guard, filter, order, cursor and
// pagination.
func (h *Handler) buildSelect(m *schema.Model, args *FindArgs) (*sql.Selector, fieldPlan, error) {
	s := h.selectorFor(m)
	fc := h.newFilterCtx(s, m)
	h.joinAncestry(s, fc, m)

	plan := h.planFields(m, args.Select, args.Omit)
	cols := make([]string, 0, len(plan.fields))
	for _, f := range plan.fields {
		owner := h.ancestorOwning(m, f.Name)
		ref := fc.tables[owner.Name]
		cols = append(cols, sql.As(ref.C(f.ColumnName()), f.Name))
	}
	s.Select(cols...)
	for _, name := range plan.computed {
		cf, _ := h.computedFor(m.Name, name)
		expr := cf(s)
		s.AppendSelectExpr(sql.ExprFunc(func(b *sql.Builder) {
			b.WriteByte('(')
			b.Join(expr)
			b.WriteString(") AS ")
			b.WriteString(b.Quote(name))
		}))
	}

	if err := h.applyReadPolicy(s, m.Name); err != nil {
		return nil, plan, err
	}
	p, err := fc.compile(args.Where)
	if err != nil {
		return nil, plan, err
	}
	s.Where(p)
	for _, fn := range args.WhereP {
		fn(s)
	}

	if len(args.Distinct) > 0 {
		s.Distinct()
	}
	if err := h.applyOrder(s, fc, m, args); err != nil {
		return nil, plan, err
	}
	if err := h.applyCursor(s, fc, m, args); err != nil {
		return nil, plan, err
	}
	h.applySkipTake(s, args)
	return s, plan, nil
}

// joinAncestry joins the ancestor tables of a model extending a
// delegate base, on the shared primary key, so inherited columns are
// readable alongside the model's own.
func (h *Handler) joinAncestry(s *sql.Selector, fc *filterCtx, m *schema.Model) {
	ancestry := m.Ancestry(h.sch)
	for _, anc := range ancestry[:len(ancestry)-1] {
		at := sql.Table(anc.TableName())
		at.SetDialect(h.dialect())
		if anc.DBSchema != "" {
			at.Schema(anc.DBSchema)
		}
		s.Join(at)
		for i, idf := range m.IDFields {
			ancID := anc.Field(anc.IDFields[i])
			s.On(s.C(m.Field(idf).ColumnName()), at.C(ancID.ColumnName()))
		}
		fc.tables[anc.Name] = at
	}
}

// applyOrder appends ORDER BY terms. A negative take flips every
// direction so the dialect can satisfy "last n" with a plain LIMIT;
// FindMany restores the caller-visible order afterwards.
func (h *Handler) applyOrder(s *sql.Selector, fc *filterCtx, m *schema.Model, args *FindArgs) error {
	reverse := args.Take != nil && *args.Take < 0
	order := args.OrderBy
	if len(order) == 0 && (args.Cursor != nil || reverse) {
		for _, idf := range m.IDFields {
			order = append(order, OrderSpec{Field: idf})
		}
	}
	for _, o := range order {
		f := h.fieldInAncestry(m, o.Field)
		if f == nil {
			return zen.NewValidationError(o.Field, fmt.Errorf("unknown orderBy field %q", o.Field))
		}
		desc := o.Desc != reverse
		var col string
		if f.Computed {
			cf, ok := h.computedFor(m.Name, f.Name)
			if !ok {
				return zen.NewConfigError(fmt.Sprintf("computed field %s.%s has no registered expression", m.Name, f.Name), nil)
			}
			expr := cf(s)
			s.OrderExpr(sql.ExprFunc(func(b *sql.Builder) {
				b.WriteByte('(')
				b.Join(expr)
				b.WriteByte(')')
				if desc {
					b.WriteString(" DESC")
				}
			}))
			continue
		}
		col = fc.column(f)
		if desc {
			col = sql.Desc(col)
		}
		s.OrderBy(col)
	}
	return nil
}

// applyCursor turns the cursor row into a row-value comparison over
// the current order columns.
func (h *Handler) applyCursor(s *sql.Selector, fc *filterCtx, m *schema.Model, args *FindArgs) error {
	if args.Cursor == nil {
		return nil
	}
	order := args.OrderBy
	if len(order) == 0 {
		for _, idf := range m.IDFields {
			order = append(order, OrderSpec{Field: idf})
		}
	}
	cols := make([]string, 0, len(order))
	vals := make([]any, 0, len(order))
	desc := false
	for i, o := range order {
		f := h.fieldInAncestry(m, o.Field)
		if f == nil || f.Computed {
			return zen.NewValidationError(o.Field, fmt.Errorf("cursor requires plain order fields"))
		}
		v, ok := args.Cursor[o.Field]
		if !ok {
			return zen.NewValidationError(o.Field, fmt.Errorf("cursor must carry a value for every order field"))
		}
		if i == 0 {
			desc = o.Desc
		} else if o.Desc != desc {
			return zen.NewValidationError(o.Field, fmt.Errorf("cursor pagination requires a uniform order direction"))
		}
		cols = append(cols, fc.column(f))
		vals = append(vals, v)
	}
	reverse := args.Take != nil && *args.Take < 0
	forward := desc == reverse
	if forward {
		s.Where(sql.CompositeGTE(cols, vals...))
	} else {
		s.Where(sql.CompositeLTE(cols, vals...))
	}
	return nil
}

func (h *Handler) applySkipTake(s *sql.Selector, args *FindArgs) {
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
}

// shapeRow decodes driver values, applies field-level read masking and
// drops always-selected id columns the caller explicitly deselected.
func (h *Handler) shapeRow(m *schema.Model, plan fieldPlan, args *FindArgs, row map[string]any) map[string]any {
	row = h.decodeRow(m, row)
	row = h.maskRow(m.Name, row)
	if args.Select != nil {
		for _, idf := range m.IDFields {
			if !contains(args.Select, idf) {
				delete(row, idf)
			}
		}
	}
	return row
}

// loadIncludes resolves the include tree: one batched query per
// relation, matched back to the parent rows in memory.
func (h *Handler) loadIncludes(ctx context.Context, m *schema.Model, args *FindArgs, rows []map[string]any) error {
	if len(args.Include) == 0 || len(rows) == 0 {
		return nil
	}
	for _, relName := range sortedIncludeKeys(args.Include) {
		relArgs := args.Include[relName]
		f := h.fieldInAncestry(m, relName)
		if f == nil || !f.IsRelation() {
			return zen.NewValidationError(relName, fmt.Errorf("unknown relation %q on %s", relName, m.Name))
		}
		if err := h.loadRelation(ctx, m, f, relArgs, rows); err != nil {
			return err
		}
	}
	return nil
}

func sortedIncludeKeys(m map[string]*FindArgs) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h *Handler) loadRelation(ctx context.Context, m *schema.Model, f *schema.Field, relArgs *FindArgs, rows []map[string]any) error {
	if relArgs == nil {
		relArgs = &FindArgs{}
	}
	target := h.sch.Model(f.Type)
	node, err := h.graph.Node(m.Name)
	if err != nil {
		return err
	}
	spec, _, ok := node.Edge(f.Name)
	if !ok {
		return zen.NewConfigError(fmt.Sprintf("relation %s.%s has no graph edge", m.Name, f.Name), nil)
	}
	switch {
	case spec.Rel == sqlgraph.M2M:
		return h.loadM2M(ctx, m, f, target, spec, relArgs, rows)
	case f.Relation.Owner():
		// FK on the parent: to-one lookup by referenced field.
		return h.loadToOne(ctx, f, target, relArgs, rows)
	default:
		// FK on the target: to-many (or inverse to-one) grouping.
		return h.loadToMany(ctx, f, target, relArgs, rows)
	}
}

func (h *Handler) loadToOne(ctx context.Context, f *schema.Field, target *schema.Model, relArgs *FindArgs, rows []map[string]any) error {
	fkField := f.Relation.Fields[0]
	refField := f.Relation.References[0]
	keys := keyValues(rows, fkField)
	if len(keys) == 0 {
		for _, r := range rows {
			r[f.Name] = nil
		}
		return nil
	}
	sub := cloneFindArgs(relArgs)
	sub.Where = withInFilter(sub.Where, refField, keys)
	ensureSelected(sub, refField)
	related, err := h.FindMany(ctx, target.Name, sub)
	if err != nil {
		return err
	}
	byKey := map[any]map[string]any{}
	for _, r := range related {
		byKey[normKey(r[refField])] = r
	}
	for _, r := range rows {
		if v, ok := r[fkField]; ok && v != nil {
			if match, ok := byKey[normKey(v)]; ok {
				r[f.Name] = match
				continue
			}
		}
		r[f.Name] = nil
	}
	return nil
}

func (h *Handler) loadToMany(ctx context.Context, f *schema.Field, target *schema.Model, relArgs *FindArgs, rows []map[string]any) error {
	opp := target.Field(f.Relation.Opposite)
	fkField := opp.Relation.Fields[0]
	refField := opp.Relation.References[0]
	keys := keyValues(rows, refField)
	sub := cloneFindArgs(relArgs)
	sub.Where = withInFilter(sub.Where, fkField, keys)
	ensureSelected(sub, fkField)
	related, err := h.FindMany(ctx, target.Name, sub)
	if err != nil {
		return err
	}
	grouped := map[any][]map[string]any{}
	for _, r := range related {
		k := normKey(r[fkField])
		grouped[k] = append(grouped[k], r)
	}
	toOne := !f.Array
	for _, r := range rows {
		k := normKey(r[refField])
		if toOne {
			if g := grouped[k]; len(g) > 0 {
				r[f.Name] = g[0]
			} else {
				r[f.Name] = nil
			}
			continue
		}
		g := grouped[k]
		if g == nil {
			g = []map[string]any{}
		}
		r[f.Name] = g
	}
	return nil
}

func (h *Handler) loadM2M(ctx context.Context, m *schema.Model, f *schema.Field, target *schema.Model, spec *sqlgraph.EdgeSpec, relArgs *FindArgs, rows []map[string]any) error {
	pk1, pk2 := spec.Columns[0], spec.Columns[1]
	if spec.Inverse {
		pk1, pk2 = pk2, pk1
	}
	ownID := m.IDFields[0]
	keys := keyValues(rows, ownID)
	jt := sql.Table(spec.Table)
	jt.SetDialect(h.dialect())
	js := sql.Select(jt.C(pk1), jt.C(pk2)).From(jt)
	js.SetDialect(h.dialect())
	js.Where(sql.In(jt.C(pk1), keys...))
	pairs, err := h.eng.Query(ctx, js)
	if err != nil {
		return zen.NewQueryError(m.Name, "include "+f.Name, err)
	}
	targetKeys := make([]any, 0, len(pairs))
	link := map[any][]any{}
	for _, p := range pairs {
		a, b := normKey(p[pk1]), normKey(p[pk2])
		link[a] = append(link[a], b)
		targetKeys = append(targetKeys, b)
	}
	sub := cloneFindArgs(relArgs)
	targetID := target.IDFields[0]
	sub.Where = withInFilter(sub.Where, targetID, targetKeys)
	ensureSelected(sub, targetID)
	related, err := h.FindMany(ctx, target.Name, sub)
	if err != nil {
		return err
	}
	byID := map[any]map[string]any{}
	for _, r := range related {
		byID[normKey(r[targetID])] = r
	}
	for _, r := range rows {
		var group []map[string]any
		for _, tk := range link[normKey(r[ownID])] {
			if t, ok := byID[tk]; ok {
				group = append(group, t)
			}
		}
		if group == nil {
			group = []map[string]any{}
		}
		r[f.Name] = group
	}
	return nil
}

func cloneFindArgs(a *FindArgs) *FindArgs {
	cp := *a
	if a.Where != nil {
		cp.Where = map[string]any{"AND": []any{map[string]any(a.Where)}}
	}
	return &cp
}

func withInFilter(f Filter, field string, keys []any) Filter {
	in := map[string]any{field: map[string]any{"in": keys}}
	if f == nil {
		return in
	}
	return map[string]any{"AND": []any{map[string]any(f), in}}
}

func ensureSelected(a *FindArgs, field string) {
	if a.Select != nil && !contains(a.Select, field) {
		a.Select = append(a.Select, field)
	}
}

func keyValues(rows []map[string]any, field string) []any {
	seen := map[any]bool{}
	var out []any
	for _, r := range rows {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		k := normKey(v)
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

// normKey folds integer widths so int64 driver values match int inputs.
func normKey(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	}
	return v
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var out int64
		fmt.Sscanf(n, "%d", &out)
		return out
	}
	return 0
}
