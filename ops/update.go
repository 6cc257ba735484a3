package ops

import (
	"context"
	"fmt"
	"time"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	privacy "github.com/zenstack-dev/zen-go/policy"
	"github.com/zenstack-dev/zen-go/schema"
)

// Update mutates the row addressed by a unique criterion and returns
// its readable shape. Nested relation writes run in the same
// transaction; post-update policies see the pre-image.
func (h *Handler) Update(ctx context.Context, model string, args *UpdateArgs) (map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if m.IsDelegate {
		return nil, zen.NewValidationError(model, fmt.Errorf("cannot update delegate model %s directly", model))
	}
	if args == nil || args.Where == nil {
		return nil, zen.NewValidationError("where", fmt.Errorf("update requires a unique criterion"))
	}
	if _, ok := m.UniqueCriterion(args.Where); !ok {
		return nil, zen.NewValidationError("where", fmt.Errorf("update requires a unique criterion"))
	}
	var updated map[string]any
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		pre, err := h.lockTarget(ctx, m, args.Where)
		if err != nil {
			return err
		}
		ids := idValues(m, pre)
		if err := h.updateRow(ctx, m, ids, pre, args.Data); err != nil {
			return err
		}
		if err := h.readBackMutation(ctx, m, ids, schema.OpUpdate); err != nil {
			return err
		}
		if err := h.checkPostUpdate(ctx, m, ids, pre); err != nil {
			return err
		}
		updated, err = h.fetchByIDs(ctx, m, ids, &args.FindArgs)
		return err
	})
	if err != nil {
		return nil, err
	}
	info := &MutationInfo{Model: model, Action: "update", Data: args.Data, Row: updated}
	if err := h.runAfterHooks(ctx, info, false); err != nil {
		return nil, err
	}
	return updated, nil
}

// lockTarget fetches the pre-image of the row being mutated, under the
// model's update policy: a row that exists but is not updatable for
// the auth context surfaces as a policy rejection, a missing row as
// NOT_FOUND.
func (h *Handler) lockTarget(ctx context.Context, m *schema.Model, where map[string]any) (map[string]any, error) {
	s, _, err := h.buildUnguardedSelect(m, where)
	if err != nil {
		return nil, err
	}
	rows, err := h.eng.Query(ctx, s)
	if err != nil {
		return nil, zen.NewQueryError(m.Name, "update", err)
	}
	if len(rows) == 0 {
		return nil, zen.NewNotFoundError(m.Name)
	}
	pre := h.decodeRow(m, rows[0])
	if h.opts.Policy != nil && h.opts.Policy.HasPolicies(m.Name, schema.OpUpdate) {
		guarded, _, err := h.buildUnguardedSelect(m, where)
		if err != nil {
			return nil, err
		}
		if err := h.opts.Policy.Apply(guarded, m.Name, schema.OpUpdate, h.opts.Auth); err != nil {
			return nil, err
		}
		rows, err := h.eng.Query(ctx, guarded)
		if err != nil {
			return nil, zen.NewQueryError(m.Name, "update", err)
		}
		if len(rows) == 0 {
			return nil, zen.NewPrivacyErrorWithReason(m.Name, "update", "", zen.NoAccess)
		}
	}
	return pre, nil
}

// buildUnguardedSelect selects the full scalar row by a plain filter,
// without read-policy injection.
func (h *Handler) buildUnguardedSelect(m *schema.Model, where Filter) (*sql.Selector, *filterCtx, error) {
	s := h.selectorFor(m)
	fc := h.newFilterCtx(s, m)
	h.joinAncestry(s, fc, m)
	plan := h.planFields(m, nil, nil)
	cols := make([]string, 0, len(plan.fields))
	for _, f := range plan.fields {
		owner := h.ancestorOwning(m, f.Name)
		ref := fc.tables[owner.Name]
		cols = append(cols, sql.As(ref.C(f.ColumnName()), f.Name))
	}
	s.Select(cols...)
	p, err := fc.compile(where)
	if err != nil {
		return nil, nil, err
	}
	s.Where(p)
	return s, fc, nil
}

// updateRow validates and applies one row's scalar update plus its
// nested relation writes.
func (h *Handler) updateRow(ctx context.Context, m *schema.Model, ids, pre, data map[string]any) error {
	scalars, nested, err := h.splitData(m, data, true)
	if err != nil {
		return err
	}
	if h.opts.Validate {
		if err := h.val.ValidateUpdate(m.Name, scalars); err != nil {
			return err
		}
	}
	if h.opts.Policy != nil {
		if err := h.opts.Policy.CheckFieldWrites(m.Name, schema.OpUpdate, h.opts.Auth, scalars); err != nil {
			return wrapPolicyErr(m.Name, "update", err)
		}
	}
	info := &MutationInfo{Model: m.Name, Action: "update", Data: scalars, Row: pre}
	if err := h.runBeforeHooks(ctx, info); err != nil {
		return err
	}
	// @updatedAt columns refresh on every update.
	for _, f := range m.ScalarFields() {
		if f.UpdatedAt {
			if _, present := scalars[f.Name]; !present {
				scalars[f.Name] = time.Now().UTC()
			}
		}
	}
	if len(scalars) > 0 {
		if err := h.execScalarUpdate(ctx, m, ids, scalars); err != nil {
			return err
		}
	}
	if err := h.applyNestedUpdates(ctx, m, ids, nested); err != nil {
		return err
	}
	return h.runAfterHooks(ctx, info, true)
}

// execScalarUpdate writes the scalar assignments of one row, routing
// inherited fields to the ancestor table owning them.
func (h *Handler) execScalarUpdate(ctx context.Context, m *schema.Model, ids, scalars map[string]any) error {
	byOwner := map[string]map[string]any{}
	for name, v := range scalars {
		owner := h.ancestorOwning(m, name)
		if byOwner[owner.Name] == nil {
			byOwner[owner.Name] = map[string]any{}
		}
		byOwner[owner.Name][name] = v
	}
	for _, anc := range m.Ancestry(h.sch) {
		assign := byOwner[anc.Name]
		if len(assign) == 0 {
			continue
		}
		upd := sql.Update(anc.TableName())
		upd.SetDialect(h.dialect())
		if anc.DBSchema != "" {
			upd.Schema(anc.DBSchema)
		}
		for _, name := range sortedKeys(assign) {
			f := anc.Field(name)
			enc, err := h.encodeValue(f, assign[name])
			if err != nil {
				return err
			}
			if enc == nil {
				upd.SetNull(f.ColumnName())
				continue
			}
			upd.Set(f.ColumnName(), enc)
		}
		for i, idf := range anc.IDFields {
			upd.Where(sql.EQ(anc.Field(idf).ColumnName(), ids[m.IDFields[i]]))
		}
		if _, err := h.eng.Exec(ctx, upd); err != nil {
			return zen.NewMutationError(anc.Name, "update", err)
		}
	}
	return nil
}

// applyNestedUpdates executes the relation-write variants of an update
// payload.
func (h *Handler) applyNestedUpdates(ctx context.Context, m *schema.Model, ids map[string]any, nested map[string]*Nested) error {
	for _, relName := range sortedNestedKeys(nested) {
		n := nested[relName]
		f := h.fieldInAncestry(m, relName)
		target := h.sch.Model(f.Type)
		if f.Relation.Owner() {
			if err := h.nestedOwnerUpdate(ctx, m, f, target, ids, n); err != nil {
				return err
			}
			continue
		}
		opp := target.Field(f.Relation.Opposite)
		if opp == nil || !opp.Relation.Owner() {
			return zen.NewValidationError(relName, fmt.Errorf("nested writes on relation %q are not supported", relName))
		}
		if err := h.nestedChildUpdate(ctx, m, f, target, opp, ids, n); err != nil {
			return err
		}
	}
	return nil
}

// nestedOwnerUpdate manipulates a to-one relation whose FK lives on
// this row: connect repoints the FK, disconnect clears it.
func (h *Handler) nestedOwnerUpdate(ctx context.Context, m *schema.Model, f *schema.Field, target *schema.Model, ids map[string]any, n *Nested) error {
	setFK := func(vals map[string]any) error {
		assign := map[string]any{}
		for i, fkName := range f.Relation.Fields {
			if vals == nil {
				assign[fkName] = nil
			} else {
				assign[fkName] = vals[f.Relation.References[i]]
			}
		}
		return h.execScalarUpdate(ctx, m, ids, assign)
	}
	switch {
	case len(n.Connect) == 1:
		row, err := h.requireUnique(ctx, target, n.Connect[0])
		if err != nil {
			return err
		}
		return setFK(row)
	case len(n.Disconnect) == 1:
		return setFK(nil)
	case len(n.Create) == 1:
		newIDs, err := h.createRow(ctx, target, n.Create[0])
		if err != nil {
			return err
		}
		row, err := h.rowByIDs(ctx, target, newIDs)
		if err != nil {
			return err
		}
		return setFK(row)
	case len(n.Update) == 1:
		cur, err := h.currentRelated(ctx, m, f, target, ids)
		if err != nil {
			return err
		}
		if cur == nil {
			return zen.NewNotFoundError(target.Name)
		}
		return h.updateRow(ctx, target, idValues(target, cur), cur, n.Update[0].Data)
	case len(n.Delete) == 1:
		cur, err := h.currentRelated(ctx, m, f, target, ids)
		if err != nil {
			return err
		}
		if cur == nil {
			return zen.NewNotFoundError(target.Name)
		}
		if err := setFK(nil); err != nil {
			return err
		}
		return h.deleteByIDs(ctx, target, idValues(target, cur))
	}
	return nil
}

// currentRelated loads the row a to-one relation currently points at.
func (h *Handler) currentRelated(ctx context.Context, m *schema.Model, f *schema.Field, target *schema.Model, ids map[string]any) (map[string]any, error) {
	self, err := h.rowByIDs(ctx, m, ids)
	if err != nil {
		return nil, err
	}
	where := map[string]any{}
	for i, fkName := range f.Relation.Fields {
		v := self[fkName]
		if v == nil {
			return nil, nil
		}
		where[f.Relation.References[i]] = v
	}
	return h.FindFirst(ctx, target.Name, &FindArgs{Where: where})
}

// nestedChildUpdate manipulates a to-many (or inverse to-one) relation
// whose FK lives on the target rows.
func (h *Handler) nestedChildUpdate(ctx context.Context, m *schema.Model, f *schema.Field, target *schema.Model, opp *schema.Field, ids map[string]any, n *Nested) error {
	fkFilter := map[string]any{}
	for i, fkName := range opp.Relation.Fields {
		fkFilter[fkName] = ids[opp.Relation.References[i]]
	}
	fkAssign := func(data map[string]any) map[string]any {
		out := map[string]any{}
		for k, v := range data {
			out[k] = v
		}
		for k, v := range fkFilter {
			out[k] = v
		}
		return out
	}
	clearFK := func(where map[string]any) error {
		row, err := h.requireUnique(ctx, target, where)
		if err != nil {
			return err
		}
		assign := map[string]any{}
		for _, fkName := range opp.Relation.Fields {
			assign[fkName] = nil
		}
		return h.execScalarUpdate(ctx, target, idValues(target, row), assign)
	}
	for _, create := range n.Create {
		if _, err := h.createRow(ctx, target, fkAssign(create)); err != nil {
			return err
		}
	}
	if n.CreateMany != nil {
		rows := make([]map[string]any, len(n.CreateMany.Data))
		for i, r := range n.CreateMany.Data {
			rows[i] = fkAssign(r)
		}
		if _, err := h.CreateMany(ctx, target.Name, &CreateManyArgs{Data: rows, SkipDuplicates: n.CreateMany.SkipDuplicates}); err != nil {
			return err
		}
	}
	for _, connect := range n.Connect {
		row, err := h.requireUnique(ctx, target, connect)
		if err != nil {
			return err
		}
		if err := h.execScalarUpdate(ctx, target, idValues(target, row), fkAssign(map[string]any{})); err != nil {
			return err
		}
	}
	for _, coc := range n.ConnectOrCreate {
		row, err := h.FindUnique(ctx, target.Name, &FindArgs{Where: coc.Where})
		if err != nil {
			return err
		}
		if row == nil {
			if _, err := h.createRow(ctx, target, fkAssign(coc.Create)); err != nil {
				return err
			}
			continue
		}
		if err := h.execScalarUpdate(ctx, target, idValues(target, row), fkAssign(map[string]any{})); err != nil {
			return err
		}
	}
	for _, disc := range n.Disconnect {
		if err := clearFK(disc); err != nil {
			return err
		}
	}
	if n.Set != nil {
		// Full replacement: sever every current member, then connect
		// the named set.
		current, err := h.FindMany(ctx, target.Name, &FindArgs{Where: fkFilter})
		if err != nil {
			return err
		}
		assignNil := map[string]any{}
		for _, fkName := range opp.Relation.Fields {
			assignNil[fkName] = nil
		}
		for _, row := range current {
			if err := h.execScalarUpdate(ctx, target, idValues(target, row), assignNil); err != nil {
				return err
			}
		}
		for _, member := range n.Set {
			row, err := h.requireUnique(ctx, target, member)
			if err != nil {
				return err
			}
			if err := h.execScalarUpdate(ctx, target, idValues(target, row), fkAssign(map[string]any{})); err != nil {
				return err
			}
		}
	}
	for _, upd := range n.Update {
		row, err := h.requireUnique(ctx, target, mergeFilters(upd.Where, fkFilter))
		if err != nil {
			return err
		}
		if err := h.updateRow(ctx, target, idValues(target, row), row, upd.Data); err != nil {
			return err
		}
	}
	for _, um := range n.UpdateMany {
		if _, err := h.UpdateMany(ctx, target.Name, &UpdateArgs{Where: mergeFilters(um.Where, fkFilter), Data: um.Data, Limit: um.Limit}); err != nil {
			return err
		}
	}
	for _, up := range n.Upsert {
		row, err := h.FindUnique(ctx, target.Name, &FindArgs{Where: up.Where})
		if err != nil {
			return err
		}
		if row == nil {
			if _, err := h.createRow(ctx, target, fkAssign(up.Create)); err != nil {
				return err
			}
			continue
		}
		if err := h.updateRow(ctx, target, idValues(target, row), row, up.Update); err != nil {
			return err
		}
	}
	for _, del := range n.Delete {
		row, err := h.requireUnique(ctx, target, mergeFilters(del, fkFilter))
		if err != nil {
			return err
		}
		if err := h.deleteByIDs(ctx, target, idValues(target, row)); err != nil {
			return err
		}
	}
	for _, dm := range n.DeleteMany {
		if _, err := h.DeleteMany(ctx, target.Name, &DeleteArgs{Where: mergeFilters(dm, fkFilter)}); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMany updates every matching row (bounded by Limit) and returns
// the affected count.
func (h *Handler) UpdateMany(ctx context.Context, model string, args *UpdateArgs) (int64, error) {
	m, err := h.model(model)
	if err != nil {
		return 0, err
	}
	if args == nil {
		args = &UpdateArgs{}
	}
	rows, err := h.matchForBulk(ctx, m, args.Where, args.Limit, schema.OpUpdate)
	if err != nil {
		return 0, err
	}
	var n int64
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			ids := idValues(m, row)
			if err := h.updateRow(ctx, m, ids, row, args.Data); err != nil {
				return err
			}
			if err := h.readBackMutation(ctx, m, ids, schema.OpUpdate); err != nil {
				return err
			}
			if err := h.checkPostUpdate(ctx, m, ids, row); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateManyAndReturn is UpdateMany returning the updated rows. It
// requires RETURNING-capable providers.
func (h *Handler) UpdateManyAndReturn(ctx context.Context, model string, args *UpdateArgs) ([]map[string]any, error) {
	if !h.sch.Provider.SupportsReturning() {
		return nil, zen.NewNotSupportedError("updateManyAndReturn", fmt.Sprintf("provider %s does not support RETURNING", h.sch.Provider))
	}
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = &UpdateArgs{}
	}
	var out []map[string]any
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		rows, err := h.matchForBulk(ctx, m, args.Where, args.Limit, schema.OpUpdate)
		if err != nil {
			return err
		}
		for _, row := range rows {
			ids := idValues(m, row)
			if err := h.updateRow(ctx, m, ids, row, args.Data); err != nil {
				return err
			}
			if err := h.readBackMutation(ctx, m, ids, schema.OpUpdate); err != nil {
				return err
			}
			if err := h.checkPostUpdate(ctx, m, ids, row); err != nil {
				return err
			}
			updated, err := h.fetchByIDs(ctx, m, ids, &args.FindArgs)
			if err != nil {
				return err
			}
			if updated != nil {
				out = append(out, updated)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// matchForBulk resolves the rows a bulk mutation touches, applying the
// op policy filter and the optional limit.
func (h *Handler) matchForBulk(ctx context.Context, m *schema.Model, where Filter, limit *int, op schema.Operation) ([]map[string]any, error) {
	s, _, err := h.buildUnguardedSelect(m, where)
	if err != nil {
		return nil, err
	}
	if h.opts.Policy != nil {
		if err := h.opts.Policy.Apply(s, m.Name, op, h.opts.Auth); err != nil {
			return nil, err
		}
	}
	if limit != nil && *limit >= 0 {
		for _, idf := range m.IDFields {
			s.OrderBy(s.C(m.Field(idf).ColumnName()))
		}
		s.Limit(*limit)
	}
	rows, err := h.eng.Query(ctx, s)
	if err != nil {
		return nil, zen.NewQueryError(m.Name, opString(op)+"Many", err)
	}
	for i := range rows {
		rows[i] = h.decodeRow(m, rows[i])
	}
	return rows, nil
}

// Upsert atomically updates the row matching the unique criterion, or
// creates it when absent.
func (h *Handler) Upsert(ctx context.Context, model string, args *UpsertArgs) (map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil || args.Where == nil {
		return nil, zen.NewValidationError("where", fmt.Errorf("upsert requires a unique criterion"))
	}
	if _, ok := m.UniqueCriterion(args.Where); !ok {
		return nil, zen.NewValidationError("where", fmt.Errorf("upsert requires a unique criterion"))
	}
	var result map[string]any
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		existing, err := h.FindUnique(ctx, model, &FindArgs{Where: args.Where})
		if err != nil {
			return err
		}
		if existing != nil {
			result, err = h.Update(ctx, model, &UpdateArgs{Where: args.Where, Data: args.Update, FindArgs: args.FindArgs})
			return err
		}
		result, err = h.Create(ctx, model, &CreateArgs{Data: args.Create, FindArgs: args.FindArgs})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkPostUpdate evaluates the model's post-update rules against the
// pre- and post-image, inside the transaction.
func (h *Handler) checkPostUpdate(ctx context.Context, m *schema.Model, ids, pre map[string]any) error {
	if h.opts.Policy == nil || !h.opts.Policy.HasPolicies(m.Name, schema.OpPostUpdate) {
		return nil
	}
	post, err := h.rowByIDs(ctx, m, ids)
	if err != nil {
		return err
	}
	ok, err := h.opts.Policy.EvalRow(m.Name, schema.OpPostUpdate, h.opts.Auth, privacy.RowImages{Pre: pre, Post: post})
	if err != nil {
		return err
	}
	if !ok {
		return zen.NewPrivacyErrorWithReason(m.Name, "post-update", "", zen.NoAccess)
	}
	return nil
}

func idValues(m *schema.Model, row map[string]any) map[string]any {
	ids := make(map[string]any, len(m.IDFields))
	for _, idf := range m.IDFields {
		ids[idf] = row[idf]
	}
	return ids
}

func mergeFilters(a map[string]any, b map[string]any) map[string]any {
	if a == nil {
		a = map[string]any{}
	}
	return map[string]any{"AND": []any{a, b}}
}

