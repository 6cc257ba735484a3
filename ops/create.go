package ops

import (
	"context"
	"fmt"
	"sort"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// Create inserts one row (plus its nested writes) transactionally and
// returns its readable shape. Creating a delegate model directly is an
// input error; concrete models extending a delegate insert the base
// rows alongside their own.
func (h *Handler) Create(ctx context.Context, model string, args *CreateArgs) (map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if m.IsDelegate {
		return nil, zen.NewValidationError(model, fmt.Errorf("cannot create delegate model %s directly; create a concrete sub-model", model))
	}
	if args == nil || args.Data == nil {
		return nil, zen.NewValidationError("data", fmt.Errorf("create requires data"))
	}
	var created map[string]any
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		ids, err := h.createRow(ctx, m, args.Data)
		if err != nil {
			return err
		}
		if err := h.readBackMutation(ctx, m, ids, schema.OpCreate); err != nil {
			return err
		}
		created, err = h.fetchByIDs(ctx, m, ids, &args.FindArgs)
		return err
	})
	if err != nil {
		return nil, err
	}
	info := &MutationInfo{Model: model, Action: "create", Data: args.Data, Row: created}
	if err := h.runAfterHooks(ctx, info, false); err != nil {
		return nil, err
	}
	return created, nil
}

// createRow performs one create (without its own transaction) and
// returns the id fields of the new row. It is shared by top-level
// create, nested creates, connectOrCreate and upsert.
func (h *Handler) createRow(ctx context.Context, m *schema.Model, data map[string]any) (map[string]any, error) {
	scalars, nested, err := h.splitData(m, data, false)
	if err != nil {
		return nil, err
	}
	// Parent-side relations first: they produce the FK values this row
	// carries.
	supplied, err := h.resolveParentNested(ctx, m, scalars, nested)
	if err != nil {
		return nil, err
	}
	if m.BaseModel != "" {
		// The shared primary key arrives from the base-most insert.
		supplied = append(supplied, m.IDFields...)
	}
	if h.opts.Validate {
		if err := h.val.ValidateCreate(m.Name, scalars, supplied...); err != nil {
			return nil, err
		}
	}
	if h.opts.Policy != nil {
		if err := h.opts.Policy.CheckFieldWrites(m.Name, schema.OpCreate, h.opts.Auth, scalars); err != nil {
			return nil, wrapPolicyErr(m.Name, "create", err)
		}
	}
	h.applyDefaults(m, scalars)
	info := &MutationInfo{Model: m.Name, Action: "create", Data: scalars}
	if err := h.runBeforeHooks(ctx, info); err != nil {
		return nil, err
	}

	// Delegate ancestry: insert base rows first, discriminator tagged
	// with the concrete model name.
	ancestry := m.Ancestry(h.sch)
	for _, anc := range ancestry[:len(ancestry)-1] {
		if anc.IsDelegate {
			scalars[anc.Discriminator] = m.Name
		}
	}
	var ids map[string]any
	for _, anc := range ancestry {
		rowIDs, err := h.insertModelRow(ctx, anc, m, scalars, ids)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = rowIDs
		}
	}
	// Child-side relations after: their rows carry FKs back to us.
	if err := h.resolveChildNested(ctx, m, ids, nested); err != nil {
		return nil, err
	}
	info.Row = ids
	if err := h.runAfterHooks(ctx, info, true); err != nil {
		return nil, err
	}
	return ids, nil
}

// insertModelRow inserts the slice of scalars owned by anc (one table
// of the ancestry chain). sharedIDs carries the id values generated by
// the base-most insert, copied into every descendant row.
func (h *Handler) insertModelRow(ctx context.Context, anc, concrete *schema.Model, scalars, sharedIDs map[string]any) (map[string]any, error) {
	ins := sql.Insert(anc.TableName())
	ins.SetDialect(h.dialect())
	if anc.DBSchema != "" {
		ins.Schema(anc.DBSchema)
	}
	var cols []string
	var vals []any
	addValue := func(f *schema.Field, v any) error {
		enc, err := h.encodeValue(f, v)
		if err != nil {
			return err
		}
		cols = append(cols, f.ColumnName())
		vals = append(vals, enc)
		return nil
	}
	for _, f := range anc.ScalarFields() {
		if sharedIDs != nil && contains(anc.IDFields, f.Name) {
			base := concrete.IDFields[indexOf(anc.IDFields, f.Name)]
			if err := addValue(f, sharedIDs[base]); err != nil {
				return nil, err
			}
			continue
		}
		v, present := scalars[f.Name]
		if !present {
			continue
		}
		if err := addValue(f, v); err != nil {
			return nil, err
		}
	}
	if len(cols) == 0 {
		ins.Default()
	} else {
		ins.Columns(cols...).Values(vals...)
	}

	ids := make(map[string]any, len(anc.IDFields))
	missing := []string{}
	for _, idf := range anc.IDFields {
		if v, ok := scalars[idf]; ok {
			ids[idf] = v
		} else if sharedIDs != nil {
			ids[idf] = sharedIDs[concrete.IDFields[indexOf(anc.IDFields, idf)]]
		} else {
			missing = append(missing, idf)
		}
	}
	if len(missing) > 0 && h.sch.Provider.SupportsReturning() {
		cols := make([]string, len(missing))
		for i, name := range missing {
			cols[i] = anc.Field(name).ColumnName()
		}
		ins.Returning(cols...)
		rows, err := h.eng.ExecReturning(ctx, ins)
		if err != nil {
			return nil, zen.NewMutationError(anc.Name, "create", err)
		}
		if len(rows) == 0 {
			return nil, zen.NewMutationError(anc.Name, "create", fmt.Errorf("insert returned no row"))
		}
		for i, name := range missing {
			ids[name] = rows[0][cols[i]]
		}
		return ids, nil
	}
	res, err := h.eng.Exec(ctx, ins)
	if err != nil {
		return nil, zen.NewMutationError(anc.Name, "create", err)
	}
	if len(missing) == 1 {
		// Autoincrement key on a provider without RETURNING.
		last, err := res.LastInsertId()
		if err != nil {
			return nil, zen.NewMutationError(anc.Name, "create", err)
		}
		ids[missing[0]] = last
	}
	return ids, nil
}

// splitData separates scalar assignments from nested relation writes.
// Discriminator columns of delegate ancestors are never client
// writable.
func (h *Handler) splitData(m *schema.Model, data map[string]any, forUpdate bool) (map[string]any, map[string]*Nested, error) {
	scalars := map[string]any{}
	nested := map[string]*Nested{}
	for key, v := range data {
		f := h.fieldInAncestry(m, key)
		if f == nil {
			return nil, nil, zen.NewValidationError(key, fmt.Errorf("unknown field %q on %s", key, m.Name))
		}
		if h.isDiscriminator(m, key) {
			return nil, nil, zen.NewValidationError(key, fmt.Errorf("discriminator field %q is not writable", key))
		}
		if f.IsRelation() {
			n, ok := v.(*Nested)
			if !ok {
				return nil, nil, zen.NewValidationError(key, fmt.Errorf("relation field %q requires a nested write object", key))
			}
			if err := validNestedForVerb(key, n, forUpdate); err != nil {
				return nil, nil, err
			}
			nested[key] = n
			continue
		}
		if f.Computed {
			return nil, nil, zen.NewValidationError(key, fmt.Errorf("computed field %q is not writable", key))
		}
		scalars[key] = v
	}
	return scalars, nested, nil
}

func validNestedForVerb(field string, n *Nested, forUpdate bool) error {
	if forUpdate {
		return nil
	}
	if len(n.Disconnect) > 0 || len(n.Set) > 0 || len(n.Update) > 0 ||
		len(n.UpdateMany) > 0 || len(n.Upsert) > 0 || len(n.Delete) > 0 || len(n.DeleteMany) > 0 {
		return zen.NewValidationError(field, fmt.Errorf("nested write variant not allowed in create"))
	}
	return nil
}

func (h *Handler) isDiscriminator(m *schema.Model, field string) bool {
	for _, anc := range m.Ancestry(h.sch) {
		if anc.IsDelegate && anc.Discriminator == field {
			return true
		}
	}
	return false
}

// resolveParentNested handles the relation writes this model owns the
// FK for: the related row must exist first. It fills the FK scalars
// and returns their names.
func (h *Handler) resolveParentNested(ctx context.Context, m *schema.Model, scalars map[string]any, nested map[string]*Nested) ([]string, error) {
	var supplied []string
	for _, relName := range sortedNestedKeys(nested) {
		n := nested[relName]
		f := h.fieldInAncestry(m, relName)
		if !f.Relation.Owner() {
			continue
		}
		delete(nested, relName)
		target := h.sch.Model(f.Type)
		var ref map[string]any
		switch {
		case len(n.Connect) == 1:
			row, err := h.requireUnique(ctx, target, n.Connect[0])
			if err != nil {
				return nil, err
			}
			ref = row
		case len(n.Create) == 1:
			ids, err := h.createRow(ctx, target, n.Create[0])
			if err != nil {
				return nil, err
			}
			ref, err = h.rowByIDs(ctx, target, ids)
			if err != nil {
				return nil, err
			}
		case len(n.ConnectOrCreate) == 1:
			coc := n.ConnectOrCreate[0]
			row, err := h.FindUnique(ctx, target.Name, &FindArgs{Where: coc.Where})
			if err != nil {
				return nil, err
			}
			if row == nil {
				ids, err := h.createRow(ctx, target, coc.Create)
				if err != nil {
					return nil, err
				}
				row, err = h.rowByIDs(ctx, target, ids)
				if err != nil {
					return nil, err
				}
			}
			ref = row
		default:
			return nil, zen.NewValidationError(relName, fmt.Errorf("to-one relation %q accepts exactly one create, connect or connectOrCreate", relName))
		}
		for i, fkName := range f.Relation.Fields {
			scalars[fkName] = ref[f.Relation.References[i]]
			supplied = append(supplied, fkName)
		}
	}
	return supplied, nil
}

// resolveChildNested handles relation writes whose FK lives on the
// related row: they run after this row exists.
func (h *Handler) resolveChildNested(ctx context.Context, m *schema.Model, ids map[string]any, nested map[string]*Nested) error {
	for _, relName := range sortedNestedKeys(nested) {
		n := nested[relName]
		f := h.fieldInAncestry(m, relName)
		target := h.sch.Model(f.Type)
		opp := target.Field(f.Relation.Opposite)
		if opp == nil || !opp.Relation.Owner() {
			return zen.NewValidationError(relName, fmt.Errorf("nested writes on relation %q are not supported (no owning side)", relName))
		}
		fkAssign := func(data map[string]any) map[string]any {
			out := map[string]any{}
			for k, v := range data {
				out[k] = v
			}
			for i, fkName := range opp.Relation.Fields {
				out[fkName] = ids[opp.Relation.References[i]]
			}
			return out
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
			if err := h.setForeignKey(ctx, target, row, opp, ids); err != nil {
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
			if err := h.setForeignKey(ctx, target, row, opp, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

// setForeignKey points an existing related row at the parent ids.
func (h *Handler) setForeignKey(ctx context.Context, target *schema.Model, row map[string]any, opp *schema.Field, ids map[string]any) error {
	upd := sql.Update(target.TableName())
	upd.SetDialect(h.dialect())
	if target.DBSchema != "" {
		upd.Schema(target.DBSchema)
	}
	for i, fkName := range opp.Relation.Fields {
		fk := target.Field(fkName)
		val := ids[opp.Relation.References[i]]
		upd.Set(fk.ColumnName(), val)
	}
	for _, idf := range target.IDFields {
		upd.Where(sql.EQ(target.Field(idf).ColumnName(), row[idf]))
	}
	if _, err := h.eng.Exec(ctx, upd); err != nil {
		return zen.NewMutationError(target.Name, "connect", err)
	}
	return nil
}

// requireUnique fetches a row by unique criterion or fails NOT_FOUND.
func (h *Handler) requireUnique(ctx context.Context, m *schema.Model, where map[string]any) (map[string]any, error) {
	row, err := h.FindUnique(ctx, m.Name, &FindArgs{Where: where})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, zen.NewNotFoundError(m.Name)
	}
	return row, nil
}

// rowByIDs reads the full row addressed by its id fields, bypassing
// select shaping.
func (h *Handler) rowByIDs(ctx context.Context, m *schema.Model, ids map[string]any) (map[string]any, error) {
	where := map[string]any{}
	for k, v := range ids {
		where[k] = v
	}
	row, err := h.FindFirst(ctx, m.Name, &FindArgs{Where: where})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, zen.NewNotFoundError(m.Name)
	}
	return row, nil
}

// fetchByIDs reads the mutated row back with the caller's projection.
func (h *Handler) fetchByIDs(ctx context.Context, m *schema.Model, ids map[string]any, shape *FindArgs) (map[string]any, error) {
	args := &FindArgs{}
	if shape != nil {
		args.Select = shape.Select
		args.Omit = shape.Omit
		args.Include = shape.Include
	}
	args.Where = map[string]any{}
	for k, v := range ids {
		args.Where[k] = v
	}
	return h.FindFirst(ctx, m.Name, args)
}

// readBackMutation verifies, inside the mutation's transaction, that
// the written row still satisfies the op rule and remains readable.
// Violations roll the transaction back.
func (h *Handler) readBackMutation(ctx context.Context, m *schema.Model, ids map[string]any, op schema.Operation) error {
	if h.opts.Policy == nil {
		return nil
	}
	check := func(op schema.Operation, reason zen.PrivacyReason) error {
		if !h.opts.Policy.HasPolicies(m.Name, op) {
			return nil
		}
		s := h.selectorFor(m)
		s.Select(sql.As(sql.Count("*"), "count"))
		for k, v := range ids {
			f := m.Field(k)
			if f == nil {
				f = h.fieldInAncestry(m, k)
			}
			s.Where(sql.EQ(s.C(f.ColumnName()), v))
		}
		if err := h.opts.Policy.Apply(s, m.Name, op, h.opts.Auth); err != nil {
			return err
		}
		rows, err := h.eng.Query(ctx, s)
		if err != nil {
			return zen.NewQueryError(m.Name, "policy read-back", err)
		}
		if len(rows) == 0 || toInt64(rows[0]["count"]) == 0 {
			return zen.NewPrivacyErrorWithReason(m.Name, opString(op), "", reason)
		}
		return nil
	}
	if err := check(op, zen.NoAccess); err != nil {
		return err
	}
	if op != schema.OpRead {
		return check(schema.OpRead, zen.CannotReadBack)
	}
	return nil
}

func opString(op schema.Operation) string {
	switch op {
	case schema.OpCreate:
		return "create"
	case schema.OpUpdate:
		return "update"
	case schema.OpDelete:
		return "delete"
	case schema.OpRead:
		return "read"
	case schema.OpPostUpdate:
		return "post-update"
	}
	return "all"
}

func wrapPolicyErr(model, op string, err error) error {
	return zen.NewPrivacyError(model, op, err.Error())
}

func sortedNestedKeys(m map[string]*Nested) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return 0
}
