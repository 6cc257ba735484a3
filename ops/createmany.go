package ops

import (
	"context"
	"fmt"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// CreateMany inserts scalar-only rows in one statement and returns the
// inserted count. With SkipDuplicates, conflicting rows are skipped
// and excluded from the count.
func (h *Handler) CreateMany(ctx context.Context, model string, args *CreateManyArgs) (int64, error) {
	ins, _, err := h.buildCreateMany(model, args)
	if err != nil {
		return 0, err
	}
	if ins == nil {
		return 0, nil
	}
	res, err := h.eng.Exec(ctx, ins)
	if err != nil {
		return 0, zen.NewMutationError(model, "createMany", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, zen.NewMutationError(model, "createMany", err)
	}
	return n, nil
}

// CreateManyAndReturn inserts scalar-only rows and returns them. Only
// providers with RETURNING support it; MySQL surfaces NOT_SUPPORTED.
func (h *Handler) CreateManyAndReturn(ctx context.Context, model string, args *CreateManyArgs) ([]map[string]any, error) {
	if !h.sch.Provider.SupportsReturning() {
		return nil, zen.NewNotSupportedError("createManyAndReturn", fmt.Sprintf("provider %s does not support RETURNING", h.sch.Provider))
	}
	ins, m, err := h.buildCreateMany(model, args)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, nil
	}
	plan := h.planFields(m, nil, nil)
	cols := make([]string, 0, len(plan.fields))
	for _, f := range plan.fields {
		cols = append(cols, f.ColumnName())
	}
	ins.Returning(cols...)
	rows, err := h.eng.ExecReturning(ctx, ins)
	if err != nil {
		return nil, zen.NewMutationError(model, "createManyAndReturn", err)
	}
	out := make([]map[string]any, len(rows))
	for i, raw := range rows {
		row := make(map[string]any, len(raw))
		for _, f := range plan.fields {
			if v, ok := raw[f.ColumnName()]; ok {
				row[f.Name] = v
			}
		}
		out[i] = h.maskRow(model, h.decodeRow(m, row))
	}
	return out, nil
}

// buildCreateMany validates the rows and assembles the multi-VALUES
// insert. A nil insert with nil error means the input was empty.
func (h *Handler) buildCreateMany(model string, args *CreateManyArgs) (*sql.InsertBuilder, *schema.Model, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, nil, err
	}
	if m.IsDelegate {
		return nil, nil, zen.NewValidationError(model, fmt.Errorf("cannot create delegate model %s directly", model))
	}
	if m.BaseModel != "" {
		return nil, nil, zen.NewValidationError(model, fmt.Errorf("createMany is not supported on models extending a delegate; use create"))
	}
	if args == nil || len(args.Data) == 0 {
		return nil, nil, nil
	}
	// Validate and default every row first, then compute the union of
	// the provided columns so all VALUES tuples align.
	prepared := make([]map[string]any, len(args.Data))
	colSet := map[string]bool{}
	var colOrder []string
	for i, data := range args.Data {
		scalars, nested, err := h.splitData(m, data, false)
		if err != nil {
			return nil, nil, err
		}
		if len(nested) > 0 {
			return nil, nil, zen.NewValidationError("data", fmt.Errorf("createMany accepts scalar fields only"))
		}
		if h.opts.Validate {
			if err := h.val.ValidateCreate(m.Name, scalars); err != nil {
				return nil, nil, err
			}
		}
		if h.opts.Policy != nil {
			if err := h.opts.Policy.CheckFieldWrites(m.Name, schema.OpCreate, h.opts.Auth, scalars); err != nil {
				return nil, nil, wrapPolicyErr(m.Name, "createMany", err)
			}
		}
		h.applyDefaults(m, scalars)
		prepared[i] = scalars
		for _, f := range m.ScalarFields() {
			if _, ok := scalars[f.Name]; ok && !colSet[f.Name] {
				colSet[f.Name] = true
				colOrder = append(colOrder, f.Name)
			}
		}
	}
	ins := sql.Insert(m.TableName())
	ins.SetDialect(h.dialect())
	if m.DBSchema != "" {
		ins.Schema(m.DBSchema)
	}
	cols := make([]string, len(colOrder))
	for i, name := range colOrder {
		cols[i] = m.Field(name).ColumnName()
	}
	ins.Columns(cols...)
	for _, scalars := range prepared {
		vals := make([]any, len(colOrder))
		for i, name := range colOrder {
			v, ok := scalars[name]
			if !ok {
				continue
			}
			enc, err := h.encodeValue(m.Field(name), v)
			if err != nil {
				return nil, nil, err
			}
			vals[i] = enc
		}
		ins.Values(vals...)
	}
	if args.SkipDuplicates {
		ins.OnConflictDoNothing()
	}
	return ins, m, nil
}
