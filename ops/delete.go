package ops

import (
	"context"
	"fmt"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// Delete removes the row addressed by a unique criterion and returns
// its last readable shape.
func (h *Handler) Delete(ctx context.Context, model string, args *DeleteArgs) (map[string]any, error) {
	m, err := h.model(model)
	if err != nil {
		return nil, err
	}
	if args == nil || args.Where == nil {
		return nil, zen.NewValidationError("where", fmt.Errorf("delete requires a unique criterion"))
	}
	if _, ok := m.UniqueCriterion(args.Where); !ok {
		return nil, zen.NewValidationError("where", fmt.Errorf("delete requires a unique criterion"))
	}
	var deleted map[string]any
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		rows, err := h.matchForBulk(ctx, m, args.Where, nil, schema.OpDelete)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// Distinguish policy denial from plain absence.
			if h.opts.Policy != nil && h.opts.Policy.HasPolicies(m.Name, schema.OpDelete) {
				bare, _, err := h.buildUnguardedSelect(m, args.Where)
				if err != nil {
					return err
				}
				existing, err := h.eng.Query(ctx, bare)
				if err != nil {
					return zen.NewQueryError(m.Name, "delete", err)
				}
				if len(existing) > 0 {
					return zen.NewPrivacyErrorWithReason(m.Name, "delete", "", zen.NoAccess)
				}
			}
			return zen.NewNotFoundError(m.Name)
		}
		row := rows[0]
		deleted, err = h.fetchByIDs(ctx, m, idValues(m, row), &args.FindArgs)
		if err != nil {
			return err
		}
		info := &MutationInfo{Model: model, Action: "delete", Row: row}
		if err := h.runBeforeHooks(ctx, info); err != nil {
			return err
		}
		if err := h.deleteByIDs(ctx, m, idValues(m, row)); err != nil {
			return err
		}
		return h.runAfterHooks(ctx, info, true)
	})
	if err != nil {
		return nil, err
	}
	info := &MutationInfo{Model: model, Action: "delete", Row: deleted}
	if err := h.runAfterHooks(ctx, info, false); err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeleteMany removes every matching row (bounded by Limit) and returns
// the removed count.
func (h *Handler) DeleteMany(ctx context.Context, model string, args *DeleteArgs) (int64, error) {
	m, err := h.model(model)
	if err != nil {
		return 0, err
	}
	if args == nil {
		args = &DeleteArgs{}
	}
	var n int64
	err = h.eng.WithTx(ctx, func(ctx context.Context) error {
		rows, err := h.matchForBulk(ctx, m, args.Where, args.Limit, schema.OpDelete)
		if err != nil {
			return err
		}
		for _, row := range rows {
			info := &MutationInfo{Model: model, Action: "delete", Row: row}
			if err := h.runBeforeHooks(ctx, info); err != nil {
				return err
			}
			if err := h.deleteByIDs(ctx, m, idValues(m, row)); err != nil {
				return err
			}
			if err := h.runAfterHooks(ctx, info, true); err != nil {
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

// deleteByIDs removes one row, cascading from the concrete table up
// through its delegate ancestry.
func (h *Handler) deleteByIDs(ctx context.Context, m *schema.Model, ids map[string]any) error {
	ancestry := m.Ancestry(h.sch)
	// Concrete first, base last, so FK constraints from concrete to
	// base never dangle.
	for i := len(ancestry) - 1; i >= 0; i-- {
		anc := ancestry[i]
		del := sql.Delete(anc.TableName())
		del.SetDialect(h.dialect())
		if anc.DBSchema != "" {
			del.Schema(anc.DBSchema)
		}
		for j, idf := range anc.IDFields {
			del.Where(sql.EQ(anc.Field(idf).ColumnName(), ids[m.IDFields[j]]))
		}
		if _, err := h.eng.Exec(ctx, del); err != nil {
			return zen.NewMutationError(anc.Name, "delete", err)
		}
	}
	return nil
}
