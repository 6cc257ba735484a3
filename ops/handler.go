package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/dialect/sql/sqlgraph"
	"github.com/zenstack-dev/zen-go/engine"
	privacy "github.com/zenstack-dev/zen-go/policy"
	"github.com/zenstack-dev/zen-go/schema"
	"github.com/zenstack-dev/zen-go/validator"
)

// ComputedField builds the SQL expression of a computed field against
// the selector it is projected from (the selector supplies the model
// alias for column qualification).
type ComputedField func(s *sql.Selector) sql.Querier

// MutationInfo describes a pending or completed entity mutation,
// passed to mutation hooks.
type MutationInfo struct {
	Model  string
	Action string // create, update, delete
	// Data is the scalar payload of a create/update; nil for deletes.
	Data map[string]any
	// Row is the affected row; populated for after-hooks and for
	// delete before-hooks.
	Row map[string]any
}

// MutationHook observes entity mutations. Before runs ahead of the
// SQL; After runs after it, inside the transaction when InTx is set
// and after commit otherwise. An error from Before, or from an InTx
// After, aborts the transaction; an error from a post-commit After is
// returned as a MutationError once the write has been committed.
type MutationHook struct {
	Before func(ctx context.Context, m *MutationInfo) error
	After  func(ctx context.Context, m *MutationInfo) error
	InTx   bool
}

// Options configures a Handler.
type Options struct {
	// Policy enforces access rules when non-nil.
	Policy *privacy.Engine
	// Validate toggles input validation (default on).
	Validate bool
	// Auth is the auth projection of the acting client.
	Auth any
	// Computed registers computed fields: model -> field -> builder.
	Computed map[string]map[string]ComputedField
	// Hooks are the entity-mutation hooks, in registration order.
	Hooks []*MutationHook
}

// Handler turns validated CRUD arguments into query-builder trees and
// runs them through the engine. One Handler serves every model of its
// schema; it is immutable and safe for concurrent use.
type Handler struct {
	eng   *engine.Engine
	sch   *schema.Schema
	graph *sqlgraph.Schema
	val   *validator.Validator
	opts  Options
}

// NewHandler builds a handler over the engine.
func NewHandler(eng *engine.Engine, opts Options) (*Handler, error) {
	g, err := sqlgraph.FromSchema(eng.Schema())
	if err != nil {
		return nil, err
	}
	v, err := validator.New(eng.Schema())
	if err != nil {
		return nil, err
	}
	return &Handler{eng: eng, sch: eng.Schema(), graph: g, val: v, opts: opts}, nil
}

// Engine exposes the underlying executor, used by the raw-SQL and
// query-builder escape hatches.
func (h *Handler) Engine() *engine.Engine { return h.eng }

// Schema returns the frozen schema.
func (h *Handler) Schema() *schema.Schema { return h.sch }

// model resolves a model or fails with a config error.
func (h *Handler) model(name string) (*schema.Model, error) {
	m := h.sch.Model(name)
	if m == nil {
		return nil, zen.NewConfigError(fmt.Sprintf("unknown model %q", name), nil)
	}
	return m, nil
}

// dialect returns the engine's dialect name.
func (h *Handler) dialect() string { return h.eng.Dialect() }

// selectorFor returns a selector over the model's table, schema
// qualified when the model declares one.
func (h *Handler) selectorFor(m *schema.Model) *sql.Selector {
	t := sql.Table(m.TableName())
	t.SetDialect(h.dialect())
	if m.DBSchema != "" {
		t.Schema(m.DBSchema)
	}
	s := sql.Select().From(t)
	s.SetDialect(h.dialect())
	return s
}

// computedFor returns the computed-field builder, if registered.
func (h *Handler) computedFor(model, field string) (ComputedField, bool) {
	cf, ok := h.opts.Computed[model][field]
	return cf, ok
}

// applyReadPolicy injects the model's read rules into the selector.
func (h *Handler) applyReadPolicy(s *sql.Selector, model string) error {
	if h.opts.Policy == nil {
		return nil
	}
	return h.opts.Policy.ApplyRead(s, model, h.opts.Auth)
}

// fieldPlan is the projection of one find call: the scalar fields to
// select, in order, with the model (or ancestor) each comes from.
type fieldPlan struct {
	fields   []*schema.Field
	computed []string
}

// planFields resolves select/omit (and @omit attributes) into the
// projected field list. Inherited fields of models extending a
// delegate base are included; id fields are always projected because
// nested loading and read-back depend on them.
func (h *Handler) planFields(m *schema.Model, selected, omitted []string) fieldPlan {
	var plan fieldPlan
	seen := map[string]bool{}
	include := func(f *schema.Field) {
		if seen[f.Name] {
			return
		}
		if f.Computed {
			if _, ok := h.computedFor(m.Name, f.Name); ok {
				if wanted(f.Name, selected, omitted) {
					seen[f.Name] = true
					plan.computed = append(plan.computed, f.Name)
				}
			}
			return
		}
		if hasAttr(f, schema.AttrOmit) && selected == nil {
			return
		}
		always := contains(m.IDFields, f.Name)
		if !always && !wanted(f.Name, selected, omitted) {
			return
		}
		seen[f.Name] = true
		plan.fields = append(plan.fields, f)
	}
	for _, anc := range m.Ancestry(h.sch) {
		for _, f := range anc.ScalarFields() {
			if f.Ignored {
				continue
			}
			include(f)
		}
	}
	return plan
}

func wanted(name string, selected, omitted []string) bool {
	if selected != nil && !contains(selected, name) {
		return false
	}
	return !contains(omitted, name)
}

func hasAttr(f *schema.Field, name string) bool {
	for _, a := range f.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// ancestorOwning returns the model in m's ancestry that declares the
// field, m itself included.
func (h *Handler) ancestorOwning(m *schema.Model, field string) *schema.Model {
	for _, anc := range m.Ancestry(h.sch) {
		if anc.Field(field) != nil {
			return anc
		}
	}
	return nil
}

// decodeRow maps raw driver values to field-typed Go values: SQLite
// integers back to booleans, JSON text to decoded values, and DATETIME
// text to time.Time.
func (h *Handler) decodeRow(m *schema.Model, row map[string]any) map[string]any {
	for name, v := range row {
		f := h.fieldInAncestry(m, name)
		if f == nil || v == nil {
			continue
		}
		switch {
		case f.Type == schema.TypeBoolean && !f.Array:
			if n, ok := v.(int64); ok {
				row[name] = n != 0
			}
		case f.Type == schema.TypeJSON || f.JSONTyped || f.IsScalarList():
			if s, ok := v.(string); ok {
				var decoded any
				if err := json.Unmarshal([]byte(s), &decoded); err == nil {
					row[name] = decoded
				}
			}
		case f.Type == schema.TypeDateTime:
			if s, ok := v.(string); ok {
				for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"} {
					if t, err := time.Parse(layout, s); err == nil {
						row[name] = t
						break
					}
				}
			}
		}
	}
	return row
}

func (h *Handler) fieldInAncestry(m *schema.Model, name string) *schema.Field {
	for _, anc := range m.Ancestry(h.sch) {
		if f := anc.Field(name); f != nil {
			return f
		}
	}
	return nil
}

// maskRow applies field-level read policies to a shaped row.
func (h *Handler) maskRow(model string, row map[string]any) map[string]any {
	if h.opts.Policy == nil || row == nil {
		return row
	}
	return h.opts.Policy.MaskRow(model, h.opts.Auth, row)
}

// runBeforeHooks invokes the before-mutation hooks in order.
func (h *Handler) runBeforeHooks(ctx context.Context, info *MutationInfo) error {
	for _, hk := range h.opts.Hooks {
		if hk.Before == nil {
			continue
		}
		if err := hk.Before(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

// runAfterHooks invokes the after-mutation hooks matching the inTx
// phase.
func (h *Handler) runAfterHooks(ctx context.Context, info *MutationInfo, inTx bool) error {
	for _, hk := range h.opts.Hooks {
		if hk.After == nil || hk.InTx != inTx {
			continue
		}
		if err := hk.After(ctx, info); err != nil {
			if inTx {
				return err
			}
			return zen.NewMutationError(info.Model, info.Action, err)
		}
	}
	return nil
}
