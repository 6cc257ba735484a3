// Package delegate resolves rows of delegate (abstract) models to
// their concrete sub-models: reading the discriminator column,
// narrowing a base row to its concrete shape, and counting relation
// members by subtype.
package delegate

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/schema"
)

// Resolver narrows delegate rows to concrete models. Concurrent
// narrows of the same row share one lookup.
type Resolver struct {
	h  *ops.Handler
	sf singleflight.Group
}

// NewResolver builds a resolver over the handler.
func NewResolver(h *ops.Handler) *Resolver { return &Resolver{h: h} }

// ConcreteModel returns the concrete model a delegate row belongs to,
// read from its discriminator column.
func (r *Resolver) ConcreteModel(base *schema.Model, row map[string]any) (*schema.Model, error) {
	if !base.IsDelegate {
		return base, nil
	}
	tag, _ := row[base.Discriminator].(string)
	if tag == "" {
		return nil, zen.NewConfigError(fmt.Sprintf("delegate row of %s carries no discriminator", base.Name), nil)
	}
	m := r.h.Schema().Model(tag)
	if m == nil {
		return nil, zen.NewConfigError(fmt.Sprintf("discriminator %q of %s names no model", tag, base.Name), nil)
	}
	return m, nil
}

// Narrow reads the full concrete shape of a delegate row: the base
// fields plus the concrete model's own columns.
func (r *Resolver) Narrow(ctx context.Context, base *schema.Model, row map[string]any) (map[string]any, error) {
	concrete, err := r.ConcreteModel(base, row)
	if err != nil {
		return nil, err
	}
	if concrete == base {
		return row, nil
	}
	key := narrowKey(concrete.Name, base, row)
	v, err, _ := r.sf.Do(key, func() (any, error) {
		where := map[string]any{}
		for i, idf := range concrete.IDFields {
			where[idf] = row[base.IDFields[i]]
		}
		return r.h.FindUnique(ctx, concrete.Name, &ops.FindArgs{Where: where})
	})
	if err != nil {
		return nil, err
	}
	narrowed, _ := v.(map[string]any)
	if narrowed == nil {
		return nil, zen.NewNotFoundError(concrete.Name)
	}
	return narrowed, nil
}

// CountBySubtype counts the delegate rows matching where, grouped by
// their concrete subtype. A _count over a delegate relation must count
// only rows of the requested subtype; this supplies those per-subtype
// figures in one query.
func (r *Resolver) CountBySubtype(ctx context.Context, base *schema.Model, where ops.Filter) (map[string]int64, error) {
	if !base.IsDelegate {
		return nil, zen.NewConfigError(fmt.Sprintf("%s is not a delegate model", base.Name), nil)
	}
	groups, err := r.h.GroupBy(ctx, base.Name, &ops.GroupByArgs{
		By:    []string{base.Discriminator},
		Where: where,
		Count: []string{"_all"},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(groups))
	for _, g := range groups {
		tag, _ := g[base.Discriminator].(string)
		out[tag] = asInt64(g["_count__all"])
	}
	return out, nil
}

func narrowKey(concrete string, base *schema.Model, row map[string]any) string {
	key := concrete
	for _, idf := range base.IDFields {
		key += fmt.Sprintf("/%v", row[idf])
	}
	return key
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
