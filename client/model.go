package client

import (
	"context"
	"encoding/json"

	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/plugin"
)

// ModelHandle is the per-model CRUD surface. Handles are cheap values;
// Model may be called per operation.
type ModelHandle struct {
	c     *Client
	model string
}

// Model returns the handle of the named model.
func (c *Client) Model(name string) *ModelHandle {
	return &ModelHandle{c: c, model: name}
}

// Name returns the model name the handle addresses.
func (h *ModelHandle) Name() string { return h.model }

// invoke routes an operation through the high-level plugin chain into
// the core handler. Plugins registered later run earlier (outermost).
func (h *ModelHandle) invoke(ctx context.Context, operation string, args any, core plugin.QueryFunc) (any, error) {
	ctx, cancel := h.c.eng.MaybeTimeout(ctx)
	defer cancel()
	run := core
	for _, p := range h.c.plugins {
		if p.OnQuery == nil {
			continue
		}
		hook, next := p.OnQuery, run
		model, op := h.model, operation
		run = func(ctx context.Context, args any) (any, error) {
			return hook(ctx, &plugin.Query{Model: model, Operation: op, Args: args}, next)
		}
	}
	return run(ctx, args)
}

func asFind(args any) *ops.FindArgs {
	a, _ := args.(*ops.FindArgs)
	return a
}

// FindMany returns every readable row matching args.
func (h *ModelHandle) FindMany(ctx context.Context, args *ops.FindArgs) ([]map[string]any, error) {
	v, err := h.invoke(ctx, "findMany", args, func(ctx context.Context, args any) (any, error) {
		return h.c.handler.FindMany(ctx, h.model, asFind(args))
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]map[string]any)
	return rows, nil
}

// FindFirst returns the first readable match, or nil.
func (h *ModelHandle) FindFirst(ctx context.Context, args *ops.FindArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "findFirst", args, func(ctx context.Context, args any) (any, error) {
		return h.c.handler.FindFirst(ctx, h.model, asFind(args))
	})
}

// FindFirstOrThrow is FindFirst failing with NOT_FOUND on a miss.
func (h *ModelHandle) FindFirstOrThrow(ctx context.Context, args *ops.FindArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "findFirstOrThrow", args, func(ctx context.Context, args any) (any, error) {
		return h.c.handler.FindFirstOrThrow(ctx, h.model, asFind(args))
	})
}

// FindUnique returns the row addressed by a unique criterion, or nil.
func (h *ModelHandle) FindUnique(ctx context.Context, args *ops.FindArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "findUnique", args, func(ctx context.Context, args any) (any, error) {
		return h.c.handler.FindUnique(ctx, h.model, asFind(args))
	})
}

// FindUniqueOrThrow is FindUnique failing with NOT_FOUND on a miss.
func (h *ModelHandle) FindUniqueOrThrow(ctx context.Context, args *ops.FindArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "findUniqueOrThrow", args, func(ctx context.Context, args any) (any, error) {
		return h.c.handler.FindUniqueOrThrow(ctx, h.model, asFind(args))
	})
}

// Create inserts one row with nested writes and returns its readable
// shape.
func (h *ModelHandle) Create(ctx context.Context, args *ops.CreateArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "create", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.CreateArgs)
		return h.c.handler.Create(ctx, h.model, a)
	})
}

// CreateMany inserts scalar rows and returns the inserted count.
func (h *ModelHandle) CreateMany(ctx context.Context, args *ops.CreateManyArgs) (int64, error) {
	return h.invokeCount(ctx, "createMany", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.CreateManyArgs)
		return h.c.handler.CreateMany(ctx, h.model, a)
	})
}

// CreateManyAndReturn inserts scalar rows and returns them.
func (h *ModelHandle) CreateManyAndReturn(ctx context.Context, args *ops.CreateManyArgs) ([]map[string]any, error) {
	v, err := h.invoke(ctx, "createManyAndReturn", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.CreateManyArgs)
		return h.c.handler.CreateManyAndReturn(ctx, h.model, a)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]map[string]any)
	return rows, nil
}

// Update mutates the row addressed by a unique criterion.
func (h *ModelHandle) Update(ctx context.Context, args *ops.UpdateArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "update", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.UpdateArgs)
		return h.c.handler.Update(ctx, h.model, a)
	})
}

// UpdateMany updates every match and returns the affected count.
func (h *ModelHandle) UpdateMany(ctx context.Context, args *ops.UpdateArgs) (int64, error) {
	return h.invokeCount(ctx, "updateMany", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.UpdateArgs)
		return h.c.handler.UpdateMany(ctx, h.model, a)
	})
}

// UpdateManyAndReturn updates every match and returns the rows.
func (h *ModelHandle) UpdateManyAndReturn(ctx context.Context, args *ops.UpdateArgs) ([]map[string]any, error) {
	v, err := h.invoke(ctx, "updateManyAndReturn", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.UpdateArgs)
		return h.c.handler.UpdateManyAndReturn(ctx, h.model, a)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]map[string]any)
	return rows, nil
}

// Upsert updates the row matching the unique criterion or creates it.
func (h *ModelHandle) Upsert(ctx context.Context, args *ops.UpsertArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "upsert", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.UpsertArgs)
		return h.c.handler.Upsert(ctx, h.model, a)
	})
}

// Delete removes the row addressed by a unique criterion.
func (h *ModelHandle) Delete(ctx context.Context, args *ops.DeleteArgs) (map[string]any, error) {
	return h.invokeRow(ctx, "delete", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.DeleteArgs)
		return h.c.handler.Delete(ctx, h.model, a)
	})
}

// DeleteMany removes every match and returns the removed count.
func (h *ModelHandle) DeleteMany(ctx context.Context, args *ops.DeleteArgs) (int64, error) {
	return h.invokeCount(ctx, "deleteMany", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.DeleteArgs)
		return h.c.handler.DeleteMany(ctx, h.model, a)
	})
}

// Count returns the number of readable rows matching where.
func (h *ModelHandle) Count(ctx context.Context, where ops.Filter) (int64, error) {
	return h.invokeCount(ctx, "count", where, func(ctx context.Context, args any) (any, error) {
		w, _ := args.(ops.Filter)
		return h.c.handler.Count(ctx, h.model, w)
	})
}

// Aggregate computes _count/_sum/_avg/_min/_max over the matches.
func (h *ModelHandle) Aggregate(ctx context.Context, args *ops.AggregateArgs) (*ops.AggregateResult, error) {
	v, err := h.invoke(ctx, "aggregate", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.AggregateArgs)
		return h.c.handler.Aggregate(ctx, h.model, a)
	})
	if err != nil {
		return nil, err
	}
	res, _ := v.(*ops.AggregateResult)
	return res, nil
}

// GroupBy groups the matches and computes per-group aggregations.
func (h *ModelHandle) GroupBy(ctx context.Context, args *ops.GroupByArgs) ([]map[string]any, error) {
	v, err := h.invoke(ctx, "groupBy", args, func(ctx context.Context, args any) (any, error) {
		a, _ := args.(*ops.GroupByArgs)
		return h.c.handler.GroupBy(ctx, h.model, a)
	})
	if err != nil {
		return nil, err
	}
	rows, _ := v.([]map[string]any)
	return rows, nil
}

func (h *ModelHandle) invokeRow(ctx context.Context, op string, args any, core plugin.QueryFunc) (map[string]any, error) {
	v, err := h.invoke(ctx, op, args, core)
	if err != nil {
		return nil, err
	}
	row, _ := v.(map[string]any)
	return row, nil
}

func (h *ModelHandle) invokeCount(ctx context.Context, op string, args any, core plugin.QueryFunc) (int64, error) {
	v, err := h.invoke(ctx, op, args, core)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int64)
	return n, nil
}

// TypedHandle decodes the map-shaped rows of a ModelHandle into a
// concrete struct type, for callers pairing the runtime engine with
// generated (or hand-written) row types.
type TypedHandle[T any] struct {
	h *ModelHandle
}

// Typed wraps the model handle with a row type.
func Typed[T any](c *Client, model string) *TypedHandle[T] {
	return &TypedHandle[T]{h: c.Model(model)}
}

// Raw returns the underlying untyped handle.
func (t *TypedHandle[T]) Raw() *ModelHandle { return t.h }

// FindMany returns the typed readable rows matching args.
func (t *TypedHandle[T]) FindMany(ctx context.Context, args *ops.FindArgs) ([]T, error) {
	rows, err := t.h.FindMany(ctx, args)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := remap(row, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FindUnique returns the typed row addressed by a unique criterion.
func (t *TypedHandle[T]) FindUnique(ctx context.Context, args *ops.FindArgs) (*T, error) {
	row, err := t.h.FindUnique(ctx, args)
	if err != nil || row == nil {
		return nil, err
	}
	var out T
	if err := remap(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create inserts a row and returns its typed shape.
func (t *TypedHandle[T]) Create(ctx context.Context, args *ops.CreateArgs) (*T, error) {
	row, err := t.h.Create(ctx, args)
	if err != nil || row == nil {
		return nil, err
	}
	var out T
	if err := remap(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// remap converts a map row into the typed struct through JSON.
func remap(row map[string]any, out any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
