// Package graphql bridges the engine's CRUD surface to GraphQL
// servers: relay-style connection pagination translated to the native
// skip/take/cursor arguments, opaque cursors, and field-selection
// projection derived from the resolver context.
package graphql

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/client"
	"github.com/zenstack-dev/zen-go/ops"
)

// PageArgs are the relay connection arguments.
type PageArgs struct {
	First  *int
	After  *string
	Last   *int
	Before *string
}

// Edge is one connection edge.
type Edge struct {
	Node   map[string]any `json:"node"`
	Cursor string         `json:"cursor"`
}

// PageInfo reports the connection's pagination state.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Connection is a relay connection over engine rows.
type Connection struct {
	Edges      []*Edge  `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount int64    `json:"totalCount"`
}

// Paginate runs a relay-paginated query over the model: first/after
// and last/before translate to the engine's cursor, take and skip. The
// orderBy fields double as the cursor key.
func Paginate(ctx context.Context, c *client.Client, model string, page PageArgs, base *ops.FindArgs) (*Connection, error) {
	if page.First != nil && page.Last != nil {
		return nil, zen.NewValidationError("first", fmt.Errorf("first and last are mutually exclusive"))
	}
	args := &ops.FindArgs{}
	if base != nil {
		*args = *base
	}
	m := c.Schema().Model(model)
	if m == nil {
		return nil, zen.NewConfigError(fmt.Sprintf("unknown model %q", model), nil)
	}
	orderFields := make([]string, 0, len(args.OrderBy)+len(m.IDFields))
	for _, o := range args.OrderBy {
		orderFields = append(orderFields, o.Field)
	}
	for _, idf := range m.IDFields {
		if !containsStr(orderFields, idf) {
			orderFields = append(orderFields, idf)
			args.OrderBy = append(args.OrderBy, ops.OrderSpec{Field: idf})
		}
	}
	switch {
	case page.First != nil:
		n := *page.First + 1
		args.Take = &n
		if page.After != nil {
			cur, err := decodeCursor(*page.After)
			if err != nil {
				return nil, err
			}
			args.Cursor = cur
			one := 1
			args.Skip = &one
		}
	case page.Last != nil:
		n := -(*page.Last + 1)
		args.Take = &n
		if page.Before != nil {
			cur, err := decodeCursor(*page.Before)
			if err != nil {
				return nil, err
			}
			args.Cursor = cur
			one := 1
			args.Skip = &one
		}
	}
	rows, err := c.Model(model).FindMany(ctx, args)
	if err != nil {
		return nil, err
	}
	conn := &Connection{Edges: []*Edge{}}
	switch {
	case page.First != nil && len(rows) > *page.First:
		rows = rows[:*page.First]
		conn.PageInfo.HasNextPage = true
	case page.Last != nil && len(rows) > *page.Last:
		rows = rows[len(rows)-*page.Last:]
		conn.PageInfo.HasPreviousPage = true
	}
	for _, row := range rows {
		cur := encodeCursor(row, orderFields)
		conn.Edges = append(conn.Edges, &Edge{Node: row, Cursor: cur})
	}
	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = &conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = &conn.Edges[len(conn.Edges)-1].Cursor
	}
	total, err := c.Model(model).Count(ctx, args.Where)
	if err != nil {
		return nil, err
	}
	conn.TotalCount = total
	return conn, nil
}

// encodeCursor packs the order-field values of a row into an opaque
// cursor.
func encodeCursor(row map[string]any, fields []string) string {
	vals := make(map[string]any, len(fields))
	for _, f := range fields {
		vals[f] = row[f]
	}
	b, _ := json.Marshal(vals)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(cursor string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, zen.NewValidationError("cursor", fmt.Errorf("malformed cursor"))
	}
	var vals map[string]any
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, zen.NewValidationError("cursor", fmt.Errorf("malformed cursor"))
	}
	return vals, nil
}

// SelectedFields derives the engine projection from the resolver's
// collected field set, so a query selecting three fields reads three
// columns. Relation selections are ignored here; resolve them with
// Include or a dataloader.
func SelectedFields(ctx context.Context, c *client.Client, model string) []string {
	if graphql.GetFieldContext(ctx) == nil {
		return nil
	}
	m := c.Schema().Model(model)
	if m == nil {
		return nil
	}
	var out []string
	for _, f := range graphql.CollectFieldsCtx(ctx, nil) {
		if fd := m.Field(f.Name); fd != nil && !fd.IsRelation() {
			out = append(out, f.Name)
		}
	}
	return out
}

// NodeType maps an AST definition name to its engine model, used by
// schema-first servers resolving the relay Node interface.
func NodeType(c *client.Client, def *ast.Definition) (string, bool) {
	if def == nil {
		return "", false
	}
	if m := c.Schema().Model(def.Name); m != nil {
		return m.Name, true
	}
	return "", false
}

func containsStr(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
