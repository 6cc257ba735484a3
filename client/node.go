package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/delegate"
	"github.com/zenstack-dev/zen-go/ops"
)

// GlobalID encodes a model name and id value into an opaque universal
// identifier.
func GlobalID(model string, id any) string {
	return base64.RawURLEncoding.EncodeToString(fmt.Appendf(nil, "%s:%v", model, id))
}

// Node resolves a universal identifier to its model name and row. IDs
// addressing a delegate model narrow to the row's concrete subtype.
func (c *Client) Node(ctx context.Context, globalID string) (string, map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(globalID)
	if err != nil {
		return "", nil, zen.NewValidationError("id", fmt.Errorf("malformed global id"))
	}
	model, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", nil, zen.NewValidationError("id", fmt.Errorf("malformed global id"))
	}
	m := c.cfg.Schema.Model(model)
	if m == nil {
		return "", nil, zen.NewValidationError("id", fmt.Errorf("global id names unknown model %q", model))
	}
	if len(m.IDFields) != 1 {
		return "", nil, zen.NewValidationError("id", fmt.Errorf("global ids require a single-column primary key"))
	}
	idf := m.Field(m.IDFields[0])
	var idVal any = id
	if idf.Type != "String" {
		var n int64
		if _, err := fmt.Sscanf(id, "%d", &n); err == nil {
			idVal = n
		}
	}
	row, err := c.handler.FindUnique(ctx, model, &ops.FindArgs{Where: map[string]any{m.IDFields[0]: idVal}})
	if err != nil {
		return "", nil, err
	}
	if row == nil {
		return "", nil, zen.NewNotFoundError(model)
	}
	if m.IsDelegate {
		r := delegate.NewResolver(c.handler)
		concrete, err := r.ConcreteModel(m, row)
		if err != nil {
			return "", nil, err
		}
		narrowed, err := r.Narrow(ctx, m, row)
		if err != nil {
			return "", nil, err
		}
		return concrete.Name, narrowed, nil
	}
	return model, row, nil
}
