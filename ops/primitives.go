package ops

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/schema"
)

// encodeValue coerces a client value into driver form for the given
// field and provider: JSON columns marshal to text, scalar lists map
// to native arrays on Postgres and JSON text elsewhere, Decimal values
// travel as strings, and the JSON null sentinels resolve to their
// storage representation.
func (h *Handler) encodeValue(f *schema.Field, v any) (any, error) {
	if sentinel, ok := v.(zen.JSONNullSentinel); ok {
		if f.Type != schema.TypeJSON && !f.JSONTyped {
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("null sentinels only apply to json fields"))
		}
		switch {
		case sentinel.IsDBNull():
			return nil, nil
		case sentinel.IsJSONNull():
			return "null", nil
		}
		return nil, zen.NewValidationError(f.Name, fmt.Errorf("AnyNull is a filter sentinel and cannot be written"))
	}
	if v == nil {
		if f.Type == schema.TypeJSON || f.JSONTyped {
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("cannot write null to json field %q; use DBNull or JSONNull", f.Name))
		}
		return nil, nil
	}
	if f.IsScalarList() {
		vs, err := anySlice(v)
		if err != nil {
			return nil, err
		}
		return encodeList(h.dialect(), vs)
	}
	switch f.Type {
	case schema.TypeJSON:
		return encodeJSON(v)
	case schema.TypeDecimal:
		return encodeDecimal(f, v)
	case schema.TypeDateTime:
		if s, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, zen.NewValidationError(f.Name, fmt.Errorf("invalid datetime %q", s))
			}
			return t, nil
		}
		return v, nil
	default:
		if f.JSONTyped {
			return encodeJSON(v)
		}
		return v, nil
	}
}

func encodeJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, zen.NewValidationError("json", err)
	}
	return string(b), nil
}

// encodeList maps a scalar list to its driver value: a native array on
// Postgres, JSON text elsewhere.
func encodeList(dialectName string, vs []any) (any, error) {
	if dialectName == dialect.Postgres {
		return pq.Array(vs), nil
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return nil, zen.NewValidationError("list", err)
	}
	return string(b), nil
}

func encodeDecimal(f *schema.Field, v any) (any, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.String(), nil
	case string:
		parsed, err := decimal.NewFromString(d)
		if err != nil {
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("invalid decimal %q", d))
		}
		return parsed.String(), nil
	case float64:
		return decimal.NewFromFloat(d).String(), nil
	case float32:
		return decimal.NewFromFloat32(d).String(), nil
	case int:
		return decimal.NewFromInt(int64(d)).String(), nil
	case int64:
		return decimal.NewFromInt(d).String(), nil
	default:
		return nil, zen.NewValidationError(f.Name, fmt.Errorf("cannot encode %T as decimal", v))
	}
}
