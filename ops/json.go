package ops

import (
	"fmt"
	"sort"
	"strings"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/schema"
)

// compileJSONField handles filters on Json columns. The null sentinels
// distinguish the SQL NULL of the column (DBNull) from a stored JSON
// null (JSONNull); AnyNull matches either.
func (fc *filterCtx) compileJSONField(f *schema.Field, col string, val any) (*sql.Predicate, error) {
	ops, isOps := val.(map[string]any)
	if !isOps {
		return fc.jsonEquals(f, col, val, false)
	}
	// An element path rebases the comparisons onto the provider's JSON
	// extraction operator.
	if path, ok := ops["path"].(string); ok {
		if strings.ContainsAny(path, `'\`) {
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("invalid json path %q", path))
		}
		col = fc.jsonPath(col, path)
	}
	var preds []*sql.Predicate
	for _, op := range sortedKeys(ops) {
		v := ops[op]
		switch op {
		case "path":
			continue
		case "string_contains":
			s, err := stringOperand(op, v)
			if err != nil {
				return nil, err
			}
			preds = append(preds, sql.Contains(col, s))
		case "equals":
			p, err := fc.jsonEquals(f, col, v, false)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		case "not":
			p, err := fc.jsonEquals(f, col, v, true)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		case "array_contains":
			preds = append(preds, fc.listHas(col, v))
		default:
			return nil, zen.NewValidationError(f.Name, fmt.Errorf("unknown json operator %q", op))
		}
	}
	switch len(preds) {
	case 0:
		return nil, nil
	case 1:
		return preds[0], nil
	}
	return sql.And(preds...), nil
}

func (fc *filterCtx) jsonEquals(f *schema.Field, col string, v any, negate bool) (*sql.Predicate, error) {
	var p *sql.Predicate
	switch sentinel := v.(type) {
	case zen.JSONNullSentinel:
		dbNull := sql.IsNull(col)
		jsonNull := fc.jsonNullValue(col)
		switch {
		case sentinel.IsDBNull():
			p = dbNull
		case sentinel.IsJSONNull():
			p = jsonNull
		default:
			p = sql.Or(dbNull, jsonNull)
		}
	case nil:
		return nil, zen.NewValidationError(f.Name, fmt.Errorf("use DBNull, JSONNull or AnyNull to match nulls on json field %q", f.Name))
	default:
		enc, err := encodeJSON(v)
		if err != nil {
			return nil, err
		}
		p = sql.EQ(col, enc)
	}
	if negate {
		p = sql.Not(p)
	}
	return p, nil
}

// jsonPath rebases a JSON column reference onto the element at the
// given path ("$.a.b"), using the provider's extraction operator.
func (fc *filterCtx) jsonPath(col, path string) string {
	if fc.s.Dialect() == dialect.Postgres {
		return "jsonb_path_query_first(" + col + "::jsonb, '" + path + "')"
	}
	return "json_extract(" + col + ", '" + path + "')"
}

// jsonNullValue matches a stored JSON null value.
func (fc *filterCtx) jsonNullValue(col string) *sql.Predicate {
	if fc.s.Dialect() == dialect.Postgres {
		return sql.P(func(b *sql.Builder) {
			b.WriteString(col).WriteString("::jsonb = 'null'::jsonb")
		})
	}
	return sql.P(func(b *sql.Builder) {
		b.WriteString("json_type(").WriteString(col).WriteString(") = 'null'")
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
