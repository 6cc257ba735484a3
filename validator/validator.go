// Package validator derives per-operation input validators from the
// schema's field metadata: presence rules per verb, field-level
// constraint attributes, value transforms, enum membership, typed JSON
// shapes and whole-row validation predicates.
package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/schema"
)

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// Validator validates and transforms nested CRUD payloads for one
// schema. It is stateless and safe for concurrent use.
type Validator struct {
	schema *schema.Schema

	// regexps caches compiled @regex patterns keyed by source.
	regexps map[string]*regexp.Regexp
}

// New builds a validator for the schema, pre-compiling every @regex
// attribute so invalid patterns surface at construction time.
func New(s *schema.Schema) (*Validator, error) {
	v := &Validator{schema: s, regexps: make(map[string]*regexp.Regexp)}
	for _, m := range s.Models {
		for _, f := range m.Fields {
			for _, attr := range f.Attributes {
				if attr.Name != schema.AttrRegex || len(attr.Args) == 0 {
					continue
				}
				src, ok := attr.Args[0].(string)
				if !ok {
					return nil, zen.NewConfigError(fmt.Sprintf("model %s: field %s: @regex pattern must be a string", m.Name, f.Name), nil)
				}
				re, err := regexp.Compile(src)
				if err != nil {
					return nil, zen.NewConfigError(fmt.Sprintf("model %s: field %s: invalid @regex", m.Name, f.Name), err)
				}
				v.regexps[src] = re
			}
		}
	}
	return v, nil
}

// ValidateCreate checks a create payload: required fields, constraint
// attributes and typed JSON shapes. Transforms (@trim, @lower, @upper)
// are applied to data in place before constraints run. Fields listed in
// supplied are treated as provided even when absent from data (e.g.
// foreign keys populated by a nested relation write).
func (v *Validator) ValidateCreate(model string, data map[string]any, supplied ...string) error {
	m := v.schema.Model(model)
	if m == nil {
		return zen.NewConfigError(fmt.Sprintf("unknown model %s", model), nil)
	}
	var errs []error
	for _, f := range m.ScalarFields() {
		val, present := data[f.Name]
		if !present {
			if v.requiredOnCreate(f) && !contains(supplied, f.Name) {
				errs = append(errs, zen.NewValidationError(f.Name, fmt.Errorf("missing required field %q", f.Name)))
			}
			continue
		}
		if val == nil {
			if !f.Optional {
				errs = append(errs, zen.NewValidationError(f.Name, fmt.Errorf("field %q must not be null", f.Name)))
			}
			continue
		}
		v.applyTransforms(f, data)
		errs = append(errs, v.checkField(m, f, data[f.Name])...)
	}
	errs = append(errs, v.rowValidations(m, data, nil)...)
	return combine(errs)
}

// ValidateUpdate checks an update payload: only the present fields are
// validated; transforms apply in place. Updating id fields is rejected.
func (v *Validator) ValidateUpdate(model string, data map[string]any) error {
	m := v.schema.Model(model)
	if m == nil {
		return zen.NewConfigError(fmt.Sprintf("unknown model %s", model), nil)
	}
	var errs []error
	for _, f := range m.ScalarFields() {
		val, present := data[f.Name]
		if !present {
			continue
		}
		if contains(m.IDFields, f.Name) {
			errs = append(errs, zen.NewValidationError(f.Name, fmt.Errorf("updating id fields is not supported")))
			continue
		}
		if val == nil {
			if !f.Optional {
				errs = append(errs, zen.NewValidationError(f.Name, fmt.Errorf("field %q must not be null", f.Name)))
			}
			continue
		}
		v.applyTransforms(f, data)
		errs = append(errs, v.checkField(m, f, data[f.Name])...)
	}
	errs = append(errs, v.rowValidations(m, data, nil)...)
	return combine(errs)
}

// requiredOnCreate reports whether the field must be present in a
// create payload: non-optional scalars without a default (including a
// database-generated one).
func (v *Validator) requiredOnCreate(f *schema.Field) bool {
	if f.Optional || f.Default != nil || f.UpdatedAt {
		return false
	}
	// Foreign-key scalars may arrive via a nested relation write; the
	// operation handler vouches for them through supplied.
	return len(f.ForeignKeyFor) == 0
}

// applyTransforms rewrites the field value in place for @trim, @lower
// and @upper.
func (v *Validator) applyTransforms(f *schema.Field, data map[string]any) {
	s, ok := data[f.Name].(string)
	if !ok {
		return
	}
	for _, attr := range f.Attributes {
		switch attr.Name {
		case schema.AttrTrim:
			s = strings.TrimSpace(s)
		case schema.AttrLower:
			s = lowerCaser.String(s)
		case schema.AttrUpper:
			s = upperCaser.String(s)
		}
	}
	data[f.Name] = s
}

func (v *Validator) checkField(m *schema.Model, f *schema.Field, val any) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, zen.NewValidationError(f.Name, fmt.Errorf(format, args...)))
	}
	if vals, ok := v.schema.EnumValues(f.Type); ok {
		if s, isStr := val.(string); !isStr || !contains(vals, s) {
			fail("value %v is not a member of enum %s", val, f.Type)
		}
	}
	if f.JSONTyped {
		if td, ok := v.schema.TypeDefs[f.Type]; ok {
			errs = append(errs, v.checkTypeDef(f.Name, td, val)...)
		}
	}
	for _, attr := range f.Attributes {
		switch attr.Name {
		case schema.AttrLength:
			s, ok := val.(string)
			if !ok {
				continue
			}
			min, max := intArg(attr.Args, 0), intArg(attr.Args, 1)
			n := len([]rune(s))
			if n < min {
				fail("length of %q must be at least %d", f.Name, min)
			}
			if max > 0 && n > max {
				fail("length of %q must be at most %d", f.Name, max)
			}
		case schema.AttrEmail:
			if s, ok := val.(string); ok {
				if a, err := mail.ParseAddress(s); err != nil || a.Address != s {
					fail("%q must be a valid email address", f.Name)
				}
			}
		case schema.AttrURL:
			if s, ok := val.(string); ok {
				if u, err := url.Parse(s); err != nil || u.Scheme == "" || u.Host == "" {
					fail("%q must be a valid URL", f.Name)
				}
			}
		case schema.AttrDatetime:
			if s, ok := val.(string); ok {
				if _, err := time.Parse(time.RFC3339, s); err != nil {
					fail("%q must be an ISO datetime", f.Name)
				}
			}
		case schema.AttrRegex:
			s, ok := val.(string)
			if !ok {
				continue
			}
			if re := v.regexps[stringArg(attr.Args, 0)]; re != nil && !re.MatchString(s) {
				fail("%q does not match the required pattern", f.Name)
			}
		case schema.AttrContains:
			if s, ok := val.(string); ok && !strings.Contains(s, stringArg(attr.Args, 0)) {
				fail("%q must contain %q", f.Name, stringArg(attr.Args, 0))
			}
		case schema.AttrStartsWith:
			if s, ok := val.(string); ok && !strings.HasPrefix(s, stringArg(attr.Args, 0)) {
				fail("%q must start with %q", f.Name, stringArg(attr.Args, 0))
			}
		case schema.AttrEndsWith:
			if s, ok := val.(string); ok && !strings.HasSuffix(s, stringArg(attr.Args, 0)) {
				fail("%q must end with %q", f.Name, stringArg(attr.Args, 0))
			}
		case schema.AttrGT, schema.AttrGTE, schema.AttrLT, schema.AttrLTE:
			bound, bok := toFloat(argAt(attr.Args, 0))
			num, nok := toFloat(val)
			if !bok || !nok {
				continue
			}
			switch {
			case attr.Name == schema.AttrGT && !(num > bound):
				fail("%q must be greater than %v", f.Name, bound)
			case attr.Name == schema.AttrGTE && !(num >= bound):
				fail("%q must be at least %v", f.Name, bound)
			case attr.Name == schema.AttrLT && !(num < bound):
				fail("%q must be less than %v", f.Name, bound)
			case attr.Name == schema.AttrLTE && !(num <= bound):
				fail("%q must be at most %v", f.Name, bound)
			}
		}
	}
	return errs
}

// checkTypeDef validates a JSON value against a type-def shape. Extra
// properties are allowed unless the type-def is closed.
func (v *Validator) checkTypeDef(path string, td *schema.TypeDef, val any) []error {
	obj, ok := val.(map[string]any)
	if !ok {
		return []error{zen.NewValidationError(path, fmt.Errorf("%q must be an object of type %s", path, td.Name))}
	}
	var errs []error
	for _, f := range td.Fields {
		fv, present := obj[f.Name]
		sub := path + "." + f.Name
		if !present || fv == nil {
			if !f.Optional {
				errs = append(errs, zen.NewValidationError(sub, fmt.Errorf("missing required property %q", sub)))
			}
			continue
		}
		if nested, ok := v.schema.TypeDefs[f.Type]; ok {
			errs = append(errs, v.checkTypeDef(sub, nested, fv)...)
			continue
		}
		if !scalarMatches(f, fv) {
			errs = append(errs, zen.NewValidationError(sub, fmt.Errorf("property %q must be of type %s", sub, f.Type)))
		}
	}
	if td.Closed {
		for k := range obj {
			if fieldNamed(td.Fields, k) == nil {
				errs = append(errs, zen.NewValidationError(path+"."+k, fmt.Errorf("unknown property %q", k)))
			}
		}
	}
	return errs
}

// rowValidations evaluates the model's @@validate predicates against
// the payload. Fields absent from the payload are looked up in prev
// (the current row on updates); a predicate referencing a field that is
// present in neither is skipped.
func (v *Validator) rowValidations(m *schema.Model, data, prev map[string]any) []error {
	var errs []error
	for _, rv := range m.Validations {
		ok, err := evalRow(rv.Expr, data, prev)
		if err != nil {
			continue
		}
		if !ok {
			name := strings.Join(rv.Path, ".")
			if name == "" {
				name = m.Name
			}
			msg := rv.Message
			if msg == "" {
				msg = "row validation failed"
			}
			errs = append(errs, zen.NewValidationError(name, fmt.Errorf("%s", msg)))
		}
	}
	return errs
}

func combine(errs []error) error {
	kept := errs[:0]
	for _, e := range errs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return zen.NewAggregateError(kept...)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func fieldNamed(fs []*schema.Field, name string) *schema.Field {
	for _, f := range fs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func scalarMatches(f *schema.Field, v any) bool {
	if f.Array {
		_, ok := v.([]any)
		return ok
	}
	switch f.Type {
	case schema.TypeString, schema.TypeDateTime:
		_, ok := v.(string)
		return ok
	case schema.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case schema.TypeInt, schema.TypeBigInt, schema.TypeFloat, schema.TypeDecimal:
		_, ok := toFloat(v)
		return ok
	case schema.TypeJSON:
		return true
	default:
		return true
	}
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func intArg(args []any, i int) int {
	n, _ := toFloat(argAt(args, i))
	return int(n)
}

func stringArg(args []any, i int) string {
	s, _ := argAt(args, i).(string)
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
