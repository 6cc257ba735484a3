package schema

import (
	"cmp"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Provider identifies the database backend a schema targets.
type Provider string

// Supported providers.
const (
	SQLite   Provider = "sqlite"
	Postgres Provider = "postgresql"
	MySQL    Provider = "mysql"
)

// Dialect maps the provider to its dialect name as used by the dialect
// and sql packages.
func (p Provider) Dialect() string {
	if p == Postgres {
		return "postgres"
	}
	return string(p)
}

// SupportsReturning reports whether the provider can return rows from
// INSERT/UPDATE statements.
func (p Provider) SupportsReturning() bool { return p != MySQL }

// Builtin scalar type names.
const (
	TypeString   = "String"
	TypeBoolean  = "Boolean"
	TypeInt      = "Int"
	TypeBigInt   = "BigInt"
	TypeFloat    = "Float"
	TypeDecimal  = "Decimal"
	TypeDateTime = "DateTime"
	TypeJSON     = "Json"
	TypeBytes    = "Bytes"
)

// Schema is the frozen, in-memory description of the data model the
// engine operates on. It is immutable after Freeze; a Client never
// mutates it.
type Schema struct {
	Provider   Provider              `yaml:"provider"`
	Models     map[string]*Model     `yaml:"models"`
	Enums      map[string][]string   `yaml:"enums"`
	TypeDefs   map[string]*TypeDef   `yaml:"typeDefs"`
	Procedures map[string]*Procedure `yaml:"procedures"`
	// AuthModel names the model auth() projections are typed by, when
	// the access-policy plugin is enabled.
	AuthModel string `yaml:"authModel"`
}

// TypeDef is a structural mixin type: a named JSON shape that is not
// backed by a table.
type TypeDef struct {
	Name   string   `yaml:"name"`
	Fields []*Field `yaml:"fields"`
	// Closed forbids properties beyond the declared fields.
	Closed bool `yaml:"closed"`
}

// Model describes one entity.
type Model struct {
	Name     string `yaml:"name"`
	DBTable  string `yaml:"dbTable"`
	DBSchema string `yaml:"dbSchema"`
	Fields   []*Field `yaml:"fields"`
	IDFields []string `yaml:"idFields"`
	// UniqueFields maps a unique-tuple name to its field names. Single
	// @unique fields appear under their own name.
	UniqueFields map[string][]string `yaml:"uniqueFields"`
	Policies     []*Policy           `yaml:"-"`
	Validations  []*RowValidation    `yaml:"-"`
	IsDelegate   bool                `yaml:"isDelegate"`
	// Discriminator is the scalar column selecting the concrete
	// subtype of a delegate row.
	Discriminator string   `yaml:"discriminator"`
	BaseModel     string   `yaml:"baseModel"`
	Mixins        []string `yaml:"mixins"`

	fieldIndex map[string]*Field
}

// RowValidation is a whole-row predicate (@@validate).
type RowValidation struct {
	Expr    Expr
	Message string
	Path    []string
}

// Field describes one column, relation or computed member of a model.
type Field struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Array     bool   `yaml:"array"`
	Optional  bool   `yaml:"optional"`
	ID        bool   `yaml:"id"`
	Unique    bool   `yaml:"unique"`
	UpdatedAt bool   `yaml:"updatedAt"`
	Ignored   bool   `yaml:"ignored"`
	Computed  bool   `yaml:"computed"`
	// JSONTyped marks a Json column validated against the TypeDef
	// named by Type.
	JSONTyped bool `yaml:"jsonTyped"`
	// Column is the physical column name (@map); empty means Name.
	Column   string    `yaml:"column"`
	Default  *Default  `yaml:"default"`
	Relation *Relation `yaml:"relation"`
	// ForeignKeyFor lists the relation fields this scalar backs.
	ForeignKeyFor []string    `yaml:"foreignKeyFor"`
	Attributes    []Attribute `yaml:"attributes"`
	Policies      []*Policy   `yaml:"-"`
}

// ColumnName returns the physical column of the field.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.Name
}

// IsRelation reports whether the field is a relation to another model.
func (f *Field) IsRelation() bool { return f.Relation != nil }

// IsScalarList reports whether the field is a scalar list column.
func (f *Field) IsScalarList() bool { return f.Array && f.Relation == nil }

// Builtin reports whether the field type is one of the builtin scalars.
func (f *Field) Builtin() bool {
	switch f.Type {
	case TypeString, TypeBoolean, TypeInt, TypeBigInt, TypeFloat,
		TypeDecimal, TypeDateTime, TypeJSON, TypeBytes:
		return true
	}
	return false
}

// RefAction is a referential action for onDelete/onUpdate.
type RefAction string

// Referential actions.
const (
	Cascade    RefAction = "Cascade"
	Restrict   RefAction = "Restrict"
	SetNull    RefAction = "SetNull"
	SetDefault RefAction = "SetDefault"
	NoAction   RefAction = "NoAction"
)

// Relation describes one side of a relation field. The owning side
// carries Fields/References; the opposite side carries neither.
type Relation struct {
	// Opposite is the relation field name on the target model.
	Opposite string `yaml:"opposite"`
	// Fields are the scalar FK fields on this model.
	Fields []string `yaml:"fields"`
	// References are the referenced fields on the target model.
	References []string  `yaml:"references"`
	OnDelete   RefAction `yaml:"onDelete"`
	OnUpdate   RefAction `yaml:"onUpdate"`
}

// Owner reports whether this side owns the foreign key.
func (r *Relation) Owner() bool { return len(r.Fields) > 0 }

// DefaultCall names for generated default values.
const (
	CallCUID          = "cuid"
	CallUUID          = "uuid"
	CallULID          = "ulid"
	CallNanoID        = "nanoid"
	CallNow           = "now"
	CallAutoincrement = "autoincrement"
)

// Default describes a field default: a literal, a generator call with
// an optional format string and version, or an auth() projection.
type Default struct {
	Value any    `yaml:"value"`
	Call  string `yaml:"call"`
	// Format decorates generated IDs: "prefix_%s_suffix". An escaped
	// \%s is the literal %s; consecutive verbs generate distinct IDs.
	Format  string `yaml:"format"`
	Version int    `yaml:"version"`
	// AuthPath projects the current auth context, e.g. ["id"].
	AuthPath []string `yaml:"authPath"`
}

// Attribute is a field-level validator or transform decorator.
type Attribute struct {
	Name string `yaml:"name"`
	Args []any  `yaml:"args"`
}

// Attribute names understood by the input validator.
const (
	AttrLength     = "length"
	AttrEmail      = "email"
	AttrURL        = "url"
	AttrDatetime   = "datetime"
	AttrRegex      = "regex"
	AttrContains   = "contains"
	AttrStartsWith = "startsWith"
	AttrEndsWith   = "endsWith"
	AttrGT         = "gt"
	AttrGTE        = "gte"
	AttrLT         = "lt"
	AttrLTE        = "lte"
	AttrTrim       = "trim"
	AttrLower      = "lower"
	AttrUpper      = "upper"
	AttrOmit       = "omit"
)

// Operation is a policy-controlled operation kind.
type Operation uint8

// Policy operations.
const (
	OpCreate Operation = 1 << iota
	OpRead
	OpUpdate
	OpPostUpdate
	OpDelete

	OpAll = OpCreate | OpRead | OpUpdate | OpPostUpdate | OpDelete
)

// Has reports whether the set contains op.
func (o Operation) Has(op Operation) bool { return o&op != 0 }

// PolicyKind distinguishes allow from deny rules.
type PolicyKind uint8

// Policy kinds.
const (
	Allow PolicyKind = iota
	Deny
)

// Policy is one @@allow/@@deny (or field-level @allow/@deny) rule.
type Policy struct {
	Kind       PolicyKind
	Operations Operation
	Expression Expr
}

// Procedure is a named server-side function typed by the schema.
type Procedure struct {
	Name     string       `yaml:"name"`
	Params   []*ProcParam `yaml:"params"`
	Returns  string       `yaml:"returns"`
	Mutation bool         `yaml:"mutation"`
}

// ProcParam is one procedure parameter.
type ProcParam struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Optional bool   `yaml:"optional"`
}

// Model returns the named model, or nil.
func (s *Schema) Model(name string) *Model {
	return s.Models[name]
}

// EnumValues returns the values of the named enum.
func (s *Schema) EnumValues(name string) ([]string, bool) {
	vs, ok := s.Enums[name]
	return vs, ok
}

// Field returns the named field of the model, or nil.
func (m *Model) Field(name string) *Field {
	if m.fieldIndex != nil {
		return m.fieldIndex[name]
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TableName returns the physical table name.
func (m *Model) TableName() string {
	if m.DBTable != "" {
		return m.DBTable
	}
	return SnakeCase(m.Name)
}

// ScalarFields returns the non-relation, non-computed, non-ignored
// fields in declaration order.
func (m *Model) ScalarFields() []*Field {
	fs := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.IsRelation() && !f.Computed && !f.Ignored {
			fs = append(fs, f)
		}
	}
	return fs
}

// RelationFields returns the relation fields in declaration order.
func (m *Model) RelationFields() []*Field {
	fs := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.IsRelation() {
			fs = append(fs, f)
		}
	}
	return fs
}

// IDColumns returns the physical columns of the primary key.
func (m *Model) IDColumns() []string {
	cols := make([]string, 0, len(m.IDFields))
	for _, name := range m.IDFields {
		if f := m.Field(name); f != nil {
			cols = append(cols, f.ColumnName())
		}
	}
	return cols
}

// UniqueCriterion resolves the unique filter used by findUnique and
// upsert: the id fields, a named unique tuple, or a single @unique
// field present in where. Returns the matched field names.
func (m *Model) UniqueCriterion(where map[string]any) ([]string, bool) {
	has := func(names []string) bool {
		for _, n := range names {
			if _, ok := where[n]; !ok {
				return false
			}
		}
		return len(names) > 0
	}
	if has(m.IDFields) {
		return m.IDFields, true
	}
	// Compound tuples may appear nested under the tuple name.
	for tuple, names := range m.UniqueFields {
		if nested, ok := where[tuple].(map[string]any); ok && len(names) > 1 {
			all := true
			for _, n := range names {
				if _, ok := nested[n]; !ok {
					all = false
					break
				}
			}
			if all {
				return names, true
			}
		}
		if has(names) {
			return names, true
		}
	}
	return nil, false
}

// PoliciesFor returns the model's effective policy rules for op: its
// own plus those inherited from every delegate ancestor, base first.
func (m *Model) PoliciesFor(s *Schema, op Operation) []*Policy {
	var out []*Policy
	for _, anc := range m.Ancestry(s) {
		for _, p := range anc.Policies {
			if p.Operations.Has(op) {
				out = append(out, p)
			}
		}
	}
	return out
}

// Ancestry returns the inheritance chain of the model, base-most first,
// ending with the model itself.
func (m *Model) Ancestry(s *Schema) []*Model {
	var chain []*Model
	for cur := m; cur != nil; {
		chain = append(chain, cur)
		if cur.BaseModel == "" {
			break
		}
		cur = s.Models[cur.BaseModel]
	}
	slices.Reverse(chain)
	return chain
}

// ConcreteDescendants returns the non-delegate models extending m,
// directly or transitively.
func (m *Model) ConcreteDescendants(s *Schema) []*Model {
	var out []*Model
	for _, other := range s.Models {
		if other == m || other.IsDelegate {
			continue
		}
		for _, anc := range other.Ancestry(s) {
			if anc == m {
				out = append(out, other)
				break
			}
		}
	}
	slices.SortFunc(out, func(a, b *Model) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Freeze indexes and validates the schema. It must be called once
// before the schema is handed to a client; it returns the schema for
// chaining.
func (s *Schema) Freeze() (*Schema, error) {
	for name, m := range s.Models {
		if m.Name == "" {
			m.Name = name
		}
		m.fieldIndex = make(map[string]*Field, len(m.Fields))
		for _, f := range m.Fields {
			m.fieldIndex[f.Name] = f
		}
	}
	for _, m := range s.Models {
		if err := s.validateModel(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) validateModel(m *Model) error {
	if len(m.IDFields) == 0 {
		return fmt.Errorf("schema: model %s has no id fields", m.Name)
	}
	for _, name := range m.IDFields {
		f := m.Field(name)
		if f == nil {
			return fmt.Errorf("schema: model %s: id field %s not found", m.Name, name)
		}
		if f.IsRelation() || f.Optional {
			return fmt.Errorf("schema: model %s: id field %s must be a required scalar", m.Name, name)
		}
	}
	if m.IsDelegate {
		d := m.Field(m.Discriminator)
		if d == nil || d.IsRelation() {
			return fmt.Errorf("schema: delegate model %s: discriminator %q must be a scalar field", m.Name, m.Discriminator)
		}
	}
	if m.BaseModel != "" {
		base := s.Models[m.BaseModel]
		if base == nil {
			return fmt.Errorf("schema: model %s extends unknown model %s", m.Name, m.BaseModel)
		}
		// Unique constraints over inherited fields cannot be enforced
		// on the sub-model's own table.
		for tuple, names := range m.UniqueFields {
			for _, n := range names {
				if m.Field(n) == nil && base.Field(n) != nil {
					return fmt.Errorf("schema: model %s: unique constraint %s references inherited field %s", m.Name, tuple, n)
				}
			}
		}
	}
	for _, f := range m.Fields {
		if err := s.validateField(m, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) validateField(m *Model, f *Field) error {
	r := f.Relation
	if r == nil {
		return nil
	}
	target := s.Models[f.Type]
	if target == nil {
		return fmt.Errorf("schema: model %s: relation %s targets unknown model %s", m.Name, f.Name, f.Type)
	}
	opp := target.Field(r.Opposite)
	if opp == nil || opp.Relation == nil {
		return fmt.Errorf("schema: model %s: relation %s has no opposite field %s.%s", m.Name, f.Name, f.Type, r.Opposite)
	}
	if r.Owner() == opp.Relation.Owner() && !(f.Array && opp.Array) {
		return fmt.Errorf("schema: relation %s.%s <-> %s.%s: exactly one side must declare fields/references", m.Name, f.Name, f.Type, r.Opposite)
	}
	if len(r.Fields) != len(r.References) {
		return fmt.Errorf("schema: model %s: relation %s: fields and references arity mismatch", m.Name, f.Name)
	}
	for _, fk := range r.Fields {
		if m.Field(fk) == nil {
			return fmt.Errorf("schema: model %s: relation %s references unknown fk field %s", m.Name, f.Name, fk)
		}
	}
	for _, ref := range r.References {
		if target.Field(ref) == nil {
			return fmt.Errorf("schema: model %s: relation %s references unknown field %s.%s", m.Name, f.Name, f.Type, ref)
		}
	}
	return nil
}

// FromYAML decodes the structural part of a schema (models, fields,
// relations, enums, procedures) from YAML and freezes it. Policies and
// computed-field expressions are code, not data; they are attached by
// the caller before the schema is used.
func FromYAML(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decoding yaml: %w", err)
	}
	return s.Freeze()
}
