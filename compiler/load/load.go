// Package load compiles Go schema definitions (zen.Interface values
// built with the field, edge, index and mixin packages) into the
// frozen runtime schema the engine consumes. Loading is reflective:
// the schema definitions are plain values, not a separately parsed
// package.
package load

import (
	"fmt"
	"reflect"
	"time"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/dialect/sqlschema"
	"github.com/zenstack-dev/zen-go/schema"
	"github.com/zenstack-dev/zen-go/schema/edge"
	"github.com/zenstack-dev/zen-go/schema/field"
	"github.com/zenstack-dev/zen-go/schema/index"
)

type fieldDescriptor interface {
	Descriptor() *field.Descriptor
}

type edgeDescriptor interface {
	Descriptor() *edge.Descriptor
}

type indexDescriptor interface {
	Descriptor() *index.Descriptor
}

// Load compiles the given schema definitions into a frozen runtime
// schema for the provider.
func Load(provider schema.Provider, defs ...zen.Interface) (*schema.Schema, error) {
	s := &schema.Schema{
		Provider:   provider,
		Models:     map[string]*schema.Model{},
		Enums:      map[string][]string{},
		TypeDefs:   map[string]*schema.TypeDef{},
		Procedures: map[string]*schema.Procedure{},
	}
	l := &loader{schema: s}
	for _, def := range defs {
		if err := l.model(def); err != nil {
			return nil, err
		}
	}
	if err := l.resolveEdges(); err != nil {
		return nil, err
	}
	return s.Freeze()
}

type loader struct {
	schema *schema.Schema
	// pending edges await both endpoints before pairing.
	pending []pendingEdge
}

type pendingEdge struct {
	model string
	desc  *edge.Descriptor
}

func modelName(def zen.Interface) string {
	t := reflect.TypeOf(def)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func (l *loader) model(def zen.Interface) error {
	name := modelName(def)
	if name == "" {
		return zen.NewConfigError("load: schema definitions must be named struct types", nil)
	}
	if _, dup := l.schema.Models[name]; dup {
		return zen.NewConfigError(fmt.Sprintf("load: duplicate schema %s", name), nil)
	}
	m := &schema.Model{Name: name, UniqueFields: map[string][]string{}}
	if table := def.Config().Table; table != "" {
		m.DBTable = table
	}
	for _, ann := range def.Annotations() {
		sa, ok := ann.(sqlschema.Annotation)
		if !ok {
			continue
		}
		if sa.Table != "" {
			m.DBTable = sa.Table
		}
		if sa.Schema != "" {
			m.DBSchema = sa.Schema
		}
	}
	// Mixins contribute fields and indexes ahead of the schema's own.
	var fields []zen.Field
	var indexes []zen.Index
	for _, mx := range def.Mixin() {
		fields = append(fields, mx.Fields()...)
		indexes = append(indexes, mx.Indexes()...)
	}
	fields = append(fields, def.Fields()...)
	indexes = append(indexes, def.Indexes()...)

	for _, f := range fields {
		if err := l.field(m, f); err != nil {
			return err
		}
	}
	if !hasIDField(m) {
		// The implicit integer primary key, assigned by the database.
		m.Fields = append([]*schema.Field{{
			Name:    "id",
			Type:    schema.TypeInt,
			ID:      true,
			Default: &schema.Default{Call: schema.CallAutoincrement},
		}}, m.Fields...)
	}
	for _, f := range m.Fields {
		if f.ID {
			m.IDFields = append(m.IDFields, f.Name)
		}
		if f.Unique {
			m.UniqueFields[f.Name] = []string{f.Name}
		}
	}
	for _, ix := range indexes {
		if err := l.index(m, ix); err != nil {
			return err
		}
	}
	for _, e := range def.Edges() {
		ed, ok := e.(edgeDescriptor)
		if !ok {
			return zen.NewConfigError(fmt.Sprintf("load: %s declares an edge without a descriptor", name), nil)
		}
		desc := ed.Descriptor()
		if desc.Err != nil {
			return zen.NewConfigError(fmt.Sprintf("load: %s: invalid edge %s", name, desc.Name), desc.Err)
		}
		l.pending = append(l.pending, pendingEdge{model: name, desc: desc})
	}
	l.schema.Models[name] = m
	return nil
}

func (l *loader) field(m *schema.Model, f zen.Field) error {
	fd, ok := f.(fieldDescriptor)
	if !ok {
		return zen.NewConfigError(fmt.Sprintf("load: %s declares a field without a descriptor", m.Name), nil)
	}
	desc := fd.Descriptor()
	if desc.Err != nil {
		return zen.NewConfigError(fmt.Sprintf("load: %s: invalid field %s", m.Name, desc.Name), desc.Err)
	}
	out := &schema.Field{
		Name:     desc.Name,
		Optional: desc.Optional || desc.Nillable,
		Unique:   desc.Unique,
		Column:   desc.StorageKey,
		ID:       desc.Name == "id",
	}
	typ, array, err := l.fieldType(m, desc)
	if err != nil {
		return err
	}
	out.Type, out.Array = typ, array
	if desc.Default != nil {
		out.Default = defaultFor(desc.Default)
	}
	if desc.UpdateDefault != nil && typ == schema.TypeDateTime {
		out.UpdatedAt = true
	}
	if desc.Sensitive {
		out.Attributes = append(out.Attributes, schema.Attribute{Name: schema.AttrOmit})
	}
	if desc.Size > 0 {
		out.Attributes = append(out.Attributes, schema.Attribute{Name: schema.AttrLength, Args: []any{0, desc.Size}})
	}
	m.Fields = append(m.Fields, out)
	return nil
}

// fieldType maps the DSL type descriptor to the runtime builtin (or
// enum) name.
func (l *loader) fieldType(m *schema.Model, desc *field.Descriptor) (string, bool, error) {
	info := desc.Info
	if info == nil {
		return "", false, zen.NewConfigError(fmt.Sprintf("load: %s.%s has no type info", m.Name, desc.Name), nil)
	}
	switch info.Type {
	case field.TypeString, field.TypeUUID:
		return schema.TypeString, false, nil
	case field.TypeBool:
		return schema.TypeBoolean, false, nil
	case field.TypeTime:
		return schema.TypeDateTime, false, nil
	case field.TypeBytes:
		return schema.TypeBytes, false, nil
	case field.TypeJSON:
		array := info.RType != nil && info.RType.Kind == reflect.Slice
		return schema.TypeJSON, array, nil
	case field.TypeEnum:
		enumName := m.Name + schema.PascalCase(desc.Name)
		values := make([]string, 0, len(desc.Enums))
		for _, e := range desc.Enums {
			values = append(values, e.V)
		}
		l.schema.Enums[enumName] = values
		return enumName, false, nil
	case field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt,
		field.TypeUint8, field.TypeUint16, field.TypeUint32, field.TypeUint:
		return schema.TypeInt, false, nil
	case field.TypeInt64, field.TypeUint64:
		return schema.TypeBigInt, false, nil
	case field.TypeFloat32, field.TypeFloat64:
		return schema.TypeFloat, false, nil
	default:
		return schema.TypeString, false, nil
	}
}

// defaultFor classifies a DSL default value: literals carry over, and
// generator functions map to the client-side generator calls by their
// return type.
func defaultFor(v any) *schema.Default {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		if t, ok := v.(time.Time); ok {
			return &schema.Default{Value: t}
		}
		return &schema.Default{Value: v}
	}
	rt := rv.Type()
	if rt.NumOut() != 1 {
		return nil
	}
	switch rt.Out(0) {
	case reflect.TypeOf(time.Time{}):
		return &schema.Default{Call: schema.CallNow}
	case reflect.TypeOf(""):
		return &schema.Default{Call: schema.CallCUID}
	}
	if rt.Out(0).Implements(reflect.TypeOf((*fmt.Stringer)(nil)).Elem()) {
		return &schema.Default{Call: schema.CallUUID}
	}
	return nil
}

func (l *loader) index(m *schema.Model, ix zen.Index) error {
	id, ok := ix.(indexDescriptor)
	if !ok {
		return zen.NewConfigError(fmt.Sprintf("load: %s declares an index without a descriptor", m.Name), nil)
	}
	desc := id.Descriptor()
	if !desc.Unique || len(desc.Fields) == 0 {
		// Non-unique indexes are storage advice; the runtime schema
		// only tracks uniqueness.
		return nil
	}
	name := desc.StorageKey
	if name == "" {
		name = joinCamel(desc.Fields)
	}
	m.UniqueFields[name] = append([]string{}, desc.Fields...)
	return nil
}

func joinCamel(fields []string) string {
	out := ""
	for i, f := range fields {
		if i == 0 {
			out = f
			continue
		}
		out += schema.PascalCase(f)
	}
	return out
}

// resolveEdges pairs To/From declarations into runtime relations once
// every model is known.
func (l *loader) resolveEdges() error {
	for _, pe := range l.pending {
		if err := l.resolveEdge(pe); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) resolveEdge(pe pendingEdge) error {
	m := l.schema.Models[pe.model]
	desc := pe.desc
	target := l.schema.Models[desc.Type]
	if target == nil {
		return zen.NewConfigError(fmt.Sprintf("load: %s: edge %s targets unknown schema %s", pe.model, desc.Name, desc.Type), nil)
	}
	opposite := desc.RefName
	if opposite == "" {
		opposite = l.findOpposite(pe)
	}
	if opposite == "" {
		return zen.NewConfigError(fmt.Sprintf("load: %s: edge %s has no back-reference on %s", pe.model, desc.Name, desc.Type), nil)
	}
	rel := &schema.Relation{Opposite: opposite}
	out := &schema.Field{
		Name:     desc.Name,
		Type:     desc.Type,
		Array:    !desc.Unique,
		Optional: !desc.Required,
		Relation: rel,
	}
	// The inverse unique side owns the foreign key, mirroring how a
	// From(...).Unique() edge stores the key on its own table.
	oppDesc := l.oppositeDesc(desc.Type, opposite)
	ownsFK := desc.Inverse && desc.Unique
	if !desc.Inverse && desc.Unique && oppDesc != nil && !oppDesc.Unique {
		// One side of a O2M seen from the "one" end.
		ownsFK = false
	}
	if ownsFK {
		fkName := desc.Field
		if fkName == "" {
			fkName = schema.CamelCase(desc.Name) + "ID"
		}
		if m.Field(fkName) == nil {
			m.Fields = append(m.Fields, &schema.Field{
				Name:          fkName,
				Type:          l.idTypeOf(target),
				Optional:      !desc.Required,
				Column:        schema.SnakeCase(desc.Name) + "_id",
				ForeignKeyFor: []string{desc.Name},
			})
		} else {
			fk := m.Field(fkName)
			fk.ForeignKeyFor = append(fk.ForeignKeyFor, desc.Name)
		}
		rel.Fields = []string{fkName}
		rel.References = append([]string{}, target.IDFields...)
	}
	m.Fields = append(m.Fields, out)
	return nil
}

// findOpposite locates the back-reference edge on the target schema
// when Ref was not given: the pending edge on the target whose RefName
// names this edge.
func (l *loader) findOpposite(pe pendingEdge) string {
	for _, other := range l.pending {
		if other.model != pe.desc.Type {
			continue
		}
		if other.desc.Type == pe.model && other.desc.RefName == pe.desc.Name {
			return other.desc.Name
		}
	}
	return ""
}

func (l *loader) oppositeDesc(model, name string) *edge.Descriptor {
	for _, other := range l.pending {
		if other.model == model && other.desc.Name == name {
			return other.desc
		}
	}
	return nil
}

func (l *loader) idTypeOf(m *schema.Model) string {
	if len(m.IDFields) > 0 {
		if f := m.Field(m.IDFields[0]); f != nil {
			return f.Type
		}
	}
	return schema.TypeInt
}

func hasIDField(m *schema.Model) bool {
	for _, f := range m.Fields {
		if f.ID {
			return true
		}
	}
	return false
}
