// Package field provides fluent builders for defining entity fields.
//
// See doc.go for a full overview of field semantics (types, defaults,
// validators, nullability, and custom Go types).
package field

import (
	"database/sql/driver"
	"encoding"
	"fmt"
	"path"
	"reflect"
	"time"
	"unicode/utf8"

	"github.com/zenstack-dev/zen-go/schema"
)

var timeZero = time.Time{}

// Type identifies a field's underlying storage representation.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	endType
)

// String returns the Go type name this storage Type normally maps to.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time.Time"
	case TypeJSON:
		return "json"
	case TypeUUID:
		return "uuid.UUID"
	case TypeBytes:
		return "[]byte"
	case TypeEnum, TypeString:
		return "string"
	case TypeOther:
		return "other"
	case TypeInt:
		return "int"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint:
		return "uint"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	default:
		return "invalid"
	}
}

// ConstName returns the Go identifier of the constant for t, e.g.
// "TypeInt64", or "invalid" if t is out of range.
func (t Type) ConstName() string {
	switch t {
	case TypeBool:
		return "TypeBool"
	case TypeTime:
		return "TypeTime"
	case TypeJSON:
		return "TypeJSON"
	case TypeUUID:
		return "TypeUUID"
	case TypeBytes:
		return "TypeBytes"
	case TypeEnum:
		return "TypeEnum"
	case TypeString:
		return "TypeString"
	case TypeOther:
		return "TypeOther"
	case TypeInt:
		return "TypeInt"
	case TypeInt8:
		return "TypeInt8"
	case TypeInt16:
		return "TypeInt16"
	case TypeInt32:
		return "TypeInt32"
	case TypeInt64:
		return "TypeInt64"
	case TypeUint:
		return "TypeUint"
	case TypeUint8:
		return "TypeUint8"
	case TypeUint16:
		return "TypeUint16"
	case TypeUint32:
		return "TypeUint32"
	case TypeUint64:
		return "TypeUint64"
	case TypeFloat32:
		return "TypeFloat32"
	case TypeFloat64:
		return "TypeFloat64"
	default:
		return "invalid"
	}
}

// Valid reports whether t is one of the defined Type constants.
func (t Type) Valid() bool { return t > TypeInvalid && t < endType }

// Numeric reports whether t is one of the integer or floating point types.
func (t Type) Numeric() bool { return t >= TypeInt && t < endType }

// RType describes the reflect.Type bound to a field through GoType,
// reduced to the information the compiler needs to decide conversions
// and detect interface implementations without holding the
// reflect.Type itself in generated code.
type RType struct {
	Name    string
	Ident   string
	Kind    reflect.Kind
	PkgPath string
	PkgName string
	Methods map[string]RTypeMethod

	rtype reflect.Type
}

// RTypeMethod describes the parameter and return types of a method
// found on an RType, used to detect operator-like methods such as
// Add(T) T.
type RTypeMethod struct {
	In  []*RType
	Out []*RType
}

func leafType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		return leafType(t.Elem())
	default:
		return t
	}
}

func shallowRType(t reflect.Type) *RType {
	leaf := leafType(t)
	rt := &RType{
		Ident:   t.String(),
		Kind:    t.Kind(),
		PkgPath: leaf.PkgPath(),
		rtype:   t,
	}
	rt.Name = leaf.Name()
	if rt.PkgPath != "" {
		rt.PkgName = path.Base(rt.PkgPath)
	}
	return rt
}

func newRType(t reflect.Type) *RType {
	rt := shallowRType(t)
	rt.Methods = methodsOf(t)
	return rt
}

func methodsOf(t reflect.Type) map[string]RTypeMethod {
	methods := make(map[string]RTypeMethod)
	collect := func(mt reflect.Type, skipRecv bool) {
		for i := 0; i < mt.NumMethod(); i++ {
			m := mt.Method(i)
			sig := m.Type
			start := 0
			if skipRecv {
				start = 1
			}
			var method RTypeMethod
			for in := start; in < sig.NumIn(); in++ {
				method.In = append(method.In, shallowRType(sig.In(in)))
			}
			for out := 0; out < sig.NumOut(); out++ {
				method.Out = append(method.Out, shallowRType(sig.Out(out)))
			}
			methods[m.Name] = method
		}
	}
	switch t.Kind() {
	case reflect.Interface:
		collect(t, false)
	case reflect.Ptr:
		collect(t, true)
		collect(reflect.PtrTo(t), true)
	default:
		collect(t, true)
		collect(reflect.PtrTo(t), true)
	}
	return methods
}

// IsPtr reports whether the bound Go type is a pointer type.
func (r *RType) IsPtr() bool { return r.rtype != nil && r.rtype.Kind() == reflect.Ptr }

// TypeEqual reports whether the bound Go type is identical to t.
func (r *RType) TypeEqual(t reflect.Type) bool { return r.rtype == t }

// Implements reports whether the bound Go type, or its pointer form (to
// account for pointer-receiver methods), implements iface.
func (r *RType) Implements(iface reflect.Type) bool {
	t := r.rtype
	if t == nil {
		return false
	}
	if t.Implements(iface) {
		return true
	}
	if t.Kind() == reflect.Ptr {
		return t.Elem().Implements(iface)
	}
	return reflect.PtrTo(t).Implements(iface)
}

// String returns the bound Go type's identifier, e.g. "*sql.NullInt64".
func (r *RType) String() string { return r.Ident }

var (
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	scannerType = reflect.TypeOf((*ValueScanner)(nil)).Elem()
	stringerType = reflect.TypeOf((*interface{ String() string })(nil)).Elem()
)

// TypeInfo holds the full type information of a field, bridging the
// storage Type with the concrete Go type bound through GoType.
type TypeInfo struct {
	Type     Type
	Ident    string
	PkgPath  string
	PkgName  string
	Nillable bool
	RType    *RType
}

// String returns the identifier of the field's Go type.
func (t *TypeInfo) String() string { return t.Ident }

// ValueScanner reports whether the Go type implements both
// driver.Valuer and sql.Scanner.
func (t *TypeInfo) ValueScanner() bool { return t.RType != nil && t.RType.Implements(scannerType) }

// Valuer reports whether the Go type implements driver.Valuer.
func (t *TypeInfo) Valuer() bool { return t.RType != nil && t.RType.Implements(valuerType) }

// Stringer reports whether the Go type implements fmt.Stringer.
func (t *TypeInfo) Stringer() bool { return t.RType != nil && t.RType.Implements(stringerType) }

func typeInfo(storage Type, t reflect.Type) *TypeInfo {
	if t == nil {
		return &TypeInfo{Type: storage, Ident: "any"}
	}
	leaf := leafType(t)
	info := &TypeInfo{
		Type:  storage,
		Ident: t.String(),
		RType: newRType(t),
	}
	info.PkgPath = leaf.PkgPath()
	if info.PkgPath != "" {
		info.PkgName = path.Base(info.PkgPath)
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		info.Nillable = true
	}
	return info
}

// ValueScanner is implemented by a custom Go type capable of
// converting itself to and from a database value, analogous to the
// combination of driver.Valuer and sql.Scanner.
type ValueScanner interface {
	driver.Valuer
	Scan(src any) error
}

// TypeValueScanner is implemented by a value bound to a field's native
// Go type T that knows how to box/unbox a database value on its
// behalf (ValueScannerFunc, BinaryValueScanner). The type parameter is
// used only to keep a scanner tied to the field's Go type at the
// call-site; the interface itself is unexported so only this package
// can provide implementations.
type TypeValueScanner[T any] interface {
	value(T) (driver.Value, error)
	scan(any) (T, error)
}

// ValueScannerFunc implements TypeValueScanner[T] from a pair of
// conversion functions: V converts a field value of type T to a
// driver.Value, and S converts a value scanned into V back to T.
type ValueScannerFunc[T, V any] struct {
	V func(T) (driver.Value, error)
	S func(V) (T, error)
}

func (f ValueScannerFunc[T, V]) value(t T) (driver.Value, error) { return f.V(t) }

func (f ValueScannerFunc[T, V]) scan(v any) (T, error) {
	var zero T
	sv, ok := v.(V)
	if !ok {
		return zero, fmt.Errorf("field: unexpected scan type %T", v)
	}
	return f.S(sv)
}

// BinaryValueScanner implements TypeValueScanner[T] for Go types that
// implement encoding.BinaryMarshaler/encoding.BinaryUnmarshaler,
// storing them as a binary column.
type BinaryValueScanner[T any] struct{}

func (BinaryValueScanner[T]) value(t T) (driver.Value, error) {
	m, ok := any(t).(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("field: %T does not implement encoding.BinaryMarshaler", t)
	}
	return m.MarshalBinary()
}

func (BinaryValueScanner[T]) scan(v any) (T, error) {
	var zero T
	b, ok := v.([]byte)
	if !ok {
		return zero, fmt.Errorf("field: unexpected scan type %T", v)
	}
	u, ok := any(&zero).(encoding.BinaryUnmarshaler)
	if !ok {
		return zero, fmt.Errorf("field: %T does not implement encoding.BinaryUnmarshaler", zero)
	}
	if err := u.UnmarshalBinary(b); err != nil {
		return zero, err
	}
	return zero, nil
}

// Descriptor carries the configuration of a field as set by a
// builder. It is the value consumed by the schema compiler.
type Descriptor struct {
	Name             string
	Info             *TypeInfo
	ValueScanner     any
	Tag              string
	Size             int
	Enums            []struct{ N, V string }
	Unique           bool
	Nillable         bool
	Optional         bool
	Default          any
	UpdateDefault    any
	Immutable        bool
	Validators       []any
	StorageKey       string
	Sensitive        bool
	SchemaType       map[string]string
	Annotations      []schema.Annotation
	Comment          string
	Deprecated       bool
	DeprecatedReason string
	Err              error
}

// valuesOf is implemented by enum-like Go types that enumerate their
// own valid values.
type valuesOf interface{ Values() []string }

// builder is the concrete field builder shared by every non-numeric
// constructor (Bool, Time, UUID, Bytes, Enum, JSON/Any, String/Text,
// Other, and the JSON slice shorthands). Because zen.Field is a plain
// any alias, one shared builder can stand in for every schema type
// without losing interface satisfaction.
type builder struct {
	ctor       string
	desc       *Descriptor
	goType     reflect.Type
	allowAny   bool
	uuidLike   bool
	otherType  bool
	enumAuto   bool
	defaultRaw any
	defaultSet bool
	defaultFn  bool
	updateRaw  any
}

func newBuilder(ctor, name string, storage Type, goType reflect.Type) *builder {
	return &builder{
		ctor:   ctor,
		desc:   &Descriptor{Name: name, Info: typeInfo(storage, goType)},
		goType: goType,
	}
}

// Bool returns a new boolean field builder.
func Bool(name string) *builder { return newBuilder("Bool", name, TypeBool, reflect.TypeOf(false)) }

// Time returns a new time.Time field builder.
func Time(name string) *builder {
	return newBuilder("Time", name, TypeTime, reflect.TypeOf(timeZero))
}

// Bytes returns a new []byte field builder.
func Bytes(name string) *builder {
	return newBuilder("Bytes", name, TypeBytes, reflect.TypeOf([]byte(nil)))
}

// String returns a new string field builder.
func String(name string) *builder {
	return newBuilder("String", name, TypeString, reflect.TypeOf(""))
}

// Text returns a new unbounded string field builder, typically mapped
// to a TEXT/CLOB column instead of a bounded VARCHAR.
func Text(name string) *builder {
	b := newBuilder("Text", name, TypeString, reflect.TypeOf(""))
	return b
}

// UUID returns a new UUID field builder. typ is a zero value of the
// concrete UUID Go type (e.g. uuid.UUID{}) used to validate Default.
func UUID(name string, typ any) *builder {
	b := newBuilder("UUID", name, TypeUUID, reflect.TypeOf(typ))
	b.uuidLike = true
	return b
}

// Enum returns a new string-backed enum field builder.
func Enum(name string) *builder {
	b := newBuilder("Enum", name, TypeEnum, reflect.TypeOf(""))
	b.enumAuto = true
	return b
}

// Other returns a new field builder for a custom Go type with no
// built-in storage mapping. SchemaType must be set, naming the column
// type for every dialect the schema targets.
func Other(name string, typ any) *builder {
	b := newBuilder("Other", name, TypeOther, reflect.TypeOf(typ))
	b.otherType = true
	return b
}

// JSON returns a new field builder stored as a JSON column, typed as
// the Go type of typ.
func JSON(name string, typ any) *builder {
	if reflect.TypeOf(typ) == nil {
		b := newBuilder("JSON", name, TypeJSON, nil)
		b.desc.Err = fmt.Errorf("expect a Go value as JSON type but got nil")
		return b
	}
	return newBuilder("JSON", name, TypeJSON, reflect.TypeOf(typ))
}

// Any returns a new field builder stored as JSON with no static Go
// type constraint.
func Any(name string) *builder {
	b := newBuilder("Any", name, TypeJSON, nil)
	b.allowAny = true
	return b
}

// Strings returns a new field builder for a []string column, stored
// as JSON.
func Strings(name string) *builder {
	return newBuilder("Strings", name, TypeJSON, reflect.TypeOf([]string(nil)))
}

// Ints returns a new field builder for a []int column, stored as JSON.
func Ints(name string) *builder {
	return newBuilder("Ints", name, TypeJSON, reflect.TypeOf([]int(nil)))
}

// Floats returns a new field builder for a []float64 column, stored
// as JSON.
func Floats(name string) *builder {
	return newBuilder("Floats", name, TypeJSON, reflect.TypeOf([]float64(nil)))
}

// Unique marks the field as having a unique index.
func (b *builder) Unique() *builder {
	b.desc.Unique = true
	return b
}

// Optional marks the field as not required on creation.
func (b *builder) Optional() *builder {
	b.desc.Optional = true
	return b
}

// Nillable marks the field's generated Go struct field as a pointer,
// distinguishing a zero value from an absent one.
func (b *builder) Nillable() *builder {
	b.desc.Nillable = true
	return b
}

// Immutable marks the field as unchangeable after creation.
func (b *builder) Immutable() *builder {
	b.desc.Immutable = true
	return b
}

// Sensitive omits the field from the generated struct's String method
// and JSON marshaling.
func (b *builder) Sensitive() *builder {
	b.desc.Sensitive = true
	return b
}

// Comment sets a free-form doc comment for the generated field.
func (b *builder) Comment(text string) *builder {
	b.desc.Comment = text
	return b
}

// StructTag overrides the struct-tag of the generated field.
func (b *builder) StructTag(tag string) *builder {
	b.desc.Tag = tag
	return b
}

// StorageKey overrides the default column name chosen by the compiler.
func (b *builder) StorageKey(key string) *builder {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect, keyed by
// dialect.Postgres, dialect.MySQL or dialect.SQLite.
func (b *builder) SchemaType(types map[string]string) *builder {
	b.desc.SchemaType = types
	return b
}

// Annotations appends annotations to the field.
func (b *builder) Annotations(annotations ...schema.Annotation) *builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Deprecated marks the field as deprecated, recording reason in the
// generated doc comment.
func (b *builder) Deprecated(reason string) *builder {
	b.desc.Deprecated = true
	b.desc.DeprecatedReason = reason
	return b
}

// Validate appends a custom validator function, called before create
// and update operations that set the field.
func (b *builder) Validate(fn any) *builder {
	b.desc.Validators = append(b.desc.Validators, fn)
	return b
}

// ValueScanner overrides how the field's Go value is converted to and
// from a database value, for custom GoTypes without a native
// driver.Valuer/sql.Scanner implementation.
func (b *builder) ValueScanner(vs any) *builder {
	b.desc.ValueScanner = vs
	return b
}

// Default sets the default value, or a zero-argument function
// returning one, used when the field is not set on creation.
func (b *builder) Default(v any) *builder {
	b.defaultRaw = v
	b.defaultSet = true
	b.defaultFn = false
	return b
}

// DefaultFunc sets a zero-argument function returning the default
// value used when the field is not set on creation.
func (b *builder) DefaultFunc(fn any) *builder {
	b.defaultRaw = fn
	b.defaultSet = true
	b.defaultFn = true
	return b
}

// UpdateDefault sets a zero-argument function returning the value
// applied to the field whenever the entity is updated.
func (b *builder) UpdateDefault(fn any) *builder {
	b.updateRaw = fn
	return b
}

// GoType overrides the field's generated Go type with typ, which must
// either share the field's native kind, or implement ValueScanner (or
// have one supplied through ValueScanner).
func (b *builder) GoType(typ any) *builder {
	b.goType = reflect.TypeOf(typ)
	b.desc.Info = typeInfo(b.desc.Info.Type, b.goType)
	return b
}

// Values sets the enum's valid values.
func (b *builder) Values(values ...string) *builder {
	b.enumAuto = false
	b.desc.Enums = nil
	for _, v := range values {
		b.desc.Enums = append(b.desc.Enums, struct{ N, V string }{V: v})
	}
	return b
}

// NamedValues sets the enum's valid values from alternating
// name/value pairs, used when the generated Go constant name differs
// from the stored value (e.g. NamedValues("USER", "user")).
func (b *builder) NamedValues(namevalue ...string) *builder {
	b.enumAuto = false
	b.desc.Enums = nil
	for i := 0; i+1 < len(namevalue); i += 2 {
		b.desc.Enums = append(b.desc.Enums, struct{ N, V string }{N: namevalue[i], V: namevalue[i+1]})
	}
	return b
}

// MinLen appends a minimum-length validator and records n as Size.
func (b *builder) MinLen(n int) *builder {
	b.desc.Size = n
	return b.appendLenValidator(func(l int) error {
		if l < n {
			return fmt.Errorf("value is less than the required length %d", n)
		}
		return nil
	})
}

// MaxLen appends a maximum-length validator and records n as Size.
func (b *builder) MaxLen(n int) *builder {
	b.desc.Size = n
	return b.appendLenValidator(func(l int) error {
		if l > n {
			return fmt.Errorf("value is greater than the required length %d", n)
		}
		return nil
	})
}

// NotEmpty appends a validator rejecting an empty value.
func (b *builder) NotEmpty() *builder {
	return b.appendLenValidator(func(l int) error {
		if l == 0 {
			return fmt.Errorf("value is empty")
		}
		return nil
	})
}

func (b *builder) appendLenValidator(check func(int) error) *builder {
	if b.desc.Info.Type == TypeBytes {
		b.desc.Validators = append(b.desc.Validators, func(v []byte) error { return check(len(v)) })
		return b
	}
	b.desc.Validators = append(b.desc.Validators, func(v string) error { return check(len(v)) })
	return b
}

// MinRuneLen appends a validator rejecting a string with fewer than n runes.
func (b *builder) MinRuneLen(n int) *builder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if utf8.RuneCountInString(v) < n {
			return fmt.Errorf("value length is less than minimum length %d", n)
		}
		return nil
	})
	return b
}

// MaxRuneLen appends a validator rejecting a string with more than n runes.
func (b *builder) MaxRuneLen(n int) *builder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if utf8.RuneCountInString(v) > n {
			return fmt.Errorf("value length exceeds maximum length %d", n)
		}
		return nil
	})
	return b
}

// Match appends a validator requiring the string to match re.
func (b *builder) Match(re regexpMatcher) *builder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if !re.MatchString(v) {
			return fmt.Errorf("value does not match validation %q", re.String())
		}
		return nil
	})
	return b
}

// regexpMatcher is satisfied by *regexp.Regexp, kept narrow so this
// package does not need to import regexp solely for a method set.
type regexpMatcher interface {
	MatchString(string) bool
	String() string
}

// Descriptor implements zen.Field, finalizing deferred validation
// (GoType compatibility, Default/DefaultFunc/UpdateDefault
// assignability) against the builder's final state.
func (b *builder) Descriptor() *Descriptor {
	if b.desc.Err != nil {
		return b.desc
	}
	if err := b.validateGoType(); err != nil {
		b.desc.Err = err
		return b.desc
	}
	if b.enumAuto && len(b.desc.Enums) == 0 && b.goType != nil {
		if vo, ok := reflect.New(b.goType).Elem().Interface().(valuesOf); ok {
			for _, v := range vo.Values() {
				b.desc.Enums = append(b.desc.Enums, struct{ N, V string }{V: v})
			}
		}
	}
	if b.otherType && b.desc.SchemaType == nil {
		b.desc.Err = fmt.Errorf("field.Other(%q): missing SchemaType option", b.desc.Name)
		return b.desc
	}
	if b.defaultSet {
		v, err := b.validateDefaultLike(b.defaultRaw, b.defaultFn, "DefaultFunc")
		if err != nil {
			b.desc.Err = err
			return b.desc
		}
		b.desc.Default = v
	}
	if b.updateRaw != nil {
		v, err := b.validateDefaultLike(b.updateRaw, true, "UpdateDefault")
		if err != nil {
			b.desc.Err = err
			return b.desc
		}
		b.desc.UpdateDefault = v
	}
	return b.desc
}

func (b *builder) validateGoType() error {
	if b.desc.Info == nil || b.desc.Info.Type == TypeJSON || b.desc.Info.Type == TypeOther {
		return nil
	}
	if b.goType == nil {
		return nil
	}
	if requiredKind(b.desc.Info.Type, b.goType) {
		return nil
	}
	info := typeInfo(b.desc.Info.Type, b.goType)
	if info.ValueScanner() {
		return nil
	}
	if b.desc.ValueScanner != nil {
		return nil
	}
	return fmt.Errorf("GoType must be a %q type, ValueScanner or provide an external ValueScanner", b.desc.Info.Type.String())
}

// requiredKind reports whether goType's underlying reflect.Kind is
// compatible with storage's natural Go representation. It is
// deliberately kind-based rather than AssignableTo-strict, so a named
// type over the expected kind (e.g. a string-backed enum, or a struct
// embedding time.Time) is accepted without needing ValueScanner.
func requiredKind(t Type, goType reflect.Type) bool {
	switch t {
	case TypeBool:
		return goType.Kind() == reflect.Bool
	case TypeTime:
		return goType.Kind() == reflect.Struct
	case TypeBytes:
		return goType.Kind() == reflect.Slice && goType.Elem().Kind() == reflect.Uint8
	case TypeString, TypeEnum:
		return goType.Kind() == reflect.String
	case TypeUUID:
		return goType.Kind() == reflect.Struct || goType.Kind() == reflect.Array
	default:
		return true
	}
}

func (b *builder) validateDefaultLike(v any, requireFunc bool, method string) (any, error) {
	rv := reflect.ValueOf(v)
	if b.uuidLike {
		if rv.Kind() != reflect.Func || rv.Type().NumIn() != 0 || rv.Type().NumOut() != 1 || !rv.Type().Out(0).AssignableTo(b.goType) {
			return nil, fmt.Errorf("expect type (func() %s) for uuid default value", b.goType)
		}
		return v, nil
	}
	if rv.Kind() == reflect.Func {
		ft := rv.Type()
		if ft.NumIn() != 0 || ft.NumOut() != 1 {
			return nil, fmt.Errorf("field.%s(%q).%s expects a func() T", b.ctor, b.desc.Name, method)
		}
		if b.goType != nil && !ft.Out(0).AssignableTo(b.goType) {
			return nil, fmt.Errorf("field.%s(%q).%s returns %s, mismatched with field type %s", b.ctor, b.desc.Name, method, ft.Out(0), b.goType)
		}
		return v, nil
	}
	if requireFunc {
		return nil, fmt.Errorf("field.%s(%q).%s expects func but got %s", b.ctor, b.desc.Name, method, rv.Kind())
	}
	if b.goType != nil && !rv.Type().AssignableTo(b.goType) {
		return nil, fmt.Errorf("field.%s(%q).Default expects type %s but got %s", b.ctor, b.desc.Name, b.goType, rv.Kind())
	}
	return v, nil
}
