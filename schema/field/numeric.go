package field

import (
	"fmt"
	"reflect"

	"github.com/zenstack-dev/zen-go/schema"
)

// numericBuilder is the generic builder shared by every numeric field
// constructor. Go's untyped-constant inference over the type
// parameter T means Default(5) on an Int8 builder produces an int8(5)
// at compile time, with no runtime conversion needed.
type numericBuilder[T numeric] struct {
	ctor       string
	desc       *Descriptor
	goType     reflect.Type
	defaultRaw any
	defaultSet bool
	defaultFn  bool
	updateRaw  any
}

// numeric constrains the Go types a numeric field may natively hold.
type numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func newNumericBuilder[T numeric](ctor, name string, storage Type) *numericBuilder[T] {
	var zero T
	return &numericBuilder[T]{
		ctor:   ctor,
		desc:   &Descriptor{Name: name, Info: typeInfo(storage, reflect.TypeOf(zero))},
		goType: reflect.TypeOf(zero),
	}
}

// Int returns a new int field builder.
func Int(name string) *numericBuilder[int] { return newNumericBuilder[int]("Int", name, TypeInt) }

// Int8 returns a new int8 field builder.
func Int8(name string) *numericBuilder[int8] { return newNumericBuilder[int8]("Int8", name, TypeInt8) }

// Int16 returns a new int16 field builder.
func Int16(name string) *numericBuilder[int16] {
	return newNumericBuilder[int16]("Int16", name, TypeInt16)
}

// Int32 returns a new int32 field builder.
func Int32(name string) *numericBuilder[int32] {
	return newNumericBuilder[int32]("Int32", name, TypeInt32)
}

// Int64 returns a new int64 field builder.
func Int64(name string) *numericBuilder[int64] {
	return newNumericBuilder[int64]("Int64", name, TypeInt64)
}

// Uint returns a new uint field builder.
func Uint(name string) *numericBuilder[uint] { return newNumericBuilder[uint]("Uint", name, TypeUint) }

// Uint8 returns a new uint8 field builder.
func Uint8(name string) *numericBuilder[uint8] {
	return newNumericBuilder[uint8]("Uint8", name, TypeUint8)
}

// Uint16 returns a new uint16 field builder.
func Uint16(name string) *numericBuilder[uint16] {
	return newNumericBuilder[uint16]("Uint16", name, TypeUint16)
}

// Uint32 returns a new uint32 field builder.
func Uint32(name string) *numericBuilder[uint32] {
	return newNumericBuilder[uint32]("Uint32", name, TypeUint32)
}

// Uint64 returns a new uint64 field builder.
func Uint64(name string) *numericBuilder[uint64] {
	return newNumericBuilder[uint64]("Uint64", name, TypeUint64)
}

// Float32 returns a new float32 field builder.
func Float32(name string) *numericBuilder[float32] {
	return newNumericBuilder[float32]("Float32", name, TypeFloat32)
}

// Float64 returns a new float64 field builder.
func Float64(name string) *numericBuilder[float64] {
	return newNumericBuilder[float64]("Float64", name, TypeFloat64)
}

// Unique marks the field as having a unique index.
func (b *numericBuilder[T]) Unique() *numericBuilder[T] {
	b.desc.Unique = true
	return b
}

// Optional marks the field as not required on creation.
func (b *numericBuilder[T]) Optional() *numericBuilder[T] {
	b.desc.Optional = true
	return b
}

// Nillable marks the field's generated Go struct field as a pointer.
func (b *numericBuilder[T]) Nillable() *numericBuilder[T] {
	b.desc.Nillable = true
	return b
}

// Immutable marks the field as unchangeable after creation.
func (b *numericBuilder[T]) Immutable() *numericBuilder[T] {
	b.desc.Immutable = true
	return b
}

// Sensitive omits the field from generated String/JSON output.
func (b *numericBuilder[T]) Sensitive() *numericBuilder[T] {
	b.desc.Sensitive = true
	return b
}

// Comment sets a free-form doc comment for the generated field.
func (b *numericBuilder[T]) Comment(text string) *numericBuilder[T] {
	b.desc.Comment = text
	return b
}

// StructTag overrides the struct-tag of the generated field.
func (b *numericBuilder[T]) StructTag(tag string) *numericBuilder[T] {
	b.desc.Tag = tag
	return b
}

// StorageKey overrides the default column name chosen by the compiler.
func (b *numericBuilder[T]) StorageKey(key string) *numericBuilder[T] {
	b.desc.StorageKey = key
	return b
}

// SchemaType overrides the column type per dialect.
func (b *numericBuilder[T]) SchemaType(types map[string]string) *numericBuilder[T] {
	b.desc.SchemaType = types
	return b
}

// Annotations appends annotations to the field.
func (b *numericBuilder[T]) Annotations(annotations ...schema.Annotation) *numericBuilder[T] {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Deprecated marks the field as deprecated.
func (b *numericBuilder[T]) Deprecated(reason string) *numericBuilder[T] {
	b.desc.Deprecated = true
	b.desc.DeprecatedReason = reason
	return b
}

// Validate appends a custom func(T) error validator.
func (b *numericBuilder[T]) Validate(fn func(T) error) *numericBuilder[T] {
	b.desc.Validators = append(b.desc.Validators, fn)
	return b
}

// ValueScanner overrides how the field's Go value is converted to and
// from a database value.
func (b *numericBuilder[T]) ValueScanner(vs any) *numericBuilder[T] {
	b.desc.ValueScanner = vs
	return b
}

// Default sets the default value used when the field is not set on
// creation. Thanks to Go's untyped-constant inference, Default(5) on
// an Int8 builder yields an int8(5) at compile time.
func (b *numericBuilder[T]) Default(v T) *numericBuilder[T] {
	b.defaultRaw = v
	b.defaultSet = true
	b.defaultFn = false
	return b
}

// DefaultFunc sets a zero-argument function returning the default
// value used when the field is not set on creation.
func (b *numericBuilder[T]) DefaultFunc(fn any) *numericBuilder[T] {
	b.defaultRaw = fn
	b.defaultSet = true
	b.defaultFn = true
	return b
}

// UpdateDefault sets a zero-argument function returning the value
// applied to the field whenever the entity is updated.
func (b *numericBuilder[T]) UpdateDefault(fn any) *numericBuilder[T] {
	b.updateRaw = fn
	return b
}

// GoType overrides the field's generated Go type with typ, which must
// share the field's native kind, or implement ValueScanner (or have
// one supplied through ValueScanner).
func (b *numericBuilder[T]) GoType(typ any) *numericBuilder[T] {
	b.goType = reflect.TypeOf(typ)
	b.desc.Info = typeInfo(b.desc.Info.Type, b.goType)
	return b
}

// Range appends a validator requiring min <= value <= max.
func (b *numericBuilder[T]) Range(min, max T) *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v < min || v > max {
			return fmt.Errorf("value out of range [%v, %v]", min, max)
		}
		return nil
	})
}

// Min appends a validator requiring value >= min.
func (b *numericBuilder[T]) Min(min T) *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v < min {
			return fmt.Errorf("value is less than the required minimum %v", min)
		}
		return nil
	})
}

// Max appends a validator requiring value <= max.
func (b *numericBuilder[T]) Max(max T) *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v > max {
			return fmt.Errorf("value is greater than the required maximum %v", max)
		}
		return nil
	})
}

// Positive appends a validator requiring value > 0.
func (b *numericBuilder[T]) Positive() *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v <= 0 {
			return fmt.Errorf("value is not positive")
		}
		return nil
	})
}

// Negative appends a validator requiring value < 0.
func (b *numericBuilder[T]) Negative() *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v >= 0 {
			return fmt.Errorf("value is not negative")
		}
		return nil
	})
}

// NonNegative appends a validator requiring value >= 0.
func (b *numericBuilder[T]) NonNegative() *numericBuilder[T] {
	return b.Validate(func(v T) error {
		if v < 0 {
			return fmt.Errorf("value is negative")
		}
		return nil
	})
}

// Descriptor implements zen.Field, finalizing deferred validation
// against the builder's final state.
func (b *numericBuilder[T]) Descriptor() *Descriptor {
	if !requiredNumericKind(b.goType) {
		info := typeInfo(b.desc.Info.Type, b.goType)
		if !info.ValueScanner() && b.desc.ValueScanner == nil {
			b.desc.Err = fmt.Errorf("GoType must be a %q type, ValueScanner or provide an external ValueScanner", b.desc.Info.Type.String())
			return b.desc
		}
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

func requiredNumericKind(goType reflect.Type) bool {
	switch goType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (b *numericBuilder[T]) validateDefaultLike(v any, requireFunc bool, method string) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		ft := rv.Type()
		if ft.NumIn() != 0 || ft.NumOut() != 1 {
			return nil, fmt.Errorf("field.%s(%q).%s expects a func() T", b.ctor, b.desc.Name, method)
		}
		if !ft.Out(0).AssignableTo(b.goType) {
			return nil, fmt.Errorf("field.%s(%q).%s returns %s, mismatched with field type %s", b.ctor, b.desc.Name, method, ft.Out(0), b.goType)
		}
		return v, nil
	}
	if requireFunc {
		return nil, fmt.Errorf("field.%s(%q).%s expects func but got %s", b.ctor, b.desc.Name, method, rv.Kind())
	}
	return v, nil
}
