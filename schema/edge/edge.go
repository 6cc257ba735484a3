// Package edge provides fluent builders for defining entity
// relationships.
//
// See doc.go for a full overview of edge semantics (cardinality,
// inverse edges, through edges, and storage-key customization).
package edge

import (
	"reflect"

	"github.com/zenstack-dev/zen-go/schema"
)

// Through identifies the join-model of a many-to-many edge.
type Through struct {
	N string
	T string
}

// StorageKey overrides the default foreign-key column (to-one edges) or
// join-table name and columns (many-to-many edges) chosen by the
// compiler. Built with Column, Columns, Table, Symbol and Symbols.
type StorageKey struct {
	// Table is the join-table name, for many-to-many edges.
	Table string
	// Columns are the foreign-key column names. A to-one edge has a
	// single column; a many-to-many join table has one per side.
	Columns []string
	// Symbols are the foreign-key constraint names, in the same order
	// as Columns.
	Symbols []string
}

// Table sets the join-table name of a StorageKey.
func Table(name string) func(*StorageKey) {
	return func(sk *StorageKey) { sk.Table = name }
}

// Columns sets the foreign-key column names of a StorageKey.
func Columns(names ...string) func(*StorageKey) {
	return func(sk *StorageKey) { sk.Columns = names }
}

// Column is shorthand for Columns with a single column name, used for
// to-one edges.
func Column(name string) func(*StorageKey) {
	return Columns(name)
}

// Symbols sets the foreign-key constraint names of a StorageKey.
func Symbols(names ...string) func(*StorageKey) {
	return func(sk *StorageKey) { sk.Symbols = names }
}

// Symbol is shorthand for Symbols with a single constraint name.
func Symbol(name string) func(*StorageKey) {
	return Symbols(name)
}

// Descriptor carries the configuration of an edge as set by a builder.
// It is the value consumed by the schema compiler.
type Descriptor struct {
	// Err is set if building the descriptor failed; the compiler
	// surfaces it verbatim.
	Err error
	// Tag overrides the struct-tag of the generated field.
	Tag string
	// Type is the Go type name of the related schema.
	Type string
	// Name is the edge name, as exposed on the generated entity.
	Name string
	// Field binds the edge to a foreign-key field already declared on
	// this schema, exposing it alongside the edge.
	Field string
	// Unique reports whether this side of the edge resolves to at most
	// one related entity.
	Unique bool
	// Inverse reports whether this edge was declared with From (the
	// back-reference side of a relationship).
	Inverse bool
	// Required reports whether the edge must be set on creation.
	Required bool
	// Immutable reports whether the edge can be changed after creation.
	Immutable bool
	// RefName is the name of the edge on the related schema this edge
	// is the inverse of, set through Ref.
	RefName string
	// Through names the join-model of a many-to-many edge.
	Through *Through
	// StorageKey overrides the default foreign-key/join-table naming.
	StorageKey *StorageKey
	// Comment is a free-form doc comment for the generated edge.
	Comment string
	// Annotations attached to the edge.
	Annotations []schema.Annotation
	// Ref is set when a bidirectional pair was declared through a
	// single To(...).From(...) chain: it holds the descriptor of the
	// association side, while the receiver holds the inverse side.
	Ref *Descriptor
}

// builder is the concrete builder shared by To and From.
type builder struct {
	desc *Descriptor
}

func relatedType(t any) string {
	rt := reflect.TypeOf(t)
	if rt == nil {
		return ""
	}
	if rt.Kind() == reflect.Func && rt.NumIn() > 0 {
		return rt.In(0).Name()
	}
	return rt.Name()
}

// To creates a forward (association) edge named name to the schema
// whose Type method expression is passed as t (e.g. Post.Type).
func To(name string, t any) *builder {
	return &builder{desc: &Descriptor{Name: name, Type: relatedType(t)}}
}

// From creates an inverse (back-reference) edge named name to the
// schema whose Type method expression is passed as t. Pair it with Ref
// to name the association-side edge it inverts.
func From(name string, t any) *builder {
	return &builder{desc: &Descriptor{Name: name, Type: relatedType(t), Inverse: true}}
}

// Ref names the association-side edge this inverse edge refers to.
func (b *builder) Ref(name string) *builder {
	b.desc.RefName = name
	return b
}

// From declares the inverse side of the edge b describes, returning a
// builder for that inverse side. The current state of b (Unique, Tag,
// Comment, Annotations, ...) becomes the association side, reachable
// from the returned builder's Descriptor().Ref.
func (b *builder) From(name string) *builder {
	assoc := b.desc
	b.desc = &Descriptor{
		Name:    name,
		Type:    assoc.Type,
		Inverse: true,
		Ref:     assoc,
	}
	return b
}

// Unique marks the edge as resolving to at most one related entity.
func (b *builder) Unique() *builder {
	b.desc.Unique = true
	return b
}

// Required marks the edge as mandatory on creation.
func (b *builder) Required() *builder {
	b.desc.Required = true
	return b
}

// Immutable marks the edge as unchangeable after creation.
func (b *builder) Immutable() *builder {
	b.desc.Immutable = true
	return b
}

// Field binds the edge to an already-declared foreign-key field,
// exposing it alongside the edge.
func (b *builder) Field(name string) *builder {
	b.desc.Field = name
	return b
}

// Through declares the edge as many-to-many through a join model named
// name, whose Type method expression is passed as t.
func (b *builder) Through(name string, t any) *builder {
	b.desc.Through = &Through{N: name, T: relatedType(t)}
	return b
}

// StructTag overrides the struct-tag of the generated field.
func (b *builder) StructTag(tag string) *builder {
	b.desc.Tag = tag
	return b
}

// StorageKey overrides the default foreign-key/join-table naming using
// one or more of Table, Columns, Column, Symbols and Symbol.
func (b *builder) StorageKey(opts ...func(*StorageKey)) *builder {
	sk := &StorageKey{}
	for _, opt := range opts {
		opt(sk)
	}
	b.desc.StorageKey = sk
	return b
}

// Comment sets a free-form doc comment for the generated edge.
func (b *builder) Comment(text string) *builder {
	b.desc.Comment = text
	return b
}

// Annotations appends annotations to the edge.
func (b *builder) Annotations(annotations ...schema.Annotation) *builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements zen.Edge.
func (b *builder) Descriptor() *Descriptor {
	return b.desc
}
