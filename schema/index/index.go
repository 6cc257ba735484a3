// Package index provides builders for defining composite and unique
// database indexes over a schema's fields and edges.
//
// An index is declared from a model's Indexes method:
//
//	func (User) Indexes() []zen.Index {
//	    return []zen.Index{
//	        index.Fields("first_name", "last_name"),
//	        index.Fields("email").Unique(),
//	    }
//	}
//
// Edges participate in an index by name, typically to index the
// foreign-key column backing a unique to-one relation:
//
//	index.Edges("owner").Fields("name").Unique()
package index

import "github.com/zenstack-dev/zen-go/schema"

// Descriptor carries the configuration of an index as set by a builder.
// It is the value consumed by the schema compiler.
type Descriptor struct {
	// Fields to be used for index.
	Fields []string
	// Edges to be used for index.
	Edges []string
	// Unique reports whether the index requires any indexed field to be
	// unique (per column, or jointly across all the fields).
	Unique bool
	// StorageKey overrides the default index name chosen by the compiler.
	StorageKey string
	// Annotations attached to the index.
	Annotations []schema.Annotation
}

// builder is the concrete builder returned by Fields and Edges and
// shared by both entry points, since an index built starting from one
// can still add the other.
type builder struct {
	desc *Descriptor
}

// Fields returns a new index builder over the given field names.
func Fields(fields ...string) *builder {
	return &builder{desc: &Descriptor{Fields: fields}}
}

// Edges returns a new index builder over the given edge names.
func Edges(edges ...string) *builder {
	return &builder{desc: &Descriptor{Edges: edges}}
}

// Fields appends field names to the index.
func (b *builder) Fields(fields ...string) *builder {
	b.desc.Fields = append(b.desc.Fields, fields...)
	return b
}

// Edges appends edge names to the index.
func (b *builder) Edges(edges ...string) *builder {
	b.desc.Edges = append(b.desc.Edges, edges...)
	return b
}

// Unique marks the index as unique.
func (b *builder) Unique() *builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the name of the index in the database.
func (b *builder) StorageKey(key string) *builder {
	b.desc.StorageKey = key
	return b
}

// Annotations appends annotations to the index.
func (b *builder) Annotations(annotations ...schema.Annotation) *builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements zen.Index.
func (b *builder) Descriptor() *Descriptor {
	return b.desc
}
