package field

import "github.com/zenstack-dev/zen-go/schema"

// Annotation is a builtin schema annotation for configuring a field's
// behavior in codegen.
type Annotation struct {
	// StructTag overrides, per key, the struct-tag of the generated
	// field. For example:
	//
	//	field.Annotation{
	//		StructTag: map[string]string{"json": "name,omitempty"},
	//	}
	StructTag map[string]string
}

// Name describes the annotation name.
func (Annotation) Name() string { return "Fields" }

// Merge implements the schema.Merger interface.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var ant Annotation
	switch other := other.(type) {
	case Annotation:
		ant = other
	case *Annotation:
		if other != nil {
			ant = *other
		}
	default:
		return a
	}
	tags := make(map[string]string, len(a.StructTag)+len(ant.StructTag))
	for k, v := range a.StructTag {
		tags[k] = v
	}
	for k, v := range ant.StructTag {
		tags[k] = v
	}
	a.StructTag = tags
	return a
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)
