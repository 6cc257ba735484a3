package schema

// Annotation adds metadata to fields/edges/indexes/models that is
// consumed by the compiler (for code generation) and, for some
// annotations, by the runtime engine. Annotation values are typically
// declared next to a field/edge/index definition:
//
//	field.String("name").
//		Annotations(schema.Comment("the user's display name"))
type Annotation interface {
	// Name returns the identity of the annotation, used as the key a
	// later annotation of the same Name merges into or overrides.
	Name() string
}

// Merger is implemented by an Annotation that knows how to combine with
// a previous annotation of the same Name (for example when mixins and
// schemas both contribute an annotation under the same key). Merge
// returns the merged annotation; implementations should return the
// receiver unchanged if other is not a compatible type.
type Merger interface {
	Merge(other Annotation) Annotation
}

// CommentAnnotation attaches a free-form doc comment to a field, edge,
// index or model, propagated to the generated code's doc comments.
type CommentAnnotation struct {
	Text string
}

// Name implements the Annotation interface.
func (CommentAnnotation) Name() string { return "Comment" }

// Merge implements the Merger interface; the later comment wins.
func (a CommentAnnotation) Merge(other Annotation) Annotation {
	switch o := other.(type) {
	case CommentAnnotation:
		return o
	case *CommentAnnotation:
		if o != nil {
			return *o
		}
	}
	return a
}

// Comment returns a CommentAnnotation carrying text.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{Text: text}
}

var (
	_ Annotation = (*CommentAnnotation)(nil)
	_ Merger     = (*CommentAnnotation)(nil)
)
