package sql

// Field predicate constructors. Each returns a selector-level function
// that qualifies the column against the selector's table and appends
// the comparison to its WHERE clause; the typed field wrappers in
// predicate.go build on them.

// FieldEQ matches rows where the field equals v.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(EQ(s.C(name), v))
	}
}

// FieldNEQ matches rows where the field differs from v.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(NEQ(s.C(name), v))
	}
}

// FieldGT matches rows where the field is greater than v.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GT(s.C(name), v))
	}
}

// FieldGTE matches rows where the field is at least v.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(GTE(s.C(name), v))
	}
}

// FieldLT matches rows where the field is less than v.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LT(s.C(name), v))
	}
}

// FieldLTE matches rows where the field is at most v.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) {
		s.Where(LTE(s.C(name), v))
	}
}

// FieldIn matches rows where the field is one of vs.
func FieldIn(name string, vs ...any) func(*Selector) {
	return func(s *Selector) {
		s.Where(In(s.C(name), vs...))
	}
}

// FieldNotIn matches rows where the field is none of vs.
func FieldNotIn(name string, vs ...any) func(*Selector) {
	return func(s *Selector) {
		s.Where(NotIn(s.C(name), vs...))
	}
}

// FieldIsNull matches rows where the field is NULL.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(IsNull(s.C(name)))
	}
}

// FieldNotNull matches rows where the field is not NULL.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) {
		s.Where(NotNull(s.C(name)))
	}
}

// FieldContains matches rows where the field contains substr.
func FieldContains(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(Contains(s.C(name), substr))
	}
}

// FieldContainsFold matches rows where the field contains substr,
// case-insensitively.
func FieldContainsFold(name, substr string) func(*Selector) {
	return func(s *Selector) {
		s.Where(ContainsFold(s.C(name), substr))
	}
}

// FieldHasPrefix matches rows where the field starts with prefix.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(HasPrefix(s.C(name), prefix))
	}
}

// FieldHasSuffix matches rows where the field ends with suffix.
func FieldHasSuffix(name, suffix string) func(*Selector) {
	return func(s *Selector) {
		s.Where(HasSuffix(s.C(name), suffix))
	}
}

// FieldEqualFold matches rows where the field equals v,
// case-insensitively.
func FieldEqualFold(name, v string) func(*Selector) {
	return func(s *Selector) {
		s.Where(EqualFold(s.C(name), v))
	}
}
