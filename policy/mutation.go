package privacy

import (
	"fmt"

	"github.com/zenstack-dev/zen-go/querylanguage"
	"github.com/zenstack-dev/zen-go/schema"
)

// MutationFilter exposes the compiled policy for op in a form the
// operation handlers can attach to a read-back SELECT. When decided is
// true the outcome is constant (allowed tells which way) and p is nil.
func (e *Engine) MutationFilter(model string, op schema.Operation, auth any) (p querylanguage.P, decided, allowed bool, err error) {
	l, err := e.Filter(model, op, auth)
	if err != nil {
		return nil, false, false, err
	}
	if l.known {
		return nil, true, l.val, nil
	}
	return l.p, false, false, nil
}

// FieldDeniedError reports a write to a column gated by a field-level
// policy.
type FieldDeniedError struct {
	Model string
	Field string
	Op    string
}

// Error implements error.
func (e *FieldDeniedError) Error() string {
	return fmt.Sprintf("zen/privacy: field %s.%s is not writable for %s", e.Model, e.Field, e.Op)
}

// NewFieldDeniedError builds a FieldDeniedError.
func NewFieldDeniedError(model, field, op string) *FieldDeniedError {
	return &FieldDeniedError{Model: model, Field: field, Op: op}
}
