package zen_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenstack-dev/zen-go"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewNotFoundError("User")
		assert.Equal(t, "zen: User not found", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := zen.NewNotFoundError("Post")
		assert.True(t, errors.Is(err, zen.ErrNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := zen.NewNotFoundError("Comment")
		assert.True(t, zen.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, zen.IsNotFound(wrapped))

		// Sentinel error
		assert.True(t, zen.IsNotFound(zen.ErrNotFound))

		// Non-matching error
		assert.False(t, zen.IsNotFound(errors.New("other error")))
		assert.False(t, zen.IsNotFound(nil))
	})
}

func TestNotSingularError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewNotSingularError("User")
		assert.Equal(t, "zen: User not singular", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := zen.NewNotSingularError("Post")
		assert.True(t, errors.Is(err, zen.ErrNotSingular))
	})

	t.Run("IsNotSingular", func(t *testing.T) {
		err := zen.NewNotSingularError("Comment")
		assert.True(t, zen.IsNotSingular(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, zen.IsNotSingular(wrapped))

		// Sentinel error
		assert.True(t, zen.IsNotSingular(zen.ErrNotSingular))

		// Non-matching error
		assert.False(t, zen.IsNotSingular(errors.New("other error")))
		assert.False(t, zen.IsNotSingular(nil))
	})
}

func TestNotLoadedError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewNotLoadedError("posts")
		assert.Equal(t, `zen: edge "posts" was not loaded`, err.Error())
	})

	t.Run("IsNotLoaded", func(t *testing.T) {
		err := zen.NewNotLoadedError("comments")
		assert.True(t, zen.IsNotLoaded(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, zen.IsNotLoaded(wrapped))

		// Non-matching error
		assert.False(t, zen.IsNotLoaded(errors.New("other error")))
		assert.False(t, zen.IsNotLoaded(nil))
	})
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewConstraintError("UNIQUE constraint failed", nil)
		assert.Equal(t, "zen: constraint failed: UNIQUE constraint failed", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("db error")
		err := zen.NewConstraintError("constraint violated", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		err := zen.NewConstraintError("check failed", nil)
		assert.True(t, zen.IsConstraintError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, zen.IsConstraintError(wrapped))

		// Non-matching error
		assert.False(t, zen.IsConstraintError(errors.New("other error")))
		assert.False(t, zen.IsConstraintError(nil))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewValidationError("email", errors.New("invalid format"))
		assert.Equal(t, `zen: validator failed for field "email": invalid format`, err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("too short")
		err := zen.NewValidationError("name", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsValidationError", func(t *testing.T) {
		err := zen.NewValidationError("age", errors.New("must be positive"))
		assert.True(t, zen.IsValidationError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, zen.IsValidationError(wrapped))

		// Non-matching error
		assert.False(t, zen.IsValidationError(errors.New("other error")))
		assert.False(t, zen.IsValidationError(nil))
	})
}

func TestRollbackError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &zen.RollbackError{Err: errors.New("connection lost")}
		assert.Equal(t, "zen: rollback failed: connection lost", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("timeout")
		err := &zen.RollbackError{Err: underlying}
		assert.True(t, errors.Is(err, underlying))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		err := zen.NewAggregateError()
		assert.Nil(t, err)
	})

	t.Run("NilErrors", func(t *testing.T) {
		err := zen.NewAggregateError(nil, nil, nil)
		assert.Nil(t, err)
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single error")
		err := zen.NewAggregateError(single)
		assert.Equal(t, single, err)
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err1 := errors.New("error 1")
		err2 := errors.New("error 2")
		err := zen.NewAggregateError(err1, err2)

		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), "error 1")
		assert.Contains(t, err.Error(), "error 2")
	})

	t.Run("MixedNilAndErrors", func(t *testing.T) {
		err1 := errors.New("error 1")
		err := zen.NewAggregateError(nil, err1, nil)

		require.NotNil(t, err)
		assert.Equal(t, err1, err) // Single non-nil error returned directly
	})
}

func TestSentinelErrors(t *testing.T) {
	t.Run("ErrNotFound", func(t *testing.T) {
		assert.Error(t, zen.ErrNotFound)
		assert.Contains(t, zen.ErrNotFound.Error(), "not found")
	})

	t.Run("ErrNotSingular", func(t *testing.T) {
		assert.Error(t, zen.ErrNotSingular)
		assert.Contains(t, zen.ErrNotSingular.Error(), "not singular")
	})

	t.Run("ErrTxStarted", func(t *testing.T) {
		assert.Error(t, zen.ErrTxStarted)
		assert.Contains(t, zen.ErrTxStarted.Error(), "transaction")
	})
}

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewConfigError("missing provider", nil)
		assert.Equal(t, "zen: config error: missing provider", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("dsn invalid")
		err := zen.NewConfigError("bad dsn", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConfigError", func(t *testing.T) {
		err := zen.NewConfigError("bad config", nil)
		assert.True(t, zen.IsConfigError(err))
		assert.False(t, zen.IsConfigError(errors.New("other")))
		assert.False(t, zen.IsConfigError(nil))
	})
}

func TestNotSupportedError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := zen.NewNotSupportedError("cross-schema delegate", "compound ids span schemas")
		assert.Equal(t, "zen: cross-schema delegate is not supported: compound ids span schemas", err.Error())
	})

	t.Run("IsNotSupportedError", func(t *testing.T) {
		err := zen.NewNotSupportedError("feature", "")
		assert.True(t, zen.IsNotSupportedError(err))
		assert.False(t, zen.IsNotSupportedError(errors.New("other")))
		assert.False(t, zen.IsNotSupportedError(nil))
	})
}

func TestPrivacyErrorReason(t *testing.T) {
	t.Run("NoAccess", func(t *testing.T) {
		err := zen.NewPrivacyError("User", "update", "admin-only")
		assert.Equal(t, zen.NoAccess, err.Reason)
		assert.Contains(t, err.Error(), "reason: no_access")
	})

	t.Run("CannotReadBack", func(t *testing.T) {
		err := zen.NewPrivacyErrorWithReason("Post", "create", "owner-can-read", zen.CannotReadBack)
		assert.Equal(t, zen.CannotReadBack, err.Reason)
		assert.True(t, zen.IsPrivacyError(err))
	})
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = zen.NewNotFoundError("User")
		}
	})

	b.Run("IsNotFound", func(b *testing.B) {
		err := zen.NewNotFoundError("User")
		for i := 0; i < b.N; i++ {
			_ = zen.IsNotFound(err)
		}
	})

	b.Run("NewConstraintError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = zen.NewConstraintError("unique", nil)
		}
	})

	b.Run("IsConstraintError", func(b *testing.B) {
		err := zen.NewConstraintError("unique", nil)
		for i := 0; i < b.N; i++ {
			_ = zen.IsConstraintError(err)
		}
	})

	b.Run("NewValidationError", func(b *testing.B) {
		underlying := errors.New("invalid")
		for i := 0; i < b.N; i++ {
			_ = zen.NewValidationError("field", underlying)
		}
	})

	b.Run("NewAggregateError_multiple", func(b *testing.B) {
		err1 := errors.New("err1")
		err2 := errors.New("err2")
		err3 := errors.New("err3")
		for i := 0; i < b.N; i++ {
			_ = zen.NewAggregateError(err1, err2, err3)
		}
	})
}
