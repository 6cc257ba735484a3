// Package procs implements named server-side procedures typed by the
// schema: registration, argument checking and transactional execution
// with rollback on error.
package procs

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/engine"
	"github.com/zenstack-dev/zen-go/schema"
)

// HandlerFunc is the body of a procedure. It receives the positional
// arguments declared by the schema, already arity-checked.
type HandlerFunc func(ctx context.Context, args []any) (any, error)

// Registry binds procedure declarations to their handlers. It is
// populated at client construction and immutable afterwards.
type Registry struct {
	eng      *engine.Engine
	handlers map[string]HandlerFunc
}

// NewRegistry builds a registry over the engine's schema. Every
// supplied handler must match a declared procedure.
func NewRegistry(eng *engine.Engine, handlers map[string]HandlerFunc) (*Registry, error) {
	s := eng.Schema()
	for name := range handlers {
		if _, ok := s.Procedures[name]; !ok {
			return nil, zen.NewConfigError(fmt.Sprintf("procs: handler %q matches no declared procedure", name), nil)
		}
	}
	return &Registry{eng: eng, handlers: handlers}, nil
}

// Names returns the declared procedure names with registered handlers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Call runs the named procedure. Mutation procedures execute inside a
// transaction; a returned error rolls every side effect back.
func (r *Registry) Call(ctx context.Context, name string, args ...any) (any, error) {
	s := r.eng.Schema()
	decl, ok := s.Procedures[name]
	if !ok {
		return nil, zen.NewConfigError(fmt.Sprintf("procs: unknown procedure %q", name), nil)
	}
	fn, ok := r.handlers[name]
	if !ok {
		return nil, zen.NewConfigError(fmt.Sprintf("procs: procedure %q has no handler", name), nil)
	}
	if err := checkArity(decl, args); err != nil {
		return nil, err
	}
	if !decl.Mutation {
		return fn(ctx, args)
	}
	var out any
	err := r.eng.WithTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkArity(decl *schema.Procedure, args []any) error {
	required := 0
	for _, p := range decl.Params {
		if !p.Optional {
			required++
		}
	}
	if len(args) < required || len(args) > len(decl.Params) {
		return zen.NewValidationError(decl.Name, fmt.Errorf("procedure %s expects %d..%d arguments, got %d", decl.Name, required, len(decl.Params), len(args)))
	}
	for i, p := range decl.Params {
		if i >= len(args) {
			break
		}
		if args[i] == nil && !p.Optional {
			return zen.NewValidationError(decl.Name, fmt.Errorf("procedure %s: parameter %s is not nullable", decl.Name, p.Name))
		}
	}
	return nil
}

// EncodeArgs packs a procedure argument list for the wire. The binary
// encoding keeps Bytes and Decimal arguments intact where JSON would
// mangle them.
func EncodeArgs(args []any) ([]byte, error) {
	b, err := msgpack.Marshal(args)
	if err != nil {
		return nil, zen.NewValidationError("args", err)
	}
	return b, nil
}

// DecodeArgs unpacks a wire-encoded argument list.
func DecodeArgs(data []byte) ([]any, error) {
	var args []any
	if err := msgpack.Unmarshal(data, &args); err != nil {
		return nil, zen.NewValidationError("args", err)
	}
	return args, nil
}

// EncodeResult packs a procedure result for the wire.
func EncodeResult(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, zen.NewValidationError("result", err)
	}
	return b, nil
}

// DecodeResult unpacks a wire-encoded procedure result.
func DecodeResult(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return zen.NewValidationError("result", err)
	}
	return nil
}
