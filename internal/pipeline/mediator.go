// Package pipeline dispatches commands and queries to their handlers through
// an ordered chain of behaviours: error logging, request logging,
// authorization, validation, timing and response caching.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

// Handler handles one request type.
type Handler[Req any, Resp any] interface {
	Handle(ctx context.Context, req Req) (Resp, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[Req any, Resp any] func(ctx context.Context, req Req) (Resp, error)

func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Validator checks one request type. Rule violations come back as failures;
// the error is reserved for the validator itself breaking, such as a failed
// lookup.
type Validator[Req any] interface {
	Validate(ctx context.Context, req Req) ([]apperr.Failure, error)
}

type ValidatorFunc[Req any] func(ctx context.Context, req Req) ([]apperr.Failure, error)

func (f ValidatorFunc[Req]) Validate(ctx context.Context, req Req) ([]apperr.Failure, error) {
	return f(ctx, req)
}

// Next invokes the rest of the chain.
type Next func(ctx context.Context) (any, error)

// Behavior wraps every dispatch.
type Behavior interface {
	Handle(ctx context.Context, call *Call, next Next) (any, error)
}

// Call is one dispatch as behaviours see it.
type Call struct {
	Name    string
	Request any
	reg     *registration
}

// Validate runs every validator registered for the request type, in order,
// and collects their failures.
func (c *Call) Validate(ctx context.Context) ([]apperr.Failure, error) {
	return c.reg.validate(ctx, c.Request)
}

// Decode turns a cached JSON response back into the handler's response type.
func (c *Call) Decode(data []byte) (any, error) {
	return c.reg.decode(data)
}

type registration struct {
	name     string
	invoke   func(ctx context.Context, req any) (any, error)
	validate func(ctx context.Context, req any) ([]apperr.Failure, error)
	decode   func(data []byte) (any, error)
}

// Mediator routes requests by their Go type.
type Mediator struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]*registration
	behaviors []Behavior
}

// New builds a mediator whose behaviours run in the given order, outermost first.
func New(behaviors ...Behavior) *Mediator {
	return &Mediator{
		handlers:  make(map[reflect.Type]*registration),
		behaviors: behaviors,
	}
}

// Register installs h for requests of type Req, replacing any earlier handler.
func Register[Req any, Resp any](m *Mediator, h Handler[Req, Resp], validators ...Validator[Req]) {
	t := reflect.TypeFor[Req]()

	reg := &registration{
		name: typeName(t),
		invoke: func(ctx context.Context, req any) (any, error) {
			return h.Handle(ctx, req.(Req))
		},
		validate: func(ctx context.Context, req any) ([]apperr.Failure, error) {
			var failures []apperr.Failure
			for _, v := range validators {
				f, err := v.Validate(ctx, req.(Req))
				if err != nil {
					return nil, err
				}
				failures = append(failures, f...)
			}
			return failures, nil
		},
		decode: func(data []byte) (any, error) {
			var resp Resp
			if err := json.Unmarshal(data, &resp); err != nil {
				return nil, err
			}
			return resp, nil
		},
	}

	m.mu.Lock()
	m.handlers[t] = reg
	m.mu.Unlock()
}

// Send dispatches req through the behaviour chain to its handler.
func Send[Resp any, Req any](ctx context.Context, m *Mediator, req Req) (Resp, error) {
	var zero Resp

	m.mu.RLock()
	reg, ok := m.handlers[reflect.TypeFor[Req]()]
	m.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("no handler registered for %s", RequestName(req))
	}

	call := &Call{Name: reg.name, Request: req, reg: reg}
	next := Next(func(ctx context.Context) (any, error) {
		return reg.invoke(ctx, call.Request)
	})
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		b, inner := m.behaviors[i], next
		next = func(ctx context.Context) (any, error) {
			return b.Handle(ctx, call, inner)
		}
	}

	out, err := next(ctx)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	resp, ok := out.(Resp)
	if !ok {
		return zero, fmt.Errorf("handler for %s returned %T", reg.name, out)
	}
	return resp, nil
}

// RequestName is the request's type name without its package, e.g. GetProjectsQuery.
func RequestName(req any) string {
	return typeName(reflect.TypeOf(req))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
