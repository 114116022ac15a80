package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	promise "github.com/lazygraph/lazygraph/internal/promise"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

// MockResolver resolves a single field; MockRegistry adapts it onto a schema
// for tests, optionally wrapping it as a deferred computation.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// CallKind identifies whether a resolver body ran inline (sync) or inside the
// drain loop (deferred).
const (
	CallKindSync     = "sync"
	CallKindDeferred = "deferred"
)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call records one resolver-body invocation in execution order. For deferred
// fields the record is appended when the drain loop actually evaluates the
// computation, not when the field is visited.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// MockRegistry holds "Type.field"-keyed resolvers and a single call log.
type MockRegistry struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	deferred  map[string]bool
	calls     []Call
}

// NewMockRegistry creates a MockRegistry with the provided resolvers.
func NewMockRegistry(resolvers map[string]MockResolver) *MockRegistry {
	m := &MockRegistry{
		resolvers: make(map[string]MockResolver, len(resolvers)),
		deferred:  make(map[string]bool),
	}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// MarkDeferred makes the given "Type.field" keys resolve through a Deferred
// computation instead of inline.
func (m *MockRegistry) MarkDeferred(keys ...string) *MockRegistry {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.deferred[k] = true
	}
	return m
}

// Apply binds every registered resolver onto the schema.
func (m *MockRegistry) Apply(s *schema.Schema) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.resolvers))
	for k := range m.resolvers {
		keys = append(keys, k)
	}
	m.mu.Unlock()
	for _, key := range keys {
		objectType, field, ok := strings.Cut(key, ".")
		if !ok {
			return fmt.Errorf("invalid mock resolver key %q", key)
		}
		if err := s.BindResolver(objectType, field, m.resolveFunc(key, objectType, field)); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockRegistry) resolveFunc(key, objectType, field string) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
		m.mu.Lock()
		r := m.resolvers[key]
		isDeferred := m.deferred[key]
		m.mu.Unlock()

		run := func(kind string) (any, error) {
			m.mu.Lock()
			m.calls = append(m.calls, Call{
				Kind:       kind,
				ObjectType: objectType,
				Field:      field,
				Source:     source,
				Args:       args,
			})
			m.mu.Unlock()
			return r(ctx, source, args)
		}

		if isDeferred {
			return promise.Defer(func() (any, error) { return run(CallKindDeferred) }), nil
		}
		return run(CallKindSync)
	}
}

// Calls returns a copy of the recorded calls in order.
func (m *MockRegistry) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls (resolvers remain).
func (m *MockRegistry) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
