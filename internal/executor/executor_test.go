package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	executor "github.com/lazygraph/lazygraph/internal/executor"
	promise "github.com/lazygraph/lazygraph/internal/promise"
)

const helloSDL = `
type Query {
  hello: String
  count: Int
  fail: String
}
`

func TestSynchronousQueryCollapses(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.count": executor.NewMockValueResolver(3),
	})
	s := buildSchema(t, helloSDL, reg)

	f := execute(t, s, `{ hello count }`, "", nil)
	if !f.IsSettled() {
		t.Fatal("all-plain query must return an already-settled future")
	}
	a := f.Adapter()
	if n := a.QueueLen(); n != 0 {
		t.Fatalf("queue must stay empty on the sync path, has %d jobs", n)
	}
	if n := a.ReactionsRun(); n != 0 {
		t.Fatalf("no reactions may run on the sync path, ran %d", n)
	}

	res := waitResult(t, f)
	want := map[string]any{"hello": "world", "count": 3}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestDeferredQueryRequiresDrain(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	}).MarkDeferred("Query.hello")
	s := buildSchema(t, helloSDL, reg)

	f := execute(t, s, `{ hello }`, "", nil)
	if f.IsSettled() {
		t.Fatal("deferred query must stay pending until drained")
	}
	if len(reg.Calls()) != 0 {
		t.Fatal("deferred resolver body must not run before the drain")
	}

	res := waitResult(t, f)
	if f.State() != promise.Fulfilled {
		t.Fatalf("state after wait: %v", f.State())
	}
	want := map[string]any{"hello": "world"}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	calls := reg.Calls()
	if len(calls) != 1 || calls[0].Kind != executor.CallKindDeferred {
		t.Fatalf("expected one deferred call, got %+v", calls)
	}
}

func TestMixedSiblingsLiftIntoFutures(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.count": executor.NewMockValueResolver(3),
	}).MarkDeferred("Query.count")
	s := buildSchema(t, helloSDL, reg)

	f := execute(t, s, `{ hello count }`, "", nil)
	if f.IsSettled() {
		t.Fatal("one deferred field must lift the whole selection set")
	}

	res := waitResult(t, f)
	want := map[string]any{"hello": "world", "count": 3}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	calls := reg.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %+v", calls)
	}
	if calls[0].Field != "hello" || calls[0].Kind != executor.CallKindSync {
		t.Fatalf("sync sibling must run inline during the visit: %+v", calls)
	}
	if calls[1].Field != "count" || calls[1].Kind != executor.CallKindDeferred {
		t.Fatalf("deferred field must run during the drain: %+v", calls)
	}
}

func TestDeferredFieldsRunInFieldOrder(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.count": executor.NewMockValueResolver(3),
		"Query.fail":  executor.NewMockValueResolver("fine"),
	}).MarkDeferred("Query.hello", "Query.count", "Query.fail")
	s := buildSchema(t, helloSDL, reg)

	f := execute(t, s, `{ fail hello count }`, "", nil)
	waitResult(t, f)

	var order []string
	for _, c := range reg.Calls() {
		order = append(order, c.Field)
	}
	want := []string{"fail", "hello", "count"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("evaluation order mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrorDoesNotAbortSiblings(t *testing.T) {
	boom := errors.New("resolver exploded")
	for _, deferred := range []bool{false, true} {
		reg := executor.NewMockRegistry(map[string]executor.MockResolver{
			"Query.hello": executor.NewMockValueResolver("world"),
			"Query.fail":  executor.NewMockErrorResolver(boom),
		})
		if deferred {
			reg.MarkDeferred("Query.fail")
		}
		s := buildSchema(t, helloSDL, reg)

		res := waitResult(t, execute(t, s, `{ hello fail }`, "", nil))
		want := map[string]any{"hello": "world", "fail": nil}
		if diff := cmp.Diff(want, res.Data); diff != "" {
			t.Fatalf("deferred=%v data mismatch (-want +got):\n%s", deferred, diff)
		}
		if len(res.Errors) != 1 {
			t.Fatalf("deferred=%v expected one error, got %+v", deferred, res.Errors)
		}
		if res.Errors[0].Message != "resolver exploded" {
			t.Fatalf("deferred=%v error message %q", deferred, res.Errors[0].Message)
		}
		if diff := cmp.Diff(executor.Path{"fail"}, res.Errors[0].Path); diff != "" {
			t.Fatalf("deferred=%v error path mismatch (-want +got):\n%s", deferred, diff)
		}
	}
}

func TestResolverPanicBecomesFieldError(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.fail": func(ctx context.Context, source any, args map[string]any) (any, error) {
			panic("kaboom")
		},
	})
	s := buildSchema(t, helloSDL, reg)

	res := waitResult(t, execute(t, s, `{ hello fail }`, "", nil))
	want := map[string]any{"hello": "world", "fail": nil}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != "panic: kaboom" {
		t.Fatalf("expected captured panic, got %+v", res.Errors)
	}
}

func TestMissingOperation(t *testing.T) {
	s := buildSchema(t, helloSDL, nil)

	f := execute(t, s, `fragment F on Query { hello }`, "", nil)
	if !f.IsSettled() {
		t.Fatal("pre-execution failures must settle immediately")
	}
	res := waitResult(t, f)
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != "Must provide an operation." {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestMultipleOperationsRequireName(t *testing.T) {
	s := buildSchema(t, helloSDL, nil)

	res := waitResult(t, execute(t, s, `query A { hello } query B { count }`, "", nil))
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != "Must provide operation name if query contains multiple operations." {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestUnknownOperationName(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	s := buildSchema(t, helloSDL, reg)

	res := waitResult(t, execute(t, s, `query A { hello }`, "B", nil))
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != `Unknown operation named "B".` {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	if len(reg.Calls()) != 0 {
		t.Fatal("resolvers must not run for an unknown operation")
	}
}

func TestSyntaxErrorShortCircuits(t *testing.T) {
	s := buildSchema(t, helloSDL, nil)
	e := executor.NewExecutor(s)

	f := e.ExecuteQuery(context.Background(), `{`, "", nil, nil)
	if !f.IsSettled() {
		t.Fatal("syntax errors must settle immediately")
	}
	res := waitResult(t, f)
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", res.Errors)
	}
	if len(res.Errors[0].Locations) == 0 {
		t.Fatalf("syntax error must carry a location: %+v", res.Errors[0])
	}
}

func TestMissingRequiredVariable(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	s := buildSchema(t, helloSDL, reg)

	res := waitResult(t, execute(t, s, `query Q($must: Boolean!) { hello @include(if: $must) }`, "", nil))
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", res.Errors)
	}
	if len(reg.Calls()) != 0 {
		t.Fatal("resolvers must not run when variable coercion fails")
	}
}

func TestSubscriptionOperationRejected(t *testing.T) {
	sdl := `
type Query { hello: String }
type Subscription { ticks: Int }
`
	s := buildSchema(t, sdl, nil)

	res := waitResult(t, execute(t, s, `subscription { ticks }`, "", nil))
	if res.Data != nil {
		t.Fatalf("data must be absent, got %v", res.Data)
	}
	if len(res.Errors) != 1 || res.Errors[0].Message != "unsupported operation type: subscription" {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
}

func TestMutationOperation(t *testing.T) {
	sdl := `
type Query { hello: String }
type Mutation { bump: Int }
`
	n := 0
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Mutation.bump": func(ctx context.Context, source any, args map[string]any) (any, error) {
			n++
			return n, nil
		},
	})
	s := buildSchema(t, sdl, reg)

	res := waitResult(t, execute(t, s, `mutation { bump }`, "", nil))
	want := map[string]any{"bump": 1}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestWaitTwiceReturnsSameResult(t *testing.T) {
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	}).MarkDeferred("Query.hello")
	s := buildSchema(t, helloSDL, reg)

	f := execute(t, s, `{ hello }`, "", nil)
	first := waitResult(t, f)
	ran := f.Adapter().ReactionsRun()

	second := waitResult(t, f)
	if first != second {
		t.Fatal("second wait must return the identical result")
	}
	if f.Adapter().ReactionsRun() != ran {
		t.Fatal("second wait must not run more reactions")
	}
	if len(reg.Calls()) != 1 {
		t.Fatalf("resolver must run once, ran %d times", len(reg.Calls()))
	}
}

func TestArgumentsArePassedCoerced(t *testing.T) {
	sdl := `
type Query {
  echo(msg: String, times: Int = 2): String
}
`
	var gotArgs map[string]any
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.echo": func(ctx context.Context, source any, args map[string]any) (any, error) {
			gotArgs = args
			return args["msg"], nil
		},
	})
	s := buildSchema(t, sdl, reg)

	res := waitResult(t, execute(t, s, `{ echo(msg: "hi") }`, "", nil))
	want := map[string]any{"echo": "hi"}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	wantArgs := map[string]any{"msg": "hi", "times": int64(2)}
	if diff := cmp.Diff(wantArgs, gotArgs); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestVariablesSubstituteIntoArguments(t *testing.T) {
	sdl := `
type Query {
  echo(msg: String): String
}
`
	reg := executor.NewMockRegistry(map[string]executor.MockResolver{
		"Query.echo": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return args["msg"], nil
		},
	})
	s := buildSchema(t, sdl, reg)

	res := waitResult(t, execute(t, s, `query Q($m: String) { echo(msg: $m) }`, "", map[string]any{"m": "via-var"}))
	want := map[string]any{"echo": "via-var"}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
