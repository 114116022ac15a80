package executor_test

import (
	"context"
	"testing"

	executor "github.com/lazygraph/lazygraph/internal/executor"
	language "github.com/lazygraph/lazygraph/internal/language"
	promise "github.com/lazygraph/lazygraph/internal/promise"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

func mustParseQuery(t *testing.T, source string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(source)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	return doc
}

func buildSchema(t *testing.T, sdl string, reg *executor.MockRegistry) *schema.Schema {
	t.Helper()
	astSchema, err := language.LoadSchema("test.graphql", sdl)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	s, err := schema.FromAST(astSchema)
	if err != nil {
		t.Fatalf("schema from AST: %v", err)
	}
	if reg != nil {
		if err := reg.Apply(s); err != nil {
			t.Fatalf("apply resolvers: %v", err)
		}
	}
	return s
}

func execute(t *testing.T, s *schema.Schema, query string, operationName string, variables map[string]any) *promise.Future {
	t.Helper()
	e := executor.NewExecutor(s)
	return e.ExecuteRequest(context.Background(), mustParseQuery(t, query), operationName, variables, nil)
}

func waitResult(t *testing.T, f *promise.Future) *executor.ExecutionResult {
	t.Helper()
	v, err := f.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return v.(*executor.ExecutionResult)
}
