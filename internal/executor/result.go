package executor

import (
	language "github.com/lazygraph/lazygraph/internal/language"
)

// Location points at the line/column of the offending token in the source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query.
// Data is absent when execution never started (pre-execution failure);
// otherwise it is always present, with nulls for failed fields.
type ExecutionResult struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// preExecutionResult wraps errors raised before any field resolution began.
func preExecutionResult(errs ...GraphQLError) *ExecutionResult {
	return &ExecutionResult{Errors: errs}
}

// errorFromParse converts a located parse/validation error into the result
// error shape.
func errorFromParse(err *language.Error) GraphQLError {
	ge := GraphQLError{Message: err.Message}
	for _, loc := range err.Locations {
		ge.Locations = append(ge.Locations, Location{Line: loc.Line, Column: loc.Column})
	}
	return ge
}

// locationOf extracts a Location from an AST position, if present.
func locationOf(pos *language.Position) []Location {
	if pos == nil || pos.Line == 0 {
		return nil
	}
	return []Location{{Line: pos.Line, Column: pos.Column}}
}
