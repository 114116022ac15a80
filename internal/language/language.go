package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// ParseQuery parses an executable document. The returned error, when non-nil,
// is a *Error carrying the line/column of the offending token.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses SDL without validating it.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL, producing a full schema with built-in
// types and directives attached.
func LoadSchema(name, source string) (*Schema, error) {
	return gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
}

// Validate runs the spec validation rules for doc against the schema,
// returning the pre-execution errors (empty when the document is valid).
func Validate(schema *Schema, doc *QueryDocument) ErrorList {
	return validator.Validate(schema, doc)
}

// AsError normalizes any parse/validation error into *Error so callers can
// rely on located messages.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if ge, ok := err.(*Error); ok {
		return ge
	}
	return &Error{Message: err.Error()}
}

// Error aliases re-export gqlerror so the rest of the engine never imports
// the parser module directly.
type (
	Error     = gqlerror.Error
	ErrorList = gqlerror.List
	Location  = gqlerror.Location
)
