package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/lazygraph/lazygraph/internal/language"
	promise "github.com/lazygraph/lazygraph/internal/promise"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

// Path locates a response position: field response names and list indexes,
// root first. PathElement is an alias so a Path can feed APIs that take
// []any, like schema.ResolveInfo.
type Path []PathElement

type PathElement = any

// executionState holds the state during query execution
type executionState struct {
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	adapter        *promise.Adapter
	errors         []GraphQLError
}

type Executor struct {
	schema *schema.Schema
}

func NewExecutor(s *schema.Schema) *Executor {
	return &Executor{schema: s}
}

// ExecuteQuery parses source and executes it. Syntax errors short-circuit
// into an immediately fulfilled result carrying the located parse error.
func (e *Executor) ExecuteQuery(
	ctx context.Context,
	source string,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *promise.Future {
	doc, err := language.ParseQuery(source)
	if err != nil {
		a := promise.NewAdapter()
		return a.Resolved(preExecutionResult(errorFromParse(language.AsError(err))))
	}
	return e.ExecuteRequest(ctx, doc, operationName, variableValues, initialValue)
}

// ExecuteRequest executes a parsed document and returns a Future that fulfills
// with the *ExecutionResult. If no field ever deferred, the Future is already
// settled when this returns and no queue activity has happened; otherwise the
// caller must drain it with Wait. The Future is never rejected: every failure
// mode lands in the result's error list, pre-execution failures included.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *promise.Future {
	adapter := promise.NewAdapter()

	operation, operr := getOperation(document, operationName)
	if operr != nil {
		return adapter.Resolved(preExecutionResult(GraphQLError{Message: operr.Error()}))
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return adapter.Resolved(preExecutionResult(GraphQLError{Message: err.Error()}))
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return adapter.Resolved(preExecutionResult(GraphQLError{
			Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation),
		}))
	}
	if rootType == nil {
		return adapter.Resolved(preExecutionResult(GraphQLError{
			Message: fmt.Sprintf("root type not found for %s operation", operation.Operation),
		}))
	}

	state := &executionState{
		schema:         e.schema,
		document:       document,
		variableValues: coercedVariableValues,
		context:        ctx,
		adapter:        adapter,
		errors:         []GraphQLError{},
	}

	// Root selection set: plain values collapse synchronously, deferred
	// branches force the whole result through the queue.
	rootResult := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})

	if f, ok := rootResult.(*promise.Future); ok {
		return adapter.Then(f, func(data any) (any, error) {
			return state.result(data), nil
		}, nil)
	}
	return adapter.Resolved(state.result(rootResult))
}

// result assembles the final ExecutionResult once all fields have settled.
func (state *executionState) result(data any) *ExecutionResult {
	if isNullish(data) {
		data = map[string]any{}
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet resolves every field of a selection set. If all fields
// produced plain values the returned value is the assembled map and the
// adapter was never asked to queue anything; if any field deferred, the
// return value is a Future combining the field futures in field order.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) any {
	groupedFields := collectFields(state, objectType, selectionSet)

	type fieldSlot struct {
		responseName string
		fieldName    string
		fieldDef     *schema.Field
		value        any
	}

	slots := make([]fieldSlot, 0, len(groupedFields.orderedFields()))
	deferred := false
	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		fieldResult := executeFieldGroup(state, objectType, objectValue, fields, fieldPath)
		if _, ok := fieldResult.(*promise.Future); ok {
			deferred = true
		}
		slots = append(slots, fieldSlot{
			responseName: responseName,
			fieldName:    fields[0].Name,
			fieldDef:     getFieldDefinition(objectType, fields[0].Name),
			value:        fieldResult,
		})
	}

	assemble := func() any {
		resultMap := make(map[string]any)
		for _, s := range slots {
			// __typename resolves to a ready string and has no definition
			if s.fieldName == "__typename" {
				resultMap[s.responseName] = s.value
				continue
			}
			if s.fieldDef == nil {
				// Unknown field; error already recorded in executeFieldGroup
				continue
			}
			if schema.IsNonNull(s.fieldDef.Type) && isNullish(s.value) {
				if len(path) > 0 {
					// Nullify this object; the parent propagates further
					return nil
				}
				resultMap[s.responseName] = nil
				continue
			}
			if isNullish(s.value) {
				resultMap[s.responseName] = nil
			} else {
				resultMap[s.responseName] = s.value
			}
		}
		return resultMap
	}

	if !deferred {
		return assemble()
	}

	futures := make([]*promise.Future, len(slots))
	for i, s := range slots {
		futures[i] = state.adapter.Convert(s.value)
	}
	return state.adapter.Then(state.adapter.All(futures), func(settled any) (any, error) {
		values := settled.([]any)
		for i := range slots {
			slots[i].value = values[i]
		}
		return assemble(), nil
	}, nil)
}

// executeFieldGroup resolves one response position. The return value is the
// completed field value, or a Future of it when the resolver deferred.
func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	fieldName := field.Name

	if fieldName == "__typename" {
		return objectType.Name
	}

	fieldDef := getFieldDefinition(objectType, fieldName)
	if fieldDef == nil {
		state.addFieldError(
			fmt.Sprintf("Cannot query field '%s' on type '%s'", fieldName, objectType.Name),
			path, field.Position)
		return nil
	}

	argumentValues := coerceArgumentValues(fieldDef, field.Arguments, state, path)

	resolved, err := resolveField(state, objectType, fieldDef, objectValue, argumentValues, path)
	if err != nil {
		state.addFieldError(err.Error(), path, field.Position)
		return nil
	}

	if state.adapter.IsThenable(resolved) {
		// Rejections are recovered here, at the field boundary, so sibling
		// futures keep settling and All never observes the failure.
		return state.adapter.Then(state.adapter.Convert(resolved),
			func(value any) (any, error) {
				return completeValue(state, fieldDef.Type, fields, value, path), nil
			},
			func(err error) (any, error) {
				state.addFieldError(err.Error(), path, field.Position)
				return nil, nil
			})
	}
	return completeValue(state, fieldDef.Type, fields, resolved, path)
}

// resolveField invokes the field's resolver (or the default projection),
// capturing panics as errors.
func resolveField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, source any, args map[string]any, path Path) (value any, err error) {
	resolve := fieldDef.Resolve
	if resolve == nil {
		resolve = schema.DefaultResolve
	}
	info := schema.ResolveInfo{
		FieldName:  fieldDef.Name,
		ParentType: objectType.Name,
		ReturnType: fieldDef.Type,
		Path:       append([]any(nil), path...),
		Schema:     state.schema,
	}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return resolve(state.context, source, args, info)
}

// completeValue completes a resolved value against its type. The result is a
// plain value, or a Future when any nested branch deferred.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	// Nested thenables (e.g. a list element that is itself deferred) are
	// awaited before completion, errors recovered at this value's boundary.
	if state.adapter.IsThenable(result) {
		return state.adapter.Then(state.adapter.Convert(result),
			func(value any) (any, error) {
				return completeValue(state, fieldType, fields, value, path), nil
			},
			func(err error) (any, error) {
				state.addFieldError(err.Error(), path, fields[0].Position)
				return nil, nil
			})
	}

	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			}
			return nil
		}
		completed := completeValue(state, schema.Unwrap(fieldType), fields, result, path)
		if f, ok := completed.(*promise.Future); ok {
			return state.adapter.Then(f, func(v any) (any, error) {
				if isNullish(v) {
					// Error already recorded at the original path
					return nil, nil
				}
				return v, nil
			}, nil)
		}
		if isNullish(completed) {
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := serializeLeafValue(typeObj, result)
		if err != nil {
			state.addError(err.Error(), path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, typeObj, fields, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil
	}
}

// completeListValue completes each element with an index-aware path. A list
// is async iff at least one completed element is; plain lists stay plain.
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	deferred := false
	for i, item := range items {
		completed[i] = completeValue(state, inner, fields, item, appendPath(path, i))
		if _, ok := completed[i].(*promise.Future); ok {
			deferred = true
		}
	}

	finish := func(values []any) any {
		for _, v := range values {
			if schema.IsNonNull(inner) && isNullish(v) {
				// Error already recorded by the element's completion;
				// nullify the whole list value
				return nil
			}
		}
		return values
	}

	if !deferred {
		return finish(completed)
	}

	futures := make([]*promise.Future, len(completed))
	for i, v := range completed {
		futures[i] = state.adapter.Convert(v)
	}
	return state.adapter.Then(state.adapter.All(futures), func(settled any) (any, error) {
		return finish(settled.([]any)), nil
	}, nil)
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) any {
	sub := mergeSelectionSets(fields)
	return executeSelectionSet(state, objectType, sub, result, path)
}

func completeAbstractValue(state *executionState, abstractType *schema.Type, fields []*language.Field, result any, path Path) any {
	typeName, err := resolveConcreteType(state, abstractType, result)
	if err != nil {
		state.addError(err.Error(), path)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

// resolveConcreteType applies the type's ResolveType hook, falling back to a
// "__typename" key on map values.
func resolveConcreteType(state *executionState, abstractType *schema.Type, value any) (string, error) {
	if abstractType.ResolveType != nil {
		return abstractType.ResolveType(state.context, value)
	}
	if m, ok := value.(map[string]any); ok {
		if typename, ok := m["__typename"].(string); ok {
			return typename, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type for abstract type %s", abstractType.Name)
}

func serializeLeafValue(typeObj *schema.Type, value any) (any, error) {
	if typeObj.Serialize == nil {
		return value, nil
	}
	return typeObj.Serialize(value)
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		if i > 0 {
			result += "."
		}
		switch v := elem.(type) {
		case string:
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// getOperation selects the operation to run. Each failure mode has its own
// message so clients can tell them apart.
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		switch len(document.Operations) {
		case 0:
			return nil, fmt.Errorf("Must provide an operation.")
		case 1:
			return document.Operations[0], nil
		default:
			return nil, fmt.Errorf("Must provide operation name if query contains multiple operations.")
		}
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("Unknown operation named %q.", operationName)
}

// Helper function to add an error to the execution state
func (state *executionState) addError(message string, path Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

func (state *executionState) addFieldError(message string, path Path, pos *language.Position) {
	state.errors = append(state.errors, GraphQLError{Message: message, Locations: locationOf(pos), Path: path})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
