package executor

import (
	"fmt"
	"strconv"

	language "github.com/lazygraph/lazygraph/internal/language"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

// coerceVariableValues coerces variable values against the operation's
// variable definitions. Any failure here is a pre-execution error: resolution
// never starts.
func coerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces argument values for a field. Argument failures
// are field errors, not pre-execution errors: the field resolves with the
// arguments that did coerce.
func coerceArgumentValues(
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	state *executionState,
	path Path,
) map[string]any {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		var argDef *schema.InputValue
		for _, a := range fieldDef.Arguments {
			if a.Name == arg.Name {
				argDef = a
				break
			}
		}
		if argDef == nil {
			continue
		}
		val := valueFromAST(arg.Value, state.variableValues)
		cv, err := coerceValue(val, argDef.Type)
		if err != nil {
			state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; !ok {
			if argDef.DefaultValue != nil {
				coerced[argDef.Name] = argDef.DefaultValue
			} else if schema.IsNonNull(argDef.Type) {
				state.addError(fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name), path)
			}
		}
	}
	return coerced
}

// valueFromAST converts an AST value to a runtime value with variable substitution
func valueFromAST(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return variableValues[value.Raw]
	}
	return astValueToGo(value)
}

// astValueToGo converts a constant AST value to a Go value
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return schema.NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return schema.NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return schema.ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// coerceValue coerces a value to the specified GraphQL type
func coerceValue(value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(targetType) {
		return coerceListValue(value, targetType)
	}

	switch schema.GetNamedType(targetType) {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	default:
		// Custom scalars, enums and input objects pass through
		return value, nil
	}
}

// coerceListValue coerces a value to a list; a single value becomes a list of one
func coerceListValue(value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	slice, ok := value.([]any)
	if !ok {
		item, err := coerceValue(value, innerType)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	coerced := make([]any, len(slice))
	for i, item := range slice {
		cv, err := coerceValue(item, innerType)
		if err != nil {
			return nil, err
		}
		coerced[i] = cv
	}
	return coerced, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return fmt.Sprintf("%v", value), nil
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
