package schema

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// ResolveInfo carries per-field execution metadata into resolvers.
type ResolveInfo struct {
	FieldName  string
	ParentType string
	ReturnType *TypeRef
	Path       []any
	Schema     *Schema
}

// ResolveFunc produces a field's value from its parent value and coerced
// arguments. The returned value may be a plain value or a deferred/thenable
// value the executor must await; a returned error becomes a located field
// error without aborting sibling fields.
type ResolveFunc func(ctx context.Context, source any, args map[string]any, info ResolveInfo) (any, error)

// ResolveTypeFunc names the concrete object type for an abstract-typed value.
type ResolveTypeFunc func(ctx context.Context, value any) (string, error)

// SerializeFunc coerces a scalar or enum value into a JSON-safe Go value.
type SerializeFunc func(value any) (any, error)

// DefaultResolve projects a field straight off the source value: a map key
// for map sources, an exported field (matched case-insensitively) for struct
// sources. Absent keys resolve to null.
func DefaultResolve(ctx context.Context, source any, args map[string]any, info ResolveInfo) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[info.FieldName], nil
	}
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			if strings.EqualFold(rt.Field(i).Name, info.FieldName) && rt.Field(i).IsExported() {
				return rv.Field(i).Interface(), nil
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("cannot resolve field %q from source of type %T", info.FieldName, source)
}

// Resolvers maps "Type.field" keys to resolver functions, the registry form
// used by Bind and the CLI.
type Resolvers map[string]ResolveFunc

// Bind attaches resolvers from a "Type.field"-keyed registry to the schema.
// Unknown keys are reported so typos fail loudly at startup.
func (s *Schema) Bind(resolvers Resolvers) error {
	for key, fn := range resolvers {
		typeName, fieldName, ok := strings.Cut(key, ".")
		if !ok {
			return fmt.Errorf("invalid resolver key %q: want \"Type.field\"", key)
		}
		if err := s.BindResolver(typeName, fieldName, fn); err != nil {
			return err
		}
	}
	return nil
}

// BindResolver attaches fn to a single field.
func (s *Schema) BindResolver(typeName, fieldName string, fn ResolveFunc) error {
	t := s.Types[typeName]
	if t == nil {
		return fmt.Errorf("bind %s.%s: unknown type %q", typeName, fieldName, typeName)
	}
	for _, f := range t.Fields {
		if f.Name == fieldName {
			f.Resolve = fn
			return nil
		}
	}
	return fmt.Errorf("bind %s.%s: type %q has no field %q", typeName, fieldName, typeName, fieldName)
}
