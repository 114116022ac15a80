package schema

import (
	"fmt"

	language "github.com/lazygraph/lazygraph/internal/language"
)

// FromAST converts a parsed-and-validated gqlparser schema into the executor's
// schema model. Resolvers are attached afterwards via Bind; fields left
// unbound use DefaultResolve.
func FromAST(src *language.Schema) (*Schema, error) {
	if src == nil {
		return nil, fmt.Errorf("schema: nil AST")
	}
	out := &Schema{
		Types:      make(map[string]*Type, len(src.Types)),
		Directives: make(map[string]*Directive, len(src.Directives)),
	}
	if src.Query != nil {
		out.QueryType = src.Query.Name
	}
	if src.Mutation != nil {
		out.MutationType = src.Mutation.Name
	}
	if src.Subscription != nil {
		out.SubscriptionType = src.Subscription.Name
	}

	for name, def := range src.Types {
		t, err := buildType(def)
		if err != nil {
			return nil, err
		}
		for _, pt := range src.PossibleTypes[name] {
			t.PossibleTypes = append(t.PossibleTypes, pt.Name)
		}
		out.Types[name] = t
	}
	for name, def := range src.Directives {
		out.Directives[name] = buildDirective(def)
	}
	return out, nil
}

func buildType(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case language.Scalar:
		t.Kind = TypeKindScalar
	case language.Object:
		t.Kind = TypeKindObject
	case language.Interface:
		t.Kind = TypeKindInterface
	case language.Union:
		t.Kind = TypeKindUnion
	case language.Enum:
		t.Kind = TypeKindEnum
	case language.InputObject:
		t.Kind = TypeKindInputObject
	default:
		return nil, fmt.Errorf("schema: unsupported definition kind %q for %s", def.Kind, def.Name)
	}

	t.Interfaces = append(t.Interfaces, def.Interfaces...)

	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			t.InputFields = append(t.InputFields, buildInputValue(fd))
			continue
		}
		f := &Field{
			Name:        fd.Name,
			Description: fd.Description,
			Type:        typeRefFromAST(fd.Type),
		}
		for _, arg := range fd.Arguments {
			f.Arguments = append(f.Arguments, &InputValue{
				Name:         arg.Name,
				Description:  arg.Description,
				Type:         typeRefFromAST(arg.Type),
				DefaultValue: literalValue(arg.DefaultValue),
			})
		}
		t.Fields = append(t.Fields, f)
	}

	for _, ev := range def.EnumValues {
		t.EnumValues = append(t.EnumValues, &EnumValue{Name: ev.Name, Description: ev.Description})
	}
	return t, nil
}

func buildInputValue(fd *language.FieldDefinition) *InputValue {
	return &InputValue{
		Name:         fd.Name,
		Description:  fd.Description,
		Type:         typeRefFromAST(fd.Type),
		DefaultValue: literalValue(fd.DefaultValue),
	}
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         def.Name,
		Description:  def.Description,
		IsRepeatable: def.IsRepeatable,
	}
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.Arguments = append(d.Arguments, &InputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         typeRefFromAST(arg.Type),
			DefaultValue: literalValue(arg.DefaultValue),
		})
	}
	return d
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// literalValue converts a constant AST value (default values only, so no
// variables) into a Go value.
func literalValue(v *language.Value) any {
	if v == nil {
		return nil
	}
	val, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return val
}
