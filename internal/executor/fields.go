package executor

import (
	language "github.com/lazygraph/lazygraph/internal/language"
	schema "github.com/lazygraph/lazygraph/internal/schema"
)

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]collectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, collectedField{
			ResponseName: responseName,
			Fields:       []*language.Field{field},
		})
	}
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

// collectFields collects fields from a selection set
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) *collectedFieldMap {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)

	collectFieldsImpl(state, objectType, selectionSet, groupedFields, visitedFragments)

	return groupedFields
}

func collectFieldsImpl(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, groupedFields *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			groupedFields.add(responseName, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if !typeConditionApplies(state, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsImpl(state, objectType, sel.SelectionSet, groupedFields, visitedFragments)

		case *language.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragmentDef := getFragmentDefinition(state.document, sel.Name)
			if fragmentDef == nil {
				continue
			}
			if !typeConditionApplies(state, objectType, fragmentDef.TypeCondition) {
				continue
			}
			if !shouldIncludeNode(state, fragmentDef.Directives) {
				continue
			}
			collectFieldsImpl(state, objectType, fragmentDef.SelectionSet, groupedFields, visitedFragments)
		}
	}
}

// typeConditionApplies reports whether a fragment's type condition matches the
// concrete object type, directly or through an interface/union it belongs to.
func typeConditionApplies(state *executionState, objectType *schema.Type, condition string) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	for _, iface := range objectType.Interfaces {
		if iface == condition {
			return true
		}
	}
	if cond := state.schema.Types[condition]; cond != nil {
		for _, possible := range cond.PossibleTypes {
			if possible == objectType.Name {
				return true
			}
		}
	}
	return false
}

// shouldIncludeNode checks if a node should be included based on directives
func shouldIncludeNode(state *executionState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if skipIf, ok := directiveArgumentValue(state, skip, "if").(bool); ok && skipIf {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if includeIf, ok := directiveArgumentValue(state, include, "if").(bool); ok && !includeIf {
			return false
		}
	}
	return true
}

// directiveArgumentValue gets the value of a directive argument, or nil
func directiveArgumentValue(state *executionState, directive *language.Directive, argName string) any {
	for _, arg := range directive.Arguments {
		if arg.Name == argName {
			return valueFromAST(arg.Value, state.variableValues)
		}
	}
	return nil
}

// getFragmentDefinition finds a fragment definition by name in the document
func getFragmentDefinition(document *language.QueryDocument, name string) *language.FragmentDefinition {
	return document.Fragments.ForName(name)
}

func getFieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	for _, field := range objectType.Fields {
		if field.Name == fieldName {
			return field
		}
	}
	return nil
}
