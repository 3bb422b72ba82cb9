// Package schema synthesizes JSON-Schema input descriptions for tools from
// OpenAPI operation parameters and request bodies.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/getkin/kin-openapi/openapi3"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Property is a primitive input property derived from a declared parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Object is an input schema. It always marshals with type "object" and
// additionalProperties false, even with zero properties. Property values are
// either *Property (declared parameters) or the raw schema mapping of a
// flattened request-body property.
type Object struct {
	Properties map[string]any
	Required   []string
}

// MarshalJSON renders the schema in protocol shape.
func (o *Object) MarshalJSON() ([]byte, error) {
	props := o.Properties
	if props == nil {
		props = map[string]any{}
	}
	return json.Marshal(struct {
		Type                 string         `json:"type"`
		Properties           map[string]any `json:"properties"`
		Required             []string       `json:"required,omitempty"`
		AdditionalProperties bool           `json:"additionalProperties"`
	}{
		Type:       "object",
		Properties: props,
		Required:   o.Required,
	})
}

// Build derives the input schema for one operation. Path-item parameters are
// merged with operation parameters (operation wins on name collision); path
// and query parameters become primitive properties; every {placeholder} in
// the template gets a required string property even when the spec forgot to
// declare it; an application/json object request body is flattened into the
// top level.
func Build(op *openapi3.Operation, item *openapi3.PathItem, pathTemplate string) *Object {
	obj := &Object{Properties: map[string]any{}}

	for name, param := range mergeParameters(op, item) {
		if param.In != openapi3.ParameterInPath && param.In != openapi3.ParameterInQuery {
			continue
		}
		obj.Properties[name] = propertyFor(param)
		if param.Required {
			obj.require(name)
		}
	}

	// Placeholders in the template are always required path inputs, declared
	// or not. Incomplete specs are common enough to warrant this.
	for _, m := range placeholderPattern.FindAllStringSubmatch(pathTemplate, -1) {
		name := m[1]
		if _, exists := obj.Properties[name]; !exists {
			obj.Properties[name] = &Property{
				Type:        "string",
				Description: fmt.Sprintf("Path parameter '%s'", name),
			}
		}
		obj.require(name)
	}

	if op != nil {
		flattenRequestBody(obj, op.RequestBody)
	}

	return obj
}

// mergeParameters combines path-item-level and operation-level parameters by
// name, operation-level winning on collision.
func mergeParameters(op *openapi3.Operation, item *openapi3.PathItem) map[string]*openapi3.Parameter {
	merged := map[string]*openapi3.Parameter{}
	if item != nil {
		for _, ref := range item.Parameters {
			if ref != nil && ref.Value != nil && ref.Value.Name != "" {
				merged[ref.Value.Name] = ref.Value
			}
		}
	}
	if op != nil {
		for _, ref := range op.Parameters {
			if ref != nil && ref.Value != nil && ref.Value.Name != "" {
				merged[ref.Value.Name] = ref.Value
			}
		}
	}
	return merged
}

func propertyFor(param *openapi3.Parameter) *Property {
	prop := &Property{
		Type:        "string",
		Description: param.Description,
	}
	if prop.Description == "" {
		prop.Description = fmt.Sprintf("%s parameter %s", param.In, param.Name)
	}
	if param.Schema != nil && param.Schema.Value != nil {
		sch := param.Schema.Value
		prop.Type = primitiveType(sch.Type)
		prop.Format = sch.Format
		if len(sch.Enum) > 0 {
			prop.Enum = sch.Enum
		}
	}
	return prop
}

// primitiveType maps a schema type to the supported primitive set;
// anything unrecognized degrades to string.
func primitiveType(t *openapi3.Types) string {
	if t == nil {
		return "string"
	}
	for _, candidate := range []string{"string", "integer", "boolean", "number", "array"} {
		if t.Is(candidate) {
			return candidate
		}
	}
	return "string"
}

// flattenRequestBody merges the properties of an application/json object body
// into the top level of the input schema. Non-object bodies are not
// represented.
func flattenRequestBody(obj *Object, bodyRef *openapi3.RequestBodyRef) {
	if bodyRef == nil || bodyRef.Value == nil {
		return
	}
	media := bodyRef.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return
	}
	body := media.Schema.Value
	if !body.Type.Is("object") || len(body.Properties) == 0 {
		return
	}

	for name, ref := range body.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		// Carry the body property's schema verbatim rather than forcing it
		// through the primitive mapping.
		raw, err := ref.Value.MarshalJSON()
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		obj.Properties[name] = m
	}
	for _, name := range body.Required {
		obj.require(name)
	}
}

func (o *Object) require(name string) {
	for _, existing := range o.Required {
		if existing == name {
			return
		}
	}
	o.Required = append(o.Required, name)
}
