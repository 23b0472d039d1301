// Package export describes the extract payload of registered structures as
// OpenAPI 3 schemas, so backends receiving form submissions can validate them.
//
// Every structure that declares subfields becomes a component schema holding
// its subfields. A subfield referencing such a structure accepts either the
// bare widget value (the field was never expanded) or an object combining the
// component with the field's own value keyed by the subfield name. References
// go through $ref, so cyclic schemas stay finite.
package export

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formtree/pkg/requirement"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// OpenAPIVersion is the version written into exported documents.
const OpenAPIVersion = "3.0.3"

const componentPrefix = "#/components/schemas/"

// ComponentRef returns the $ref pointing at the component of typeName.
func ComponentRef(typeName string) string {
	return componentPrefix + typeName
}

// Components returns one component schema per registered structure that
// declares subfields.
func Components(reg *schema.Registry) openapi3.Schemas {
	b := newBuilder()
	if reg == nil {
		return b.components
	}
	for _, name := range reg.Names() {
		structure, ok := reg.Lookup(name)
		if !ok || !structure.HasSubfields() {
			continue
		}
		b.component(structure)
	}
	return b.components
}

// FormSchema describes the payload of a whole form built for structure: the
// top field and every subfield at the root.
func FormSchema(structure *schema.Structure) *openapi3.SchemaRef {
	b := newBuilder()
	obj := openapi3.NewObjectSchema()
	b.fill(obj, structure, true)
	return openapi3.NewSchemaRef("", obj)
}

// Document wraps Components into an OpenAPI document.
func Document(reg *schema.Registry, title, version string) *openapi3.T {
	return &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: Components(reg),
		},
	}
}

// builder memoizes component schemas by type name. A component is stored
// before its properties are filled, so self references resolve to it.
type builder struct {
	components openapi3.Schemas
}

func newBuilder() *builder {
	return &builder{components: make(openapi3.Schemas)}
}

func (b *builder) component(structure *schema.Structure) *openapi3.Schema {
	if ref, ok := b.components[structure.TypeName]; ok {
		return ref.Value
	}
	obj := openapi3.NewObjectSchema()
	b.components[structure.TypeName] = openapi3.NewSchemaRef("", obj)
	b.fill(obj, structure, false)
	return obj
}

func (b *builder) fill(obj *openapi3.Schema, structure *schema.Structure, withTop bool) {
	obj.Title = structure.TypeName

	fields := structure.Subfields
	if withTop && structure.TopField != nil {
		fields = append([]*schema.Subfield{structure.TopField}, fields...)
	}
	var required []string
	for _, sub := range fields {
		obj.Properties[sub.Name] = b.subfieldSchema(sub)
		if sub.Requirement == requirement.Mandatory {
			required = append(required, sub.Name)
		}
	}
	if len(required) > 0 {
		obj.Required = required
	}
}

func (b *builder) subfieldSchema(sub *schema.Subfield) *openapi3.SchemaRef {
	value := b.valueSchema(sub)
	if !sub.Multi {
		return value
	}
	arr := openapi3.NewArraySchema()
	arr.Title = sub.Label()
	arr.Items = value
	if sub.Requirement == requirement.Mandatory {
		arr.MinItems = 1
	}
	return openapi3.NewSchemaRef("", arr)
}

func (b *builder) valueSchema(sub *schema.Subfield) *openapi3.SchemaRef {
	scalar := widgetSchema(sub.Type)
	if sub.Type == nil || !sub.Type.HasSubfields() {
		scalar.Title = sub.Label()
		scalar.Description = sub.Tooltip()
		return openapi3.NewSchemaRef("", scalar)
	}

	own := openapi3.NewObjectSchema().WithProperty(sub.ValueKey(), widgetSchema(sub.Type))
	expanded := &openapi3.Schema{
		AllOf: openapi3.SchemaRefs{
			openapi3.NewSchemaRef(ComponentRef(sub.Type.TypeName), b.component(sub.Type)),
			openapi3.NewSchemaRef("", own),
		},
	}
	combined := &openapi3.Schema{
		Title:       sub.Label(),
		Description: sub.Tooltip(),
		AnyOf: openapi3.SchemaRefs{
			openapi3.NewSchemaRef("", scalar),
			openapi3.NewSchemaRef("", expanded),
		},
	}
	return openapi3.NewSchemaRef("", combined)
}

// widgetSchema maps the widget rendering structure to the schema of the value
// it extracts. Unknown widgets extract strings.
func widgetSchema(structure *schema.Structure) *openapi3.Schema {
	if structure == nil {
		return &openapi3.Schema{}
	}
	descriptor, widgetProps, ok := structure.ResolveWidget()
	if !ok {
		return &openapi3.Schema{}
	}
	switch descriptor.Name {
	case widgets.WidgetNumber:
		return openapi3.NewFloat64Schema().WithNullable()
	case widgets.WidgetCheckbox:
		return openapi3.NewBoolSchema()
	case widgets.WidgetURL:
		return openapi3.NewStringSchema().WithFormat("uri")
	case widgets.WidgetDate:
		return openapi3.NewStringSchema().WithFormat("date")
	case widgets.WidgetSelectbox:
		picked := openapi3.NewObjectSchema().
			WithProperty("id", openapi3.NewStringSchema()).
			WithProperty("name", openapi3.NewStringSchema()).
			WithRequired([]string{"id", "name"})
		if source := widgetProps.String("source"); source != "" {
			picked.Extensions = map[string]any{"x-option-source": source}
		}
		return openapi3.NewAnyOfSchema(picked, openapi3.NewStringSchema())
	default:
		return openapi3.NewStringSchema()
	}
}
