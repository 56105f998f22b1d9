package http

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/schema"
)

const (
	refFieldErrors = "#/components/schemas/FieldErrors"
	refError       = "#/components/schemas/Error"
)

// BuildOpenAPI describes the REST surface of a compiled schema. Every table gets a
// component schema named after it, with constraints mapped to JSON Schema keywords
// where a direct equivalent exists.
func BuildOpenAPI(c *schema.Compiled, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   fmt.Sprintf("relstore: %s", c.Name()),
			Version: version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Error": openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
					WithProperty("error", openapi3.NewStringSchema())),
				"FieldErrors": openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
					WithProperty("error", openapi3.NewStringSchema()).
					WithProperty("fields", openapi3.NewObjectSchema().
						WithAdditionalProperties(openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())))),
			},
		},
	}

	doc.Paths.Set("/tables", &openapi3.PathItem{
		Get: operation("listTables", "List tables and their fields", nil,
			withJSON(200, "Schema description", openapi3.NewSchemaRef("", openapi3.NewObjectSchema()))),
	})

	for _, name := range c.Tables() {
		table, _ := c.Table(name)
		ref := "#/components/schemas/" + name
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", entitySchema(table))

		entity := openapi3.NewSchemaRef(ref, nil)
		list := openapi3.NewSchemaRef("", &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeArray}, Items: entity})

		filters := make(openapi3.Parameters, 0, len(table.Fields())+1)
		filters = append(filters, &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(domain.IDField).WithSchema(openapi3.NewStringSchema())})
		for _, f := range table.Fields() {
			field, _ := table.Field(f)
			filters = append(filters, &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(f).WithSchema(typeSchema(field.Type))})
		}

		doc.Paths.Set("/tables/"+name, &openapi3.PathItem{
			Get: operation("list_"+name, "List "+name+" matching every query parameter", filters,
				withJSON(200, "Matching entities", list),
				withJSON(400, "Unknown filter key", openapi3.NewSchemaRef(refError, nil))),
			Post: bodyOperation("create_"+name, "Create a "+name+" entity", entity, nil,
				withJSON(201, "Created entity", entity),
				withJSON(422, "Validation failed", openapi3.NewSchemaRef(refFieldErrors, nil))),
		})

		idParam := openapi3.Parameters{&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())}}
		notFound := withJSON(404, "Not found", openapi3.NewSchemaRef(refError, nil))
		doc.Paths.Set("/tables/"+name+"/{id}", &openapi3.PathItem{
			Get: operation("find_"+name, "Find a "+name+" entity", idParam,
				withJSON(200, "Entity", entity), notFound),
			Put: bodyOperation("update_"+name, "Replace a "+name+" entity", entity, idParam,
				withJSON(200, "Updated entity", entity), notFound,
				withJSON(422, "Validation failed", openapi3.NewSchemaRef(refFieldErrors, nil))),
			Delete: operation("destroy_"+name, "Destroy a "+name+" entity", idParam,
				func(op *openapi3.Operation) {
					op.AddResponse(204, openapi3.NewResponse().WithDescription("Destroyed"))
				}, notFound),
		})

		doc.Paths.Set("/tables/"+name+"/validate", &openapi3.PathItem{
			Post: bodyOperation("validate_"+name, "Validate a "+name+" entity without saving it", entity, nil,
				withJSON(200, "Validation result", openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
					WithProperty("valid", openapi3.NewBoolSchema()).
					WithPropertyRef("errors", openapi3.NewSchemaRef(refFieldErrors, nil))))),
		})
	}

	return doc
}

type responseOption func(*openapi3.Operation)

func withJSON(status int, description string, ref *openapi3.SchemaRef) responseOption {
	return func(op *openapi3.Operation) {
		op.AddResponse(status, openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(ref))
	}
}

func operation(id, summary string, params openapi3.Parameters, responses ...responseOption) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	op.Parameters = params
	for _, r := range responses {
		r(op)
	}
	return op
}

func bodyOperation(id, summary string, body *openapi3.SchemaRef, params openapi3.Parameters, responses ...responseOption) *openapi3.Operation {
	op := operation(id, summary, params, responses...)
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(body)}
	return op
}

func entitySchema(t *schema.Table) *openapi3.Schema {
	s := openapi3.NewObjectSchema().WithProperty(domain.IDField, openapi3.NewStringSchema())
	for _, name := range t.Fields() {
		field, _ := t.Field(name)
		fs := typeSchema(field.Type)
		for _, c := range field.Constraints {
			applyConstraint(fs, c)
		}
		if v, ok := field.Default.LiteralValue(); ok {
			fs.Default = v
		}
		s.WithProperty(name, fs)
		if field.Required() && !field.Default.IsSet() {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

func typeSchema(t schema.Type) *openapi3.Schema {
	switch t {
	case schema.Integer:
		return openapi3.NewIntegerSchema()
	case schema.Boolean:
		return openapi3.NewBoolSchema()
	default:
		return openapi3.NewStringSchema()
	}
}

// applyConstraint maps the constraints JSON Schema can express. Or branches have no
// keyword equivalent and are left to the server.
func applyConstraint(s *openapi3.Schema, c schema.Constraint) {
	switch c.Kind {
	case schema.ConstraintMin:
		if n, ok := c.Number(); ok {
			s.WithMin(n)
		}
	case schema.ConstraintMax:
		if n, ok := c.Number(); ok {
			s.WithMax(n)
		}
	case schema.ConstraintMinLength:
		if n, ok := c.Int(); ok {
			s.WithMinLength(int64(n))
		}
	case schema.ConstraintMaxLength:
		if n, ok := c.Int(); ok {
			s.WithMaxLength(int64(n))
		}
	case schema.ConstraintOneOf:
		if values, ok := c.Values(); ok {
			s.WithEnum(values...)
		}
	case schema.ConstraintPattern:
		if p, ok := c.Value.(string); ok {
			s.WithPattern(p)
		}
	}
}
