package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-autograph/pkg/schema"
)

// Document describes every resource of the API as an OpenAPI 3 document.
func (a *API) Document() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   a.Title,
			Version: a.Version,
		},
		Paths: openapi3.NewPaths(),
	}
	for _, res := range a.Resources {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: res.Name, Description: res.Description})
		item := NodeSchema(res.Type)
		list := openapi3.NewArraySchema().WithItems(item)

		op := newOperation(res, a.Version+"-"+res.Name+"-list", "List "+res.Name, list)
		op.Parameters = openapi3.Parameters{
			{Value: openapi3.NewQueryParameter("limit").WithSchema(openapi3.NewIntegerSchema().WithMin(0))},
			{Value: openapi3.NewQueryParameter("skip").WithSchema(openapi3.NewIntegerSchema().WithMin(0))},
		}
		doc.AddOperation(a.ListURL(res), http.MethodGet, op)

		op = newOperation(res, a.Version+"-"+res.Name+"-detail", "Get one of "+res.Name, item)
		op.Parameters = ppParameter(res)
		addNotFound(op, res)
		doc.AddOperation(a.Prefix()+res.Name+"/{pp}.json", http.MethodGet, op)

		for _, rel := range res.relatedNames() {
			op = newOperation(res, a.Version+"-"+res.Name+"-"+rel, "List "+rel+" related to one of "+res.Name,
				openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema()))
			op.Parameters = ppParameter(res)
			addNotFound(op, res)
			doc.AddOperation(a.Prefix()+res.Name+"/{pp}/"+rel+".json", http.MethodGet, op)
		}
	}
	return doc
}

func newOperation(res *Resource, id, summary string, body *openapi3.Schema) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	op.Tags = []string{res.Name}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("OK").WithJSONSchema(body),
		}),
	)
	return op
}

func ppParameter(res *Resource) openapi3.Parameters {
	return openapi3.Parameters{{
		Value: openapi3.NewPathParameter("pp").
			WithDescription("Primary property " + res.Type.PrimaryProperty).
			WithSchema(openapi3.NewStringSchema()),
	}}
}

func addNotFound(op *openapi3.Operation, res *Resource) {
	body := openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())
	op.Responses.Set("404", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(res.Singular() + " not found").WithJSONSchema(body),
	})
}

// NodeSchema is the JSON schema of a serialised node of t.
func NodeSchema(t *schema.NodeType) *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	for _, field := range t.Fields {
		obj.WithProperty(field.Name, FieldSchema(field))
		if field.Required {
			obj.Required = append(obj.Required, field.Name)
		}
	}
	return obj
}

// FieldSchema maps a field's core type to a JSON schema.
func FieldSchema(field schema.FieldDescriptor) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type {
	case schema.TypeInt:
		s = openapi3.NewInt64Schema()
	case schema.TypeEnum:
		s = openapi3.NewStringSchema().WithEnum(optionValues(field)...)
	case schema.TypeEnumList:
		s = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithEnum(optionValues(field)...))
	case schema.TypeDate:
		s = openapi3.NewStringSchema().WithFormat("date")
	case schema.TypeEmail:
		s = openapi3.NewStringSchema().WithFormat("email")
	case schema.TypeSecret:
		s = openapi3.NewStringSchema().WithFormat("password")
	default:
		s = openapi3.NewStringSchema()
	}
	if !field.Required {
		s.WithNullable()
	}
	s.Title = field.DisplayLabel()
	return s
}

func optionValues(field schema.FieldDescriptor) []any {
	values := make([]any, 0, len(field.Options))
	for _, opt := range field.Options {
		values = append(values, opt.Value)
	}
	return values
}
