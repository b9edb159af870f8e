// Package demo is the demonstration site served by the autograph command: a
// small documentation ontology, a docs section, a home page, the component
// catalogue, a composite create-page form and a pages API.
package demo

import (
	"github.com/goliatone/go-autograph/pkg/schema"
)

var (
	// PageType is a documentation page, addressed by slug.
	PageType = schema.MustNodeType("NeontologyPage", "slug",
		schema.WithFields(
			schema.String("title"),
			schema.String("description", schema.Optional()),
			schema.String("slug"),
			schema.String("content"),
		),
		schema.WithDisplay("title"),
	)

	// AuthorType is a page author, addressed by name.
	AuthorType = schema.MustNodeType("NeontologyAuthor", "name",
		schema.WithFields(schema.String("name")),
	)

	// AuthoredBy links a page to its authors.
	AuthoredBy = schema.MustRelationshipType("NEONTOLOGY_PAGE_AUTHORED_BY", PageType, AuthorType,
		schema.String("comments", schema.Optional()),
	)
)

// Registry returns a registry holding the demo types.
func Registry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.MustRegisterNode(PageType, AuthorType)
	reg.MustRegisterRelationship(AuthoredBy)
	return reg
}
