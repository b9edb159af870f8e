package autograph

import (
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
)

func listSections() []views.Section {
	return []views.Section{
		{
			Name: "nodes",
			Body: func(r *views.Request) ([]component.Component, error) {
				nodes, err := r.Env.Store.MatchAll(r.Context(), r.Viewset.Type, 0, 0)
				if err != nil {
					return nil, err
				}
				table, err := component.NewNodeListTable(nodes, component.NodeListOptions{
					Fields:     []string{component.FieldNodeString, component.FieldNodePP},
					URLPattern: r.Viewset.ItemURLPattern(),
					URLField:   component.FieldNodePP,
				})
				if err != nil {
					return nil, err
				}
				heading := headingWithIcon("Nodes", CreateURL(r.Viewset), "bi-plus-square")
				return views.Components(heading, table), nil
			},
		},
		{
			Name:  "schema",
			Title: "Schema",
			Body: func(r *views.Request) ([]component.Component, error) {
				return views.Components(component.Markdown{Text: schema.MarkdownTable(r.Viewset.Type)}), nil
			},
		},
	}
}

func itemSections() []views.Section {
	return []views.Section{
		{
			Name: "properties",
			Body: func(r *views.Request) ([]component.Component, error) {
				heading := headingWithIcon("Node Properties", r.Viewset.NodeEndpointURL(EditEndpoint, r.Node), "bi-pencil-square")
				return views.Components(heading, component.NewNodeTranslatedTable(r.Node, nil)), nil
			},
		},
		{
			Name: "outgoing",
			Body: func(r *views.Request) ([]component.Component, error) {
				heading := headingWithIcon("Outgoing Relationships", r.Viewset.NodeEndpointURL(RelationshipsEndpoint, r.Node), "bi-node-plus")
				rels, err := r.Env.Store.Outgoing(r.Context(), r.Node)
				if err != nil {
					return nil, err
				}
				if len(rels) == 0 {
					return views.Components(heading), nil
				}
				rows := make([]map[string]any, 0, len(rels))
				for _, rel := range rels {
					rows = append(rows, map[string]any{
						"target":            rel.Target.String(),
						"relationship_type": rel.Tag(),
					})
				}
				table := component.NewTable([]component.Column{
					{Title: "Target", Field: "target"},
					{Title: "Relationship Type", Field: "relationship_type"},
				}, rows)
				return views.Components(heading, table), nil
			},
		},
		{
			Name:  "graph",
			Title: "Graph Visualization",
			Body: func(r *views.Request) ([]component.Component, error) {
				start := store.Ref(r.Node)
				result, err := r.Env.Store.RunQuery(r.Context(), store.Query{
					Start: &start,
					Depth: GraphDepth,
					Limit: GraphLimit,
				})
				if err != nil {
					return nil, err
				}
				data := component.GraphDataFromResult(result.Nodes, result.Relationships, false)
				return views.Components(component.Graph2d{ID: "node_graph", Data: &data}), nil
			},
		},
	}
}
