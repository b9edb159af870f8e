package demo

import (
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/views"
)

var (
	personType = schema.MustNodeType("Person", "name",
		schema.WithFields(
			schema.String("name"),
			schema.String("born"),
			schema.String("known_for"),
		),
	)
	influencedType = schema.MustRelationshipType("INFLUENCED", personType, personType)

	people = []map[string]any{
		{"name": "Robert Burns", "born": "1759", "known_for": "Auld Lang Syne", "url": "https://en.wikipedia.org/wiki/Robert_Burns"},
		{"name": "William Shakespeare", "born": "1564", "known_for": "Hamlet", "url": "https://en.wikipedia.org/wiki/William_Shakespeare"},
		{"name": "Charlotte Brontë", "born": "1816", "known_for": "Jane Eyre", "url": "https://en.wikipedia.org/wiki/Charlotte_Bront%C3%AB"},
		{"name": "Christopher Marlowe", "born": "1564", "known_for": "Doctor Faustus", "url": "https://en.wikipedia.org/wiki/Christopher_Marlowe"},
	}
)

// peopleGraph is the small sample graph drawn by the graph components.
func peopleGraph() ([]*schema.Node, []*schema.Relationship) {
	nodes := make([]*schema.Node, 0, len(people))
	byName := map[string]*schema.Node{}
	for _, p := range people {
		n, err := personType.New(map[string]any{"name": p["name"], "born": p["born"], "known_for": p["known_for"]})
		if err != nil {
			panic(err)
		}
		nodes = append(nodes, n)
		byName[n.PP()] = n
	}
	rels := []*schema.Relationship{
		{Type: influencedType, Source: byName["Christopher Marlowe"], Target: byName["William Shakespeare"]},
		{Type: influencedType, Source: byName["William Shakespeare"], Target: byName["Robert Burns"]},
		{Type: influencedType, Source: byName["William Shakespeare"], Target: byName["Charlotte Brontë"]},
	}
	return nodes, rels
}

type catalogueEntry struct {
	id, title, description string
	body                   func() component.Component
}

func catalogueEntries() []catalogueEntry {
	nodes, rels := peopleGraph()
	data := component.GraphDataFromResult(nodes, rels, false)
	columns := []component.Column{
		{Title: "Name", Field: "name", LinkField: "url"},
		{Title: "Born", Field: "born"},
		{Title: "Known For", Field: "known_for"},
	}
	return []catalogueEntry{
		{"hero", "Hero", "A large banner with links.", func() component.Component {
			return component.Hero{Title: "A Hero", Body: "Heroes open a page.", Links: []component.LinkData{{URL: "/", Title: "Home"}}}
		}},
		{"text", "Text", "Escaped plain text.", func() component.Component {
			return component.Text{Text: "Plain text, <b>escaped</b>."}
		}},
		{"markdown", "Markdown", "Markdown rendered to sanitised HTML.", func() component.Component {
			return component.Markdown{Text: "Some **bold** text and a [link](/)."}
		}},
		{"graph2d", "Graph 2D", "A force directed graph.", func() component.Component {
			return component.Graph2d{ID: "catalogue_graph2d", Data: &data}
		}},
		{"graph3d", "Graph 3D", "The same graph in three dimensions.", func() component.Component {
			return component.Graph3d{ID: "catalogue_graph3d", Data: &data}
		}},
		{"cytoscape", "Cytoscape", "The same graph drawn by cytoscape.js.", func() component.Component {
			return component.Cytoscape{ID: "catalogue_cytoscape", Elements: component.CytoscapeElements(nodes, rels), Layout: component.LayoutCircle}
		}},
		{"cards", "Cards", "A card list.", func() component.Component {
			cards := make([]component.Card, 0, len(people))
			for _, p := range people {
				cards = append(cards, component.Card{MetaData: component.MetaData{
					Title:    p["name"].(string),
					Subtitle: p["born"].(string),
					Links:    []component.Link{component.NewLink(p["url"].(string), "Wikipedia")},
				}})
			}
			return component.CardList{Cards: cards}
		}},
		{"list-group", "List Group", "A list of items.", func() component.Component {
			items := make([]component.ListItem, 0, len(people))
			for _, p := range people {
				items = append(items, component.ListItem{MetaData: component.MetaData{
					Title:       p["name"].(string),
					Description: p["known_for"].(string),
				}})
			}
			return component.ListGroup{Items: items}
		}},
		{"table", "Table", "A plain table.", func() component.Component {
			return component.NewTable(columns, people)
		}},
		{"datatable", "Data Table", "A table with paging and ordering.", func() component.Component {
			t := component.NewTable(columns, people)
			t.DataTable = &component.DataTable{PageLength: 10, Ordering: true}
			return t
		}},
	}
}

// Catalogue shows one section per component, with a side menu linking them.
func Catalogue() *views.PageView {
	entries := catalogueEntries()
	sections := make([]views.Section, 0, len(entries))
	links := make([]component.LinkData, 0, len(entries))
	for _, e := range entries {
		sections = append(sections, views.Section{
			Name:        e.id,
			Title:       e.title,
			Description: e.description,
			Body: func(*views.Request) ([]component.Component, error) {
				return views.Components(e.body()), nil
			},
		})
		links = append(links, component.LinkData{URL: "#" + e.id, Title: e.title})
	}
	return &views.PageView{
		Name:     "components",
		Path:     CatalogueURL,
		Title:    "Component Catalogue",
		Sections: sections,
		Elements: []views.Element{
			{Slot: component.ElementLeftbar, Value: func(*views.Request) (any, error) {
				return component.SideMenu{Items: []component.SideMenuItem{{
					Parent:   component.LinkData{URL: CatalogueURL, Title: "Components"},
					Icon:     "bi-grid",
					Children: links,
				}}}, nil
			}},
			views.TextElement(component.ElementFooterText, FooterText),
		},
	}
}
