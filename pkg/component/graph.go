package component

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-autograph/pkg/schema"
)

// GraphNode is a node of the force-graph payload.
type GraphNode struct {
	PP    string `json:"__pp__"`
	Str   string `json:"__str__"`
	Label string `json:"LABEL"`
}

// GraphLink is an edge of the force-graph payload.
type GraphLink struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"RELATIONSHIP_TYPE"`
	SourceLabel      string `json:"SOURCE_LABEL,omitempty"`
	TargetLabel      string `json:"TARGET_LABEL,omitempty"`
}

// GraphData is the node-link payload consumed by the graph components.
type GraphData struct {
	Directed bool        `json:"directed"`
	Nodes    []GraphNode `json:"nodes"`
	Links    []GraphLink `json:"links"`
}

// GraphDataFromResult projects nodes and relationships into node-link data.
// Nodes are deduplicated by identity. With qualify set, ids are prefixed with
// the label ("Label#pp") so equal primary properties of different labels stay
// distinct.
func GraphDataFromResult(nodes []*schema.Node, relationships []*schema.Relationship, qualify bool) GraphData {
	id := func(n *schema.Node) string {
		if qualify {
			return n.Label() + "#" + n.PP()
		}
		return n.PP()
	}
	data := GraphData{Directed: true, Nodes: []GraphNode{}, Links: []GraphLink{}}
	seen := make(map[string]struct{}, len(nodes))
	add := func(n *schema.Node) {
		if n == nil {
			return
		}
		key := n.Label() + "\x00" + n.PP()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		data.Nodes = append(data.Nodes, GraphNode{PP: id(n), Str: n.String(), Label: n.Label()})
	}
	for _, n := range nodes {
		add(n)
	}
	linked := make(map[string]struct{}, len(relationships))
	for _, rel := range relationships {
		if rel == nil || rel.Source == nil || rel.Target == nil {
			continue
		}
		if _, ok := linked[rel.Key()]; ok {
			continue
		}
		linked[rel.Key()] = struct{}{}
		add(rel.Source)
		add(rel.Target)
		data.Links = append(data.Links, GraphLink{
			Source:           id(rel.Source),
			Target:           id(rel.Target),
			RelationshipType: rel.Tag(),
			SourceLabel:      rel.Source.Label(),
			TargetLabel:      rel.Target.Label(),
		})
	}
	return data
}

// SchemaGraphData draws node types as nodes and relationship types as links.
// Relationship types whose ends are not both in the registry are skipped.
func SchemaGraphData(reg *schema.Registry) GraphData {
	data := GraphData{Directed: true, Nodes: []GraphNode{}, Links: []GraphLink{}}
	for _, nt := range reg.NodeTypes() {
		data.Nodes = append(data.Nodes, GraphNode{PP: nt.Label, Str: "Label", Label: nt.Label})
	}
	for _, rt := range reg.RelationshipTypes() {
		if !reg.HasNode(rt.Source.Label) || !reg.HasNode(rt.Target.Label) {
			continue
		}
		data.Links = append(data.Links, GraphLink{
			Source:           rt.Source.Label,
			Target:           rt.Target.Label,
			RelationshipType: "Relationship Type: " + rt.Type,
		})
	}
	return data
}

const (
	forceGraphScript   = "<script src='https://unpkg.com/force-graph'></script>"
	forceGraph3DScript = "<script src='https://cdn.jsdelivr.net/npm/3d-force-graph'></script>"
	cytoscapeScript    = "<script src='https://unpkg.com/cytoscape@3.30.4/dist/cytoscape.min.js'></script>"
)

// Graph2d draws a force-directed graph. Either Data is embedded or URL is
// fetched at page load.
type Graph2d struct {
	ID   string
	URL  string
	Data *GraphData
}

func (g Graph2d) Tags() Tags { return Tags{Head: []string{forceGraphScript}} }

func (g Graph2d) Render(r *Renderer) (string, error) {
	ctx, err := graphContext(g.ID, g.URL, g.Data)
	if err != nil {
		return "", err
	}
	ctx["factory"] = "ForceGraph"
	return r.Execute("graph", ctx)
}

// Graph3d is Graph2d rendered with 3d-force-graph.
type Graph3d struct {
	ID   string
	URL  string
	Data *GraphData
}

func (g Graph3d) Tags() Tags { return Tags{Head: []string{forceGraph3DScript}} }

func (g Graph3d) Render(r *Renderer) (string, error) {
	ctx, err := graphContext(g.ID, g.URL, g.Data)
	if err != nil {
		return "", err
	}
	ctx["factory"] = "ForceGraph3D"
	return r.Execute("graph", ctx)
}

func graphContext(id, url string, data *GraphData) (map[string]any, error) {
	if url == "" && data == nil {
		return nil, fmt.Errorf("component: graph needs data or a url")
	}
	if id == "" {
		id = uuid.NewString()
	}
	payload := ""
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("component: encode graph data: %w", err)
		}
		payload = string(raw)
	}
	return map[string]any{
		"id":   jsIdent(id),
		"url":  url,
		"data": payload,
	}, nil
}

// CytoscapeLayout names a cytoscape.js layout.
type CytoscapeLayout string

const (
	LayoutNull         CytoscapeLayout = "null"
	LayoutRandom       CytoscapeLayout = "random"
	LayoutGrid         CytoscapeLayout = "grid"
	LayoutCircle       CytoscapeLayout = "circle"
	LayoutConcentric   CytoscapeLayout = "concentric"
	LayoutBreadthFirst CytoscapeLayout = "breadthfirst"
	LayoutCose         CytoscapeLayout = "cose"
)

// CytoscapeElement is a node or edge of a cytoscape graph.
type CytoscapeElement struct {
	Data map[string]string `json:"data"`
}

// CytoscapeElements converts nodes and relationships into cytoscape elements.
func CytoscapeElements(nodes []*schema.Node, relationships []*schema.Relationship) []CytoscapeElement {
	out := make([]CytoscapeElement, 0, len(nodes)+len(relationships))
	for _, n := range nodes {
		out = append(out, CytoscapeElement{Data: map[string]string{
			"id":    n.PP(),
			"name":  n.String(),
			"label": n.Label(),
		}})
	}
	for _, rel := range relationships {
		out = append(out, CytoscapeElement{Data: map[string]string{
			"id":     fmt.Sprintf("(%s)-[%s]->(%s)", rel.Source.PP(), rel.Tag(), rel.Target.PP()),
			"source": rel.Source.PP(),
			"target": rel.Target.PP(),
		}})
	}
	return out
}

// Cytoscape draws a graph with cytoscape.js.
type Cytoscape struct {
	ID       string
	URL      string
	Layout   CytoscapeLayout
	Elements []CytoscapeElement
}

func (c Cytoscape) Tags() Tags { return Tags{Head: []string{cytoscapeScript}} }

func (c Cytoscape) Render(r *Renderer) (string, error) {
	if c.URL == "" && c.Elements == nil {
		return "", fmt.Errorf("component: cytoscape needs elements or a url")
	}
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	payload := ""
	if c.Elements != nil {
		raw, err := json.Marshal(c.Elements)
		if err != nil {
			return "", fmt.Errorf("component: encode cytoscape elements: %w", err)
		}
		payload = string(raw)
	}
	layout := c.Layout
	if layout == "" {
		layout = LayoutCose
	}
	return r.Execute("cytoscape", map[string]any{
		"id":     jsIdent(id),
		"url":    c.URL,
		"data":   payload,
		"layout": string(layout),
	})
}

// jsIdent keeps letters, digits and underscores so ids can be embedded in
// script variable names.
func jsIdent(id string) string {
	out := make([]rune, 0, len(id)+1)
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || (out[0] >= '0' && out[0] <= '9') {
		out = append([]rune{'g'}, out...)
	}
	return string(out)
}
