package component

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-autograph/pkg/schema"
)

// Row keys added to every node row by NewNodeListTable.
const (
	FieldNodeString = "__str__"
	FieldNodePP     = "__pp__"
	FieldNodeLink   = "fn_node_link_field"
)

var (
	dataTableHead = []string{
		"<link href='https://cdn.datatables.net/2.1.2/css/dataTables.dataTables.min.css' rel='stylesheet'>",
		"<script src='https://code.jquery.com/jquery-3.7.1.min.js' integrity='sha256-/JqT3SQfawRcv/BIHPThkBvs0OEvtFFmqPF/lYI/Cxo=' crossorigin='anonymous'></script>",
		"<script src='https://cdn.datatables.net/2.3.5/js/dataTables.min.js'></script>",
		"<script src='https://cdn.datatables.net/2.3.5/js/dataTables.bootstrap5.min.js'></script>",
	}
	columnControlHead = []string{
		"<link href='https://cdn.datatables.net/columncontrol/1.1.1/css/columnControl.dataTables.min.css' rel='stylesheet'>",
		"<script src='https://cdn.datatables.net/columncontrol/1.1.1/js/dataTables.columnControl.min.js'></script>",
	}
)

// ErrMixedNodes is returned when a node table is given nodes of more than
// one label.
var ErrMixedNodes = errors.New("component: nodes should all be of the same type")

// Column describes one table column. LinkField names the row key holding the
// cell's href.
type Column struct {
	Title      string
	Field      string
	LinkField  string
	LinkTarget string
	// Separator joins list values, ", " by default.
	Separator string
}

// DataTable enables the DataTables enhancement of a Table.
type DataTable struct {
	PageLength   int
	LengthChange bool
	// Searching defaults to true when the table has more than 20 rows.
	Searching     *bool
	Ordering      bool
	ColumnControl bool
}

// Table renders rows of values under column headings.
type Table struct {
	ID        string
	Columns   []Column
	Rows      []map[string]any
	DataTable *DataTable
}

// NewTable builds a table with a generated element id.
func NewTable(columns []Column, rows []map[string]any) *Table {
	return &Table{ID: uuid.NewString(), Columns: columns, Rows: rows}
}

func (t *Table) Tags() Tags {
	if t.DataTable == nil {
		return Tags{}
	}
	head := append([]string(nil), dataTableHead...)
	if t.DataTable.ColumnControl {
		head = append(head, columnControlHead...)
	}
	return Tags{Head: head}
}

// Searching reports whether DataTables search is enabled.
func (t *Table) Searching() bool {
	if t.DataTable == nil {
		return false
	}
	if t.DataTable.Searching != nil {
		return *t.DataTable.Searching
	}
	return len(t.Rows) > 20
}

func (t *Table) Render(r *Renderer) (string, error) {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	headings := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		headings = append(headings, col.Title)
	}
	rows := make([][]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]map[string]any, 0, len(t.Columns))
		for _, col := range t.Columns {
			sep := col.Separator
			if sep == "" {
				sep = ", "
			}
			text, _ := toDisplay(row[col.Field], sep)
			cell := map[string]any{"text": text, "href": "", "target": col.LinkTarget}
			if col.LinkField != "" {
				cell["href"] = schema.FormatValue(row[col.LinkField])
			}
			cells = append(cells, cell)
		}
		rows = append(rows, cells)
	}
	ctx := map[string]any{
		"id":        id,
		"headings":  headings,
		"rows":      rows,
		"datatable": t.DataTable != nil,
	}
	if dt := t.DataTable; dt != nil {
		pageLength := dt.PageLength
		if pageLength <= 0 {
			pageLength = 50
		}
		ctx["page_length"] = strconv.Itoa(pageLength)
		ctx["ordering"] = dt.Ordering
		ctx["length_change"] = dt.LengthChange
		ctx["searching"] = t.Searching()
		ctx["column_control"] = dt.ColumnControl
	}
	return r.Execute("table", ctx)
}

// NodeListOptions configures NewNodeListTable.
type NodeListOptions struct {
	// Fields selects and orders the columns. The pseudo fields "__str__" and
	// "__pp__" are titled "Node" and "Primary Property". Defaults to every
	// declared field of the node type.
	Fields []string
	// URLPattern contains URLPlaceholder; when set one column links to each
	// node.
	URLPattern string
	// URLField chooses the linked column. Defaults to the primary property
	// when listed, otherwise the first column.
	URLField  string
	DataTable *DataTable
}

// NewNodeListTable tabulates nodes of a single label. Mixed labels are a
// caller error reported as ErrMixedNodes.
func NewNodeListTable(nodes []*schema.Node, opts NodeListOptions) (*Table, error) {
	table := NewTable(nil, nil)
	table.DataTable = opts.DataTable
	if len(nodes) == 0 {
		return table, nil
	}
	label := nodes[0].Label()
	for _, n := range nodes[1:] {
		if n.Label() != label {
			return nil, fmt.Errorf("%w: %s and %s", ErrMixedNodes, label, n.Label())
		}
	}

	first := nodes[0]
	type fieldColumn struct{ title, key string }
	var fields []fieldColumn
	if len(opts.Fields) == 0 {
		for _, f := range first.Type.Fields {
			if f.Excluded {
				continue
			}
			fields = append(fields, fieldColumn{title: f.Name, key: f.Name})
		}
	} else {
		for _, key := range opts.Fields {
			title := schema.TitleCase(key)
			switch key {
			case FieldNodeString:
				title = "Node"
			case FieldNodePP:
				title = "Primary Property"
			}
			fields = append(fields, fieldColumn{title: title, key: key})
		}
	}

	urlColumn := ""
	if opts.URLPattern != "" && len(fields) > 0 {
		urlColumn = fields[0].key
		if opts.URLField != "" {
			urlColumn = opts.URLField
		} else {
			for _, f := range fields {
				if f.key == first.Type.PrimaryProperty {
					urlColumn = f.key
					break
				}
			}
		}
	}

	for _, f := range fields {
		col := Column{Title: f.title, Field: f.key}
		if f.key == urlColumn {
			col.LinkField = FieldNodeLink
		}
		table.Columns = append(table.Columns, col)
	}

	for _, n := range nodes {
		row := n.Dump()
		row[FieldNodeString] = n.String()
		row[FieldNodePP] = n.PP()
		if opts.URLPattern != "" {
			row[FieldNodeLink] = strings.ReplaceAll(opts.URLPattern, URLPlaceholder, schema.EscapePP(n.PP()))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// TableRow is one heading/value row of a TranslatedTable. Data entries are
// strings, canonical values or Link components.
type TableRow struct {
	Title     string
	Data      []any
	Separator string
}

// TranslatedTable renders key/value rows. Rows with no data are skipped.
type TranslatedTable struct {
	Rows []TableRow
}

func (t *TranslatedTable) Tags() Tags { return Tags{} }

func (t *TranslatedTable) Render(r *Renderer) (string, error) {
	rows := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row.Data) == 0 {
			continue
		}
		sep := row.Separator
		if sep == "" {
			sep = ", "
		}
		parts := make([]string, 0, len(row.Data))
		for _, entry := range row.Data {
			if c, ok := entry.(Component); ok {
				rendered, err := r.Render(c)
				if err != nil {
					return "", err
				}
				parts = append(parts, rendered)
				continue
			}
			text, _ := toDisplay(entry, nil)
			parts = append(parts, html.EscapeString(text.(string)))
		}
		rows = append(rows, map[string]any{
			"title": row.Title,
			"html":  strings.Join(parts, html.EscapeString(sep)),
		})
	}
	return r.Execute("translated_table", map[string]any{"rows": rows})
}

// NewNodeTranslatedTable lists a node's non-empty properties, primary
// property first and annotated. Titles override the derived field labels.
// Secret values are masked.
func NewNodeTranslatedTable(node *schema.Node, titles map[string]string) *TranslatedTable {
	table := &TranslatedTable{}
	if node == nil || node.Type == nil {
		return table
	}
	values := node.Dump()
	for _, field := range node.Type.Fields {
		if field.Excluded {
			continue
		}
		value, ok := values[field.Name]
		if !ok || isEmptyValue(value) {
			continue
		}
		title := field.DisplayLabel()
		if custom, ok := titles[field.Name]; ok {
			title = custom
		}
		if field.Name == node.Type.PrimaryProperty {
			title += " (Primary Property)"
			table.Rows = append([]TableRow{{Title: title, Data: []any{schema.FormatValue(value)}}}, table.Rows...)
			continue
		}
		table.Rows = append(table.Rows, TableRow{Title: title, Data: []any{schema.FormatValue(value)}})
	}
	return table
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []string:
		return len(value) == 0
	case []any:
		return len(value) == 0
	}
	return false
}
