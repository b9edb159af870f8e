package transfer

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/hack-pad/hackpadfs"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// Report summarises an import.
type Report struct {
	Files         int
	Nodes         int
	Relationships int
	Errors        []*RecordError
	Written       bool
}

// Err is nil when every record mapped, otherwise an error wrapping
// ErrSchemaMapping.
func (r *Report) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d records rejected, first: %v", ErrSchemaMapping, len(r.Errors), r.Errors[0])
}

// Importer maps records onto registered types and merges them into a store.
type Importer struct {
	registry *schema.Registry
	store    store.Store
	opts     *options
}

// NewImporter creates an importer writing to st.
func NewImporter(reg *schema.Registry, st store.Store, opts ...Option) *Importer {
	return &Importer{registry: reg, store: st, opts: newOptions(opts)}
}

type plan struct {
	nodes []*schema.Node
	index map[string]*schema.Node
	rels  []*schema.Relationship
}

type pendingRel struct {
	file   string
	index  int
	rt     *schema.RelationshipType
	source string
	target string
	props  map[string]any
}

// Import reads every file of format below dir. Records are validated first;
// nothing is written unless all of them map onto the registry. Nodes are
// merged before relationships.
func (im *Importer) Import(ctx context.Context, fsys hackpadfs.FS, dir string, format Format) (*Report, error) {
	files, err := listFiles(fsys, dir, format.extensions())
	if err != nil {
		return nil, err
	}
	log := im.opts.logger
	log.Infow("importing", "dir", dir, "format", format, "files", len(files))

	report := &Report{Files: len(files)}
	p := &plan{index: map[string]*schema.Node{}}
	var pending []pendingRel

	for _, name := range files {
		raw, err := hackpadfs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("transfer: read %s: %w", name, err)
		}
		records, err := decodeFile(name, format, raw)
		if err != nil {
			report.Errors = append(report.Errors, &RecordError{File: name, Index: -1, Err: fmt.Errorf("%w: %v", ErrSchemaMapping, err)})
			continue
		}
		for i, rec := range records {
			if tag, ok := rec.reserved(RelationshipTypeKey); ok {
				rel, err := im.mapRelationship(tag, rec)
				if err != nil {
					report.Errors = append(report.Errors, &RecordError{File: name, Index: i, Err: err})
					continue
				}
				rel.file, rel.index = name, i
				pending = append(pending, rel)
				continue
			}
			n, err := im.mapNode(rec)
			if err != nil {
				report.Errors = append(report.Errors, &RecordError{File: name, Index: i, Err: err})
				continue
			}
			p.add(n)
		}
	}

	for _, pr := range pending {
		rel, err := im.resolve(ctx, p, pr)
		if err != nil {
			report.Errors = append(report.Errors, &RecordError{File: pr.file, Index: pr.index, Err: err})
			continue
		}
		p.rels = append(p.rels, rel)
	}

	report.Nodes, report.Relationships = len(p.nodes), len(p.rels)
	if err := report.Err(); err != nil {
		return report, err
	}
	if im.opts.validateOnly {
		log.Infow("validated", "nodes", report.Nodes, "relationships", report.Relationships)
		return report, nil
	}

	for _, n := range p.nodes {
		if err := im.store.Merge(ctx, n); err != nil {
			return report, fmt.Errorf("transfer: merge %s: %w", n, err)
		}
	}
	for _, rel := range p.rels {
		if err := im.store.MergeRelationship(ctx, rel); err != nil {
			return report, fmt.Errorf("transfer: merge %s: %w", rel.Tag(), err)
		}
	}
	report.Written = true
	log.Infow("imported", "nodes", report.Nodes, "relationships", report.Relationships)
	return report, nil
}

func decodeFile(name string, format Format, raw []byte) ([]Record, error) {
	doc, err := NewDocument(name, format, raw)
	if err != nil {
		return nil, err
	}
	return doc.Records()
}

func (im *Importer) mapNode(rec Record) (*schema.Node, error) {
	label, ok := rec.reserved(LabelKey)
	if !ok {
		return nil, fmt.Errorf("%w: record has no %s", ErrSchemaMapping, LabelKey)
	}
	t, ok := im.registry.NodeType(label)
	if !ok {
		return nil, fmt.Errorf("%w: unknown label %q", ErrSchemaMapping, label)
	}
	n, err := t.New(rec.without(LabelKey, BodyPropertyKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMapping, err)
	}
	return n, nil
}

func (im *Importer) mapRelationship(tag string, rec Record) (pendingRel, error) {
	rt, ok := im.registry.RelationshipType(tag)
	if !ok {
		return pendingRel{}, fmt.Errorf("%w: unknown relationship type %q", ErrSchemaMapping, tag)
	}
	source, ok := rec.reserved(SourceKey)
	if !ok {
		return pendingRel{}, fmt.Errorf("%w: %s record has no %s", ErrSchemaMapping, tag, SourceKey)
	}
	target, ok := rec.reserved(TargetKey)
	if !ok {
		return pendingRel{}, fmt.Errorf("%w: %s record has no %s", ErrSchemaMapping, tag, TargetKey)
	}
	return pendingRel{rt: rt, source: source, target: target, props: rec.without(RelationshipTypeKey, SourceKey, TargetKey)}, nil
}

// resolve finds relationship endpoints among the imported nodes, then in the
// store.
func (im *Importer) resolve(ctx context.Context, p *plan, pr pendingRel) (*schema.Relationship, error) {
	source, err := im.endpoint(ctx, p, pr.rt.Source, pr.source)
	if err != nil {
		return nil, err
	}
	target, err := im.endpoint(ctx, p, pr.rt.Target, pr.target)
	if err != nil {
		return nil, err
	}
	rel, err := pr.rt.New(source, target, pr.props)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMapping, err)
	}
	return rel, nil
}

func (im *Importer) endpoint(ctx context.Context, p *plan, t *schema.NodeType, pp string) (*schema.Node, error) {
	if n, ok := p.index[t.Label+"#"+pp]; ok {
		return n, nil
	}
	n, err := im.store.Match(ctx, t, pp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", ErrSchemaMapping, t.Label, pp, err)
	}
	return n, nil
}

// add records n, replacing an earlier record with the same identity.
func (p *plan) add(n *schema.Node) {
	key := n.Label() + "#" + n.PP()
	if prev, ok := p.index[key]; ok {
		i := slices.Index(p.nodes, prev)
		p.nodes[i] = n
	} else {
		p.nodes = append(p.nodes, n)
	}
	p.index[key] = n
}

// listFiles walks dir and returns the files with one of exts, sorted.
func listFiles(fsys hackpadfs.FS, dir string, exts []string) ([]string, error) {
	var out []string
	var walk func(string) error
	walk = func(name string) error {
		entries, err := hackpadfs.ReadDir(fsys, name)
		if err != nil {
			return fmt.Errorf("transfer: read dir %s: %w", name, err)
		}
		for _, entry := range entries {
			child := path.Join(name, entry.Name())
			if entry.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
				continue
			}
			ext := strings.ToLower(path.Ext(child))
			if slices.Contains(exts, ext) {
				out = append(out, child)
			}
		}
		return nil
	}
	if err := walk(cleanDir(dir)); err != nil {
		return nil, err
	}
	slices.Sort(out)
	return out, nil
}

func cleanDir(dir string) string {
	dir = path.Clean(strings.TrimPrefix(dir, "/"))
	if dir == "" {
		return "."
	}
	return dir
}
