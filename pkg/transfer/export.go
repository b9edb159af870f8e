package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/hack-pad/hackpadfs"

	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
)

// File suffixes written by Export.
const (
	NodesSuffix         = ".nodes.json"
	RelationshipsSuffix = ".relationships.json"
)

// Export writes one <label>.nodes.json per node type and one
// <TYPE>.relationships.json per relationship type under dir. Types without
// data produce no file. The files import back with FormatJSON.
func Export(ctx context.Context, fsys hackpadfs.FS, dir string, reg *schema.Registry, st store.Reader, opts ...Option) ([]string, error) {
	o := newOptions(opts)
	dir = cleanDir(dir)
	if err := mkdirAll(fsys, dir); err != nil {
		return nil, err
	}

	var written []string
	for _, t := range reg.NodeTypes() {
		nodes, err := st.MatchAll(ctx, t, 0, 0)
		if err != nil {
			return written, fmt.Errorf("transfer: match %s: %w", t.Label, err)
		}
		o.logger.Infow("matching nodes", "label", t.Label, "count", len(nodes))
		if len(nodes) == 0 {
			continue
		}
		records := make([]Record, 0, len(nodes))
		for _, n := range nodes {
			records = append(records, nodeRecord(n))
		}
		name := path.Join(dir, t.Label+NodesSuffix)
		if err := writeRecords(fsys, name, records); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	for _, rt := range reg.RelationshipTypes() {
		rels, err := st.MatchRelationships(ctx, rt, 0, 0)
		if err != nil {
			return written, fmt.Errorf("transfer: match %s: %w", rt.Type, err)
		}
		o.logger.Infow("matching relationships", "type", rt.Type, "count", len(rels))
		if len(rels) == 0 {
			continue
		}
		records := make([]Record, 0, len(rels))
		for _, rel := range rels {
			records = append(records, relationshipRecord(rel))
		}
		name := path.Join(dir, rt.Type+RelationshipsSuffix)
		if err := writeRecords(fsys, name, records); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

// nodeRecord keeps stored secret hashes so exports round-trip.
func nodeRecord(n *schema.Node) Record {
	rec := Record(n.Clone().Properties)
	rec[LabelKey] = n.Label()
	return rec
}

func relationshipRecord(rel *schema.Relationship) Record {
	rec := Record{}
	for k, v := range rel.Properties {
		rec[k] = v
	}
	rec[RelationshipTypeKey] = rel.Tag()
	rec[SourceKey] = rel.Source.PP()
	rec[TargetKey] = rel.Target.PP()
	return rec
}

func writeRecords(fsys hackpadfs.FS, name string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("transfer: encode %s: %w", name, err)
	}
	if err := hackpadfs.WriteFullFile(fsys, name, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("transfer: write %s: %w", name, err)
	}
	return nil
}

func mkdirAll(fsys hackpadfs.FS, dir string) error {
	if dir == "." {
		return nil
	}
	if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
		return fmt.Errorf("transfer: create %s: %w", dir, err)
	}
	return nil
}
