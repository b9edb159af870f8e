package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-autograph/internal/demo"
	"github.com/goliatone/go-autograph/pkg/component"
	"github.com/goliatone/go-autograph/pkg/config"
	"github.com/goliatone/go-autograph/pkg/manager"
	"github.com/goliatone/go-autograph/pkg/metrics"
	"github.com/goliatone/go-autograph/pkg/prompt"
	"github.com/goliatone/go-autograph/pkg/transfer"
)

func serveCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("serve", stderr)
	listen := fs.String("listen", "", "listen address")
	if _, err := parseArgs(fs, args); err != nil {
		return fail(stderr, err)
	}
	a, err := newApp(ctx, *c, config.WithListen(*listen))
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	m, err := a.manager(false)
	if err != nil {
		return fail(stderr, err)
	}
	if err := m.Serve(ctx, a.cfg.Listen); err != nil {
		return fail(stderr, err)
	}
	return 0
}

// manager wires the demo site over the app store.
func (a *app) manager(freeze bool) (*manager.Manager, error) {
	renderer, err := component.NewRenderer(
		component.WithThemeSelector(component.DefaultThemes(), a.cfg.Theme.Name, a.cfg.Theme.Variant),
	)
	if err != nil {
		return nil, err
	}
	options := append(demo.Options(a.registry, a.cfg.API.Version, freeze),
		manager.WithStore(a.store),
		manager.WithRenderer(renderer),
		manager.WithLogger(a.log),
	)
	if a.cfg.Metrics.Enabled && !freeze {
		options = append(options, manager.WithMetrics(metrics.New(), a.cfg.Metrics.Path))
	}
	return manager.New(options...)
}

func importCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("import", stderr)
	validateOnly := fs.Bool("validate-only", false, "check the records without writing them")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return fail(stderr, err)
	}
	if len(positional) < 1 || len(positional) > 2 {
		return fail(stderr, usageError("import <dir> [md|yml|json] [-validate-only]"))
	}
	format := transfer.FormatMarkdown
	if len(positional) == 2 {
		if format, err = transfer.ParseFormat(positional[1]); err != nil {
			return fail(stderr, usageError(err.Error()))
		}
	}

	a, err := newApp(ctx, *c)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	fsys, dir, err := hostDir(positional[0])
	if err != nil {
		return fail(stderr, err)
	}
	im := transfer.NewImporter(a.registry, a.store,
		transfer.WithValidateOnly(*validateOnly),
		transfer.WithLogger(a.log),
	)
	report, err := im.Import(ctx, fsys, dir, format)
	if report != nil {
		for _, recErr := range report.Errors {
			fmt.Fprintf(stderr, "%v\n", recErr)
		}
	}
	if err != nil {
		if errors.Is(err, transfer.ErrSchemaMapping) {
			fmt.Fprintf(stderr, "autograph: %d records rejected, nothing written\n", len(report.Errors))
			return 1
		}
		return fail(stderr, err)
	}

	verb := "imported"
	if !report.Written {
		verb = "validated"
	}
	fmt.Fprintf(stdout, "%s %d nodes and %d relationships from %d files\n", verb, report.Nodes, report.Relationships, report.Files)
	return 0
}

func exportCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("export", stderr)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return fail(stderr, err)
	}
	if len(positional) != 1 {
		return fail(stderr, usageError("export <dir>"))
	}
	a, err := newApp(ctx, *c)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	fsys, dir, err := hostDir(positional[0])
	if err != nil {
		return fail(stderr, err)
	}
	files, err := transfer.Export(ctx, fsys, dir, a.registry, a.store, transfer.WithLogger(a.log))
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "exported %d files\n", len(files))
	return 0
}

func freezeCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("freeze", stderr)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return fail(stderr, err)
	}
	if len(positional) != 1 {
		return fail(stderr, usageError("freeze <dir>"))
	}
	a, err := newApp(ctx, *c)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	m, err := a.manager(true)
	if err != nil {
		return fail(stderr, err)
	}
	fsys, dir, err := hostDir(positional[0])
	if err != nil {
		return fail(stderr, err)
	}
	files, err := transfer.Freeze(ctx, fsys, dir, m.Handler(), m.Routes(), a.store, transfer.WithLogger(a.log))
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "froze %d pages\n", len(files))
	return 0
}

func createCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return create(ctx, args, prompt.NewSurveyDriver(), stdout, stderr)
}

// create prompts for a node of the named label through d and stores it.
func create(ctx context.Context, args []string, d prompt.Driver, stdout, stderr io.Writer) int {
	fs, c := newFlagSet("create", stderr)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return fail(stderr, err)
	}
	if len(positional) != 1 {
		return fail(stderr, usageError("create <label>"))
	}
	a, err := newApp(ctx, *c)
	if err != nil {
		return fail(stderr, err)
	}
	defer a.Close()

	t, ok := a.registry.NodeType(positional[0])
	if !ok {
		return fail(stderr, usageError(fmt.Sprintf("unknown label %q", positional[0])))
	}
	n, err := prompt.Node(ctx, d, t)
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return 130
		}
		return fail(stderr, err)
	}
	if err := a.store.Create(ctx, n); err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "created %s %q\n", n.Label(), n.PP())
	return 0
}
