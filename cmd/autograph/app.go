package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"go.uber.org/zap"

	"github.com/goliatone/go-autograph/internal/demo"
	"github.com/goliatone/go-autograph/pkg/config"
	"github.com/goliatone/go-autograph/pkg/events"
	"github.com/goliatone/go-autograph/pkg/logging"
	"github.com/goliatone/go-autograph/pkg/schema"
	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/store/memory"
	"github.com/goliatone/go-autograph/pkg/store/sqlite"
)

// common are the flags every command accepts.
type common struct {
	config string
	driver string
	dsn    string
	debug  bool
	seed   bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML configuration file")
	fs.StringVar(&c.driver, "store", "", "store driver (memory or sqlite)")
	fs.StringVar(&c.dsn, "dsn", "", "sqlite database file")
	fs.BoolVar(&c.debug, "debug", false, "development logging")
	fs.BoolVar(&c.seed, "seed", false, "merge the demo pages into the store first")
}

func (c *common) options() []config.Option {
	return []config.Option{config.WithStore(c.driver, c.dsn), config.WithDebug(c.debug)}
}

// app holds the collaborators shared by the commands.
type app struct {
	cfg      config.Config
	log      *zap.SugaredLogger
	registry *schema.Registry
	store    store.Store
	closers  []func() error
}

func newApp(ctx context.Context, c common, extra ...config.Option) (*app, error) {
	cfg, err := config.Load(c.config, append(c.options(), extra...)...)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, registry: demo.Registry()}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlite.Open(a.registry, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		a.store = st
	default:
		a.store = memory.New(a.registry)
	}
	a.closers = append(a.closers, a.store.Close)

	if cfg.Events.Enabled() {
		nc, err := events.Connect(cfg.Events.URL, "autograph")
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, nc.Close)
		a.store = events.New(a.store, nc,
			events.WithSubjectRoot(cfg.Events.SubjectPrefix),
			events.WithLogger(log),
		)
	}
	log.Debugw("store opened", "driver", cfg.Store.Driver)

	if c.seed {
		if err := demo.Seed(ctx, a.store); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close releases the collaborators in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("close failed", "error", err)
		}
	}
	_ = a.log.Sync()
}

// parseArgs parses fs allowing flags after positional arguments, which flag
// alone stops at.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// hostDir maps an OS directory onto the host filesystem.
func hostDir(dir string) (hackpadfs.FS, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", err
	}
	fsys := osfs.NewFS()
	p, err := fsys.FromOSPath(abs)
	if err != nil {
		return nil, "", fmt.Errorf("autograph: %s: %w", dir, err)
	}
	return fsys, p, nil
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *common) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := &common{}
	c.register(fs)
	return fs, c
}

// fail reports err and returns the exit code for it. Usage errors are 2.
func fail(stderr io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	var usageErr usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "autograph: %s\n", strings.TrimSpace(string(usageErr)))
		return 2
	}
	fmt.Fprintf(stderr, "autograph: %v\n", err)
	return 1
}

type usageError string

func (e usageError) Error() string { return string(e) }
