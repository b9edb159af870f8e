// Command autograph serves the demo graph site and runs the bulk data
// commands against its store.
//
//	autograph serve [-config file] [-listen addr] [-seed]
//	autograph import <dir> [md|yml|json] [-validate-only]
//	autograph export <dir>
//	autograph freeze <dir>
//	autograph create <label>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: autograph <command> [flags] [args]

commands:
  serve                    serve the site
  import <dir> [format]    import md, yml or json files below dir
  export <dir>             write every node and relationship as JSON
  freeze <dir>             write the site as static files
  create <label>           create a node interactively
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	commands := map[string]func(context.Context, []string, io.Writer, io.Writer) int{
		"serve":  serveCmd,
		"import": importCmd,
		"export": exportCmd,
		"freeze": freezeCmd,
		"create": createCmd,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "autograph: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	return cmd(ctx, args[1:], stdout, stderr)
}
