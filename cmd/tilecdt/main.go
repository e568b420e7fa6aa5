package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

// progress receives human-readable status lines. build redirects it to stderr
// when the table itself goes to stdout.
var progress io.Writer = os.Stdout

func logf(format string, args ...any) {
	fmt.Fprintf(progress, format, args...)
}

func fail(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(33)
	}
}

type rootCmd struct{}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "tilecdt",
		Usage: "[subcommand] [flags]",
		Desc:  "Build per-tile clipped CDT tables for adaptive histogram equalization.",
	}
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(1)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&buildCmd{},
		&batchCmd{},
		&inspectCmd{},
	}
}

func main() {
	cli.RunRoot(&rootCmd{})
}
