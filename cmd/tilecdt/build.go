package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/erinpentecost/tilecdt/internal/cdt"
	"github.com/erinpentecost/tilecdt/internal/config"
	"github.com/erinpentecost/tilecdt/internal/hsv"
	"github.com/erinpentecost/tilecdt/internal/imageio"
	"github.com/erinpentecost/tilecdt/internal/tablefile"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/term"
)

const stdoutPath = "-"

type buildCmd struct {
	params  paramFlags
	out     string
	summary string
}

func (c *buildCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "build",
		Usage: "[flags] <image>",
		Desc: `Build the tile table for one image.

The output format follows the --out extension: .tcdt (or .tcdt.zst) for the
table container, .png/.bmp/.tiff/.dds for a bins x tiles RGBA texture, or "-"
for the raw packed records on stdout.`,
	}
}

func (c *buildCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.params.register(fl)
	fl.StringVarP(&c.out, "out", "o", "", "output path (default: input name with .tcdt)")
	fl.StringVar(&c.summary, "summary", "", "also write a JSON summary to this path")
}

func (c *buildCmd) Run(fl *pflag.FlagSet) {
	if fl.NArg() != 1 {
		fl.Usage()
		os.Exit(2)
	}
	params, err := c.params.resolve(fl)
	fail(err)

	in := fl.Arg(0)
	out := c.out
	if out == "" {
		out = replaceExt(in, ".tcdt")
	}
	if out == stdoutPath {
		progress = os.Stderr
	}
	fail(buildOne(context.Background(), in, out, c.summary, params, os.Stdout))
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// buildOne reads in, builds its table and writes it to out. stdout receives
// the raw table when out is "-".
func buildOne(ctx context.Context, in, out, summaryPath string, params config.Params, stdout io.Writer) error {
	logf("Building table for %q...\n", in)
	img, err := imageio.Decode(in)
	if err != nil {
		return err
	}
	img = hsv.Downscale(img, params.AnalysisSize)
	packed := hsv.Pack(img)

	cfg := params.CDT()
	table, err := cdt.Compute(ctx, packed, cfg)
	if err != nil {
		return fmt.Errorf("build table for %q: %w", in, err)
	}
	if err := writeTable(out, tablefile.FromTable(table), stdout); err != nil {
		return err
	}
	logf("Wrote %q.\n", out)

	if summaryPath != "" {
		summary := tablefile.NewSummary(in, packed, cfg, table)
		if err := tablefile.WriteSummary(summaryPath, summary); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeTable(out string, f *tablefile.File, stdout io.Writer) error {
	switch {
	case out == stdoutPath:
		if isTerminal(stdout) {
			return errors.New("refusing to write a binary table to a terminal")
		}
		if _, err := stdout.Write(f.Data); err != nil {
			return fmt.Errorf("write table to stdout: %w", err)
		}
		return nil
	case imageio.CanEncode(out):
		return imageio.Encode(out, f.Texture())
	default:
		return tablefile.Save(out, f)
	}
}
