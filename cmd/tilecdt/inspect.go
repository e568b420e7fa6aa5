package main

import (
	"fmt"
	"io"
	"os"

	"github.com/erinpentecost/tilecdt/internal/tablefile"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

type inspectCmd struct{}

func (c *inspectCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "inspect",
		Usage: "<table.tcdt>",
		Desc:  "Print the grid and per-tile range of a table file.",
	}
}

func (c *inspectCmd) Run(fl *pflag.FlagSet) {
	if fl.NArg() != 1 {
		fl.Usage()
		os.Exit(2)
	}
	f, err := tablefile.Load(fl.Arg(0))
	fail(err)
	fail(inspect(os.Stdout, f))
}

func inspect(w io.Writer, f *tablefile.File) error {
	if _, err := fmt.Fprintf(w, "grid %dx%d, %d bins\n", f.GridSize, f.GridSize, f.Bins); err != nil {
		return err
	}
	for tile := range f.Tiles() {
		rec := f.Record(tile, 0)
		tx, ty := tile%f.GridSize, tile/f.GridSize
		if _, err := fmt.Fprintf(w, "tile %3d (%d,%d): min %3d max %3d\n", tile, tx, ty, rec.Min, rec.Max); err != nil {
			return err
		}
	}
	return nil
}
