// Package cdt builds per-tile clipped cumulative distribution tables for
// adaptive histogram equalization.
//
// An image is cut into a square grid of tiles. Each tile gets a brightness
// histogram whose tall bins are clipped and spread back over the whole range,
// and the running sum of that histogram is scaled into a 0..255 lookup table.
// The packed result is sampled by an interpolation pass that blends the four
// nearest tiles per pixel.
package cdt

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Image is a borrowed buffer of 4-byte pixels in row-major order with no
// padding between rows.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// NewImage allocates a zeroed width x height image.
func NewImage(width, height int) Image {
	return Image{
		Pix:    make([]byte, width*height*bytesPerPixel),
		Width:  width,
		Height: height,
	}
}

// Build computes the table for img and packs it into dst, which must hold at
// least cfg.TableSize() bytes. Nothing is written to dst on error.
func Build(ctx context.Context, img Image, dst []byte, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(dst) < cfg.TableSize() {
		return fmt.Errorf("output buffer %d bytes, need %d: %w", len(dst), cfg.TableSize(), ErrInvalidBuffer)
	}
	table, err := Compute(ctx, img, cfg)
	if err != nil {
		return err
	}
	return table.Pack(dst)
}

// Compute builds the table for img.
func Compute(ctx context.Context, img Image, cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(img.Width, img.Height, cfg.GridSize)
	if err != nil {
		return nil, err
	}
	if need := img.Width * img.Height * bytesPerPixel; len(img.Pix) < need {
		return nil, fmt.Errorf("pixel buffer %d bytes, need %d: %w", len(img.Pix), need, ErrInvalidBuffer)
	}

	hists, err := binPixels(ctx, img, grid, cfg)
	if err != nil {
		return nil, fmt.Errorf("bin pixels: %w", err)
	}

	area := grid.TileArea()
	table := &Table{
		GridSize:  cfg.GridSize,
		Bins:      cfg.Bins,
		ClipLimit: clipLimit(cfg.ClipStrength, area, cfg.Bins),
		TileArea:  area,
		Tiles:     make([]Tile, len(hists)),
	}
	scale := math.MaxUint8 / float64(area)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i, h := range hists {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table.Tiles[i] = equalize(h, table.ClipLimit, scale)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("equalize tiles: %w", err)
	}
	return table, nil
}

func equalize(h Histogram, limit uint32, scale float64) Tile {
	clipped := h.Clip(limit)
	h.Redistribute(clipped)
	start := h.FirstPopulated()
	out := make([]uint8, len(h))
	h.Cumulative(start, scale, out)
	return Tile{
		Counts:   h,
		CDT:      out,
		StartBin: start,
		Min:      out[start],
		Max:      out[len(out)-1],
		Clipped:  clipped,
	}
}

func newHistograms(tiles, bins int) []Histogram {
	backing := make([]uint32, tiles*bins)
	out := make([]Histogram, tiles)
	for t := range out {
		out[t] = backing[t*bins : (t+1)*bins : (t+1)*bins]
	}
	return out
}

// binPixels splits the rows into one band per worker. Each band fills its
// own histograms, which are summed once every band is done.
func binPixels(ctx context.Context, img Image, grid Grid, cfg Config) ([]Histogram, error) {
	bands := min(cfg.workers(), img.Height)
	rowsPerBand := ceilDiv(img.Height, bands)
	partial := make([][]Histogram, bands)

	g, gctx := errgroup.WithContext(ctx)
	for b := range bands {
		y0 := b * rowsPerBand
		y1 := min(img.Height, y0+rowsPerBand)
		if y0 >= y1 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial[b] = binRows(img, grid, cfg, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := partial[0]
	for _, p := range partial[1:] {
		for t := range p {
			for i, c := range p[t] {
				merged[t][i] += c
			}
		}
	}
	return merged, nil
}

func binRows(img Image, grid Grid, cfg Config, y0, y1 int) []Histogram {
	hists := newHistograms(grid.Tiles(), cfg.Bins)
	last := cfg.Bins - 1
	stride := img.Width * bytesPerPixel
	for y := y0; y < y1; y++ {
		rowTile := grid.row(y) * grid.Size
		row := img.Pix[y*stride : (y+1)*stride]
		for x := 0; x < img.Width; x++ {
			v := int(row[x*bytesPerPixel+cfg.ValueChannel])
			hists[rowTile+grid.column(x)][min(v, last)]++
		}
	}
	return hists
}
