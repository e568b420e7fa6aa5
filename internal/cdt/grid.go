package cdt

import (
	"fmt"
	"image"
)

// Grid maps pixels of a Width x Height image onto Size x Size tiles.
// Pixel (x, y) belongs to tile column x*Size/Width and row y*Size/Height, so
// tiles differ by at most one pixel along an axis when the size does not
// divide evenly.
type Grid struct {
	Width  int
	Height int
	Size   int
}

func NewGrid(width, height, size int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("image %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	g := Grid{Width: width, Height: height, Size: size}
	if g.TileArea() == 0 {
		return Grid{}, fmt.Errorf("image %dx%d has empty %dx%d tiles: %w",
			width, height, size, size, ErrInvalidDimensions)
	}
	return g, nil
}

// TileArea is the nominal pixel count of one tile. Edge tiles may hold a few
// more pixels than this.
func (g Grid) TileArea() int {
	if g.Size <= 0 {
		return 0
	}
	return (g.Width / g.Size) * (g.Height / g.Size)
}

func (g Grid) Tiles() int {
	return g.Size * g.Size
}

func (g Grid) column(x int) int {
	return x * g.Size / g.Width
}

func (g Grid) row(y int) int {
	return y * g.Size / g.Height
}

// TileOf returns the tile index of pixel (x, y).
func (g Grid) TileOf(x, y int) int {
	return g.row(y)*g.Size + g.column(x)
}

// TileRect returns the pixels covered by tile t. Tiles are numbered row-major
// starting at the top-left corner.
func (g Grid) TileRect(t int) image.Rectangle {
	tx := t % g.Size
	ty := t / g.Size
	return image.Rect(
		ceilDiv(tx*g.Width, g.Size),
		ceilDiv(ty*g.Height, g.Size),
		ceilDiv((tx+1)*g.Width, g.Size),
		ceilDiv((ty+1)*g.Height, g.Size),
	)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
