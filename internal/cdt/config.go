package cdt

import (
	"fmt"
	"math"
	"runtime"
)

const (
	DefaultGridSize     = 4
	DefaultBins         = 256
	DefaultClipStrength = 1.25
	// DefaultValueChannel is the byte offset of V in an H,S,V,A pixel.
	DefaultValueChannel = 2

	bytesPerPixel  = 4
	bytesPerRecord = 4
	maxBins        = 256
)

// Config holds the parameters for one table build. They are fixed for the
// duration of a call.
type Config struct {
	// GridSize is the number of tiles along each axis.
	GridSize int
	// Bins is the number of histogram bins per tile.
	Bins int
	// ClipStrength scales the per-bin clip limit. Zero clips every bin to 1.
	ClipStrength float32
	// ValueChannel is the byte offset of the brightness channel within a pixel.
	ValueChannel int
	// Workers bounds the goroutines used for binning and per-tile work.
	// Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig is a 4x4 grid of 256-bin tiles reading the V channel.
func DefaultConfig() Config {
	return Config{
		GridSize:     DefaultGridSize,
		Bins:         DefaultBins,
		ClipStrength: DefaultClipStrength,
		ValueChannel: DefaultValueChannel,
	}
}

// Tiles is the number of tiles in the grid.
func (c Config) Tiles() int {
	return c.GridSize * c.GridSize
}

// TableSize is the number of bytes a packed table occupies.
func (c Config) TableSize() int {
	return c.Tiles() * c.Bins * bytesPerRecord
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Validate reports out-of-range fields as ErrInvalidConfig.
func (c Config) Validate() error {
	if c.GridSize < 1 {
		return fmt.Errorf("grid size %d: %w", c.GridSize, ErrInvalidConfig)
	}
	if c.Bins < 1 || c.Bins > maxBins {
		return fmt.Errorf("bins %d not in 1..%d: %w", c.Bins, maxBins, ErrInvalidConfig)
	}
	s := float64(c.ClipStrength)
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return fmt.Errorf("clip strength %v: %w", c.ClipStrength, ErrInvalidConfig)
	}
	if c.ValueChannel < 0 || c.ValueChannel >= bytesPerPixel {
		return fmt.Errorf("value channel %d: %w", c.ValueChannel, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalidConfig)
	}
	return nil
}
