package cdt

import "math"

// Histogram counts pixels per brightness bin within one tile.
type Histogram []uint32

// Total is the pixel mass held by h.
func (h Histogram) Total() uint64 {
	var sum uint64
	for _, c := range h {
		sum += uint64(c)
	}
	return sum
}

// Clip cuts every bin down to limit and returns the number of units removed.
func (h Histogram) Clip(limit uint32) uint32 {
	var clipped uint32
	for i, c := range h {
		if c > limit {
			clipped += c - limit
			h[i] = limit
		}
	}
	return clipped
}

// Redistribute spreads clipped units evenly across all bins. The remainder
// goes one unit each to the lowest bins.
func (h Histogram) Redistribute(clipped uint32) {
	if len(h) == 0 {
		return
	}
	bins := uint32(len(h))
	batch := clipped / bins
	residual := clipped % bins
	for i := range h {
		h[i] += batch
		if uint32(i) < residual {
			h[i]++
		}
	}
}

// FirstPopulated is the lowest bin with a nonzero count, or the last bin if h
// is empty.
func (h Histogram) FirstPopulated() int {
	for i, c := range h {
		if c != 0 {
			return i
		}
	}
	return len(h) - 1
}

// Cumulative writes the scaled running sum of h into out, starting at start.
// Bins before start are zeroed. Each value is round(sum*scale) capped at 255.
func (h Histogram) Cumulative(start int, scale float64, out []uint8) {
	for i := 0; i < start; i++ {
		out[i] = 0
	}
	var sum uint64
	for i := start; i < len(h); i++ {
		sum += uint64(h[i])
		out[i] = uint8(min(math.MaxUint8, math.Round(float64(sum)*scale)))
	}
}

// clipLimit is the per-bin cap shared by every tile, kept within 1..MaxUint32.
func clipLimit(strength float32, tileArea, bins int) uint32 {
	limit := float64(strength) * float64(tileArea) / float64(bins)
	return uint32(min(math.MaxUint32, max(1, limit)))
}
