package cdt

import "fmt"

// Record is one packed table entry.
type Record struct {
	Value uint8
	Min   uint8
	Max   uint8
	Alpha uint8
}

// Tile is the finished state of one grid tile.
type Tile struct {
	// Counts is the histogram after clipping and redistribution.
	Counts Histogram
	// CDT maps each bin to its equalized brightness.
	CDT []uint8
	// StartBin is the first populated bin; the running sum begins there.
	StartBin int
	Min      uint8
	Max      uint8
	// Clipped is the number of units moved by redistribution.
	Clipped uint32
}

// Table holds every tile's CDT for one image.
type Table struct {
	GridSize  int
	Bins      int
	ClipLimit uint32
	TileArea  int
	Tiles     []Tile
}

// Size is the number of bytes Pack writes.
func (t *Table) Size() int {
	return len(t.Tiles) * t.Bins * bytesPerRecord
}

func (t *Table) Record(tile, bin int) Record {
	tl := &t.Tiles[tile]
	return Record{Value: tl.CDT[bin], Min: tl.Min, Max: tl.Max, Alpha: 255}
}

// Pack writes the table tile-major, bin-minor as {cdt, min, max, 255}
// records. dst is left untouched if it is too short.
func (t *Table) Pack(dst []byte) error {
	if len(dst) < t.Size() {
		return fmt.Errorf("output buffer %d bytes, need %d: %w", len(dst), t.Size(), ErrInvalidBuffer)
	}
	t.pack(dst)
	return nil
}

func (t *Table) pack(dst []byte) {
	rowBytes := t.Bins * bytesPerRecord
	for i := range t.Tiles {
		tl := &t.Tiles[i]
		row := dst[i*rowBytes : (i+1)*rowBytes]
		for bin, v := range tl.CDT {
			rec := row[bin*bytesPerRecord : (bin+1)*bytesPerRecord]
			rec[0] = v
			rec[1] = tl.Min
			rec[2] = tl.Max
			rec[3] = 255
		}
	}
}

// Bytes returns a newly allocated packed copy of the table.
func (t *Table) Bytes() []byte {
	out := make([]byte, t.Size())
	t.pack(out)
	return out
}
