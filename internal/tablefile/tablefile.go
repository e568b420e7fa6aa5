// Package tablefile stores packed tile tables on disk.
//
// A file is the 4-byte magic "TCDT" followed by little-endian uint32 version,
// grid size and bin count, then grid*grid*bins 4-byte records. The whole
// file may be wrapped in a zstd frame.
package tablefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/erinpentecost/tilecdt/internal/cdt"
	"github.com/klauspost/compress/zstd"
)

const (
	magic   = "TCDT"
	version = 1

	recordSize  = 4
	maxGridSize = 1 << 10
	maxBins     = 256
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// CompressedExt marks paths that Save compresses.
const CompressedExt = ".zst"

var ErrBadFile = errors.New("not a table file")

// File is a packed table with the grid it was built on.
type File struct {
	GridSize int
	Bins     int
	Data     []byte
}

func FromTable(t *cdt.Table) *File {
	return &File{GridSize: t.GridSize, Bins: t.Bins, Data: t.Bytes()}
}

func (f *File) Tiles() int {
	return f.GridSize * f.GridSize
}

func (f *File) Record(tile, bin int) cdt.Record {
	off := (tile*f.Bins + bin) * recordSize
	r := f.Data[off : off+recordSize]
	return cdt.Record{Value: r[0], Min: r[1], Max: r[2], Alpha: r[3]}
}

func (f *File) validate() error {
	if f.GridSize < 1 || f.GridSize > maxGridSize {
		return fmt.Errorf("grid size %d: %w", f.GridSize, ErrBadFile)
	}
	if f.Bins < 1 || f.Bins > maxBins {
		return fmt.Errorf("bins %d: %w", f.Bins, ErrBadFile)
	}
	if want := f.Tiles() * f.Bins * recordSize; len(f.Data) != want {
		return fmt.Errorf("table is %d bytes, want %d: %w", len(f.Data), want, ErrBadFile)
	}
	return nil
}

// Texture views the table as an image one bin wide per pixel and one tile
// tall per row. The image shares f.Data.
func (f *File) Texture() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Data,
		Stride: f.Bins * recordSize,
		Rect:   image.Rect(0, 0, f.Bins, f.Tiles()),
	}
}

// Write encodes f to w, wrapping it in zstd if compress is set.
func Write(w io.Writer, f *File, compress bool) error {
	if err := f.validate(); err != nil {
		return err
	}
	if compress {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if err := writeRaw(enc, f); err != nil {
			enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush zstd writer: %w", err)
		}
		return nil
	}
	return writeRaw(w, f)
}

func writeRaw(w io.Writer, f *File) error {
	var hdr [len(magic) + 12]byte
	copy(hdr[:], magic)
	binary.LittleEndian.PutUint32(hdr[4:], version)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(f.GridSize))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(f.Bins))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(f.Data); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// Read decodes a table written by Write, compressed or not.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		return readRaw(dec)
	}
	return readRaw(br)
}

func readRaw(r io.Reader) (*File, error) {
	readUint32 := func() (uint32, error) {
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return v, nil
	}

	var m [len(magic)]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(m[:]) != magic {
		return nil, fmt.Errorf("magic %q: %w", m[:], ErrBadFile)
	}
	v, err := readUint32()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if v != version {
		return nil, fmt.Errorf("version %d: %w", v, ErrBadFile)
	}
	grid, err := readUint32()
	if err != nil {
		return nil, fmt.Errorf("read grid size: %w", err)
	}
	bins, err := readUint32()
	if err != nil {
		return nil, fmt.Errorf("read bins: %w", err)
	}

	f := &File{GridSize: int(grid), Bins: int(bins)}
	if f.GridSize < 1 || f.GridSize > maxGridSize || f.Bins < 1 || f.Bins > maxBins {
		return nil, fmt.Errorf("grid %d, bins %d: %w", grid, bins, ErrBadFile)
	}
	// Grow with the data actually present instead of trusting the header.
	want := f.Tiles() * f.Bins * recordSize
	f.Data, err = io.ReadAll(io.LimitReader(r, int64(want)))
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(f.Data) != want {
		return nil, fmt.Errorf("read records: got %d bytes, want %d: %w", len(f.Data), want, io.ErrUnexpectedEOF)
	}
	return f, nil
}

// Save writes f to path, compressed when path ends in CompressedExt.
func Save(path string, f *File) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()
	w := bufio.NewWriter(out)
	if err := Write(w, f, strings.HasSuffix(strings.ToLower(path), CompressedExt)); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return w.Flush()
}

// Load reads the table at path.
func Load(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer in.Close()
	f, err := Read(in)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return f, nil
}
