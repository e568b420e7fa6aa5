package tablefile

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/erinpentecost/tilecdt/internal/cdt"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T) (cdt.Image, cdt.Config, *cdt.Table) {
	t.Helper()
	img := cdt.NewImage(32, 24)
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	cfg := cdt.DefaultConfig()
	cfg.Bins = 64
	table, err := cdt.Compute(context.Background(), img, cfg)
	require.NoError(t, err)
	return img, cfg, table
}

func TestWriteRead(t *testing.T) {
	_, _, table := buildTable(t)
	f := FromTable(table)

	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, compress))
		if compress {
			require.Equal(t, zstdMagic, buf.Bytes()[:4])
		} else {
			require.Equal(t, magic, buf.String()[:4])
			require.Len(t, buf.Bytes(), 16+len(f.Data))
		}

		got, err := Read(&buf)
		require.NoError(t, err)
		require.Equal(t, f, got)
	}
}

func TestRecordMatchesTable(t *testing.T) {
	_, _, table := buildTable(t)
	f := FromTable(table)
	for tile := range f.Tiles() {
		for _, bin := range []int{0, 31, 63} {
			require.Equal(t, table.Record(tile, bin), f.Record(tile, bin))
		}
	}
}

func TestTexture(t *testing.T) {
	_, _, table := buildTable(t)
	f := FromTable(table)
	tex := f.Texture()
	require.Equal(t, 64, tex.Bounds().Dx())
	require.Equal(t, 16, tex.Bounds().Dy())

	rec := f.Record(5, 10)
	c := tex.RGBAAt(10, 5)
	require.Equal(t, []uint8{rec.Value, rec.Min, rec.Max, rec.Alpha}, []uint8{c.R, c.G, c.B, c.A})
}

func TestReadRejectsBadInput(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("TC")))
	require.Error(t, err)

	_, err = Read(bytes.NewReader([]byte("NOPE0000000000000000")))
	require.True(t, errors.Is(err, ErrBadFile))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &File{GridSize: 1, Bins: 1, Data: []byte{1, 2, 3, 4}}, false))
	truncated := buf.Bytes()[:buf.Len()-1]
	_, err = Read(bytes.NewReader(truncated))
	require.Error(t, err)

	require.Error(t, Write(&buf, &File{GridSize: 2, Bins: 1, Data: []byte{1, 2, 3, 4}}, false))
}

func TestReadHeaderOnlyDoesNotAllocateTable(t *testing.T) {
	hdr := []byte(magic)
	hdr = binary.LittleEndian.AppendUint32(hdr, version)
	hdr = binary.LittleEndian.AppendUint32(hdr, maxGridSize)
	hdr = binary.LittleEndian.AppendUint32(hdr, maxBins)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(bytes.NewReader(hdr))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestSaveLoad(t *testing.T) {
	_, _, table := buildTable(t)
	f := FromTable(table)
	dir := t.TempDir()

	for _, name := range []string{"table.tcdt", "table.tcdt.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, f))
		got, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "table.tcdt.zst"))
	require.NoError(t, err)
	require.Equal(t, zstdMagic, raw[:4])
}

func TestSummary(t *testing.T) {
	img, cfg, table := buildTable(t)
	s := NewSummary("in.png", img, cfg, table)
	require.Len(t, s.Tiles, 16)
	require.Equal(t, 32, s.Width)
	require.Equal(t, table.Tiles[3].Max, s.Tiles[3].Max)

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummary(path, s))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"start_bin"`)

	got, err := UnmarshalSummary(raw)
	require.NoError(t, err)
	require.Equal(t, s, *got)
}
