package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erinpentecost/tilecdt/internal/config"
	"github.com/erinpentecost/tilecdt/internal/imageio"
	"github.com/erinpentecost/tilecdt/internal/tablefile"
	"github.com/stretchr/testify/require"
)

func init() {
	progress = io.Discard
}

func writeGradient(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := uint8((x + y) * 255 / (w + h))
			img.SetRGBA(x, y, color.RGBA{v, v / 2, v / 3, 255})
		}
	}
	require.NoError(t, imageio.Encode(path, img))
}

func TestBuildOne(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeGradient(t, in, 64, 48)

	params := config.Default()
	params.Bins = 64
	out := filepath.Join(dir, "in.tcdt.zst")
	summary := filepath.Join(dir, "in.json")
	require.NoError(t, buildOne(context.Background(), in, out, summary, params, nil))

	f, err := tablefile.Load(out)
	require.NoError(t, err)
	require.Equal(t, 4, f.GridSize)
	require.Equal(t, 64, f.Bins)

	raw, err := os.ReadFile(summary)
	require.NoError(t, err)
	s, err := tablefile.UnmarshalSummary(raw)
	require.NoError(t, err)
	require.Equal(t, in, s.Source)
	require.Len(t, s.Tiles, 16)
	for _, tile := range s.Tiles {
		require.Equal(t, f.Record(tile.Tile, 0).Max, tile.Max)
	}

	var buf bytes.Buffer
	require.NoError(t, inspect(&buf, f))
	require.True(t, strings.HasPrefix(buf.String(), "grid 4x4, 64 bins\n"))
	require.Equal(t, 17, strings.Count(buf.String(), "\n"))
}

func TestBuildOneOutputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bmp")
	writeGradient(t, in, 40, 40)
	params := config.Default()
	params.AnalysisSize = 20

	texture := filepath.Join(dir, "table.png")
	require.NoError(t, buildOne(context.Background(), in, texture, "", params, nil))
	img, err := imageio.Decode(texture)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 256, 16), img.Bounds())

	var stdout bytes.Buffer
	require.NoError(t, buildOne(context.Background(), in, stdoutPath, "", params, &stdout))
	require.Equal(t, params.CDT().TableSize(), stdout.Len())
}

func TestBuildOneErrors(t *testing.T) {
	dir := t.TempDir()
	params := config.Default()
	require.Error(t, buildOne(context.Background(), filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.tcdt"), "", params, nil))

	tiny := filepath.Join(dir, "tiny.png")
	writeGradient(t, tiny, 2, 2)
	err := buildOne(context.Background(), tiny, filepath.Join(dir, "out.tcdt"), "", params, nil)
	require.ErrorContains(t, err, "invalid dimensions")
}

func TestRunBatch(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeGradient(t, filepath.Join(inDir, "a.png"), 32, 32)
	writeGradient(t, filepath.Join(inDir, "b.bmp"), 50, 20)
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("skip me"), 0666))

	params := config.Default()
	params.Compress = true
	require.NoError(t, runBatch(context.Background(), inDir, outDir, params, 2, true))

	for _, name := range []string{"a.tcdt.zst", "b.tcdt.zst", "a.json", "b.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		require.NoErrorf(t, err, "missing %s", name)
	}
	_, err := os.Stat(filepath.Join(outDir, "notes.tcdt.zst"))
	require.True(t, os.IsNotExist(err))

	// A broken image fails on its own without stopping the others.
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "c.png"), []byte("garbage"), 0666))
	params.OutputFormat = "png"
	err = runBatch(context.Background(), inDir, outDir, params, 2, false)
	require.ErrorContains(t, err, "1 of 3 images failed")
	_, err = os.Stat(filepath.Join(outDir, "a.png"))
	require.NoError(t, err)

	require.Error(t, runBatch(context.Background(), filepath.Join(inDir, "nope"), outDir, params, 2, false))
}

func TestOutputName(t *testing.T) {
	params := config.Default()
	require.Equal(t, "x.tcdt", outputName("/a/x.png", params, false))
	require.Equal(t, "x.png.tcdt", outputName("/a/x.png", params, true))
	params.Compress = true
	require.Equal(t, "x.tcdt.zst", outputName("/a/x.png", params, false))
	params.OutputFormat = ".dds"
	require.Equal(t, "x.dds", outputName("/a/x.png", params, false))
}

func TestPlanBatchKeepsSharedStemsApart(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"a.png", "a.bmp", "b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(inDir, name), nil, 0666))
	}

	jobs, err := planBatch(inDir, outDir, config.Default(), true)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	got := map[string][2]string{}
	for _, job := range jobs {
		got[filepath.Base(job.In)] = [2]string{filepath.Base(job.Out), filepath.Base(job.Summary)}
	}
	require.Equal(t, map[string][2]string{
		"a.bmp": {"a.bmp.tcdt", "a.bmp.json"},
		"a.png": {"a.png.tcdt", "a.png.json"},
		"b.png": {"b.tcdt", "b.json"},
	}, got)
}

func BenchmarkBuildOne(b *testing.B) {
	dir := b.TempDir()
	in := filepath.Join(dir, "in.png")
	img := image.NewRGBA(image.Rect(0, 0, 512, 512))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	require.NoError(b, imageio.Encode(in, img))
	params := config.Default()
	for b.Loop() {
		require.NoError(b, buildOne(b.Context(), in, filepath.Join(dir, "out.tcdt"), "", params, nil))
	}
}
