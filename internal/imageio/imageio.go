// Package imageio picks an image codec by file extension.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dblezek/tga"
	"github.com/erinpentecost/tilecdt/internal/dds"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decoder func(r io.Reader) (image.Image, error)

var decoders = map[string]decoder{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,
	".dds": func(r io.Reader) (image.Image, error) {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return dds.Decode(raw)
	},
}

type encoder func(w io.Writer, m image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
	".dds":  dds.Encode,
}

func encodeTIFF(w io.Writer, m image.Image) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// CanDecode reports whether Decode has a codec for path's extension.
func CanDecode(path string) bool {
	_, ok := decoders[ext(path)]
	return ok
}

// CanEncode reports whether Encode has a codec for path's extension.
func CanEncode(path string) bool {
	_, ok := encoders[ext(path)]
	return ok
}

// Decode reads the image at path. Unknown extensions fall back to format
// sniffing over the registered stdlib decoders.
func Decode(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	dec, ok := decoders[ext(path)]
	if !ok {
		dec = func(r io.Reader) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		}
	}
	img, err := dec(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return img, nil
}

// Encode writes img to path in the format its extension names.
func Encode(path string, img image.Image) (err error) {
	enc, ok := encoders[ext(path)]
	if !ok {
		return fmt.Errorf("no encoder for %q", path)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()
	if err := enc(out, img); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return nil
}
