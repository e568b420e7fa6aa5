package dds

import (
	"image"
	"image/draw"
	"io"
)

// Encode writes m as an uncompressed 32-bit DDS with bytes stored in R, G, B,
// A order.
func Encode(w io.Writer, m image.Image) error {
	var rgba *image.RGBA
	if im, ok := m.(*image.RGBA); ok {
		rgba = im
	} else {
		b := m.Bounds()
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, m, b.Min, draw.Src)
	}

	width := rgba.Bounds().Dx()
	height := rgba.Bounds().Dy()
	if width == 0 || height == 0 {
		return errEmptyImage
	}

	h := header{
		width:       uint32(width),
		height:      uint32(height),
		pfFlags:     pfRGB | pfAlphaPixels,
		rgbBitCount: 32,
		// little-endian: byte 0 is R
		masks: [4]uint32{0x000000FF, 0x0000FF00, 0x00FF0000, 0xFF000000},
	}
	if _, err := io.WriteString(w, ddsMagic); err != nil {
		return err
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return err
	}

	rowBytes := width * 4
	for y := 0; y < height; y++ {
		off := rgba.PixOffset(rgba.Rect.Min.X, rgba.Rect.Min.Y+y)
		if _, err := w.Write(rgba.Pix[off : off+rowBytes]); err != nil {
			return err
		}
	}
	return nil
}
