package dds

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/mauserzjeh/dxt"
)

// Decode parses a DDS file and returns its top-level surface. Supports DXT1,
// DXT3, DXT5 and uncompressed 24/32-bit RGB(A) described by channel masks.
func Decode(data []byte) (image.Image, error) {
	const dataOffset = len(ddsMagic) + headerSize

	if len(data) < dataOffset {
		return nil, fmt.Errorf("dds: data too short for header: %d < %d", len(data), dataOffset)
	}
	if string(data[:len(ddsMagic)]) != ddsMagic {
		return nil, fmt.Errorf("dds: missing magic %q", ddsMagic)
	}
	h := parseHeader(data[len(ddsMagic):dataOffset])
	if h.width == 0 || h.height == 0 {
		return nil, errEmptyImage
	}
	body := data[dataOffset:]

	var (
		pix []byte
		err error
	)
	switch {
	case h.pfFlags&pfFourCC != 0:
		switch h.fourCC {
		case "DXT1":
			pix, err = dxt.DecodeDXT1(body, uint(h.width), uint(h.height))
		case "DXT3":
			pix, err = dxt.DecodeDXT3(body, uint(h.width), uint(h.height))
		case "DXT5":
			pix, err = dxt.DecodeDXT5(body, uint(h.width), uint(h.height))
		default:
			return nil, fmt.Errorf("dds: unsupported FourCC %q", h.fourCC)
		}
	case h.rgbBitCount == 24 || h.rgbBitCount == 32:
		pix, err = decodeMasked(body, h)
	default:
		return nil, fmt.Errorf("dds: unsupported pixel format, %d bits per pixel", h.rgbBitCount)
	}
	if err != nil {
		return nil, fmt.Errorf("dds: decode %dx%d: %w", h.width, h.height, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(h.width), int(h.height)))
	if len(pix) != len(img.Pix) {
		return nil, fmt.Errorf("dds: decoded %d bytes, want %d", len(pix), len(img.Pix))
	}
	copy(img.Pix, pix)
	return img, nil
}

// decodeMasked expands uncompressed little-endian pixels into RGBA bytes
// using the header's channel masks. A zero alpha mask, or a missing alpha
// flag, means opaque.
func decodeMasked(data []byte, h header) ([]byte, error) {
	bpp := int(h.rgbBitCount / 8)
	n := int(h.width) * int(h.height)
	if len(data) < n*bpp {
		return nil, fmt.Errorf("data too small (%d < %d)", len(data), n*bpp)
	}
	masks := h.masks
	if h.pfFlags&pfAlphaPixels == 0 {
		masks[3] = 0
	}

	out := make([]byte, n*4)
	for i := range n {
		var px uint32
		for b := range bpp {
			px |= uint32(data[i*bpp+b]) << (8 * b)
		}
		for c, m := range masks {
			out[i*4+c] = extract(px, m)
		}
		if masks[3] == 0 {
			out[i*4+3] = 0xFF
		}
	}
	return out, nil
}

// extract pulls the channel selected by mask out of px, rescaled to 8 bits.
func extract(px, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	v := (px & mask) >> shift
	if width >= 8 {
		return uint8(v >> (width - 8))
	}
	maxV := uint32(1)<<width - 1
	return uint8(v * 255 / maxV)
}
