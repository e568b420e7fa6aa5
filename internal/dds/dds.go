// Package dds reads DirectDraw Surface textures and writes lossless RGBA8
// ones. Packed tables are written this way so a GPU interpolation pass can
// sample them directly.
package dds

import (
	"encoding/binary"
	"errors"
)

const (
	ddsMagic = "DDS "

	headerSize      = 124
	pixelFormatSize = 32
	// pixel format block offset within the header
	pixelFormatOffset = 72
	capsOffset        = 104

	// DDSD flags
	flagCaps        = 0x1
	flagHeight      = 0x2
	flagWidth       = 0x4
	flagPitch       = 0x8
	flagPixelFormat = 0x1000

	// pixel format flags
	pfAlphaPixels = 0x1
	pfFourCC      = 0x4
	pfRGB         = 0x40

	capsTexture = 0x1000
)

var errEmptyImage = errors.New("dds: empty image")

// header holds the fields of a DDS header this package cares about.
type header struct {
	width, height uint32
	pfFlags       uint32
	fourCC        string
	rgbBitCount   uint32
	masks         [4]uint32 // R, G, B, A
}

func parseHeader(hdr []byte) header {
	pf := hdr[pixelFormatOffset : pixelFormatOffset+pixelFormatSize]
	h := header{
		height:      binary.LittleEndian.Uint32(hdr[8:12]),
		width:       binary.LittleEndian.Uint32(hdr[12:16]),
		pfFlags:     binary.LittleEndian.Uint32(pf[4:8]),
		fourCC:      string(pf[8:12]),
		rgbBitCount: binary.LittleEndian.Uint32(pf[12:16]),
	}
	for i := range h.masks {
		h.masks[i] = binary.LittleEndian.Uint32(pf[16+4*i:])
	}
	return h
}

func (h header) marshal() []byte {
	var out [headerSize]byte
	put := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(out[off:], v)
	}
	put(0, headerSize)
	put(4, flagCaps|flagHeight|flagWidth|flagPixelFormat|flagPitch)
	put(8, h.height)
	put(12, h.width)
	put(16, h.width*h.rgbBitCount/8) // pitch

	pf := pixelFormatOffset
	put(pf+0, pixelFormatSize)
	put(pf+4, h.pfFlags)
	copy(out[pf+8:pf+12], h.fourCC)
	put(pf+12, h.rgbBitCount)
	for i, m := range h.masks {
		put(pf+16+4*i, m)
	}
	put(capsOffset, capsTexture)
	return out[:]
}
