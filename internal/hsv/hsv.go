// Package hsv packs images into the 4-byte H,S,V,A layout the table builder
// reads brightness from.
package hsv

import (
	"image"
	"image/color"
	"math"

	"github.com/erinpentecost/tilecdt/internal/cdt"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// HSV represents a color in HSV color space.
type HSV struct {
	H, S, V float64 // Hue (0–360), Saturation (0–1), Value (0–1)
}

// RGBToHSV converts a color.Color to HSV. Alpha is ignored.
func RGBToHSV(c color.Color) HSV {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return HSV{}
	}
	// Un-premultiply so translucent pixels keep their brightness.
	col := colorful.Color{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
	}
	h, s, v := col.Hsv()
	return HSV{H: h, S: s, V: v}
}

func unit8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// Pack converts img into a cdt.Image whose pixels are {H, S, V, A}, each
// scaled to a byte. The value channel sits at cdt.DefaultValueChannel.
func Pack(img image.Image) cdt.Image {
	b := img.Bounds()
	out := cdt.NewImage(b.Dx(), b.Dy())

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			hsv := RGBToHSV(c)
			_, _, _, a := c.RGBA()
			out.Pix[i+0] = unit8(hsv.H / 360)
			out.Pix[i+1] = unit8(hsv.S)
			out.Pix[i+2] = unit8(hsv.V)
			out.Pix[i+3] = uint8(a >> 8)
			i += 4
		}
	}
	return out
}

// Downscale shrinks img so its longest side is at most maxSide, keeping the
// aspect ratio. Images already small enough, and maxSide <= 0, are returned
// unchanged.
func Downscale(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	longest := max(bounds.Dx(), bounds.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img
	}
	w := max(1, bounds.Dx()*maxSide/longest)
	h := max(1, bounds.Dy()*maxSide/longest)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
