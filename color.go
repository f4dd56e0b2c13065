package mosaicbuilder

import (
	"cmp"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// MaxDist2 is the largest possible squared distance between two RGB colors (3*255^2).
const MaxDist2 = 3 * 255 * 255

// RGB is a color with channels in [0,255].
type RGB [3]float64

// Dist2 returns the squared Euclidean distance between c and o.
func (c RGB) Dist2(o RGB) float64 {
	dr := c[0] - o[0]
	dg := c[1] - o[1]
	db := c[2] - o[2]
	return dr*dr + dg*dg + db*db
}

func (c RGB) Dist(o RGB) float64 {
	return math.Sqrt(c.Dist2(o))
}

// Luma returns the perceived brightness of c.
func (c RGB) Luma() float64 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: c[0] / 255.0, G: c[1] / 255.0, B: c[2] / 255.0}
}

func (c RGB) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(max(0, min(255, c[0]))),
		G: uint8(max(0, min(255, c[1]))),
		B: uint8(max(0, min(255, c[2]))),
		A: 255,
	}
}

func RGBFromColorful(c colorful.Color) RGB {
	c = c.Clamped()
	return RGB{c.R * 255, c.G * 255, c.B * 255}
}

// compareRGB orders colors lexicographically by channel.
func compareRGB(a, b RGB) int {
	if d := cmp.Compare(a[0], b[0]); d != 0 {
		return d
	}
	if d := cmp.Compare(a[1], b[1]); d != 0 {
		return d
	}
	return cmp.Compare(a[2], b[2])
}

// Quadrant indexes a Quadrants value.
type Quadrant int

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "top_left"
	case TopRight:
		return "top_right"
	case BottomLeft:
		return "bottom_left"
	default:
		return "bottom_right"
	}
}

// Quadrants holds the mean colors of the four quarters of a region.
type Quadrants [4]RGB

// Mismatch is the summed squared distance between corresponding quadrants.
func (q Quadrants) Mismatch(o Quadrants) float64 {
	d := 0.0
	for i := range q {
		d += q[i].Dist2(o[i])
	}
	return d
}

// MaxPairDist2 returns the largest squared distance between any two quadrants.
func (q Quadrants) MaxPairDist2() float64 {
	d := 0.0
	for i := range q {
		for j := i + 1; j < len(q); j++ {
			d = max(d, q[i].Dist2(q[j]))
		}
	}
	return d
}

// FlipH returns the quadrant colors seen after mirroring left to right.
func (q Quadrants) FlipH() Quadrants {
	return Quadrants{q[TopRight], q[TopLeft], q[BottomRight], q[BottomLeft]}
}

// FlipV returns the quadrant colors seen after mirroring top to bottom.
func (q Quadrants) FlipV() Quadrants {
	return Quadrants{q[BottomLeft], q[BottomRight], q[TopLeft], q[TopRight]}
}

func (q Quadrants) Rotate180() Quadrants {
	return Quadrants{q[BottomRight], q[BottomLeft], q[TopRight], q[TopLeft]}
}
