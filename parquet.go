package mosaicbuilder

import (
	"fmt"
	"image"
	"math"
)

type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "landscape":
		return Landscape, nil
	case "portrait":
		return Portrait, nil
	}
	return Landscape, fmt.Errorf("unknown orientation %q", s)
}

// orientationOf reports Landscape only for strictly wider regions.
func orientationOf(w, h float64) Orientation {
	if w > h {
		return Landscape
	}
	return Portrait
}

type Point struct {
	X, Y float64
}

// Corner indexes Parquet.Corners.
const (
	CornerTopLeft = iota
	CornerTopRight
	CornerBottomRight
	CornerBottomLeft
)

// Parquet is a rectangular region of the motif plane filled by one tessera.
// Corners may lie outside the motif; OnTheEdge marks such parquets.
type Parquet struct {
	Corners     [4]Point
	Orientation Orientation
	Average     RGB
	Quadrants   Quadrants
	Priority    int
	OnTheEdge   bool
}

// NewParquet returns an unsampled parquet spanning (x1,y1)-(x3,y3).
func NewParquet(x1, y1, x3, y3 float64, o Orientation) Parquet {
	return Parquet{
		Corners: [4]Point{
			{x1, y1},
			{x3, y1},
			{x3, y3},
			{x1, y3},
		},
		Orientation: o,
	}
}

func (p Parquet) TopLeft() Point { return p.Corners[CornerTopLeft] }
func (p Parquet) BottomRight() Point { return p.Corners[CornerBottomRight] }

func (p Parquet) Width() float64 {
	return p.Corners[CornerBottomRight].X - p.Corners[CornerTopLeft].X
}

func (p Parquet) Height() float64 {
	return p.Corners[CornerBottomRight].Y - p.Corners[CornerTopLeft].Y
}

func (p Parquet) Area() float64 {
	return math.Abs(p.Width() * p.Height())
}

func (p Parquet) Aspect() float64 {
	return p.Width() / p.Height()
}

// Rect rounds the parquet to the pixel grid, half to even.
func (p Parquet) Rect() image.Rectangle {
	tl, br := p.TopLeft(), p.BottomRight()
	return image.Rect(
		int(math.RoundToEven(tl.X)),
		int(math.RoundToEven(tl.Y)),
		int(math.RoundToEven(br.X)),
		int(math.RoundToEven(br.Y)),
	)
}

// Footprint is the pixel rectangle with corners truncated toward zero,
// used for parquets already scaled into mosaic space.
func (p Parquet) Footprint() image.Rectangle {
	tl, br := p.TopLeft(), p.BottomRight()
	return image.Rect(int(tl.X), int(tl.Y), int(br.X), int(br.Y))
}

// cornersInside counts corners within [0,W)x[0,H) of b.
func (p Parquet) cornersInside(b image.Rectangle) int {
	n := 0
	for _, c := range p.Corners {
		if c.X >= float64(b.Min.X) && c.X < float64(b.Max.X) &&
			c.Y >= float64(b.Min.Y) && c.Y < float64(b.Max.Y) {
			n++
		}
	}
	return n
}

// sample refreshes the average and quadrant colors from the clipped
// footprint. It reports false when nothing of the parquet lies inside s.
func (p *Parquet) sample(s Sampler) bool {
	crop := p.Rect().Intersect(s.Bounds())
	if crop.Empty() {
		return false
	}
	p.Average, p.Quadrants = SampleRegion(s, crop)
	return true
}

// snap rounds all corners to the pixel grid, half to even.
func (p *Parquet) snap() {
	for i := range p.Corners {
		p.Corners[i].X = math.RoundToEven(p.Corners[i].X)
		p.Corners[i].Y = math.RoundToEven(p.Corners[i].Y)
	}
}

func isClose(a, b, relTol float64) bool {
	return math.Abs(a-b) <= relTol*max(math.Abs(a), math.Abs(b))
}

// isTileAspect reports whether aspect is within 0.01 of 3:2 or 2:3.
func isTileAspect(aspect float64) bool {
	return math.Abs(aspect-1.5) < 0.01 || math.Abs(aspect-2.0/3.0) < 0.01
}
