package mosaicbuilder

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	ErrEmptyImage     = errors.New("image has zero width or height")
	ErrInvalidOptions = errors.New("invalid options")
	ErrNoCandidates   = errors.New("no candidates to compose")
)

// Sampler measures mean colors of rectangular regions of an image.
type Sampler interface {
	Bounds() image.Rectangle
	// Mean returns the truncated mean color of r clipped to Bounds.
	// An empty region yields black.
	Mean(r image.Rectangle) RGB
}

// Motif is a read-only summed-area table of an image. Region means are
// O(1) and the table may be shared between goroutines.
type Motif struct {
	W, H int
	sum  []int64 // Interleaved RGB prefix sums, (W+1)*(H+1)*3
}

func NewMotif(img image.Image) (*Motif, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}
	m := &Motif{
		W:   w,
		H:   h,
		sum: make([]int64, (w+1)*(h+1)*3),
	}
	stride := w + 1
	for y := range h {
		var rowR, rowG, rowB int64
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rowR += int64(r >> 8)
			rowG += int64(g >> 8)
			rowB += int64(b >> 8)
			up := (y*stride + x + 1) * 3
			off := ((y+1)*stride + x + 1) * 3
			m.sum[off] = m.sum[up] + rowR
			m.sum[off+1] = m.sum[up+1] + rowG
			m.sum[off+2] = m.sum[up+2] + rowB
		}
	}
	return m, nil
}

// OpenMotif decodes the image at path into a Motif.
func OpenMotif(path string) (*Motif, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open motif: %w", err)
	}
	m, err := NewMotif(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Motif) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.W, m.H)
}

func (m *Motif) Mean(r image.Rectangle) RGB {
	r = r.Intersect(m.Bounds())
	if r.Empty() {
		return RGB{}
	}
	stride := m.W + 1
	a := (r.Min.Y*stride + r.Min.X) * 3
	b := (r.Min.Y*stride + r.Max.X) * 3
	c := (r.Max.Y*stride + r.Min.X) * 3
	d := (r.Max.Y*stride + r.Max.X) * 3
	n := int64(r.Dx() * r.Dy())
	var out RGB
	for ch := range 3 {
		s := m.sum[d+ch] - m.sum[b+ch] - m.sum[c+ch] + m.sum[a+ch]
		out[ch] = float64(s / n)
	}
	return out
}

// SampleRegion returns the mean color of r and of its four quarters. The
// quarters split the clipped region at half its width and height. A quarter
// with no pixels, as in one pixel wide regions, takes the region mean.
func SampleRegion(s Sampler, r image.Rectangle) (RGB, Quadrants) {
	r = r.Intersect(s.Bounds())
	avg := s.Mean(r)
	mx := r.Min.X + r.Dx()/2
	my := r.Min.Y + r.Dy()/2
	parts := [4]image.Rectangle{
		TopLeft:     image.Rect(r.Min.X, r.Min.Y, mx, my),
		TopRight:    image.Rect(mx, r.Min.Y, r.Max.X, my),
		BottomLeft:  image.Rect(r.Min.X, my, mx, r.Max.Y),
		BottomRight: image.Rect(mx, my, r.Max.X, r.Max.Y),
	}
	var q Quadrants
	for i, part := range parts {
		if part.Empty() {
			q[i] = avg
			continue
		}
		q[i] = s.Mean(part)
	}
	return avg, q
}
