package mosaicbuilder

import (
	"fmt"
	"image"
	"log"
)

type SplitStats struct {
	Split    int // parquets replaced by their quarters
	TooSmall int
	Aspect   int // skipped for a non 3:2 aspect
	Uniform  int // skipped for low quadrant contrast
}

// Split makes one pass over parquets and replaces every parquet whose
// quadrant colors differ by more than 3*SplitThreshold^2 with its four
// quarters. Quarters entirely outside the motif are dropped and each kept
// quarter gets a quarter of the parent priority. Any failure returns the
// input unchanged.
func Split(parquets []Parquet, s Sampler, opt Options) (out []Parquet, stats SplitStats) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("split failed, keeping %d parquets unchanged: %v", len(parquets), r)
			out, stats = parquets, SplitStats{}
		}
	}()

	bounds := s.Bounds()
	limit := 3 * opt.SplitThreshold * opt.SplitThreshold
	minLong := float64(4 * opt.UnitWidth)
	minShort := float64(2 * (4 * opt.UnitWidth / 3))

	out = make([]Parquet, 0, len(parquets))
	for _, p := range parquets {
		w, h := p.Width(), p.Height()
		long, short := w, h
		if p.Orientation == Portrait {
			long, short = h, w
		}
		if long < minLong || short < minShort {
			stats.TooSmall++
			out = append(out, p)
			continue
		}
		aspect := w / h
		if !isClose(aspect, 1.5, 0.01) && !isClose(aspect, 2.0/3.0, 0.01) {
			stats.Aspect++
			out = append(out, p)
			continue
		}
		if p.Quadrants.MaxPairDist2() <= limit {
			stats.Uniform++
			out = append(out, p)
			continue
		}
		quarters := quarter(p, s, bounds)
		if len(quarters) == 0 {
			out = append(out, p)
			continue
		}
		stats.Split++
		out = append(out, quarters...)
	}
	log.Printf("split: %d parquets into quarters (%d too small, %d off aspect, %d uniform)",
		stats.Split, stats.TooSmall, stats.Aspect, stats.Uniform)
	return out, stats
}

// quarter cuts p into four snapped sub-parquets in reading order.
func quarter(p Parquet, s Sampler, bounds image.Rectangle) []Parquet {
	tl := p.TopLeft()
	hw, hh := p.Width()/2, p.Height()/2
	out := make([]Parquet, 0, 4)
	for i := range 2 {
		for j := range 2 {
			x1 := tl.X + float64(j)*hw
			y1 := tl.Y + float64(i)*hh
			q := NewParquet(x1, y1, x1+hw, y1+hh, p.Orientation)
			q.snap()
			inside := q.cornersInside(bounds)
			if inside == 0 {
				continue
			}
			if !q.sample(s) {
				continue
			}
			q.OnTheEdge = inside < 4
			q.Priority = p.Priority / 4
			out = append(out, q)
		}
	}
	return out
}

// SplitFile splits against the motif stored at path. If the motif cannot be
// opened the parquets are returned unchanged.
func SplitFile(parquets []Parquet, path string, opt Options) ([]Parquet, SplitStats) {
	m, err := OpenMotif(path)
	if err != nil {
		log.Println(fmt.Errorf("split: %w", err))
		return parquets, SplitStats{}
	}
	return Split(parquets, m, opt)
}
