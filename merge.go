package mosaicbuilder

import (
	"log"
	"math"
)

const mergeEps = 1e-6

type MergeStats struct {
	Merged  int // pairs joined
	Aborted int // pairs rejected for exceeding the grid parquet size
}

// Merge makes one greedy pass over parquets in list order. Each parquet is
// joined with the first later, unconsumed neighbour it shares a full edge
// with, provided the union keeps an accepted aspect, conserves area, stays
// within 3*MergeThreshold^2 in average color and is no larger than a grid
// parquet. Merged parquets come first in the result, followed by the
// untouched parquets in their original order.
func Merge(parquets []Parquet, s Sampler, opt Options) ([]Parquet, MergeStats) {
	var stats MergeStats
	bounds := s.Bounds()
	limit := 3 * opt.MergeThreshold * opt.MergeThreshold
	maxLong, maxShort := opt.ParquetSize()

	consumed := make([]bool, len(parquets))
	out := make([]Parquet, 0, len(parquets))
	for i := range parquets {
		if consumed[i] {
			continue
		}
		p1 := parquets[i]
		for j := i + 1; j < len(parquets); j++ {
			if consumed[j] {
				continue
			}
			p2 := parquets[j]
			m, ok := joinedParquet(p1, p2)
			if !ok {
				continue
			}
			m.snap()
			m.OnTheEdge = m.cornersInside(bounds) < 4
			crop := m.Rect().Intersect(bounds)
			if crop.Empty() {
				continue
			}
			if math.Abs(p1.Area()+p2.Area()-m.Area()) > mergeEps {
				continue
			}
			if p1.Average.Dist2(p2.Average) > limit {
				continue
			}
			cw, ch := crop.Dx(), crop.Dy()
			if cw > ch {
				if cw > maxLong || ch > maxShort {
					stats.Aborted++
					continue
				}
			} else if cw > maxShort || ch > maxLong {
				stats.Aborted++
				continue
			}
			m.Average, m.Quadrants = SampleRegion(s, crop)
			m.Orientation = orientationOf(m.Width(), m.Height())
			m.Priority = 2 * max(p1.Priority, p2.Priority)
			consumed[i], consumed[j] = true, true
			out = append(out, m)
			stats.Merged++
			break
		}
	}
	for i, p := range parquets {
		if !consumed[i] {
			out = append(out, p)
		}
	}
	log.Printf("merge: %d pairs merged, %d aborted at the maximum size", stats.Merged, stats.Aborted)
	return out, stats
}

// MergeFile merges against the motif stored at path.
func MergeFile(parquets []Parquet, path string, opt Options) ([]Parquet, MergeStats, error) {
	m, err := OpenMotif(path)
	if err != nil {
		return nil, MergeStats{}, err
	}
	out, stats := Merge(parquets, m, opt)
	return out, stats, nil
}

// joinedParquet returns the union of two parquets sharing a full edge.
// Side by side unions must be between 2:3 and 3:2; stacked unions must be
// near 3:4, 4:3, 2:3 or 3:2.
func joinedParquet(p1, p2 Parquet) (Parquet, bool) {
	a1, b1 := p1.TopLeft(), p1.BottomRight()
	a2, b2 := p2.TopLeft(), p2.BottomRight()
	eq := func(a, b float64) bool { return math.Abs(a-b) < mergeEps }

	if eq(a1.Y, a2.Y) && eq(b1.Y, b2.Y) {
		var x1, x3 float64
		switch {
		case eq(b1.X, a2.X):
			x1, x3 = a1.X, b2.X
		case eq(b2.X, a1.X):
			x1, x3 = a2.X, b1.X
		default:
			return Parquet{}, false
		}
		m := NewParquet(x1, a1.Y, x3, b1.Y, Landscape)
		if a := m.Aspect(); a > 0.666 && a < 1.501 {
			return m, true
		}
	}
	if eq(a1.X, a2.X) && eq(b1.X, b2.X) {
		var y1, y3 float64
		switch {
		case eq(b1.Y, a2.Y):
			y1, y3 = a1.Y, b2.Y
		case eq(b2.Y, a1.Y):
			y1, y3 = a2.Y, b1.Y
		default:
			return Parquet{}, false
		}
		m := NewParquet(a1.X, y1, b1.X, y3, Landscape)
		a := m.Aspect()
		if (a > 0.75/1.1 && a < 4.0/3.0*1.1) || (a > 2.0/3.0/1.1 && a < 1.5*1.1) {
			return m, true
		}
	}
	return Parquet{}, false
}
