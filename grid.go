package mosaicbuilder

import (
	"fmt"
	"log"
	"math/rand/v2"
)

// Grid priorities.
const (
	PriorityBase     = 1 << 13
	PriorityCentre   = 1 << 14
	PriorityStraddle = 1 << 15
)

type rect struct {
	x1, y1, x3, y3 int
}

func (r rect) translate(dx, dy int) rect {
	return rect{r.x1 + dx, r.y1 + dy, r.x3 + dx, r.y3 + dy}
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

// GenerateGrid covers the sampler bounds with grid parquets. The first
// parquet sits near the centre, jittered by up to one parquet width, and the
// pattern is extended past every image border so the clipped union has no
// gaps. Parquets keep their unclipped coordinates.
func GenerateGrid(s Sampler, opt Options, rng *rand.Rand) ([]Parquet, error) {
	b := s.Bounds()
	W, H := b.Dx(), b.Dy()
	if W <= 0 || H <= 0 {
		return nil, ErrEmptyImage
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	wp, hp := opt.ParquetSize()
	xo, yo := rng.IntN(wp), rng.IntN(wp)

	var rects []rect
	switch opt.Mode {
	case Horizontal:
		rects = horizontalCourses(W, H, wp, hp, xo, yo, opt.Randomness, rng)
	case Vertical:
		rects = verticalCourses(W, H, wp, hp, xo, yo, opt.Randomness, rng)
	default:
		rects = brickCourses(W, H, wp, hp, xo, yo, opt.Randomness, rng)
	}

	out := make([]Parquet, 0, len(rects)/4)
	for _, r := range rects {
		if max(r.x1, 0) >= min(r.x3, W) || max(r.y1, 0) >= min(r.y3, H) {
			continue
		}
		p := NewParquet(float64(r.x1), float64(r.y1), float64(r.x3), float64(r.y3),
			orientationOf(float64(r.x3-r.x1), float64(r.y3-r.y1)))
		p.OnTheEdge = p.cornersInside(b) < 4
		p.Priority = gridPriority(p, float64(W), float64(H))
		if !p.sample(s) {
			log.Printf("grid: skipping parquet %v, empty crop", r)
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("grid: no parquet inside %dx%d image", W, H)
	}
	log.Printf("grid: %s mode kept %d of %d parquets (%dx%d)", opt.Mode, len(out), len(rects), wp, hp)
	return out, nil
}

// brickCourses lays a diagonal course where each parquet hangs off the
// bottom-right corner of the previous one, then repeats the course one
// parquet height down and left.
func brickCourses(W, H, wp, hp, xo, yo int, r float64, rng *rand.Rand) []rect {
	sx := W/2 - wp/2 + xo
	sy := H/2 - hp/2 + yo
	j := max(0, ceilDiv(sx+sy+wp, 2*wp))
	sx -= j * wp
	sy -= j * wp
	k := max(0, ceilDiv(W+hp-sx, hp))
	sx += k * hp
	sy -= k * hp
	n := ceilDiv(W+H-(sx+sy), wp) + 2
	rows := ceilDiv(sx+(n+2)*wp, hp) + 1

	course := make([]rect, 0, n)
	course = append(course, rect{sx, sy, sx + wp, sy + hp})
	portrait := false
	for range n - 1 {
		if rng.Float64() >= r {
			portrait = !portrait
		}
		prev := course[len(course)-1]
		bx, by := prev.x3, prev.y3
		if portrait {
			course = append(course, rect{bx - hp, by, bx, by + wp})
		} else {
			course = append(course, rect{bx, by - hp, bx + wp, by})
		}
	}
	return repeatCourse(course, rows, func() (int, int) { return -hp, hp })
}

func horizontalCourses(W, H, wp, hp, xo, yo int, r float64, rng *rand.Rand) []rect {
	sx := W/2 - wp/2 + xo
	sy := H/2 - hp/2 + yo
	sy -= max(0, ceilDiv(sy, hp)) * hp
	rows := ceilDiv(H-sy, hp) + 1
	maxShift := rows * (7 * wp / 10)
	sx -= max(0, ceilDiv(sx+maxShift, wp)) * wp
	n := ceilDiv(W-sx, wp) + 1

	course := make([]rect, n)
	for i := range n {
		course[i] = rect{sx + i*wp, sy, sx + (i+1)*wp, sy + hp}
	}
	return repeatCourse(course, rows, func() (int, int) { return rowShift(wp, r, rng), hp })
}

func verticalCourses(W, H, wp, hp, xo, yo int, r float64, rng *rand.Rand) []rect {
	sx := W/2 - hp/2 + xo
	sy := H/2 - wp/2 + yo
	sx -= max(0, ceilDiv(sx, hp)) * hp
	cols := ceilDiv(W-sx, hp) + 1
	maxShift := cols * (7 * wp / 10)
	sy -= max(0, ceilDiv(sy+maxShift, wp)) * wp
	n := ceilDiv(H-sy, wp) + 1

	course := make([]rect, n)
	for i := range n {
		course[i] = rect{sx, sy + i*wp, sx + hp, sy + (i+1)*wp}
	}
	return repeatCourse(course, cols, func() (int, int) { return hp, rowShift(wp, r, rng) })
}

// rowShift offsets a new course by 40-70% of a parquet width with probability r.
func rowShift(wp int, r float64, rng *rand.Rand) int {
	if rng.Float64() >= r {
		return 0
	}
	lo, hi := 4*wp/10, 7*wp/10
	return lo + rng.IntN(hi-lo+1)
}

// repeatCourse stacks count copies of course, each translated from the
// previous one by step.
func repeatCourse(course []rect, count int, step func() (int, int)) []rect {
	out := make([]rect, 0, len(course)*count)
	out = append(out, course...)
	cur := course
	for range count - 1 {
		dx, dy := step()
		next := make([]rect, len(cur))
		for i, c := range cur {
			next[i] = c.translate(dx, dy)
		}
		out = append(out, next...)
		cur = next
	}
	return out
}

// gridPriority favours parquets near the rule-of-thirds lines. Edge parquets get 0.
func gridPriority(p Parquet, w, h float64) int {
	if p.OnTheEdge {
		return 0
	}
	tl, br := p.TopLeft(), p.BottomRight()
	inCentre := func(c Point) bool {
		return c.X > w/3 && c.X < 2*w/3 && c.Y > h/3 && c.Y < 2*h/3
	}
	straddles := func(lo, hi, line float64) bool {
		return lo <= line && line <= hi
	}
	switch {
	case straddles(tl.X, br.X, w/3), straddles(tl.X, br.X, 2*w/3),
		straddles(tl.Y, br.Y, h/3), straddles(tl.Y, br.Y, 2*h/3):
		return PriorityStraddle
	case inCentre(tl), inCentre(br):
		return PriorityCentre
	}
	return PriorityBase
}
