package mosaicbuilder

import (
	"cmp"
	"image"
	"log"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// PhaseOneMinPriority is the lowest parquet priority eligible for priority tesserae.
const PhaseOneMinPriority = 1 << 10

// Slot is a parquet prepared for assignment: clipped to the motif when on
// the edge and scaled to mosaic pixels.
type Slot struct {
	Parquet
	// Integer size of the unclipped, unscaled parquet. Aspect checks use it.
	Width, Height int
}

func (s Slot) aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

// PrepareSlots clamps edge parquets to bounds and scales every parquet by scale.
func PrepareSlots(parquets []Parquet, bounds image.Rectangle, scale float64) []Slot {
	slots := make([]Slot, len(parquets))
	for i, p := range parquets {
		tl, br := p.TopLeft(), p.BottomRight()
		s := Slot{
			Width:  abs(int(br.X) - int(tl.X)),
			Height: abs(int(br.Y) - int(tl.Y)),
		}
		if p.OnTheEdge {
			for k, c := range p.Corners {
				p.Corners[k] = Point{
					X: max(float64(bounds.Min.X), min(c.X, float64(bounds.Max.X))),
					Y: max(float64(bounds.Min.Y), min(c.Y, float64(bounds.Max.Y))),
				}
			}
		}
		for k, c := range p.Corners {
			p.Corners[k] = Point{X: math.Trunc(c.X * scale), Y: math.Trunc(c.Y * scale)}
		}
		s.Parquet = p
		slots[i] = s
	}
	return slots
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type AssignStats struct {
	Priority  int // slots filled by positive priority tesserae
	Filler    int // slots filled by zero priority tesserae
	Unmatched int // slots left empty
}

type scoredSlot struct {
	idx  int
	dist float64
}

// Assign pairs slots with tesserae in two phases.
//
// Positive priority tesserae are handled first, ascending by priority and
// descending by average color within a priority. Each claims one unused slot
// of priority PhaseOneMinPriority or more whose distance lies within
// ThresholdPercentage of the spread above the best distance. With probability
// PrioritizedByChance percent the highest priority slot wins, otherwise the
// closest one.
//
// The remaining slots, by descending priority and brightness, then take the
// least used zero priority tessera, the closest one among equally used.
// Slots without a compatible tessera are left out.
//
// UsageCount of the passed tesserae is updated.
func Assign(slots []Slot, tesserae []Tessera, opt Options, rng *rand.Rand) ([]Candidate, AssignStats) {
	var stats AssignStats
	groups := make(map[int][]int)
	var fillers []int
	for i, t := range tesserae {
		switch {
		case t.Priority == 0:
			fillers = append(fillers, i)
		case t.Priority > 0:
			groups[t.Priority] = append(groups[t.Priority], i)
		default:
			log.Printf("assign: ignoring %s with negative priority %d", t.ImagePath, t.Priority)
		}
	}

	used := make([]bool, len(slots))
	candidates := make([]Candidate, 0, len(slots))

	priorities := make([]int, 0, len(groups))
	for p := range groups {
		priorities = append(priorities, p)
	}
	slices.Sort(priorities)
	for _, prio := range priorities {
		group := groups[prio]
		slices.SortStableFunc(group, func(a, b int) int {
			return compareRGB(tesserae[b].Average, tesserae[a].Average)
		})
		for _, ti := range group {
			t := &tesserae[ti]
			si, dist, ok := pickPrioritySlot(slots, used, t, opt, rng)
			if !ok {
				continue
			}
			used[si] = true
			t.UsageCount = 1
			candidates = append(candidates, newCandidate(slots[si], t, dist))
			stats.Priority++
		}
	}

	remaining := make([]int, 0, len(slots))
	for i := range slots {
		if !used[i] {
			remaining = append(remaining, i)
		}
	}
	slices.SortStableFunc(remaining, func(a, b int) int {
		if d := cmp.Compare(slots[b].Priority, slots[a].Priority); d != 0 {
			return d
		}
		return cmp.Compare(slots[b].Average.Luma(), slots[a].Average.Luma())
	})
	for _, ti := range fillers {
		tesserae[ti].UsageCount = 0
	}
	for _, si := range remaining {
		ti, dist, ok := pickFiller(slots[si], tesserae, fillers)
		if !ok {
			stats.Unmatched++
			continue
		}
		t := &tesserae[ti]
		t.UsageCount++
		candidates = append(candidates, newCandidate(slots[si], t, dist))
		stats.Filler++
	}
	log.Printf("assign: %d priority, %d filler, %d unmatched", stats.Priority, stats.Filler, stats.Unmatched)
	return candidates, stats
}

func pickPrioritySlot(slots []Slot, used []bool, t *Tessera, opt Options, rng *rand.Rand) (int, float64, bool) {
	pool := make([]scoredSlot, 0, len(slots))
	dists := make([]float64, 0, len(slots))
	for i, s := range slots {
		if used[i] {
			continue
		}
		if !t.Cropable && !isTileAspect(s.aspect()) {
			continue
		}
		d := t.Average.Dist2(s.Average)
		pool = append(pool, scoredSlot{i, d})
		dists = append(dists, d)
	}
	if len(pool) == 0 {
		return 0, 0, false
	}
	lo, hi := floats.Min(dists), floats.Max(dists)
	window := (hi-lo)*opt.ThresholdPercentage/100 + lo

	accepted := pool[:0]
	for _, c := range pool {
		if c.dist <= window && slots[c.idx].Priority >= PhaseOneMinPriority {
			accepted = append(accepted, c)
		}
	}
	if len(accepted) == 0 {
		return 0, 0, false
	}
	byPriority := func(a, b scoredSlot) int {
		if d := cmp.Compare(slots[b.idx].Priority, slots[a.idx].Priority); d != 0 {
			return d
		}
		return cmp.Compare(a.dist, b.dist)
	}
	byDistance := func(a, b scoredSlot) int {
		if d := cmp.Compare(a.dist, b.dist); d != 0 {
			return d
		}
		return cmp.Compare(slots[b.idx].Priority, slots[a.idx].Priority)
	}
	if rng.Float64()*100 < opt.PrioritizedByChance {
		slices.SortStableFunc(accepted, byPriority)
	} else {
		slices.SortStableFunc(accepted, byDistance)
	}
	return accepted[0].idx, accepted[0].dist, true
}

// pickFiller returns the least used filler, the closest one on ties. Slots
// off the tile aspect only accept cropable fillers.
func pickFiller(s Slot, tesserae []Tessera, fillers []int) (int, float64, bool) {
	cropOnly := !isTileAspect(s.aspect())
	best, bestDist := -1, 0.0
	for _, ti := range fillers {
		t := &tesserae[ti]
		if cropOnly && !t.Cropable {
			continue
		}
		d := s.Average.Dist2(t.Average)
		if best < 0 {
			best, bestDist = ti, d
			continue
		}
		bu := tesserae[best].UsageCount
		if t.UsageCount < bu || (t.UsageCount == bu && d < bestDist) {
			best, bestDist = ti, d
		}
	}
	return best, bestDist, best >= 0
}

func newCandidate(s Slot, t *Tessera, dist float64) Candidate {
	return Candidate{
		Parquet:          s.Parquet,
		ImagePath:        t.ImagePath,
		TesseraAverage:   t.Average,
		TesseraQuadrants: t.Quadrants,
		Score:            dist,
	}
}
