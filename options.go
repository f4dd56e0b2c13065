package mosaicbuilder

import (
	"fmt"
	"image"
	"math/rand/v2"
)

// GridMode selects how the Grid Generator lays parquets.
type GridMode int

const (
	// Vertical stacks portrait parquets in columns.
	Vertical GridMode = -1
	// Brick alternates landscape and portrait parquets along diagonal courses.
	Brick GridMode = 0
	// Horizontal lays landscape parquets in rows.
	Horizontal GridMode = 1
)

func (m GridMode) String() string {
	switch m {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "brick"
	}
}

type Options struct {
	// Grid unit in motif pixels. Parquet width is UnitWidth*SizeFactor and
	// parquet height is two thirds of that, rounded down to a multiple of 2.
	// Split refuses to quarter parquets narrower than 4*UnitWidth.
	UnitWidth int
	// Multiplier from unit to parquet width. Also caps merged parquets:
	// a merge never produces anything larger than one grid parquet.
	// Ideal start: 4-8.
	SizeFactor int
	// Grid sweep, see GridMode.
	Mode GridMode
	// In [0,1]. Brick mode flips landscape/portrait with probability 1-Randomness,
	// so 1 gives straight diagonal courses and 0 strict alternation.
	// Row modes shift each new row sideways with probability Randomness.
	Randomness float64
	// PRNG seed for grid jitter and assignment tie breaks.
	Seed uint64
	// Split quarters a parquet when two of its quadrants differ by more
	// than 3*SplitThreshold^2. Lower => more, smaller parquets in detailed areas.
	SplitThreshold float64
	// Merge joins neighbours whose average colors differ by at most
	// 3*MergeThreshold^2. Higher => more, larger parquets in flat areas.
	MergeThreshold float64
	// Percentage [0,100] of the distance spread accepted around the best
	// match when placing priority tesserae. 0 means best match only.
	ThresholdPercentage float64
	// Percentage [0,100] of priority tesserae placed by parquet priority
	// first and color distance second. The rest are placed by distance first.
	PrioritizedByChance float64
	// Tessera size in pixels. The mosaic is TesseraWidth/parquet width times
	// larger than the motif.
	TesseraWidth  int
	TesseraHeight int
	// Record downsampled canvas snapshots while composing.
	Animate bool
	// Divisor applied to the canvas size for each animation frame.
	FrameDownsize int
	// Approximate number of animation frames.
	FrameCount int
	// JPEG quality of the saved mosaic, 1-100.
	JPEGQuality int
}

func DefaultOptions() Options {
	return Options{
		UnitWidth:           10,
		SizeFactor:          6,
		Mode:                Brick,
		Randomness:          0.5,
		Seed:                1,
		SplitThreshold:      20,
		MergeThreshold:      8,
		ThresholdPercentage: 10,
		PrioritizedByChance: 50,
		TesseraWidth:        300,
		TesseraHeight:       200,
		FrameDownsize:       8,
		FrameCount:          100,
		JPEGQuality:         90,
	}
}

// OptionsFromSize targets roughly 40 grid parquets across the motif width.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	unit := max(3, size.X/(40*opt.SizeFactor))
	opt.UnitWidth = unit
	return opt
}

// ParquetSize returns the grid parquet width and height in motif pixels.
func (o Options) ParquetSize() (w, h int) {
	w = o.UnitWidth * o.SizeFactor
	return w, (w / 3) * 2
}

// Scale maps motif pixels to mosaic pixels.
func (o Options) Scale() float64 {
	w, _ := o.ParquetSize()
	return float64(o.TesseraWidth) / float64(w)
}

// Rand returns a generator seeded from Seed.
func (o Options) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15))
}

func (o Options) Validate() error {
	if o.UnitWidth <= 0 || o.SizeFactor <= 0 {
		return fmt.Errorf("%w: unit width and size factor must be positive", ErrInvalidOptions)
	}
	if w, h := o.ParquetSize(); w < 3 || h <= 0 {
		return fmt.Errorf("%w: parquet %dx%d is too small", ErrInvalidOptions, w, h)
	}
	if o.Mode < Vertical || o.Mode > Horizontal {
		return fmt.Errorf("%w: grid mode %d", ErrInvalidOptions, o.Mode)
	}
	if o.Randomness < 0 || o.Randomness > 1 {
		return fmt.Errorf("%w: randomness %g not in [0,1]", ErrInvalidOptions, o.Randomness)
	}
	if o.SplitThreshold < 0 || o.MergeThreshold < 0 {
		return fmt.Errorf("%w: negative color threshold", ErrInvalidOptions)
	}
	if o.ThresholdPercentage < 0 || o.ThresholdPercentage > 100 {
		return fmt.Errorf("%w: threshold percentage %g not in [0,100]", ErrInvalidOptions, o.ThresholdPercentage)
	}
	if o.PrioritizedByChance < 0 || o.PrioritizedByChance > 100 {
		return fmt.Errorf("%w: prioritized by chance %g not in [0,100]", ErrInvalidOptions, o.PrioritizedByChance)
	}
	if o.TesseraWidth <= 0 || o.TesseraHeight <= 0 {
		return fmt.Errorf("%w: tessera size %dx%d", ErrInvalidOptions, o.TesseraWidth, o.TesseraHeight)
	}
	if o.Animate && (o.FrameDownsize <= 0 || o.FrameCount <= 0) {
		return fmt.Errorf("%w: animation needs positive frame downsize and count", ErrInvalidOptions)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d", ErrInvalidOptions, o.JPEGQuality)
	}
	return nil
}
