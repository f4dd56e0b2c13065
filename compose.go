package mosaicbuilder

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"log"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// Transform is a rigid transform applied to a prepared tile.
type Transform int

const (
	Identity Transform = iota
	FlipH
	FlipV
	Rotate180
)

var transforms = [...]Transform{Identity, FlipH, FlipV, Rotate180}

func (t Transform) String() string {
	switch t {
	case FlipH:
		return "flip_h"
	case FlipV:
		return "flip_v"
	case Rotate180:
		return "rotate_180"
	default:
		return "identity"
	}
}

// Quadrants returns where q ends up after t.
func (t Transform) Quadrants(q Quadrants) Quadrants {
	switch t {
	case FlipH:
		return q.FlipH()
	case FlipV:
		return q.FlipV()
	case Rotate180:
		return q.Rotate180()
	default:
		return q
	}
}

func (t Transform) Apply(img image.Image) *image.NRGBA {
	switch t {
	case FlipH:
		return imaging.FlipH(img)
	case FlipV:
		return imaging.FlipV(img)
	case Rotate180:
		return imaging.Rotate180(img)
	default:
		return imaging.Clone(img)
	}
}

// BestTransform picks the transform whose remapped tile quadrants are
// closest to the parquet quadrants. Earlier transforms win ties.
func BestTransform(parquet, tile Quadrants) Transform {
	best := Identity
	bestD := math.Inf(1)
	for _, t := range transforms {
		if d := t.Quadrants(tile).Mismatch(parquet); d < bestD {
			best, bestD = t, d
		}
	}
	return best
}

// Loader resolves a tessera image path to a decoded image.
type Loader interface {
	Load(path string) (image.Image, error)
}

// FileLoader reads tesserae from disk. Relative paths are resolved against Dir.
type FileLoader struct {
	Dir string
}

func (l FileLoader) Load(path string) (image.Image, error) {
	if l.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.Dir, path)
	}
	return imaging.Open(path)
}

// PrepareTile fits donor to the candidate footprint: rotated a quarter turn
// when its orientation disagrees, centre cropped to the footprint aspect,
// resized, and finally flipped or rotated to best match the parquet quadrants.
func PrepareTile(c Candidate, donor image.Image) (*image.NRGBA, Transform, error) {
	fp := c.Footprint()
	w, h := fp.Dx(), fp.Dy()
	if w <= 0 || h <= 0 {
		return nil, Identity, fmt.Errorf("empty footprint %v", fp)
	}
	db := donor.Bounds()
	if db.Empty() {
		return nil, Identity, ErrEmptyImage
	}
	src := donor
	donorPortrait := db.Dy() > db.Dx()
	if (c.Orientation == Landscape) == donorPortrait {
		src = imaging.Rotate90(donor)
	}

	sb := src.Bounds()
	tw, th := sb.Dx(), sb.Dy()
	pa := float64(w) / float64(h)
	var crop image.Rectangle
	if float64(tw)/float64(th) > pa {
		nw := int(float64(th) * pa)
		left := (tw - nw) / 2
		crop = image.Rect(left, 0, left+nw, th)
	} else {
		nh := int(float64(tw) / pa)
		top := (th - nh) / 2
		crop = image.Rect(0, top, tw, top+nh)
	}
	cropped := imaging.Crop(src, crop.Add(sb.Min))
	if cropped.Bounds().Empty() {
		return nil, Identity, fmt.Errorf("donor %dx%d too small for %dx%d", tw, th, w, h)
	}

	tile := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(tile, tile.Bounds(), cropped, cropped.Bounds(), xdraw.Src, nil)

	m, err := NewMotif(tile)
	if err != nil {
		return nil, Identity, err
	}
	_, q := SampleRegion(m, m.Bounds())
	t := BestTransform(c.Quadrants, q)
	if t == Identity {
		return tile, t, nil
	}
	return t.Apply(tile), t, nil
}

// Compositor pastes prepared tiles onto a canvas spanning every candidate
// and optionally records downsampled snapshots for an animated preview.
type Compositor struct {
	opt      Options
	origin   image.Point
	canvas   *image.NRGBA
	frames   []image.Image
	total    int
	interval int
	next     int
	scores   []float64
	skipped  int
}

func NewCompositor(candidates []Candidate, opt Options) (*Compositor, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	area := candidates[0].Footprint()
	for _, c := range candidates[1:] {
		area = area.Union(c.Footprint())
	}
	if area.Empty() {
		return nil, fmt.Errorf("compose: %w", ErrEmptyImage)
	}
	interval := 1
	if opt.Animate && opt.FrameCount > 0 {
		interval = max(1, len(candidates)/opt.FrameCount)
	}
	return &Compositor{
		opt:      opt,
		origin:   area.Min,
		canvas:   imaging.New(area.Dx(), area.Dy(), color.NRGBA{0, 0, 0, 255}),
		total:    len(candidates),
		interval: interval,
	}, nil
}

// Place pastes the tile for c. Candidates are expected in assignment order;
// each call, successful or not, advances the frame cadence.
func (cp *Compositor) Place(c Candidate, donor image.Image) error {
	i := cp.next
	cp.next++
	tile, _, err := PrepareTile(c, donor)
	if err != nil {
		cp.skipped++
		return err
	}
	at := c.Footprint().Min.Sub(cp.origin)
	xdraw.Draw(cp.canvas, tile.Bounds().Add(at), tile, image.Point{}, xdraw.Src)
	cp.scores = append(cp.scores, c.Score)
	if cp.opt.Animate && (i%cp.interval == 0 || i == cp.total-1) {
		cp.captureFrame()
	}
	return nil
}

// Skip records a candidate that could not be loaded.
func (cp *Compositor) Skip() {
	cp.next++
	cp.skipped++
}

func (cp *Compositor) captureFrame() {
	b := cp.canvas.Bounds()
	down := max(1, cp.opt.FrameDownsize)
	w := uint(max(1, b.Dx()/down))
	h := uint(max(1, b.Dy()/down))
	cp.frames = append(cp.frames, resize.Resize(w, h, cp.canvas, resize.Lanczos3))
}

func (cp *Compositor) Canvas() *image.NRGBA { return cp.canvas }

func (cp *Compositor) Frames() []image.Image { return cp.frames }

// Origin is the motif position of the canvas top-left corner, in mosaic pixels.
func (cp *Compositor) Origin() image.Point { return cp.origin }

// WriteAnimation encodes the recorded frames as a looping GIF, 250ms per frame.
func (cp *Compositor) WriteAnimation(w io.Writer) error {
	if len(cp.frames) == 0 {
		return fmt.Errorf("no animation frames recorded")
	}
	anim := &gif.GIF{LoopCount: 0}
	q := quantize.MedianCutQuantizer{}
	for _, f := range cp.frames {
		pal := q.Quantize(make(color.Palette, 0, 256), f)
		pm := image.NewPaletted(f.Bounds(), pal)
		xdraw.FloydSteinberg.Draw(pm, pm.Bounds(), f, f.Bounds().Min)
		anim.Image = append(anim.Image, pm)
		anim.Delay = append(anim.Delay, 25)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}
	return gif.EncodeAll(w, anim)
}

// Report summarises how well the placed tesserae match the motif.
type Report struct {
	Placed  int
	Skipped int
	// Sum of candidate scores.
	TotalScore float64
	// sqrt(TotalScore) divided by the number of candidates.
	ColourVariance float64
	// ColourVariance relative to the largest possible RGB distance, in dB.
	NoiseDB   float64
	MeanScore float64
	StdDev    float64
}

func (cp *Compositor) Report() Report {
	r := Report{
		Placed:  len(cp.scores),
		Skipped: cp.skipped,
	}
	for _, s := range cp.scores {
		r.TotalScore += s
	}
	if cp.total > 0 {
		r.ColourVariance = math.Sqrt(r.TotalScore) / float64(cp.total)
		r.NoiseDB = 10 * math.Log10(r.ColourVariance/math.Sqrt(MaxDist2))
	}
	if len(cp.scores) > 0 {
		r.MeanScore, r.StdDev = stat.MeanStdDev(cp.scores, nil)
	}
	return r
}

// Compose loads and places every candidate in order. Candidates whose tessera
// cannot be loaded or fitted are logged and left out.
func Compose(candidates []Candidate, loader Loader, opt Options) (*Compositor, error) {
	cp, err := NewCompositor(candidates, opt)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		donor, err := loader.Load(c.ImagePath)
		if err != nil {
			log.Printf("compose: %s: %v", c.ImagePath, err)
			cp.Skip()
			continue
		}
		if err := cp.Place(c, donor); err != nil {
			log.Printf("compose: %s: %v", c.ImagePath, err)
		}
	}
	r := cp.Report()
	log.Printf("compose: placed %d, skipped %d, colour variance %.2f, noise %.2f dB",
		r.Placed, r.Skipped, r.ColourVariance, r.NoiseDB)
	return cp, nil
}

// Save writes the canvas as JPEG with the configured quality.
func (cp *Compositor) Save(path string) error {
	return imaging.Save(cp.canvas, path, imaging.JPEGQuality(cp.opt.JPEGQuality))
}
