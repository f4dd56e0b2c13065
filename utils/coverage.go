package utils

import (
	"fmt"
	"image"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	mb "github.com/setanarut/mosaicbuilder"
)

// Match is the catalog tessera closest to one motif palette color.
type Match struct {
	Color    colorful.Color
	Tessera  string
	Average  mb.RGB
	Distance float64 // RGB distance between the color and the tessera average
}

// CoverageReport tells how well a catalog can render a motif.
type CoverageReport struct {
	Matches      []Match
	MeanDistance float64
	MaxDistance  float64
}

// Coverage extracts k palette colors from img and pairs each with the
// tessera whose average color is nearest.
func Coverage(img image.Image, tesserae []mb.Tessera, k int, method PaletteMethod) (CoverageReport, error) {
	if len(tesserae) == 0 {
		return CoverageReport{}, fmt.Errorf("coverage: empty catalog")
	}
	palette := ExtractPalette(img, k, method)
	if len(palette) == 0 {
		return CoverageReport{}, fmt.Errorf("coverage: %w", mb.ErrEmptyImage)
	}
	SortPaletteByBrightness(palette)
	var rep CoverageReport
	dists := make([]float64, len(palette))
	for i, c := range palette {
		rgb := mb.RGBFromColorful(c)
		best := 0
		for j := range tesserae {
			if rgb.Dist2(tesserae[j].Average) < rgb.Dist2(tesserae[best].Average) {
				best = j
			}
		}
		t := tesserae[best]
		rep.Matches = append(rep.Matches, Match{
			Color:    c,
			Tessera:  t.ImagePath,
			Average:  t.Average,
			Distance: rgb.Dist(t.Average),
		})
		dists[i] = rep.Matches[i].Distance
	}
	rep.MeanDistance = stat.Mean(dists, nil)
	rep.MaxDistance = floats.Max(dists)
	return rep, nil
}

// Write prints the report, one palette color per line.
func (r CoverageReport) Write(w io.Writer) error {
	for _, m := range r.Matches {
		if _, err := fmt.Fprintf(w, "%s -> %s %s (distance %.1f)\n", m.Color.Hex(), m.Average.Colorful().Hex(), m.Tessera, m.Distance); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "mean distance %.1f, max distance %.1f\n", r.MeanDistance, r.MaxDistance)
	return err
}
