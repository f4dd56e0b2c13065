package utils

import (
	"image"
	"image/color"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod accepts the names returned by String.
func ParsePaletteMethod(s string) PaletteMethod {
	if s == "kmeans" {
		return PaletteMethodKMeans
	}
	return PaletteMethodDominantColor
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// kmeansSide bounds the thumbnail k-means clusters on.
const kmeansSide = 128

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	luminance := func(c colorful.Color) float64 {
		r, g, b := c.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		la, lb := luminance(a), luminance(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

// ExtractPalette returns up to k representative colors of img. An empty
// k-means result falls back to dominant colors.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	if k <= 0 || img.Bounds().Empty() {
		return nil
	}
	if method == PaletteMethodKMeans {
		if p := kmeansPalette(img, k); len(p) != 0 {
			return p
		}
		log.Println("palette warning: kmeans returned empty palette, falling back to dominantcolor")
	}
	return dominantPalette(img, k)
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	if len(found) == 0 {
		found = []dominantcolor.Color{{RGBA: color.RGBA{128, 128, 128, 255}, Weight: 1}}
	}
	cands := make([]weightedColor, len(found))
	for i, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		cands[i] = weightedColor{Col: col.Clamped(), Weight: c.Weight}
	}
	return selectDiverse(cands, k)
}

func kmeansPalette(img image.Image, k int) []colorful.Color {
	thumb := imaging.Fit(img, kmeansSide, kmeansSide, imaging.Box)
	b := thumb.Bounds()
	obs := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := thumb.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			obs = append(obs, clusters.Coordinates{
				float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255,
			})
		}
	}
	n := min(max(k*4, k+2), len(obs))
	if n == 0 {
		return nil
	}
	cc, err := kmeans.New().Partition(obs, n)
	if err != nil {
		log.Printf("palette warning: %v", err)
		return nil
	}
	cands := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		cands = append(cands, weightedColor{Col: col.Clamped(), Weight: float64(len(c.Observations))})
	}
	return selectDiverse(cands, k)
}

// selectDiverse greedily picks k colors, starting from the heaviest, each
// maximizing its Lab distance to the picked ones scaled by its weight.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	for i := range cands {
		cands[i].Weight = max(cands[i].Weight, 1e-6)
		maxW = max(maxW, cands[i].Weight)
	}
	heaviest := 0
	for i, c := range cands {
		if c.Weight > cands[heaviest].Weight {
			heaviest = i
		}
	}
	picked := []int{heaviest}
	taken := make([]bool, len(cands))
	taken[heaviest] = true
	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if taken[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, j := range picked {
				nearest = min(nearest, c.Col.DistanceLab(cands[j].Col))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.Weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		taken[best] = true
		picked = append(picked, best)
	}
	out := make([]colorful.Color, len(picked))
	for i, j := range picked {
		out[i] = cands[j].Col
	}
	return out
}
