package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	mb "github.com/setanarut/mosaicbuilder"
)

// ReadImage opens an image the same way the pipeline stages do.
func ReadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SaveJPEG writes img with the given quality, 1 to 100.
func SaveJPEG(img image.Image, filename string, quality int) error {
	return imaging.Save(img, filename, imaging.JPEGQuality(quality))
}

// SavePalette writes the palette as a row of square swatches.
func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	if len(palette) == 0 {
		return errors.New("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, tileSize*len(palette), tileSize))
	for i, c := range palette {
		swatch := image.Rect(i*tileSize, 0, (i+1)*tileSize, tileSize)
		draw.Draw(img, swatch, image.NewUniform(mb.RGBFromColorful(c).RGBA()), image.Point{}, draw.Src)
	}
	return SaveImage(img, filename)
}

// DrawParquets outlines every parquet on a copy of img.
func DrawParquets(img image.Image, parquets []mb.Parquet, c color.Color) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	line := image.NewUniform(c)
	for _, p := range parquets {
		r := p.Rect().Add(b.Min)
		edges := []image.Rectangle{
			image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
			image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
			image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
			image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(out, e.Intersect(b), line, image.Point{}, draw.Src)
		}
	}
	return out
}
