package utils

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	mb "github.com/setanarut/mosaicbuilder"
)

// halves is red on the left and blue on the right.
func halves(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{0, 0, 255, 255})
	for y := range h {
		for x := range w / 2 {
			img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	return img
}

func TestSortPaletteByBrightness(t *testing.T) {
	palette := []colorful.Color{
		{R: 1, G: 1, B: 1},
		{R: 0, G: 0, B: 0},
		{R: 0, G: 1, B: 0},
		{R: 0, G: 0, B: 1},
	}
	SortPaletteByBrightness(palette)
	want := []colorful.Color{
		{R: 0, G: 0, B: 0},
		{R: 0, G: 0, B: 1},
		{R: 0, G: 1, B: 0},
		{R: 1, G: 1, B: 1},
	}
	for i := range want {
		if palette[i] != want[i] {
			t.Fatalf("got %v, want %v", palette, want)
		}
	}
}

func TestExtractPalette(t *testing.T) {
	img := halves(64, 32)
	for _, method := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(method.String(), func(t *testing.T) {
			palette := ExtractPalette(img, 2, method)
			if method == PaletteMethodKMeans {
				// Random seeding may collapse both halves into one cluster.
				if len(palette) == 0 {
					t.Fatal("empty palette")
				}
				return
			}
			if len(palette) != 2 {
				t.Fatalf("got %d colors, want 2", len(palette))
			}
			SortPaletteByBrightness(palette)
			if palette[0].B < 0.8 || palette[1].R < 0.8 {
				t.Errorf("palette = %v, want blue then red", palette)
			}
		})
	}
	if p := ExtractPalette(img, 0, PaletteMethodKMeans); p != nil {
		t.Errorf("k=0 gave %v", p)
	}
}

func TestParsePaletteMethod(t *testing.T) {
	if ParsePaletteMethod("kmeans") != PaletteMethodKMeans {
		t.Error("kmeans")
	}
	if ParsePaletteMethod("") != PaletteMethodDominantColor {
		t.Error("default")
	}
}

func TestImageFiles(t *testing.T) {
	dir := t.TempDir()
	img := halves(20, 10)
	pngPath := filepath.Join(dir, "a.png")
	if err := SaveImage(img, pngPath); err != nil {
		t.Fatal(err)
	}
	got, err := ReadImage(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := got.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("red channel = %d", r>>8)
	}

	jpgPath := filepath.Join(dir, "a.jpg")
	if err := SaveJPEG(img, jpgPath, 80); err != nil {
		t.Fatal(err)
	}
	if got, err := ReadImage(jpgPath); err != nil || got.Bounds().Size() != image.Pt(20, 10) {
		t.Errorf("jpeg round trip: %v, %v", got, err)
	}

	// Formats beyond PNG and JPEG open like motifs do in the pipeline.
	for _, name := range []string{"a.tif", "a.bmp"} {
		path := filepath.Join(dir, name)
		if err := imaging.Save(img, path); err != nil {
			t.Fatal(err)
		}
		got, err := ReadImage(path)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if r, _, _, _ := got.At(0, 0).RGBA(); r>>8 != 255 {
			t.Errorf("%s: red channel = %d", name, r>>8)
		}
	}

	if _, err := ReadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file: expected an error")
	}
}

func TestSavePalette(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.png")
	palette := []colorful.Color{{R: 1}, {B: 1}}
	if err := SavePalette(palette, 8, path); err != nil {
		t.Fatal(err)
	}
	img, err := ReadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(16, 8) {
		t.Errorf("size = %v", img.Bounds().Size())
	}
	if _, _, b, _ := img.At(12, 4).RGBA(); b>>8 != 255 {
		t.Errorf("second swatch blue = %d", b>>8)
	}
	if err := SavePalette(nil, 8, path); err == nil {
		t.Error("empty palette: expected an error")
	}
}

func TestDrawParquets(t *testing.T) {
	img := imaging.New(20, 20, color.White)
	green := color.NRGBA{0, 255, 0, 255}
	parquets := []mb.Parquet{
		mb.NewParquet(2, 2, 11, 8, mb.Landscape),
		mb.NewParquet(15, 15, 30, 30, mb.Landscape),
	}
	out := DrawParquets(img, parquets, green)
	tests := []struct {
		x, y    int
		outline bool
	}{
		{2, 2, true},
		{10, 5, true},
		{6, 7, true},
		{6, 5, false},
		{15, 19, true},
		{19, 19, false},
	}
	for _, tt := range tests {
		if got := out.NRGBAAt(tt.x, tt.y) == green; got != tt.outline {
			t.Errorf("(%d,%d) outlined = %v, want %v", tt.x, tt.y, got, tt.outline)
		}
	}
	if img.NRGBAAt(2, 2) == green {
		t.Error("source image modified")
	}
}

func TestCoverage(t *testing.T) {
	tesserae := []mb.Tessera{
		{ImagePath: "gray.png", Average: mb.RGB{128, 128, 128}},
		{ImagePath: "red.png", Average: mb.RGB{250, 10, 10}},
		{ImagePath: "blue.png", Average: mb.RGB{0, 0, 245}},
	}
	rep, err := Coverage(halves(64, 32), tesserae, 2, PaletteMethodDominantColor)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Matches) != 2 {
		t.Fatalf("matches = %v", rep.Matches)
	}
	if rep.Matches[0].Tessera != "blue.png" || rep.Matches[1].Tessera != "red.png" {
		t.Errorf("matches = %+v", rep.Matches)
	}
	if rep.MaxDistance < rep.MeanDistance || rep.MaxDistance > 40 {
		t.Errorf("mean %v, max %v", rep.MeanDistance, rep.MaxDistance)
	}
	var buf bytes.Buffer
	if err := rep.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "mean distance") {
		t.Errorf("report = %q", buf.String())
	}
	if _, err := Coverage(halves(4, 4), nil, 2, PaletteMethodDominantColor); err == nil {
		t.Error("empty catalog: expected an error")
	}
}
