package mosaicbuilder

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
)

func TestMosaicBuilder(t *testing.T) {
	motif := quadImage(120, 80, red, green, blue, white)
	tesserae := []Tessera{
		{ImagePath: "red", Average: RGB{255, 0, 0}, Cropable: true},
		{ImagePath: "green", Average: RGB{0, 255, 0}, Cropable: true},
		{ImagePath: "blue", Average: RGB{0, 0, 255}, Cropable: true},
		{ImagePath: "white", Average: RGB{255, 255, 255}, Cropable: true},
	}
	mb, err := NewMosaicBuilder(motif, tesserae)
	if err != nil {
		t.Fatal(err)
	}
	opt := gridOptions(Brick, 0.5, 11)
	opt.TesseraWidth = 48
	opt.TesseraHeight = 32
	if err := mb.Build(opt); err != nil {
		t.Fatal(err)
	}
	if len(mb.Grid) == 0 || len(mb.Parquets) == 0 {
		t.Fatal("no parquets")
	}
	if len(mb.Candidates) != len(mb.Parquets) {
		t.Errorf("%d candidates for %d parquets", len(mb.Candidates), len(mb.Parquets))
	}
	for _, tt := range mb.Tesserae {
		if tt.UsageCount != 0 {
			t.Errorf("catalog usage of %s changed to %d", tt.ImagePath, tt.UsageCount)
		}
	}

	loader := mapLoader{}
	for _, tt := range tesserae {
		loader[tt.ImagePath] = imaging.New(48, 32, tt.Average.RGBA())
	}
	opt.JPEGQuality = 80
	cp, err := mb.Render(loader, opt)
	if err != nil {
		t.Fatal(err)
	}
	// Edge slots are clipped to the motif, so the canvas is the motif scaled by 2.
	if got := cp.Canvas().Bounds().Size(); got != image.Pt(240, 160) {
		t.Errorf("canvas %v", got)
	}
	if r := cp.Report(); r.Placed != len(mb.Candidates) || r.Skipped != 0 {
		t.Errorf("report %+v", r)
	}
}

func TestMosaicBuilderErrors(t *testing.T) {
	if _, err := NewMosaicBuilder(image.NewNRGBA(image.Rectangle{}), nil); err == nil {
		t.Error("expected an error for an empty motif")
	}
	mb, _ := NewMosaicBuilder(imaging.New(10, 10, gray), nil)
	opt := DefaultOptions()
	opt.Randomness = 2
	if err := mb.Build(opt); err == nil {
		t.Error("expected an error for invalid options")
	}
}
