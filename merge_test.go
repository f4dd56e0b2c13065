package mosaicbuilder

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func mergeOptions(threshold float64) Options {
	opt := gridOptions(Brick, 0, 1)
	opt.MergeThreshold = threshold
	return opt
}

func TestMergeVertical(t *testing.T) {
	m := grayMotif(t, 100, 100)
	a := sampled(t, m, 0, 0, 12, 8, 8)
	b := sampled(t, m, 0, 8, 12, 16, 32)

	out, stats := Merge([]Parquet{a, b}, m, mergeOptions(10))
	if stats.Merged != 1 || len(out) != 1 {
		t.Fatalf("got %d parquets, stats %+v", len(out), stats)
	}
	got := out[0]
	if got.Rect() != image.Rect(0, 0, 12, 16) {
		t.Errorf("merged rect = %v", got.Rect())
	}
	if got.Priority != 64 {
		t.Errorf("priority = %d, want 64", got.Priority)
	}
	if got.Orientation != Portrait {
		t.Errorf("orientation = %s", got.Orientation)
	}
	if got.Area() != a.Area()+b.Area() {
		t.Errorf("area %v != %v + %v", got.Area(), a.Area(), b.Area())
	}
	if got.OnTheEdge {
		t.Error("merged parquet inside the motif flagged on the edge")
	}
}

func TestMergeHorizontal(t *testing.T) {
	m := grayMotif(t, 100, 100)
	// Listed right to left to exercise both adjoining orders.
	a := sampled(t, m, 28, 20, 36, 32, 1)
	b := sampled(t, m, 20, 20, 28, 32, 2)

	out, stats := Merge([]Parquet{a, b}, m, mergeOptions(10))
	if stats.Merged != 1 {
		t.Fatalf("stats %+v", stats)
	}
	if got := out[0]; got.Rect() != image.Rect(20, 20, 36, 32) || got.Orientation != Landscape || got.OnTheEdge {
		t.Errorf("merged = %v %s edge %v", got.Rect(), got.Orientation, got.OnTheEdge)
	}
}

func TestMergeRejects(t *testing.T) {
	m, _ := NewMotif(quadImage(100, 100, red, red, white, white))
	tests := []struct {
		name      string
		a, b      [4]float64
		threshold float64
		aborted   int
	}{
		{"exceeds grid parquet", [4]float64{0, 0, 24, 16}, [4]float64{0, 16, 24, 32}, 255, 1},
		{"too wide", [4]float64{0, 0, 24, 16}, [4]float64{24, 0, 48, 16}, 255, 0},
		{"partial edge", [4]float64{0, 0, 12, 8}, [4]float64{12, 0, 20, 6}, 255, 0},
		{"gap", [4]float64{0, 0, 12, 8}, [4]float64{0, 9, 12, 17}, 255, 0},
		{"different colors", [4]float64{0, 42, 12, 50}, [4]float64{0, 50, 12, 58}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sampled(t, m, tt.a[0], tt.a[1], tt.a[2], tt.a[3], 4)
			b := sampled(t, m, tt.b[0], tt.b[1], tt.b[2], tt.b[3], 4)
			out, stats := Merge([]Parquet{a, b}, m, mergeOptions(tt.threshold))
			if stats.Merged != 0 || len(out) != 2 {
				t.Fatalf("merged: %d parquets, stats %+v", len(out), stats)
			}
			if stats.Aborted != tt.aborted {
				t.Errorf("aborted = %d, want %d", stats.Aborted, tt.aborted)
			}
			if out[0] != a || out[1] != b {
				t.Error("unmerged parquets changed")
			}
		})
	}
}

func TestMergeThresholdColors(t *testing.T) {
	m, _ := NewMotif(quadImage(100, 100, red, red, white, white))
	a := sampled(t, m, 0, 42, 12, 50, 4)
	b := sampled(t, m, 0, 50, 12, 58, 4)
	if out, _ := Merge([]Parquet{a, b}, m, mergeOptions(0)); len(out) != 2 {
		t.Errorf("red and white merged at threshold 0")
	}
	if out, _ := Merge([]Parquet{a, b}, m, mergeOptions(255)); len(out) != 1 {
		t.Errorf("red and white not merged at threshold 255")
	} else if out[0].Average != (RGB{255, 127, 127}) {
		t.Errorf("merged average = %v", out[0].Average)
	}
}

func TestMergeOrder(t *testing.T) {
	m := grayMotif(t, 100, 100)
	column := []Parquet{
		sampled(t, m, 40, 40, 52, 48, 1),
		sampled(t, m, 40, 48, 52, 56, 1),
		sampled(t, m, 40, 56, 52, 64, 1),
		sampled(t, m, 10, 10, 22, 18, 1),
	}
	out, stats := Merge(column, m, mergeOptions(10))
	if stats.Merged != 1 || len(out) != 3 {
		t.Fatalf("got %d parquets, stats %+v", len(out), stats)
	}
	if out[0].Rect() != image.Rect(40, 40, 52, 56) {
		t.Errorf("first pair merged into %v", out[0].Rect())
	}
	if out[1] != column[2] || out[2] != column[3] {
		t.Error("unmerged parquets out of order")
	}
}

func TestMergeGridConservesArea(t *testing.T) {
	m := grayMotif(t, 100, 100)
	opt := mergeOptions(255)
	grid, err := GenerateGrid(m, opt, opt.Rand())
	if err != nil {
		t.Fatal(err)
	}
	out, stats := Merge(grid, m, opt)
	if len(out) != len(grid)-stats.Merged {
		t.Errorf("%d parquets after %d merges of %d", len(out), stats.Merged, len(grid))
	}
	for i, c := range coverage(out, m.Bounds()) {
		if c != 1 {
			t.Fatalf("pixel (%d,%d) covered %d times", i%100, i/100, c)
		}
	}
	wp, hp := opt.ParquetSize()
	for _, p := range out {
		crop := p.Rect().Intersect(m.Bounds())
		long, short := max(crop.Dx(), crop.Dy()), min(crop.Dx(), crop.Dy())
		if long > wp || short > hp {
			t.Errorf("parquet %v exceeds %dx%d", crop, wp, hp)
		}
	}
}

func TestMergeFileMissingMotif(t *testing.T) {
	in := []Parquet{NewParquet(0, 0, 48, 32, Landscape)}
	if _, _, err := MergeFile(in, filepath.Join(t.TempDir(), "missing.png"), DefaultOptions()); err == nil {
		t.Error("expected an error for a missing motif")
	}
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motif.png")
	if err := imaging.Save(imaging.New(50, 50, gray), path); err != nil {
		t.Fatal(err)
	}
	m := grayMotif(t, 50, 50)
	in := []Parquet{sampled(t, m, 0, 0, 12, 8, 1), sampled(t, m, 0, 8, 12, 16, 1)}
	out, stats, err := MergeFile(in, path, mergeOptions(10))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Merged != 1 || len(out) != 1 {
		t.Errorf("got %d parquets, stats %+v", len(out), stats)
	}
}

func TestMergeEdgeFlag(t *testing.T) {
	m := grayMotif(t, 100, 100)
	a := sampled(t, m, 92, 0, 104, 8, 0)
	b := sampled(t, m, 92, 8, 104, 16, 0)
	out, _ := Merge([]Parquet{a, b}, m, mergeOptions(10))
	if len(out) != 1 {
		t.Fatalf("got %d parquets", len(out))
	}
	if !out[0].OnTheEdge || out[0].Priority != 0 {
		t.Errorf("merged edge parquet: edge %v priority %d", out[0].OnTheEdge, out[0].Priority)
	}
	if out[0].Rect() != image.Rect(92, 0, 104, 16) {
		t.Errorf("merged rect = %v", out[0].Rect())
	}
}
