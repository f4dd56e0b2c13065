package mosaicbuilder

import (
	"image"
	"path/filepath"
	"reflect"
	"testing"
)

func sampled(t *testing.T, s Sampler, x1, y1, x3, y3 float64, prio int) Parquet {
	t.Helper()
	p := NewParquet(x1, y1, x3, y3, orientationOf(x3-x1, y3-y1))
	p.Priority = prio
	p.OnTheEdge = p.cornersInside(s.Bounds()) < 4
	if !p.sample(s) {
		t.Fatalf("parquet %v outside sampler", p.Corners)
	}
	return p
}

func TestSplitQuarters(t *testing.T) {
	m, _ := NewMotif(quadImage(48, 32, red, green, blue, white))
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 10
	parent := sampled(t, m, 0, 0, 48, 32, 1024)
	parent.OnTheEdge = false

	out, stats := Split([]Parquet{parent}, m, opt)
	if stats.Split != 1 || len(out) != 4 {
		t.Fatalf("got %d parquets, stats %+v", len(out), stats)
	}
	wantColors := []RGB{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}
	area := 0.0
	for i, q := range out {
		if q.Priority != 256 {
			t.Errorf("quarter %d priority = %d, want 256", i, q.Priority)
		}
		if q.Width() != 24 || q.Height() != 16 || q.Orientation != Landscape {
			t.Errorf("quarter %d is %vx%v %s", i, q.Width(), q.Height(), q.Orientation)
		}
		if q.Average != wantColors[i] {
			t.Errorf("quarter %d average = %v, want %v", i, q.Average, wantColors[i])
		}
		area += q.Area()
	}
	if area != parent.Area() {
		t.Errorf("quarters cover %v, parent %v", area, parent.Area())
	}
}

func TestSplitSkips(t *testing.T) {
	m, _ := NewMotif(quadImage(96, 96, red, green, blue, white))
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 10

	contrast := Quadrants{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}
	small := NewParquet(0, 0, 12, 8, Landscape)
	small.Quadrants = contrast
	square := NewParquet(0, 0, 48, 48, Portrait)
	square.Quadrants = contrast
	flat := NewParquet(0, 0, 48, 32, Landscape)
	flat.Quadrants = Quadrants{{9, 9, 9}, {10, 10, 10}, {9, 9, 9}, {9, 9, 9}}

	in := []Parquet{small, square, flat}
	out, stats := Split(in, m, opt)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("parquets changed: %v", out)
	}
	want := SplitStats{TooSmall: 1, Aspect: 1, Uniform: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSplitUniformGrid(t *testing.T) {
	m := grayMotif(t, 100, 100)
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 0
	grid, err := GenerateGrid(m, opt, opt.Rand())
	if err != nil {
		t.Fatal(err)
	}
	out, stats := Split(grid, m, opt)
	if stats.Split != 0 {
		t.Errorf("split %d parquets of a uniform image", stats.Split)
	}
	if !reflect.DeepEqual(out, grid) {
		t.Error("uniform grid changed")
	}
}

func TestSplitDropsOutsideQuarters(t *testing.T) {
	m, _ := NewMotif(quadImage(48, 32, red, green, blue, white))
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 10
	p := NewParquet(-24, -16, 24, 16, Landscape)
	p.OnTheEdge = true
	p.Priority = 8
	p.Quadrants = Quadrants{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}

	out, stats := Split([]Parquet{p}, m, opt)
	if stats.Split != 1 || len(out) != 1 {
		t.Fatalf("got %d parquets, stats %+v", len(out), stats)
	}
	q := out[0]
	if q.Rect() != image.Rect(0, 0, 24, 16) {
		t.Errorf("kept quarter %v", q.Rect())
	}
	if q.OnTheEdge || q.Priority != 2 || q.Average != (RGB{255, 0, 0}) {
		t.Errorf("quarter = %+v", q)
	}
}

func TestSplitSnapsHalfToEven(t *testing.T) {
	m, _ := NewMotif(quadImage(100, 100, red, green, blue, white))
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 10
	p := NewParquet(1, 0, 40, 26, Landscape)
	p.Quadrants = Quadrants{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}

	out, _ := Split([]Parquet{p}, m, opt)
	if len(out) != 4 {
		t.Fatalf("got %d parquets", len(out))
	}
	// The vertical cut at 20.5 rounds down to 20.
	if got := out[0].Rect(); got != image.Rect(1, 0, 20, 13) {
		t.Errorf("first quarter %v", got)
	}
	if got := out[3].Rect(); got != image.Rect(20, 13, 40, 26) {
		t.Errorf("last quarter %v", got)
	}
}

func TestSplitFileMissingMotif(t *testing.T) {
	in := []Parquet{NewParquet(0, 0, 48, 32, Landscape)}
	out, stats := SplitFile(in, filepath.Join(t.TempDir(), "missing.png"), DefaultOptions())
	if !reflect.DeepEqual(out, in) || stats != (SplitStats{}) {
		t.Errorf("got %v %+v", out, stats)
	}
}

// faultySampler reports a valid motif but fails on every read.
type faultySampler struct{}

func (faultySampler) Bounds() image.Rectangle  { return image.Rect(0, 0, 96, 96) }
func (faultySampler) Mean(image.Rectangle) RGB { panic("sampler failure") }

func TestSplitRecoversFromPanic(t *testing.T) {
	opt := gridOptions(Brick, 0, 1)
	opt.SplitThreshold = 10
	flat := NewParquet(48, 0, 96, 32, Landscape)
	busy := NewParquet(0, 0, 48, 32, Landscape)
	busy.Quadrants = Quadrants{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 255}}
	busy.Priority = 1024

	in := []Parquet{flat, busy}
	out, stats := Split(in, faultySampler{}, opt)
	if !reflect.DeepEqual(out, in) {
		t.Errorf("parquets changed: %v", out)
	}
	if len(out) > 0 && &out[0] != &in[0] {
		t.Error("fallback did not return the input slice")
	}
	if stats != (SplitStats{}) {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
