// Package catalog prepares and indexes the donor photos of a mosaic.
//
// Tesserae are sorted into folders. Photos below priority/N are placed
// first, lowest N first. Photos below optional/N only take part when
// optional tesserae are folded in. Photos below nocrop/N behave like
// priority/N but only fit 3:2 and 2:3 parquets. Photos below unused are
// never indexed. Everything else is filler.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	mb "github.com/setanarut/mosaicbuilder"
)

// ErrTooSmall is returned by CropTile for photos smaller than the tessera.
var ErrTooSmall = errors.New("tile image is too small")

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// ImagePaths lists the images below root in lexical order.
func ImagePaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// Class is the role a folder layout assigns to a photo.
type Class int

const (
	Filler Class = iota
	Prioritized
	Optional
	NoCrop
	Unused
)

func (c Class) String() string {
	switch c {
	case Prioritized:
		return "priority"
	case Optional:
		return "optional"
	case NoCrop:
		return "nocrop"
	case Unused:
		return "unused"
	default:
		return "filler"
	}
}

// Classify derives class, priority and cropability from the folders of
// rel, a slash or OS separated path relative to the catalog root.
// Optional photos get a negative priority. A missing or malformed number
// after priority, optional or nocrop leaves the defaults in place.
func Classify(rel string) (class Class, priority int, cropable bool) {
	parts := strings.FieldsFunc(filepath.ToSlash(filepath.Dir(rel)), func(r rune) bool { return r == '/' })
	suffix := func(name string) (int, bool) {
		i := slices.Index(parts, name)
		if i < 0 || i+1 >= len(parts) {
			return 0, false
		}
		n, err := strconv.Atoi(parts[i+1])
		return n, err == nil
	}
	cropable = true
	switch {
	case slices.Contains(parts, "priority"):
		class = Prioritized
		priority, _ = suffix("priority")
	case slices.Contains(parts, "optional"):
		class = Optional
		if n, ok := suffix("optional"); ok {
			priority = -n
		}
	case slices.Contains(parts, "nocrop"):
		class = NoCrop
		if n, ok := suffix("nocrop"); ok {
			priority = n
			cropable = false
		}
	case slices.Contains(parts, "unused"):
		class = Unused
	}
	return class, priority, cropable
}

// Describe measures a decoded tessera.
func Describe(path string, img image.Image) (mb.Tessera, error) {
	m, err := mb.NewMotif(img)
	if err != nil {
		return mb.Tessera{}, fmt.Errorf("%s: %w", path, err)
	}
	avg, quads := mb.SampleRegion(m, m.Bounds())
	o := mb.Portrait
	if m.W > m.H {
		o = mb.Landscape
	}
	return mb.Tessera{
		ImagePath:   path,
		Average:     avg,
		Quadrants:   quads,
		Orientation: o,
		Dimensions:  image.Pt(m.W, m.H),
		Cropable:    true,
	}, nil
}

// IndexOptions controls Index.
type IndexOptions struct {
	// FoldOptional turns optional/N photos into priority N tesserae.
	FoldOptional bool
}

// Stats counts what Index saw.
type Stats struct {
	Landscape, Portrait int
	Counts              map[Class]int
	Failed              int
}

// Index walks root and measures every usable tessera. Unreadable photos
// are logged and skipped.
func Index(root string, opts IndexOptions) ([]mb.Tessera, Stats, error) {
	stats := Stats{Counts: map[Class]int{}}
	paths, err := ImagePaths(root)
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	tesserae := make([]mb.Tessera, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		class, priority, cropable := Classify(rel)
		stats.Counts[class]++
		if opts.FoldOptional && priority < 0 {
			priority = -priority
		}
		if class == Unused || priority < 0 {
			continue
		}
		img, err := imaging.Open(path)
		if err != nil {
			log.Printf("index: skipping %s: %v", path, err)
			stats.Failed++
			continue
		}
		t, err := Describe(path, img)
		if err != nil {
			log.Printf("index: skipping %v", err)
			stats.Failed++
			continue
		}
		t.Priority = priority
		t.Cropable = cropable
		if t.Orientation == mb.Landscape {
			stats.Landscape++
		} else {
			stats.Portrait++
		}
		tesserae = append(tesserae, t)
	}
	log.Printf("Tile Orientation: Landscape: %d, Portrait: %d", stats.Landscape, stats.Portrait)
	log.Printf("Tile Categories: Priority: %d, NoCrop: %d, Included: %d",
		stats.Counts[Prioritized], stats.Counts[NoCrop], stats.Counts[Filler])
	log.Printf("Auxiliary Tiles: Optional: %d, Unused: %d", stats.Counts[Optional], stats.Counts[Unused])
	return tesserae, stats, nil
}

// CropTile centre-crops img to 3:2, or 2:3 when it is not wider than
// tall, and resizes it to size (transposed for portrait photos).
func CropTile(img image.Image, size image.Point) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, mb.ErrEmptyImage
	}
	landscape := w > h
	aspect := 2.0 / 3
	if landscape {
		aspect = 1.5
	}
	nw, nh := w, h
	if float64(w)/float64(h) > aspect {
		nw = int(float64(h) * aspect)
	} else {
		nh = int(float64(w) / aspect)
	}
	crop := image.Rect((w-nw)/2, (h-nh)/2, (w+nw)/2, (h+nh)/2)
	cw, ch := crop.Dx(), crop.Dy()
	target := size
	if !landscape {
		target = image.Pt(size.Y, size.X)
	}
	if cw < target.X || ch < target.Y {
		return nil, fmt.Errorf("%w: %dx%d cropped to %dx%d", ErrTooSmall, w, h, cw, ch)
	}
	cropped := imaging.Crop(img, crop.Add(b.Min))
	return imaging.Resize(cropped, target.X, target.Y, imaging.Lanczos), nil
}

// PrepareTiles clears dst and fills it with cropped and resized copies of
// every photo below src, keeping the folder layout. Photos that cannot be
// used are logged and counted as skipped.
func PrepareTiles(src, dst string, size image.Point) (prepared, skipped int, err error) {
	paths, err := ImagePaths(src)
	if err != nil {
		return 0, 0, fmt.Errorf("walk %s: %w", src, err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return 0, 0, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, 0, err
	}
	for _, path := range paths {
		if err := prepareTile(src, dst, path, size); err != nil {
			log.Printf("Skipping %s: %v", path, err)
			skipped++
			continue
		}
		prepared++
	}
	log.Printf("Cropped and resized %d images, skipped %d", prepared, skipped)
	return prepared, skipped, nil
}

func prepareTile(src, dst, path string, size image.Point) error {
	rel, err := filepath.Rel(src, path)
	if err != nil {
		return err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}
	tile, err := CropTile(img, size)
	if err != nil {
		return err
	}
	out := filepath.Join(dst, strings.TrimSuffix(rel, filepath.Ext(rel))+".png")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return imaging.Save(tile, out)
}

// FolderHash fingerprints the images below root by path and modification
// time.
func FolderHash(root string) (string, error) {
	paths, err := ImagePaths(root)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%d\x00", path, info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Changed reports whether the images below root differ from the
// fingerprint stored at hashPath. The current fingerprint is returned so
// the caller can Record it once the tiles are rebuilt.
func Changed(root, hashPath string) (string, bool, error) {
	sum, err := FolderHash(root)
	if err != nil {
		return "", false, err
	}
	saved, err := os.ReadFile(hashPath)
	if errors.Is(err, fs.ErrNotExist) {
		return sum, true, nil
	}
	if err != nil {
		return "", false, err
	}
	return sum, strings.TrimSpace(string(saved)) != sum, nil
}

// Record stores a fingerprint returned by Changed.
func Record(hashPath, sum string) error {
	if err := os.MkdirAll(filepath.Dir(hashPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(hashPath, []byte(sum), 0o644)
}
