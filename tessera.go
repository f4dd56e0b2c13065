package mosaicbuilder

import "image"

// Tessera is a donor image from the catalog.
type Tessera struct {
	ImagePath   string
	Average     RGB
	Quadrants   Quadrants
	Orientation Orientation
	// Size of the source image in pixels.
	Dimensions image.Point
	// Positive tesserae are placed first, lowest priority first. Zero marks
	// filler images.
	Priority int
	// A tessera that is not cropable only fits 3:2 and 2:3 parquets.
	Cropable bool
	// Placements during the current assignment run.
	UsageCount int
}

// Candidate pairs a placed parquet, in mosaic coordinates, with its tessera.
type Candidate struct {
	Parquet
	ImagePath        string
	TesseraAverage   RGB
	TesseraQuadrants Quadrants
	// Squared RGB distance between the parquet and tessera averages.
	Score float64
}
