package mosaicbuilder

import (
	"fmt"
	"image"
	"log"
	"math/rand/v2"
)

// MosaicBuilder runs the whole pipeline in memory: grid, split, merge and
// assignment. Every stage result is kept for inspection.
type MosaicBuilder struct {
	Motif       *Motif
	Tesserae    []Tessera
	Grid        []Parquet
	Parquets    []Parquet
	Candidates  []Candidate
	SplitStats  SplitStats
	MergeStats  MergeStats
	AssignStats AssignStats
}

func NewMosaicBuilder(motif image.Image, tesserae []Tessera) (*MosaicBuilder, error) {
	m, err := NewMotif(motif)
	if err != nil {
		return nil, err
	}
	return &MosaicBuilder{
		Motif:    m,
		Tesserae: tesserae,
	}, nil
}

// Build runs the stages with a generator seeded from opt.Seed.
func (mb *MosaicBuilder) Build(opt Options) error {
	if err := opt.Validate(); err != nil {
		return err
	}
	rng := opt.Rand()
	if err := mb.generateGrid(opt, rng); err != nil {
		return err
	}
	mb.Parquets, mb.SplitStats = Split(mb.Grid, mb.Motif, opt)
	mb.Parquets, mb.MergeStats = Merge(mb.Parquets, mb.Motif, opt)
	mb.assign(opt, rng)
	return nil
}

func (mb *MosaicBuilder) generateGrid(opt Options, rng *rand.Rand) error {
	grid, err := GenerateGrid(mb.Motif, opt, rng)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	mb.Grid = grid
	return nil
}

func (mb *MosaicBuilder) assign(opt Options, rng *rand.Rand) {
	slots := PrepareSlots(mb.Parquets, mb.Motif.Bounds(), opt.Scale())
	// Usage counts belong to this run only.
	tesserae := make([]Tessera, len(mb.Tesserae))
	copy(tesserae, mb.Tesserae)
	mb.Candidates, mb.AssignStats = Assign(slots, tesserae, opt, rng)
	if len(mb.Candidates) < len(slots) {
		log.Printf("builder: %d of %d parquets have no tessera", len(slots)-len(mb.Candidates), len(slots))
	}
}

// Render composes the assigned candidates.
func (mb *MosaicBuilder) Render(loader Loader, opt Options) (*Compositor, error) {
	return Compose(mb.Candidates, loader, opt)
}
