// Command mosaic runs the photo mosaic pipeline one step at a time. Every
// step reads the tables written by the previous ones, so a step can be
// re-run on its own after editing mosaic.yaml.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	mb "github.com/setanarut/mosaicbuilder"
	"github.com/setanarut/mosaicbuilder/catalog"
	"github.com/setanarut/mosaicbuilder/config"
	"github.com/setanarut/mosaicbuilder/table"
	"github.com/setanarut/mosaicbuilder/utils"
)

var (
	configPath    = flag.String("config", "mosaic.yaml", "Path to the pipeline configuration")
	paletteSize   = flag.Int("k", 8, "Palette colors checked by the coverage step")
	paletteMethod = flag.String("palette", "dominantcolor", "Palette method for coverage: dominantcolor or kmeans")
)

var overlayColor = color.NRGBA{255, 0, 0, 255}

type pipeline struct {
	cfg *config.Config
	opt mb.Options
}

type step struct {
	name string
	run  func(*pipeline) error
}

var steps = []step{
	{"tiles", (*pipeline).tiles},
	{"index", (*pipeline).index},
	{"grid", (*pipeline).grid},
	{"split", (*pipeline).split},
	{"merge", (*pipeline).merge},
	{"assign", (*pipeline).assign},
	{"compose", (*pipeline).compose},
	{"coverage", (*pipeline).coverage},
}

func usage() {
	names := make([]string, 0, len(steps)+1)
	for _, s := range steps {
		names = append(names, s.name)
	}
	names = append(names, "all")
	fmt.Fprintf(flag.CommandLine.Output(), "usage: mosaic [flags] step...\nsteps: %s\n", strings.Join(names, ", "))
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config %s:\n%v", *configPath, err)
	}
	p := &pipeline{cfg: cfg, opt: cfg.Options()}
	log.Printf("Configuration loaded from %s (seed %d, mode %v)", *configPath, p.opt.Seed, p.opt.Mode)

	for _, name := range flag.Args() {
		if err := p.run(name); err != nil {
			log.Fatalf("%s: %v", name, err)
		}
	}
}

func (p *pipeline) run(name string) error {
	if name == "all" {
		for _, s := range steps {
			if s.name == "coverage" || (s.name == "tiles" && p.cfg.TileFolder == "") {
				continue
			}
			if err := p.run(s.name); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
		}
		return nil
	}
	for _, s := range steps {
		if s.name == name {
			start := time.Now()
			log.Printf("Step %s started", name)
			if err := s.run(p); err != nil {
				return err
			}
			log.Printf("Step %s done in %s", name, time.Since(start).Round(time.Millisecond))
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

func (p *pipeline) tiles() error {
	if p.cfg.TileFolder == "" {
		return fmt.Errorf("tile_folder is not set")
	}
	sum, changed, err := catalog.Changed(p.cfg.TileFolder, p.cfg.HashFilePath)
	if err != nil {
		return err
	}
	if !changed && !p.cfg.ForceRefresh {
		log.Println("No changes detected in the tile folder. Tesserae generation skipped.")
		return nil
	}
	size := image.Pt(p.cfg.TesseraWidth, p.cfg.TesseraHeight)
	if _, _, err := catalog.PrepareTiles(p.cfg.TileFolder, p.cfg.TesseraeFolder, size); err != nil {
		return err
	}
	return catalog.Record(p.cfg.HashFilePath, sum)
}

func (p *pipeline) index() error {
	tesserae, _, err := catalog.Index(p.cfg.TesseraeFolder, catalog.IndexOptions{FoldOptional: p.cfg.OptionalTesserae})
	if err != nil {
		return err
	}
	if len(tesserae) == 0 {
		return fmt.Errorf("no tesserae found in %s", p.cfg.TesseraeFolder)
	}
	return table.SaveTesserae(p.cfg.TesseraeIndexPath, tesserae)
}

func (p *pipeline) grid() error {
	m, err := mb.OpenMotif(p.cfg.MotifPath)
	if err != nil {
		return err
	}
	parquets, err := mb.GenerateGrid(m, p.opt, p.opt.Rand())
	if err != nil {
		return err
	}
	return p.saveParquets("grid", parquets)
}

func (p *pipeline) split() error {
	parquets, err := table.LoadParquets(p.cfg.ParquetsCSVPath)
	if err != nil {
		return err
	}
	parquets, _ = mb.SplitFile(parquets, p.cfg.MotifPath, p.opt)
	return p.saveParquets("split", parquets)
}

func (p *pipeline) merge() error {
	parquets, err := table.LoadParquets(p.cfg.ParquetsCSVPath)
	if err != nil {
		return err
	}
	parquets, _, err = mb.MergeFile(parquets, p.cfg.MotifPath, p.opt)
	if err != nil {
		return err
	}
	return p.saveParquets("merge", parquets)
}

// saveParquets writes the parquet table and an outline of it over the motif.
func (p *pipeline) saveParquets(stage string, parquets []mb.Parquet) error {
	if err := table.SaveParquets(p.cfg.ParquetsCSVPath, parquets); err != nil {
		return err
	}
	motif, err := utils.ReadImage(p.cfg.MotifPath)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(p.cfg.ParquetsCSVPath, filepath.Ext(p.cfg.ParquetsCSVPath))
	overlay := utils.DrawParquets(motif, parquets, overlayColor)
	return utils.SaveJPEG(overlay, base+"_"+stage+".jpg", p.opt.JPEGQuality)
}

func (p *pipeline) assign() error {
	parquets, err := table.LoadParquets(p.cfg.ParquetsCSVPath)
	if err != nil {
		return err
	}
	tesserae, err := table.LoadTesserae(p.cfg.TesseraeIndexPath)
	if err != nil {
		return err
	}
	m, err := mb.OpenMotif(p.cfg.MotifPath)
	if err != nil {
		return err
	}
	slots := mb.PrepareSlots(parquets, m.Bounds(), p.opt.Scale())
	candidates, _ := mb.Assign(slots, tesserae, p.opt, p.opt.Rand())
	return table.SaveCandidates(p.cfg.CandidatesOutputPath, candidates)
}

func (p *pipeline) compose() error {
	candidates, err := table.LoadCandidates(p.cfg.CandidatesOutputPath)
	if err != nil {
		return err
	}
	cp, err := mb.Compose(candidates, mb.FileLoader{Dir: p.cfg.BasePath}, p.opt)
	if err != nil {
		return err
	}
	if err := cp.Save(p.cfg.OutputPath); err != nil {
		return err
	}
	log.Printf("Mosaic saved to %s", p.cfg.OutputPath)
	if !p.opt.Animate {
		return nil
	}
	path := strings.TrimSuffix(p.cfg.OutputPath, filepath.Ext(p.cfg.OutputPath)) + "_progress.gif"
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cp.WriteAnimation(f); err != nil {
		f.Close()
		return err
	}
	log.Printf("Animation saved to %s", path)
	return f.Close()
}

func (p *pipeline) coverage() error {
	motif, err := utils.ReadImage(p.cfg.MotifPath)
	if err != nil {
		return err
	}
	tesserae, err := table.LoadTesserae(p.cfg.TesseraeIndexPath)
	if err != nil {
		return err
	}
	rep, err := utils.Coverage(motif, tesserae, *paletteSize, utils.ParsePaletteMethod(*paletteMethod))
	if err != nil {
		return err
	}
	return rep.Write(os.Stdout)
}
