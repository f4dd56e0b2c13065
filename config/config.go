package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	mb "github.com/setanarut/mosaicbuilder"
)

// Config is the mosaic.yaml file shared by all pipeline steps.
type Config struct {
	BasePath string `yaml:"base_path"` // Relative paths below are resolved against it

	MotifPath            string `yaml:"motif_path"`
	TileFolder           string `yaml:"tile_folder"`     // Raw tesserae photos
	TesseraeFolder       string `yaml:"tesserae_folder"` // Cropped and resized tesserae
	ParquetsCSVPath      string `yaml:"parquets_csv_path"`
	TesseraeIndexPath    string `yaml:"tesserae_index_path"`
	CandidatesOutputPath string `yaml:"candidates_output_path"`
	OutputPath           string `yaml:"output_path"`
	HashFilePath         string `yaml:"hash_file_path"` // Tile folder fingerprint from the last tiles step
	ForceRefresh         bool   `yaml:"force_refresh"`

	TesseraWidth     int  `yaml:"tessera_width"`
	TesseraHeight    int  `yaml:"tessera_height"`
	OptionalTesserae bool `yaml:"optional_tesserae"` // Fold optional/N folders into priority N

	IMode                *int     `yaml:"imode"` // -1 vertical, 0 brick, 1 horizontal
	ParquetUnitWidth     int      `yaml:"parquet_unit_width"`
	ParquetSizeFactor    int      `yaml:"parquet_size_factor"`
	RandomnessPercentage *float64 `yaml:"randomness_percentage"`
	Seed                 *uint64  `yaml:"seed"` // Omitted: seeded from the clock at load

	SplitDiff           *float64 `yaml:"split_diff"`
	MergeDiff           *float64 `yaml:"merge_diff"`
	ThresholdPercentage *float64 `yaml:"threshold_percentage"`
	PrioritizedByChance *float64 `yaml:"prioritized_by_chance"`

	MosaicAnime       bool `yaml:"mosaic_anime"`
	AnimeSizeDownsize int  `yaml:"anime_size_downsize"`
	AnimeFPS          int  `yaml:"anime_fps"` // Frames recorded over the whole composition
	MosaicJPGQuality  int  `yaml:"mosaic_jpg_quality"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BasePath == "" {
		cfg.BasePath = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.BasePath) {
		cfg.BasePath = filepath.Join(filepath.Dir(path), cfg.BasePath)
	}
	// Stored tessera paths must not depend on the working directory.
	if cfg.BasePath, err = filepath.Abs(cfg.BasePath); err != nil {
		return nil, fmt.Errorf("failed to resolve base_path: %w", err)
	}
	cfg.setDefaults()
	cfg.resolvePaths()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	def := mb.DefaultOptions()
	if c.TesseraeFolder == "" {
		c.TesseraeFolder = "tesserae"
	}
	if c.ParquetsCSVPath == "" {
		c.ParquetsCSVPath = "parquets.csv"
	}
	if c.TesseraeIndexPath == "" {
		c.TesseraeIndexPath = "tesserae.csv"
	}
	if c.CandidatesOutputPath == "" {
		c.CandidatesOutputPath = "candidates.csv"
	}
	if c.OutputPath == "" {
		c.OutputPath = "mosaic.jpg"
	}
	if c.HashFilePath == "" {
		c.HashFilePath = "tile_folder.hash"
	}
	if c.TesseraWidth == 0 {
		c.TesseraWidth = def.TesseraWidth
	}
	if c.TesseraHeight == 0 {
		c.TesseraHeight = def.TesseraHeight
	}
	if c.Seed == nil {
		c.Seed = ptr(uint64(time.Now().UnixNano()))
	}
	if c.IMode == nil {
		c.IMode = ptr(int(def.Mode))
	}
	if c.ParquetUnitWidth == 0 {
		c.ParquetUnitWidth = def.UnitWidth
	}
	if c.ParquetSizeFactor == 0 {
		c.ParquetSizeFactor = def.SizeFactor
	}
	if c.RandomnessPercentage == nil {
		c.RandomnessPercentage = ptr(def.Randomness * 100)
	}
	if c.SplitDiff == nil {
		c.SplitDiff = ptr(def.SplitThreshold)
	}
	if c.MergeDiff == nil {
		c.MergeDiff = ptr(def.MergeThreshold)
	}
	if c.ThresholdPercentage == nil {
		c.ThresholdPercentage = ptr(def.ThresholdPercentage)
	}
	if c.PrioritizedByChance == nil {
		c.PrioritizedByChance = ptr(def.PrioritizedByChance)
	}
	if c.AnimeSizeDownsize == 0 {
		c.AnimeSizeDownsize = def.FrameDownsize
	}
	if c.AnimeFPS == 0 {
		c.AnimeFPS = def.FrameCount
	}
	if c.MosaicJPGQuality == 0 {
		c.MosaicJPGQuality = def.JPEGQuality
	}
}

func (c *Config) resolvePaths() {
	for _, p := range []*string{
		&c.MotifPath, &c.TileFolder, &c.TesseraeFolder, &c.ParquetsCSVPath,
		&c.TesseraeIndexPath, &c.CandidatesOutputPath, &c.OutputPath, &c.HashFilePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.BasePath, *p)
		}
	}
}

func ptr[T any](v T) *T { return &v }

// Validate checks that every step can run with c.
func (c *Config) Validate() error {
	var errs []error
	if c.MotifPath == "" {
		errs = append(errs, errors.New("motif_path is required"))
	}
	if c.TesseraWidth < c.TesseraHeight {
		errs = append(errs, fmt.Errorf("tessera_width %d is smaller than tessera_height %d", c.TesseraWidth, c.TesseraHeight))
	}
	if err := c.Options().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts c to pipeline options. Call after Load.
func (c *Config) Options() mb.Options {
	opt := mb.DefaultOptions()
	opt.UnitWidth = c.ParquetUnitWidth
	opt.SizeFactor = c.ParquetSizeFactor
	opt.TesseraWidth = c.TesseraWidth
	opt.TesseraHeight = c.TesseraHeight
	opt.Animate = c.MosaicAnime
	opt.FrameDownsize = c.AnimeSizeDownsize
	opt.FrameCount = c.AnimeFPS
	opt.JPEGQuality = c.MosaicJPGQuality
	if c.IMode != nil {
		opt.Mode = mb.GridMode(*c.IMode)
	}
	if c.RandomnessPercentage != nil {
		opt.Randomness = *c.RandomnessPercentage / 100
	}
	if c.SplitDiff != nil {
		opt.SplitThreshold = *c.SplitDiff
	}
	if c.MergeDiff != nil {
		opt.MergeThreshold = *c.MergeDiff
	}
	if c.ThresholdPercentage != nil {
		opt.ThresholdPercentage = *c.ThresholdPercentage
	}
	if c.PrioritizedByChance != nil {
		opt.PrioritizedByChance = *c.PrioritizedByChance
	}
	if c.Seed != nil {
		opt.Seed = *c.Seed
	}
	return opt
}
