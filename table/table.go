// Package table reads and writes the CSV tables passed between pipeline
// steps: parquets, the tesserae index and assignment candidates.
package table

import (
	"encoding/csv"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	mb "github.com/setanarut/mosaicbuilder"
)

var coordColumns = []string{"x1", "y1", "x2", "y2", "x3", "y3", "x4", "y4"}

// quadrantPrefixes follow mb.Quadrant order.
var quadrantPrefixes = []string{"tl", "tr", "bl", "br"}

func ParquetHeader() []string {
	h := append([]string{}, coordColumns...)
	h = append(h, "avg_r", "avg_g", "avg_b", "on_the_edge", "orientation", "priority")
	for _, q := range quadrantPrefixes {
		h = append(h, q+"_r", q+"_g", q+"_b")
	}
	return h
}

var TesseraHeader = []string{
	"Image Path", "Average Color", "Original Dimensions", "Orientation",
	"Top-Left Color", "Top-Right Color", "Bottom-Left Color", "Bottom-Right Color",
	"Priority", "Cropable",
}

func CandidateHeader() []string {
	h := append([]string{}, coordColumns...)
	h = append(h, "on_the_edge", "orientation", "priority", "candidate_path", "candidate_score")
	for _, side := range []string{"parquet", "tessera"} {
		h = append(h, side+"_avg_r", side+"_avg_g", side+"_avg_b")
		for _, q := range quadrantPrefixes {
			h = append(h, side+"_"+q+"_r", side+"_"+q+"_g", side+"_"+q+"_b")
		}
	}
	return h
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func colorFields(c mb.RGB) []string {
	return []string{formatFloat(c[0]), formatFloat(c[1]), formatFloat(c[2])}
}

func cornerFields(p mb.Parquet) []string {
	out := make([]string, 0, 8)
	for _, c := range p.Corners {
		out = append(out, formatFloat(c.X), formatFloat(c.Y))
	}
	return out
}

// formatTuple writes a color or size the way the index has always stored it: "(r, g, b)".
func formatTuple(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func parseTuple(s string, n int) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("tuple %q: want %d values", s, n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("tuple %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// row gives named access to one record.
type row struct {
	cols   map[string]int
	record []string
	line   int
	err    error
}

func (r *row) str(name string) string {
	if r.err != nil {
		return ""
	}
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		r.err = fmt.Errorf("line %d: missing column %q", r.line, name)
		return ""
	}
	return r.record[i]
}

func (r *row) number(name string) float64 {
	s := r.str(name)
	if r.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		r.err = fmt.Errorf("line %d: column %q: %w", r.line, name, err)
	}
	return v
}

func (r *row) integer(name string) int {
	v := r.number(name)
	return int(v)
}

func (r *row) color(prefix string) mb.RGB {
	return mb.RGB{r.number(prefix + "_r"), r.number(prefix + "_g"), r.number(prefix + "_b")}
}

func (r *row) tuple(name string, n int) []float64 {
	s := r.str(name)
	if r.err != nil {
		return make([]float64, n)
	}
	v, err := parseTuple(s, n)
	if err != nil {
		r.err = fmt.Errorf("line %d: column %q: %w", r.line, name, err)
		return make([]float64, n)
	}
	return v
}

func (r *row) orientation(name string) mb.Orientation {
	s := r.str(name)
	if r.err != nil {
		return mb.Landscape
	}
	o, err := mb.ParseOrientation(strings.TrimSpace(s))
	if err != nil {
		r.err = fmt.Errorf("line %d: %w", r.line, err)
	}
	return o
}

func (r *row) corners(p *mb.Parquet) {
	for i := range p.Corners {
		p.Corners[i] = mb.Point{X: r.number(coordColumns[2*i]), Y: r.number(coordColumns[2*i+1])}
	}
}

// readRows calls fn for each record after the header.
func readRows(rd io.Reader, fn func(r *row) error) error {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(&row{cols: cols, record: record, line: line}); err != nil {
			return err
		}
	}
}

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func WriteParquets(w io.Writer, parquets []mb.Parquet) error {
	rows := make([][]string, 0, len(parquets))
	for _, p := range parquets {
		rec := cornerFields(p)
		rec = append(rec, colorFields(p.Average)...)
		rec = append(rec, formatBool(p.OnTheEdge), p.Orientation.String(), strconv.Itoa(p.Priority))
		for _, q := range p.Quadrants {
			rec = append(rec, colorFields(q)...)
		}
		rows = append(rows, rec)
	}
	return writeAll(w, ParquetHeader(), rows)
}

func ReadParquets(rd io.Reader) ([]mb.Parquet, error) {
	var out []mb.Parquet
	err := readRows(rd, func(r *row) error {
		var p mb.Parquet
		r.corners(&p)
		p.Average = r.color("avg")
		p.OnTheEdge = r.integer("on_the_edge") != 0
		p.Orientation = r.orientation("orientation")
		p.Priority = r.integer("priority")
		for i, q := range quadrantPrefixes {
			p.Quadrants[i] = r.color(q)
		}
		if r.err != nil {
			return r.err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func WriteTesserae(w io.Writer, tesserae []mb.Tessera) error {
	rows := make([][]string, 0, len(tesserae))
	for _, t := range tesserae {
		cropable := "0"
		if t.Cropable {
			cropable = "1"
		}
		rec := []string{
			t.ImagePath,
			formatTuple(t.Average[:]...),
			formatTuple(float64(t.Dimensions.X), float64(t.Dimensions.Y)),
			t.Orientation.String(),
		}
		for _, q := range t.Quadrants {
			rec = append(rec, formatTuple(q[:]...))
		}
		rec = append(rec, strconv.Itoa(t.Priority), cropable)
		rows = append(rows, rec)
	}
	return writeAll(w, TesseraHeader, rows)
}

func ReadTesserae(rd io.Reader) ([]mb.Tessera, error) {
	var out []mb.Tessera
	err := readRows(rd, func(r *row) error {
		t := mb.Tessera{
			ImagePath:   r.str("Image Path"),
			Orientation: r.orientation("Orientation"),
			Priority:    r.integer("Priority"),
			Cropable:    r.integer("Cropable") != 0,
		}
		t.Average = mb.RGB(r.tuple("Average Color", 3))
		dim := r.tuple("Original Dimensions", 2)
		t.Dimensions = image.Pt(int(dim[0]), int(dim[1]))
		for i, name := range TesseraHeader[4:8] {
			t.Quadrants[i] = mb.RGB(r.tuple(name, 3))
		}
		if r.err != nil {
			return r.err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

func WriteCandidates(w io.Writer, candidates []mb.Candidate) error {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rec := cornerFields(c.Parquet)
		rec = append(rec, formatBool(c.OnTheEdge), c.Orientation.String(), strconv.Itoa(c.Priority),
			c.ImagePath, formatFloat(c.Score))
		rec = append(rec, colorFields(c.Average)...)
		for _, q := range c.Quadrants {
			rec = append(rec, colorFields(q)...)
		}
		rec = append(rec, colorFields(c.TesseraAverage)...)
		for _, q := range c.TesseraQuadrants {
			rec = append(rec, colorFields(q)...)
		}
		rows = append(rows, rec)
	}
	return writeAll(w, CandidateHeader(), rows)
}

func ReadCandidates(rd io.Reader) ([]mb.Candidate, error) {
	var out []mb.Candidate
	err := readRows(rd, func(r *row) error {
		var c mb.Candidate
		r.corners(&c.Parquet)
		c.OnTheEdge = r.integer("on_the_edge") != 0
		c.Orientation = r.orientation("orientation")
		c.Priority = r.integer("priority")
		c.ImagePath = r.str("candidate_path")
		c.Score = r.number("candidate_score")
		c.Average = r.color("parquet_avg")
		c.TesseraAverage = r.color("tessera_avg")
		for i, q := range quadrantPrefixes {
			c.Quadrants[i] = r.color("parquet_" + q)
			c.TesseraQuadrants[i] = r.color("tessera_" + q)
		}
		if r.err != nil {
			return r.err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

func save(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func load[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func SaveParquets(path string, parquets []mb.Parquet) error {
	return save(path, func(w io.Writer) error { return WriteParquets(w, parquets) })
}

func LoadParquets(path string) ([]mb.Parquet, error) {
	return load(path, ReadParquets)
}

func SaveTesserae(path string, tesserae []mb.Tessera) error {
	return save(path, func(w io.Writer) error { return WriteTesserae(w, tesserae) })
}

func LoadTesserae(path string) ([]mb.Tessera, error) {
	return load(path, ReadTesserae)
}

func SaveCandidates(path string, candidates []mb.Candidate) error {
	return save(path, func(w io.Writer) error { return WriteCandidates(w, candidates) })
}

func LoadCandidates(path string) ([]mb.Candidate, error) {
	return load(path, ReadCandidates)
}
