package probe

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/npy"
)

// ErrNoProbes is returned when a dataset is requested from a case without
// probes.
var ErrNoProbes = errors.New("no probes")

// ErrMixedDimensions is returned when the probes of one capture sample
// fields with different numbers of components.
var ErrMixedDimensions = errors.New("probes sample fields with different numbers of components")

// Dataset is a captured probe series: one coordinate per probe, the time
// axis, and the (time, probe, component) data array.
type Dataset struct {
	Coords []Coord
	Times  []float64
	Data   *npy.Array
}

// Validate checks that the data array matches the coordinates and times.
func (d *Dataset) Validate() error {
	if d.Data == nil {
		return nil
	}
	if err := d.Data.Validate(); err != nil {
		return err
	}
	if len(d.Data.Shape) != 3 {
		return fmt.Errorf("data must have 3 dimensions, got shape %v", d.Data.Shape)
	}
	if d.Data.Shape[0] != len(d.Times) {
		return fmt.Errorf("data has %d time rows for %d times", d.Data.Shape[0], len(d.Times))
	}
	if d.Data.Shape[1] != len(d.Coords) {
		return fmt.Errorf("data has %d probe columns for %d coordinates", d.Data.Shape[1], len(d.Coords))
	}
	return nil
}

// Coords returns the coordinates of the registered probes.
func (c *Case) Coords() []Coord {
	coords := make([]Coord, len(c.probes))
	for i, p := range c.probes {
		coords[i] = p.Coord
	}
	return coords
}

// Dim returns the number of components shared by every probe. It fails
// with ErrMixedDimensions as soon as probes are placed on fields that
// cannot be stacked together.
func (c *Case) Dim() (int, error) {
	if len(c.probes) == 0 {
		return 0, ErrNoProbes
	}
	first := c.probes[0]
	dim := c.fields[first.Field]
	for _, p := range c.probes[1:] {
		if d := c.fields[p.Field]; d != dim {
			return 0, fmt.Errorf("%w: %s has %d, %s has %d", ErrMixedDimensions, p.Name, d, first.Name, dim)
		}
	}
	return dim, nil
}

// Stack arranges the probe data as a (time, probe, component) array. All
// probes must have the same number of components.
func (c *Case) Stack() (*npy.Array, error) {
	dim, err := c.Dim()
	if err != nil {
		return nil, err
	}
	nt := len(c.probes[0].Data)
	for _, p := range c.probes {
		if len(p.Data) != nt {
			return nil, fmt.Errorf("probe %s has %d rows, expected %d", p.Name, len(p.Data), nt)
		}
	}

	a := npy.New(nt, len(c.probes), dim)
	for j, p := range c.probes {
		for i, row := range p.Data {
			for k, v := range row {
				a.Set3(i, j, k, v)
			}
		}
	}
	return a, nil
}

// Dataset collects the probes of the case after ReadProbes.
func (c *Case) Dataset() (*Dataset, error) {
	data, err := c.Stack()
	if err != nil {
		return nil, err
	}
	times := make([]float64, len(c.probes[0].Times))
	for i, name := range c.probes[0].Times {
		if times[i], err = strconv.ParseFloat(name, 64); err != nil {
			return nil, fmt.Errorf("invalid time directory %q: %w", name, err)
		}
	}
	return &Dataset{Coords: c.Coords(), Times: times, Data: data}, nil
}

// Save writes the dataset files of a. Times and data are skipped when the
// dataset has no data, as for a mock capture.
func Save(fs afero.Fs, a models.Artifacts, d *Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := fs.MkdirAll(a.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", a.Dir, err)
	}
	if err := writeGob(fs, a.Coords(), d.Coords); err != nil {
		return err
	}
	if d.Data == nil {
		return nil
	}
	if err := writeGob(fs, a.Times(), d.Times); err != nil {
		return err
	}
	return npy.WriteFile(fs, a.Data(), d.Data)
}

// Load reads the dataset files of a.
func Load(fs afero.Fs, a models.Artifacts) (*Dataset, error) {
	d := &Dataset{}
	if err := readGob(fs, a.Coords(), &d.Coords); err != nil {
		return nil, err
	}
	if err := readGob(fs, a.Times(), &d.Times); err != nil {
		return nil, err
	}
	data, err := npy.ReadFile(fs, a.Data())
	if err != nil {
		return nil, err
	}
	d.Data = data
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent dataset %s: %w", a, err)
	}
	return d, nil
}

func writeGob(fs afero.Fs, path string, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readGob(fs afero.Fs, path string, v interface{}) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Metadata describes the capture for probe.meta.json.
func (c *Case) Metadata(mode models.CaptureMode, fieldName string, opts ReadOptions, report *ReadReport) *models.Metadata {
	m := &models.Metadata{
		RunID:     uuid.New().String(),
		CreatedAt: c.now(),
		Mode:      mode,
		Case:      c.Name,
		CasePath:  c.path,
		Field:     fieldName,
		TMin:      finite(opts.TMin),
		TMax:      finite(opts.TMax),
		SkipFirst: opts.SkipFirst,
	}
	for _, p := range c.probes {
		m.Probes = append(m.Probes, models.ProbeInfo{
			Name:  p.Name,
			Field: p.Field,
			Color: p.Color,
			Coord: p.Coord,
			Index: p.Index,
		})
	}
	if report != nil {
		m.TimeCount = len(report.Times)
		m.BadDirs = report.BadDirs
	}
	return m
}

// finite clamps infinite bounds, which JSON cannot represent.
func finite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// NewMergeMetadata describes a merged dataset.
func NewMergeMetadata(sources []models.Artifacts, d *Dataset) *models.Metadata {
	m := &models.Metadata{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now(),
		Mode:      models.ModeMerged,
		TimeCount: len(d.Times),
	}
	if len(d.Times) > 0 {
		m.TMin, m.TMax = d.Times[0], d.Times[len(d.Times)-1]
	}
	for _, s := range sources {
		m.Sources = append(m.Sources, s.String())
	}
	for i, coord := range d.Coords {
		m.Probes = append(m.Probes, models.ProbeInfo{Name: fmt.Sprintf("probe_%d", i+1), Coord: coord, Index: -1})
	}
	return m
}

// WriteMeta writes m as indented JSON to path.
func WriteMeta(fs afero.Fs, path string, m *models.Metadata) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// ReadMeta reads a probe.meta.json file.
func ReadMeta(fs afero.Fs, path string) (*models.Metadata, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var m models.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &m, nil
}
