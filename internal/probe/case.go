// Package probe places probes in a case mesh and captures the time series
// of field values at their cells.
package probe

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/logging"
	"github.com/pders01/foamkit/internal/mesh"
	"github.com/pders01/foamkit/internal/timedir"
)

// DefaultInitialDir holds the initial conditions used to classify fields.
const DefaultInitialDir = "0"

// ErrUnknownField is returned when a probe names a field the case does
// not have.
var ErrUnknownField = errors.New("unknown field")

// Options configures Open.
type Options struct {
	// Name defaults to the base name of the case path.
	Name string
	// MeshPath is an explicit snapshot file or case directory to take the
	// mesh from.
	MeshPath string
	// Snapshot is a snapshot file name inside the case, used when present.
	Snapshot string
	// InitialDir defaults to DefaultInitialDir.
	InitialDir string
	Log        *logging.Logger
}

// Case is a simulation case with its mesh, time directories, fields and
// registered probes.
type Case struct {
	Name string

	fs     afero.Fs
	path   string
	mesh   *mesh.Index
	times  []timedir.Entry
	fields map[string]int
	probes []*Probe
	log    *logging.Logger
	rng    *rand.Rand
	now    func() time.Time
}

// Open loads the case rooted at casePath.
func Open(fs afero.Fs, casePath string, opts Options) (*Case, error) {
	name := opts.Name
	if name == "" {
		abs, err := filepath.Abs(casePath)
		if err != nil {
			abs = casePath
		}
		name = filepath.Base(abs)
	}
	log := opts.Log
	defer log.Timed(fmt.Sprintf("INITIALIZING CASE '%s' AT '%s'", name, casePath))()

	meshPath := opts.MeshPath
	if meshPath == "" && opts.Snapshot != "" {
		snap := filepath.Join(casePath, opts.Snapshot)
		if ok, _ := afero.Exists(fs, snap); ok {
			meshPath = snap
		}
	}
	if meshPath == "" {
		log.Info("No mesh snapshot specified, reading the mesh from the case.")
		meshPath = casePath
	}
	m, err := mesh.Load(fs, meshPath, log)
	if err != nil {
		return nil, err
	}

	times, err := timedir.Discover(fs, casePath)
	if err != nil {
		return nil, err
	}
	logTimes(log, times)

	initial := opts.InitialDir
	if initial == "" {
		initial = DefaultInitialDir
	}
	fields, err := readFieldDims(fs, filepath.Join(casePath, initial), log)
	if err != nil {
		return nil, err
	}

	c := NewCase(fs, casePath, m, times, fields, log)
	c.Name = name
	return c, nil
}

// NewCase assembles a case from already loaded parts.
func NewCase(fs afero.Fs, casePath string, m *mesh.Index, times []timedir.Entry, fields map[string]int, log *logging.Logger) *Case {
	return &Case{
		Name:   filepath.Base(casePath),
		fs:     fs,
		path:   casePath,
		mesh:   m,
		times:  times,
		fields: fields,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

func logTimes(log *logging.Logger, times []timedir.Entry) {
	if len(times) == 0 {
		log.Warn("No time directories found.")
		return
	}
	log.Info("%s time points found, from %6.3f - %6.3f.", logging.Count(len(times)), times[0].Value, times[len(times)-1].Value)
	if len(times) > 1 {
		sp := timedir.Spacing(timedir.Values(times))
		log.Info("Temporal resolution: %6.3f +/- %6.3f sec.", sp.Mean, sp.Std)
	}
}

// readFieldDims classifies every file of the initial-condition directory.
func readFieldDims(fs afero.Fs, dir string, log *logging.Logger) (map[string]int, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list initial conditions: %w", err)
	}

	fields := map[string]int{}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if strings.HasSuffix(info.Name(), field.CompressedExt) {
			return nil, fmt.Errorf("found compressed file %s in %s, decompress the initial conditions first", info.Name(), dir)
		}
		dim, class, err := field.Classify(fs, filepath.Join(dir, info.Name()))
		if err != nil {
			return nil, err
		}
		if dim == 0 {
			log.Debug("Could not determine dimensionality of %s (class %q).", info.Name(), class)
			continue
		}
		fields[info.Name()] = dim
	}

	names := sortedKeys(fields)
	desc := make([]string, len(names))
	for i, n := range names {
		desc[i] = fmt.Sprintf("%s (%dD)", n, fields[n])
	}
	log.Info("%d fields found: %s", len(names), strings.Join(desc, ", "))
	return fields, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the case root.
func (c *Case) Path() string { return c.path }

// Mesh returns the case mesh.
func (c *Case) Mesh() *mesh.Index { return c.mesh }

// Times returns the discovered time directories in ascending order.
func (c *Case) Times() []timedir.Entry { return c.times }

// Fields returns the probeable field names, sorted.
func (c *Case) Fields() []string { return sortedKeys(c.fields) }

// FieldDim returns the number of components of field, or 0 if unknown.
func (c *Case) FieldDim(name string) int { return c.fields[name] }

// Probes returns the registered probes in registration order.
func (c *Case) Probes() []*Probe { return c.probes }

// Probe returns the probe called name, or nil.
func (c *Case) Probe(name string) *Probe {
	for _, p := range c.probes {
		if p.Name == name {
			return p
		}
	}
	return nil
}
