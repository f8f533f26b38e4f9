// Package mesh builds the cell-center index of a case mesh and answers
// nearest-cell queries for probe placement.
package mesh

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/foam"
	"github.com/pders01/foamkit/internal/logging"
)

// ErrInvalidMeshPath is returned when a mesh path is neither a snapshot
// file nor a case directory.
var ErrInvalidMeshPath = errors.New("mesh path is neither a file nor a directory")

// PolyMeshDir is the location of the mesh files inside a case.
var PolyMeshDir = filepath.Join("constant", "polyMesh")

// Point is a 3-D coordinate.
type Point = [3]float64

// Index is an immutable set of cell centers with their bounding ranges.
type Index struct {
	path    string
	centers []Point
	ranges  [3][2]float64
}

// snapshot is the serialized form of an Index.
type snapshot struct {
	Path        string
	CellCenters []Point
	Ranges      [3][2]float64
}

// Load returns the mesh index for path. An existing regular file is read
// as a snapshot written by Save; a directory is read as a case root.
func Load(fs afero.Fs, path string, log *logging.Logger) (*Index, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMeshPath, path)
	}

	if info.Mode().IsRegular() {
		log.Info("Mesh path %s is a file, loading it as a mesh snapshot.", path)
		return loadSnapshot(fs, path)
	}
	if info.IsDir() {
		log.Info("Mesh path %s is a directory, reading the case mesh.", path)
		return build(fs, path, log)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidMeshPath, path)
}

// New builds an index directly from cell centers.
func New(centers []Point) *Index {
	idx := &Index{centers: centers}
	idx.ranges = computeRanges(centers)
	return idx
}

func build(fs afero.Fs, casePath string, log *logging.Logger) (*Index, error) {
	defer log.Timed(fmt.Sprintf("LOADING MESH FROM %s", casePath))()

	dir := filepath.Join(casePath, PolyMeshDir)
	read := func(name string) ([]byte, error) {
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read mesh file: %w", err)
		}
		return data, nil
	}

	data, err := read("points")
	if err != nil {
		return nil, err
	}
	points, err := foam.ParseVectorList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse points: %w", err)
	}

	if data, err = read("faces"); err != nil {
		return nil, err
	}
	faces, err := foam.ParseFaceList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse faces: %w", err)
	}

	if data, err = read("owner"); err != nil {
		return nil, err
	}
	owner, err := foam.ParseLabelList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner: %w", err)
	}

	if data, err = read("neighbour"); err != nil {
		return nil, err
	}
	neighbour, err := foam.ParseLabelList(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse neighbour: %w", err)
	}

	log.Info("%s points, %s faces found. Computing face centers...", logging.Count(len(points)), logging.Count(len(faces)))
	faceCenters, err := FaceCenters(points, faces)
	if err != nil {
		return nil, err
	}

	cellFaces, err := CellFaces(owner, neighbour, len(faces))
	if err != nil {
		return nil, err
	}
	log.Info("%s cells found. Computing cell centers...", logging.Count(len(cellFaces)))
	centers := CellCenters(faceCenters, cellFaces)

	idx := New(centers)
	idx.path = casePath
	for axis, name := range []string{"X", "Y", "Z"} {
		log.Info("%s range: (%g, %g).", name, idx.ranges[axis][0], idx.ranges[axis][1])
	}
	return idx, nil
}

// FaceCenters averages the points of each face.
func FaceCenters(points []Point, faces [][]int) ([]Point, error) {
	for i, f := range faces {
		if len(f) == 0 {
			return nil, fmt.Errorf("face %d has no points", i)
		}
		for _, p := range f {
			if p < 0 || p >= len(points) {
				return nil, fmt.Errorf("face %d references point %d of %d", i, p, len(points))
			}
		}
	}
	return iter.Map(faces, func(f *[]int) Point {
		return mean(points, *f)
	}), nil
}

// CellFaces lists the faces bounding each cell. Every face belongs to its
// owner; the first len(neighbour) faces are internal and also belong to
// their neighbour.
func CellFaces(owner, neighbour []int, nFaces int) ([][]int, error) {
	if len(owner) != nFaces {
		return nil, fmt.Errorf("owner list has %d entries for %d faces", len(owner), nFaces)
	}
	if len(neighbour) > nFaces {
		return nil, fmt.Errorf("neighbour list has %d entries for %d faces", len(neighbour), nFaces)
	}

	nCells := 0
	for _, c := range owner {
		if c < 0 {
			return nil, fmt.Errorf("negative owner cell %d", c)
		}
		if c+1 > nCells {
			nCells = c + 1
		}
	}

	cellFaces := make([][]int, nCells)
	for face, c := range owner {
		cellFaces[c] = append(cellFaces[c], face)
	}
	for face, c := range neighbour {
		if c < 0 || c >= nCells {
			return nil, fmt.Errorf("face %d has neighbour cell %d of %d", face, c, nCells)
		}
		cellFaces[c] = append(cellFaces[c], face)
	}
	return cellFaces, nil
}

// CellCenters averages the face centers of each cell.
func CellCenters(faceCenters []Point, cellFaces [][]int) []Point {
	return iter.Map(cellFaces, func(faces *[]int) Point {
		return mean(faceCenters, *faces)
	})
}

func mean(points []Point, ids []int) Point {
	var c Point
	if len(ids) == 0 {
		return c
	}
	for _, id := range ids {
		for k := 0; k < 3; k++ {
			c[k] += points[id][k]
		}
	}
	n := float64(len(ids))
	return Point{c[0] / n, c[1] / n, c[2] / n}
}

func computeRanges(centers []Point) [3][2]float64 {
	var r [3][2]float64
	for i, c := range centers {
		for k := 0; k < 3; k++ {
			if i == 0 || c[k] < r[k][0] {
				r[k][0] = c[k]
			}
			if i == 0 || c[k] > r[k][1] {
				r[k][1] = c[k]
			}
		}
	}
	return r
}

// Len returns the number of cells.
func (m *Index) Len() int { return len(m.centers) }

// Center returns the center of cell i.
func (m *Index) Center(i int) Point { return m.centers[i] }

// Centers returns the cell centers. The slice must not be modified.
func (m *Index) Centers() []Point { return m.centers }

// Range returns the (min, max) of the cell centers along axis 0, 1 or 2.
func (m *Index) Range(axis int) [2]float64 { return m.ranges[axis] }

// Path returns the case or snapshot path the index was loaded from.
func (m *Index) Path() string { return m.path }

// NearestIndex returns the index of the cell center closest to (x, y) or,
// when a non-zero z is given, to (x, y, z). A zero z is treated as absent,
// so 3-D queries on the z=0 plane fall back to 2-D distance. Ties go to
// the lowest index. It returns -1 for an empty mesh.
func (m *Index) NearestIndex(x, y float64, z ...float64) int {
	useZ := len(z) > 0 && z[0] != 0
	best := -1
	bestD := 0.0
	for i, c := range m.centers {
		d := (x-c[0])*(x-c[0]) + (y-c[1])*(y-c[1])
		if useZ {
			d += (z[0] - c[2]) * (z[0] - c[2])
		}
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Save writes the index as a snapshot that Load reads back without
// recomputing the centers.
func (m *Index) Save(fs afero.Fs, path string) error {
	var buf bytes.Buffer
	s := snapshot{Path: m.path, CellCenters: m.centers, Ranges: m.ranges}
	if err := gob.NewEncoder(&buf).Encode(&s); err != nil {
		return fmt.Errorf("failed to encode mesh snapshot: %w", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write mesh snapshot: %w", err)
	}
	return nil
}

func loadSnapshot(fs afero.Fs, path string) (*Index, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh snapshot: %w", err)
	}
	defer f.Close()

	var s snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode mesh snapshot %s: %w", path, err)
	}
	return &Index{path: s.Path, centers: s.CellCenters, ranges: s.Ranges}, nil
}
