package testutil

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// TempCase is a synthetic OpenFOAM case for testing: a block of NX by NY
// unit hex cells, one cell deep, with a scalar field T and a vector field U.
//
// Cell (i, j) has index i + j*NX and center (i+0.5, j+0.5, 0.5).
type TempCase struct {
	Fs   afero.Fs
	Path string
	NX   int
	NY   int
	T    testing.TB
}

// NewTempCase writes the mesh and the initial-condition directory of a
// synthetic case rooted at path on fs.
func NewTempCase(t testing.TB, fs afero.Fs, path string, nx, ny int) *TempCase {
	t.Helper()

	c := &TempCase{Fs: fs, Path: path, NX: nx, NY: ny, T: t}
	c.writeMesh()
	c.AddTime("0")
	return c
}

// NewDiskCase creates a synthetic case in a temporary directory on the
// real filesystem.
func NewDiskCase(t testing.TB, nx, ny int) *TempCase {
	t.Helper()
	return NewTempCase(t, afero.NewOsFs(), t.TempDir(), nx, ny)
}

// Cells returns the number of cells.
func (c *TempCase) Cells() int { return c.NX * c.NY }

// Cell returns the index of cell (i, j).
func (c *TempCase) Cell(i, j int) int { return i + j*c.NX }

// ScalarValue is the value of T in cell at time t.
func ScalarValue(t float64, cell int) float64 {
	return t*100 + float64(cell)
}

// VectorValue is the value of U in cell at time t.
func VectorValue(t float64, cell int) [3]float64 {
	return [3]float64{t, float64(cell), -float64(cell)}
}

// AddTime writes T and U for the time directory name.
func (c *TempCase) AddTime(name string) {
	c.T.Helper()
	t := c.timeValue(name)
	c.CreateFile(filepath.Join(name, "T"), c.scalarField(t))
	c.CreateFile(filepath.Join(name, "U"), c.vectorField(t))
}

// AddCompressedTime writes T.gz and U.gz for the time directory name.
func (c *TempCase) AddCompressedTime(name string) {
	c.T.Helper()
	t := c.timeValue(name)
	c.CreateGzipFile(filepath.Join(name, "T.gz"), c.scalarField(t))
	c.CreateGzipFile(filepath.Join(name, "U.gz"), c.vectorField(t))
}

// AddEmptyTime creates a time directory without field files.
func (c *TempCase) AddEmptyTime(name string) {
	c.T.Helper()
	if err := c.Fs.MkdirAll(filepath.Join(c.Path, name), 0755); err != nil {
		c.T.Fatalf("failed to create directory: %v", err)
	}
}

// CreateFile creates a file relative to the case root.
func (c *TempCase) CreateFile(name, content string) {
	c.T.Helper()
	path := filepath.Join(c.Path, name)
	if err := c.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		c.T.Fatalf("failed to create directory: %v", err)
	}
	if err := afero.WriteFile(c.Fs, path, []byte(content), 0644); err != nil {
		c.T.Fatalf("failed to create file: %v", err)
	}
}

// CreateGzipFile creates a gzip-compressed file relative to the case root.
func (c *TempCase) CreateGzipFile(name, content string) {
	c.T.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		c.T.Fatalf("failed to compress file: %v", err)
	}
	if err := zw.Close(); err != nil {
		c.T.Fatalf("failed to compress file: %v", err)
	}
	c.CreateFile(name, buf.String())
}

// Exists reports whether a path relative to the case root exists.
func (c *TempCase) Exists(name string) bool {
	c.T.Helper()
	ok, err := afero.Exists(c.Fs, filepath.Join(c.Path, name))
	if err != nil {
		c.T.Fatalf("failed to stat %s: %v", name, err)
	}
	return ok
}

func (c *TempCase) timeValue(name string) float64 {
	c.T.Helper()
	v, err := strconv.ParseFloat(name, 64)
	if err != nil {
		c.T.Fatalf("invalid time name %q: %v", name, err)
	}
	return v
}

func (c *TempCase) scalarField(t float64) string {
	var b strings.Builder
	b.WriteString(Header("volScalarField", "T"))
	b.WriteString("dimensions      [0 0 0 1 0 0 0];\n\n")
	fmt.Fprintf(&b, "internalField   nonuniform List<scalar> \n%d\n(\n", c.Cells())
	for cell := 0; cell < c.Cells(); cell++ {
		fmt.Fprintf(&b, "%g\n", ScalarValue(t, cell))
	}
	b.WriteString(")\n;\n\nboundaryField\n{\n}\n")
	return b.String()
}

func (c *TempCase) vectorField(t float64) string {
	var b strings.Builder
	b.WriteString(Header("volVectorField", "U"))
	b.WriteString("dimensions      [0 1 -1 0 0 0 0];\n\n")
	fmt.Fprintf(&b, "internalField   nonuniform List<vector> \n%d\n(\n", c.Cells())
	for cell := 0; cell < c.Cells(); cell++ {
		v := VectorValue(t, cell)
		fmt.Fprintf(&b, "(%g %g %g)\n", v[0], v[1], v[2])
	}
	b.WriteString(")\n;\n\nboundaryField\n{\n}\n")
	return b.String()
}

// Header returns an ascii FoamFile header.
func Header(class, object string) string {
	return `FoamFile
{
    version     2.0;
    format      ascii;
    class       ` + class + `;
    object      ` + object + `;
}
// * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * //

`
}

func (c *TempCase) writeMesh() {
	c.T.Helper()
	nx, ny := c.NX, c.NY
	point := func(i, j, k int) int {
		return i + j*(nx+1) + k*(nx+1)*(ny+1)
	}

	var points strings.Builder
	points.WriteString(Header("vectorField", "points"))
	fmt.Fprintf(&points, "%d\n(\n", (nx+1)*(ny+1)*2)
	for k := 0; k <= 1; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				fmt.Fprintf(&points, "(%d %d %d)\n", i, j, k)
			}
		}
	}
	points.WriteString(")\n")

	var faces [][4]int
	var owner, neighbour []int

	// Internal faces first, as the mesh format requires.
	for j := 0; j < ny; j++ {
		for i := 1; i < nx; i++ {
			faces = append(faces, [4]int{point(i, j, 0), point(i, j+1, 0), point(i, j+1, 1), point(i, j, 1)})
			owner = append(owner, c.Cell(i-1, j))
			neighbour = append(neighbour, c.Cell(i, j))
		}
	}
	for j := 1; j < ny; j++ {
		for i := 0; i < nx; i++ {
			faces = append(faces, [4]int{point(i, j, 0), point(i, j, 1), point(i+1, j, 1), point(i+1, j, 0)})
			owner = append(owner, c.Cell(i, j-1))
			neighbour = append(neighbour, c.Cell(i, j))
		}
	}

	for j := 0; j < ny; j++ {
		faces = append(faces, [4]int{point(0, j, 0), point(0, j, 1), point(0, j+1, 1), point(0, j+1, 0)})
		owner = append(owner, c.Cell(0, j))
		faces = append(faces, [4]int{point(nx, j, 0), point(nx, j+1, 0), point(nx, j+1, 1), point(nx, j, 1)})
		owner = append(owner, c.Cell(nx-1, j))
	}
	for i := 0; i < nx; i++ {
		faces = append(faces, [4]int{point(i, 0, 0), point(i+1, 0, 0), point(i+1, 0, 1), point(i, 0, 1)})
		owner = append(owner, c.Cell(i, 0))
		faces = append(faces, [4]int{point(i, ny, 0), point(i, ny, 1), point(i+1, ny, 1), point(i+1, ny, 0)})
		owner = append(owner, c.Cell(i, ny-1))
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			faces = append(faces, [4]int{point(i, j, 0), point(i, j+1, 0), point(i+1, j+1, 0), point(i+1, j, 0)})
			owner = append(owner, c.Cell(i, j))
			faces = append(faces, [4]int{point(i, j, 1), point(i+1, j, 1), point(i+1, j+1, 1), point(i, j+1, 1)})
			owner = append(owner, c.Cell(i, j))
		}
	}

	var fb strings.Builder
	fb.WriteString(Header("faceList", "faces"))
	fmt.Fprintf(&fb, "%d\n(\n", len(faces))
	for _, f := range faces {
		fmt.Fprintf(&fb, "4(%d %d %d %d)\n", f[0], f[1], f[2], f[3])
	}
	fb.WriteString(")\n")

	dir := filepath.Join("constant", "polyMesh")
	c.CreateFile(filepath.Join(dir, "points"), points.String())
	c.CreateFile(filepath.Join(dir, "faces"), fb.String())
	c.CreateFile(filepath.Join(dir, "owner"), labelFile("owner", owner))
	c.CreateFile(filepath.Join(dir, "neighbour"), labelFile("neighbour", neighbour))
}

func labelFile(object string, labels []int) string {
	var b strings.Builder
	b.WriteString(Header("labelList", object))
	fmt.Fprintf(&b, "%d\n(\n", len(labels))
	for _, l := range labels {
		fmt.Fprintf(&b, "%d\n", l)
	}
	b.WriteString(")\n")
	return b.String()
}
