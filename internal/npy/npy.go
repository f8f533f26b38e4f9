// Package npy reads and writes dense float64 arrays in the NumPy .npy
// format, so captured probe data stays loadable by numeric tooling.
//
// Format: the magic string "\x93NUMPY", a major and minor version byte, a
// little-endian header length (uint16 for v1, uint32 for v2), an ASCII
// dict describing dtype, order and shape, then the raw little-endian
// values in C order.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	magic     = "\x93NUMPY"
	alignment = 64
	descr     = "<f8"
)

// ErrFormat is returned for files that are not float64 npy arrays.
var ErrFormat = errors.New("invalid npy file")

// Array is a dense n-dimensional float64 array in C order.
type Array struct {
	Shape []int
	Data  []float64
}

// New allocates a zero array of the given shape.
func New(shape ...int) *Array {
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, size(shape))}
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Validate checks that the data length matches the shape.
func (a *Array) Validate() error {
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", a.Shape)
		}
	}
	if size(a.Shape) != len(a.Data) {
		return fmt.Errorf("shape %v needs %d values, have %d", a.Shape, size(a.Shape), len(a.Data))
	}
	return nil
}

// At3 returns element (i, j, k) of a 3-D array.
func (a *Array) At3(i, j, k int) float64 {
	return a.Data[(i*a.Shape[1]+j)*a.Shape[2]+k]
}

// Set3 sets element (i, j, k) of a 3-D array.
func (a *Array) Set3(i, j, k int, v float64) {
	a.Data[(i*a.Shape[1]+j)*a.Shape[2]+k] = v
}

// Slab returns the values at leading index i, i.e. a[i] flattened.
func (a *Array) Slab(i int) []float64 {
	stride := size(a.Shape[1:])
	return a.Data[i*stride : (i+1)*stride]
}

func header(shape []int) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, tuple)

	// Pad with spaces so magic, version, length and dict end on a
	// 64-byte boundary, terminated by a newline.
	total := len(magic) + 2 + 2 + len(dict) + 1
	pad := (alignment - total%alignment) % alignment
	return []byte(dict + strings.Repeat(" ", pad) + "\n")
}

// Write encodes a as a version 1.0 npy stream.
func Write(w io.Writer, a *Array) error {
	if err := a.Validate(); err != nil {
		return err
	}
	h := header(a.Shape)
	if len(h) > math.MaxUint16 {
		return fmt.Errorf("npy header too long: %d bytes", len(h))
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(magic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(h)))
	bw.Write(h)

	buf := make([]byte, 8)
	for _, v := range a.Data {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("failed to write npy data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write npy data: %w", err)
	}
	return nil
}

// Read decodes a version 1.x or 2.x npy stream of little-endian float64
// values in C order.
func Read(r io.Reader) (*Array, error) {
	br := bufio.NewReader(r)

	prefix := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(br, prefix); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if string(prefix[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}

	var hlen int
	switch major := prefix[len(magic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		hlen = int(n)
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, major)
	}

	h := make([]byte, hlen)
	if _, err := io.ReadFull(br, h); err != nil {
		return nil, fmt.Errorf("%w: truncated header: %v", ErrFormat, err)
	}
	shape, err := parseHeader(string(h))
	if err != nil {
		return nil, err
	}

	a := New(shape...)
	buf := make([]byte, 8)
	for i := range a.Data {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated data at element %d", ErrFormat, i)
		}
		a.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf))
	}
	return a, nil
}

func parseHeader(h string) ([]int, error) {
	d, err := dictValue(h, "descr")
	if err != nil {
		return nil, err
	}
	if d = strings.Trim(d, `'"`); d != descr {
		return nil, fmt.Errorf("%w: unsupported dtype %s", ErrFormat, d)
	}

	fo, err := dictValue(h, "fortran_order")
	if err != nil {
		return nil, err
	}
	if fo != "False" {
		return nil, fmt.Errorf("%w: fortran order is not supported", ErrFormat)
	}

	start := strings.Index(h, "(")
	end := strings.Index(h, ")")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: missing shape", ErrFormat)
	}
	var shape []int
	for _, part := range strings.Split(h[start+1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad shape entry %q", ErrFormat, part)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

// dictValue returns the raw value of key in a python dict literal for the
// scalar entries of an npy header.
func dictValue(h, key string) (string, error) {
	i := strings.Index(h, "'"+key+"'")
	if i < 0 {
		return "", fmt.Errorf("%w: missing %s", ErrFormat, key)
	}
	rest := strings.TrimSpace(h[i+len(key)+2:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if j := strings.IndexByte(rest, ','); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest), nil
}

// WriteFile writes a to path on fs.
func WriteFile(fs afero.Fs, path string, a *Array) error {
	var buf bytes.Buffer
	if err := Write(&buf, a); err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write npy file: %w", err)
	}
	return nil
}

// ReadFile reads the npy array at path on fs.
func ReadFile(fs afero.Fs, path string) (*Array, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open npy file: %w", err)
	}
	defer f.Close()

	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return a, nil
}
