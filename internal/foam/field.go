package foam

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrNoInternalField is returned when a field file has no usable
// internalField entry.
var ErrNoInternalField = errors.New("no internalField entry")

// Field holds the per-cell values of a volume field. Values is row-major
// with Dim components per cell. A uniform field stores a single row that
// applies to every cell.
type Field struct {
	Dim     int
	Uniform bool
	Values  []float64
}

// Len returns the number of cells with stored values. Uniform fields
// report -1 because they cover any number of cells.
func (f *Field) Len() int {
	if f.Uniform {
		return -1
	}
	if f.Dim == 0 {
		return 0
	}
	return len(f.Values) / f.Dim
}

// Row returns the values of cell i. ok is false when i is out of range.
func (f *Field) Row(i int) (row []float64, ok bool) {
	if f.Uniform {
		return f.Values[:f.Dim], true
	}
	if i < 0 || i >= f.Len() {
		return nil, false
	}
	return f.Values[i*f.Dim : (i+1)*f.Dim], true
}

// Column returns component d of every stored cell.
func (f *Field) Column(d int) []float64 {
	n := f.Len()
	if n < 0 {
		n = 1
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = f.Values[i*f.Dim+d]
	}
	return out
}

// ParseInternalField extracts the internalField entry of a volume field
// file. Files without a FoamFile header are read as ascii.
func ParseInternalField(data []byte) (*Field, error) {
	h, off, err := ParseHeader(data)
	if errors.Is(err, ErrNoHeader) {
		h = Header{Format: FormatASCII, LabelBytes: 4, ScalarBytes: 8}
		off = 0
	} else if err != nil {
		return nil, err
	}

	idx := bytes.Index(data[off:], []byte("internalField"))
	if idx < 0 {
		return nil, ErrNoInternalField
	}
	s := newScanner(data, off+idx+len("internalField"))

	kind, err := s.word()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInternalField, err)
	}

	switch string(kind) {
	case "uniform":
		return uniformValue(s)
	case "nonuniform":
		return nonuniformValue(s, h)
	default:
		return nil, fmt.Errorf("%w: unexpected keyword %q", ErrNoInternalField, kind)
	}
}

func uniformValue(s *scanner) (*Field, error) {
	c, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("%w: truncated uniform value", ErrNoInternalField)
	}
	dim := 1
	if c == '(' {
		dim = 3
	}
	row, err := element(s, dim)
	if err != nil {
		return nil, fmt.Errorf("failed to read uniform value: %w", err)
	}
	return &Field{Dim: dim, Uniform: true, Values: row}, nil
}

func nonuniformValue(s *scanner, h Header) (*Field, error) {
	typ, err := s.word()
	if err != nil {
		return nil, err
	}
	var dim int
	switch {
	case strings.HasPrefix(string(typ), "List<scalar>"):
		dim = 1
	case strings.HasPrefix(string(typ), "List<vector>"):
		dim = 3
	default:
		return nil, fmt.Errorf("unsupported internalField type %q", typ)
	}

	// "List<scalar>" and the size may be glued together ("List<scalar>5").
	if rest := strings.TrimPrefix(strings.TrimPrefix(string(typ), "List<scalar>"), "List<vector>"); rest != "" {
		s.pos -= len(rest)
	}

	values, err := scalarBlock(s, h, dim)
	if err != nil {
		return nil, fmt.Errorf("failed to read internalField values: %w", err)
	}
	return &Field{Dim: dim, Values: values}, nil
}

// ClassOf returns the declared class of a foam file. Files without a
// header fall back to a substring search for the known volume classes.
func ClassOf(data []byte) string {
	h, _, err := ParseHeader(data)
	if err == nil && h.Class != "" {
		return h.Class
	}
	switch {
	case bytes.Contains(data, []byte(ClassVolScalarField)):
		return ClassVolScalarField
	case bytes.Contains(data, []byte(ClassVolVectorField)):
		return ClassVolVectorField
	}
	return ""
}
