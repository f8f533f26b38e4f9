package foam

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ParseLabelList parses a labelList file such as polyMesh/owner.
func ParseLabelList(data []byte) ([]int, error) {
	h, off, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	s := newScanner(data, off)
	return labelList(s, h)
}

// ParseVectorList parses a vectorField file such as polyMesh/points.
func ParseVectorList(data []byte) ([][3]float64, error) {
	h, off, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	s := newScanner(data, off)
	flat, err := scalarBlock(s, h, 3)
	if err != nil {
		return nil, err
	}
	out := make([][3]float64, len(flat)/3)
	for i := range out {
		out[i] = [3]float64{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out, nil
}

// ParseFaceList parses polyMesh/faces. Ascii files use the faceList
// layout "n(a b c ...)"; binary files use faceCompactList, an offsets
// list followed by a flattened point-label list.
func ParseFaceList(data []byte) ([][]int, error) {
	h, off, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	s := newScanner(data, off)

	if h.Format == FormatBinary || h.Class == "faceCompactList" {
		offsets, err := labelList(s, h)
		if err != nil {
			return nil, fmt.Errorf("failed to read face offsets: %w", err)
		}
		labels, err := labelList(s, h)
		if err != nil {
			return nil, fmt.Errorf("failed to read face labels: %w", err)
		}
		if len(offsets) == 0 {
			return nil, nil
		}
		faces := make([][]int, len(offsets)-1)
		for i := range faces {
			lo, hi := offsets[i], offsets[i+1]
			if lo < 0 || hi < lo || hi > len(labels) {
				return nil, fmt.Errorf("face %d has invalid offsets %d..%d", i, lo, hi)
			}
			faces[i] = labels[lo:hi]
		}
		return faces, nil
	}

	n, err := s.integer()
	if err != nil {
		return nil, fmt.Errorf("failed to read face count: %w", err)
	}
	if err := s.expect('('); err != nil {
		return nil, err
	}
	faces := make([][]int, n)
	for i := 0; i < n; i++ {
		m, err := s.integer()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		if err := s.expect('('); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		face := make([]int, m)
		for j := range face {
			if face[j], err = s.integer(); err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
		}
		if err := s.expect(')'); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		faces[i] = face
	}
	if err := s.expect(')'); err != nil {
		return nil, err
	}
	return faces, nil
}

// labelList reads "N ( l0 l1 ... )", "N{l}" or the binary equivalent.
func labelList(s *scanner, h Header) ([]int, error) {
	n, err := s.integer()
	if err != nil {
		return nil, fmt.Errorf("failed to read list size: %w", err)
	}

	c, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of file after list size %d", n)
	}
	if c == '{' {
		s.pos++
		v, err := s.integer()
		if err != nil {
			return nil, err
		}
		if err := s.expect('}'); err != nil {
			return nil, err
		}
		out := make([]int, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}

	if err := s.expect('('); err != nil {
		return nil, err
	}
	out := make([]int, n)
	if h.Format == FormatBinary {
		b, err := s.raw(n * h.LabelBytes)
		if err != nil {
			return nil, err
		}
		for i := range out {
			chunk := b[i*h.LabelBytes:]
			if h.LabelBytes == 8 {
				out[i] = int(int64(binary.LittleEndian.Uint64(chunk)))
			} else {
				out[i] = int(int32(binary.LittleEndian.Uint32(chunk)))
			}
		}
	} else {
		for i := range out {
			if out[i], err = s.integer(); err != nil {
				return nil, err
			}
		}
	}
	if err := s.expect(')'); err != nil {
		return nil, err
	}
	return out, nil
}

// scalarBlock reads a list of n elements with dim components each and
// returns them flattened row-major. Ascii vectors are written "(x y z)".
func scalarBlock(s *scanner, h Header, dim int) ([]float64, error) {
	n, err := s.integer()
	if err != nil {
		return nil, fmt.Errorf("failed to read list size: %w", err)
	}

	c, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of file after list size %d", n)
	}
	if c == '{' {
		s.pos++
		row, err := element(s, dim)
		if err != nil {
			return nil, err
		}
		if err := s.expect('}'); err != nil {
			return nil, err
		}
		out := make([]float64, 0, n*dim)
		for i := 0; i < n; i++ {
			out = append(out, row...)
		}
		return out, nil
	}

	if err := s.expect('('); err != nil {
		return nil, err
	}
	out := make([]float64, n*dim)
	if h.Format == FormatBinary {
		b, err := s.raw(n * dim * h.ScalarBytes)
		if err != nil {
			return nil, err
		}
		for i := range out {
			chunk := b[i*h.ScalarBytes:]
			if h.ScalarBytes == 4 {
				out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
			} else {
				out[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
			}
		}
	} else {
		for i := 0; i < n; i++ {
			row, err := element(s, dim)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			copy(out[i*dim:], row)
		}
	}
	if err := s.expect(')'); err != nil {
		return nil, err
	}
	return out, nil
}

// element reads one ascii value: a bare scalar or a parenthesised tuple.
func element(s *scanner, dim int) ([]float64, error) {
	if dim == 1 {
		v, err := s.float()
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	}
	if err := s.expect('('); err != nil {
		return nil, err
	}
	row := make([]float64, dim)
	for j := range row {
		v, err := s.float()
		if err != nil {
			return nil, err
		}
		row[j] = v
	}
	if err := s.expect(')'); err != nil {
		return nil, err
	}
	return row, nil
}
