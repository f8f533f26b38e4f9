// Package foam reads the OpenFOAM file formats used by the probe tools:
// the FoamFile header, label and vector lists, face lists and the
// internalField entry of volume fields. Both ascii and binary encodings
// are supported.
package foam

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format is the encoding declared in the FoamFile header.
type Format string

const (
	FormatASCII  Format = "ascii"
	FormatBinary Format = "binary"
)

// Field classes recognised by Dimension.
const (
	ClassVolScalarField = "volScalarField"
	ClassVolVectorField = "volVectorField"
)

// ErrNoHeader is returned when a file has no FoamFile dictionary.
var ErrNoHeader = errors.New("missing FoamFile header")

// Header is the parsed FoamFile dictionary.
type Header struct {
	Format      Format
	Class       string
	Object      string
	Location    string
	LabelBytes  int
	ScalarBytes int
	Entries     map[string]string
}

// ParseHeader parses the FoamFile dictionary at the top of data and
// returns it together with the offset of the first byte after it.
func ParseHeader(data []byte) (Header, int, error) {
	h := Header{
		Format:      FormatASCII,
		LabelBytes:  4,
		ScalarBytes: 8,
		Entries:     map[string]string{},
	}

	s := newScanner(data, 0)
	for {
		w, err := s.word()
		if err != nil {
			return h, 0, ErrNoHeader
		}
		if string(w) == "FoamFile" {
			break
		}
	}
	if err := s.expect('{'); err != nil {
		return h, 0, fmt.Errorf("malformed FoamFile header: %w", err)
	}

	end := bytes.IndexByte(data[s.pos:], '}')
	if end < 0 {
		return h, 0, fmt.Errorf("malformed FoamFile header: unterminated dictionary")
	}
	body := string(data[s.pos : s.pos+end])
	for _, stmt := range splitStatements(body) {
		fields := strings.Fields(stmt)
		if len(fields) < 2 {
			continue
		}
		key := fields[0]
		value := strings.Trim(strings.Join(fields[1:], " "), `"`)
		h.Entries[key] = value
	}

	if f, ok := h.Entries["format"]; ok {
		h.Format = Format(f)
	}
	h.Class = h.Entries["class"]
	h.Object = h.Entries["object"]
	h.Location = h.Entries["location"]
	if arch, ok := h.Entries["arch"]; ok {
		parseArch(arch, &h)
	}

	switch h.Format {
	case FormatASCII, FormatBinary:
	default:
		return h, 0, fmt.Errorf("unsupported format %q", h.Format)
	}

	return h, s.pos + end + 1, nil
}

// splitStatements splits a dictionary body on semicolons that are not
// inside double quotes.
func splitStatements(body string) []string {
	var out []string
	quoted := false
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				out = append(out, body[start:i])
				start = i + 1
			}
		}
	}
	if start < len(body) {
		out = append(out, body[start:])
	}
	return out
}

// parseArch reads strings like "LSB;label=32;scalar=64".
func parseArch(arch string, h *Header) {
	for _, part := range strings.Split(arch, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		bits, err := strconv.Atoi(v)
		if err != nil || bits%8 != 0 {
			continue
		}
		switch k {
		case "label":
			h.LabelBytes = bits / 8
		case "scalar":
			h.ScalarBytes = bits / 8
		}
	}
}

// Dimension maps a field class to the number of components per cell.
// It returns 0 for classes the probe tools do not handle.
func Dimension(class string) int {
	switch class {
	case ClassVolScalarField:
		return 1
	case ClassVolVectorField:
		return 3
	default:
		return 0
	}
}
