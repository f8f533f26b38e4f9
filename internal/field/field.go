// Package field reads per-cell field values from the time directories of
// a case.
package field

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/foam"
)

// CompressedExt is the suffix of gzip-compressed field files.
const CompressedExt = ".gz"

// ErrFieldNotFound is returned when neither the raw nor the compressed
// field file exists.
var ErrFieldNotFound = errors.New("field file not found")

// Path returns the raw location of a field inside a time directory.
func Path(casePath, timeDir, name string) string {
	return filepath.Join(casePath, timeDir, name)
}

// Read returns the internalField of name at timeDir. When the raw file is
// missing, the compressed sibling is decoded in memory.
func Read(fs afero.Fs, casePath, timeDir, name string) (*foam.Field, error) {
	path := Path(casePath, timeDir, name)
	if ok, _ := afero.Exists(fs, path); ok {
		return ReadFile(fs, path)
	}
	if ok, _ := afero.Exists(fs, path+CompressedExt); ok {
		return ReadFile(fs, path+CompressedExt)
	}
	return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, path)
}

// ReadFile parses the field file at path. Paths ending in .gz are
// decompressed on the fly.
func ReadFile(fs afero.Fs, path string) (*foam.Field, error) {
	data, err := readAll(fs, path)
	if err != nil {
		return nil, err
	}
	f, err := foam.ParseInternalField(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// Classify returns the number of components of the field file at path
// (1 for scalar, 3 for vector, 0 for anything else) and its class.
func Classify(fs afero.Fs, path string) (int, string, error) {
	data, err := readAll(fs, path)
	if err != nil {
		return 0, "", err
	}
	class := foam.ClassOf(data)
	return foam.Dimension(class), class, nil
}

func readAll(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, path)
		}
		return nil, fmt.Errorf("failed to open field file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed field %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read field file %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
