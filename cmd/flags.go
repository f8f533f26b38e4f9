package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/probe"
)

var (
	_ pflag.Value = (*coordModeValue)(nil)
	_ pflag.Value = (*decompressorValue)(nil)
)

// coordModeValue is a pflag.Value accepting "relative" or "absolute".
type coordModeValue probe.CoordMode

func (v *coordModeValue) String() string { return string(*v) }

func (v *coordModeValue) Set(s string) error {
	m, err := probe.ParseCoordMode(s)
	if err != nil {
		return err
	}
	*v = coordModeValue(m)
	return nil
}

func (v *coordModeValue) Type() string { return "mode" }

// Decompressor names accepted by --decompressor and probe.decompressor.
const (
	decompressGzip   = "gzip"
	decompressGunzip = "gunzip"
)

// decompressorValue is a pflag.Value accepting "gzip" (in-process) or
// "gunzip" (external command).
type decompressorValue string

func (v *decompressorValue) String() string { return string(*v) }

func (v *decompressorValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case decompressGzip, decompressGunzip:
		*v = decompressorValue(s)
		return nil
	}
	return fmt.Errorf("invalid decompressor %q (want %s or %s)", s, decompressGzip, decompressGunzip)
}

func (v *decompressorValue) Type() string { return "decompressor" }

// newDecompressor returns the decompressor called name.
func newDecompressor(fs afero.Fs, name string) (field.Decompressor, error) {
	var v decompressorValue
	if err := v.Set(name); err != nil {
		return nil, err
	}
	if v == decompressGunzip {
		return field.DefaultCommand, nil
	}
	return field.GzipDecompressor{Fs: fs}, nil
}
