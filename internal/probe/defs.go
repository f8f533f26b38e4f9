package probe

import (
	"fmt"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// Definition describes one probe in a definitions file.
type Definition struct {
	Name  string    `yaml:"name"`
	Field string    `yaml:"field"`
	Color string    `yaml:"color"`
	Coord []float64 `yaml:"coord"`
	Mode  CoordMode `yaml:"mode"`
}

// Definitions is a YAML probe layout. Probes may name their own field,
// but all fields of one layout must have the same number of components:
//
//	field: T
//	mode: relative
//	min_distance: 0.02
//	probes:
//	  - coord: [0.5, 0.5]
//	  - name: outlet
//	    field: p
//	    coord: [1.0, 0.5, 0.1]
//	    mode: absolute
type Definitions struct {
	Field       string       `yaml:"field"`
	Mode        CoordMode    `yaml:"mode"`
	MinDistance float64      `yaml:"min_distance"`
	Probes      []Definition `yaml:"probes"`
}

// LoadDefinitions reads a YAML probe definitions file.
func LoadDefinitions(fs afero.Fs, path string) (*Definitions, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe definitions: %w", err)
	}
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse probe definitions %s: %w", path, err)
	}
	for i, d := range defs.Probes {
		if len(d.Coord) < 2 || len(d.Coord) > 3 {
			return nil, fmt.Errorf("%w: probe %d has %d components", ErrMalformedCoord, i+1, len(d.Coord))
		}
		if mode := d.modeOr(defs.Mode); mode != "" {
			if _, err := ParseCoordMode(string(mode)); err != nil {
				return nil, fmt.Errorf("probe %d: %w", i+1, err)
			}
		}
	}
	return &defs, nil
}

func (d Definition) modeOr(fallback CoordMode) CoordMode {
	if d.Mode != "" {
		return d.Mode
	}
	return fallback
}

// AddDefinitions adds every probe of defs to c in file order. Probes
// without a field of their own take defs.Field.
func (c *Case) AddDefinitions(defs *Definitions) ([]AddResult, error) {
	results := make([]AddResult, 0, len(defs.Probes))
	for i, d := range defs.Probes {
		var coord Coord
		copy(coord[:], d.Coord)

		fieldName := d.Field
		if fieldName == "" {
			fieldName = defs.Field
		}
		if fieldName == "" {
			return results, fmt.Errorf("probe %d has no field", i+1)
		}
		mode := Relative
		if m := d.modeOr(defs.Mode); m != "" {
			parsed, err := ParseCoordMode(string(m))
			if err != nil {
				return results, err
			}
			mode = parsed
		}

		res, err := c.AddProbe(fieldName, coord, AddOptions{
			Mode:        mode,
			Name:        d.Name,
			Color:       d.Color,
			MinDistance: defs.MinDistance,
		})
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
