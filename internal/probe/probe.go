package probe

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMinDistance is the proximity below which a new probe on the same
// field counts as a duplicate.
const DefaultMinDistance = 0.01

// CoordMode says how AddProbe interprets a coordinate.
type CoordMode string

const (
	// Relative coordinates are fractions in [0, 1] of the mesh ranges.
	Relative CoordMode = "relative"
	// Absolute coordinates are used as given.
	Absolute CoordMode = "absolute"
)

// ParseCoordMode parses a mode name, case-insensitively.
func ParseCoordMode(s string) (CoordMode, error) {
	switch CoordMode(strings.ToLower(s)) {
	case Relative:
		return Relative, nil
	case Absolute:
		return Absolute, nil
	}
	return "", fmt.Errorf("invalid coordinate mode %q (want relative or absolute)", s)
}

// Coord is a 3-D position.
type Coord = [3]float64

// Probe samples one field at the mesh cell nearest to Coord.
type Probe struct {
	Name  string
	Color string
	Field string
	Coord Coord
	Index int

	// Data holds one row per entry of Times with one column per field
	// component.
	Data  [][]float64
	Times []string
}

func (p *Probe) String() string {
	span := "None"
	if len(p.Times) > 0 {
		span = p.Times[0] + " - " + p.Times[len(p.Times)-1]
	}
	return fmt.Sprintf("PROBE %s\nField: %s\nCoord: %v\nIndex: %d\nt: %s\nColor: %s",
		p.Name, p.Field, p.Coord, p.Index, span, p.Color)
}

// AddStatus is the outcome of AddProbe.
type AddStatus int

const (
	Inserted AddStatus = iota
	SkippedDuplicate
)

func (s AddStatus) String() string {
	if s == SkippedDuplicate {
		return "skipped-duplicate"
	}
	return "inserted"
}

// AddOptions configures AddProbe.
type AddOptions struct {
	// Mode defaults to Relative.
	Mode  CoordMode
	Name  string
	Color string
	// MinDistance defaults to DefaultMinDistance when zero. A negative
	// value disables the duplicate check.
	MinDistance float64
}

// AddResult reports what AddProbe did. For SkippedDuplicate, Probe is the
// existing probe that blocked the insertion.
type AddResult struct {
	Status AddStatus
	Probe  *Probe
}

// AddProbe registers a probe on field at coord. A probe closer than the
// minimum distance to an existing probe on the same field is not added;
// that is reported through the result, not as an error.
func (c *Case) AddProbe(fieldName string, coord Coord, opts AddOptions) (AddResult, error) {
	if _, ok := c.fields[fieldName]; !ok {
		return AddResult{}, fmt.Errorf("%w '%s'. Available fields are: %s", ErrUnknownField, fieldName, strings.Join(c.Fields(), ", "))
	}

	mode := opts.Mode
	if mode == "" {
		mode = Relative
	}
	abs := coord
	if mode == Relative {
		for axis := 0; axis < 3; axis++ {
			r := c.mesh.Range(axis)
			abs[axis] = r[0] + coord[axis]*(r[1]-r[0])
		}
	}

	minDist := opts.MinDistance
	if minDist == 0 {
		minDist = DefaultMinDistance
	}
	if minDist > 0 {
		if near, d := c.closest(fieldName, abs); near != nil && d <= minDist {
			c.log.Warn("New probe at %s is too close (%g) to existing probe %s of field %s at %s, skipping.",
				formatCoord(abs), d, near.Name, near.Field, formatCoord(near.Coord))
			return AddResult{Status: SkippedDuplicate, Probe: near}, nil
		}
	}

	p := &Probe{
		Name:  opts.Name,
		Color: opts.Color,
		Field: fieldName,
		Coord: abs,
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s_%d", fieldName, c.countField(fieldName)+1)
	}
	if p.Color == "" {
		p.Color = hueColor(c.rng.Float64())
	}
	p.Index = c.mesh.NearestIndex(abs[0], abs[1], abs[2])
	if p.Index < 0 {
		return AddResult{}, fmt.Errorf("mesh of case %s has no cells", c.Name)
	}

	c.log.Debug("Probe %s: field %s, coord %s, index %d, closest cell center %s.",
		p.Name, p.Field, formatCoord(p.Coord), p.Index, formatCoord(c.mesh.Center(p.Index)))
	c.probes = append(c.probes, p)
	return AddResult{Status: Inserted, Probe: p}, nil
}

func (c *Case) countField(fieldName string) int {
	n := 0
	for _, p := range c.probes {
		if p.Field == fieldName {
			n++
		}
	}
	return n
}

// closest returns the registered probe on fieldName nearest to coord and
// its Euclidean distance.
func (c *Case) closest(fieldName string, coord Coord) (*Probe, float64) {
	var best *Probe
	bestD := math.Inf(1)
	for _, p := range c.probes {
		if p.Field != fieldName {
			continue
		}
		dx, dy, dz := p.Coord[0]-coord[0], p.Coord[1]-coord[1], p.Coord[2]-coord[2]
		if d := math.Sqrt(dx*dx + dy*dy + dz*dz); d < bestD {
			best, bestD = p, d
		}
	}
	return best, bestD
}

func formatCoord(c Coord) string {
	if c[2] == 0 {
		return fmt.Sprintf("(%.3f, %.3f)", c[0], c[1])
	}
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c[0], c[1], c[2])
}

// hueColor maps h in [0, 1) to a fully saturated #rrggbb colour.
func hueColor(h float64) string {
	h = math.Mod(h, 1) * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = 1, x, 0
	case 1:
		r, g, b = x, 1, 0
	case 2:
		r, g, b = 0, 1, x
	case 3:
		r, g, b = 0, x, 1
	case 4:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}
	return fmt.Sprintf("#%02x%02x%02x", int(math.Round(r*255)), int(math.Round(g*255)), int(math.Round(b*255)))
}
