package probe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CoordTolerance is how far outside a range a coordinate may lie before
// it is rejected instead of clamped.
const CoordTolerance = 1e-6

var (
	// ErrOutOfRange is returned for a coordinate outside the mesh range.
	ErrOutOfRange = errors.New("coordinate out of range")
	// ErrMalformedCoord is returned for coordinates that cannot be parsed.
	ErrMalformedCoord = errors.New("malformed coordinate")
)

var coordPattern = regexp.MustCompile(`\(([^)]+)\)`)

// ResolveValue converts s to an absolute coordinate on rng. A trailing
// "%" makes s a percentage of the range, anything else is absolute. The
// result is clamped to rng when within CoordTolerance of it.
func ResolveValue(s string, rng [2]float64) (float64, error) {
	s = strings.TrimSpace(s)
	var v float64
	if strings.HasSuffix(s, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedCoord, s)
		}
		v = pct*(rng[1]-rng[0])/100 + rng[0]
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedCoord, s)
		}
		v = f
	}
	return Clamp(v, rng, CoordTolerance)
}

// Clamp returns v when it lies in rng, the nearer bound when v is outside
// by less than tol, and ErrOutOfRange otherwise.
func Clamp(v float64, rng [2]float64, tol float64) (float64, error) {
	switch {
	case v >= rng[0] && v <= rng[1]:
		return v, nil
	case v < rng[0] && rng[0]-v < tol:
		return rng[0], nil
	case v > rng[1] && v-rng[1] < tol:
		return rng[1], nil
	}
	return 0, fmt.Errorf("%w: %g is outside [%g, %g]", ErrOutOfRange, v, rng[0], rng[1])
}

// Span resolves a min and max coordinate on rng and checks min < max.
func Span(minS, maxS string, rng [2]float64) ([2]float64, error) {
	lo, err := ResolveValue(minS, rng)
	if err != nil {
		return [2]float64{}, err
	}
	hi, err := ResolveValue(maxS, rng)
	if err != nil {
		return [2]float64{}, err
	}
	if lo >= hi {
		return [2]float64{}, fmt.Errorf("min %g >= max %g", lo, hi)
	}
	return [2]float64{lo, hi}, nil
}

// Grid returns nx*ny absolute coordinates spread evenly over the x and y
// spans, x varying fastest. A count of one places the coordinate at the
// lower bound; a count below one places nothing.
func Grid(xr, yr [2]float64, nx, ny int) []Coord {
	if nx < 1 || ny < 1 {
		return nil
	}
	var dx, dy float64
	if nx > 1 {
		dx = (xr[1] - xr[0]) / float64(nx-1)
	}
	if ny > 1 {
		dy = (yr[1] - yr[0]) / float64(ny-1)
	}
	coords := make([]Coord, 0, nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			coords = append(coords, Coord{xr[0] + dx*float64(ix), yr[0] + dy*float64(iy), 0})
		}
	}
	return coords
}

// ParseCoordList parses "(x1, y1) (x2, y2) ..." into absolute coordinates.
// Each value may be absolute or a percentage of its span.
func ParseCoordList(s string, xr, yr [2]float64) ([]Coord, error) {
	matches := coordPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no coordinates in %q", ErrMalformedCoord, s)
	}
	coords := make([]Coord, 0, len(matches))
	for _, m := range matches {
		parts := strings.Split(m[1], ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: %s", ErrMalformedCoord, m[0])
		}
		x, err := ResolveValue(parts[0], xr)
		if err != nil {
			return nil, err
		}
		y, err := ResolveValue(parts[1], yr)
		if err != nil {
			return nil, err
		}
		coords = append(coords, Coord{x, y, 0})
	}
	return coords, nil
}
