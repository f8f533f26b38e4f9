// Package merge joins probe datasets captured over overlapping time
// windows into one continuous series.
package merge

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pders01/foamkit/internal/logging"
	"github.com/pders01/foamkit/internal/npy"
	"github.com/pders01/foamkit/internal/probe"
	"github.com/pders01/foamkit/internal/timedir"
)

var (
	// ErrCoordinateMismatch is returned when sources probe different
	// coordinates.
	ErrCoordinateMismatch = errors.New("probe coordinates do not match")
	// ErrEmptySource is returned for a source without time steps.
	ErrEmptySource = errors.New("source has no time steps")
	// ErrShapeMismatch is returned when sources differ in probe count or
	// components.
	ErrShapeMismatch = errors.New("data shapes do not match")
	// ErrNotMonotonic is returned when the merged time axis is not
	// strictly increasing.
	ErrNotMonotonic = errors.New("merged times are not strictly increasing")
	// ErrNoSources is returned when there is nothing to merge.
	ErrNoSources = errors.New("no datasets to merge")
)

// Source is one captured dataset and the name used in log messages.
type Source struct {
	Name string
	*probe.Dataset
}

// Merge joins sources in order of their first time. The earliest source
// seeds the series; each later source contributes only its times after
// the current end of the series. Rows for overlapping times come from the
// earlier source.
func Merge(sources []Source, log *logging.Logger) (*probe.Dataset, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	for _, s := range sources {
		if s.Dataset == nil || len(s.Times) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySource, s.Name)
		}
		if s.Data == nil {
			return nil, fmt.Errorf("%w: %s has no data", ErrShapeMismatch, s.Name)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrShapeMismatch, s.Name, err)
		}
	}

	for i := 0; i < len(sources)-1; i++ {
		for j := i + 1; j < len(sources); j++ {
			if !sameCoords(sources[i].Coords, sources[j].Coords) {
				return nil, fmt.Errorf("%w: coords in %s did not match coords in %s", ErrCoordinateMismatch, sources[i].Name, sources[j].Name)
			}
		}
	}
	log.Info("All coordinate files matched.")

	shape := sources[0].Data.Shape
	for _, s := range sources[1:] {
		if s.Data.Shape[1] != shape[1] || s.Data.Shape[2] != shape[2] {
			return nil, fmt.Errorf("%w: %s has shape %v, %s has %v", ErrShapeMismatch, sources[0].Name, shape, s.Name, s.Data.Shape)
		}
	}

	order := make([]Source, len(sources))
	copy(order, sources)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Times[0] < order[j].Times[0]
	})

	first := order[0]
	times := append([]float64(nil), first.Times...)
	data := append([]float64(nil), first.Data.Data...)
	log.Info("Starting with data from %s (%.3f - %.3f sec).", first.Name, first.Times[0], first.Times[len(first.Times)-1])

	stride := shape[1] * shape[2]
	for _, s := range order[1:] {
		last := times[len(times)-1]
		start := joinIndex(s.Times, last)
		if start == len(s.Times) {
			log.Warn("Skipping %s: all of its times (%.3f - %.3f sec) are at or before %.3f sec.", s.Name, s.Times[0], s.Times[len(s.Times)-1], last)
			continue
		}
		log.Info("Joining data from %s starting at index %d (%.3f - %.3f sec).", s.Name, start, s.Times[start], s.Times[len(s.Times)-1])
		times = append(times, s.Times[start:]...)
		data = append(data, s.Data.Data[start*stride:]...)
	}

	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w: %g follows %g at index %d", ErrNotMonotonic, times[i], times[i-1], i)
		}
	}

	merged := &probe.Dataset{
		Coords: append([]probe.Coord(nil), first.Coords...),
		Times:  times,
		Data:   &npy.Array{Shape: []int{len(times), shape[1], shape[2]}, Data: data},
	}
	log.Info("Finished merging %d datasets.", len(order))
	return merged, nil
}

// joinIndex returns the first index of times greater than last, or
// len(times) if there is none.
func joinIndex(times []float64, last float64) int {
	for i, t := range times {
		if t > last {
			return i
		}
	}
	return len(times)
}

func sameCoords(a, b []probe.Coord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Summary describes a merged time axis.
type Summary struct {
	First     float64
	Last      float64
	Intervals timedir.Intervals
	Shape     []int
}

// Summarize returns the span and interval statistics of d.
func Summarize(d *probe.Dataset) Summary {
	s := Summary{Shape: d.Data.Shape, Intervals: timedir.Spacing(d.Times)}
	if len(d.Times) > 0 {
		s.First, s.Last = d.Times[0], d.Times[len(d.Times)-1]
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Output times: %.3f - %.3f secs. Intervals = %.3f +/- %.3f sec. (min: %.3f, max: %.3f). Data shape: %v.",
		s.First, s.Last, s.Intervals.Mean, s.Intervals.Std, s.Intervals.Min, s.Intervals.Max, s.Shape)
}
