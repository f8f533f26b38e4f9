// Package timedir discovers the numerically named time directories (or
// time archives) of a case and orders them by simulation time.
package timedir

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// timePattern is anchored at the start only; the full name must still
// parse as a number for the entry to qualify.
var timePattern = regexp.MustCompile(`^[0-9]+\.?[0-9]*`)

// Entry is one time directory (or file) of a case.
type Entry struct {
	Value float64
	Name  string
}

// Discover returns the time directories directly below casePath sorted
// ascending by value. Entries with equal values keep their listing order.
func Discover(fs afero.Fs, casePath string) ([]Entry, error) {
	infos, err := afero.ReadDir(fs, casePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", casePath, err)
	}

	var entries []Entry
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		if v, ok := Parse(info.Name()); ok {
			entries = append(entries, Entry{Value: v, Name: info.Name()})
		}
	}
	sortEntries(entries)
	return entries, nil
}

// DiscoverFiles returns the regular files directly below casePath whose
// names end in extension and whose stem is a time value, e.g. "0.25.tar.gz".
func DiscoverFiles(fs afero.Fs, casePath, extension string) ([]Entry, error) {
	infos, err := afero.ReadDir(fs, casePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", casePath, err)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), extension) {
			continue
		}
		stem := strings.TrimSuffix(info.Name(), extension)
		if v, ok := Parse(stem); ok {
			entries = append(entries, Entry{Value: v, Name: info.Name()})
		}
	}
	sortEntries(entries)
	return entries, nil
}

// IsTimeName reports whether name looks like a time directory name.
func IsTimeName(name string) bool {
	_, ok := Parse(name)
	return ok
}

// Parse returns the time value of a time directory name.
func Parse(name string) (float64, bool) {
	if !timePattern.MatchString(name) {
		return 0, false
	}
	v, err := strconv.ParseFloat(name, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value < entries[j].Value
	})
}

// Bounds selects which ends of a [tmin, tmax] range are inclusive.
type Bounds int

const (
	// Closed keeps tmin <= t <= tmax.
	Closed Bounds = iota
	// LeftOpen keeps tmin < t <= tmax.
	LeftOpen
)

// Filter returns the entries whose value lies in the range described by
// tmin, tmax and bounds, preserving order.
func Filter(entries []Entry, tmin, tmax float64, bounds Bounds) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Value > tmax {
			continue
		}
		if bounds == LeftOpen && e.Value <= tmin {
			continue
		}
		if bounds == Closed && e.Value < tmin {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Nearest returns the index of the entry closest to t, or -1 when
// entries is empty. Ties go to the first entry.
func Nearest(entries []Entry, t float64) int {
	best := -1
	bestD := 0.0
	for i, e := range entries {
		d := (t - e.Value) * (t - e.Value)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Names returns the entry names in order.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Values returns the entry values in order.
func Values(entries []Entry) []float64 {
	vals := make([]float64, len(entries))
	for i, e := range entries {
		vals[i] = e.Value
	}
	return vals
}

// Intervals summarizes the gaps between consecutive time values.
type Intervals struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Spacing returns the interval statistics of values, which must be
// ordered. Fewer than two values yield zero intervals.
func Spacing(values []float64) Intervals {
	if len(values) < 2 {
		return Intervals{}
	}
	var iv Intervals
	n := float64(len(values) - 1)
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		iv.Mean += d
		if i == 1 || d < iv.Min {
			iv.Min = d
		}
		if i == 1 || d > iv.Max {
			iv.Max = d
		}
	}
	iv.Mean /= n
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1] - iv.Mean
		iv.Std += d * d
	}
	iv.Std = math.Sqrt(iv.Std / n)
	return iv
}
