package field

import (
	"encoding/json"
	"math"
	"sort"
)

// Percentiles are the ranks reported by Describe.
var Percentiles = []float64{1, 5, 25, 50, 75, 95, 99}

// Stats summarizes one component of a field. NaN values are counted but
// otherwise ignored; with no other values Min, Max and the percentiles
// are NaN.
type Stats struct {
	Count       int               `json:"count"`
	NaN         int               `json:"nan"`
	Min         float64           `json:"min"`
	Max         float64           `json:"max"`
	Percentiles []PercentileValue `json:"percentiles"`
}

// PercentileValue is the value at rank P.
type PercentileValue struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// MarshalJSON writes NaN statistics, which JSON cannot represent, as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	type percentile struct {
		P     float64  `json:"p"`
		Value *float64 `json:"value"`
	}
	out := struct {
		Count       int          `json:"count"`
		NaN         int          `json:"nan"`
		Min         *float64     `json:"min"`
		Max         *float64     `json:"max"`
		Percentiles []percentile `json:"percentiles"`
	}{
		Count: s.Count,
		NaN:   s.NaN,
		Min:   number(s.Min),
		Max:   number(s.Max),
	}
	for _, p := range s.Percentiles {
		out.Percentiles = append(out.Percentiles, percentile{P: p.P, Value: number(p.Value)})
	}
	return json.Marshal(out)
}

func number(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Describe computes the statistics of values.
func Describe(values []float64) Stats {
	s := Stats{Count: len(values)}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			s.NaN++
			continue
		}
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	s.Min, s.Max = math.NaN(), math.NaN()
	if len(sorted) > 0 {
		s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	}
	for _, p := range Percentiles {
		s.Percentiles = append(s.Percentiles, PercentileValue{P: p, Value: Percentile(sorted, p)})
	}
	return s
}

// Percentile returns rank p (0-100) of sorted, interpolating linearly
// between the two closest values. It returns NaN for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
