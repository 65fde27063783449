// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package geom

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// An axis-aligned box in n-dimensional real space, given by per-dimension
// minimum and maximum. Min[d]<=Max[d] holds for every interval built by
// NewRealInterval. Treat as immutable.
type RealInterval struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Creates a new interval from copies of the given bounds
func NewRealInterval(min, max []float64) (RealInterval, error) {
	if len(min) != len(max) {
		return RealInterval{}, fmt.Errorf("%w: %d min vs %d max coordinates", ErrDimensionMismatch, len(min), len(max))
	}
	for d := range min {
		if !(min[d] <= max[d]) {
			return RealInterval{}, fmt.Errorf("%w: min[%d]=%g > max[%d]=%g", ErrInvalidInterval, d, min[d], d, max[d])
		}
	}
	return RealInterval{
		Min: append([]float64(nil), min...),
		Max: append([]float64(nil), max...),
	}, nil
}

// Checks the interval invariants, e.g. after decoding from JSON
func (r RealInterval) Validate() error {
	_, err := NewRealInterval(r.Min, r.Max)
	return err
}

func (r RealInterval) NumDimensions() int { return len(r.Min) }

// Returns max-min in dimension d
func (r RealInterval) Width(d int) float64 { return r.Max[d] - r.Min[d] }

// Returns true if p lies within the closed interval
func (r RealInterval) Contains(p []float64) bool {
	if len(p) != len(r.Min) {
		return false
	}
	for d, x := range p {
		if x < r.Min[d] || x > r.Max[d] {
			return false
		}
	}
	return true
}

// Returns true if other lies entirely within r
func (r RealInterval) ContainsInterval(other RealInterval) bool {
	return r.Contains(other.Min) && r.Contains(other.Max)
}

func (r RealInterval) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for d := range r.Min {
		if d > 0 {
			sb.WriteString(" x ")
		}
		fmt.Fprintf(&sb, "%.4g..%.4g", r.Min[d], r.Max[d])
	}
	sb.WriteString("]")
	return sb.String()
}
