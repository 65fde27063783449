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
	"fmt"
	"math"
)

// Calculates the outer and inner bounding boxes for a set of intervals, e.g.
// the transformed extents of several sources. The outer box contains all of
// them, the inner box is contained in all of them. If the intervals do not
// overlap, the inner box is invalid and overlap is false.
func OuterInner(rs []RealInterval) (outer, inner RealInterval, overlap bool, err error) {
	if len(rs) == 0 {
		return RealInterval{}, RealInterval{}, false, ErrEmptyPoints
	}
	nd := rs[0].NumDimensions()
	outer = RealInterval{make([]float64, nd), make([]float64, nd)}
	inner = RealInterval{make([]float64, nd), make([]float64, nd)}
	for d := 0; d < nd; d++ {
		outer.Min[d], outer.Max[d] = math.Inf(1), math.Inf(-1)
		inner.Min[d], inner.Max[d] = math.Inf(-1), math.Inf(1)
	}

	for i, r := range rs {
		if r.NumDimensions() != nd {
			return RealInterval{}, RealInterval{}, false,
				fmt.Errorf("%w: interval %d has %d dimensions, want %d", ErrDimensionMismatch, i, r.NumDimensions(), nd)
		}
		for d := 0; d < nd; d++ {
			outer.Min[d] = math.Min(outer.Min[d], r.Min[d])
			outer.Max[d] = math.Max(outer.Max[d], r.Max[d])
			inner.Min[d] = math.Max(inner.Min[d], r.Min[d])
			inner.Max[d] = math.Min(inner.Max[d], r.Max[d])
		}
	}
	return outer, inner, inner.Validate() == nil, nil
}
