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

import "fmt"

// Largest dimensionality whose 2^n corners can be counted in an int
const maxCornerDimensions = 62

// Returns the slice of the interval at position pos in dimension dim.
// The result has zero width in dim and the extent of r in all other dimensions.
func HyperSlice(r RealInterval, dim int, pos float64) RealInterval {
	nd := r.NumDimensions()
	min, max := make([]float64, nd), make([]float64, nd)
	for d := 0; d < nd; d++ {
		if d == dim {
			min[d], max[d] = pos, pos
		} else {
			min[d], max[d] = r.Min[d], r.Max[d]
		}
	}
	return RealInterval{min, max}
}

// Returns the 2n boundary faces of an n-dimensional interval, in the order
// min(0), max(0), min(1), max(1), ... A zero-dimensional interval has no faces.
func Faces(r RealInterval) []RealInterval {
	nd := r.NumDimensions()
	faces := make([]RealInterval, 0, 2*nd)
	for d := 0; d < nd; d++ {
		faces = append(faces, HyperSlice(r, d, r.Min[d]))
		faces = append(faces, HyperSlice(r, d, r.Max[d]))
	}
	return faces
}

// Returns the 2^n corner points of the interval. Dimension 0 varies fastest.
// Fails with ErrTooManySamples if 2^n does not fit an int. Use
// Sampler.BoundingBoxCorners to also bound the allocation.
func Corners(r RealInterval) ([][]float64, error) {
	nd := r.NumDimensions()
	if nd == 0 {
		return nil, nil
	}
	if nd > maxCornerDimensions {
		return nil, fmt.Errorf("%w: 2^%d corners", ErrTooManySamples, nd)
	}
	corners := make([][]float64, 1<<uint(nd))
	for i := range corners {
		p := make([]float64, nd)
		for d := 0; d < nd; d++ {
			if i&(1<<uint(d)) == 0 {
				p[d] = r.Min[d]
			} else {
				p[d] = r.Max[d]
			}
		}
		corners[i] = p
	}
	return corners, nil
}
