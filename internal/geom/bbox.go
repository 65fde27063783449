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
	"math"
)

var ErrEmptyPoints = errors.New("empty input")

// Transforms all points and returns the smallest interval containing the results.
// Fails with ErrEmptyPoints if there are no points.
func SmallestContainingInterval(pts [][]float64, t RealTransform) (RealInterval, error) {
	if len(pts) == 0 {
		return RealInterval{}, ErrEmptyPoints
	}
	nd := len(pts[0])
	min, max := make([]float64, nd), make([]float64, nd)
	for d := 0; d < nd; d++ {
		min[d], max[d] = math.Inf(1), math.Inf(-1)
	}

	pXfm := make([]float64, nd)
	for i, p := range pts {
		if len(p) != nd {
			return RealInterval{}, fmt.Errorf("%w: point %d has %d coordinates, want %d", ErrDimensionMismatch, i, len(p), nd)
		}
		t.Apply(pXfm, p)
		for d, x := range pXfm {
			if x < min[d] {
				min[d] = x
			}
			if x > max[d] {
				max[d] = x
			}
		}
	}
	return RealInterval{min, max}, nil
}

// Estimates an interval bounding r after transformation by t, sampling
// points on the faces of r with the given grid spacing.
//
// This is an approximation, not an exact enclosure. It holds for affine
// transforms if the spacing hits the corners, and for smooth transforms whose
// extremes lie on the boundary of r, up to the sampling resolution. Strongly
// nonlinear warps may be under-sampled; finer spacing trades cost for accuracy.
func (s Sampler) BoundingBoxFacesSpacing(t RealTransform, r RealInterval, spacing []float64) (RealInterval, error) {
	faces := Faces(r)
	if len(faces) == 0 {
		return RealInterval{}, ErrEmptyPoints
	}

	// check the budget over all faces before allocating anything
	steps, sum, err := faceGridSteps(faces, spacing)
	if err != nil {
		return RealInterval{}, err
	}
	if err := s.checkBudget(sum); err != nil {
		return RealInterval{}, err
	}

	pts := make([][]float64, 0, int(sum))
	for i, face := range faces {
		total := 1
		for _, n := range steps[i] {
			total *= n
		}
		pts = append(pts, sampleGrid(face, spacing, steps[i], total)...)
	}
	return SmallestContainingInterval(pts, t)
}

// Estimates an interval bounding r after transformation by t, sampling
// faces with approximately the given number of points per dimension.
// See SpacingFromCounts for the conversion, and BoundingBoxFacesSpacing
// for the quality of the estimate.
func (s Sampler) BoundingBoxFacesNumber(t RealTransform, r RealInterval, counts []int) (RealInterval, error) {
	spacing, err := SpacingFromCounts(r, counts)
	if err != nil {
		return RealInterval{}, err
	}
	return s.BoundingBoxFacesSpacing(t, r, spacing)
}

func BoundingBoxFacesSpacing(t RealTransform, r RealInterval, spacing []float64) (RealInterval, error) {
	return NewSampler().BoundingBoxFacesSpacing(t, r, spacing)
}

func BoundingBoxFacesNumber(t RealTransform, r RealInterval, counts []int) (RealInterval, error) {
	return NewSampler().BoundingBoxFacesNumber(t, r, counts)
}

// Returns the exact bounding box of the transformed corners of r.
// Exact for affine transforms, a lower bound for others. The 2^n corners
// count against the sample budget.
func (s Sampler) BoundingBoxCorners(t RealTransform, r RealInterval) (RealInterval, error) {
	nd := r.NumDimensions()
	if nd > maxCornerDimensions {
		return RealInterval{}, fmt.Errorf("%w: 2^%d corners", ErrTooManySamples, nd)
	}
	if err := s.checkBudget(math.Ldexp(1, nd)); err != nil {
		return RealInterval{}, err
	}
	corners, err := Corners(r)
	if err != nil {
		return RealInterval{}, err
	}
	return SmallestContainingInterval(corners, t)
}

func BoundingBoxCorners(t RealTransform, r RealInterval) (RealInterval, error) {
	return NewSampler().BoundingBoxCorners(t, r)
}
