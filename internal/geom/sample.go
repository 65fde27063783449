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
	"sync"

	"github.com/pbnjay/memory"
)

var (
	ErrInvalidSampling = errors.New("invalid sampling parameters")
	ErrTooManySamples  = errors.New("too many samples")
)

// Bytes held per sampled 3D point: three coordinates plus the slice header
const bytesPerSample = 3*8 + 24

// Fallback sample budget if physical memory cannot be determined
const fallbackMaxSamples = 1 << 24

var (
	defaultMaxSamples     int
	defaultMaxSamplesOnce sync.Once
)

// Returns the default cap on the number of points sampled for one bounding box,
// sized to 1/16th of physical memory.
func DefaultMaxSamples() int {
	defaultMaxSamplesOnce.Do(func() {
		total := memory.TotalMemory()
		if total == 0 {
			defaultMaxSamples = fallbackMaxSamples
			return
		}
		n := total / 16 / bytesPerSample
		if n > math.MaxInt32 {
			n = math.MaxInt32
		}
		defaultMaxSamples = int(n)
	})
	return defaultMaxSamples
}

// Samples interval faces on a regular grid, with an upper bound on the number of points.
// MaxSamples<=0 disables the bound.
type Sampler struct {
	MaxSamples int `json:"maxSamples"`
}

func NewSampler() Sampler {
	return Sampler{MaxSamples: DefaultMaxSamples()}
}

// Converts desired sample counts per dimension into grid spacings for the
// given interval, as counts[d]/(max[d]-min[d]). A zero-width dimension
// yields an infinite spacing, which the sampling functions reject.
func SpacingFromCounts(r RealInterval, counts []int) ([]float64, error) {
	if len(counts) != r.NumDimensions() {
		return nil, fmt.Errorf("%w: %d counts for %d dimensions", ErrDimensionMismatch, len(counts), r.NumDimensions())
	}
	spacing := make([]float64, len(counts))
	for d, c := range counts {
		spacing[d] = float64(c) / r.Width(d)
	}
	return spacing, nil
}

// Returns the number of grid steps per dimension for the face, and their product
func gridSteps(face RealInterval, spacing []float64) (steps []int, total float64, err error) {
	nd := face.NumDimensions()
	if len(spacing) != nd {
		return nil, 0, fmt.Errorf("%w: %d spacings for %d dimensions", ErrInvalidSampling, len(spacing), nd)
	}
	steps = make([]int, nd)
	total = 1
	for d, s := range spacing {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, 0, fmt.Errorf("%w: spacing[%d]=%g", ErrInvalidSampling, d, s)
		}
		n := math.Floor(face.Width(d)/s) + 1
		if n > math.MaxInt32 {
			return nil, 0, fmt.Errorf("%w: %g steps in dimension %d", ErrTooManySamples, n, d)
		}
		steps[d] = int(n)
		total *= n
	}
	return steps, total, nil
}

// Returns the grid steps for each face, and the total number of points
func faceGridSteps(faces []RealInterval, spacing []float64) (steps [][]int, sum float64, err error) {
	steps = make([][]int, len(faces))
	for i, face := range faces {
		st, total, err := gridSteps(face, spacing)
		if err != nil {
			return nil, 0, err
		}
		steps[i] = st
		sum += total
	}
	return steps, sum, nil
}

// Returns the number of points sampled on all faces of r with the given spacing
func CountFaceSamples(r RealInterval, spacing []float64) (int, error) {
	_, sum, err := faceGridSteps(Faces(r), spacing)
	if err != nil {
		return 0, err
	}
	if sum > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %.4g points", ErrTooManySamples, sum)
	}
	return int(sum), nil
}

func (s Sampler) checkBudget(total float64) error {
	if s.MaxSamples > 0 && total > float64(s.MaxSamples) {
		return fmt.Errorf("%w: %.4g points exceed the limit of %d", ErrTooManySamples, total, s.MaxSamples)
	}
	return nil
}

// Samples the face on a regular grid with the given spacing per dimension.
// Positions are min[d]+k*spacing[d] for k=0..floor(width/spacing), so the
// max corner is only hit if the width is a multiple of the spacing.
// Dimension 0 varies fastest.
func (s Sampler) SampleFace(face RealInterval, spacing []float64) ([][]float64, error) {
	steps, total, err := gridSteps(face, spacing)
	if err != nil {
		return nil, err
	}
	if err := s.checkBudget(total); err != nil {
		return nil, err
	}
	return sampleGrid(face, spacing, steps, int(total)), nil
}

func sampleGrid(face RealInterval, spacing []float64, steps []int, total int) [][]float64 {
	nd := face.NumDimensions()
	if nd == 0 {
		return nil
	}
	pts := make([][]float64, 0, total)
	idx := make([]int, nd)
	for {
		p := make([]float64, nd)
		for d := 0; d < nd; d++ {
			p[d] = face.Min[d] + float64(idx[d])*spacing[d]
		}
		pts = append(pts, p)

		// advance the odometer, dimension 0 fastest
		d := 0
		for ; d < nd; d++ {
			idx[d]++
			if idx[d] < steps[d] {
				break
			}
			idx[d] = 0
		}
		if d == nd {
			return pts
		}
	}
}

// Samples the face with the default sampler
func SampleFace(face RealInterval, spacing []float64) ([][]float64, error) {
	return NewSampler().SampleFace(face, spacing)
}
