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

// Package affine holds a 3D affine transform value type and the small
// linear algebra helpers used to keep viewer transforms well formed.
// All operations return new values; none modify their receiver.
package affine

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrSingular = errors.New("matrix has no inverse")

// Threshold below which a determinant counts as zero
const singularEpsilon = 1e-12

// A 3D affine transformation in homogeneous form: three rows of four columns,
// a 3x3 linear part followed by the translation column.
type Affine3D [3][4]float64

func Identity() Affine3D {
	return Affine3D{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// Creates a transform from 12 row-major values
func FromRowMajor(m []float64) (Affine3D, error) {
	if len(m) != 12 {
		return Affine3D{}, fmt.Errorf("affine transform needs 12 values, got %d", len(m))
	}
	var a Affine3D
	for r := 0; r < 3; r++ {
		copy(a[r][:], m[r*4:r*4+4])
	}
	return a, nil
}

// Creates a transform from a 3x3 linear part and a translation
func FromLinear(l [3][3]float64, t [3]float64) Affine3D {
	var a Affine3D
	for r := 0; r < 3; r++ {
		copy(a[r][:3], l[r][:])
		a[r][3] = t[r]
	}
	return a
}

// Returns the 12 values in row-major order
func (a Affine3D) RowMajor() []float64 {
	m := make([]float64, 0, 12)
	for r := 0; r < 3; r++ {
		m = append(m, a[r][:]...)
	}
	return m
}

func (a Affine3D) Get(row, col int) float64 { return a[row][col] }

// Returns a copy with the given entry replaced
func (a Affine3D) Set(v float64, row, col int) Affine3D {
	a[row][col] = v
	return a
}

func (a Affine3D) Translation() [3]float64 {
	return [3]float64{a[0][3], a[1][3], a[2][3]}
}

// Returns the 3x3 linear part as a gonum matrix
func (a Affine3D) Linear() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		a[2][0], a[2][1], a[2][2],
	})
}

// Returns the 4x4 homogeneous matrix
func (a Affine3D) homogeneous() *mat.Dense {
	h := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		h.SetRow(r, a[r][:])
	}
	h.Set(3, 3, 1)
	return h
}

func fromHomogeneous(h mat.Matrix) Affine3D {
	var a Affine3D
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			a[r][c] = h.At(r, c)
		}
	}
	return a
}

// Maps a single point
func (a Affine3D) Transform(p [3]float64) (q [3]float64) {
	for r := 0; r < 3; r++ {
		q[r] = a[r][0]*p[0] + a[r][1]*p[1] + a[r][2]*p[2] + a[r][3]
	}
	return q
}

// Maps src into dst, both holding at least three coordinates. Makes Affine3D
// usable as a geom.RealTransform.
func (a Affine3D) Apply(dst, src []float64) {
	q := a.Transform([3]float64{src[0], src[1], src[2]})
	copy(dst, q[:])
}

// Returns the transform which first applies b, then a
func (a Affine3D) Concatenate(b Affine3D) Affine3D {
	var m mat.Dense
	m.Mul(a.homogeneous(), b.homogeneous())
	return fromHomogeneous(&m)
}

// Returns the transform which first applies a, then b
func (a Affine3D) PreConcatenate(b Affine3D) Affine3D {
	return b.Concatenate(a)
}

func (a Affine3D) Inverse() (Affine3D, error) {
	if d := Det(a); d < singularEpsilon && -d < singularEpsilon {
		return Affine3D{}, fmt.Errorf("%w: determinant %g", ErrSingular, d)
	}
	var inv mat.Dense
	if err := inv.Inverse(a.homogeneous()); err != nil {
		return Affine3D{}, fmt.Errorf("%w: %s", ErrSingular, err.Error())
	}
	return fromHomogeneous(&inv), nil
}

// Returns the transform followed by a uniform scaling of all axes. This
// scales linear part and translation alike.
func (a Affine3D) Scale(s float64) Affine3D {
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			a[r][c] *= s
		}
	}
	return a
}

// Returns the transform followed by a translation
func (a Affine3D) Translate(dx, dy, dz float64) Affine3D {
	a[0][3] += dx
	a[1][3] += dy
	a[2][3] += dz
	return a
}

func (a Affine3D) String() string {
	return fmt.Sprintf("3d-affine: (%.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g, %.4g)",
		a[0][0], a[0][1], a[0][2], a[0][3],
		a[1][0], a[1][1], a[1][2], a[1][3],
		a[2][0], a[2][1], a[2][2], a[2][3])
}
