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

package affine

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrZeroVector = errors.New("cannot normalize zero vector")

// Returns the determinant of the linear part
func Det(a Affine3D) float64 {
	return mat.Det(a.Linear())
}

// Negates the x row, linear part and translation
func FlipX(a Affine3D) Affine3D {
	for c := 0; c < 4; c++ {
		a[0][c] = -a[0][c]
	}
	return a
}

// Flips the x row if the linear part is improper, so the result has a
// positive determinant. Rows y and z are left alone.
func EnsurePositiveDeterminant(a Affine3D) Affine3D {
	if Det(a) < 0 {
		return FlipX(a)
	}
	return a
}

// Makes entry (2,2) non-negative, so the viewing axis points along +z
func EnsurePositiveZ(a Affine3D) Affine3D {
	a[2][2] = math.Abs(a[2][2])
	return a
}

// Swaps the x and y rows, linear part and translation
func PermuteXY(a Affine3D) Affine3D {
	a[0], a[1] = a[1], a[0]
	return a
}

// Returns the dot product of the first two columns of the linear part.
// Near zero if the mapped x and y axes are near orthogonal.
func DotXY(a Affine3D) float64 {
	return a[0][0]*a[0][1] + a[1][0]*a[1][1] + a[2][0]*a[2][1]
}

// Scales x in place to unit Euclidean length
func Normalize(x []float64) error {
	n := floats.Norm(x, 2)
	if n == 0 || math.IsNaN(n) {
		return ErrZeroVector
	}
	floats.Scale(1/n, x)
	return nil
}
