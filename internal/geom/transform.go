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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A coordinate transformation from n-dimensional real space into itself.
// May be nonlinear. Apply writes the image of src into dst, which have equal
// length. Implementations must not retain either slice.
type RealTransform interface {
	Apply(dst, src []float64)
}

// Adapter to use ordinary functions as transforms
type RealTransformFunc func(dst, src []float64)

func (f RealTransformFunc) Apply(dst, src []float64) { f(dst, src) }

// The identity transform in any dimension
type Identity struct{}

func (Identity) Apply(dst, src []float64) { copy(dst, src) }

// An n-dimensional affine transformation x' = A x + t, stored as an
// n x (n+1) matrix with the translation in the last column.
type Affine struct {
	m *mat.Dense
}

// Creates an affine transform of dimension n from row-major data with n*(n+1) entries
func NewAffine(n int, data []float64) (*Affine, error) {
	if n <= 0 || len(data) != n*(n+1) {
		return nil, fmt.Errorf("%w: affine of dimension %d needs %d entries, got %d", ErrDimensionMismatch, n, n*(n+1), len(data))
	}
	return &Affine{mat.NewDense(n, n+1, append([]float64(nil), data...))}, nil
}

// Creates an affine transform which scales each axis by s[d] and then translates by t[d]
func NewScaleTranslation(s, t []float64) (*Affine, error) {
	if len(s) != len(t) {
		return nil, fmt.Errorf("%w: %d scales vs %d offsets", ErrDimensionMismatch, len(s), len(t))
	}
	n := len(s)
	data := make([]float64, n*(n+1))
	for d := 0; d < n; d++ {
		data[d*(n+1)+d] = s[d]
		data[d*(n+1)+n] = t[d]
	}
	return NewAffine(n, data)
}

func (a *Affine) NumDimensions() int {
	r, _ := a.m.Dims()
	return r
}

// Returns the entry at the given row and column
func (a *Affine) At(row, col int) float64 { return a.m.At(row, col) }

func (a *Affine) Apply(dst, src []float64) {
	n := a.NumDimensions()
	var tmp [4]float64
	var out []float64
	if n <= len(tmp) {
		out = tmp[:n]
	} else {
		out = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		row := a.m.RawRowView(i)
		out[i] = floats.Dot(row[:n], src[:n]) + row[n]
	}
	copy(dst, out)
}

func (a *Affine) String() string {
	return fmt.Sprintf("%v", mat.Formatted(a.m, mat.Squeeze()))
}

// Applies the given transforms one after another, first to last
type Sequence []RealTransform

func (s Sequence) Apply(dst, src []float64) {
	if len(s) == 0 {
		copy(dst, src)
		return
	}
	tmp := append([]float64(nil), src...)
	for _, t := range s {
		t.Apply(dst, tmp)
		copy(tmp, dst)
	}
}
