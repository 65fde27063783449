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

package ops

import (
	"fmt"

	"github.com/mattrussellcrick/bigwarp/internal/geom"
)

// Kinds of transforms which can be described in JSON
const (
	TransformIdentity         = "identity"
	TransformAffine           = "affine"
	TransformScaleTranslation = "scaleTranslation"
	TransformSequence         = "sequence"
)

// A serializable description of a coordinate transform
type TransformSpec struct {
	Type   string          `json:"type"`
	Matrix []float64       `json:"matrix,omitempty"` // row-major n x (n+1), for affine
	Scale  []float64       `json:"scale,omitempty"`  // per axis, for scaleTranslation
	Offset []float64       `json:"offset,omitempty"` // per axis, for scaleTranslation
	Steps  []TransformSpec `json:"steps,omitempty"`  // applied first to last, for sequence
}

// Builds the transform for n-dimensional coordinates
func (s TransformSpec) Build(n int) (geom.RealTransform, error) {
	switch s.Type {
	case "", TransformIdentity:
		return geom.Identity{}, nil

	case TransformAffine:
		return geom.NewAffine(n, s.Matrix)

	case TransformScaleTranslation:
		if len(s.Scale) != n || len(s.Offset) != n {
			return nil, fmt.Errorf("%w: %s needs %d scales and offsets, got %d and %d",
				geom.ErrDimensionMismatch, s.Type, n, len(s.Scale), len(s.Offset))
		}
		return geom.NewScaleTranslation(s.Scale, s.Offset)

	case TransformSequence:
		seq := make(geom.Sequence, len(s.Steps))
		for i, step := range s.Steps {
			t, err := step.Build(n)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			seq[i] = t
		}
		return seq, nil

	default:
		return nil, fmt.Errorf("unknown transform type '%s'", s.Type)
	}
}
