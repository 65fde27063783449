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
	"encoding/json"
	"fmt"

	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/view"
)

// Computes the initial viewer transform for a source shown in a viewport of the given size.
// The optional fixups are applied to the result in the order EnsurePositiveZ, EnsurePositiveDet, PermuteXY.
type OpInitTransform struct {
	OpBase
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	ZoomedIn          bool              `json:"zoomedIn"`
	Source            view.StaticSource `json:"source"`
	Timepoint         int               `json:"timepoint"`
	EnsurePositiveZ   bool              `json:"ensurePositiveZ"`
	EnsurePositiveDet bool              `json:"ensurePositiveDet"`
	PermuteXY         bool              `json:"permuteXY"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpInitTransformDefault() }) } // register the operator for JSON decoding

func NewOpInitTransformDefault() *OpInitTransform {
	return NewOpInitTransform(0, 800, 600, false, view.StaticSource{Transform: affine.Identity()})
}

func NewOpInitTransform(id, width, height int, zoomedIn bool, source view.StaticSource) *OpInitTransform {
	return &OpInitTransform{
		OpBase:   OpBase{Type: "init", Active: true, ID: id},
		Width:    width,
		Height:   height,
		ZoomedIn: zoomedIn,
		Source:   source,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpInitTransform) UnmarshalJSON(data []byte) error {
	type defaults OpInitTransform
	def := defaults(*NewOpInitTransformDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpInitTransform(def)
	return nil
}

func (op *OpInitTransform) Apply(c *Context) (r *Result, err error) {
	if op.Source.Extent.NumDimensions() > 0 {
		if err := op.Source.Extent.Validate(); err != nil {
			return nil, fmt.Errorf("%d: %w", op.ID, err)
		}
	}

	state := view.StaticState{Source: &op.Source, Timepoint: op.Timepoint}
	xfm, err := view.InitTransform(op.Width, op.Height, op.ZoomedIn, state)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", op.ID, err)
	}
	if op.EnsurePositiveZ {
		xfm = affine.EnsurePositiveZ(xfm)
	}
	if op.EnsurePositiveDet {
		xfm = affine.EnsurePositiveDeterminant(xfm)
	}
	if op.PermuteXY {
		xfm = affine.PermuteXY(xfm)
	}

	det := affine.Det(xfm)
	fmt.Fprintf(c.Log, "%d: Initial transform for %dx%d viewport (zoomedIn=%v) has det %.6g: %v\n",
		op.ID, op.Width, op.Height, op.ZoomedIn, det, xfm)
	return &Result{ID: op.ID, Type: op.Type, Transform: &xfm, Det: det, DotXY: affine.DotXY(xfm)}, nil
}
