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

	"github.com/mattrussellcrick/bigwarp/internal/geom"
)

// Estimates the bounding box of an interval after transformation, by sampling its faces.
// Exactly one of Spacing and Counts should be given; Spacing wins if both are.
// With Corners, only the 2^n corners are transformed.
type OpBoundingBox struct {
	OpBase
	Interval  geom.RealInterval `json:"interval"`
	Transform TransformSpec     `json:"transform"`
	Spacing   []float64         `json:"spacing,omitempty"`
	Counts    []int             `json:"counts,omitempty"`
	Corners   bool              `json:"corners"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpBoundingBoxDefault() }) } // register the operator for JSON decoding

func NewOpBoundingBoxDefault() *OpBoundingBox {
	return NewOpBoundingBox(0, geom.RealInterval{}, TransformSpec{Type: TransformIdentity}, nil, nil)
}

func NewOpBoundingBox(id int, interval geom.RealInterval, transform TransformSpec, spacing []float64, counts []int) *OpBoundingBox {
	return &OpBoundingBox{
		OpBase:    OpBase{Type: "bbox", Active: true, ID: id},
		Interval:  interval,
		Transform: transform,
		Spacing:   spacing,
		Counts:    counts,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpBoundingBox) UnmarshalJSON(data []byte) error {
	type defaults OpBoundingBox
	def := defaults(*NewOpBoundingBoxDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpBoundingBox(def)
	return nil
}

func (op *OpBoundingBox) Apply(c *Context) (r *Result, err error) {
	if err := op.Interval.Validate(); err != nil {
		return nil, fmt.Errorf("%d: %w", op.ID, err)
	}
	nd := op.Interval.NumDimensions()
	t, err := op.Transform.Build(nd)
	if err != nil {
		return nil, fmt.Errorf("%d: %w", op.ID, err)
	}

	var bb geom.RealInterval
	samples := 0
	sampler := geom.Sampler{MaxSamples: c.MaxSamples}
	switch {
	case op.Corners:
		bb, err = sampler.BoundingBoxCorners(t, op.Interval)
		if err == nil {
			samples = 1 << uint(nd)
		}
	case op.Spacing != nil:
		samples, err = geom.CountFaceSamples(op.Interval, op.Spacing)
		if err == nil {
			bb, err = sampler.BoundingBoxFacesSpacing(t, op.Interval, op.Spacing)
		}
	case op.Counts != nil:
		var spacing []float64
		spacing, err = geom.SpacingFromCounts(op.Interval, op.Counts)
		if err == nil {
			samples, err = geom.CountFaceSamples(op.Interval, spacing)
		}
		if err == nil {
			bb, err = sampler.BoundingBoxFacesSpacing(t, op.Interval, spacing)
		}
	default:
		err = fmt.Errorf("%w: neither spacing nor counts given", geom.ErrInvalidSampling)
	}
	if err != nil {
		return nil, fmt.Errorf("%d: %w", op.ID, err)
	}

	fmt.Fprintf(c.Log, "%d: Bounding box of %v under %s transform is %v (%d samples)\n",
		op.ID, op.Interval, op.Transform.Type, bb, samples)
	return &Result{ID: op.ID, Type: op.Type, Interval: &bb, Samples: samples}, nil
}
