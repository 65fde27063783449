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

package view

import (
	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/geom"
)

// A data source as seen by the viewer, read only
type Source interface {
	// Returns true if the source has data at the given timepoint
	IsPresent(timepoint int) bool
	// Returns the transform from source-local voxel coordinates into the common frame
	SourceTransform(timepoint int) affine.Affine3D
	// Returns the voxel extent of the source, at least two dimensional
	SpatialExtent(timepoint int) geom.RealInterval
}

// A snapshot of viewer state, read only
type State interface {
	CurrentSource() Source
	CurrentTimepoint() int
}

// A live viewer which can receive a new transform
type Viewer interface {
	DisplaySize() (width, height int)
	State() State
	SetCurrentViewerTransform(t affine.Affine3D)
}

// A source with fixed transform and extent at a set of timepoints
type StaticSource struct {
	Transform  affine.Affine3D   `json:"transform"`
	Extent     geom.RealInterval `json:"extent"`
	Timepoints []int             `json:"timepoints,omitempty"` // empty means present at all timepoints
}

func (s *StaticSource) IsPresent(timepoint int) bool {
	if len(s.Timepoints) == 0 {
		return true
	}
	for _, t := range s.Timepoints {
		if t == timepoint {
			return true
		}
	}
	return false
}

func (s *StaticSource) SourceTransform(int) affine.Affine3D { return s.Transform }
func (s *StaticSource) SpatialExtent(int) geom.RealInterval { return s.Extent }

// A fixed viewer state over a single source
type StaticState struct {
	Source    Source
	Timepoint int
}

func (s StaticState) CurrentSource() Source { return s.Source }
func (s StaticState) CurrentTimepoint() int { return s.Timepoint }
