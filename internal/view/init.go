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

// Package view derives initial viewer transforms for data sources.
package view

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/geom"
)

var (
	ErrNoSource             = errors.New("viewer has no current source")
	ErrInvalidViewport      = errors.New("invalid viewport size")
	ErrDegenerateProjection = errors.New("degenerate projection")
)

// Projected coordinates closer to zero than this cannot be scaled to the viewport
const projectionEpsilon = 1e-9

// Computes a "good" initial viewer transform for the current source of the state,
// such that the XY plane is aligned with the screen plane, the z=0 slice is shown,
// and the slice is centered and scaled to the viewport. With zoomedIn the slice
// fills the viewport and is cropped, otherwise all of it is visible.
//
// Returns the identity if the source has no data at the current timepoint.
// The scale is always positive. A mirrored source stays mirrored on screen.
func InitTransform(width, height int, zoomedIn bool, state State) (affine.Affine3D, error) {
	if width <= 0 || height <= 0 {
		return affine.Affine3D{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	cX, cY := float64(width/2), float64(height/2)

	source := state.CurrentSource()
	if source == nil {
		return affine.Affine3D{}, ErrNoSource
	}
	timepoint := state.CurrentTimepoint()
	if !source.IsPresent(timepoint) {
		return affine.Identity(), nil
	}

	sourceTransform := source.SourceTransform(timepoint)
	extent := source.SpatialExtent(timepoint)
	if extent.NumDimensions() < 2 {
		return affine.Affine3D{}, fmt.Errorf("%w: source extent has %d dimensions, want at least 2",
			geom.ErrDimensionMismatch, extent.NumDimensions())
	}
	sX1, sY1 := extent.Max[0], extent.Max[1]
	sX := (extent.Min[0] + sX1 + 1) / 2
	sY := (extent.Min[1] + sY1 + 1) / 2

	// rotation
	qSource, err := affine.ApproximateRotation(sourceTransform)
	if err != nil {
		return affine.Affine3D{}, fmt.Errorf("source transform: %w", err)
	}
	qViewer := qSource.Inverse()
	viewerTransform := affine.FromQuat(qViewer)

	// translation
	centerGlobal := sourceTransform.Transform([3]float64{sX, sY, 0})
	t := qViewer.Rotate(mgl64.Vec3(centerGlobal)).Mul(-1)
	viewerTransform = viewerTransform.Translate(t[0], t[1], t[2])

	// scale
	pGlobal := sourceTransform.Transform([3]float64{sX1 + 0.5, sY1 + 0.5, 0})
	pScreen := viewerTransform.Transform(pGlobal)
	// mirrored sources project the corner to negative x, the extent still counts
	pX, pY := math.Abs(pScreen[0]), math.Abs(pScreen[1])
	if pX < projectionEpsilon || pY < projectionEpsilon {
		return affine.Affine3D{}, fmt.Errorf("%w: corner projects to (%g, %g)", ErrDegenerateProjection, pScreen[0], pScreen[1])
	}
	scaleX := cX / pX
	scaleY := cY / pY
	scale := math.Min(scaleX, scaleY)
	if zoomedIn {
		scale = math.Max(scaleX, scaleY)
	}
	viewerTransform = viewerTransform.Scale(scale)

	// window center offset
	return viewerTransform.Translate(cX, cY, 0), nil
}

// Sets a "good" initial transform on the viewer, fitting the current source
// into the viewer's display. See InitTransform.
func InitViewerTransform(v Viewer) error {
	width, height := v.DisplaySize()
	t, err := InitTransform(width, height, false, v.State())
	if err != nil {
		return err
	}
	v.SetCurrentViewerTransform(t)
	return nil
}
