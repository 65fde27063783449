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
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Minimum column length for rotation extraction
const axisEpsilon = 1e-12

func column(a Affine3D, c int) r3.Vec {
	return r3.Vec{X: a[0][c], Y: a[1][c], Z: a[2][c]}
}

func vec3(v r3.Vec) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// Extracts the rotation closest to the linear part of a, as a unit quaternion.
// The direction of the z column is kept exactly. The y column is made
// orthogonal to it, and x completes a right-handed frame, so scaling, shear
// and mirroring are discarded.
func ApproximateRotation(a Affine3D) (mgl64.Quat, error) {
	c1, c2 := column(a, 1), column(a, 2)
	if r3.Norm(c2) < axisEpsilon {
		return mgl64.Quat{}, fmt.Errorf("%w: z axis collapses", ErrSingular)
	}
	z := r3.Unit(c2)
	y := r3.Sub(c1, r3.Scale(r3.Dot(c1, z), z))
	if r3.Norm(y) < axisEpsilon {
		return mgl64.Quat{}, fmt.Errorf("%w: y axis parallel to z axis", ErrSingular)
	}
	y = r3.Unit(y)
	x := r3.Cross(y, z)

	rot := mgl64.Mat3FromCols(vec3(x), vec3(y), vec3(z))
	return mgl64.Mat4ToQuat(rot.Mat4()).Normalize(), nil
}

// Returns the rotation of q as an affine transform without translation
func FromQuat(q mgl64.Quat) Affine3D {
	m := q.Normalize().Mat4()
	var a Affine3D
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			a[r][c] = m.At(r, c)
		}
	}
	return a
}

// Returns the rotation angle in radians between the orientations of two unit
// quaternions. q and -q describe the same orientation.
func QuaternionAngle(q1, q2 mgl64.Quat) float64 {
	dot := q1.Dot(q2)
	cos := 2*dot*dot - 1
	// rounding may push unit inputs just outside acos' domain
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
