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
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/valyala/fastrand"
)

const epsilon = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= epsilon }

func affineClose(a, b Affine3D) bool {
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			if !near(a[r][c], b[r][c]) {
				return false
			}
		}
	}
	return true
}

func randAffine(rng *fastrand.RNG) Affine3D {
	var a Affine3D
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			a[r][c] = float64(rng.Uint32n(2001))/100 - 10
		}
		a[r][r] += 25
	}
	return a
}

func TestDet(t *testing.T) {
	if d := Det(Identity()); !near(d, 1) {
		t.Errorf("det(identity)=%g; want 1", d)
	}
	a := Identity().Scale(2)
	if d := Det(a); !near(d, 8) {
		t.Errorf("det(2*identity)=%g; want 8", d)
	}
	// translation does not contribute
	a = Identity().Translate(5, 6, 7)
	if d := Det(a); !near(d, 1) {
		t.Errorf("det(translation)=%g; want 1", d)
	}
}

func TestEnsurePositiveDeterminant(t *testing.T) {
	mirror := Affine3D{
		{-1, 0, 0, 3},
		{0, 1, 0, 4},
		{0, 0, 1, 5},
	}
	if d := Det(mirror); !near(d, -1) {
		t.Fatalf("det(mirror)=%g; want -1", d)
	}
	fixed := EnsurePositiveDeterminant(mirror)
	if d := Det(fixed); !near(d, 1) {
		t.Errorf("det(fixed)=%g; want 1", d)
	}
	if fixed[1] != mirror[1] || fixed[2] != mirror[2] {
		t.Errorf("fixed=%v; want y and z rows unchanged from %v", fixed, mirror)
	}
	if fixed[0][3] != -3 {
		t.Errorf("fixed x translation=%g; want -3", fixed[0][3])
	}
	if mirror[0][0] != -1 {
		t.Errorf("input modified: %v", mirror)
	}

	proper := Identity().Scale(3)
	if got := EnsurePositiveDeterminant(proper); got != proper {
		t.Errorf("got %v; want unchanged %v", got, proper)
	}

	rng := fastrand.RNG{}
	for i := 0; i < 100; i++ {
		a := randAffine(&rng)
		if rng.Uint32n(2) == 0 {
			a = FlipX(a)
		}
		if d := Det(EnsurePositiveDeterminant(a)); d <= 0 {
			t.Errorf("det(EnsurePositiveDeterminant(%v))=%g; want >0", a, d)
		}
	}
}

func TestEnsurePositiveZ(t *testing.T) {
	a := Identity().Set(-2, 2, 2)
	if got := EnsurePositiveZ(a); got[2][2] != 2 {
		t.Errorf("a[2][2]=%g; want 2", got[2][2])
	}
}

func TestPermuteXY(t *testing.T) {
	a := Affine3D{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	want := Affine3D{
		{5, 6, 7, 8},
		{1, 2, 3, 4},
		{9, 10, 11, 12},
	}
	if got := PermuteXY(a); got != want {
		t.Errorf("PermuteXY=%v; want %v", got, want)
	}
	if got := PermuteXY(PermuteXY(a)); got != a {
		t.Errorf("PermuteXY twice=%v; want %v", got, a)
	}
}

func TestDotXY(t *testing.T) {
	if d := DotXY(Identity()); d != 0 {
		t.Errorf("DotXY(identity)=%g; want 0", d)
	}
	shear := Affine3D{
		{1, 1, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	if d := DotXY(shear); d != 1 {
		t.Errorf("DotXY(shear)=%g; want 1", d)
	}
}

func TestConcatenateInverse(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 0; i < 50; i++ {
		a := randAffine(&rng)
		inv, err := a.Inverse()
		if err != nil {
			t.Fatalf("err=%v; want nil", err)
		}
		if got := a.Concatenate(inv); !affineClose(got, Identity()) {
			t.Errorf("a*inv(a)=%v; want identity", got)
		}
		p := [3]float64{1, -2, 3}
		q := a.Concatenate(Identity().Translate(1, 1, 1)).Transform(p)
		want := a.Transform([3]float64{2, -1, 4})
		for d := range q {
			if !near(q[d], want[d]) {
				t.Errorf("concatenated q=%v; want %v", q, want)
				break
			}
		}
	}

	var singular Affine3D
	if _, err := singular.Inverse(); !errors.Is(err, ErrSingular) {
		t.Errorf("err=%v; want %v", err, ErrSingular)
	}
}

func TestRowMajor(t *testing.T) {
	m := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	a, err := FromRowMajor(m)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if a[1][2] != 7 || a[2][3] != 12 {
		t.Errorf("a=%v; want row-major layout", a)
	}
	if _, err := FromRowMajor(m[:11]); err == nil {
		t.Errorf("err=nil; want error for 11 values")
	}
}

func TestNormalize(t *testing.T) {
	x := []float64{3, 4, 0}
	if err := Normalize(x); err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	want := []float64{0.6, 0.8, 0}
	for i := range x {
		if !near(x[i], want[i]) {
			t.Errorf("x[%d]=%g; want %g", i, x[i], want[i])
		}
	}
	if m := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2]); !near(m, 1) {
		t.Errorf("|x|=%g; want 1", m)
	}
	if err := Normalize([]float64{0, 0, 0}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("err=%v; want %v", err, ErrZeroVector)
	}
}

func TestQuaternionAngle(t *testing.T) {
	rng := fastrand.RNG{}
	for i := 0; i < 100; i++ {
		axis := mgl64.Vec3{
			float64(rng.Uint32n(200)) - 100,
			float64(rng.Uint32n(200)) - 100,
			float64(rng.Uint32n(200)) + 1,
		}.Normalize()
		angle := float64(rng.Uint32n(314)) / 100
		q := mgl64.QuatRotate(angle, axis)
		neg := mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}

		if a := QuaternionAngle(q, q); math.Abs(a) > 1e-6 {
			t.Errorf("angle(q,q)=%g; want 0", a)
		}
		if a := QuaternionAngle(q, neg); math.Abs(a) > 1e-6 {
			t.Errorf("angle(q,-q)=%g; want 0", a)
		}
	}

	q1 := mgl64.QuatIdent()
	q2 := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	if a := QuaternionAngle(q1, q2); !near(a, math.Pi/2) {
		t.Errorf("angle=%g; want %g", a, math.Pi/2)
	}
}

func TestApproximateRotation(t *testing.T) {
	q, err := ApproximateRotation(Identity().Scale(4).Translate(1, 2, 3))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if a := QuaternionAngle(q, mgl64.QuatIdent()); math.Abs(a) > 1e-6 {
		t.Errorf("angle to identity=%g; want 0", a)
	}

	// rotation by 90 degrees about z, scaled anisotropically
	rz := FromQuat(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	scaled := rz.Concatenate(Affine3D{
		{2, 0, 0, 0},
		{0, 3, 0, 0},
		{0, 0, 5, 0},
	})
	q, err = ApproximateRotation(scaled)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if got := FromQuat(q); !affineClose(got, rz) {
		t.Errorf("rotation=%v; want %v", got, rz)
	}

	if _, err := ApproximateRotation(Affine3D{}); !errors.Is(err, ErrSingular) {
		t.Errorf("err=%v; want %v", err, ErrSingular)
	}
}

func TestFromQuatInverseIsTranspose(t *testing.T) {
	q := mgl64.QuatRotate(0.7, mgl64.Vec3{1, 2, 3}.Normalize())
	r, rInv := FromQuat(q), FromQuat(q.Inverse())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !near(r[i][j], rInv[j][i]) {
				t.Errorf("r[%d][%d]=%g; want %g", i, j, r[i][j], rInv[j][i])
			}
		}
	}
}
