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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/geom"
	"github.com/mattrussellcrick/bigwarp/internal/view"
)

const epsilon = 1e-9

func testContext(log io.Writer) *Context {
	return &Context{Log: log, MaxSamples: 1 << 20, MaxThreads: 4}
}

func intervalEquals(t *testing.T, got *geom.RealInterval, min, max []float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("interval=nil; want %v-%v", min, max)
	}
	for d := range min {
		if math.Abs(got.Min[d]-min[d]) > epsilon || math.Abs(got.Max[d]-max[d]) > epsilon {
			t.Errorf("interval=%v; want min %v max %v", got, min, max)
			return
		}
	}
}

func TestUnmarshalOperator(t *testing.T) {
	op, err := UnmarshalOperator([]byte(`{"type":"bbox","id":3,"interval":{"min":[0,0],"max":[1,2]},"spacing":[0.5,1]}`))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	bb, ok := op.(*OpBoundingBox)
	if !ok {
		t.Fatalf("op=%T; want *OpBoundingBox", op)
	}
	if !bb.Active {
		t.Errorf("active=false; want default true")
	}
	if bb.ID != 3 || bb.Transform.Type != TransformIdentity || len(bb.Spacing) != 2 {
		t.Errorf("op=%+v; want id 3, identity transform, 2 spacings", bb)
	}

	if _, err := UnmarshalOperator([]byte(`{"type":"nonsense"}`)); err == nil {
		t.Errorf("err=nil; want unknown operator type")
	}
}

func TestOpBoundingBox(t *testing.T) {
	interval, _ := geom.NewRealInterval([]float64{0, 0}, []float64{1, 2})

	var log bytes.Buffer
	c := testContext(&log)
	op := NewOpBoundingBox(1, interval, TransformSpec{Type: TransformIdentity}, []float64{0.5, 1}, nil)
	r, err := op.Apply(c)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	intervalEquals(t, r.Interval, []float64{0, 0}, []float64{1, 2})
	if r.Samples != 12 {
		t.Errorf("samples=%d; want 12", r.Samples)
	}
	if !strings.Contains(log.String(), "Bounding box") {
		t.Errorf("log=%q; want bounding box message", log.String())
	}

	aff := TransformSpec{Type: TransformAffine, Matrix: []float64{2, 0, 1, 0, 3, -1}}
	op = NewOpBoundingBox(2, interval, aff, nil, nil)
	op.Corners = true
	r, err = op.Apply(c)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	intervalEquals(t, r.Interval, []float64{1, -1}, []float64{3, 5})
	if r.Samples != 4 {
		t.Errorf("samples=%d; want 4", r.Samples)
	}

	// counts [2,4] on widths [1,2] give spacings [2,2], which still hit all corners
	op = NewOpBoundingBox(3, interval, aff, nil, []int{2, 4})
	r, err = op.Apply(c)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	intervalEquals(t, r.Interval, []float64{1, -1}, []float64{3, 5})

	op = NewOpBoundingBox(4, interval, aff, nil, nil)
	if _, err := op.Apply(c); !errors.Is(err, geom.ErrInvalidSampling) {
		t.Errorf("err=%v; want %v", err, geom.ErrInvalidSampling)
	}

	c.MaxSamples = 10
	op = NewOpBoundingBox(5, interval, aff, []float64{0.5, 1}, nil)
	if _, err := op.Apply(c); !errors.Is(err, geom.ErrTooManySamples) {
		t.Errorf("err=%v; want %v", err, geom.ErrTooManySamples)
	}
}

func TestTransformSpecBuild(t *testing.T) {
	spec := TransformSpec{Type: TransformSequence, Steps: []TransformSpec{
		{Type: TransformScaleTranslation, Scale: []float64{2, 2}, Offset: []float64{1, 0}},
		{Type: TransformAffine, Matrix: []float64{0, 1, 0, 1, 0, 0}},
	}}
	xfm, err := spec.Build(2)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	dst := make([]float64, 2)
	xfm.Apply(dst, []float64{1, 2})
	if dst[0] != 4 || dst[1] != 3 {
		t.Errorf("dst=%v; want [4 3]", dst)
	}

	if _, err := (TransformSpec{Type: TransformAffine, Matrix: []float64{1, 2}}).Build(2); err == nil {
		t.Errorf("err=nil; want error for short matrix")
	}
	if _, err := (TransformSpec{Type: "warp"}).Build(2); err == nil {
		t.Errorf("err=nil; want error for unknown type")
	}
}

func TestOpInitTransform(t *testing.T) {
	extent, _ := geom.NewRealInterval([]float64{0, 0, 0}, []float64{99, 99, 0})
	op := NewOpInitTransform(1, 800, 600, false, view.StaticSource{Transform: affine.Identity(), Extent: extent})
	r, err := op.Apply(testContext(io.Discard))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	s := 300 / 49.5
	if r.Transform == nil || math.Abs(r.Transform[0][0]-s) > epsilon || math.Abs(r.Transform[0][3]-(400-50*s)) > epsilon {
		t.Errorf("transform=%v; want scale %g", r.Transform, s)
	}
	if math.Abs(r.Det-s*s*s) > 1e-6 {
		t.Errorf("det=%g; want %g", r.Det, s*s*s)
	}
	if math.Abs(r.DotXY) > epsilon {
		t.Errorf("dotXY=%g; want 0", r.DotXY)
	}

	op.PermuteXY = true
	r, err = op.Apply(testContext(io.Discard))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if r.Det > 0 {
		t.Errorf("det=%g; want negative after permuting x and y", r.Det)
	}

	op.Width = 0
	if _, err := op.Apply(testContext(io.Discard)); !errors.Is(err, view.ErrInvalidViewport) {
		t.Errorf("err=%v; want %v", err, view.ErrInvalidViewport)
	}
}

func TestOpBatchRoundTrip(t *testing.T) {
	raw := `{"type":"batch","steps":[
		{"type":"bbox","id":1,"interval":{"min":[0,0],"max":[1,2]},"corners":true},
		{"type":"init","id":2,"width":800,"height":600,"source":{"transform":[[1,0,0,0],[0,1,0,0],[0,0,1,0]],"extent":{"min":[0,0,0],"max":[99,99,0]}}},
		{"type":"bbox","id":3,"active":false,"interval":{"min":[0],"max":[1]},"corners":true}
	]}`
	op, err := UnmarshalOperator([]byte(raw))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	batch, ok := op.(*OpBatch)
	if !ok {
		t.Fatalf("op=%T; want *OpBatch", op)
	}
	if len(batch.Steps) != 3 {
		t.Fatalf("steps=%d; want 3", len(batch.Steps))
	}

	rs, err := batch.ApplyAll(testContext(io.Discard))
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if len(rs) != 2 || rs[0].ID != 1 || rs[1].ID != 2 {
		t.Fatalf("results=%v; want ids 1 and 2 in order", rs)
	}
	if rs[1].Transform == nil {
		t.Errorf("init result has no transform")
	}

	bs, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	again, err := UnmarshalOperator(bs)
	if err != nil {
		t.Fatalf("err=%v decoding %s; want nil", err, bs)
	}
	if n := len(again.(*OpBatch).Steps); n != 3 {
		t.Errorf("steps=%d after round trip; want 3", n)
	}
}

func TestOpBatchOuterInner(t *testing.T) {
	a, _ := geom.NewRealInterval([]float64{0, 0}, []float64{2, 2})
	shift := TransformSpec{Type: TransformScaleTranslation, Scale: []float64{1, 1}, Offset: []float64{1, 1}}
	batch := NewOpBatch(
		NewOpBoundingBox(1, a, TransformSpec{Type: TransformIdentity}, nil, nil),
		NewOpBoundingBox(2, a, shift, nil, nil),
	)
	for _, step := range batch.Steps {
		step.(*OpBoundingBox).Corners = true
	}

	var log bytes.Buffer
	c := testContext(&log)
	c.MaxThreads = 1
	if _, err := batch.ApplyAll(c); err != nil {
		t.Fatalf("err=%v; want nil", err)
	}
	if !strings.Contains(log.String(), "Outer bounding box of 2 intervals") || !strings.Contains(log.String(), "Inner bounding box of 2 intervals") {
		t.Errorf("log=%q; want outer and inner bounding boxes", log.String())
	}
}

func TestMaterializeAllJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	ins := []Promise{
		func() (*Result, error) { return &Result{ID: 0}, nil },
		func() (*Result, error) { return nil, errA },
		func() (*Result, error) { return &Result{ID: 2}, nil },
		func() (*Result, error) { return nil, errB },
	}
	outs, err := MaterializeAll(ins, 2)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err=%v; want both %v and %v", err, errA, errB)
	}
	if len(outs) != 2 || outs[0].ID != 0 || outs[1].ID != 2 {
		t.Errorf("outs=%v; want ids 0 and 2", outs)
	}

	if outs, err := MaterializeAll(nil, 4); outs != nil || err != nil {
		t.Errorf("outs=%v err=%v; want nil, nil", outs, err)
	}
}

func TestMaterializeAllRecoversPanics(t *testing.T) {
	ins := []Promise{
		func() (*Result, error) { return &Result{ID: 0}, nil },
		func() (*Result, error) {
			var rs []*Result
			return rs[3], nil
		},
	}
	outs, err := MaterializeAll(ins, 2)
	if !errors.Is(err, ErrOperatorPanic) {
		t.Errorf("err=%v; want %v", err, ErrOperatorPanic)
	}
	if len(outs) != 1 || outs[0].ID != 0 {
		t.Errorf("outs=%v; want id 0", outs)
	}
}

func TestOpBoundingBoxCornersBudget(t *testing.T) {
	nd := 63
	interval, _ := geom.NewRealInterval(make([]float64, nd), make([]float64, nd))
	op := NewOpBoundingBox(1, interval, TransformSpec{Type: TransformIdentity}, nil, nil)
	op.Corners = true
	c := testContext(io.Discard)
	c.MaxSamples = 100
	if _, err := op.Apply(c); !errors.Is(err, geom.ErrTooManySamples) {
		t.Errorf("err=%v; want %v", err, geom.ErrTooManySamples)
	}
}

func TestRemoveNils(t *testing.T) {
	a, b := &Result{ID: 1}, &Result{ID: 2}
	rs := RemoveNils([]*Result{nil, a, nil, b, nil})
	if len(rs) != 2 || rs[0] != a || rs[1] != b {
		t.Errorf("rs=%v; want [a b]", rs)
	}
}
