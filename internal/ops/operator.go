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
	"fmt"
	"io"
	"runtime"

	"github.com/pbnjay/memory"

	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/geom"
)

var ErrOperatorPanic = errors.New("operator panicked")

// An execution context for operators
type Context struct {
	Log        io.Writer
	MemoryMB   int // memory.TotalMemory()/1024/1024
	MaxSamples int `json:"maxSamples"` // cap on sampled points per bounding box, 0=unlimited
	MaxThreads int `json:"maxThreads"`
}

func NewContext(log io.Writer) *Context {
	return &Context{
		Log:        log,
		MemoryMB:   int(memory.TotalMemory() / 1024 / 1024),
		MaxSamples: geom.DefaultMaxSamples(),
		MaxThreads: runtime.GOMAXPROCS(0),
	}
}

// The outcome of an operator: a bounding interval, or a viewer transform
type Result struct {
	ID        int                `json:"id"`
	Type      string             `json:"type"`
	Interval  *geom.RealInterval `json:"interval,omitempty"`
	Samples   int                `json:"samples,omitempty"`
	Transform *affine.Affine3D   `json:"transform,omitempty"`
	Det       float64            `json:"det,omitempty"`
	DotXY     float64            `json:"dotXY,omitempty"`
}

// A promise for a result. Returns a materialized result, or an error
type Promise func() (r *Result, err error)

// Materializes all promises with given concurrency limit. Failed promises
// are dropped from the output, and their errors joined.
func MaterializeAll(ins []Promise, maxThreads int) (outs []*Result, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	outs = make([]*Result, len(ins))
	limiter := make(chan bool, maxThreads)
	errs := make(chan error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			r, err := materialize(theIn)
			if err != nil {
				errs <- err
				return
			}
			outs[i] = r
			errs <- nil
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	var all []error
	for i := 0; i < len(ins); i++ { // collect errors
		if e := <-errs; e != nil {
			all = append(all, e)
		}
	}
	return RemoveNils(outs), errors.Join(all...)
}

// Materializes a single promise, turning a panic into an error
func materialize(p Promise) (r *Result, err error) {
	defer func() {
		if x := recover(); x != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrOperatorPanic, x)
		}
	}()
	return p()
}

// Remove nils from an array of results, editing the underlying array in place
func RemoveNils(rs []*Result) []*Result {
	o := 0
	for i := 0; i < len(rs); i++ {
		if rs[i] != nil {
			rs[o] = rs[i]
			o++
		}
	}
	for i := o; i < len(rs); i++ {
		rs[i] = nil
	}
	return rs[:o]
}

// A geometry operator, computing one result
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(c *Context) (r *Result, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
	ID     int    `json:"id"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of Operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// Decodes a single polymorphic operator from JSON, based on its type field
func UnmarshalOperator(raw []byte) (Operator, error) {
	var base OpBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	factory := GetOperatorFactory(base.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown operator type '%s' in raw JSON message '%s'", base.Type, string(raw))
	}
	op := factory()
	if err := json.Unmarshal(raw, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Applies several operators concurrently, collecting their results in order
type OpBatch struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpBatchDefault() }) } // register the operator for JSON decoding

func NewOpBatchDefault() *OpBatch { return NewOpBatch() }

func NewOpBatch(steps ...Operator) *OpBatch {
	return &OpBatch{
		OpBase: OpBase{Type: "batch", Active: true},
		Steps:  steps,
	}
}

// Unmarshals a batch of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpBatch) UnmarshalJSON(b []byte) error {
	type alias OpBatch
	def := alias(*NewOpBatchDefault())
	if err := json.Unmarshal(b, &def); err != nil {
		return err
	}
	*op = OpBatch(def)
	op.Steps = nil
	for _, raw := range op.StepsRaw {
		step, err := UnmarshalOperator(raw)
		if err != nil {
			return err
		}
		op.Steps = append(op.Steps, step)
	}
	return nil
}

// Marshals a batch with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpBatch) MarshalJSON() (bs []byte, err error) {
	buf := bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err := json.Marshal(op.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"id\":%d, \"steps\":", op.Active, op.ID)
	steps := op.Steps
	if steps == nil {
		steps = []Operator{}
	}
	inner, err = json.Marshal(steps)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

// Returns one promise per active step
func (op *OpBatch) MakePromises(c *Context) (outs []Promise) {
	for _, step := range op.Steps {
		if !step.IsActive() {
			continue
		}
		theStep := step
		outs = append(outs, func() (*Result, error) { return theStep.Apply(c) })
	}
	return outs
}

// Runs all active steps with up to c.MaxThreads in parallel
func (op *OpBatch) ApplyAll(c *Context) ([]*Result, error) {
	if !op.Active {
		return nil, nil
	}
	fmt.Fprintf(c.Log, "Running %d operators on up to %d threads\n", len(op.Steps), c.MaxThreads)
	rs, err := MaterializeAll(op.MakePromises(c), c.MaxThreads)
	logOuterInner(c, rs)
	return rs, err
}

// Logs the outer and inner bounding boxes if the results contain several intervals
func logOuterInner(c *Context, rs []*Result) {
	var intervals []geom.RealInterval
	for _, r := range rs {
		if r.Interval != nil {
			intervals = append(intervals, *r.Interval)
		}
	}
	if len(intervals) < 2 {
		return
	}
	outer, inner, overlap, err := geom.OuterInner(intervals)
	if err != nil {
		fmt.Fprintf(c.Log, "Skipping outer and inner bounding boxes: %s\n", err.Error())
		return
	}
	fmt.Fprintf(c.Log, "Outer bounding box of %d intervals is %v\n", len(intervals), outer)
	if overlap {
		fmt.Fprintf(c.Log, "Inner bounding box of %d intervals is %v\n", len(intervals), inner)
	} else {
		fmt.Fprintf(c.Log, "The %d intervals do not overlap\n", len(intervals))
	}
}

// Runs the batch, returning the first result. Use ApplyAll for all of them
func (op *OpBatch) Apply(c *Context) (*Result, error) {
	rs, err := op.ApplyAll(c)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("%s operator produced no results", op.Type)
	}
	return rs[0], nil
}
