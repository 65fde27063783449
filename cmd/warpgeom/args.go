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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattrussellcrick/bigwarp/internal/affine"
	"github.com/mattrussellcrick/bigwarp/internal/geom"
	"github.com/mattrussellcrick/bigwarp/internal/ops"
	"github.com/mattrussellcrick/bigwarp/internal/view"
)

// Replaces the suffix of the output file name with ext, or returns blank if there is no output file
func autoFileName(out, ext string) string {
	if out == "" {
		return ""
	}
	return strings.TrimSuffix(out, filepath.Ext(out)) + ext
}

// Parses a comma-separated list of floats. Blank gives nil
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	fs := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("entry %d of '%s': %w", i, s, err)
		}
		fs[i] = f
	}
	return fs, nil
}

// Parses a comma-separated list of ints. Blank gives nil
func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	is := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("entry %d of '%s': %w", i, s, err)
		}
		is[i] = n
	}
	return is, nil
}

func parseInterval(minArg, maxArg string) (geom.RealInterval, error) {
	lo, err := parseFloats(minArg)
	if err != nil {
		return geom.RealInterval{}, fmt.Errorf("min: %w", err)
	}
	hi, err := parseFloats(maxArg)
	if err != nil {
		return geom.RealInterval{}, fmt.Errorf("max: %w", err)
	}
	return geom.NewRealInterval(lo, hi)
}

func newOpBoundingBoxFromArgs(minArg, maxArg, affineArg, spacingArg, countsArg string, corners bool) (*ops.OpBoundingBox, error) {
	interval, err := parseInterval(minArg, maxArg)
	if err != nil {
		return nil, err
	}
	transform := ops.TransformSpec{Type: ops.TransformIdentity}
	if affineArg != "" {
		m, err := parseFloats(affineArg)
		if err != nil {
			return nil, fmt.Errorf("affine: %w", err)
		}
		transform = ops.TransformSpec{Type: ops.TransformAffine, Matrix: m}
	}
	spacing, err := parseFloats(spacingArg)
	if err != nil {
		return nil, fmt.Errorf("spacing: %w", err)
	}
	counts, err := parseInts(countsArg)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	op := ops.NewOpBoundingBox(0, interval, transform, spacing, counts)
	op.Corners = corners
	return op, nil
}

func newOpInitTransformFromArgs(minArg, maxArg, affineArg string, width, height int, zoomedIn bool, timepoint int) (*ops.OpInitTransform, error) {
	extent, err := parseInterval(minArg, maxArg)
	if err != nil {
		return nil, err
	}
	source := view.StaticSource{Transform: affine.Identity(), Extent: extent}
	if affineArg != "" {
		m, err := parseFloats(affineArg)
		if err != nil {
			return nil, fmt.Errorf("affine: %w", err)
		}
		if source.Transform, err = affine.FromRowMajor(m); err != nil {
			return nil, fmt.Errorf("affine: %w", err)
		}
	}
	op := ops.NewOpInitTransform(0, width, height, zoomedIn, source)
	op.Timepoint = timepoint
	return op, nil
}

// Loads operators from a JSON file. A single operator is wrapped into a batch
func loadBatch(fileName string) (*ops.OpBatch, error) {
	bs, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	op, err := ops.UnmarshalOperator(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if batch, ok := op.(*ops.OpBatch); ok {
		return batch, nil
	}
	return ops.NewOpBatch(op), nil
}
