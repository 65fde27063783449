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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	nl "github.com/mattrussellcrick/bigwarp/internal"
	"github.com/mattrussellcrick/bigwarp/internal/ops"
	"github.com/mattrussellcrick/bigwarp/internal/rest"
)

const version = "0.1.0"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out = flag.String("out", "", "save results as JSON to `file`")
var log = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")

var maxThreads = flag.Int("maxThreads", runtime.GOMAXPROCS(0), "run up to this many operators of a batch in parallel")
var maxSamples = flag.Int("maxSamples", 0, "maximum number of points sampled per bounding box, 0=auto from physical memory, -1=unlimited")

var minArg = flag.String("min", "0,0,0", "comma-separated interval minimum, or source extent minimum for init")
var maxArg = flag.String("max", "", "comma-separated interval maximum, or source extent maximum for init")
var affineArg = flag.String("affine", "", "comma-separated row-major n x (n+1) affine transform, or 3x4 source transform for init. Empty=identity")
var spacing = flag.String("spacing", "", "comma-separated face sampling spacing per dimension")
var counts = flag.String("counts", "", "comma-separated face sample count per dimension, used if no spacing is given")
var corners = flag.Bool("corners", false, "bound the transformed corners only, exact for affine transforms")

var width = flag.Int("width", 800, "viewport width in pixels")
var height = flag.Int("height", 600, "viewport height in pixels")
var zoomedIn = flag.Bool("zoomedIn", false, "fill the viewport and crop the slice, instead of showing all of it")
var timepoint = flag.Int("timepoint", 0, "current timepoint")
var posZ = flag.Bool("posZ", false, "make the z scale of the initial transform positive")
var posDet = flag.Bool("posDet", false, "flip x if the initial transform is improper")
var permuteXY = flag.Bool("permuteXY", false, "swap the x and y rows of the initial transform")

var addr = flag.String("addr", ":8080", "serve on this address")
var chroot = flag.String("chroot", "", "chroot to this directory before serving, requires root")
var setuid = flag.Int("setuid", -1, "change to this user id before serving, -1=keep")

func main() {
	logWriter := nl.LogWriter()
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(logWriter, `Warpgeom Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (bbox|init|batch|serve|legal|version) (batch.json)

Commands:
  bbox    Estimate the bounding box of the interval -min..-max under the -affine transform
  init    Compute the initial viewer transform for a source with extent -min..-max
  batch   Run the operators from the given JSON file in parallel
  serve   Serve the operators via REST on -addr
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log == "%auto" {
		*log = autoFileName(*out, ".log")
	}
	if *log != "" {
		if err := nl.LogAlsoToFile(*log); err != nil {
			nl.LogFatalf("Unable to open logfile '%s': %s\n", *log, err.Error())
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			nl.LogFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			nl.LogFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	c := ops.NewContext(logWriter)
	c.MaxThreads = *maxThreads
	switch {
	case *maxSamples < 0:
		c.MaxSamples = 0
	case *maxSamples > 0:
		c.MaxSamples = *maxSamples
	}

	var results []*ops.Result
	var err error
	switch args[0] {
	case "bbox":
		var op *ops.OpBoundingBox
		if op, err = newOpBoundingBoxFromArgs(*minArg, *maxArg, *affineArg, *spacing, *counts, *corners); err == nil {
			results, err = applyOne(op, c)
		}

	case "init":
		var op *ops.OpInitTransform
		if op, err = newOpInitTransformFromArgs(*minArg, *maxArg, *affineArg, *width, *height, *zoomedIn, *timepoint); err == nil {
			op.EnsurePositiveZ, op.EnsurePositiveDet, op.PermuteXY = *posZ, *posDet, *permuteXY
			results, err = applyOne(op, c)
		}

	case "batch":
		if len(args) < 2 {
			err = fmt.Errorf("batch needs a JSON file name")
			break
		}
		var op *ops.OpBatch
		if op, err = loadBatch(args[1]); err == nil {
			results, err = op.ApplyAll(c)
		}

	case "serve":
		if err = rest.MakeSandbox(logWriter, *chroot, *setuid); err == nil {
			err = rest.Serve(*addr, c)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)
		fmt.Fprintf(logWriter, "Running on %s with %d physical cores, %d logical cores, AVX2=%v, %d MiB memory, Go %s %s/%s\n",
			cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.AVX2(),
			totalMiBs, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	if len(results) > 0 {
		if errOut := writeResults(logWriter, *out, results); errOut != nil && err == nil {
			err = errOut
		}
	}

	now := time.Now()
	elapsed := now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)

	// Store memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			nl.LogFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			nl.LogFatal("Could not write allocation profile: ", err)
		}
	}

	if err != nil {
		nl.LogFatalf("Error: %s\n", err.Error())
	}
	nl.LogSync()
}

func applyOne(op ops.Operator, c *ops.Context) ([]*ops.Result, error) {
	r, err := op.Apply(c)
	if err != nil {
		return nil, err
	}
	return []*ops.Result{r}, nil
}

// Prints the results as JSON, and saves them to the given file unless empty
func writeResults(logWriter io.Writer, fileName string, results []*ops.Result) error {
	bs, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "Results:\n%s\n", string(bs))
	if fileName == "" {
		return nil
	}
	return os.WriteFile(fileName, bs, 0666)
}
