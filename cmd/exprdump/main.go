// Copyright 2025 go-pixelexpr Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command exprdump decodes and compiles a pixel expression and prints
// its op listing, property table and routine geometry. It is a
// debugging aid for expression authors.
//
// Usage:
//
//	exprdump -expr "x 2 *"
//	exprdump -expr "x y._Gain *" -inputs 2 -format grays -opt 0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ajroetker/go-pixelexpr/vex"
	"github.com/ajroetker/go-pixelexpr/vex/expr"
)

var (
	exprSrc   = flag.String("expr", "", "Expression source (required)")
	numInputs = flag.Int("inputs", 1, "Number of input clips")
	format    = flag.String("format", "gray8", "Sample format for inputs and output (gray8, gray16, grays)")
	optMask   = flag.Int("opt", 1, "Option bitmask; bit 0 keeps integer arithmetic on integer sources")
)

func pixelFormat(name string) (expr.PixelFormat, bool) {
	switch name {
	case "gray8":
		return expr.PixelFormat{SampleType: expr.SampleInt, BitsPerSample: 8, BytesPerSample: 1}, true
	case "gray16":
		return expr.PixelFormat{SampleType: expr.SampleInt, BitsPerSample: 16, BytesPerSample: 2}, true
	case "grays":
		return expr.PixelFormat{SampleType: expr.SampleFloat, BitsPerSample: 32, BytesPerSample: 4}, true
	}
	return expr.PixelFormat{}, false
}

func main() {
	flag.Parse()

	if *exprSrc == "" {
		fmt.Fprintf(os.Stderr, "Error: -expr flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	pf, ok := pixelFormat(*format)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(1)
	}

	listing, err := expr.Describe(*exprSrc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(listing)

	inputs := make([]expr.PixelFormat, *numInputs)
	for i := range inputs {
		inputs[i] = pf
	}
	compiled, err := expr.Compile(*exprSrc, pf, inputs, *optMask)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nlanes=%d unroll=%d level=%s\n", compiled.Lanes, compiled.Unroll, vex.CurrentLevel())
	if len(compiled.PropAccess) > 0 {
		fmt.Println("properties:")
		for i, pa := range compiled.PropAccess {
			fmt.Printf("  [%d] clip %d, %s\n", i, pa.Clip, pa.Name)
		}
	}
}
