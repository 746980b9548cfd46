// Package vex provides the portable SIMD-lane kernels that back the
// per-pixel expression compiler.
//
// Vectors are fixed-length slices whose length is the lane count chosen
// at runtime (see MaxLanes). All kernels are destination-style and
// operate on exactly len(dst) lanes, so a compiled expression program
// can run allocation-free over preallocated registers.
//
// Masks are []int32 holding -1 (all bits set) for true lanes and 0 for
// false lanes, so mask results compose with bitwise blends the same way
// hardware compare results do.
package vex
