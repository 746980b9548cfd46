package vex

import (
	"github.com/xyproto/env/v2"
)

// Level identifies the lane-width class selected for this process.
type Level int

const (
	// LevelScalar processes 4 lanes per step with no width assumption.
	LevelScalar Level = iota

	// Level128 targets 128-bit registers (SSE2/NEON class), 4 float lanes.
	Level128

	// Level256 targets 256-bit registers (AVX2 class), 8 float lanes.
	Level256
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelScalar:
		return "scalar"
	case Level128:
		return "128"
	case Level256:
		return "256"
	default:
		return "unknown"
	}
}

// currentLevel and currentLanes are set once by init() in the
// dispatch_*.go files and never change afterwards.
var (
	currentLevel Level
	currentLanes int
)

// CurrentLevel returns the lane-width class selected for this process.
func CurrentLevel() Level {
	return currentLevel
}

// MaxLanes returns the number of float32 lanes a compiled expression
// processes per step. It is fixed for the lifetime of the process.
func MaxLanes() int {
	return currentLanes
}

// setLevel records the detected level unless the environment overrides it.
// VEX_NO_SIMD=1 forces the scalar level; VEX_LANES=4|8 pins the lane
// count directly.
func setLevel(l Level) {
	if env.Bool("VEX_NO_SIMD") {
		l = LevelScalar
	}
	currentLevel = l
	switch l {
	case Level256:
		currentLanes = 8
	default:
		currentLanes = 4
	}
	if n := env.Int("VEX_LANES", 0); n == 4 || n == 8 {
		currentLanes = n
	}
}
