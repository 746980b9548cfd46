package vex

import (
	"sync"

	"github.com/xyproto/env/v2"
)

// OptLevel selects how aggressively compiled expression routines are
// tuned. It maps onto the unroll factor of the generated inner loop.
type OptLevel int

const (
	OptNone OptLevel = iota
	OptDefault
	OptAggressive
)

// Pass names an optimization applied to compiled routines. The engine
// evaluates a fixed step program, so the passes describe the pipeline
// configuration contract rather than toggling individual rewrites; they
// are reported by Active for introspection and kept stable so hosts can
// assert on the configuration they loaded with.
type Pass int

const (
	PassSROA Pass = iota
	PassInstCombine
	PassReassociate
	PassSCCP
	PassGVN
	PassLICM
	PassSimplifyCFG
	PassEarlyCSE
	PassInline
)

// Config is the process-wide code generation configuration. It is
// applied once: the first Configure call wins and later calls are
// ignored, so concurrent plugin loads cannot race the pipeline.
type Config struct {
	OptLevel OptLevel

	// FastMath records that the generated code may assume no NaN
	// propagation is required. It is kept for introspection; no kernel
	// reads it, and the integer store clamp maps NaN to zero either way.
	FastMath bool

	// Passes is the optimization pipeline, in order.
	Passes []Pass

	// Unroll is the number of expression bodies inlined per inner-loop
	// iteration. Zero selects the value implied by OptLevel.
	Unroll int
}

// DefaultConfig returns the pipeline the engine is loaded with when the
// host does not configure it explicitly.
func DefaultConfig() Config {
	return Config{
		OptLevel: OptAggressive,
		FastMath: true,
		Passes: []Pass{
			PassSROA, PassInstCombine, PassReassociate, PassSCCP,
			PassGVN, PassLICM, PassSimplifyCFG, PassEarlyCSE,
			PassSimplifyCFG, PassInline,
		},
	}
}

var (
	configOnce   sync.Once
	activeConfig Config
)

// Configure installs the process-wide configuration. Only the first call
// has any effect; the active configuration is returned either way.
// VEX_UNROLL overrides the unroll factor regardless of the caller.
func Configure(c Config) Config {
	configOnce.Do(func() {
		if c.Unroll <= 0 {
			if c.OptLevel >= OptAggressive {
				c.Unroll = 2
			} else {
				c.Unroll = 1
			}
		}
		if n := env.Int("VEX_UNROLL", 0); n > 0 && n <= 4 {
			c.Unroll = n
		}
		activeConfig = c
	})
	return activeConfig
}

// Active returns the process-wide configuration, installing the default
// pipeline if no host configured one yet.
func Active() Config {
	return Configure(DefaultConfig())
}
