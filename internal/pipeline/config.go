// Package pipeline reduces a gVCF into a low-coverage mask plus ambiguous
// and consensus variant sets in a single sequential pass.
package pipeline

import (
	"math"

	"github.com/inodb/gvcf-reduce/internal/classify"
	"github.com/inodb/gvcf-reduce/internal/gvcferr"
)

// DefaultMinDepth is the default minimum depth below which positions are masked.
const DefaultMinDepth = 10

// Config holds the numeric parameters of a reduction.
type Config struct {
	MinDepth   int64
	Thresholds classify.Thresholds
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MinDepth:   DefaultMinDepth,
		Thresholds: classify.DefaultThresholds(),
	}
}

// Validate checks the configuration before any input is read.
func (c Config) Validate() error {
	if c.MinDepth < 0 || c.MinDepth > math.MaxInt32 {
		return gvcferr.Configurationf("minimum depth %d outside [0, %d]", c.MinDepth, math.MaxInt32)
	}
	return c.Thresholds.Validate()
}
