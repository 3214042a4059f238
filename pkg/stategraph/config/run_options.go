package config

import (
	"github.com/stategraph-io/stategraph/pkg/stategraph"
)

// Recognized run option keys.
const (
	KeyMaxSteps     = "max_steps"
	KeyNodeTimeout  = "node_timeout"
	KeyStreamBuffer = "stream_buffer"
	KeyRunID        = "run_id"
)

// RunOptions translates recognized keys into engine run options.
// Unknown keys are ignored, so a run section can live inside a larger
// application config.
//
// Recognized keys:
//
//	max_steps:     int
//	node_timeout:  duration string ("30s") or seconds
//	stream_buffer: int
//	run_id:        string
func RunOptions(c Config) []stategraph.RunOption {
	var opts []stategraph.RunOption

	if c.Has(KeyMaxSteps) {
		if n := c.Int(KeyMaxSteps, 0); n > 0 {
			opts = append(opts, stategraph.WithMaxSteps(n))
		}
	}
	if c.Has(KeyNodeTimeout) {
		if d := c.Duration(KeyNodeTimeout, 0); d > 0 {
			opts = append(opts, stategraph.WithNodeTimeout(d))
		}
	}
	if c.Has(KeyStreamBuffer) {
		if n := c.Int(KeyStreamBuffer, 0); n > 0 {
			opts = append(opts, stategraph.WithStreamBuffer(n))
		}
	}
	if c.Has(KeyRunID) {
		if id := c.String(KeyRunID, ""); id != "" {
			opts = append(opts, stategraph.WithRunID(id))
		}
	}

	return opts
}
