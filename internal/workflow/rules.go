package workflow

import (
	"time"

	"github.com/indusops/opsdesk/internal/config"
)

// Rules carries the thresholds every derivation in this package reads
type Rules struct {
	OverdueAfter           time.Duration
	L2MarginBelow          float64
	HighUrgencyMarginBelow float64
}

// DefaultRules returns the thresholds used when nothing is configured
func DefaultRules() Rules {
	return Rules{
		OverdueAfter:           24 * time.Hour,
		L2MarginBelow:          5,
		HighUrgencyMarginBelow: 10,
	}
}

// NewRules builds Rules from config, keeping defaults for unset values
func NewRules(cfg config.WorkflowConfig) Rules {
	r := DefaultRules()
	if cfg.OverdueAfter > 0 {
		r.OverdueAfter = cfg.OverdueAfter
	}
	if cfg.L2MarginBelow > 0 {
		r.L2MarginBelow = cfg.L2MarginBelow
	}
	if cfg.HighUrgencyMarginBelow > 0 {
		r.HighUrgencyMarginBelow = cfg.HighUrgencyMarginBelow
	}
	return r
}
