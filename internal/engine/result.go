package engine

import (
	"github.com/specialistvlad/cellgrid/internal/cellerr"
	"github.com/zclconf/go-cty/cty"
)

// Result is the outcome of one Run. Exactly one of Data and Err carries
// information; a failed result has null Data.
type Result struct {
	Data cty.Value
	// Rule names the rule that produced Data.
	Rule string
	Err  *cellerr.Error
}

// IsError reports whether the run failed.
func (r *Result) IsError() bool { return r.Err != nil }
