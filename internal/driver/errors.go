package driver

import "errors"

var (
	ErrRoundBudget = errors.New("round budget exhausted")
	ErrSandbox     = errors.New("sandbox build failed to run")
	ErrResultsDir  = errors.New("results directory unusable")
)
