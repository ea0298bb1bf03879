package recipe

import "errors"

var (
	ErrUnknownBuildSystem = errors.New("unknown build system")
	ErrMissingSource      = errors.New("no source layout entry")
)
