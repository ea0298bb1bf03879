package conf

import "errors"

var (
	ErrConfRead     = errors.New("options file unreadable")
	ErrConfParse    = errors.New("options file malformed")
	ErrConfConflict = errors.New("conflicting options")
)
