package sandbox

import (
	"errors"
	"fmt"
)

var (
	ErrSandbox        = errors.New("sandbox error")
	ErrEmptyArchive   = errors.New("archive contains no image")
	ErrMultipleImages = errors.New("archive contains multiple images")
	ErrEmptyIndex     = errors.New("empty image index")
)

// Wraps an underlying error under [ErrSandbox].
func wrap(err error) error {
	return fmt.Errorf("%w: %w", ErrSandbox, err)
}

// Wraps a formatted message under [ErrSandbox].
func wrapf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSandbox, fmt.Sprintf(format, args...))
}
