package rayengine

import "errors"

var (
	// ErrEngineClosed is returned by Frame and Run after Close.
	ErrEngineClosed = errors.New("rayengine: engine closed")

	// ErrInvalidSize is returned when the initial surface size is not positive.
	ErrInvalidSize = errors.New("rayengine: invalid surface size")

	// ErrInvalidOption is returned when an option carries an unusable value.
	ErrInvalidOption = errors.New("rayengine: invalid option")
)
