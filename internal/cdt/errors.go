package cdt

import "errors"

var (
	// ErrInvalidDimensions is returned when the image, or the tiles it is cut
	// into, would have no area.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrInvalidBuffer is returned when the pixel or output buffer is too short.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrInvalidConfig is returned when a Config field is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)
