package service

import "errors"

var (
	// ErrUnknownEntity is returned when a caller passes an entity type the
	// engine does not synchronize.
	ErrUnknownEntity = errors.New("unknown entity type")
)
