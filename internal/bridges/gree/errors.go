package gree

import "errors"

// Domain errors for the Gree bridge package.
var (
	// ErrDeviceNotFound is returned when no configured unit has the given id.
	ErrDeviceNotFound = errors.New("gree: device not found")

	// ErrUnknownCommand is returned for command names outside the bridge vocabulary.
	ErrUnknownCommand = errors.New("gree: unknown command")

	// ErrInvalidParameters is returned when command parameters are missing,
	// mistyped or out of range.
	ErrInvalidParameters = errors.New("gree: invalid parameters")

	// ErrOutboxFull is returned when the gateway queue cannot take another packet.
	ErrOutboxFull = errors.New("gree: outbox full")

	// ErrStopped is returned for operations on a stopped bridge.
	ErrStopped = errors.New("gree: bridge stopped")
)
