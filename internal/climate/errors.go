package climate

import "errors"

// Domain errors for the climate engine.
var (
	// ErrInvalidArgument is returned when a caller passes a mode, fan or
	// preset name outside the fixed tables, or an unusable temperature.
	ErrInvalidArgument = errors.New("climate: invalid argument")

	// ErrMalformedPacket is returned by packet parsing when the object lacks
	// the required column and value arrays.
	ErrMalformedPacket = errors.New("climate: malformed packet")

	// ErrInvalidOptions is returned when an option store holds a value the
	// sanitiser can never produce.
	ErrInvalidOptions = errors.New("climate: invalid option state")

	// ErrSendFailed is returned when the transport rejects an outbound packet.
	ErrSendFailed = errors.New("climate: send failed")
)
