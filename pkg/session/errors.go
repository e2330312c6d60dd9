package session

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports invalid construction-time input such as a
	// missing database file.
	ErrConfiguration = errors.New("session: configuration error")
	// ErrInvalidArgument reports malformed operation input. It is returned
	// before any command reaches the engine.
	ErrInvalidArgument = errors.New("session: invalid argument")
	// ErrCrossSession is returned when one operation references entities of
	// more than one session.
	ErrCrossSession = errors.New("session: entities belong to different sessions")
	// ErrSurfaceSnapshot is returned when a surface export cannot be decoded
	// into the three-component layout.
	ErrSurfaceSnapshot = errors.New("session: surface snapshot unavailable")

	// ErrInvalidGasConstraint is returned for a gas fixed in both pressure and volume.
	ErrInvalidGasConstraint = fmt.Errorf("%w: gas cannot fix both pressure and volume", ErrInvalidArgument)
	// ErrInvalidEquilibration is returned when a gas equilibrates with a
	// solution without a fixed volume.
	ErrInvalidEquilibration = fmt.Errorf("%w: gas equilibration requires a fixed volume", ErrInvalidArgument)
	// ErrScaleConsumed is returned when a Scaled reference is combined twice.
	ErrScaleConsumed = fmt.Errorf("%w: scaled reference already consumed", ErrInvalidArgument)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
