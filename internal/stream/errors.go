package stream

import "errors"

// ErrBusNotStarted is returned by Emit before Start has run.
var ErrBusNotStarted = errors.New("event bus: not started")
