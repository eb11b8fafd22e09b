package kiosk

import "errors"

// ErrUnknownAction is returned for a Call whose action the machine does not implement.
var ErrUnknownAction = errors.New("kiosk: unknown action")
