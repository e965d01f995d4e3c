package actuator

import "fmt"

// TransportError reports a failure to reach or drive the hardware. The
// dispatcher surfaces it to the client as a failed response; it never
// terminates a connection.
type TransportError struct {
	Device string // "serial" or "modbus"
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Device, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports a command value the hardware cannot accept.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }
