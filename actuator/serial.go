package actuator

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// PortOpener acquires the serial link to the power supply. The port is
// an exclusive resource: it is opened per command and closed as soon as
// the frame is written, so nothing else can hold /dev/ttyUSB0 between
// commands.
type PortOpener func() (io.WriteCloser, error)

// SerialPortOpener returns a PortOpener for a real serial device.
func SerialPortOpener(device string, baud int, timeout time.Duration) PortOpener {
	return func() (io.WriteCloser, error) {
		return serial.OpenPort(&serial.Config{
			Name:        device,
			Baud:        baud,
			ReadTimeout: timeout,
		})
	}
}
