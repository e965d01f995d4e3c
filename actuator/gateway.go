// Package actuator owns the two outbound hardware channels: the serial
// link to the train power supply and the Modbus coils on the PLC.
package actuator

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/frame"
)

// Gateway is what the dispatcher and the HTTP relay program against.
type Gateway interface {
	// SetVelocity writes one voltage frame to the power supply.
	SetVelocity(voltage float64) error
	// SetGate energizes or releases the gate coil.
	SetGate(open bool) error
	// SetTurbine starts or stops the turbine.
	SetTurbine(start bool) error
}

// Options configures a HardwareGateway.
type Options struct {
	OpenSerial   PortOpener
	WriteTimeout time.Duration // bound on one serial frame write

	Coils         CoilWriter
	GateCoil      uint16
	TurbineCoil   uint16
	GateActiveLow bool // legacy wiring: energized coil means closed
}

// HardwareGateway implements Gateway against real hardware. The serial
// port is acquired per command under a mutex; the Modbus handle is
// long-lived and owned by the CoilWriter.
type HardwareGateway struct {
	opts     Options
	serialMu sync.Mutex
}

func NewHardwareGateway(opts Options) *HardwareGateway {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = time.Second
	}
	return &HardwareGateway{opts: opts}
}

func (g *HardwareGateway) SetVelocity(voltage float64) error {
	buf, err := frame.EncodeVoltage(voltage)
	if err != nil {
		return &ValidationError{Err: err}
	}

	g.serialMu.Lock()
	defer g.serialMu.Unlock()

	port, err := g.opts.OpenSerial()
	if err != nil {
		return &TransportError{Device: "serial", Err: err}
	}
	defer port.Close()

	if err := writeWithTimeout(port, buf, g.opts.WriteTimeout); err != nil {
		return &TransportError{Device: "serial", Err: err}
	}

	slog.Debug("Voltage frame written", "voltage", voltage, "bytes", len(buf))
	return nil
}

func (g *HardwareGateway) SetGate(open bool) error {
	level := open
	if g.opts.GateActiveLow {
		level = !open
	}

	if err := g.opts.Coils.WriteCoil(g.opts.GateCoil, level); err != nil {
		return &TransportError{Device: "modbus", Err: err}
	}

	slog.Debug("Gate coil written", "coil", g.opts.GateCoil, "open", open, "level", level)
	return nil
}

func (g *HardwareGateway) SetTurbine(start bool) error {
	if err := g.opts.Coils.WriteCoil(g.opts.TurbineCoil, start); err != nil {
		return &TransportError{Device: "modbus", Err: err}
	}

	slog.Debug("Turbine coil written", "coil", g.opts.TurbineCoil, "start", start)
	return nil
}

// writeWithTimeout bounds a blocking serial write. On timeout the port
// is closed by the deferred Close in the caller, which unblocks the
// writer goroutine; its late result is discarded.
func writeWithTimeout(w io.Writer, buf []byte, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		n, err := w.Write(buf)
		if err == nil && n != len(buf) {
			err = io.ErrShortWrite
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("write timed out after %v", timeout)
	}
}
