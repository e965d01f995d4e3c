package actuator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// CoilWriter sets a single discrete output on the field device.
type CoilWriter interface {
	WriteCoil(address uint16, on bool) error
	Close() error
}

// ModbusCoilWriter drives the PLC over one long-lived Modbus/TCP
// connection shared by every session. Writes are serialized so two
// sessions cannot corrupt a request/response exchange.
type ModbusCoilWriter struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

func NewModbusCoilWriter(addr string) *ModbusCoilWriter {
	handler := modbus.NewTCPClientHandler(addr)
	handler.Timeout = 2 * time.Second

	w := &ModbusCoilWriter{
		handler: handler,
		client:  modbus.NewClient(handler),
	}

	// The handler reconnects lazily on the next request, so a PLC that
	// is down at startup only costs a warning here.
	if err := handler.Connect(); err != nil {
		slog.Warn("Modbus connection not yet available", "addr", addr, "error", err.Error())
	}
	return w
}

func (w *ModbusCoilWriter) WriteCoil(address uint16, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var value uint16
	if on {
		value = 0xFF00
	}

	_, err := w.client.WriteSingleCoil(address, value)
	if err == nil {
		return nil
	}

	// One reconnect attempt covers the common case of a PLC reboot
	// having dropped the idle connection.
	w.handler.Close()
	if connErr := w.handler.Connect(); connErr != nil {
		return err
	}
	_, err = w.client.WriteSingleCoil(address, value)
	return err
}

func (w *ModbusCoilWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handler.Close()
}
