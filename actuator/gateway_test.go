package actuator

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/frame"
)

type fakePort struct {
	mu       sync.Mutex
	writes   [][]byte
	closed   bool
	writeErr error
	block    time.Duration
}

func (p *fakePort) Write(buf []byte) (int, error) {
	if p.block > 0 {
		time.Sleep(p.block)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.writes = append(p.writes, append([]byte(nil), buf...))
	return len(buf), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeCoils struct {
	mu     sync.Mutex
	states map[uint16]bool
	err    error
}

func (c *fakeCoils) WriteCoil(address uint16, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.states == nil {
		c.states = make(map[uint16]bool)
	}
	c.states[address] = on
	return nil
}

func (c *fakeCoils) Close() error { return nil }

func (c *fakeCoils) state(address uint16) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	on, ok := c.states[address]
	return on, ok
}

func newTestGateway(port *fakePort, coils *fakeCoils) *HardwareGateway {
	return NewHardwareGateway(Options{
		OpenSerial:   func() (io.WriteCloser, error) { return port, nil },
		WriteTimeout: 100 * time.Millisecond,
		Coils:        coils,
		GateCoil:     8195,
		TurbineCoil:  8193,
	})
}

func TestSetVelocity_WritesOneCompleteFrame(t *testing.T) {
	port := &fakePort{}
	g := newTestGateway(port, &fakeCoils{})

	require.NoError(t, g.SetVelocity(60))

	require.Len(t, port.writes, 1)
	assert.Len(t, port.writes[0], frame.Size)
	assert.True(t, port.closed, "port must be released after the write")

	dv := uint16(port.writes[0][7])<<8 | uint16(port.writes[0][8])
	assert.Equal(t, uint16(600), dv)
}

func TestSetVelocity_OpenFailure(t *testing.T) {
	g := NewHardwareGateway(Options{
		OpenSerial: func() (io.WriteCloser, error) {
			return nil, errors.New("no such device")
		},
	})

	err := g.SetVelocity(10)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "serial", terr.Device)
}

func TestSetVelocity_WriteFailureReleasesPort(t *testing.T) {
	port := &fakePort{writeErr: errors.New("input/output error")}
	g := newTestGateway(port, &fakeCoils{})

	err := g.SetVelocity(10)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.True(t, port.closed, "port must be released on write failure")
}

func TestSetVelocity_Timeout(t *testing.T) {
	port := &fakePort{block: time.Second}
	g := newTestGateway(port, &fakeCoils{})

	err := g.SetVelocity(10)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSetVelocity_OutOfRange(t *testing.T) {
	port := &fakePort{}
	g := newTestGateway(port, &fakeCoils{})

	err := g.SetVelocity(-5)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, port.writes, "no frame may reach the port for an invalid value")
}

func TestSetVelocity_ConcurrentWritesNeverInterleave(t *testing.T) {
	port := &fakePort{}
	g := newTestGateway(port, &fakeCoils{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			assert.NoError(t, g.SetVelocity(v))
		}(float64(i + 1))
	}
	wg.Wait()

	require.Len(t, port.writes, 10)
	for i, w := range port.writes {
		require.Len(t, w, frame.Size, "write %d is a partial frame", i)
		assert.Equal(t, frame.Checksum(w[:frame.Size-1]), w[frame.Size-1], "write %d has a corrupt checksum", i)
	}
}

func TestSetGate_DefaultMapping(t *testing.T) {
	coils := &fakeCoils{}
	g := newTestGateway(&fakePort{}, coils)

	require.NoError(t, g.SetGate(true))
	on, ok := coils.state(8195)
	require.True(t, ok)
	assert.True(t, on, "Open must energize the gate coil")

	require.NoError(t, g.SetGate(false))
	on, _ = coils.state(8195)
	assert.False(t, on)
}

func TestSetGate_ActiveLowMapping(t *testing.T) {
	coils := &fakeCoils{}
	g := NewHardwareGateway(Options{
		Coils:         coils,
		GateCoil:      8195,
		TurbineCoil:   8193,
		GateActiveLow: true,
	})

	require.NoError(t, g.SetGate(true))
	on, _ := coils.state(8195)
	assert.False(t, on, "active-low wiring inverts the coil level")
}

func TestSetTurbine(t *testing.T) {
	coils := &fakeCoils{}
	g := newTestGateway(&fakePort{}, coils)

	require.NoError(t, g.SetTurbine(true))
	on, ok := coils.state(8193)
	require.True(t, ok)
	assert.True(t, on)
}

func TestCoilWriteFailure(t *testing.T) {
	coils := &fakeCoils{err: fmt.Errorf("connection refused")}
	g := newTestGateway(&fakePort{}, coils)

	for _, err := range []error{g.SetGate(true), g.SetTurbine(true)} {
		var terr *TransportError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "modbus", terr.Device)
	}
}
