package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// MockSerialPort is an in-memory tracker port. Lines written by the
// generator goroutine are read back by Monitor; commands sent to the port
// are recorded.
type MockSerialPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer

	done      chan struct{}
	closeOnce sync.Once
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

func (m *MockSerialPort) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.w.Close()
		m.r.Close()
	})
	return nil
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// NewMockSerialMux creates a SerialMux whose port emits lines in a loop,
// one every interval, until the mux is closed.
func NewMockSerialMux(lines []string, interval time.Duration) *SerialMux[*MockSerialPort] {
	r, w := io.Pipe()
	port := &MockSerialPort{r: r, w: w, done: make(chan struct{})}

	go func() {
		defer w.Close()
		if len(lines) == 0 {
			<-port.done
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-port.done:
				return
			case <-ticker.C:
				if _, err := fmt.Fprintf(w, "%s\r\n", lines[i%len(lines)]); err != nil {
					return
				}
			}
		}
	}()

	return NewSerialMux(port)
}

// SyntheticSwing returns tracker lines for a joint whose tip swings
// sinusoidally about a fixed pivot: one pivot line and one tip line per step.
// Angles are radians from the +X axis, positions centimetres.
func SyntheticSwing(pivotID, tipID int, radius, center, amplitude float64, steps int) []string {
	lines := make([]string, 0, 2*steps)
	for i := 0; i < steps; i++ {
		a := center + amplitude*math.Sin(2*math.Pi*float64(i)/float64(steps))
		lines = append(lines,
			fmt.Sprintf("%d %.3f %.3f %.3f", pivotID, 0.0, 0.0, 0.0),
			fmt.Sprintf("%d %.3f %.3f %.3f", tipID, radius*math.Cos(a), radius*math.Sin(a), 0.0),
		)
	}
	return lines
}

// TestableSerialPort implements SerialPorter with configurable behaviour for testing.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite makes Write report one byte fewer than requested
	ShortWrite bool

	// Closed indicates whether Close was called
	Closed bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort whose reads block
// until data is added or the port is closed.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

var errPortClosed = errors.New("serial port closed")

func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		if t.ReadError != nil {
			err := t.ReadError
			t.ReadError = nil
			return 0, err
		}
		if t.ReadBuffer.Len() > 0 {
			return t.ReadBuffer.Read(p)
		}
		if t.Closed {
			return 0, io.EOF
		}
		t.readCond.Wait()
	}
}

func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errPortClosed
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	n, err := t.WriteBuffer.Write(p)
	if t.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

// Close marks the port as closed and wakes blocked readers.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	t.readCond.Broadcast()
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.Write(data)
	t.readCond.Broadcast()
}

// FailNextRead makes the next Read return err.
func (t *TestableSerialPort) FailNextRead(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadError = err
	t.readCond.Broadcast()
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}
