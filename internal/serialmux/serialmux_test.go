package serialmux

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for line")
	}
	return ""
}

func runMonitor(mux *SerialMux[*TestableSerialPort]) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()
	return cancel, done
}

func TestSerialMux_SubscribeUnsubscribe(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())

	id1, ch1 := mux.Subscribe()
	id2, _ := mux.Subscribe()
	if id1 == id2 {
		t.Fatal("subscription IDs should be unique")
	}
	if cap(ch1) != subscriberBuffer {
		t.Errorf("expected buffered channel of %d, got %d", subscriberBuffer, cap(ch1))
	}

	mux.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
	// unknown and repeated ids are ignored
	mux.Unsubscribe(id1)
	mux.Unsubscribe("missing")

	if len(mux.subscribers) != 1 {
		t.Errorf("expected 1 subscriber, got %d", len(mux.subscribers))
	}
}

func TestSerialMux_MonitorFanOut(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch1 := mux.Subscribe()
	_, ch2 := mux.Subscribe()

	cancel, done := runMonitor(mux)
	defer cancel()

	port.AddReadData([]byte("0 1.0 2.0 3.0\r\n\r\n1 4.0 5.0 6.0\r\n"))

	for _, ch := range []chan string{ch1, ch2} {
		if got := receive(t, ch); got != "0 1.0 2.0 3.0" {
			t.Errorf("first line = %q", got)
		}
		if got := receive(t, ch); got != "1 4.0 5.0 6.0" {
			t.Errorf("second line = %q", got)
		}
	}

	port.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Monitor returned %v at EOF", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return at EOF")
	}
}

func TestSerialMux_MonitorContextCancel(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())
	cancel, done := runMonitor(mux)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}

func TestSerialMux_MonitorReadError(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	cancel, done := runMonitor(mux)
	defer cancel()

	boom := errors.New("usb unplugged")
	port.FailNextRead(boom)

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("expected %v, got %v", boom, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return on read error")
	}
}

func TestSerialMux_SlowSubscriberDropsLines(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	var b strings.Builder
	for i := 0; i < subscriberBuffer+20; i++ {
		b.WriteString("0 0 0 0\r\n")
	}
	port.AddReadData([]byte(b.String()))
	port.Close()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("expected %d buffered lines, got %d", subscriberBuffer, len(ch))
	}
}

func TestSerialMux_Initialize(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	if err := mux.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	want := "\x19\rF0\rU1\rC\r"
	if got := string(port.GetWrittenData()); got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestSerialMux_SendCommandErrors(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	boom := errors.New("write failed")
	port.WriteError = boom
	if err := mux.SendCommand("P"); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}

	port.ShortWrite = true
	if err := mux.SendCommand("P"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("expected ErrWriteFailed, got %v", err)
	}

	port.ShortWrite = false
	if err := mux.Initialize(); err != nil {
		t.Errorf("Initialize: %v", err)
	}
	port.WriteError = boom
	if err := mux.Initialize(); !errors.Is(err, boom) {
		t.Errorf("expected Initialize to wrap %v, got %v", boom, err)
	}
}

func TestSerialMux_Close(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel to be closed")
	}
	if !port.Closed {
		t.Error("expected port to be closed")
	}
}
