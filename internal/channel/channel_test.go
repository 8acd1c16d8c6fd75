package channel

import (
	"testing"
)

func TestBuffered_SendReceive(t *testing.T) {
	c := NewBuffered[int](2)
	c.Send(1)
	c.Send(2)

	if c.Len() != 2 {
		t.Errorf("expected length 2, got %d", c.Len())
	}
	if got := <-c.Receive(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := <-c.Receive(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestBuffered_TrySend(t *testing.T) {
	c := NewBuffered[string](1)

	if !c.TrySend("first") {
		t.Error("expected TrySend to succeed with free capacity")
	}
	if c.TrySend("second") {
		t.Error("expected TrySend to fail when buffer is full")
	}

	if got := <-c.Receive(); got != "first" {
		t.Errorf("expected first, got %s", got)
	}
	if !c.TrySend("third") {
		t.Error("expected TrySend to succeed after drain")
	}
}

func TestBuffered_Close(t *testing.T) {
	c := NewBuffered[int](1)
	c.Send(7)
	c.Close()

	if got := <-c.Receive(); got != 7 {
		t.Errorf("expected buffered value after close, got %d", got)
	}
	if _, open := <-c.Receive(); open {
		t.Error("expected channel to be closed")
	}
}

func TestUnbuffered_TrySendNoReceiver(t *testing.T) {
	c := NewUnbuffered[int]()
	if c.TrySend(1) {
		t.Error("expected TrySend to fail with no waiting receiver")
	}
	if c.Len() != 0 {
		t.Errorf("expected length 0, got %d", c.Len())
	}
}

func TestUnbuffered_SendReceive(t *testing.T) {
	c := NewUnbuffered[int]()

	done := make(chan int)
	go func() {
		done <- <-c.Receive()
	}()

	c.Send(42)
	if got := <-done; got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestNew_ReturnsChannel(t *testing.T) {
	var c Channel[int] = New[int](4)
	c.Send(9)
	if got := <-c.Receive(); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
	c.Close()
}
