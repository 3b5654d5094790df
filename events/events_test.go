package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(8)
	bus.Send(PricesUpdated{})
	bus.Send(ConnectivityChanged{Online: true})

	if _, ok := bus.Wait()().(PricesUpdated); !ok {
		t.Fatal("first message should be PricesUpdated")
	}
	msg, ok := bus.Wait()().(ConnectivityChanged)
	if !ok || !msg.Online {
		t.Fatalf("second message = %#v", msg)
	}
}

func TestBusDropsAfterClose(t *testing.T) {
	bus := NewBus(2)
	bus.Close()
	bus.Send(PricesUpdated{})
	bus.Close()

	if msg := bus.Wait()(); msg != nil {
		t.Errorf("Wait after close = %#v, want nil", msg)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(1)
	bus.Send(PricesUpdated{})
	done := make(chan struct{})
	go func() {
		bus.Send(PricesUpdated{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full bus")
	}
}

func TestSupervisorShutdownWaits(t *testing.T) {
	s := NewSupervisor()
	var finished atomic.Bool
	s.Watch(func(ctx context.Context) {
		<-ctx.Done()
		finished.Store(true)
	})

	s.Shutdown()
	if !finished.Load() {
		t.Error("Shutdown returned before the task finished")
	}
}

func TestPeriodicCancelsPromptly(t *testing.T) {
	s := NewSupervisor()
	var runs atomic.Int32
	s.Periodic(time.Hour, func(ctx context.Context) {
		runs.Add(1)
	})

	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	s.Shutdown()
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("shutdown of an hourly task took %v", elapsed)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want the immediate first run only", runs.Load())
	}
}

func TestPeriodicStop(t *testing.T) {
	s := NewSupervisor()
	var runs atomic.Int32
	stop := s.Periodic(5*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	time.Sleep(30 * time.Millisecond)
	stop()
	settled := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != settled {
		t.Error("task kept running after stop")
	}
	if settled < 2 {
		t.Errorf("runs before stop = %d, want at least 2", settled)
	}
	s.Shutdown()
}

var _ tea.Msg = FatalError{}
