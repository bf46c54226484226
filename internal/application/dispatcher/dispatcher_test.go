package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/edbgroup/paperflow/internal/domain/event"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func TestDispatcher_Dispatch(t *testing.T) {
	d := New(nopLogger{})
	defer d.Close()

	var calls int32
	d.Subscribe(event.TypeStatusChanged, "counter", func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	d.Subscribe(event.TypeStatusChanged, "counter2", func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	evt := event.New(event.TypeStatusChanged, 1, "EDB-1", "emp-001", nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler calls = %d, want 2", got)
	}

	// Unsubscribed type reaches no one.
	other := event.New(event.TypeRecordDeleted, 1, "EDB-1", "emp-001", nil)
	if err := d.Dispatch(context.Background(), other); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("handler calls = %d, want 2 after unrelated event", got)
	}
}

func TestDispatcher_DispatchReturnsHandlerError(t *testing.T) {
	d := New(nopLogger{})
	defer d.Close()

	wantErr := errors.New("boom")
	d.Subscribe(event.TypeRecordRejected, "failing", func(ctx context.Context, evt *event.Event) error {
		return wantErr
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeRecordRejected, 1, "EDB-1", "x", nil))
	if !errors.Is(err, wantErr) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestDispatcher_PanicRecovery(t *testing.T) {
	d := New(nopLogger{})
	defer d.Close()

	d.Subscribe(event.TypeRecordCreated, "panicking", func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	err := d.Dispatch(context.Background(), event.New(event.TypeRecordCreated, 1, "EDB-1", "x", nil))
	if err == nil {
		t.Fatal("Dispatch() must surface a panicking handler as an error")
	}
}

func TestDispatcher_CloseWaitsForAsyncHandlers(t *testing.T) {
	d := New(nopLogger{})

	done := make(chan struct{})
	var finished atomic.Bool
	d.Subscribe(event.TypeStatusChanged, "slow", func(ctx context.Context, evt *event.Event) error {
		<-done
		finished.Store(true)
		return nil
	})

	d.DispatchAsync(context.Background(), event.New(event.TypeStatusChanged, 1, "EDB-1", "x", nil))
	close(done)

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Close() returned before async handler finished")
	}

	if err := d.Close(); err == nil {
		t.Error("second Close() must fail")
	}
	if err := d.Dispatch(context.Background(), event.New(event.TypeStatusChanged, 1, "EDB-1", "x", nil)); err == nil {
		t.Error("Dispatch() after Close() must fail")
	}
}
