package watch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_DeliversLastValue(t *testing.T) {
	var (
		count atomic.Int32
		mu    sync.Mutex
		got   int
	)
	d := NewDebouncer(50*time.Millisecond, func(v int) {
		count.Add(1)
		mu.Lock()
		got = v
		mu.Unlock()
	})
	defer d.Stop()

	for i := 1; i <= 10; i++ {
		d.Trigger(i)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if n := count.Load(); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if got != 10 {
		t.Errorf("expected last value 10, got %d", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func(string) {
		count.Add(1)
	})

	d.Trigger("a")
	d.Stop()
	d.Trigger("b")

	time.Sleep(100 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Errorf("expected no delivery after stop, got %d", n)
	}
}
