package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	got  []string
	done chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 10)}
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

// TestDebouncer_DeliversLastValue verifies rapid triggers collapse to the final value.
func TestDebouncer_DeliversLastValue(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("b")
	d.Trigger("be")
	d.Trigger("bet")

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never fired")
	}
	// allow any erroneous extra call to land
	time.Sleep(60 * time.Millisecond)

	got := rec.values()
	if len(got) != 1 || got[0] != "bet" {
		t.Errorf("calls = %v, want [bet]", got)
	}
	if d.pending() {
		t.Error("nothing should be pending after delivery")
	}
}

// TestDebouncer_Stop verifies a stopped debouncer does not deliver.
func TestDebouncer_Stop(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("x")
	if !d.pending() {
		t.Fatal("expected a pending call")
	}
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := rec.values(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
}

// TestDebouncer_SeparateBursts verifies quiet gaps produce one call per burst.
func TestDebouncer_SeparateBursts(t *testing.T) {
	rec := newRecorder()
	d := New(10*time.Millisecond, rec.record)

	d.Trigger("first")
	<-rec.done
	d.Trigger("second")
	<-rec.done

	got := rec.values()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("calls = %v, want [first second]", got)
	}
}

// TestNew_DefaultWait verifies non-positive waits fall back to the default.
func TestNew_DefaultWait(t *testing.T) {
	d := New(0, func(string) {})
	if d.wait != DefaultWait {
		t.Errorf("wait = %v, want %v", d.wait, DefaultWait)
	}
}
