package speedmeter

import (
	"testing"
	"time"
)

// fixedClock lets tests control "now" without sleeping.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func TestMeter_BytesPerSecond_FixedWindow(t *testing.T) {
	clock := &fixedClock{t: time.Unix(1000, 0)}
	m := New(5 * time.Second)
	m.now = clock.now

	m.Record(1000) // t=1000
	clock.t = clock.t.Add(1 * time.Second)
	m.Record(1000) // t=1001

	// The samples span only 1s, but the divisor is the fixed 5s window.
	got := m.BytesPerSecond()
	want := float64(2000) / 5.0
	if got != want {
		t.Errorf("BytesPerSecond() = %v, want %v", got, want)
	}
}

func TestMeter_EvictsOldSamples(t *testing.T) {
	clock := &fixedClock{t: time.Unix(2000, 0)}
	m := New(5 * time.Second)
	m.now = clock.now

	m.Record(5000)
	clock.t = clock.t.Add(6 * time.Second) // past the window

	got := m.BytesPerSecond()
	if got != 0 {
		t.Errorf("BytesPerSecond() after eviction = %v, want 0", got)
	}
	if len(m.samples) != 0 {
		t.Errorf("expected evicted samples slice to be empty, got %d entries", len(m.samples))
	}
}

func TestMeter_Reset(t *testing.T) {
	m := New(5 * time.Second)
	m.Record(100)
	m.Reset()
	if got := m.BytesPerSecond(); got != 0 {
		t.Errorf("BytesPerSecond() after Reset = %v, want 0", got)
	}
}

func TestMeter_DefaultWindow(t *testing.T) {
	m := New(0)
	if m.window != DefaultWindow {
		t.Errorf("window = %v, want default %v", m.window, DefaultWindow)
	}
}
