package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/jump_tracker/internal/jump"
)

func TestComputeKnownValues(t *testing.T) {
	evt := jump.Event{ContactStart: 1.0, Takeoff: 1.2, Landing: 1.5}

	m, err := Compute(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(m.FlightTime-0.3) > 1e-9 {
		t.Fatalf("flight: got %v, want 0.3", m.FlightTime)
	}
	wantHeight := StandardGravity * 0.3 * 0.3 / 8 // 0.110325 m
	if math.Abs(m.Height-wantHeight) > 1e-9 {
		t.Fatalf("height: got %v, want %v", m.Height, wantHeight)
	}
	if math.Abs(m.ContactTime-0.2) > 1e-9 {
		t.Fatalf("contact: got %v, want 0.2", m.ContactTime)
	}
	if math.Abs(m.RSI-wantHeight/0.2) > 1e-9 {
		t.Fatalf("rsi: got %v, want %v", m.RSI, wantHeight/0.2)
	}
}

func TestHeightGrowsWithFlightTime(t *testing.T) {
	prev := 0.0
	for ft := 0.1; ft <= 1.2; ft += 0.1 {
		h, err := Height(ft, StandardGravity)
		if err != nil {
			t.Fatalf("flight %v: %v", ft, err)
		}
		if h <= prev {
			t.Fatalf("height not increasing at flight %v: %v <= %v", ft, h, prev)
		}
		prev = h
	}
}

func TestTimingErrors(t *testing.T) {
	if _, err := FlightTime(jump.Event{Takeoff: 1.0, Landing: 1.0}); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("zero flight: got %v, want ErrInvalidTiming", err)
	}
	if _, err := ContactTime(jump.Event{ContactStart: 1.0, Takeoff: 0.9}); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("negative contact: got %v, want ErrInvalidTiming", err)
	}
	if _, err := Height(0, StandardGravity); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero flight height: got %v, want ErrInvalidInput", err)
	}
	if _, err := RSI(-0.1, 0.2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative height rsi: got %v, want ErrInvalidInput", err)
	}
	if _, err := RSI(0.1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero contact rsi: got %v, want ErrInvalidInput", err)
	}
	if _, err := Compute(jump.Event{ContactStart: 0, Takeoff: 0, Landing: 0.3}); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("compute bad event: got %v, want ErrInvalidTiming", err)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count != 0 || s.Duration != 0 || s.Cadence != 0 || len(s.Items) != 0 {
		t.Fatalf("empty summary not zero: %+v", s)
	}
}

func TestSummarizeSession(t *testing.T) {
	events := []jump.Event{
		{ContactStart: 0.0, Takeoff: 0.2, Landing: 0.5},
		{ContactStart: 1.0, Takeoff: 1.3, Landing: 1.6},
	}

	s, err := Summarize(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count != 2 || len(s.Items) != 2 {
		t.Fatalf("count: got %d/%d items", s.Count, len(s.Items))
	}
	if math.Abs(s.Duration-1.6) > 1e-9 {
		t.Fatalf("duration: got %v, want 1.6", s.Duration)
	}
	// 2 jumps over 1.6 s is 75 per minute.
	if math.Abs(s.Cadence-75) > 1e-9 {
		t.Fatalf("cadence: got %v, want 75", s.Cadence)
	}
	if math.Abs(s.Items[1].FlightTime-0.3) > 1e-9 {
		t.Fatalf("item flight: got %v", s.Items[1].FlightTime)
	}
}

func TestSummarizePropagatesBadEvent(t *testing.T) {
	events := []jump.Event{
		{ContactStart: 0.0, Takeoff: 0.2, Landing: 0.5},
		{ContactStart: 1.0, Takeoff: 1.0, Landing: 1.3}, // zero contact
	}
	if _, err := Summarize(events); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("got %v, want ErrInvalidTiming", err)
	}
}
