// Package metrics derives biomechanical quantities from jump events.
// Every function here is pure; an error from one of them means the
// detector emitted an event violating its own invariants, which callers
// should treat as a bug rather than a runtime condition.
package metrics

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/jump_tracker/internal/jump"
)

// StandardGravity is the g used for the ballistic height model, m/s².
const StandardGravity = 9.80665

var (
	ErrInvalidTiming = errors.New("metrics: non-positive duration in event")
	ErrInvalidInput  = errors.New("metrics: input out of range")
)

// Jump holds the derived metrics for one event.
type Jump struct {
	FlightTime  float64 `json:"flight_time"`  // s
	Height      float64 `json:"height"`       // m
	ContactTime float64 `json:"contact_time"` // s
	RSI         float64 `json:"rsi"`          // m/s
}

// Summary aggregates a finished session.
type Summary struct {
	Items    []Jump  `json:"items"`
	Count    int     `json:"count"`
	Duration float64 `json:"duration"` // s, first contact to last landing
	Cadence  float64 `json:"cadence"`  // jumps per minute
}

// FlightTime returns the airborne duration of evt.
func FlightTime(evt jump.Event) (float64, error) {
	ft := evt.Landing - evt.Takeoff
	if ft <= 0 {
		return 0, fmt.Errorf("%w: flight %.4f s", ErrInvalidTiming, ft)
	}
	return ft, nil
}

// Height estimates jump height from flight time with the ballistic
// model h = g·t²/8, which assumes equal takeoff and landing elevation.
func Height(flightTime, g float64) (float64, error) {
	if flightTime <= 0 {
		return 0, fmt.Errorf("%w: flight time %.4f s", ErrInvalidInput, flightTime)
	}
	return g * flightTime * flightTime / 8, nil
}

// ContactTime returns the ground-contact duration preceding takeoff.
func ContactTime(evt jump.Event) (float64, error) {
	ct := evt.Takeoff - evt.ContactStart
	if ct <= 0 {
		return 0, fmt.Errorf("%w: contact %.4f s", ErrInvalidTiming, ct)
	}
	return ct, nil
}

// RSI is the Reactive Strength Index: height over contact time.
func RSI(height, contactTime float64) (float64, error) {
	if height < 0 {
		return 0, fmt.Errorf("%w: height %.4f m", ErrInvalidInput, height)
	}
	if contactTime <= 0 {
		return 0, fmt.Errorf("%w: contact time %.4f s", ErrInvalidInput, contactTime)
	}
	return height / contactTime, nil
}

// Compute derives all metrics for one event.
func Compute(evt jump.Event) (Jump, error) {
	ft, err := FlightTime(evt)
	if err != nil {
		return Jump{}, err
	}
	h, err := Height(ft, StandardGravity)
	if err != nil {
		return Jump{}, err
	}
	ct, err := ContactTime(evt)
	if err != nil {
		return Jump{}, err
	}
	rsi, err := RSI(h, ct)
	if err != nil {
		return Jump{}, err
	}
	return Jump{FlightTime: ft, Height: h, ContactTime: ct, RSI: rsi}, nil
}

// Summarize maps events to metrics in order and aggregates session
// totals. An empty event list yields the zero summary.
func Summarize(events []jump.Event) (Summary, error) {
	s := Summary{Items: make([]Jump, 0, len(events))}
	if len(events) == 0 {
		return s, nil
	}

	first := events[0].ContactStart
	last := events[0].Landing
	for _, evt := range events {
		m, err := Compute(evt)
		if err != nil {
			return Summary{}, fmt.Errorf("event %+v: %w", evt, err)
		}
		s.Items = append(s.Items, m)
		if evt.ContactStart < first {
			first = evt.ContactStart
		}
		if evt.Landing > last {
			last = evt.Landing
		}
	}

	s.Count = len(events)
	s.Duration = last - first
	if s.Duration > 0 {
		s.Cadence = float64(s.Count) / (s.Duration / 60)
	}
	return s, nil
}
