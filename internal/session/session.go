// Package session orchestrates one capture: gravity calibration first,
// then the jump engine, with emitted events collected in order and
// handed to registered listeners. A session owns its filter and phase
// state exclusively; callers running feeds from goroutine callbacks
// must serialize access themselves.
package session

import (
	"fmt"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/jump"
	"github.com/relabs-tech/jump_tracker/internal/metrics"
	"github.com/relabs-tech/jump_tracker/internal/motion"
)

// Listener receives each validated jump the moment it is detected,
// paired with its derived metrics.
type Listener func(jump.Event, metrics.Jump)

// Aggregator drives calibration → detection → metrics for one capture
// at a time. Reset starts a fresh capture; Feed pushes one sample;
// Finalize closes the capture and summarizes it.
type Aggregator struct {
	cfg    jump.Config
	window float64

	// fixedCal bypasses at-rest calibration for gravity-free sources,
	// where the estimate cannot come from the data.
	fixedCal *calibration.Result

	calSamples []motion.Sample
	cal        *calibration.Result
	calErr     error

	engine    *jump.Engine
	events    []jump.Event
	rejected  int // rejections before the engine exists
	listeners []Listener
}

// New builds an aggregator that calibrates from the first window
// seconds of at-rest samples.
func New(cfg jump.Config, window float64) *Aggregator {
	a := &Aggregator{cfg: cfg, window: window}
	a.Reset()
	return a
}

// NewWithCalibration builds an aggregator with a fixed calibration,
// used for linear-acceleration sources. cfg.GravityIncluded should be
// false for those.
func NewWithCalibration(cfg jump.Config, cal calibration.Result) *Aggregator {
	a := &Aggregator{cfg: cfg, fixedCal: &cal}
	a.Reset()
	return a
}

// OnJump registers a listener for live jump events. Listeners survive
// Reset; they belong to the aggregator, not to one capture.
func (a *Aggregator) OnJump(fn Listener) {
	a.listeners = append(a.listeners, fn)
}

// Reset atomically replaces filter, phase, and event state with a fresh
// capture. Any pending calibration or half-finished jump is dropped.
func (a *Aggregator) Reset() {
	a.calSamples = nil
	a.cal = nil
	a.calErr = nil
	a.engine = nil
	a.events = nil
	a.rejected = 0
	if a.fixedCal != nil {
		a.cal = a.fixedCal
		a.engine = jump.NewEngine(a.cfg, *a.fixedCal)
	}
}

// Feed pushes one sample through the capture. While calibration is
// pending the sample goes to the calibrator; afterwards it goes to the
// engine. A calibration failure is returned here and on every later
// Feed: a capture never falls back to an unvalidated gravity estimate.
func (a *Aggregator) Feed(s motion.Sample) error {
	if a.calErr != nil {
		return a.calErr
	}

	if a.engine == nil {
		if n := len(a.calSamples); n > 0 && s.T <= a.calSamples[n-1].T {
			a.rejected++
			return nil
		}
		a.calSamples = append(a.calSamples, s)
		if s.T-a.calSamples[0].T <= a.window {
			return nil
		}
		res, err := calibration.Calibrate(a.calSamples, a.window)
		if err != nil {
			a.calErr = fmt.Errorf("capture blocked: %w", err)
			return a.calErr
		}
		a.cal = &res
		a.engine = jump.NewEngine(a.cfg, res)
		a.calSamples = nil
		// The sample that closed the window falls through to the engine.
	}

	if evt, ok := a.engine.Step(s); ok {
		m, err := metrics.Compute(evt)
		if err != nil {
			// The engine validated this event; failing here is a bug.
			return fmt.Errorf("internal: emitted event failed metrics: %w", err)
		}
		a.events = append(a.events, evt)
		for _, fn := range a.listeners {
			fn(evt, m)
		}
	}
	return nil
}

// Calibration returns the session's gravity estimate once resolved.
func (a *Aggregator) Calibration() (calibration.Result, bool) {
	if a.cal == nil {
		return calibration.Result{}, false
	}
	return *a.cal, true
}

// Events returns the events detected so far, in emission order.
func (a *Aggregator) Events() []jump.Event {
	return a.events
}

// Rejected reports samples dropped for non-advancing timestamps.
func (a *Aggregator) Rejected() int {
	if a.engine != nil {
		return a.rejected + a.engine.Rejected()
	}
	return a.rejected
}

// Finalize ends the capture, discarding any unconfirmed phase, and
// returns the session summary. The event sequence stays available until
// the next Reset.
func (a *Aggregator) Finalize() (metrics.Summary, error) {
	if a.engine != nil {
		a.engine.Abort()
	}
	return metrics.Summarize(a.events)
}
