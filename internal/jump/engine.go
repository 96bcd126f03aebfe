// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package jump classifies a stream of acceleration samples into
// ground-contact/flight phases and emits validated jump events.
package jump

import (
	"math"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/motion"
)

type phase int

const (
	phaseGround phase = iota
	phaseContact
	phaseFlight
)

// Engine is the per-sample phase state machine. One engine serves
// exactly one capture session and is not safe for concurrent use; the
// owning session serializes access.
type Engine struct {
	cfg Config
	cal calibration.Result

	emaVert float64
	emaTot  float64

	phase        phase
	contactStart float64
	takeoff      float64

	lastT    float64
	haveLast bool
	rejected int
}

// NewEngine builds an engine with fresh filter and phase state.
func NewEngine(cfg Config, cal calibration.Result) *Engine {
	return &Engine{cfg: cfg, cal: cal}
}

// Step processes one sample in arrival order. It returns the completed
// event and true when a full contact→takeoff→landing cycle passed
// validation; otherwise the zero Event and false.
//
// Samples whose timestamp does not advance past the last accepted one
// are rejected without touching filter or phase state.
func (e *Engine) Step(s motion.Sample) (Event, bool) {
	if e.haveLast && s.T <= e.lastT {
		e.rejected++
		return Event{}, false
	}
	e.lastT = s.T
	e.haveLast = true

	// Project onto the gravity axis and smooth both channels.
	aVert := s.Vec().Dot(e.cal.GUnit)
	if e.cfg.GravityIncluded {
		aVert -= e.cal.G0
	}
	aTot := s.Vec().Norm()

	e.emaVert = e.cfg.Alpha*aVert + (1-e.cfg.Alpha)*e.emaVert
	e.emaTot = e.cfg.Alpha*aTot + (1-e.cfg.Alpha)*e.emaTot

	magDev := e.emaTot
	if e.cfg.GravityIncluded {
		magDev = e.emaTot - e.cal.G0
	}
	isFlight := math.Abs(magDev) < e.cfg.FlightEpsMag &&
		math.Abs(e.emaVert) < e.cfg.FlightEpsVert
	hasMotion := math.Abs(e.emaVert) > e.cfg.MoveThresh

	switch e.phase {
	case phaseGround, phaseContact:
		if isFlight {
			if e.phase != phaseContact {
				// Takeoff without a seen contact phase: backfill a
				// nominal contact window so contact time stays sane.
				e.contactStart = math.Max(0, s.T-e.cfg.ContactFallback)
			}
			e.takeoff = s.T
			e.phase = phaseFlight
		} else if hasMotion && e.phase != phaseContact {
			e.contactStart = s.T
			e.phase = phaseContact
		}

	case phaseFlight:
		if !isFlight {
			evt := Event{
				ContactStart: e.contactStart,
				Takeoff:      e.takeoff,
				Landing:      s.T,
			}
			e.phase = phaseGround
			e.contactStart = 0
			e.takeoff = 0
			if e.valid(evt) {
				return evt, true
			}
			// Invalid cycles are dropped without ceremony; the next
			// sample starts clean from Ground.
		}
	}

	return Event{}, false
}

func (e *Engine) valid(evt Event) bool {
	flight := evt.Landing - evt.Takeoff
	contact := evt.Takeoff - evt.ContactStart
	return flight >= e.cfg.MinFlight &&
		flight <= e.cfg.MaxFlight &&
		contact >= e.cfg.MinContact
}

// Abort discards any pending contact or flight phase without emitting a
// partial event. Called when a capture stops mid-cycle.
func (e *Engine) Abort() {
	e.phase = phaseGround
	e.contactStart = 0
	e.takeoff = 0
}

// Rejected reports how many samples were dropped for non-advancing
// timestamps since the engine was built.
func (e *Engine) Rejected() int {
	return e.rejected
}

// InFlight reports whether the engine currently sits in a flight phase.
func (e *Engine) InFlight() bool {
	return e.phase == phaseFlight
}
