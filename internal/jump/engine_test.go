// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package jump

import (
	"math"
	"testing"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/vec"
)

const g0 = 9.80665

func testCalibration() calibration.Result {
	return calibration.Result{G0: g0, GUnit: vec.Vec3{Z: 1}}
}

// block generates n vertical-only samples at 100 Hz starting at t0.
func block(t0 float64, n int, az float64) []motion.Sample {
	out := make([]motion.Sample, n)
	for i := range out {
		out[i] = motion.Sample{T: t0 + float64(i)*0.01, Az: az}
	}
	return out
}

// jumpStream models one jump on a body-worn sensor: standing (with the
// usual ~0.8 m/s² of postural sway bias), push-off, free fall, landing
// impact, standing again. base is g0 for a raw feed and 0 for a
// gravity-free one.
func jumpStream(base float64) []motion.Sample {
	var s []motion.Sample
	s = append(s, block(0.00, 100, base+0.8)...) // standing
	s = append(s, block(1.00, 8, base+1.5)...)   // push-off
	s = append(s, block(1.08, 30, base)...)      // airborne
	s = append(s, block(1.38, 20, base+3.0)...)  // landing impact
	s = append(s, block(1.58, 42, base+0.8)...)  // standing
	return s
}

func feed(e *Engine, samples []motion.Sample) []Event {
	var events []Event
	for _, s := range samples {
		if evt, ok := e.Step(s); ok {
			events = append(events, evt)
		}
	}
	return events
}

func TestEngineDetectsSingleJump(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	events := feed(e, jumpStream(g0))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}

	evt := events[0]
	if !(evt.ContactStart < evt.Takeoff && evt.Takeoff < evt.Landing) {
		t.Fatalf("event not ordered: %+v", evt)
	}
	// The EMA lags the true phase edges, so the detected flight is a
	// little shorter than the 0.30 s of airborne samples.
	flight := evt.Landing - evt.Takeoff
	if math.Abs(flight-0.3) > 0.08 {
		t.Fatalf("flight: got %v, want ~0.3", flight)
	}
	contact := evt.Takeoff - evt.ContactStart
	if contact < 0.08 || contact > 0.2 {
		t.Fatalf("contact: got %v", contact)
	}
}

func TestEngineGravityFreeFeed(t *testing.T) {
	cfg := DefaultProfile()
	cfg.GravityIncluded = false
	cal, err := calibration.ForLinear(vec.Vec3{Z: 1})
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	e := NewEngine(cfg, cal)

	// Same motion with gravity already removed at the source.
	events := feed(e, jumpStream(0))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	flight := events[0].Landing - events[0].Takeoff
	if math.Abs(flight-0.3) > 0.08 {
		t.Fatalf("flight: got %v, want ~0.3", flight)
	}
}

func TestEngineStandingProducesNothing(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	if events := feed(e, block(0, 300, g0+0.8)); len(events) != 0 {
		t.Fatalf("standing emitted %d events: %+v", len(events), events)
	}
	if e.InFlight() {
		t.Fatal("standing left the engine in flight")
	}
}

func TestEngineRejectsNonAdvancingTimestamps(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	var samples []motion.Sample
	for i, s := range jumpStream(g0) {
		samples = append(samples, s)
		if i == 50 {
			// A duplicate and a rewind mid-stream.
			samples = append(samples, motion.Sample{T: s.T, Az: 50})
			samples = append(samples, motion.Sample{T: 0.10, Az: 50})
		}
	}

	events := feed(e, samples)
	if got := e.Rejected(); got != 2 {
		t.Fatalf("rejected: got %d, want 2", got)
	}
	// The rejected samples must not have perturbed detection.
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestEngineBackfillsContactStart(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	// Airborne without a visible push-off phase (e.g. a drop from a
	// box): the contact start is backfilled by the fallback window.
	var s []motion.Sample
	s = append(s, block(0.00, 50, g0+0.8)...)
	s = append(s, block(0.50, 30, g0)...)
	s = append(s, block(0.80, 20, g0+3.0)...)

	events := feed(e, s)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	evt := events[0]
	if math.Abs((evt.Takeoff-evt.ContactStart)-DefaultProfile().ContactFallback) > 1e-9 {
		t.Fatalf("backfilled contact: got %v, want %v",
			evt.Takeoff-evt.ContactStart, DefaultProfile().ContactFallback)
	}
}

func TestEngineDiscardsOverlongFlight(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	// 1.5 s of apparent free fall is outside any believable jump.
	var s []motion.Sample
	s = append(s, block(0.00, 100, g0+0.8)...)
	s = append(s, block(1.00, 8, g0+1.5)...)
	s = append(s, block(1.08, 150, g0)...)
	s = append(s, block(2.58, 20, g0+3.0)...)

	if events := feed(e, s); len(events) != 0 {
		t.Fatalf("overlong flight emitted %d events: %+v", len(events), events)
	}
	if e.InFlight() {
		t.Fatal("engine stuck in flight after invalid cycle")
	}
}

func TestEngineDiscardsShortFlight(t *testing.T) {
	cfg := DefaultProfile()
	// Kill the smoothing so a flight of a few samples registers at all.
	cfg.Alpha = 1.0
	e := NewEngine(cfg, testCalibration())

	var s []motion.Sample
	s = append(s, block(0.00, 100, g0+0.8)...)
	s = append(s, block(1.00, 10, g0+1.5)...)
	s = append(s, block(1.10, 3, g0)...) // 0.03 s "flight"
	s = append(s, block(1.13, 20, g0+3.0)...)

	if events := feed(e, s); len(events) != 0 {
		t.Fatalf("short flight emitted %d events: %+v", len(events), events)
	}
}

func TestEngineAbortDropsPendingFlight(t *testing.T) {
	e := NewEngine(DefaultProfile(), testCalibration())

	var s []motion.Sample
	s = append(s, block(0.00, 100, g0+0.8)...)
	s = append(s, block(1.00, 8, g0+1.5)...)
	s = append(s, block(1.08, 30, g0)...)
	feed(e, s)
	if !e.InFlight() {
		t.Fatal("expected engine in flight before abort")
	}

	e.Abort()
	if e.InFlight() {
		t.Fatal("abort left engine in flight")
	}
	// The landing that would have completed the jump now lands on a
	// clean ground phase and must not emit.
	if events := feed(e, block(1.38, 20, g0+3.0)); len(events) != 0 {
		t.Fatalf("aborted cycle still emitted: %+v", events)
	}
}

func TestProfiles(t *testing.T) {
	def := Profile("default")
	if def != DefaultProfile() {
		t.Fatalf("default profile mismatch: %+v", def)
	}
	if Profile("nonsense") != DefaultProfile() {
		t.Fatal("unknown profile should fall back to default")
	}

	strict := Profile("strict")
	if strict.MoveThresh <= def.MoveThresh || strict.FlightEpsMag >= def.FlightEpsMag {
		t.Fatalf("strict profile not stricter: %+v", strict)
	}
	sensitive := Profile("sensitive")
	if sensitive.MoveThresh >= def.MoveThresh || sensitive.FlightEpsVert <= def.FlightEpsVert {
		t.Fatalf("sensitive profile not looser: %+v", sensitive)
	}
}
