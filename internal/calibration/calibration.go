// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates the gravity vector from an initial
// at-rest capture. The estimate anchors the vertical axis for the rest
// of the session and is never revised while a capture is live.
package calibration

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/vec"
)

// StandardGravity is the reference gravitational acceleration in m/s².
const StandardGravity = 9.80665

const (
	// MinSamples is the fewest at-rest samples accepted for an estimate.
	MinSamples = 10

	// Gravity magnitudes outside this band mean the device was moving,
	// mis-scaled, or the source is not actually reporting m/s².
	MinPlausibleGravity = 5.0
	MaxPlausibleGravity = 15.0
)

var (
	ErrInsufficientSamples = errors.New("calibration: not enough samples in window")
	ErrImplausibleGravity  = errors.New("calibration: gravity magnitude outside plausible range")
)

// Result is an immutable gravity estimate for one session.
type Result struct {
	G0      float64  `json:"g0"`      // gravity magnitude, m/s²
	GUnit   vec.Vec3 `json:"g_unit"`  // unit vector along measured gravity
	Samples int      `json:"samples"` // samples that contributed
	Window  float64  `json:"window_sec"`
}

// Calibrate averages the samples whose offset from the first sample is
// within window seconds and derives the gravity magnitude and direction.
// It consumes nothing beyond the slice it is given.
func Calibrate(samples []motion.Sample, window float64) (Result, error) {
	if len(samples) == 0 {
		return Result{}, fmt.Errorf("%w: got 0, need %d", ErrInsufficientSamples, MinSamples)
	}

	start := samples[0].T
	var sum vec.Vec3
	n := 0
	for _, s := range samples {
		if s.T-start > window {
			break
		}
		sum = sum.Add(s.Vec())
		n++
	}

	if n < MinSamples {
		return Result{}, fmt.Errorf("%w: got %d, need %d", ErrInsufficientSamples, n, MinSamples)
	}

	mean := sum.Scale(1.0 / float64(n))
	g0 := mean.Norm()
	if g0 < MinPlausibleGravity || g0 > MaxPlausibleGravity {
		return Result{}, fmt.Errorf("%w: %.3f m/s²", ErrImplausibleGravity, g0)
	}

	return Result{
		G0:      g0,
		GUnit:   mean.Scale(1.0 / g0),
		Samples: n,
		Window:  window,
	}, nil
}

// ForLinear builds the fixed reference used with sources that already
// removed gravity. An at-rest linear-acceleration stream averages to
// roughly zero, so the magnitude can't be measured from the data; the
// mounting axis comes from configuration and the magnitude is standard
// gravity.
func ForLinear(axis vec.Vec3) (Result, error) {
	n := axis.Norm()
	if n == 0 {
		return Result{}, fmt.Errorf("%w: zero gravity axis", ErrImplausibleGravity)
	}
	return Result{
		G0:    StandardGravity,
		GUnit: axis.Scale(1.0 / n),
	}, nil
}
