// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/jump_tracker/internal/calibration"
	"github.com/relabs-tech/jump_tracker/internal/motion"
)

// mockSource synthesizes a repeating rest → contact → flight → landing
// waveform so the whole pipeline can run without hardware. Gravity sits
// on +Z like a chest-mounted unit standing upright.
type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock acceleration source.
func NewMockSource() motion.Source {
	return &mockSource{start: time.Now()}
}

// MockDescriptor describes the mock feed (raw, gravity included).
func MockDescriptor() motion.Descriptor {
	return motion.Descriptor{Name: "mock", GravityIncluded: true}
}

func (m *mockSource) Next() (motion.Sample, error) {
	t := time.Since(m.start).Seconds()

	// 4-second cycle: 2.5 s rest, 0.5 s loading contact, 0.4 s flight,
	// 0.6 s landing contact.
	phase := math.Mod(t, 4.0)
	g := calibration.StandardGravity

	var vertical float64
	switch {
	case phase < 2.5:
		vertical = g + 0.1*math.Sin(t*7) // quiet standing with a little sway
	case phase < 3.0:
		vertical = g + 6.0 // push-off
	case phase < 3.4:
		vertical = g // ballistic
	default:
		vertical = g + 4.0 // landing impact, decaying
	}

	return motion.Sample{
		T:  t,
		Ax: 0.05 * math.Sin(t*3),
		Ay: 0.05 * math.Cos(t*5),
		Az: vertical,
	}, nil
}
