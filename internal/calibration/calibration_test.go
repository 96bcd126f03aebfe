package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/jump_tracker/internal/motion"
	"github.com/relabs-tech/jump_tracker/internal/vec"
)

func restSamples(n int, dt float64, a vec.Vec3) []motion.Sample {
	out := make([]motion.Sample, n)
	for i := range out {
		out[i] = motion.Sample{T: float64(i) * dt, Ax: a.X, Ay: a.Y, Az: a.Z}
	}
	return out
}

func TestCalibrateAtRest(t *testing.T) {
	samples := restSamples(20, 0.01, vec.Vec3{Y: 9.81})

	res, err := Calibrate(samples, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.G0-9.81) > 1e-9 {
		t.Fatalf("g0: got %v, want 9.81", res.G0)
	}
	if math.Abs(res.GUnit.Y-1) > 1e-9 || math.Abs(res.GUnit.X) > 1e-9 || math.Abs(res.GUnit.Z) > 1e-9 {
		t.Fatalf("gUnit: got %+v, want (0,1,0)", res.GUnit)
	}
	if res.Samples != 20 {
		t.Fatalf("samples: got %d, want 20", res.Samples)
	}
	if res.Window != 1.0 {
		t.Fatalf("window: got %v, want 1.0", res.Window)
	}
}

func TestCalibrateTiltedMount(t *testing.T) {
	// Gravity split across two axes still averages to a unit direction.
	g := 9.80665 / math.Sqrt2
	samples := restSamples(15, 0.01, vec.Vec3{X: g, Z: g})

	res, err := Calibrate(samples, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.G0-9.80665) > 1e-9 {
		t.Fatalf("g0: got %v", res.G0)
	}
	if math.Abs(res.GUnit.Norm()-1) > 1e-12 {
		t.Fatalf("gUnit not unit length: %v", res.GUnit.Norm())
	}
	if math.Abs(res.GUnit.X-res.GUnit.Z) > 1e-12 {
		t.Fatalf("gUnit direction skewed: %+v", res.GUnit)
	}
}

func TestCalibrateTooFewSamples(t *testing.T) {
	samples := restSamples(5, 0.01, vec.Vec3{Z: 9.81})

	if _, err := Calibrate(samples, 1.0); !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("got %v, want ErrInsufficientSamples", err)
	}
	if _, err := Calibrate(nil, 1.0); !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("empty input: got %v, want ErrInsufficientSamples", err)
	}
}

func TestCalibrateWindowTrim(t *testing.T) {
	// 15 samples spread over 1.4 s, but only those within the 0.5 s
	// window count: 6 samples is below the minimum.
	samples := restSamples(15, 0.1, vec.Vec3{Z: 9.81})

	if _, err := Calibrate(samples, 0.5); !errors.Is(err, ErrInsufficientSamples) {
		t.Fatalf("got %v, want ErrInsufficientSamples", err)
	}
}

func TestCalibrateIgnoresBeyondWindow(t *testing.T) {
	samples := restSamples(30, 0.01, vec.Vec3{Z: 9.81})
	// A wild sample after the window must not skew the estimate.
	samples = append(samples, motion.Sample{T: 2.0, Az: 50})

	res, err := Calibrate(samples, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Samples != 30 {
		t.Fatalf("samples: got %d, want 30", res.Samples)
	}
	if math.Abs(res.G0-9.81) > 1e-9 {
		t.Fatalf("g0: got %v, want 9.81", res.G0)
	}
}

func TestCalibrateImplausibleMagnitude(t *testing.T) {
	low := restSamples(20, 0.01, vec.Vec3{Z: 0.5})
	if _, err := Calibrate(low, 1.0); !errors.Is(err, ErrImplausibleGravity) {
		t.Fatalf("low: got %v, want ErrImplausibleGravity", err)
	}

	high := restSamples(20, 0.01, vec.Vec3{Z: 20})
	if _, err := Calibrate(high, 1.0); !errors.Is(err, ErrImplausibleGravity) {
		t.Fatalf("high: got %v, want ErrImplausibleGravity", err)
	}
}

func TestForLinear(t *testing.T) {
	res, err := ForLinear(vec.Vec3{Z: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.G0 != StandardGravity {
		t.Fatalf("g0: got %v, want %v", res.G0, StandardGravity)
	}
	if math.Abs(res.GUnit.Z-1) > 1e-12 {
		t.Fatalf("gUnit: got %+v, want unit z", res.GUnit)
	}

	if _, err := ForLinear(vec.Vec3{}); !errors.Is(err, ErrImplausibleGravity) {
		t.Fatalf("zero axis: got %v, want ErrImplausibleGravity", err)
	}
}
