package motion

import "github.com/relabs-tech/jump_tracker/internal/vec"

// Sample is a single 3-axis acceleration measurement in m/s².
// T is seconds on a monotonic clock owned by the producing source.
type Sample struct {
	T  float64 `json:"t"`
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`
}

// Vec returns the acceleration as a vector.
func (s Sample) Vec() vec.Vec3 {
	return vec.Vec3{X: s.Ax, Y: s.Ay, Z: s.Az}
}

// Source is anything that can provide acceleration samples over time:
// the SPI IMU, the serial module, a mock, a replay from file.
type Source interface {
	Next() (Sample, error)
}

// Descriptor tells the detector what kind of signal a source delivers.
// The MPU9250 reports specific force (gravity included); the external
// serial module reports linear acceleration with gravity already removed.
type Descriptor struct {
	Name            string
	GravityIncluded bool
}
