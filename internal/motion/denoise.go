package motion

// Axis identifies one of the three sensor axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Denoiser zeroes per-axis readings below a fixed floor before samples
// leave a producer. The axis the device mounts along gravity gets a larger
// floor because residual gravity leakage is biggest there. Floors are
// config-driven; changing them shifts detection outcomes noticeably.
type Denoiser struct {
	Floor        float64
	GravityFloor float64
	GravityAxis  Axis
}

// Apply returns s with sub-floor components zeroed.
func (d Denoiser) Apply(s Sample) Sample {
	s.Ax = d.clip(s.Ax, AxisX)
	s.Ay = d.clip(s.Ay, AxisY)
	s.Az = d.clip(s.Az, AxisZ)
	return s
}

func (d Denoiser) clip(v float64, axis Axis) float64 {
	floor := d.Floor
	if axis == d.GravityAxis {
		floor = d.GravityFloor
	}
	if v < floor && v > -floor {
		return 0
	}
	return v
}
