package jump

// Event is one validated jump cycle: ground contact, takeoff, landing.
// Timestamps are seconds on the source's clock and always satisfy
// Landing > Takeoff >= ContactStart. Events are immutable once emitted.
type Event struct {
	ContactStart float64 `json:"contact_start"`
	Takeoff      float64 `json:"takeoff"`
	Landing      float64 `json:"landing"`
}
