package jump

// Config parameterizes one detection engine. All thresholds are in m/s²
// and all durations in seconds unless noted. Earlier firmware carried
// several copies of the detector with slightly different constants; the
// named profiles below replace that with one engine and explicit sets.
type Config struct {
	// Alpha is the EMA smoothing factor. Higher reacts faster but
	// smooths less.
	Alpha float64

	// FlightEpsMag is the tolerance on the smoothed total magnitude for
	// a sample to classify as flight.
	FlightEpsMag float64

	// FlightEpsVert is the tolerance on the smoothed vertical
	// acceleration for a sample to classify as flight.
	FlightEpsVert float64

	// MoveThresh is the vertical acceleration that marks ground-contact
	// motion (the crouch/push before takeoff).
	MoveThresh float64

	// MinFlight and MaxFlight bound a believable airborne duration.
	MinFlight float64
	MaxFlight float64

	// MinContact is the shortest believable pre-takeoff contact.
	MinContact float64

	// ContactFallback backfills the contact start when takeoff is seen
	// without a preceding contact phase.
	ContactFallback float64

	// GravityIncluded matches the source descriptor. When false the
	// vertical projection skips the gravity subtraction and the
	// magnitude test compares against zero instead of g0, so a
	// gravity-free feed is never double-corrected.
	GravityIncluded bool
}

// DefaultProfile is the canonical threshold set.
func DefaultProfile() Config {
	return Config{
		Alpha:           0.2,
		FlightEpsMag:    0.45,
		FlightEpsVert:   0.55,
		MoveThresh:      1.1,
		MinFlight:       0.10,
		MaxFlight:       1.20,
		MinContact:      0.08,
		ContactFallback: 0.20,
		GravityIncluded: true,
	}
}

// StrictProfile trades sensitivity for fewer false positives: tighter
// flight bands, a stronger motion gate, and a narrower duration window.
func StrictProfile() Config {
	c := DefaultProfile()
	c.FlightEpsMag = 0.35
	c.FlightEpsVert = 0.45
	c.MoveThresh = 1.4
	c.MinFlight = 0.15
	c.MaxFlight = 1.00
	return c
}

// SensitiveProfile loosens the bands for low-amplitude jumpers
// (children, rebounds, fatigued athletes).
func SensitiveProfile() Config {
	c := DefaultProfile()
	c.FlightEpsMag = 0.55
	c.FlightEpsVert = 0.65
	c.MoveThresh = 0.9
	return c
}

// Profile returns the named profile, defaulting to DefaultProfile for
// unknown names.
func Profile(name string) Config {
	switch name {
	case "strict":
		return StrictProfile()
	case "sensitive":
		return SensitiveProfile()
	default:
		return DefaultProfile()
	}
}
