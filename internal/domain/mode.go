package domain

// Mode is a travel mode understood by the distance oracle.
type Mode string

const (
	ModeWalking   Mode = "walking"
	ModeBicycling Mode = "bicycling"
	ModeDriving   Mode = "driving"
	ModeTransit   Mode = "transit"
)

// AllModes lists every mode the selector considers, in query order.
func AllModes() []Mode {
	return []Mode{ModeWalking, ModeBicycling, ModeDriving, ModeTransit}
}

// Valid reports whether m is one of the known travel modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeWalking, ModeBicycling, ModeDriving, ModeTransit:
		return true
	}
	return false
}

// ColorID returns the calendar color id used for travel entries of this mode.
// Unknown modes map to "1" so a bad mode still renders rather than failing
// the insert.
func (m Mode) ColorID() string {
	switch m {
	case ModeWalking:
		return "4"
	case ModeBicycling:
		return "2"
	case ModeTransit:
		return "5"
	case ModeDriving:
		return "10"
	}
	return "1"
}
