package appearance

import "errors"

// Mode is the colour scheme the panel renders in.
type Mode string

// Mode values are stored verbatim in client-local storage.
const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

// StorageKey is the client-local storage key holding the preferred Mode.
const StorageKey = "theme"

// ErrUnknownMode is returned when a stored value is neither "dark" nor "light".
var ErrUnknownMode = errors.New("appearance must be 'dark' or 'light'")

// Parse converts a stored string to a Mode.
// PRE: none
// POST: returns Dark or Light, or ErrUnknownMode
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Dark:
		return Dark, nil
	case Light:
		return Light, nil
	}
	return "", ErrUnknownMode
}

// FromBool maps a dark flag to a Mode.
func FromBool(dark bool) Mode {
	if dark {
		return Dark
	}
	return Light
}

// IsDark reports whether m is the dark scheme.
func (m Mode) IsDark() bool {
	return m == Dark
}

// Toggle returns the opposite Mode.
func (m Mode) Toggle() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Resolve picks the initial Mode: a valid stored value wins, otherwise the
// platform colour-scheme preference.
// PRE: stored may be empty or garbage
// POST: returns Dark or Light
func Resolve(stored string, platformDark bool) Mode {
	if m, err := Parse(stored); err == nil {
		return m
	}
	return FromBool(platformDark)
}
