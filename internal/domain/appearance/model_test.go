package appearance

import "testing"

// TestResolve tests initial mode selection from storage and platform preference.
func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		stored       string
		platformDark bool
		want         Mode
	}{
		{"nothing stored, platform dark", "", true, Dark},
		{"nothing stored, platform light", "", false, Light},
		{"stored light overrides platform dark", "light", true, Light},
		{"stored dark overrides platform light", "dark", false, Dark},
		{"garbage falls back to platform", "sepia", true, Dark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.stored, tt.platformDark); got != tt.want {
				t.Errorf("Resolve(%q, %v) = %q, want %q", tt.stored, tt.platformDark, got, tt.want)
			}
		})
	}
}

// TestMode_Toggle tests flipping between schemes.
func TestMode_Toggle(t *testing.T) {
	if Dark.Toggle() != Light {
		t.Errorf("Dark.Toggle() = %q, want light", Dark.Toggle())
	}
	if Light.Toggle() != Dark {
		t.Errorf("Light.Toggle() = %q, want dark", Light.Toggle())
	}
}

// TestParse_Unknown tests that unknown values are rejected.
func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("DARK"); err != ErrUnknownMode {
		t.Errorf("Parse(DARK) error = %v, want ErrUnknownMode", err)
	}
}
