package audit

import (
	"strings"
	"testing"
)

func TestNewEvent_Severity(t *testing.T) {
	tests := []struct {
		action Action
		want   Severity
	}{
		{ActionLogin, SeverityInfo},
		{ActionLoginFailed, SeverityWarning},
		{ActionEmailChange, SeverityWarning},
		{ActionPasswordChange, SeverityWarning},
		{ActionAccountDelete, SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			e := NewEvent("acc-1", "doc@clinic.test", tt.action)
			if e.Severity != tt.want {
				t.Errorf("Severity = %s, want %s", e.Severity, tt.want)
			}
			if e.ID == "" || e.Timestamp.IsZero() {
				t.Errorf("NewEvent should set ID and Timestamp, got %+v", e)
			}
		})
	}
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a := NewEvent("acc-1", "", ActionLogin)
	b := NewEvent("acc-1", "", ActionLogin)
	if a.ID == b.ID {
		t.Errorf("two events share ID %q", a.ID)
	}
}

func TestEvent_WithRequest_TruncatesUserAgent(t *testing.T) {
	e := NewEvent("acc-1", "", ActionLogin).WithRequest("10.0.0.1", strings.Repeat("x", 1000))
	if len(e.UserAgent) != MaxUserAgentLength {
		t.Errorf("len(UserAgent) = %d, want %d", len(e.UserAgent), MaxUserAgentLength)
	}
	if e.IPAddress != "10.0.0.1" {
		t.Errorf("IPAddress = %q", e.IPAddress)
	}
}

func TestEvent_Validate(t *testing.T) {
	if err := (Event{Action: ActionLogin}).Validate(); err != ErrEmptyAccount {
		t.Errorf("missing account: err = %v, want ErrEmptyAccount", err)
	}
	if err := (Event{AccountID: "a"}).Validate(); err != ErrEmptyAction {
		t.Errorf("missing action: err = %v, want ErrEmptyAction", err)
	}
	if err := NewEvent("a", "", ActionLogin).Validate(); err != nil {
		t.Errorf("valid event: err = %v", err)
	}
}
