package settings

import (
	"medibook/internal/adapters/api"
	"medibook/internal/domain/appearance"
)

// TokenKey is the local storage key holding the session credential.
const TokenKey = "dToken"

// State is everything the settings panel shows. Presenters receive copies.
type State struct {
	// Version increases with every change so presenters can drop stale renders.
	Version uint64

	Email         string
	EmailPassword string

	CurrentPassword string
	NewPassword     string
	ConfirmPassword string

	DeletePassword  string
	DeleteConfirmed bool

	EmailBusy    bool
	PasswordBusy bool
	DeleteBusy   bool

	ShowEmailConfirm  bool
	ShowDeleteConfirm bool

	Appearance appearance.Mode

	Profile       api.Profile
	ProfileLoaded bool
}

// Operation names a controller action in notices and logs.
type Operation string

const (
	OpLoadProfile    Operation = "load_profile"
	OpChangeEmail    Operation = "change_email"
	OpChangePassword Operation = "change_password"
	OpDeleteAccount  Operation = "delete_account"
)

// Level is the severity of a transient notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notice is a transient notification for the doctor.
type Notice struct {
	Level     Level
	Operation Operation
	Message   string
}
