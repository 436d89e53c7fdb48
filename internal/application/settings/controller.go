// Package settings coordinates the doctor's account settings: email change,
// password change, account deletion and the dark/light appearance toggle.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"medibook/internal/adapters/api"
	"medibook/internal/domain/appearance"
)

// Validation and gating errors. Their text is shown to the doctor.
var (
	ErrEmailFieldsRequired    = errors.New("new email and password are required")
	ErrPasswordFieldsRequired = errors.New("all password fields are required")
	ErrPasswordMismatch       = errors.New("new passwords do not match")
	ErrDeleteConsentRequired  = errors.New("confirm that you understand deletion cannot be undone")
	ErrDeletePasswordRequired = errors.New("password is required to delete the account")
	ErrNoSession              = errors.New("not signed in")
	ErrBusy                   = errors.New("request already in progress")
	ErrNoPendingConfirmation  = errors.New("nothing is waiting for confirmation")
)

// Default success messages, used when the server sends none.
const (
	defaultEmailChanged    = "Email updated"
	defaultPasswordChanged = "Password updated"
	defaultAccountDeleted  = "Account deleted"
)

// AccountAPI is the subset of the account API the controller calls.
type AccountAPI interface {
	GetProfile(ctx context.Context, token string) (api.Profile, error)
	ChangeEmail(ctx context.Context, token, newEmail, password string) (string, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (string, error)
	DeleteAccount(ctx context.Context, token, password string) (string, error)
}

// Storage is synchronous client-local key/value storage.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Presenter draws the panel. Render is called with a copy of the state after
// every change; Notify shows a transient message.
type Presenter interface {
	Render(State)
	Notify(Notice)
}

// Controller owns the settings panel state.
// INVARIANT: mu is never held across an AccountAPI or Presenter call
// INVARIANT: each busy flag is true only while its own call is in flight
type Controller struct {
	api       AccountAPI
	storage   Storage
	presenter Presenter

	mu    sync.Mutex
	state State

	// themeMu keeps toggle order and storage write order the same.
	themeMu sync.Mutex
}

// New creates a Controller. A nil presenter discards output.
func New(client AccountAPI, storage Storage, presenter Presenter) *Controller {
	if presenter == nil {
		presenter = nopPresenter{}
	}
	return &Controller{
		api:       client,
		storage:   storage,
		presenter: presenter,
		state:     State{Appearance: appearance.Light},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// update applies fn under the lock and renders the result.
func (c *Controller) update(fn func(s *State)) State {
	c.mu.Lock()
	fn(&c.state)
	c.state.Version++
	snap := c.state
	c.mu.Unlock()
	c.presenter.Render(snap)
	return snap
}

// begin runs check under the lock. When check passes, its changes are rendered.
// When it fails, check must have left the state alone; the error is reported
// unless it is ErrBusy, which stands for a disabled button.
func (c *Controller) begin(op Operation, check func(s *State) error) error {
	c.mu.Lock()
	if err := check(&c.state); err != nil {
		c.mu.Unlock()
		if !errors.Is(err, ErrBusy) {
			c.presenter.Notify(Notice{Level: LevelError, Operation: op, Message: err.Error()})
		}
		return err
	}
	c.state.Version++
	snap := c.state
	c.mu.Unlock()
	c.presenter.Render(snap)
	return nil
}

// consumeGate closes the gate picked by field and reports whether it was open.
// Only one caller can see a given gate open.
func (c *Controller) consumeGate(field func(s *State) *bool) bool {
	c.mu.Lock()
	gate := field(&c.state)
	if !*gate {
		c.mu.Unlock()
		return false
	}
	*gate = false
	c.state.Version++
	snap := c.state
	c.mu.Unlock()
	c.presenter.Render(snap)
	return true
}

// busyFlag clears one busy flag exactly once.
type busyFlag struct {
	c     *Controller
	field func(s *State) *bool
	done  bool
}

func (c *Controller) busy(field func(s *State) *bool) *busyFlag {
	return &busyFlag{c: c, field: field}
}

// release clears the flag, applying extra in the same update, so the flag is
// already false when the outcome notice goes out.
func (b *busyFlag) release(extra func(s *State)) {
	if b.done {
		return
	}
	b.done = true
	b.c.update(func(s *State) {
		*b.field(s) = false
		if extra != nil {
			extra(s)
		}
	})
}

// token reads the session credential. A storage failure counts as no session.
func (c *Controller) token() (string, bool) {
	tok, ok, err := c.storage.Get(TokenKey)
	if err != nil {
		slog.Warn("settings_storage_error", "op", "get", "key", TokenKey, "error", err)
		return "", false
	}
	return tok, ok && tok != ""
}

// fail reports a failed call. Transport failures are logged as well.
func (c *Controller) fail(op Operation, err error) error {
	if !api.IsRejected(err) {
		slog.Error("settings_transport_error", "operation", string(op), "error", err)
	}
	c.presenter.Notify(Notice{Level: LevelError, Operation: op, Message: err.Error()})
	return err
}

func (c *Controller) succeed(op Operation, message, fallback string) {
	if message == "" {
		message = fallback
	}
	c.presenter.Notify(Notice{Level: LevelSuccess, Operation: op, Message: message})
}

// LoadProfile fetches the signed-in doctor's profile and fills the email draft.
// Without a stored session it returns ErrNoSession and makes no call.
// A failed load is logged only; the draft stays as it was.
func (c *Controller) LoadProfile(ctx context.Context) error {
	tok, ok := c.token()
	if !ok {
		return ErrNoSession
	}
	profile, err := c.api.GetProfile(ctx, tok)
	if err != nil {
		slog.Warn("settings_profile_load_failed", "error", err)
		return err
	}
	c.update(func(s *State) {
		s.Profile = profile
		s.ProfileLoaded = true
		s.Email = profile.Email
	})
	return nil
}

// Field edits. They are accepted at any time, including while a call is in flight.

func (c *Controller) SetEmail(v string)           { c.update(func(s *State) { s.Email = v }) }
func (c *Controller) SetEmailPassword(v string)   { c.update(func(s *State) { s.EmailPassword = v }) }
func (c *Controller) SetCurrentPassword(v string) { c.update(func(s *State) { s.CurrentPassword = v }) }
func (c *Controller) SetNewPassword(v string)     { c.update(func(s *State) { s.NewPassword = v }) }
func (c *Controller) SetConfirmPassword(v string) { c.update(func(s *State) { s.ConfirmPassword = v }) }
func (c *Controller) SetDeletePassword(v string)  { c.update(func(s *State) { s.DeletePassword = v }) }
func (c *Controller) SetDeleteConfirmed(v bool)   { c.update(func(s *State) { s.DeleteConfirmed = v }) }

func validateEmailDrafts(s *State) error {
	if s.Email == "" || s.EmailPassword == "" {
		return ErrEmailFieldsRequired
	}
	return nil
}

func validatePasswordDrafts(s *State) error {
	if s.CurrentPassword == "" || s.NewPassword == "" || s.ConfirmPassword == "" {
		return ErrPasswordFieldsRequired
	}
	if s.NewPassword != s.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

func validateDeleteDrafts(s *State) error {
	if !s.DeleteConfirmed {
		return ErrDeleteConsentRequired
	}
	if s.DeletePassword == "" {
		return ErrDeletePasswordRequired
	}
	return nil
}

// RequestEmailChange validates the email drafts and opens the confirmation gate.
// It never calls the API.
func (c *Controller) RequestEmailChange() error {
	return c.begin(OpChangeEmail, func(s *State) error {
		if s.EmailBusy {
			return ErrBusy
		}
		if err := validateEmailDrafts(s); err != nil {
			return err
		}
		s.ShowEmailConfirm = true
		return nil
	})
}

// CancelEmailChange closes the email gate. Drafts are kept.
func (c *Controller) CancelEmailChange() {
	c.update(func(s *State) { s.ShowEmailConfirm = false })
}

// ConfirmEmailChange consumes the email gate and submits the change.
// PRE: RequestEmailChange opened the gate
// POST: the gate is closed; EmailBusy is false; on success EmailPassword is cleared
func (c *Controller) ConfirmEmailChange(ctx context.Context) error {
	if !c.consumeGate(func(s *State) *bool { return &s.ShowEmailConfirm }) {
		return ErrNoPendingConfirmation
	}
	tok, hasSession := c.token()
	var newEmail, password string
	err := c.begin(OpChangeEmail, func(s *State) error {
		if s.EmailBusy {
			return ErrBusy
		}
		if err := validateEmailDrafts(s); err != nil {
			return err
		}
		if !hasSession {
			return ErrNoSession
		}
		newEmail, password = s.Email, s.EmailPassword
		s.EmailBusy = true
		return nil
	})
	if err != nil {
		return err
	}
	busy := c.busy(func(s *State) *bool { return &s.EmailBusy })
	defer busy.release(nil)

	msg, err := c.api.ChangeEmail(ctx, tok, newEmail, password)
	if err != nil {
		busy.release(nil)
		return c.fail(OpChangeEmail, err)
	}
	busy.release(func(s *State) { s.EmailPassword = "" })
	c.succeed(OpChangeEmail, msg, defaultEmailChanged)
	return nil
}

// ChangePassword validates the password drafts and submits them directly.
// Password changes have no confirmation gate.
// POST: PasswordBusy is false; on success all three password drafts are cleared
func (c *Controller) ChangePassword(ctx context.Context) error {
	tok, hasSession := c.token()
	var current, next string
	err := c.begin(OpChangePassword, func(s *State) error {
		if s.PasswordBusy {
			return ErrBusy
		}
		if err := validatePasswordDrafts(s); err != nil {
			return err
		}
		if !hasSession {
			return ErrNoSession
		}
		current, next = s.CurrentPassword, s.NewPassword
		s.PasswordBusy = true
		return nil
	})
	if err != nil {
		return err
	}
	busy := c.busy(func(s *State) *bool { return &s.PasswordBusy })
	defer busy.release(nil)

	msg, err := c.api.ChangePassword(ctx, tok, current, next)
	if err != nil {
		busy.release(nil)
		return c.fail(OpChangePassword, err)
	}
	busy.release(func(s *State) {
		s.CurrentPassword = ""
		s.NewPassword = ""
		s.ConfirmPassword = ""
	})
	c.succeed(OpChangePassword, msg, defaultPasswordChanged)
	return nil
}

// RequestAccountDeletion validates consent and password and opens the delete gate.
// It never calls the API.
func (c *Controller) RequestAccountDeletion() error {
	return c.begin(OpDeleteAccount, func(s *State) error {
		if s.DeleteBusy {
			return ErrBusy
		}
		if err := validateDeleteDrafts(s); err != nil {
			return err
		}
		s.ShowDeleteConfirm = true
		return nil
	})
}

// CancelAccountDeletion closes the delete gate. Drafts are kept.
func (c *Controller) CancelAccountDeletion() {
	c.update(func(s *State) { s.ShowDeleteConfirm = false })
}

// ConfirmAccountDeletion consumes the delete gate and deletes the account.
// PRE: RequestAccountDeletion opened the gate
// POST: the gate is closed; DeleteBusy is false; on success the stored session credential is removed
func (c *Controller) ConfirmAccountDeletion(ctx context.Context) error {
	if !c.consumeGate(func(s *State) *bool { return &s.ShowDeleteConfirm }) {
		return ErrNoPendingConfirmation
	}
	tok, hasSession := c.token()
	var password string
	err := c.begin(OpDeleteAccount, func(s *State) error {
		if s.DeleteBusy {
			return ErrBusy
		}
		if err := validateDeleteDrafts(s); err != nil {
			return err
		}
		if !hasSession {
			return ErrNoSession
		}
		password = s.DeletePassword
		s.DeleteBusy = true
		return nil
	})
	if err != nil {
		return err
	}
	busy := c.busy(func(s *State) *bool { return &s.DeleteBusy })
	defer busy.release(nil)

	msg, err := c.api.DeleteAccount(ctx, tok, password)
	if err != nil {
		busy.release(nil)
		return c.fail(OpDeleteAccount, err)
	}
	if err := c.storage.Remove(TokenKey); err != nil {
		slog.Error("settings_storage_error", "op", "remove", "key", TokenKey, "error", err)
	}
	busy.release(func(s *State) {
		s.DeletePassword = ""
		s.DeleteConfirmed = false
		s.Profile = api.Profile{}
		s.ProfileLoaded = false
	})
	c.succeed(OpDeleteAccount, msg, defaultAccountDeleted)
	return nil
}

type nopPresenter struct{}

func (nopPresenter) Render(State)  {}
func (nopPresenter) Notify(Notice) {}
