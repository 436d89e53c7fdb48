package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"medibook/internal/adapters/email"
	"medibook/internal/domain/account"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
	Mailer       email.Sender // optional
}

var (
	ErrPasswordFieldsRequired = errors.New("current and new password are required")
	ErrCurrentPasswordWrong   = errors.New("current password is incorrect")
	ErrNewPasswordSame        = errors.New("new password must be different from current password")
)

// ExecuteChangePassword validates the current password and updates to the new one.
// PRE: AccountID is valid, both passwords are non-empty
// POST: Password is updated, PasswordChangeRequired is cleared
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrPasswordFieldsRequired
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return accountLoadError(err)
	}

	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		slog.Info("auth_event", "event", "password_change_rejected", "account_id", acct.ID, "reason", "wrong_password")
		return ErrCurrentPasswordWrong
	}

	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}

	// Validates length and hashes
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.PasswordChangeRequired = false

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	sendNotice(ctx, deps.Mailer, email.PasswordChangedNotice(acct.Profile.Name, acct.Email))
	return nil
}

// sendNotice delivers an account notice. Delivery failures never fail the account change.
func sendNotice(ctx context.Context, mailer email.Sender, req email.SendRequest) {
	if mailer == nil {
		return
	}
	if _, err := mailer.Send(ctx, req); err != nil {
		slog.Warn("account_notice_failed", "subject", req.Subject, "error", err)
	}
}
