package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"medibook/internal/adapters/email"
	accountStore "medibook/internal/adapters/storage/account"
	"medibook/internal/domain/account"
)

// ChangeEmailInput carries input for the change-email orchestrator.
type ChangeEmailInput struct {
	AccountID string
	NewEmail  string
	Password  string
}

// AccountStoreForChangeEmail defines the store interface needed by ChangeEmail.
type AccountStoreForChangeEmail interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangeEmailDeps holds dependencies for ChangeEmail.
type ChangeEmailDeps struct {
	AccountStore AccountStoreForChangeEmail
	Mailer       email.Sender // optional
}

var (
	ErrEmailFieldsRequired = errors.New("new email and password are required")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrEmailInUse          = errors.New("email is already in use by another account")
)

// ExecuteChangeEmail replaces the login email after re-checking the password.
// PRE: AccountID comes from an authenticated session
// POST: Email updated; notice sent to both old and new addresses
// INVARIANT: Email stays unique across accounts
func ExecuteChangeEmail(ctx context.Context, input ChangeEmailInput, deps ChangeEmailDeps) error {
	if input.NewEmail == "" || input.Password == "" {
		return ErrEmailFieldsRequired
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return accountLoadError(err)
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "email_change_rejected", "account_id", acct.ID, "reason", "wrong_password")
		return ErrIncorrectPassword
	}

	oldEmail := acct.Email
	if err := acct.ChangeEmail(input.NewEmail); err != nil {
		return err
	}

	if other, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil && other.ID != acct.ID {
		return ErrEmailInUse
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		if errors.Is(err, accountStore.ErrEmailTaken) {
			return ErrEmailInUse
		}
		return err
	}

	slog.Info("auth_event", "event", "email_changed", "account_id", acct.ID, "old_email", oldEmail, "new_email", acct.Email)
	sendNotice(ctx, deps.Mailer, email.EmailChangedNotice(acct.Profile.Name, oldEmail, acct.Email))
	return nil
}
