package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"medibook/internal/adapters/email"
	"medibook/internal/domain/account"
)

// DeleteAccountInput carries input for the delete-account orchestrator.
type DeleteAccountInput struct {
	AccountID string
	Password  string
}

// AccountStoreForDelete defines the store interface needed by DeleteAccount.
type AccountStoreForDelete interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Delete(ctx context.Context, id string) error
}

// SessionRevoker ends every session belonging to an account.
type SessionRevoker interface {
	RevokeAccount(accountID string) int
}

// DeleteAccountDeps holds dependencies for DeleteAccount.
type DeleteAccountDeps struct {
	AccountStore AccountStoreForDelete
	Sessions     SessionRevoker
	Mailer       email.Sender // optional
}

// ErrDeletePasswordRequired is returned when no password confirms the deletion.
var ErrDeletePasswordRequired = errors.New("password is required to delete the account")

// ExecuteDeleteAccount permanently removes the signed-in account.
// PRE: AccountID comes from an authenticated session
// POST: Account and profile removed, all its sessions revoked, farewell notice sent
func ExecuteDeleteAccount(ctx context.Context, input DeleteAccountInput, deps DeleteAccountDeps) error {
	if input.Password == "" {
		return ErrDeletePasswordRequired
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return accountLoadError(err)
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		slog.Info("auth_event", "event", "account_delete_rejected", "account_id", acct.ID, "reason", "wrong_password")
		return ErrIncorrectPassword
	}

	if err := deps.AccountStore.Delete(ctx, acct.ID); err != nil {
		return err
	}

	revoked := 0
	if deps.Sessions != nil {
		revoked = deps.Sessions.RevokeAccount(acct.ID)
	}

	slog.Info("auth_event", "event", "account_deleted", "account_id", acct.ID, "email", acct.Email, "sessions_revoked", revoked)
	sendNotice(ctx, deps.Mailer, email.AccountDeletedNotice(acct.Profile.Name, acct.Email))
	return nil
}
