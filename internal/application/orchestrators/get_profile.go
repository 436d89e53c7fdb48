package orchestrators

import (
	"context"
	"errors"
	"fmt"

	accountStore "medibook/internal/adapters/storage/account"
	"medibook/internal/domain/account"
)

// AccountStoreForProfile defines the store interface needed by GetProfile.
type AccountStoreForProfile interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// GetProfileDeps holds dependencies for GetProfile.
type GetProfileDeps struct {
	AccountStore AccountStoreForProfile
}

// ProfileResult is the doctor profile as shown in the settings panel.
type ProfileResult struct {
	ID      string
	Email   string
	Role    string
	Profile account.Profile
}

// ErrAccountNotFound is returned when the session refers to an account that no longer exists.
var ErrAccountNotFound = errors.New("account not found")

// accountLoadError keeps a missing account a rejection and any other store failure an error.
func accountLoadError(err error) error {
	if errors.Is(err, accountStore.ErrNotFound) {
		return ErrAccountNotFound
	}
	return fmt.Errorf("load account: %w", err)
}

// ExecuteGetProfile loads the profile of the signed-in account.
// PRE: accountID comes from an authenticated session
// POST: Returns the profile, or ErrAccountNotFound
func ExecuteGetProfile(ctx context.Context, accountID string, deps GetProfileDeps) (ProfileResult, error) {
	if accountID == "" {
		return ProfileResult{}, ErrAccountNotFound
	}
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return ProfileResult{}, accountLoadError(err)
	}
	return ProfileResult{
		ID:      acct.ID,
		Email:   acct.Email,
		Role:    acct.Role,
		Profile: acct.Profile,
	}, nil
}
