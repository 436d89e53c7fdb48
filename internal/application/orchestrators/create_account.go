package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accountStore "medibook/internal/adapters/storage/account"
	"medibook/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email                  string
	Password               string
	Role                   string
	Profile                account.Profile
	PasswordChangeRequired bool
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 8 chars, valid role, non-empty profile name
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	if input.Password == "" {
		return "", account.ErrEmptyPassword
	}

	if _, err := deps.AccountStore.GetByEmail(ctx, input.Email); err == nil {
		return "", ErrEmailAlreadyExists
	}

	acct := account.Account{
		ID:                     uuid.New().String(),
		Email:                  account.NormalizeEmail(input.Email),
		Role:                   input.Role,
		Profile:                input.Profile,
		CreatedAt:              time.Now(),
		PasswordChangeRequired: input.PasswordChangeRequired,
	}

	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		if errors.Is(err, accountStore.ErrEmailTaken) {
			return "", ErrEmailAlreadyExists
		}
		return "", err
	}

	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role)
	return acct.ID, nil
}

// ExecuteSeedDoctor creates a demo doctor account if no accounts exist.
// PRE: Database is initialized
// POST: Doctor account created if count == 0
func ExecuteSeedDoctor(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    email,
		Password: password,
		Role:     account.RoleDoctor,
		Profile: account.Profile{
			Name:       "Dr. Richard James",
			Speciality: "General physician",
			Degree:     "MBBS",
			Experience: "4 Years",
			About:      "Dr. James has a strong commitment to delivering comprehensive medical care, focusing on preventive medicine, early diagnosis, and effective treatment strategies.",
			Fees:       50,
			Available:  true,
			Address:    account.Address{Line1: "17th Cross, Richmond", Line2: "Circle, Ring Road, London"},
		},
	}, deps)
	if err != nil {
		return err
	}

	slog.Info("auth_event", "event", "doctor_seeded", "email", email)
	return nil
}
