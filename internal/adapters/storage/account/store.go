package account

import (
	"context"
	"errors"

	domain "medibook/internal/domain/account"
)

// ErrNotFound is returned when no account matches a lookup.
var ErrNotFound = errors.New("account not found")

// ErrEmailTaken is returned by Save when another account already holds the email.
var ErrEmailTaken = errors.New("email already belongs to another account")

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
