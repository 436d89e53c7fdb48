package settings

import (
	"context"
	"errors"
	"fmt"
)

// ErrCredentialsRequired is returned by SignIn when email or password is empty.
var ErrCredentialsRequired = errors.New("email and password are required")

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// SignIn logs in and stores the session credential where the controller reads it.
func SignIn(ctx context.Context, auth Authenticator, storage Storage, email, password string) error {
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}
	token, err := auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := storage.Set(TokenKey, token); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// SignOut forgets the stored session credential.
func SignOut(storage Storage) error {
	return storage.Remove(TokenKey)
}

// SignedIn reports whether a session credential is stored.
func SignedIn(storage Storage) bool {
	tok, ok, err := storage.Get(TokenKey)
	return err == nil && ok && tok != ""
}

// SessionToken returns the stored session credential, or ErrNoSession.
func SessionToken(storage Storage) (string, error) {
	tok, ok, err := storage.Get(TokenKey)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	if !ok || tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}
