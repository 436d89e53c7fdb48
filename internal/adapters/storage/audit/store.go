package audit

import (
	"context"

	domain "medibook/internal/domain/audit"
)

// Store persists account security events.
type Store interface {
	// Save persists an audit event.
	// PRE: event.Validate() == nil
	Save(ctx context.Context, event domain.Event) error

	// ListByAccount returns an account's events, newest first.
	// PRE: limit > 0
	ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Event, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
