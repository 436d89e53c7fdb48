package orchestrators

import (
	"context"
	"log/slog"

	"medibook/internal/domain/audit"
)

// Activity list bounds.
const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// AuditRecorder persists account security events.
type AuditRecorder interface {
	Save(ctx context.Context, event audit.Event) error
}

// AuditStoreForActivity defines the store interface needed by ListActivity.
type AuditStoreForActivity interface {
	ListByAccount(ctx context.Context, accountID string, limit int) ([]audit.Event, error)
}

// ListActivityDeps holds dependencies for ListActivity.
type ListActivityDeps struct {
	AuditStore AuditStoreForActivity
}

// RecordAuditEvent stores an event. A nil recorder or a failed save never
// fails the account change that produced the event.
func RecordAuditEvent(ctx context.Context, recorder AuditRecorder, event audit.Event) {
	if recorder == nil {
		return
	}
	if err := recorder.Save(ctx, event); err != nil {
		slog.Error("audit_event_failed", "action", string(event.Action), "account_id", event.AccountID, "error", err)
	}
}

// ExecuteListActivity returns the signed-in account's security log, newest first.
// PRE: accountID comes from an authenticated session
// POST: at most MaxActivityLimit events; limit <= 0 means DefaultActivityLimit
func ExecuteListActivity(ctx context.Context, accountID string, limit int, deps ListActivityDeps) ([]audit.Event, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	events, err := deps.AuditStore.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}
