package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medibook/internal/adapters/storage"
	domain "medibook/internal/domain/audit"
)

// dateLayout is fixed width so stored timestamps sort as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (id, timestamp, account_id, email, action, severity, description, ip_address, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC().Format(dateLayout), event.AccountID, event.Email,
		string(event.Action), string(event.Severity), event.Description, event.IPAddress, event.UserAgent)
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

// ListByAccount returns an account's events, newest first.
func (s *SQLiteStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, account_id, email, action, severity, description, ip_address, user_agent
		 FROM audit_event WHERE account_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// scanEvents scans multiple rows into a slice of Events.
func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var timestamp string
		err := rows.Scan(&e.ID, &timestamp, &e.AccountID, &e.Email, &e.Action, &e.Severity, &e.Description, &e.IPAddress, &e.UserAgent)
		if err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(dateLayout, timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}
