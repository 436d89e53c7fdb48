package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medibook/internal/adapters/storage"
	domain "medibook/internal/domain/account"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const selectAccount = `SELECT a.id, a.email, a.password_hash, a.role, a.created_at, a.failed_logins, a.locked_until,
	a.password_change_required,
	COALESCE(p.name, ''), COALESCE(p.speciality, ''), COALESCE(p.degree, ''), COALESCE(p.experience, ''),
	COALESCE(p.about, ''), COALESCE(p.fees, 0), COALESCE(p.available, 0),
	COALESCE(p.address_line1, ''), COALESCE(p.address_line2, '')
	FROM account a LEFT JOIN doctor_profile p ON p.account_id = a.id`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+" WHERE a.id = ?", id)
	return scanOne(row)
}

// GetByEmail retrieves an Account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectAccount+" WHERE a.email = ?", domain.NormalizeEmail(email))
	return scanOne(row)
}

// Save persists an Account and its profile in one transaction.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lockedUntil any
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.Format(timeLayout)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO account
		(id, email, password_hash, role, created_at, failed_logins, locked_until, password_change_required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email=excluded.email, password_hash=excluded.password_hash,
		role=excluded.role, failed_logins=excluded.failed_logins, locked_until=excluded.locked_until,
		password_change_required=excluded.password_change_required`,
		entity.ID,
		domain.NormalizeEmail(entity.Email),
		entity.PasswordHash,
		entity.Role,
		entity.CreatedAt.Format(timeLayout),
		entity.FailedLogins,
		lockedUntil,
		boolToInt(entity.PasswordChangeRequired),
	)
	if isEmailConflict(err) {
		return fmt.Errorf("save account: %w", ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	p := entity.Profile
	_, err = tx.ExecContext(ctx, `INSERT INTO doctor_profile
		(account_id, name, speciality, degree, experience, about, fees, available, address_line1, address_line2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET name=excluded.name, speciality=excluded.speciality,
		degree=excluded.degree, experience=excluded.experience, about=excluded.about, fees=excluded.fees,
		available=excluded.available, address_line1=excluded.address_line1, address_line2=excluded.address_line2`,
		entity.ID, p.Name, p.Speciality, p.Degree, p.Experience, p.About, p.Fees, boolToInt(p.Available),
		p.Address.Line1, p.Address.Line2,
	)
	if err != nil {
		return fmt.Errorf("save doctor profile: %w", err)
	}

	return tx.Commit()
}

// Delete removes an Account and, by cascade, its profile.
// PRE: id is non-empty
// POST: Entity with given id is removed; ErrNotFound if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Explicit profile delete: foreign_keys may be off on connections opened without the DSN pragma.
	if _, err := tx.ExecContext(ctx, "DELETE FROM doctor_profile WHERE account_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

func scanOne(row *sql.Row) (domain.Account, error) {
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	return entity, err
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	var changeRequired, available int
	p := &entity.Profile
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
		&changeRequired,
		&p.Name, &p.Speciality, &p.Degree, &p.Experience, &p.About, &p.Fees, &available,
		&p.Address.Line1, &p.Address.Line2,
	)
	if err != nil {
		return domain.Account{}, err
	}
	entity.PasswordChangeRequired = changeRequired == 1
	p.Available = available == 1
	entity.CreatedAt, _ = parseTime(createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = parseTime(lockedUntil.String)
	}
	return entity, nil
}

// isEmailConflict reports a UNIQUE violation on account.email.
// The driver exposes no typed constraint errors.
func isEmailConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: account.email")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
