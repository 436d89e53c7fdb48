package account_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"medibook/internal/adapters/storage"
	accountStore "medibook/internal/adapters/storage/account"
	domain "medibook/internal/domain/account"
)

func newTestStore(t *testing.T) *accountStore.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return accountStore.NewSQLiteStore(db)
}

func sampleDoctor() domain.Account {
	return domain.Account{
		ID:        "doc-1",
		Email:     "Richard@Clinic.test",
		Role:      domain.RoleDoctor,
		CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Profile: domain.Profile{
			Name:       "Dr. Richard James",
			Speciality: "General physician",
			Degree:     "MBBS",
			Experience: "4 Years",
			Fees:       50,
			Available:  true,
			Address:    domain.Address{Line1: "17th Cross, Richmond", Line2: "Circle, Ring Road, London"},
		},
	}
}

// TestSQLiteStore_SaveAndGet verifies round-tripping an account with its profile.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleDoctor()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByEmail(ctx, "richard@clinic.test")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "doc-1" || got.Email != "richard@clinic.test" {
		t.Errorf("got id=%q email=%q", got.ID, got.Email)
	}
	if got.Profile.Speciality != "General physician" || !got.Profile.Available || got.Profile.Fees != 50 {
		t.Errorf("profile not round-tripped: %+v", got.Profile)
	}
	if !got.CreatedAt.Equal(sampleDoctor().CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, sampleDoctor().CreatedAt)
	}
}

// TestSQLiteStore_Update verifies Save upserts an existing account.
func TestSQLiteStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acct := sampleDoctor()
	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save: %v", err)
	}

	acct.Email = "new@clinic.test"
	acct.FailedLogins = 3
	acct.PasswordChangeRequired = true
	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := store.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "new@clinic.test" || got.FailedLogins != 3 || !got.PasswordChangeRequired {
		t.Errorf("update not persisted: %+v", got)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

// TestSQLiteStore_Delete verifies removal and the not-found error.
func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, sampleDoctor()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "doc-1"); !errors.Is(err, accountStore.ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "doc-1"); !errors.Is(err, accountStore.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

// TestSQLiteStore_EmailTaken verifies that a second account cannot take an existing email.
func TestSQLiteStore_EmailTaken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, sampleDoctor()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := sampleDoctor()
	other.ID = "doc-2"
	other.Email = "richard@clinic.test"
	err := store.Save(ctx, other)
	if !errors.Is(err, accountStore.ErrEmailTaken) {
		t.Fatalf("Save duplicate: error = %v, want ErrEmailTaken", err)
	}
	if _, err := store.GetByID(ctx, "doc-2"); !errors.Is(err, accountStore.ErrNotFound) {
		t.Errorf("GetByID after failed save: error = %v, want ErrNotFound", err)
	}
}
