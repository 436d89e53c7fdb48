package main

import (
	"context"
	"path/filepath"
	"testing"

	"medibook/internal/adapters/storage"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	ready := filepath.Join(dir, "ready.db")
	db, err := storage.Open(context.Background(), ready)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	db.Close()

	blank := filepath.Join(dir, "blank.db")
	db, err = storage.Open(context.Background(), blank)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus Status
		wantLast   string
	}{
		{"initialized database", ready, StatusUp, "accounts"},
		{"missing file", filepath.Join(dir, "nope.db"), StatusDown, "file"},
		{"schema not created", blank, StatusDown, "accounts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := check(context.Background(), tt.path)
			if report.Status != tt.wantStatus {
				t.Fatalf("Status = %s, want %s (%+v)", report.Status, tt.wantStatus, report.Components)
			}
			last := report.Components[len(report.Components)-1]
			if last.Name != tt.wantLast {
				t.Errorf("last component = %q, want %q", last.Name, tt.wantLast)
			}
		})
	}
}

func TestCheck_CountsAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medibook.db")
	db, err := storage.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	db.Close()

	report := check(context.Background(), path)
	if got := report.Components[len(report.Components)-1].Detail; got != "0 accounts" {
		t.Errorf("Detail = %q, want %q", got, "0 accounts")
	}
}
