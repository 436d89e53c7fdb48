package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medibook/internal/domain/account"
)

// TestSessionStore_Lifecycle tests create, get, expiry and delete.
func TestSessionStore_Lifecycle(t *testing.T) {
	ss := NewSessionStore()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	token, err := ss.Create("d1", "doc@clinic.test", account.RoleDoctor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}

	if s, ok := ss.Get(token); !ok || s.AccountID != "d1" {
		t.Fatalf("Get = %+v, %v", s, ok)
	}

	now = now.Add(sessionTTL + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("session should expire after 24h")
	}
	if ss.Len() != 0 {
		t.Errorf("Len = %d after expiry, want 0", ss.Len())
	}

	token, _ = ss.Create("d1", "doc@clinic.test", account.RoleDoctor)
	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("deleted session still valid")
	}
}

// TestSessionStore_RevokeAccount tests that only the given account loses its sessions.
func TestSessionStore_RevokeAccount(t *testing.T) {
	ss := NewSessionStore()
	a1, _ := ss.Create("d1", "one@clinic.test", account.RoleDoctor)
	a2, _ := ss.Create("d1", "one@clinic.test", account.RoleDoctor)
	b1, _ := ss.Create("d2", "two@clinic.test", account.RoleDoctor)

	if n := ss.RevokeAccount("d1"); n != 2 {
		t.Errorf("RevokeAccount = %d, want 2", n)
	}
	for _, tok := range []string{a1, a2} {
		if _, ok := ss.Get(tok); ok {
			t.Error("revoked token still valid")
		}
	}
	if _, ok := ss.Get(b1); !ok {
		t.Error("other account's token was revoked")
	}
}

// TestRequireDoctor tests header-based authentication.
func TestRequireDoctor(t *testing.T) {
	ss := NewSessionStore()
	doctorToken, _ := ss.Create("d1", "doc@clinic.test", account.RoleDoctor)
	adminToken, _ := ss.Create("a1", "admin@clinic.test", account.RoleAdmin)

	var seen Session
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), RequireDoctor, Auth(ss))

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"doctor token", doctorToken, http.StatusOK},
		{"no token", "", http.StatusUnauthorized},
		{"unknown token", "deadbeef", http.StatusUnauthorized},
		{"admin token", adminToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/doctor/profile", nil)
			if tt.token != "" {
				req.Header.Set(TokenHeader, tt.token)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen.AccountID != "d1" {
					t.Errorf("session in context = %+v", seen)
				}
				return
			}
			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Success || body.Message != NotAuthorizedMessage {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

// TestContextWithSession tests the context helpers round trip.
func TestContextWithSession(t *testing.T) {
	if _, ok := GetSessionFromContext(context.Background()); ok {
		t.Error("empty context should carry no session")
	}
	ctx := ContextWithSession(context.Background(), Session{AccountID: "d9"})
	if s, ok := GetSessionFromContext(ctx); !ok || s.AccountID != "d9" {
		t.Errorf("GetSessionFromContext = %+v, %v", s, ok)
	}
}

func TestSessionStore_UpdateEmail(t *testing.T) {
	ss := NewSessionStore()
	a1, _ := ss.Create("acc-1", "old@clinic.test", "doctor")
	a2, _ := ss.Create("acc-1", "old@clinic.test", "doctor")
	b, _ := ss.Create("acc-2", "other@clinic.test", "doctor")

	ss.UpdateEmail("acc-1", "new@clinic.test")

	for _, tok := range []string{a1, a2} {
		s, ok := ss.Get(tok)
		if !ok || s.Email != "new@clinic.test" {
			t.Errorf("session %s = %+v, want email new@clinic.test", tok, s)
		}
	}
	if s, _ := ss.Get(b); s.Email != "other@clinic.test" {
		t.Errorf("other account email = %q, want unchanged", s.Email)
	}
}
