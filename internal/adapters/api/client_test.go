package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	token  string
	body   map[string]string
}

// newAPIServer starts a server that answers every call with status and reply.
// Each request it saw is delivered on the returned channel.
func newAPIServer(t *testing.T, status int, reply string) (*Client, <-chan recorded) {
	t.Helper()
	seen := make(chan recorded, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.RequestURI(), token: r.Header.Get(TokenHeader)}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		seen <- rec
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil), seen
}

func TestClient_Requests(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		call     func(c *Client) (string, error)
		wantPath string
		wantBody map[string]string
	}{
		{
			name:     "change email",
			call:     func(c *Client) (string, error) { return c.ChangeEmail(ctx, "tok", "new@clinic.test", "pw") },
			wantPath: "/api/doctor/change-email",
			wantBody: map[string]string{"newEmail": "new@clinic.test", "password": "pw"},
		},
		{
			name:     "change password",
			call:     func(c *Client) (string, error) { return c.ChangePassword(ctx, "tok", "old", "new") },
			wantPath: "/api/doctor/change-password",
			wantBody: map[string]string{"currentPassword": "old", "newPassword": "new"},
		},
		{
			name:     "delete account",
			call:     func(c *Client) (string, error) { return c.DeleteAccount(ctx, "tok", "secret") },
			wantPath: "/api/doctor/delete-account",
			wantBody: map[string]string{"password": "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newAPIServer(t, http.StatusOK, `{"success":true,"message":"Done"}`)

			msg, err := tt.call(c)
			require.NoError(t, err)
			rec := <-seen
			assert.Equal(t, "Done", msg)
			assert.Equal(t, http.MethodPost, rec.method)
			assert.Equal(t, tt.wantPath, rec.path)
			assert.Equal(t, "tok", rec.token)
			assert.Equal(t, tt.wantBody, rec.body)
		})
	}
}

func TestClient_GetProfile(t *testing.T) {
	c, seen := newAPIServer(t, http.StatusOK, `{"success":true,"profileData":{"_id":"d1","name":"Dr. Richard James","email":"richard@clinic.test","fees":50,"address":{"line1":"17th Cross"}}}`)

	p, err := c.GetProfile(context.Background(), "tok")
	require.NoError(t, err)
	rec := <-seen
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/doctor/profile", rec.path)
	assert.Equal(t, "richard@clinic.test", p.Email)
	assert.Equal(t, 50, p.Fees)
	assert.Equal(t, "17th Cross", p.Address.Line1)
}

func TestClient_Activity(t *testing.T) {
	client, seen := newAPIServer(t, http.StatusOK, `{"success":true,"events":[
		{"id":"e2","timestamp":"2026-03-01T08:01:00Z","action":"password_change","severity":"warning","email":"a@clinic.test"},
		{"id":"e1","timestamp":"2026-03-01T08:00:00Z","action":"login","severity":"info","email":"a@clinic.test","ipAddress":"10.0.0.1"}]}`)

	events, err := client.Activity(context.Background(), "tok", 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "password_change", events[0].Action)
	assert.Equal(t, "10.0.0.1", events[1].IPAddress)
	assert.True(t, events[0].Timestamp.After(events[1].Timestamp))

	rec := <-seen
	assert.Equal(t, "/api/doctor/activity?limit=5", rec.path)
	assert.Equal(t, "tok", rec.token)

	_, err = client.Activity(context.Background(), "tok", 0)
	require.NoError(t, err)
	assert.Equal(t, "/api/doctor/activity", (<-seen).path)
}

func TestClient_Login(t *testing.T) {
	c, seen := newAPIServer(t, http.StatusOK, `{"success":true,"token":"abc123"}`)

	token, err := c.Login(context.Background(), "richard@clinic.test", "pw")
	require.NoError(t, err)
	rec := <-seen
	assert.Equal(t, "abc123", token)
	assert.Empty(t, rec.token)
	assert.Equal(t, "richard@clinic.test", rec.body["email"])
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		reply        string
		wantRejected string
		wantStatus   int
	}{
		{"business rejection", http.StatusOK, `{"success":false,"message":"incorrect password"}`, "incorrect password", 0},
		{"rejection without message", http.StatusOK, `{"success":false}`, "request was rejected", 0},
		{"expired session", http.StatusUnauthorized, `{"success":false,"message":"Not Authorized Login Again"}`, "Not Authorized Login Again", 0},
		{"server error", http.StatusInternalServerError, `{"success":false,"message":"internal server error"}`, "", 500},
		{"html body", http.StatusOK, `<html>proxy error</html>`, "", 200},
		{"missing success field", http.StatusOK, `{"message":"hello"}`, "", 200},
		{"bad gateway", http.StatusBadGateway, ``, "", 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newAPIServer(t, tt.status, tt.reply)
			_, err := c.ChangePassword(context.Background(), "tok", "a", "b")
			require.Error(t, err)

			if tt.wantRejected != "" {
				assert.True(t, IsRejected(err))
				assert.EqualError(t, err, tt.wantRejected)
				return
			}
			assert.False(t, IsRejected(err))
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStatus, se.StatusCode)
		})
	}
}

func TestClient_LongErrorBodyKeepsWholeRunes(t *testing.T) {
	// "é" is two bytes and straddles the cap.
	body := strings.Repeat("a", maxErrorBody-1) + strings.Repeat("é", 20)
	c, _ := newAPIServer(t, http.StatusBadGateway, body)

	_, err := c.ChangePassword(context.Background(), "tok", "old", "new-pass")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.True(t, utf8.ValidString(se.Body))
	assert.Equal(t, strings.Repeat("a", maxErrorBody-1), se.Body)
	assert.True(t, utf8.ValidString(err.Error()))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, &http.Client{Timeout: time.Second})
	_, err := c.DeleteAccount(context.Background(), "tok", "pw")
	require.Error(t, err)
	assert.False(t, IsRejected(err))
	assert.Contains(t, err.Error(), "/api/doctor/delete-account")
}
