package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"medibook/internal/adapters/api"
	"medibook/internal/adapters/email"
	web "medibook/internal/adapters/http"
	"medibook/internal/adapters/storage"
	accountStore "medibook/internal/adapters/storage/account"
	auditStore "medibook/internal/adapters/storage/audit"
	"medibook/internal/application/orchestrators"
	"medibook/internal/application/settings"
	"medibook/internal/domain/account"
)

const (
	doctorEmail    = "richard@clinic.test"
	doctorPassword = "correct-horse"
)

type cli struct {
	t       *testing.T
	baseURL string
	dir     string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitDB(db))
	store := accountStore.NewSQLiteStore(db)

	_, err = orchestrators.ExecuteCreateAccount(context.Background(), orchestrators.CreateAccountInput{
		Email:    doctorEmail,
		Password: doctorPassword,
		Role:     account.RoleDoctor,
		Profile:  account.Profile{Name: "Dr. Richard James", Speciality: "General physician", Fees: 50},
	}, orchestrators.CreateAccountDeps{AccountStore: store})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	handler, err := web.NewMux(ctx, &web.Stores{AccountStore: store, AuditStore: auditStore.NewSQLiteStore(db)}, web.Options{
		Mailer:             email.NewNoopSender(),
		CSRFKey:            []byte("0123456789abcdef0123456789abcdef"),
		RateLimitPerSecond: 1000,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &cli{t: t, baseURL: srv.URL, dir: t.TempDir()}
}

// run executes one command line with stdin as the prompt answers.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	full := append([]string{
		"--config", filepath.Join(c.dir, "settings.yaml"),
		"--data-dir", c.dir,
		"--api-url", c.baseURL,
		"--appearance", "light",
	}, args...)
	var out, errOut bytes.Buffer
	err := run(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (c *cli) login() {
	c.t.Helper()
	out, err := c.run(doctorPassword+"\n", "login", "--email", doctorEmail)
	require.NoError(c.t, err)
	require.Contains(c.t, out, "Signed in as "+doctorEmail)
}

func TestRun_AccountLifecycle(t *testing.T) {
	c := newCLI(t)
	c.login()

	out, err := c.run("", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Dr. Richard James")
	assert.Contains(t, out, doctorEmail)

	out, err = c.run(doctorPassword+"\ny\n", "email", "james@clinic.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Change login email from "+doctorEmail+" to james@clinic.test?")
	assert.Contains(t, out, "Email updated successfully")

	out, err = c.run(doctorPassword+"\nnew-password-1\nnew-password-1\n", "password")
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated successfully")

	out, err = c.run("y\nnew-password-1\ny\n", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Account deleted successfully")

	_, err = c.run("", "profile")
	assert.ErrorIs(t, err, settings.ErrNoSession)
}

func TestRun_Activity(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "activity")
	require.ErrorIs(t, err, settings.ErrNoSession)

	c.login()
	_, err = c.run(doctorPassword+"\nnew-password-1\nnew-password-1\n", "password")
	require.NoError(t, err)

	out, err := c.run("", "activity", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "password change")
	assert.Contains(t, out, "login")
}

func TestRun_EmailDeclined(t *testing.T) {
	c := newCLI(t)
	c.login()

	out, err := c.run(doctorPassword+"\nn\n", "email", "james@clinic.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Email unchanged")

	out, err = c.run("", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, doctorEmail)
}

func TestRun_ControllerErrorsAreReported(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr error
		wantOut string
	}{
		{
			name:    "password mismatch",
			stdin:   doctorPassword + "\nnew-password-1\nnew-password-2\n",
			args:    []string{"password"},
			wantErr: settings.ErrPasswordMismatch,
			wantOut: "new passwords do not match",
		},
		{
			name:    "delete without consent",
			stdin:   "n\n" + doctorPassword + "\n",
			args:    []string{"delete"},
			wantErr: settings.ErrDeleteConsentRequired,
			wantOut: "confirm that you understand deletion cannot be undone",
		},
		{
			name:    "email without password",
			stdin:   "\n",
			args:    []string{"email", "james@clinic.test"},
			wantErr: settings.ErrEmailFieldsRequired,
			wantOut: "new email and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			c.login()
			out, err := c.run(tt.stdin, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
			var shown *reportedError
			assert.True(t, errors.As(err, &shown), "error should be marked as shown")
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRun_WrongPasswordIsRejected(t *testing.T) {
	c := newCLI(t)
	c.login()

	out, err := c.run("wrong-password\nnew-password-1\nnew-password-1\n", "password")
	require.Error(t, err)
	assert.True(t, api.IsRejected(err))
	assert.Contains(t, out, "✗")
}

func TestRun_LoginRejected(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("not-the-password\n", "login", "--email", doctorEmail)
	require.Error(t, err)
	assert.True(t, api.IsRejected(err))

	_, err = c.run("", "profile")
	assert.ErrorIs(t, err, settings.ErrNoSession)
}

func TestRun_LogoutForgetsSession(t *testing.T) {
	c := newCLI(t)
	c.login()

	out, err := c.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = c.run("", "profile")
	assert.ErrorIs(t, err, settings.ErrNoSession)
}

func TestRun_ThemePersists(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Appearance: light")

	out, err = c.run("", "theme", "toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Appearance: dark")

	out, err = c.run("", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Appearance: dark", "stored choice should win over the platform preference")
}
