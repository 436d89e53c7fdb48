package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"medibook/internal/adapters/email"
	"medibook/internal/adapters/http/middleware"
	"medibook/internal/adapters/http/perf"
	accountStore "medibook/internal/adapters/storage/account"
	auditStore "medibook/internal/adapters/storage/audit"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	AuditStore   auditStore.Store // optional; without it no security log is kept
}

// Options configures NewMux. Zero values fall back to development defaults.
type Options struct {
	Mailer         email.Sender
	Collector      *perf.Collector
	Sessions       *middleware.SessionStore
	Ping           func(ctx context.Context) error
	CSRFKey        []byte
	Production     bool
	TrustedOrigins []string
	PerfToken      string
	// RateLimitPerSecond controls the per-client rate limit. Zero means 10.
	RateLimitPerSecond int
}

// app carries the dependencies every handler needs.
type app struct {
	accounts  accountStore.Store
	audit     auditStore.Store
	sessions  *middleware.SessionStore
	mailer    email.Sender
	collector *perf.Collector
	ping      func(ctx context.Context) error
	perfToken string
}

// LoadCSRFKey reads the CSRF secret from MEDIBOOK_CSRF_KEY (hex-encoded, 32 bytes).
// In production the key must be set. In development a random key is generated per startup.
func LoadCSRFKey(production bool) ([]byte, error) {
	if keyHex := os.Getenv("MEDIBOOK_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("MEDIBOOK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("MEDIBOOK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	log.Println("WARNING: using random CSRF key. Set MEDIBOOK_CSRF_KEY for production.")
	return key, nil
}

// NewMux wires HTTP handlers for the account API and the public pages.
// The rate limiter's sweeper stops when ctx is cancelled.
func NewMux(ctx context.Context, s *Stores, opts Options) (http.Handler, error) {
	a := &app{
		accounts:  s.AccountStore,
		audit:     s.AuditStore,
		sessions:  opts.Sessions,
		mailer:    opts.Mailer,
		collector: opts.Collector,
		ping:      opts.Ping,
		perfToken: opts.PerfToken,
	}
	if a.sessions == nil {
		a.sessions = middleware.NewSessionStore()
	}
	if a.collector == nil {
		a.collector = perf.NewCollector(perf.DefaultRingSize)
	}

	csrfKey := opts.CSRFKey
	if csrfKey == nil {
		var err error
		if csrfKey, err = LoadCSRFKey(opts.Production); err != nil {
			return nil, err
		}
	}

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	// Outer to inner: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.Production, opts.TrustedOrigins),
		middleware.Auth(a.sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(a.collector),
	), nil
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	doctor := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireDoctor(h)
	}

	mux.HandleFunc("GET /about", a.handleAbout)
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /admin/perf", a.handleAdminPerf)

	mux.HandleFunc("POST /api/doctor/login", a.handleDoctorLogin)
	mux.Handle("GET /api/doctor/profile", doctor(a.handleDoctorProfile))
	mux.Handle("GET /api/doctor/activity", doctor(a.handleActivity))
	mux.Handle("POST /api/doctor/change-email", doctor(a.handleChangeEmail))
	mux.Handle("POST /api/doctor/change-password", doctor(a.handleChangePassword))
	mux.Handle("POST /api/doctor/delete-account", doctor(a.handleDeleteAccount))
}
