package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	emailPkg "medibook/internal/adapters/email"
	web "medibook/internal/adapters/http"
	"medibook/internal/adapters/http/perf"
	"medibook/internal/adapters/storage"
	accountStore "medibook/internal/adapters/storage/account"
	auditStore "medibook/internal/adapters/storage/audit"
	"medibook/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := envOrDefault("MEDIBOOK_ENV", "development")
	production := env == "production"

	dbPath := envOrDefault("MEDIBOOK_DB", "medibook.db")
	db, err := storage.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)
	acctStore := accountStore.NewSQLiteStore(timedDB)

	// Seed a demo doctor if no accounts exist
	seedEmail := envOrDefault("MEDIBOOK_SEED_EMAIL", "richard@medibook.test")
	seedPassword := envOrDefault("MEDIBOOK_SEED_PASSWORD", "")
	if seedPassword == "" && !production {
		seedPassword = "doctor-demo-1"
	}
	if seedPassword != "" {
		seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
		if err := orchestrators.ExecuteSeedDoctor(ctx, seedDeps, seedEmail, seedPassword); err != nil {
			log.Fatalf("failed to seed doctor: %v", err)
		}
	}

	// Configure email sender
	var mailer emailPkg.Sender
	resendKey := os.Getenv("MEDIBOOK_RESEND_KEY")
	emailFrom := envOrDefault("MEDIBOOK_RESEND_FROM", "Medibook <noreply@medibook.test>")
	emailReply := envOrDefault("MEDIBOOK_REPLY_TO", "support@medibook.test")
	if resendKey != "" {
		mailer = emailPkg.NewResendSender(resendKey, emailFrom, emailReply)
		log.Println("Email sender configured (Resend)")
	} else {
		mailer = emailPkg.NewNoopSender()
		if production {
			log.Println("WARNING: MEDIBOOK_RESEND_KEY is not set, account notices are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set MEDIBOOK_RESEND_KEY for real delivery)")
		}
	}

	rate, err := strconv.Atoi(envOrDefault("MEDIBOOK_RATE_LIMIT", "10"))
	if err != nil || rate <= 0 {
		log.Fatalf("MEDIBOOK_RATE_LIMIT must be a positive integer")
	}

	handler, err := web.NewMux(ctx, &web.Stores{
		AccountStore: acctStore,
		AuditStore:   auditStore.NewSQLiteStore(timedDB),
	}, web.Options{
		Mailer:             mailer,
		Collector:          collector,
		Ping:               timedDB.PingContext,
		Production:         production,
		PerfToken:          os.Getenv("MEDIBOOK_PERF_TOKEN"),
		RateLimitPerSecond: rate,
	})
	if err != nil {
		log.Fatalf("failed to build handler: %v", err)
	}

	addr := envOrDefault("MEDIBOOK_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Medibook %s starting on %s (env=%s)", version, addr, env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("server_shutdown", "reason", context.Cause(gctx))
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
