package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"medibook/internal/adapters/api"
	"medibook/internal/adapters/localstore"
	"medibook/internal/adapters/storage"
	"medibook/internal/application/settings"
	"medibook/internal/config"
)

// reportedError marks an error the presenter has already shown.
type reportedError struct{ error }

func (e *reportedError) Unwrap() error { return e.error }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err}
}

// app carries everything a command needs once PersistentPreRunE has run.
type app struct {
	stdin  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// flags
	configPath string
	apiURL     string
	dataDir    string
	timeout    string
	appearance string
	verbose    bool

	cfg     *config.Config
	db      *sql.DB
	logFile *os.File
	store   *localstore.SQLiteStore
	client  *api.Client
	ui      *presenter
	ctrl    *settings.Controller
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{stdin: in, in: bufio.NewReader(in), out: out, errOut: errOut}
}

// setup loads configuration and opens local storage.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("appearance") {
		cfg.PlatformAppearance = a.appearance
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := a.setupLogging(); err != nil {
		return err
	}

	a.db, err = storage.Open(withContext(cmd), cfg.LocalStorePath())
	if err != nil {
		return err
	}
	a.store, err = localstore.NewSQLiteStore(a.db)
	if err != nil {
		return err
	}

	timeout, _ := cfg.TimeoutDuration()
	a.client = api.NewClient(cfg.APIURL, &http.Client{Timeout: timeout})
	a.ui = newPresenter(a.out)
	a.ctrl = settings.New(a.client, a.store, a.ui)
	a.ctrl.InitAppearance(platformDark(cfg.PlatformAppearance))
	return nil
}

// setupLogging sends diagnostics to stderr with --verbose, otherwise to a log file in the data dir.
func (a *app) setupLogging() error {
	if a.verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: slog.LevelDebug})))
		return nil
	}
	f, err := os.OpenFile(filepath.Join(a.cfg.DataDir, "settings.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})))
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// platformDark resolves the platform colour-scheme preference.
func platformDark(choice string) bool {
	switch choice {
	case config.AppearanceDark:
		return true
	case config.AppearanceLight:
		return false
	}
	return lipgloss.HasDarkBackground()
}

// readLine prompts with label and returns the trimmed answer.
func (a *app) readLine(label string) (string, error) {
	fmt.Fprint(a.out, a.ui.prompt(label))
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret prompts for a password. On a terminal the answer is read with echo
// off; piped input goes through readLine.
func (a *app) readSecret(label string) (string, error) {
	f, ok := a.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.readLine(label)
	}
	fmt.Fprint(a.out, a.ui.prompt(label))
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}

// confirm asks a yes/no question. Anything but y or yes is no.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.readLine(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
