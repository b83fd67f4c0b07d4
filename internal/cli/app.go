package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/db"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/session"
	"github.com/existflow/prayerlist/internal/store"
)

// app is the wired client: local state, vault, API client and store.
type app struct {
	db     *db.DB
	client *api.Client
	store  *store.Store
}

// openApp wires the client from cfg and restores the saved session. A saved
// token that expired is replaced by a silent login when credentials are saved.
func openApp(ctx context.Context) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := db.Open(cfg.StatePath())
	if err != nil {
		logger.Error("Failed to open database", logger.Err(err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sealer, err := session.LoadOrCreateSealer(filepath.Join(cfg.DataDir, "key.json"))
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to load key: %w", err)
	}

	log := logger.Default()
	st := store.New(session.NewVault(database, sealer), log.WithFields(logger.F("component", "store")))
	client, err := api.New(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Logger:  log.WithFields(logger.F("component", "api")),
	}, st)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	st.Bind(client)

	if err := st.Restore(ctx); err != nil {
		logger.Warn("Failed to restore session", logger.Err(err))
	}
	if err := st.ValidateToken(ctx); err != nil {
		fmt.Printf("⚠️  Could not restore your session: %s\n", api.MessageOf(err))
	}
	return &app{db: database, client: client, store: st}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	logger.Info("Database closed")
}

// requireLogin fails with a hint when no session is active.
func (a *app) requireLogin() error {
	if !a.store.Session().IsAuthenticated {
		return errors.New("not logged in, run: prayerlist auth login")
	}
	return nil
}

// withApp opens the app, checks the login and runs fn.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	return fn(a)
}

// failure turns an API error into the message shown to the user.
func failure(action string, err error) error {
	logger.Error(action+" failed", logger.Err(err))
	return fmt.Errorf("%s: %s", action, api.MessageOf(err))
}

var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) string {
	fmt.Print(label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	b, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b)
}
