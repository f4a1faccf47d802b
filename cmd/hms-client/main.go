package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/healthsync/hms-client/internal/config"
	"github.com/healthsync/hms-client/internal/domain/account"
	"github.com/healthsync/hms-client/internal/domain/billing"
	"github.com/healthsync/hms-client/internal/platform/apiclient"
	"github.com/healthsync/hms-client/internal/platform/session"
)

func init() {
	// Console and CLI JSON carry money as numbers, matching the hospital API.
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "hms-client",
		Short:         "Hospital management client: billing console and CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(billsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the wiring shared by the server and the CLI commands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *apiclient.Client
	store    session.Store
	accounts *account.Service
	billing  *billing.Service
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

// newApp loads and validates configuration and builds the services. Logs go
// to logOut so CLI output on stdout stays clean.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg, logOut)

	client, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(logger.With().Str("component", "apiclient").Logger()),
	)
	if err != nil {
		return nil, err
	}
	store := session.NewFileStore(cfg.SessionFile)

	billingSvc := billing.NewService(client, billing.NewMemoryDraftStore())
	billingSvc.SetLogger(logger.With().Str("component", "billing").Logger())

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		store:    store,
		accounts: account.NewService(client, store, logger),
		billing:  billingSvc,
	}, nil
}

// requireSession returns the stored, unexpired session.
func (a *app) requireSession() (*session.Session, error) {
	s, err := a.accounts.Current()
	if err != nil {
		return nil, fmt.Errorf("%w: run `hms-client login` first", err)
	}
	return s, nil
}
