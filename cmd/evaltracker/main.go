package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/evaltracker/internal/backend"
	"github.com/nhle/evaltracker/internal/credential"
	"github.com/nhle/evaltracker/internal/model"
	"github.com/nhle/evaltracker/internal/store"
)

var (
	configPath string
	jsonOutput bool
	debug      bool

	cfg    *model.AppConfig
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "evaltracker",
	Short:         "Track course evaluations and get reminded before they are due",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger.Debug("config loaded", "path", configPath, "platform", cfg.Notify.Platform)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(evalsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(agendaCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDir is the directory holding the config file, the local store and
// the file keyring fallback.
func configDir() string {
	return filepath.Dir(configPath)
}

func newClient() (*backend.Client, error) {
	if cfg.Backend.URL == "" || cfg.Backend.AnonKey == "" {
		return nil, errors.New("backend is not configured: set backend.url and backend.anon_key " +
			"(or EVALTRACKER_BACKEND_URL and EVALTRACKER_BACKEND_ANON_KEY)")
	}
	return backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey), nil
}

func openVault() (*credential.Vault, error) {
	return credential.Open(configDir())
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path)
}

// session is an authenticated user plus a client carrying their token.
type session struct {
	*model.Session
	client *backend.Client
}

// requireSession loads the stored session, refreshing it when expired.
func requireSession(ctx context.Context) (*session, error) {
	base, err := newClient()
	if err != nil {
		return nil, err
	}
	vault, err := openVault()
	if err != nil {
		return nil, err
	}

	s, err := vault.LoadSession()
	if errors.Is(err, credential.ErrNoSession) {
		return nil, errors.New("not logged in: run `evaltracker login` first")
	}
	if err != nil {
		return nil, err
	}

	if s.Expired(time.Now()) {
		logger.Debug("refreshing expired session", "user_id", s.UserID)
		refreshed, err := base.Refresh(ctx, s.RefreshToken)
		if err != nil {
			if backend.IsAuthError(err) {
				return nil, fmt.Errorf("session expired, log in again: %w", err)
			}
			return nil, err
		}
		if err := vault.SaveSession(refreshed); err != nil {
			return nil, err
		}
		s = refreshed
	}

	return &session{Session: s, client: base.WithAccessToken(s.AccessToken)}, nil
}
