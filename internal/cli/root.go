// Package cli provides the command-line interface for the helpdesk
// assistant.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hungg523/helpdesk-assistant/internal/auth"
	"github.com/hungg523/helpdesk-assistant/internal/config"
	"github.com/hungg523/helpdesk-assistant/internal/metrics"
	"github.com/hungg523/helpdesk-assistant/internal/transport"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and backend client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	client     *transport.Client
	collector  *metrics.Collector

	// Lazy-initialized auth store
	authStore *auth.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "helpdesk",
	Short: "Terminal client for the IT helpdesk assistant",
	Long: `Helpdesk is a terminal client for the company IT assistant.

Chat with the assistant, browse your conversation history, rate answers,
and read helpdesk statistics without leaving the terminal.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}

		// The chat TUI owns the terminal; its logs go to file only.
		if cmd.Name() == "chat" {
			logger, logCleanup = config.SetupFileLogger(cfg.LogFile, level)
		} else {
			logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		}

		collector = metrics.NewCollector()
		client = transport.New(transport.Options{
			BaseURL:   cfg.APIURL,
			PageLimit: cfg.PageLimit,
			Timeout:   cfg.HTTPTimeout,
			Metrics:   collector,
			Logger:    logger,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if authStore != nil {
			if err := authStore.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close auth store: %v\n", err)
			}
		}
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// getAuthStore opens the auth database on first use.
func getAuthStore() (*auth.Store, error) {
	if authStore != nil {
		return authStore, nil
	}
	s, err := auth.OpenStore(cfg.AuthDBPath())
	if err != nil {
		return nil, fmt.Errorf("open auth store: %w", err)
	}
	authStore = s
	return s, nil
}

// currentUser returns the logged-in user or an instructive error.
func currentUser() (*auth.User, error) {
	store, err := getAuthStore()
	if err != nil {
		return nil, err
	}
	u, err := store.Current()
	if err != nil {
		return nil, fmt.Errorf("run 'helpdesk login <employee code>' first: %w", err)
	}
	return u, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(feedbackCmd)
}
