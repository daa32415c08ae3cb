package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookshelf/internal/auth"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/session"
	"bookshelf/internal/ui"
)

// app wires the services one command run needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
	client  *booksapi.Client
	session *session.Store
	console *ui.Console
	catalog *catalog.Service
	auth    *auth.Service
}

func newApp(cfg *config.Config, logger *zap.Logger, out io.Writer) *app {
	client := booksapi.NewClient(booksapi.Options{
		BaseURL:   cfg.APIURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.GetTimeout(),
		RPS:       cfg.RPS,
		Logger:    logger,
	})
	sess := session.New()
	console := ui.NewConsole(out)
	return &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		client:  client,
		session: sess,
		console: console,
		catalog: catalog.NewService(client, sess, console, console, logger),
		auth:    auth.NewService(client, sess, logger),
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		a          *app
	)

	rootCmd := &cobra.Command{
		Use:   "bookshelf",
		Short: "Browse, rate and review books",
		Long: `bookshelf talks to a books REST backend (json-server style, with
json-server-auth for /login and /register).

Run "bookshelf shell" for the interactive mode, where you can log in and
add, edit, rate, review and delete books.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(level)
			if err != nil {
				return err
			}
			a = newApp(cfg, logger, cmd.OutOrStdout())
			logger.Debug("configured", zap.String("api_url", cfg.APIURL), zap.Float64("rps", cfg.RPS))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Path to a YAML config file (default $%s)", config.EnvConfigPath))

	current := func() *app { return a }
	rootCmd.AddCommand(newBooksCmd(current), newShellCmd(current))
	return rootCmd
}
