// Command ecofyserver runs the Ecofy civic backend and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rishika-pasricha/Hack-Hub/internal/api"
	"github.com/Rishika-pasricha/Hack-Hub/internal/app"
	"github.com/Rishika-pasricha/Hack-Hub/internal/config"
)

const (
	Version = "0.1.0"
	appName = "ecofyserver"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Ecofy civic backend",
		Long: `ecofyserver serves the Ecofy HTTP API: citizen accounts, the municipality
directory, moderated blogs, issues, the marketplace and notifications.

Run without a subcommand to start the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(g)
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(g)
			},
		},
		importCmd(g),
		reconcileCmd(g),
		mailsinkCmd(g),
		dkimKeygenCmd(),
		dkimCheckCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func newLogger(g *globalFlags) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(g.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var logger *slog.Logger
	if g.logJSON {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)
	return logger
}

func loadConfig(g *globalFlags) (config.Config, error) {
	if g.configPath != "" {
		viper.SetConfigFile(g.configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// bootstrap loads config and connects every backend. The caller closes the
// returned app.
func bootstrap(ctx context.Context, g *globalFlags) (*app.App, error) {
	logger := newLogger(g)
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	a := app.New(cfg, logger)
	if err := a.Init(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init: %w", err)
	}
	return a, nil
}

func serve(g *globalFlags) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Log().Warn("close", "err", err)
		}
	}()

	a.Startup(ctx)
	a.SetWebRouter(api.SetupRouter(a))

	a.Log().Info("ecofy ready",
		"version", Version,
		"storage", a.Config().Storage,
		"addr", fmt.Sprintf("%s:%d", a.Config().WebHost, a.Config().WebPort))

	return a.Run(ctx)
}
