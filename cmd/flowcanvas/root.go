package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/aretw0/flowcanvas/internal/config"
	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/aretw0/flowcanvas/pkg/editor"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowcanvas",
	Short: "flowcanvas edits chatbot question flows as a graph",
	Long: `flowcanvas loads a tenant's question flow from a store, keeps it as a graph
of nodes and connections, and writes every edit back to the store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default: flowcanvas.yaml|.toml|.json in the working directory)")
	rootCmd.PersistentFlags().String("tenant", "", "Tenant whose flow is edited")
	rootCmd.PersistentFlags().String("backend", "", "Store backend: memory, file, redis or http")
	rootCmd.PersistentFlags().String("path", "", "Directory of the file backend")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("tenant") {
		cfg.Tenant, _ = flags.GetString("tenant")
	}
	if flags.Changed("backend") {
		cfg.Store.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("path") {
		cfg.Store.Path, _ = flags.GetString("path")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// session is an opened engine for one command.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend *cli.Backend
	engine  *flowcanvas.Engine
}

// openSession loads the tenant's flow. Notices go to stderr. Load failures
// abort the command instead of falling back to an empty canvas.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	b, err := cli.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	engine, err := cli.NewEngine(cfg, b, logger, nil,
		flowcanvas.WithNoticeHandler(func(n editor.Notice) {
			fmt.Fprintln(stderr, tui.Notice(n))
		}),
	)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if err := engine.Open(cmd.Context()); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	return &session{cfg: cfg, logger: logger, backend: b, engine: engine}, nil
}

// Close flushes pending layout work and releases the store.
func (s *session) Close() error {
	return errors.Join(s.engine.Close(), s.backend.Close())
}
