package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jencheng1/sre-copilot/internal/config"
	"github.com/Jencheng1/sre-copilot/internal/logging"
	"github.com/Jencheng1/sre-copilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SRE Copilot server",
	Long: `Start the HTTP server: the JSON API, the SSE event stream, and the
browser dashboard. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w (run: srecopilot config setup)", err)
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
