package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/orchestrator"
	"github.com/Yates-Labs/concierge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	Long: `Run the HTTP API used by the chat widget.

Endpoints:
  POST /api/chat             {message}  -> {reply}
  POST /api/log-unanswered   {question} -> {status}
  POST /api/lead             {name, phone, country} -> {status}
  GET  /healthz

On SIGINT/SIGTERM the server stops accepting requests, drains in-flight
ones and waits for pending unanswered-question deliveries.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := orchestrator.NewPipeline(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			log.Warn("failed to close pipeline", zap.Error(err))
		}
	}()

	srv := server.NewServer(server.Config{
		ListenAddress: cfg.Server.Address,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
	}, pipeline.Resolver, pipeline.Recorder, pipeline.Leads, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
