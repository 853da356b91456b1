package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/config"
	"github.com/Yates-Labs/concierge/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge - knowledge base answers with model escalation",
	Long: `Concierge answers guest questions from a curated FAQ knowledge base.

Questions the knowledge base cannot answer confidently are escalated to a
completion model locked to the configured domain, and questions that remain
unanswered are logged to a webhook for follow-up.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the logger shared by all commands
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
