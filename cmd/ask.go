package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/answer"
	"github.com/Yates-Labs/concierge/internal/orchestrator"
)

var verbose bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Resolve a single question from the command line",
	Long: `Resolve one question through the same pipeline the HTTP API uses.

The question is embedded, matched against the knowledge base and, when no
stored answer is confident enough, escalated to the completion model.
Unanswered questions are logged exactly as they are for the chat widget.

Examples:
  concierge ask "Do you have a pool?"
  concierge ask "¿A qué hora es el desayuno?" --verbose`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show how the answer was produced")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question, err := answer.NewQuestion(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer log.Sync()
	if !verbose {
		log = zap.NewNop()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pipeline, err := orchestrator.NewPipeline(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("%s Failed to create pipeline: %w", errorStyle.Render("Error:"), err)
	}
	defer pipeline.Close()

	fmt.Println()
	fmt.Println(headerStyle.Render("Question:"))
	fmt.Println(questionStyle.Render(question.String()))
	fmt.Println()

	resp := pipeline.Resolver.Resolve(ctx, question)

	fmt.Println(headerStyle.Render("Answer:"))
	fmt.Println(answerStyle.Render(strings.TrimSpace(resp.Reply)))
	fmt.Println()

	if verbose {
		fmt.Println(contextStyle.Render(fmt.Sprintf("outcome: %s, top score: %.3f, threshold: %.2f",
			resp.Outcome.Kind, resp.Score, cfg.Answer.SimilarityThreshold)))
	}
	if resp.Failed() {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), resp.Err)
	}
	if verbose && resp.Outcome.Unanswered() && pipeline.Recorder.Enabled() {
		fmt.Println(successStyle.Render("✓ Question logged for follow-up"))
	}
	return nil
}
