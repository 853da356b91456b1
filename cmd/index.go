package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/concierge/internal/orchestrator"
	"github.com/Yates-Labs/concierge/internal/rag"
)

var (
	sourcePath string
	sourceRef  string
	batchSize  int
	dryRun     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [source]",
	Short: "Load FAQs into the knowledge base",
	Long: `Embed FAQ questions and upsert them into the configured retrieval backend.

The source is a JSON file containing an array of {id?, question, answer}
objects. With --path the source is a git repository (local path or remote
URL) and the file is read from it at --ref, or HEAD.

Entries without an id get a stable one derived from the question, so
re-indexing the same file replaces rows instead of duplicating them.

Examples:
  concierge index data/faqs.json
  concierge index https://github.com/hotel/kb --path faqs.json --ref v3
  concierge index . --path data/faqs.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&sourcePath, "path", "", "Path of the FAQ file inside a git repository")
	indexCmd.Flags().StringVar(&sourceRef, "ref", "", "Git revision to read (commit, tag or origin/branch)")
	indexCmd.Flags().IntVar(&batchSize, "batch-size", rag.DefaultIndexOptions().BatchSize, "Number of questions to embed per request")
	indexCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the FAQ file without writing to the backend")
}

func runIndex(cmd *cobra.Command, args []string) error {
	source := orchestrator.FAQSource{
		Location: args[0],
		Path:     sourcePath,
		Ref:      sourceRef,
	}

	fmt.Println(contextStyle.Render(fmt.Sprintf("→ Reading FAQs from %s...", source.Name())))
	faqs, err := orchestrator.LoadFAQs(source)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Parsed %d FAQs", len(faqs))))

	if dryRun {
		return nil
	}

	cfg, log, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	embedder, err := orchestrator.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("%s Failed to create embedder: %w", errorStyle.Render("Error:"), err)
	}

	store, err := orchestrator.NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s Failed to connect to %s: %w", errorStyle.Render("Error:"), cfg.Retrieval.Backend, err)
	}
	defer store.Close()

	fmt.Println(contextStyle.Render(fmt.Sprintf("→ Indexing into %s with %s...", cfg.Retrieval.Backend, embedder.GetModel())))
	indexed, err := rag.IndexFAQs(ctx, faqs, embedder, store, rag.IndexOptions{BatchSize: batchSize})
	if err != nil {
		return fmt.Errorf("%s indexed %d of %d FAQs: %w", errorStyle.Render("Error:"), indexed, len(faqs), err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Indexed %d FAQs", indexed)))
	return nil
}
