package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/internal/connectors/github"
)

var ingestRepo string

var ingestCmd = &cobra.Command{
	Use:   "ingest [project-id]",
	Short: "Ingest a repository for querying",
	Long: `Walks the repository tree, summarizes and embeds every recognized
source file, and stores the results. Safe to repeat: unchanged files
are overwritten in place and the run reports zero new embeddings.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestRepo, "repo", "", "repository as owner/name or full URL (required)")
	_ = ingestCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	repoURL := ingestRepo
	if !strings.Contains(repoURL, "://") {
		repoURL = "https://github.com/" + repoURL
	}

	ctx := cmd.Context()
	if err := ingestor.Register(ctx, projectID, repoURL); err != nil {
		return fmt.Errorf("register project: %w", err)
	}

	report, err := ingestor.Initialize(ctx, projectID)
	if err != nil {
		switch {
		case github.IsUnauthorized(err):
			return fmt.Errorf("ingest failed: %w\nset a valid token with: codeatlas config set github.token <token>", err)
		case github.IsRateLimited(err):
			return fmt.Errorf("ingest failed: %w\nwait for the quota to reset, or configure github.token for a higher limit", err)
		case github.IsNotFound(err):
			return fmt.Errorf("ingest failed: %w\ncheck the repository owner/name", err)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("%s\n", report.Message)
	cmd.Printf("  embeddings: %d (%d new)\n", report.EmbeddingsCount, report.NewEmbeddings)
	return nil
}
