package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [project-id]",
	Short: "Show whether a project is ready for querying",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestor.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if status.Initialized {
		cmd.Printf("initialized (%d embeddings)\n", status.EmbeddingsCount)
	} else {
		cmd.Println("not initialized - run ingest first")
	}
	return nil
}
