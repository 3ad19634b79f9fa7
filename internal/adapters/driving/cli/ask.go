package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/internal/core/domain"
)

var (
	askLimit    int
	askNoStream bool
)

var askCmd = &cobra.Command{
	Use:   "ask [project-id] [question]",
	Short: "Ask a question about an ingested repository",
	Long: `Retrieves the most relevant files for the question and streams a
grounded answer. The stream ends with a source listing naming the
files the answer drew on.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 3, "maximum number of source files to retrieve")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "wait for the complete answer instead of streaming")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	projectID, question := args[0], args[1]

	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if askNoStream {
		return runAskSync(cmd, projectID, question)
	}

	tokens, errs := chatService.Answer(cmd.Context(), projectID, question, askLimit)

	for token := range tokens {
		if payload, ok := strings.CutPrefix(token, domain.SourcesDelimiter); ok {
			cmd.Println()
			if err := printSources(cmd, payload); err != nil {
				return err
			}
			continue
		}
		cmd.Print(token)
	}
	if err := <-errs; err != nil {
		cmd.Println()
		return fmt.Errorf("ask failed: %w", err)
	}
	return nil
}

func runAskSync(cmd *cobra.Command, projectID, question string) error {
	answer, err := chatService.AnswerSync(cmd.Context(), projectID, question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, src := range answer.Sources {
			cmd.Printf("  %s (%.2f)\n", src.FileName, src.Similarity)
		}
	}
	return nil
}

func printSources(cmd *cobra.Command, payload string) error {
	var sources []domain.Source
	if err := json.Unmarshal([]byte(payload), &sources); err != nil {
		return fmt.Errorf("decode sources: %w", err)
	}

	if len(sources) == 0 {
		return nil
	}
	cmd.Println("Sources:")
	for _, src := range sources {
		cmd.Printf("  %s (%.2f)\n", src.FileName, src.Similarity)
		for _, seg := range src.RelevantSegments {
			cmd.Printf("    lines %d-%d: %s\n", seg.LineStart, seg.LineEnd, seg.Segment)
		}
	}
	return nil
}
