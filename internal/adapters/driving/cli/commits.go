package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var commitsListOnly bool

var commitsCmd = &cobra.Command{
	Use:   "commits [project-id]",
	Short: "Pull and summarize recent commits",
	Long: `Fetches commits newer than the latest stored one, summarizes each
diff, and prints the new entries. Use --list to print the stored feed
without pulling.`,
	Args: cobra.ExactArgs(1),
	RunE: runCommits,
}

func init() {
	commitsCmd.Flags().BoolVar(&commitsListOnly, "list", false, "print the stored feed without pulling new commits")
	rootCmd.AddCommand(commitsCmd)
}

func runCommits(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	if commitService == nil {
		return errors.New("commit service not configured")
	}

	ctx := cmd.Context()

	if commitsListOnly {
		commits, err := commitService.List(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list commits: %w", err)
		}
		if len(commits) == 0 {
			cmd.Println("No commits stored.")
			return nil
		}
		for _, c := range commits {
			cmd.Printf("%s  %s  %s\n", shortHash(c.Hash), c.Date.Format("2006-01-02"), c.AuthorName)
			cmd.Printf("    %s\n", c.Summary)
		}
		return nil
	}

	commits, err := commitService.Pull(ctx, projectID)
	if err != nil {
		return fmt.Errorf("pull commits: %w", err)
	}

	if len(commits) == 0 {
		cmd.Println("No new commits.")
		return nil
	}
	for _, c := range commits {
		cmd.Printf("%s  %s  %s\n", shortHash(c.Hash), c.Date.Format("2006-01-02"), c.AuthorName)
		cmd.Printf("    %s\n", c.Summary)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
