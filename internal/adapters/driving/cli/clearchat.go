package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var clearChatCmd = &cobra.Command{
	Use:   "clear-chat [project-id]",
	Short: "Clear the conversation history for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runClearChat,
}

func init() {
	rootCmd.AddCommand(clearChatCmd)
}

func runClearChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if chatService.ClearChat(args[0]) {
		cmd.Println("Chat history cleared")
	} else {
		cmd.Println("No chat history to clear")
	}
	return nil
}
