package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
)

// configStore is injected by the composition root before Execute runs.
var configStore driven.ConfigStore

// SetConfigStore wires the config store into the config commands.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		val, ok := configStore.Get(args[0])
		if !ok {
			return fmt.Errorf("key %q is not set", args[0])
		}
		cmd.Printf("%v\n", val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately.

Common keys:
  gemini.api_key   Gemini API key used for embeddings and answers
  github.token     GitHub access token used to fetch repositories`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		if err := configStore.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("set %s: %w", args[0], err)
		}
		cmd.Printf("%s saved to %s\n", args[0], configStore.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
