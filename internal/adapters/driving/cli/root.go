// Package cli implements the command-line driving adapter.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driving"
	"github.com/codeatlas-ai/codeatlas/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services are injected by the composition root before Execute runs.
var (
	ingestor      driving.Ingestor
	chatService   driving.ChatService
	commitService driving.CommitService
)

// Global flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "codeatlas",
	Short: "Ask questions about any GitHub repository",
	Long: `codeatlas ingests a GitHub repository, embeds a summary of every
source file, and answers natural-language questions about the code
with citations back to the relevant files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if setup != nil {
			return setup()
		}
		return nil
	},
}

// setup is installed by the composition root; it runs after flag parsing
// so service construction sees --config-dir and --data-dir.
var setup func() error

// SetSetup installs the service construction hook.
func SetSetup(fn func() error) {
	setup = fn
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.codeatlas)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.codeatlas/data)")
}

// SetServices wires the driving ports into the command tree.
func SetServices(ing driving.Ingestor, chat driving.ChatService, commits driving.CommitService) {
	ingestor = ing
	chatService = chat
	commitService = commits
}

// ConfigDir returns the --config-dir flag value.
func ConfigDir() string {
	return configDir
}

// DataDir returns the --data-dir flag value.
func DataDir() string {
	return dataDir
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
