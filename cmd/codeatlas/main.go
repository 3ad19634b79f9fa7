// Command codeatlas is a repository question-answering tool: it ingests a
// GitHub repository, embeds per-file summaries, and answers questions about
// the code with citations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/codeatlas-ai/codeatlas/internal/adapters/driven/ai/gemini"
	"github.com/codeatlas-ai/codeatlas/internal/adapters/driven/config/file"
	"github.com/codeatlas-ai/codeatlas/internal/adapters/driven/storage/sqlite"
	"github.com/codeatlas-ai/codeatlas/internal/adapters/driving/cli"
	"github.com/codeatlas-ai/codeatlas/internal/connectors/github"
	"github.com/codeatlas-ai/codeatlas/internal/core/ports/driven"
	"github.com/codeatlas-ai/codeatlas/internal/core/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetSetup(setup)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup builds the adapter stack and wires it into the command tree. It
// runs after flag parsing so --config-dir and --data-dir are honored.
func setup() error {
	cfg, err := file.NewConfigStore(cli.ConfigDir())
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	cli.SetConfigStore(cfg)

	store, err := sqlite.NewStore(cli.DataDir())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	geminiKey := cfg.GetString("gemini.api_key")
	if geminiKey == "" {
		geminiKey = os.Getenv("GEMINI_API_KEY")
	}

	githubToken := cfg.GetString("github.token")
	if githubToken == "" {
		githubToken = os.Getenv("GITHUB_TOKEN")
	}

	// Without an API key the services stay nil and report the missing key
	// when first used, instead of failing every command at startup.
	var embedding driven.EmbeddingService
	var llm driven.LLMService
	if geminiKey != "" {
		embeddingSvc, llmSvc, err := gemini.NewServices(
			gemini.EmbeddingConfig{
				APIKey: geminiKey,
				Model:  cfg.GetString("gemini.embedding_model"),
			},
			gemini.LLMConfig{
				Model: cfg.GetString("gemini.model"),
			},
		)
		if err != nil {
			return fmt.Errorf("gemini services: %w", err)
		}
		embedding = embeddingSvc
		llm = llmSvc
	}

	fetcher := github.NewFetcher(context.Background(), githubToken)

	projects := store.ProjectStore()
	records := store.SourceRecordStore()
	commits := store.CommitStore()

	ingest := services.NewIngestService(projects, records, fetcher, embedding)
	search := services.NewSearchService(records, embedding)
	sessions := services.NewSessionCache(
		cfg.GetInt("chat.session_capacity"),
		cfg.GetInt("chat.max_turns"),
	)
	chat := services.NewChatService(search, llm, sessions)
	commitSvc := services.NewCommitService(projects, commits, fetcher, llm)

	cli.SetServices(ingest, chat, commitSvc)
	return nil
}
